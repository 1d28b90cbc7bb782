package server

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SeedCoordinator creates the configured coordinator account on first
// boot. Idempotent: does nothing if any coordinator exists.
func SeedCoordinator(ctx context.Context, logger *slog.Logger, store Store, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	n, err := store.CountCoordinators(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := store.CreateCoordinator(ctx, email, string(hash)); err != nil {
		return err
	}

	logger.Info("coordinator account created", "email", email)
	return nil
}
