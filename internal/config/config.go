package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/hunt.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	RedisURL string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Coordinator account seeded on first start.
	CoordinatorEmail    string `env:"COORDINATOR_EMAIL" envDefault:"coordinator@hunt.local"`
	CoordinatorPassword string `env:"COORDINATOR_PASSWORD" envDefault:"change-me"`

	// Cloudinary. Uploads use the unsigned preset; the key/secret pair is
	// only needed for signed deletes and stays server-side.
	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET"`
	CloudinaryAPIKey       string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret    string `env:"CLOUDINARY_API_SECRET"`

	// Reconciliation sweep for submissions stuck in uploading.
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	SweepStuckAfter time.Duration `env:"SWEEP_STUCK_AFTER" envDefault:"5m"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
