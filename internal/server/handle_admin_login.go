package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// CoordinatorLoginRequest is the request body for POST /api/admin/login.
type CoordinatorLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CoordinatorMeResponse is the response for GET /api/admin/me.
type CoordinatorMeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func handleCoordinatorLogin(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CoordinatorLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		coordinatorID, passwordHash, err := store.CoordinatorByEmail(r.Context(), req.Email)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		sessionID, err := store.CreateCoordinatorSession(r.Context(), coordinatorID, req.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("coordinator logged in", "email", req.Email)

		http.SetCookie(w, &http.Cookie{
			Name:     coordinatorCookieName,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   int(7 * 24 * time.Hour / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, CoordinatorMeResponse{
			ID:    coordinatorID,
			Email: req.Email,
		})
	}
}

func handleCoordinatorLogout(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(coordinatorCookieName)
		if err == nil && cookie.Value != "" {
			store.DeleteCoordinatorSession(r.Context(), cookie.Value)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     coordinatorCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleCoordinatorMe(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := coordinatorFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, CoordinatorMeResponse{
			ID:    sess.CoordinatorID,
			Email: sess.Email,
		})
	}
}
