package server

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	ctxKeyPlayer ctxKey = iota
	ctxKeyCoordinator
)

func playerAuthMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := playerFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func coordinatorAuthMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := coordinatorFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyCoordinator, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFrom(r *http.Request) playerSession {
	return r.Context().Value(ctxKeyPlayer).(playerSession)
}
