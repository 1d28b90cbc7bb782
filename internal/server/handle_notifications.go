package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/hunt"
)

func handleListNotifications(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)
		unreadOnly := r.URL.Query().Get("unread") == "1"

		notes, err := store.ListNotifications(r.Context(), sess.TeamID, unreadOnly)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if notes == nil {
			notes = []hunt.Notification{}
		}
		writeJSON(w, http.StatusOK, notes)
	}
}

func handleMarkNotificationRead(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		err := store.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"), sess.TeamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
