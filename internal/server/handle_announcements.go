package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/hunt"
)

func handleListAnnouncements(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anns, err := store.ListAnnouncements(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if anns == nil {
			anns = []hunt.Announcement{}
		}
		writeJSON(w, http.StatusOK, anns)
	}
}

type AnnouncementRequest struct {
	Title    string                    `json:"title"`
	Message  string                    `json:"message"`
	Priority hunt.AnnouncementPriority `json:"priority"`
}

func (req *AnnouncementRequest) validate() string {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return "message is required"
	}
	switch req.Priority {
	case "", hunt.PriorityNormal, hunt.PriorityHigh:
		return ""
	}
	return "priority must be normal or high"
}

func handleAdminCreateAnnouncement(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnnouncementRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		ann, err := store.CreateAnnouncement(r.Context(), req.Title, req.Message, req.Priority)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Broadcast(Event{
			Type:     "announcement",
			Message:  ann.Message,
			Priority: ann.Priority,
		})

		writeJSON(w, http.StatusCreated, ann)
	}
}

func handleAdminUpdateAnnouncement(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnnouncementRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		ann, err := store.UpdateAnnouncement(r.Context(), chi.URLParam(r, "id"), req.Title, req.Message, req.Priority)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "announcement not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Broadcast(Event{
			Type:     "announcement_updated",
			Message:  ann.Message,
			Priority: ann.Priority,
		})

		writeJSON(w, http.StatusOK, ann)
	}
}
