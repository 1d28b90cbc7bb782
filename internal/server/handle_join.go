package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type JoinRequest struct {
	JoinCode string `json:"joinCode"`
}

type JoinResponse struct {
	Token    string `json:"token"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

// TeamPreview is what an unauthenticated join-code lookup reveals.
type TeamPreview struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func handleTeamLookup(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := normalizeJoinCode(chi.URLParam(r, "joinCode"))
		if code == "" {
			writeError(w, http.StatusBadRequest, "join code is required")
			return
		}

		team, err := store.TeamByJoinCode(r.Context(), code)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, TeamPreview{ID: team.ID, Name: team.Name})
	}
}

func handleJoin(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.JoinCode = normalizeJoinCode(req.JoinCode)
		if req.JoinCode == "" {
			writeError(w, http.StatusBadRequest, "joinCode is required")
			return
		}

		team, err := store.TeamByJoinCode(r.Context(), req.JoinCode)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, err := store.CreatePlayerSession(r.Context(), team.ID, team.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(team.ID, Event{
			Type:     "player_joined",
			TeamName: team.Name,
		})

		writeJSON(w, http.StatusOK, JoinResponse{
			Token:    token,
			TeamID:   team.ID,
			TeamName: team.Name,
		})
	}
}

// normalizeJoinCode strips whitespace and upper-cases, so codes scanned or
// typed by hand compare equal to what was generated.
func normalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
