package server

import (
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/hunt"
)

// joinCodeAlphabet omits 0/O and 1/I so codes survive being read aloud.
const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
)

func generateJoinCode() (string, error) {
	var b strings.Builder
	for i := 0; i < joinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(joinCodeAlphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func handleAdminListTeams(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := store.ListTeams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if teams == nil {
			teams = []hunt.Team{}
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

type TeamRequest struct {
	Name string `json:"name"`
}

func handleAdminCreateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		// The join_code column is unique; on the off chance of a collision
		// we roll again.
		var team hunt.Team
		var err error
		for attempt := 0; attempt < 5; attempt++ {
			var code string
			code, err = generateJoinCode()
			if err != nil {
				break
			}
			team, err = store.CreateTeam(r.Context(), req.Name, code)
			if err == nil {
				break
			}
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, team)
	}
}

func handleAdminUpdateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		teamID := chi.URLParam(r, "teamID")
		err := store.UpdateTeamName(r.Context(), teamID, req.Name)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		team, err := store.TeamByID(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}

func handleAdminDeleteTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteTeam(r.Context(), chi.URLParam(r, "teamID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleAdminResetTeam wipes a team's hunt progress so the same device and
// join code can be reused for a fresh run.
func handleAdminResetTeam(store Store, leaderboard *Leaderboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := store.ModifyTeam(r.Context(), chi.URLParam(r, "teamID"), func(t *hunt.Team) error {
			t.CompletedClueIDs = []string{}
			t.PerClueStatus = nil
			t.FinaleApproved = false
			t.FormulaSolved = false
			t.FinaleSolvedAt = nil
			return nil
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Old submissions must go too: an approved row would block the
		// fresh run's resubmission for that clue.
		if err := store.DeleteTeamSubmissions(r.Context(), team.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		leaderboard.Set(r.Context(), team.ID, 0)

		writeJSON(w, http.StatusOK, team)
	}
}
