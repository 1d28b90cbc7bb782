package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/hunt"
)

type FinaleStateResponse struct {
	Eligible bool `json:"eligible"`
	Approved bool `json:"approved"`
	Open     bool `json:"open"`
	Solved   bool `json:"solved"`
	// The map and formula are only disclosed once the gate is open.
	MapImageURL    string     `json:"mapImageUrl,omitempty"`
	MapDescription string     `json:"mapDescription,omitempty"`
	FormulaText    string     `json:"formulaText,omitempty"`
	SolvedAt       *time.Time `json:"solvedAt,omitempty"`
}

func handleFinaleState(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		clues, err := store.ListClues(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := FinaleStateResponse{
			Eligible: hunt.HuntComplete(team, clues),
			Approved: team.FinaleApproved,
			Open:     hunt.FinaleOpen(team, clues),
			Solved:   team.FormulaSolved,
			SolvedAt: team.FinaleSolvedAt,
		}

		if resp.Open {
			finale, ok, err := store.Finale(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if ok {
				resp.MapImageURL = finale.MapImageURL
				resp.MapDescription = finale.MapDescription
				resp.FormulaText = finale.FormulaText
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type FinaleAnswerRequest struct {
	Answer string `json:"answer"`
}

type FinaleAnswerResponse struct {
	Correct  bool       `json:"correct"`
	Solved   bool       `json:"solved"`
	SolvedAt *time.Time `json:"solvedAt,omitempty"`
}

func handleFinaleAnswer(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		var req FinaleAnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Answer = strings.TrimSpace(req.Answer)
		if req.Answer == "" {
			writeError(w, http.StatusBadRequest, "answer is required")
			return
		}

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		clues, err := store.ListClues(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !hunt.FinaleOpen(team, clues) {
			writeError(w, http.StatusForbidden, "the finale is not open for your team")
			return
		}
		if team.FormulaSolved {
			writeJSON(w, http.StatusOK, FinaleAnswerResponse{
				Correct:  true,
				Solved:   true,
				SolvedAt: team.FinaleSolvedAt,
			})
			return
		}

		finale, ok, err := store.Finale(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok || finale.MissingAnswer == "" {
			writeError(w, http.StatusConflict, "the finale is not configured")
			return
		}

		correct := strings.EqualFold(req.Answer, strings.TrimSpace(finale.MissingAnswer))
		if !correct {
			writeJSON(w, http.StatusOK, FinaleAnswerResponse{Correct: false})
			return
		}

		now := time.Now().UTC()
		team, err = store.ModifyTeam(r.Context(), team.ID, func(t *hunt.Team) error {
			if !t.FormulaSolved {
				t.FormulaSolved = true
				t.FinaleSolvedAt = &now
			}
			return nil
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(team.ID, Event{
			Type:     "finale_solved",
			TeamName: team.Name,
		})

		writeJSON(w, http.StatusOK, FinaleAnswerResponse{
			Correct:  true,
			Solved:   true,
			SolvedAt: team.FinaleSolvedAt,
		})
	}
}

func handleAdminGetFinale(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		finale, ok, err := store.Finale(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "finale not configured")
			return
		}
		writeJSON(w, http.StatusOK, finale)
	}
}

func handleAdminPutFinale(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f hunt.Finale
		if err := readJSON(r, &f); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := store.PutFinale(r.Context(), f); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

type FinaleApprovalRequest struct {
	Approved bool `json:"approved"`
}

// handleAdminFinaleApproval grants or revokes the manual half of the
// finale gate for one team.
func handleAdminFinaleApproval(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FinaleApprovalRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		team, err := store.ModifyTeam(r.Context(), chi.URLParam(r, "teamID"), func(t *hunt.Team) error {
			t.FinaleApproved = req.Approved
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

		eventType := "finale_approved"
		if !req.Approved {
			eventType = "finale_revoked"
		}
		broker.Publish(team.ID, Event{
			Type:     eventType,
			TeamName: team.Name,
		})

		writeJSON(w, http.StatusOK, team)
	}
}
