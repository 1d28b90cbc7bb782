package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/questline/huntapi/internal/hunt"
)

// SuspectView is a suspect as players see it: the culprit flag is hidden
// until the reveal.
type SuspectView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Photo        string `json:"photo,omitempty"`
	Age          int    `json:"age,omitempty"`
	Occupation   string `json:"occupation,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Alibi        string `json:"alibi,omitempty"`
	Motive       string `json:"motive,omitempty"`
}

type MysteryStateResponse struct {
	Active     bool             `json:"active"`
	Unlocked   bool             `json:"unlocked"`
	CanAccuse  bool             `json:"canAccuse"`
	Revealed   bool             `json:"revealed"`
	Victim     *hunt.Victim     `json:"victim,omitempty"`
	Suspects   []SuspectView    `json:"suspects,omitempty"`
	Evidence   []hunt.Evidence  `json:"evidence,omitempty"`
	Accusation *hunt.Accusation `json:"accusation,omitempty"`
	CulpritID  string           `json:"culpritId,omitempty"`
}

func handleMysteryState(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		mystery, ok, err := store.Mystery(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok || !mystery.Active {
			writeJSON(w, http.StatusOK, MysteryStateResponse{})
			return
		}

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		unlocked := mystery.StartClueID == "" || team.HasCompleted(mystery.StartClueID)
		resp := MysteryStateResponse{
			Active:   true,
			Unlocked: unlocked,
			Revealed: mystery.Revealed,
		}
		if !unlocked {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		accusation, hasAccused, err := store.AccusationByTeam(r.Context(), team.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp.CanAccuse = hunt.MysteryOpen(mystery, team, hasAccused)
		resp.Victim = &mystery.Victim
		for _, s := range mystery.Suspects {
			resp.Suspects = append(resp.Suspects, SuspectView{
				ID:           s.ID,
				Name:         s.Name,
				Photo:        s.Photo,
				Age:          s.Age,
				Occupation:   s.Occupation,
				Relationship: s.Relationship,
				Alibi:        s.Alibi,
				Motive:       s.Motive,
			})
		}
		resp.Evidence = hunt.UnlockedEvidence(mystery, team)
		if hasAccused {
			resp.Accusation = &accusation
		}
		if mystery.Revealed {
			for _, s := range mystery.Suspects {
				if s.IsCulprit {
					resp.CulpritID = s.ID
					break
				}
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type AccuseRequest struct {
	SuspectID string `json:"suspectId"`
	Reasoning string `json:"reasoning"`
}

type AccuseResponse struct {
	Accusation hunt.Accusation `json:"accusation"`
}

func handleAccuse(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		var req AccuseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SuspectID == "" {
			writeError(w, http.StatusBadRequest, "suspectId is required")
			return
		}

		mystery, ok, err := store.Mystery(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok || !mystery.Active {
			writeError(w, http.StatusConflict, "the mystery is not active")
			return
		}

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		_, hasAccused, err := store.AccusationByTeam(r.Context(), team.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if hasAccused {
			writeError(w, http.StatusConflict, "your team has already made its accusation")
			return
		}
		if !hunt.MysteryOpen(mystery, team, false) {
			writeError(w, http.StatusForbidden, "the mystery is not unlocked for your team yet")
			return
		}

		var suspect *hunt.Suspect
		for i := range mystery.Suspects {
			if mystery.Suspects[i].ID == req.SuspectID {
				suspect = &mystery.Suspects[i]
				break
			}
		}
		if suspect == nil {
			writeError(w, http.StatusNotFound, "suspect not found")
			return
		}

		accusation := hunt.Accusation{
			ID:          newID(),
			TeamID:      team.ID,
			TeamName:    team.Name,
			SuspectID:   suspect.ID,
			SuspectName: suspect.Name,
			Reasoning:   strings.TrimSpace(req.Reasoning),
			Correct:     suspect.IsCulprit,
			SubmittedAt: time.Now().UTC(),
		}
		if err := store.CreateAccusation(r.Context(), accusation); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(team.ID, Event{
			Type:     "accusation_made",
			TeamName: team.Name,
		})

		writeJSON(w, http.StatusCreated, AccuseResponse{Accusation: accusation})
	}
}

func handleAdminGetMystery(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mystery, ok, err := store.Mystery(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "mystery not configured")
			return
		}
		writeJSON(w, http.StatusOK, mystery)
	}
}

func handleAdminPutMystery(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m hunt.Mystery
		if err := readJSON(r, &m); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		for _, s := range m.Suspects {
			if s.ID == "" || s.Name == "" {
				writeError(w, http.StatusBadRequest, "every suspect needs an id and a name")
				return
			}
		}

		// Reveal state is managed through the reveal endpoint, not config.
		existing, ok, err := store.Mystery(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if ok {
			m.Revealed = existing.Revealed
			m.RevealedAt = existing.RevealedAt
		} else {
			m.Revealed = false
			m.RevealedAt = nil
		}

		if err := store.PutMystery(r.Context(), m); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func handleAdminRevealMystery(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mystery, ok, err := store.Mystery(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "mystery not configured")
			return
		}
		if !mystery.Revealed {
			now := time.Now().UTC()
			mystery.Revealed = true
			mystery.RevealedAt = &now
			if err := store.PutMystery(r.Context(), mystery); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			broker.Broadcast(Event{
				Type:    "mystery_revealed",
				Message: "The culprit has been revealed!",
			})
		}
		writeJSON(w, http.StatusOK, mystery)
	}
}

func handleAdminListAccusations(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accusations, err := store.ListAccusations(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if accusations == nil {
			accusations = []hunt.Accusation{}
		}
		writeJSON(w, http.StatusOK, accusations)
	}
}
