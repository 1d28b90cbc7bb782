package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/hunt"
)

func handleAdminListClues(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clues, err := store.ListClues(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if clues == nil {
			clues = []hunt.Clue{}
		}
		writeJSON(w, http.StatusOK, clues)
	}
}

type ClueRequest struct {
	OrderIndex     int             `json:"orderIndex"`
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	AnswerKind     hunt.AnswerKind `json:"answerKind"`
	ExpectedAnswer string          `json:"expectedAnswer"`
	ImageURL       string          `json:"imageUrl"`
}

func (req *ClueRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if req.Title == "" {
		return "title is required"
	}
	if !req.AnswerKind.Valid() {
		return "answerKind must be text, photo or scan"
	}
	if req.AnswerKind == hunt.AnswerPhoto && req.ExpectedAnswer != "" {
		return "photo clues do not take an expected answer"
	}
	return ""
}

func (req ClueRequest) toClue() hunt.Clue {
	return hunt.Clue{
		OrderIndex:     req.OrderIndex,
		Title:          req.Title,
		Body:           req.Body,
		AnswerKind:     req.AnswerKind,
		ExpectedAnswer: strings.TrimSpace(req.ExpectedAnswer),
		ImageURL:       strings.TrimSpace(req.ImageURL),
	}
}

func handleAdminCreateClue(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClueRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		clue, err := store.CreateClue(r.Context(), req.toClue())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, clue)
	}
}

func handleAdminUpdateClue(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClueRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		clue := req.toClue()
		clue.ID = chi.URLParam(r, "clueID")

		err := store.UpdateClue(r.Context(), clue)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		updated, err := store.ClueByID(r.Context(), clue.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleAdminDeleteClue(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteClue(r.Context(), chi.URLParam(r, "clueID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
