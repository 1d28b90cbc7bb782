package server

import (
	"net/http"
	"time"

	"github.com/questline/huntapi/internal/hunt"
)

type TeamInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ClueInfo struct {
	ID         string          `json:"id"`
	OrderIndex int             `json:"orderIndex"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	AnswerKind hunt.AnswerKind `json:"answerKind"`
	ImageURL   string          `json:"imageUrl,omitempty"`
}

type ClueProgressInfo struct {
	ClueID      string                `json:"clueId"`
	Title       string                `json:"title"`
	OrderIndex  int                   `json:"orderIndex"`
	Completed   bool                  `json:"completed"`
	Status      hunt.SubmissionStatus `json:"status,omitempty"`
	SubmittedAt *time.Time            `json:"submittedAt,omitempty"`
}

type StateResponse struct {
	Team           TeamInfo           `json:"team"`
	CurrentClue    *ClueInfo          `json:"currentClue"`
	Progress       []ClueProgressInfo `json:"progress"`
	CompletedCount int                `json:"completedCount"`
	TotalClues     int                `json:"totalClues"`
	HuntComplete   bool               `json:"huntComplete"`
	MysteryOpen    bool               `json:"mysteryOpen"`
	FinaleOpen     bool               `json:"finaleOpen"`
	FormulaSolved  bool               `json:"formulaSolved"`
}

// handleState is the single poll endpoint a player app renders from: the
// current clue, per-clue progress, and which gated stages are open.
func handleState(store Store) http.HandlerFunc {
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

		var currentClue *ClueInfo
		if c := hunt.CurrentClue(team, clues); c != nil {
			currentClue = &ClueInfo{
				ID:         c.ID,
				OrderIndex: c.OrderIndex,
				Title:      c.Title,
				Body:       c.Body,
				AnswerKind: c.AnswerKind,
				ImageURL:   c.ImageURL,
			}
		}

		progress := make([]ClueProgressInfo, 0, len(clues))
		for _, c := range clues {
			p := ClueProgressInfo{
				ClueID:     c.ID,
				Title:      c.Title,
				OrderIndex: c.OrderIndex,
				Completed:  team.HasCompleted(c.ID),
			}
			if cp, ok := team.PerClueStatus[c.ID]; ok {
				p.Status = cp.Status
				p.SubmittedAt = cp.SubmittedAt
			}
			progress = append(progress, p)
		}

		mystery, haveMystery, err := store.Mystery(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		mysteryOpen := false
		if haveMystery {
			_, hasAccused, err := store.AccusationByTeam(r.Context(), team.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			mysteryOpen = hunt.MysteryOpen(mystery, team, hasAccused)
		}

		writeJSON(w, http.StatusOK, StateResponse{
			Team:           TeamInfo{ID: team.ID, Name: team.Name},
			CurrentClue:    currentClue,
			Progress:       progress,
			CompletedCount: hunt.CompletedCount(team, clues),
			TotalClues:     len(clues),
			HuntComplete:   hunt.HuntComplete(team, clues),
			MysteryOpen:    mysteryOpen,
			FinaleOpen:     hunt.FinaleOpen(team, clues),
			FormulaSolved:  team.FormulaSolved,
		})
	}
}
