package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/questline/huntapi/internal/hunt"
	"github.com/questline/huntapi/internal/media"
)

// Reviewer resolves pending submissions on behalf of the coordinator and
// carries the side effects: team progress, notifications, announcements,
// leaderboard, media cleanup.
type Reviewer struct {
	store       Store
	uploader    media.Uploader
	broker      *Broker
	leaderboard *Leaderboard
	logger      *slog.Logger

	wg sync.WaitGroup
}

func NewReviewer(store Store, uploader media.Uploader, broker *Broker, leaderboard *Leaderboard, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		store:       store,
		uploader:    uploader,
		broker:      broker,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// Wait blocks until background media deletes have settled.
func (rv *Reviewer) Wait() {
	rv.wg.Wait()
}

// Approve moves a pending submission to approved and credits the clue to
// the team. Approving an already-approved submission is a no-op, so a
// double-clicking coordinator cannot double-credit a team.
func (rv *Reviewer) Approve(ctx context.Context, submissionID string) (hunt.Submission, error) {
	already := false
	sub, err := rv.store.ModifySubmission(ctx, submissionID, func(s *hunt.Submission) error {
		if s.Status == hunt.StatusApproved {
			already = true
			return nil
		}
		if s.Status != hunt.StatusPending {
			return ErrInvalidTransition
		}
		if s.Uploading {
			// The photo has not landed yet; there is nothing to look at.
			return ErrInvalidTransition
		}
		s.Status = hunt.StatusApproved
		return nil
	})
	if err != nil {
		return hunt.Submission{}, err
	}
	if already {
		return sub, nil
	}

	clues, err := rv.store.ListClues(ctx)
	if err != nil {
		return hunt.Submission{}, err
	}

	var completedNow bool
	var completedCount int
	team, err := rv.store.ModifyTeam(ctx, sub.TeamID, func(t *hunt.Team) error {
		wasComplete := hunt.HuntComplete(*t, clues)
		if !t.HasCompleted(sub.ClueID) {
			t.CompletedClueIDs = append(t.CompletedClueIDs, sub.ClueID)
		}
		if t.PerClueStatus == nil {
			t.PerClueStatus = make(map[string]hunt.ClueProgress)
		}
		cp := t.PerClueStatus[sub.ClueID]
		cp.Status = hunt.StatusApproved
		t.PerClueStatus[sub.ClueID] = cp

		completedCount = hunt.CompletedCount(*t, clues)
		completedNow = !wasComplete && hunt.HuntComplete(*t, clues)
		return nil
	})
	if err != nil {
		return hunt.Submission{}, err
	}

	rv.leaderboard.Set(ctx, team.ID, completedCount)

	rv.broker.Publish(team.ID, Event{
		Type:      "submission_approved",
		TeamName:  team.Name,
		ClueID:    sub.ClueID,
		ClueTitle: sub.ClueTitle,
		Status:    hunt.StatusApproved,
	})

	if completedNow {
		msg := fmt.Sprintf("Team %s has completed the hunt!", team.Name)
		if _, err := rv.store.CreateAnnouncement(ctx, "Hunt complete", msg, hunt.PriorityHigh); err != nil {
			rv.logger.Error("creating completion announcement", "team_id", team.ID, "error", err)
		} else {
			rv.broker.Broadcast(Event{
				Type:     "announcement",
				Message:  msg,
				Priority: hunt.PriorityHigh,
			})
		}
	}

	return sub, nil
}

// Reject moves a pending submission to rejected and tells the team why.
func (rv *Reviewer) Reject(ctx context.Context, submissionID, feedback string) (hunt.Submission, error) {
	var deleteHandle string
	sub, err := rv.store.ModifySubmission(ctx, submissionID, func(s *hunt.Submission) error {
		if s.Status != hunt.StatusPending {
			return ErrInvalidTransition
		}
		// Rejecting mid-upload is fine: the patch sees the terminal status
		// and drops the asset as an orphan.
		s.Status = hunt.StatusRejected
		s.Uploading = false
		s.Feedback = feedback
		deleteHandle = s.MediaDeleteHandle
		s.MediaDeleteHandle = ""
		if s.AnswerKind == hunt.AnswerPhoto {
			s.Content = ""
		}
		return nil
	})
	if err != nil {
		return hunt.Submission{}, err
	}

	if _, err := rv.store.ModifyTeam(ctx, sub.TeamID, func(t *hunt.Team) error {
		if t.PerClueStatus == nil {
			return nil
		}
		cp := t.PerClueStatus[sub.ClueID]
		cp.Status = hunt.StatusRejected
		t.PerClueStatus[sub.ClueID] = cp
		return nil
	}); err != nil {
		rv.logger.Warn("updating team progress after reject", "team_id", sub.TeamID, "error", err)
	}

	msg := feedback
	if msg == "" {
		msg = fmt.Sprintf("Your answer for %q was not accepted. Give it another try!", sub.ClueTitle)
	}
	if _, err := rv.store.CreateNotification(ctx, sub.TeamID, msg); err != nil {
		rv.logger.Error("creating rejection notification", "team_id", sub.TeamID, "error", err)
	}

	rv.deleteMedia(ctx, deleteHandle)

	rv.broker.Publish(sub.TeamID, Event{
		Type:      "submission_rejected",
		ClueID:    sub.ClueID,
		ClueTitle: sub.ClueTitle,
		Status:    hunt.StatusRejected,
		Message:   msg,
	})

	return sub, nil
}

// Delete removes a resolved submission. Only rejected and upload_failed
// submissions can be deleted; history of approvals stays.
func (rv *Reviewer) Delete(ctx context.Context, submissionID string) error {
	sub, err := rv.store.SubmissionByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != hunt.StatusRejected && sub.Status != hunt.StatusUploadFailed {
		return ErrInvalidTransition
	}
	if err := rv.store.DeleteSubmission(ctx, submissionID); err != nil {
		return err
	}
	rv.deleteMedia(ctx, sub.MediaDeleteHandle)
	return nil
}

// deleteMedia runs the asset delete detached and best-effort. A leaked
// Cloudinary asset is not worth failing a review over.
func (rv *Reviewer) deleteMedia(ctx context.Context, handle string) {
	if handle == "" {
		return
	}
	dctx := context.WithoutCancel(ctx)
	rv.wg.Add(1)
	go func() {
		defer rv.wg.Done()
		if err := rv.uploader.Delete(dctx, handle); err != nil {
			rv.logger.Warn("deleting media asset", "handle", handle, "error", err)
		}
	}()
}

func handleAdminListSubmissions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := SubmissionFilter{
			TeamID: r.URL.Query().Get("teamId"),
			Status: hunt.SubmissionStatus(r.URL.Query().Get("status")),
		}

		subs, err := store.ListSubmissions(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if subs == nil {
			subs = []hunt.Submission{}
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleApprove(reviewer *Reviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := reviewer.Approve(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		if errors.Is(err, ErrInvalidTransition) {
			writeError(w, http.StatusConflict, "submission cannot be approved in its current state")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

type RejectRequest struct {
	Feedback string `json:"feedback"`
}

func handleReject(reviewer *Reviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RejectRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sub, err := reviewer.Reject(r.Context(), chi.URLParam(r, "id"), req.Feedback)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		if errors.Is(err, ErrInvalidTransition) {
			writeError(w, http.StatusConflict, "submission cannot be rejected in its current state")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func handleAdminDeleteSubmission(reviewer *Reviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := reviewer.Delete(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		if errors.Is(err, ErrInvalidTransition) {
			writeError(w, http.StatusConflict, "only rejected or failed submissions can be deleted")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
