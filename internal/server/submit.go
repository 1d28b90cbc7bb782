package server

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/questline/huntapi/internal/hunt"
	"github.com/questline/huntapi/internal/media"
)

// Pipeline takes player answers through the submission lifecycle. Text and
// scan answers are written synchronously; photos follow the placeholder
// protocol: the pending record is visible immediately and the media
// transfer completes (or fails) behind it.
type Pipeline struct {
	store    Store
	uploader media.Uploader
	broker   *Broker
	logger   *slog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

func NewPipeline(store Store, uploader media.Uploader, broker *Broker, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		uploader: uploader,
		broker:   broker,
		logger:   logger,
		now:      time.Now,
	}
}

// Wait blocks until all in-flight photo transfers have settled.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Submit validates and records an answer for the team's clue. The returned
// submission is pending; for photos its content is empty until the transfer
// lands.
func (p *Pipeline) Submit(ctx context.Context, sess playerSession, clue hunt.Clue, answer string, photo []byte) (hunt.Submission, error) {
	// Best-effort duplicate guard: one live attempt per (team, clue).
	// A rejected or upload_failed attempt does not block a retry.
	blocked, err := p.store.BlockingSubmissionExists(ctx, sess.TeamID, clue.ID)
	if err != nil {
		return hunt.Submission{}, err
	}
	if blocked {
		return hunt.Submission{}, ErrDuplicateSubmission
	}

	now := p.now().UTC()
	sub := hunt.Submission{
		ID:          newID(),
		TeamID:      sess.TeamID,
		TeamName:    sess.TeamName,
		ClueID:      clue.ID,
		ClueTitle:   clue.Title,
		AnswerKind:  clue.AnswerKind,
		Status:      hunt.StatusPending,
		SubmittedAt: now,
	}

	switch clue.AnswerKind {
	case hunt.AnswerPhoto:
		sub.Uploading = true
	default:
		sub.Content = strings.TrimSpace(answer)
	}

	if err := p.store.CreateSubmission(ctx, sub); err != nil {
		return hunt.Submission{}, err
	}

	// Progress bookkeeping on the team document is best-effort: a failure
	// here must not fail the submission itself.
	if _, err := p.store.ModifyTeam(ctx, sess.TeamID, func(t *hunt.Team) error {
		if t.PerClueStatus == nil {
			t.PerClueStatus = make(map[string]hunt.ClueProgress)
		}
		cp := t.PerClueStatus[clue.ID]
		cp.SubmittedAt = &now
		cp.Status = hunt.StatusPending
		t.PerClueStatus[clue.ID] = cp
		return nil
	}); err != nil {
		p.logger.Warn("updating team progress after submit", "team_id", sess.TeamID, "error", err)
	}

	p.broker.Publish(sess.TeamID, Event{
		Type:      "submission_created",
		TeamName:  sess.TeamName,
		ClueID:    clue.ID,
		ClueTitle: clue.Title,
		Status:    hunt.StatusPending,
	})

	if clue.AnswerKind == hunt.AnswerPhoto {
		p.startUpload(ctx, sub.ID, sess.TeamID, photo)
	}
	return sub, nil
}

// startUpload runs the media transfer detached from the request context so
// a client disconnect cannot abandon a half-done upload.
func (p *Pipeline) startUpload(ctx context.Context, submissionID, teamID string, photo []byte) {
	uctx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		asset, err := p.uploader.Upload(uctx, photo)
		if err != nil {
			p.logger.Error("photo upload failed", "submission_id", submissionID, "error", err)
			p.failUpload(uctx, submissionID, teamID)
			return
		}
		p.patchUpload(uctx, submissionID, teamID, asset)
	}()
}

func (p *Pipeline) patchUpload(ctx context.Context, submissionID, teamID string, asset media.Asset) {
	patched := false
	_, err := p.store.ModifySubmission(ctx, submissionID, func(s *hunt.Submission) error {
		// The sweep (or a coordinator) may have resolved this submission
		// already; a terminal state is never resurrected.
		if s.Status != hunt.StatusPending || !s.Uploading {
			return nil
		}
		s.Content = asset.URL
		s.MediaDeleteHandle = asset.DeleteHandle
		s.Uploading = false
		patched = true
		return nil
	})
	if err != nil {
		p.logger.Error("patching submission after upload", "submission_id", submissionID, "error", err)
		return
	}
	if !patched {
		// The upload won a race it had already lost; drop the orphan asset.
		p.deleteAsset(ctx, asset.DeleteHandle)
		return
	}
	p.broker.Publish(teamID, Event{
		Type:   "submission_uploaded",
		Status: hunt.StatusPending,
	})
}

func (p *Pipeline) failUpload(ctx context.Context, submissionID, teamID string) {
	_, err := p.store.ModifySubmission(ctx, submissionID, func(s *hunt.Submission) error {
		if s.Status != hunt.StatusPending {
			return nil
		}
		s.Status = hunt.StatusUploadFailed
		s.Uploading = false
		return nil
	})
	if err != nil {
		p.logger.Error("marking submission upload_failed", "submission_id", submissionID, "error", err)
		return
	}
	p.broker.Publish(teamID, Event{
		Type:   "submission_failed",
		Status: hunt.StatusUploadFailed,
	})
}

func (p *Pipeline) deleteAsset(ctx context.Context, handle string) {
	if handle == "" {
		return
	}
	if err := p.uploader.Delete(ctx, handle); err != nil {
		p.logger.Warn("deleting media asset", "handle", handle, "error", err)
	}
}

type SubmitRequest struct {
	ClueID string `json:"clueId"`
	Answer string `json:"answer,omitempty"`
	// Photo is the base64-encoded image for photo clues.
	Photo string `json:"photo,omitempty"`
}

func handleSubmit(pipeline *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ClueID == "" {
			writeError(w, http.StatusBadRequest, "clueId is required")
			return
		}

		clue, err := pipeline.store.ClueByID(r.Context(), req.ClueID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var photo []byte
		switch clue.AnswerKind {
		case hunt.AnswerPhoto:
			if req.Photo == "" {
				writeError(w, http.StatusBadRequest, "photo is required for this clue")
				return
			}
			photo, err = base64.StdEncoding.DecodeString(req.Photo)
			if err != nil {
				writeError(w, http.StatusBadRequest, "photo must be base64-encoded")
				return
			}
		default:
			if strings.TrimSpace(req.Answer) == "" {
				writeError(w, http.StatusBadRequest, "answer is required for this clue")
				return
			}
		}

		sub, err := pipeline.Submit(r.Context(), sess, clue, req.Answer, photo)
		if errors.Is(err, ErrDuplicateSubmission) {
			writeError(w, http.StatusConflict, "you already have a submission waiting for review")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusAccepted, sub)
	}
}

func handleListOwnSubmissions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		subs, err := store.ListSubmissions(r.Context(), SubmissionFilter{TeamID: sess.TeamID})
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
