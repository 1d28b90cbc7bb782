package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/questline/huntapi/internal/hunt"
)

// Sweeper is the reconciliation loop for the placeholder protocol. If the
// process died between writing a photo placeholder and patching the upload
// result, the submission stays pending+uploading forever; the sweep turns
// anything stuck past the threshold into upload_failed so the team can
// retry.
type Sweeper struct {
	store      Store
	broker     *Broker
	logger     *slog.Logger
	interval   time.Duration
	stuckAfter time.Duration
	now        func() time.Time
}

func NewSweeper(store Store, broker *Broker, logger *slog.Logger, interval, stuckAfter time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		broker:     broker,
		logger:     logger,
		interval:   interval,
		stuckAfter: stuckAfter,
		now:        time.Now,
	}
}

// Run sweeps on the configured interval until ctx is done.
func (sw *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sw.SweepOnce(ctx); err != nil {
				sw.logger.Error("upload sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce fails every upload stuck longer than the threshold.
func (sw *Sweeper) SweepOnce(ctx context.Context) error {
	cutoff := sw.now().UTC().Add(-sw.stuckAfter)
	stuck, err := sw.store.StaleUploads(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, sub := range stuck {
		changed := false
		_, err := sw.store.ModifySubmission(ctx, sub.ID, func(s *hunt.Submission) error {
			// The upload may have landed between the query and now.
			if s.Status != hunt.StatusPending || !s.Uploading {
				return nil
			}
			s.Status = hunt.StatusUploadFailed
			s.Uploading = false
			changed = true
			return nil
		})
		if err != nil {
			sw.logger.Error("failing stuck upload", "submission_id", sub.ID, "error", err)
			continue
		}
		if !changed {
			continue
		}

		sw.logger.Warn("marked stuck upload as failed",
			"submission_id", sub.ID,
			"team_id", sub.TeamID,
			"submitted_at", sub.SubmittedAt,
		)
		sw.broker.Publish(sub.TeamID, Event{
			Type:      "submission_failed",
			ClueID:    sub.ClueID,
			ClueTitle: sub.ClueTitle,
			Status:    hunt.StatusUploadFailed,
		})
	}
	return nil
}
