package jobs

import (
	"context"
	"log/slog"
	"time"

	"propreviews/internal/models"
)

// digestBatch bounds how many stale reviews one digest lists.
const digestBatch = 50

// PendingSource lists reviews awaiting moderation, oldest first.
type PendingSource interface {
	ListPendingReviews(ctx context.Context, limit int) ([]models.Review, error)
}

// DigestSender delivers the reminder.
type DigestSender interface {
	NotifyPendingDigest(ctx context.Context, reviews []models.Review)
}

// PendingDigest periodically reminds admins about reviews that have waited
// longer than staleAfter.
type PendingDigest struct {
	db         PendingSource
	sender     DigestSender
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

// NewPendingDigest creates a new digest job.
func NewPendingDigest(database PendingSource, sender DigestSender, interval, staleAfter time.Duration) *PendingDigest {
	return &PendingDigest{
		db:         database,
		sender:     sender,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Start runs the digest loop until ctx is cancelled.
func (d *PendingDigest) Start(ctx context.Context) {
	slog.Info("pending review digest started", "interval", d.interval, "stale_after", d.staleAfter)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pending review digest stopped")
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

// runOnce sends one digest if anything is stale and reports how many
// reviews it covered.
func (d *PendingDigest) runOnce(ctx context.Context) int {
	pending, err := d.db.ListPendingReviews(ctx, digestBatch)
	if err != nil {
		slog.Error("pending digest: failed to list reviews", "error", err)
		return 0
	}

	cutoff := d.now().Add(-d.staleAfter)
	stale := pending[:0:0]
	for _, r := range pending {
		if r.CreatedAt.Before(cutoff) {
			stale = append(stale, r)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	slog.Info("pending digest: reminding admins", "reviews", len(stale))
	d.sender.NotifyPendingDigest(ctx, stale)
	return len(stale)
}
