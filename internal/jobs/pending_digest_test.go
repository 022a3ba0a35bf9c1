package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"propreviews/internal/models"
)

type fakePending struct {
	reviews []models.Review
	err     error
}

func (f *fakePending) ListPendingReviews(context.Context, int) ([]models.Review, error) {
	return f.reviews, f.err
}

type recordingSender struct {
	calls [][]models.Review
}

func (r *recordingSender) NotifyPendingDigest(_ context.Context, reviews []models.Review) {
	r.calls = append(r.calls, reviews)
}

func TestPendingDigestRunOnce(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	stale := models.Review{ID: uuid.New(), CreatedAt: now.Add(-30 * time.Hour)}
	fresh := models.Review{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour)}

	tests := []struct {
		name      string
		source    *fakePending
		wantSent  int
		wantCalls int
	}{
		{"stale reviews are sent", &fakePending{reviews: []models.Review{stale, fresh}}, 1, 1},
		{"only fresh reviews", &fakePending{reviews: []models.Review{fresh}}, 0, 0},
		{"empty queue", &fakePending{}, 0, 0},
		{"list error", &fakePending{err: errors.New("db down")}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			d := NewPendingDigest(tt.source, sender, time.Hour, 24*time.Hour)
			d.now = func() time.Time { return now }

			if got := d.runOnce(context.Background()); got != tt.wantSent {
				t.Errorf("runOnce() = %d, want %d", got, tt.wantSent)
			}
			if len(sender.calls) != tt.wantCalls {
				t.Fatalf("sender called %d times, want %d", len(sender.calls), tt.wantCalls)
			}
			if tt.wantCalls > 0 && sender.calls[0][0].ID != stale.ID {
				t.Errorf("digest = %v, want the stale review", sender.calls[0])
			}
		})
	}
}

func TestPendingDigestStopsOnCancel(t *testing.T) {
	d := NewPendingDigest(&fakePending{}, &recordingSender{}, time.Millisecond, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("digest did not stop after cancel")
	}
}
