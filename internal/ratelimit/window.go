// Package ratelimit decides whether a submitter may post another review.
//
// No counter state is kept: every decision recounts the submitter's stored
// reviews inside the window, so the limiter survives restarts and never needs
// cleanup.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"propreviews/internal/models"
	"propreviews/internal/validation"
)

// Counter counts a submitter's reviews created strictly after since.
type Counter interface {
	CountReviewsSince(ctx context.Context, sub models.Submitter, since time.Time) (int, error)
}

// SlidingWindow permits at most Max submissions per trailing Window.
type SlidingWindow struct {
	Max    int
	Window time.Duration
}

// New creates a sliding window limiter.
func New(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{Max: max, Window: window}
}

// WindowStart returns the exclusive lower bound of the window ending at now.
func (w *SlidingWindow) WindowStart(now time.Time) time.Time {
	return now.Add(-w.Window)
}

// Allow returns a RateLimited rejection when the submitter already has Max
// or more reviews in (now - Window, now]. Callers that need the decision to
// hold until their insert must call it inside the same transaction.
func (w *SlidingWindow) Allow(ctx context.Context, counter Counter, sub models.Submitter, now time.Time) error {
	if sub.Key() == "" {
		return fmt.Errorf("rate limit: submitter has no identity")
	}

	count, err := counter.CountReviewsSince(ctx, sub, w.WindowStart(now))
	if err != nil {
		return fmt.Errorf("rate limit: count reviews: %w", err)
	}
	if count >= w.Max {
		return validation.Reject(validation.ReasonRateLimited,
			"you can post at most %d reviews per %s, please try again later", w.Max, humanDuration(w.Window))
	}
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
