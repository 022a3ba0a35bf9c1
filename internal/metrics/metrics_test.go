package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeCounter struct {
	counts  map[string]int
	flagged int
	err     error
}

func (f *fakeCounter) CountReviewsByStatus(context.Context) (map[string]int, error) {
	return f.counts, f.err
}

func (f *fakeCounter) CountFlaggedReviews(context.Context) (int, error) {
	return f.flagged, f.err
}

func TestReviewCollector(t *testing.T) {
	c := &ReviewCollector{db: &fakeCounter{
		counts:  map[string]int{"pending": 2, "approved": 5},
		flagged: 1,
	}}

	if n := testutil.CollectAndCount(c); n != 3 {
		t.Errorf("collected %d metrics, want 3", n)
	}
}

func TestReviewCollector_Error(t *testing.T) {
	c := &ReviewCollector{db: &fakeCounter{err: errors.New("db down")}}

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Errorf("collected %d metrics on error, want 0", n)
	}
}

func TestRecordSubmission(t *testing.T) {
	before := testutil.ToFloat64(submissions.WithLabelValues("rate_limited"))
	RecordSubmission("rate_limited")
	RecordSubmission("rate_limited")

	if got := testutil.ToFloat64(submissions.WithLabelValues("rate_limited")); got != before+2 {
		t.Errorf("counter = %v, want %v", got, before+2)
	}
}

func TestRecordModeration_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(moderations.WithLabelValues("approved"))
	RecordModeration("approved", 0)
	RecordModeration("approved", 3)

	if got := testutil.ToFloat64(moderations.WithLabelValues("approved")); got != before+3 {
		t.Errorf("counter = %v, want %v", got, before+3)
	}
}

var _ prometheus.Collector = (*ReviewCollector)(nil)
