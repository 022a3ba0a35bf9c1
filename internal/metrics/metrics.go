package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "propreviews"

var (
	reviewsDesc = prometheus.NewDesc(
		namespace+"_reviews",
		"Current number of reviews by moderation status",
		[]string{"status"},
		nil,
	)
	flaggedDesc = prometheus.NewDesc(
		namespace+"_reviews_flagged",
		"Current number of flagged reviews",
		nil,
		nil,
	)

	submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_submissions_total",
		Help:      "Review submissions by outcome (accepted or a rejection reason)",
	}, []string{"outcome"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_uploads_total",
		Help:      "Image uploads by outcome (accepted or a rejection reason)",
	}, []string{"outcome"})

	moderations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_decisions_total",
		Help:      "Reviews moved out of pending by target status",
	}, []string{"status"})
)

// StatusCounter reads review totals for the collector.
type StatusCounter interface {
	CountReviewsByStatus(ctx context.Context) (map[string]int, error)
	CountFlaggedReviews(ctx context.Context) (int, error)
}

// ReviewCollector is a custom Prometheus collector that reads review counts
// from the database on each scrape.
type ReviewCollector struct {
	db StatusCounter
}

// Describe sends the metric descriptors to the channel.
func (c *ReviewCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- reviewsDesc
	ch <- flaggedDesc
}

// Collect queries the database and emits the counts as gauges.
func (c *ReviewCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.db.CountReviewsByStatus(ctx)
	if err != nil {
		slog.Error("failed to collect review metrics", "error", err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(reviewsDesc, prometheus.GaugeValue, float64(n), status)
	}

	flagged, err := c.db.CountFlaggedReviews(ctx)
	if err != nil {
		slog.Error("failed to collect flagged review metric", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(flaggedDesc, prometheus.GaugeValue, float64(flagged))
}

var initOnce sync.Once

// Init registers the collectors with the default registry.
// Must be called once at startup.
func Init(database StatusCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(&ReviewCollector{db: database}, submissions, uploads, moderations)
	})
}

// RecordSubmission counts a review submission outcome.
func RecordSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// RecordUpload counts an image upload outcome.
func RecordUpload(outcome string) {
	uploads.WithLabelValues(outcome).Inc()
}

// RecordModeration counts reviews moved to status.
func RecordModeration(status string, n int) {
	if n <= 0 {
		return
	}
	moderations.WithLabelValues(status).Add(float64(n))
}
