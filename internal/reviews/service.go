// Package reviews accepts review submissions. Every submission passes the
// validator, the duplicate check, the sliding-window rate limiter and the
// similar-content check before it is stored as pending.
package reviews

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/db"
	"propreviews/internal/metrics"
	"propreviews/internal/models"
	"propreviews/internal/ratelimit"
	"propreviews/internal/ratings"
	"propreviews/internal/validation"
)

// Store is the persistence the service needs.
type Store interface {
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	WithSubmitterLock(ctx context.Context, sub models.Submitter, fn func(db.ReviewQueries) error) error
	ListApprovedReviews(ctx context.Context, propertyID uuid.UUID) ([]models.Review, error)
}

// Notifier is told about accepted submissions.
type Notifier interface {
	NotifyReviewSubmitted(ctx context.Context, property *models.Property, review *models.Review)
}

// Submission is a review as entered by the submitter.
type Submission struct {
	PropertyID  uuid.UUID
	Rating      int
	Title       string
	Body        string
	ProsCons    string
	LivedFrom   *time.Time
	LivedTo     *time.Time
	Anonymous   bool
	DisplayName string
}

// Service handles review submission and public review reads.
type Service struct {
	store    Store
	filter   *validation.ContentFilter
	limiter  *ratelimit.SlidingWindow
	policy   config.Policy
	notifier Notifier
	now      func() time.Time
}

// NewService builds a Service from policy. notifier may be nil.
func NewService(store Store, policy config.Policy, notifier Notifier) (*Service, error) {
	filter, err := validation.NewContentFilter(policy.BlockedPhrases, policy.BlockedPatterns, policy.PronounThreshold, policy.PronounMaxLength)
	if err != nil {
		return nil, fmt.Errorf("content filter: %w", err)
	}
	return &Service{
		store:    store,
		filter:   filter,
		limiter:  ratelimit.New(policy.ReviewRateLimit, policy.ReviewRateWindow),
		policy:   policy,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Fingerprint derives an anonymous submitter fingerprint from a session id.
// The raw session id is never stored.
func Fingerprint(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}

// SubmitterFor returns the submitter identity for a request. Authenticated
// users are identified by account; everyone else by session fingerprint.
func SubmitterFor(user *models.User, sessionID string) models.Submitter {
	if user != nil {
		id := user.ID
		return models.Submitter{UserID: &id}
	}
	return models.Submitter{Fingerprint: Fingerprint(sessionID)}
}

// Validate runs the checks that need no database access, in order:
// rating, body length, content filter, then the optional fields.
func (s *Service) Validate(sub *Submission) error {
	if err := validation.ValidateRating(sub.Rating); err != nil {
		return err
	}
	if err := validation.ValidateBody(sub.Body, s.policy.MinReviewLength); err != nil {
		return err
	}
	if err := s.filter.Check(sub.Body); err != nil {
		return err
	}
	if err := validation.ValidateTitle(sub.Title); err != nil {
		return err
	}
	if err := s.filter.Check(sub.Title); err != nil {
		return err
	}
	if err := validation.ValidateProsCons(sub.ProsCons); err != nil {
		return err
	}
	if sub.ProsCons != "" {
		if err := s.filter.Check(sub.ProsCons); err != nil {
			return err
		}
	}
	return validation.ValidateLivedDates(sub.LivedFrom, sub.LivedTo, s.now())
}

// Submit validates and stores a review as pending. On any rejection nothing
// is written and the returned error is a *validation.Rejection.
func (s *Service) Submit(ctx context.Context, user *models.User, sessionID string, sub Submission) (*models.Review, error) {
	review, err := s.submit(ctx, user, sessionID, &sub)
	if err != nil {
		if reason := validation.ReasonOf(err); reason != "" {
			metrics.RecordSubmission(string(reason))
		}
		return nil, err
	}
	metrics.RecordSubmission("accepted")
	return review, nil
}

func (s *Service) submit(ctx context.Context, user *models.User, sessionID string, sub *Submission) (*models.Review, error) {
	if user != nil && user.Suspended {
		return nil, validation.ErrUnauthorized
	}

	sub.Body = strings.TrimSpace(sub.Body)
	sub.Title = strings.TrimSpace(sub.Title)
	sub.ProsCons = strings.TrimSpace(sub.ProsCons)
	sub.DisplayName = strings.TrimSpace(sub.DisplayName)

	if err := s.Validate(sub); err != nil {
		return nil, err
	}

	submitter := SubmitterFor(user, sessionID)
	if submitter.Key() == "" {
		return nil, validation.Reject(validation.ReasonUnauthorized, "a session is required to submit a review")
	}

	property, err := s.store.GetPropertyByID(ctx, sub.PropertyID)
	if errors.Is(err, db.ErrPropertyNotFound) {
		return nil, validation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}

	now := s.now()
	review := &models.Review{
		PropertyID:   property.ID,
		AuthorID:     submitter.UserID,
		SubmitterKey: submitter.Key(),
		Anonymous:    sub.Anonymous,
		Rating:       sub.Rating,
		Title:        validation.AutoTitle(sub.Title, sub.Body),
		Body:         sub.Body,
		ProsCons:     sub.ProsCons,
		LivedFrom:    sub.LivedFrom,
		LivedTo:      sub.LivedTo,
		Status:       models.StatusPending,
		CreatedAt:    now,
	}
	if !sub.Anonymous {
		review.DisplayName = sub.DisplayName
	}
	prefix := validation.ContentPrefix(sub.Body, s.policy.SimilarPrefixLength)

	err = s.store.WithSubmitterLock(ctx, submitter, func(q db.ReviewQueries) error {
		reviewed, err := q.HasReviewed(ctx, property.ID, submitter)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if reviewed {
			return duplicateRejection()
		}

		if err := s.limiter.Allow(ctx, q, submitter, now); err != nil {
			return err
		}

		similar, err := q.HasSimilarReview(ctx, submitter, property.ID, prefix, now.Add(-s.policy.SimilarContentWindow))
		if err != nil {
			return fmt.Errorf("check similar content: %w", err)
		}
		if similar {
			return validation.Reject(validation.ReasonDuplicateReview, "you recently posted a very similar review for another property")
		}

		if err := q.InsertReview(ctx, review); err != nil {
			if errors.Is(err, db.ErrDuplicateReview) {
				return duplicateRejection()
			}
			return fmt.Errorf("insert review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("review submitted", "review_id", review.ID, "property_id", property.ID, "anonymous", review.Anonymous)
	if s.notifier != nil {
		s.notifier.NotifyReviewSubmitted(ctx, property, review)
	}
	return review, nil
}

func duplicateRejection() error {
	return validation.Reject(validation.ReasonDuplicateReview, "you have already reviewed this property")
}

// PropertyReviews is the public view of a property's reviews.
type PropertyReviews struct {
	Reviews []models.Review
	Summary ratings.Summary
}

// ForProperty returns approved reviews and their rating summary. Reviews by
// suspended authors are excluded from both, and the summary is computed from
// exactly the reviews returned. An unknown property is a NotFound rejection.
func (s *Service) ForProperty(ctx context.Context, propertyID uuid.UUID) (*PropertyReviews, error) {
	if _, err := s.store.GetPropertyByID(ctx, propertyID); err != nil {
		if errors.Is(err, db.ErrPropertyNotFound) {
			return nil, validation.ErrNotFound
		}
		return nil, fmt.Errorf("load property: %w", err)
	}

	list, err := s.store.ListApprovedReviews(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	public := make([]models.Review, 0, len(list))
	scores := make([]int, 0, len(list))
	for _, r := range list {
		if !r.IsPublic() {
			continue
		}
		public = append(public, r)
		scores = append(scores, r.Rating)
	}
	return &PropertyReviews{Reviews: public, Summary: ratings.Summarize(scores)}, nil
}
