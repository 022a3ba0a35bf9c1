// Package moderation moves reviews through the pending, approved and
// rejected states and handles reports against published reviews.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"propreviews/internal/db"
	"propreviews/internal/metrics"
	"propreviews/internal/models"
	"propreviews/internal/validation"
)

// Outcome of a bulk command for one review id.
const (
	OutcomeApplied          = "applied"
	OutcomeNotFound         = "not_found"
	OutcomeAlreadyModerated = "already_moderated"
)

// DefaultListLimit bounds the moderation queues.
const DefaultListLimit = 100

// MaxReportDescription caps a report's free-text description.
const MaxReportDescription = 500

// Store is the persistence the service needs.
type Store interface {
	TransitionReviews(ctx context.Context, ids []uuid.UUID, status string, moderatorID uuid.UUID) ([]models.Review, map[uuid.UUID]bool, error)
	ListPendingReviews(ctx context.Context, limit int) ([]models.Review, error)
	ListFlaggedReviews(ctx context.Context, limit int) ([]models.Review, error)
	UnflagReview(ctx context.Context, id uuid.UUID) error
	CreateReport(ctx context.Context, report *models.ReviewReport) error
	GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListReports(ctx context.Context, reviewIDs []uuid.UUID) ([]models.ReviewReport, error)
	SetReportResolved(ctx context.Context, id uuid.UUID, resolved bool, moderatorID uuid.UUID) (*models.ReviewReport, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetUserSuspended(ctx context.Context, id uuid.UUID, suspended bool) error
}

// Notifier is told about moderation decisions.
type Notifier interface {
	NotifyReviewModerated(ctx context.Context, review *models.Review, moderator *models.User)
	NotifyReportResolved(ctx context.Context, report *models.ReviewReport)
}

// Result is the outcome for one id of a bulk command.
type Result struct {
	ID      uuid.UUID `json:"id"`
	Outcome string    `json:"outcome"`
}

// FlaggedReview is a flagged review together with the reports filed against it.
type FlaggedReview struct {
	models.Review
	Reports []models.ReviewReport `json:"reports"`
}

// Open counts the reports not yet resolved.
func (f FlaggedReview) Open() int {
	n := 0
	for _, r := range f.Reports {
		if !r.Resolved {
			n++
		}
	}
	return n
}

// Service applies moderation decisions.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a moderation service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

func authorize(actor *models.User) error {
	if !actor.IsAdmin() {
		return validation.ErrUnauthorized
	}
	return nil
}

// Apply moves every pending review in ids to target and reports one result
// per distinct id, in first-seen order. A non-admin actor changes nothing.
func (s *Service) Apply(ctx context.Context, actor *models.User, ids []uuid.UUID, target string) ([]Result, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if !models.CanTransition(models.StatusPending, target) {
		return nil, validation.Reject(validation.ReasonInvalidTransition, "reviews can only be approved or rejected")
	}

	unique := dedupe(ids)
	if len(unique) == 0 {
		return []Result{}, nil
	}

	applied, found, err := s.store.TransitionReviews(ctx, unique, target, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("transition reviews: %w", err)
	}

	changed := make(map[uuid.UUID]bool, len(applied))
	for _, r := range applied {
		changed[r.ID] = true
	}

	results := make([]Result, 0, len(unique))
	for _, id := range unique {
		outcome := OutcomeNotFound
		switch {
		case changed[id]:
			outcome = OutcomeApplied
		case found[id]:
			outcome = OutcomeAlreadyModerated
		}
		results = append(results, Result{ID: id, Outcome: outcome})
	}

	metrics.RecordModeration(target, len(applied))
	slog.Info("reviews moderated", "moderator", actor.ID, "status", target, "requested", len(unique), "applied", len(applied))

	if s.notifier != nil {
		for i := range applied {
			s.notifier.NotifyReviewModerated(ctx, &applied[i], actor)
		}
	}
	return results, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Pending lists reviews awaiting a decision, oldest first.
func (s *Service) Pending(ctx context.Context, actor *models.User, limit int) ([]models.Review, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.store.ListPendingReviews(ctx, clampLimit(limit))
}

// Flagged lists reviews that have been reported.
func (s *Service) Flagged(ctx context.Context, actor *models.User, limit int) ([]models.Review, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.store.ListFlaggedReviews(ctx, clampLimit(limit))
}

// FlaggedWithReports lists flagged reviews with their reports attached.
func (s *Service) FlaggedWithReports(ctx context.Context, actor *models.User, limit int) ([]FlaggedReview, error) {
	flagged, err := s.Flagged(ctx, actor, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(flagged))
	for i, r := range flagged {
		ids[i] = r.ID
	}
	reports, err := s.store.ListReports(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	byReview := make(map[uuid.UUID][]models.ReviewReport, len(flagged))
	for _, rep := range reports {
		byReview[rep.ReviewID] = append(byReview[rep.ReviewID], rep)
	}

	out := make([]FlaggedReview, len(flagged))
	for i, r := range flagged {
		out[i] = FlaggedReview{Review: r, Reports: byReview[r.ID]}
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

// Unflag clears a review's flag after an admin has looked at it.
func (s *Service) Unflag(ctx context.Context, actor *models.User, reviewID uuid.UUID) error {
	if err := authorize(actor); err != nil {
		return err
	}
	err := s.store.UnflagReview(ctx, reviewID)
	if errors.Is(err, db.ErrReviewNotFound) {
		return validation.ErrNotFound
	}
	return err
}

// Report files a complaint about an approved review and flags it for admins.
func (s *Service) Report(ctx context.Context, reporter *models.User, reviewID uuid.UUID, reason, description string) (*models.ReviewReport, error) {
	if reporter == nil || reporter.Suspended {
		return nil, validation.ErrUnauthorized
	}
	if !validReportReason(reason) {
		return nil, validation.Reject(validation.ReasonInvalidField, "reason must be one of: %s", strings.Join(models.ReportReasons, ", "))
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxReportDescription {
		return nil, validation.Reject(validation.ReasonInvalidField, "description must be at most %d characters", MaxReportDescription)
	}

	report := &models.ReviewReport{
		ReviewID:    reviewID,
		ReporterID:  reporter.ID,
		Reason:      reason,
		Description: description,
	}
	switch err := s.store.CreateReport(ctx, report); {
	case errors.Is(err, db.ErrReviewNotFound):
		return nil, validation.ErrNotFound
	case errors.Is(err, db.ErrDuplicateReport):
		return nil, validation.Reject(validation.ReasonDuplicateReport, "you have already reported this review")
	case err != nil:
		return nil, fmt.Errorf("create report: %w", err)
	}

	slog.Info("review reported", "review_id", reviewID, "reason", reason)
	return report, nil
}

// Reports lists the reports filed against a review.
func (s *Service) Reports(ctx context.Context, actor *models.User, reviewID uuid.UUID) ([]models.ReviewReport, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	_, err := s.store.GetReviewByID(ctx, reviewID)
	if errors.Is(err, db.ErrReviewNotFound) {
		return nil, validation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	return s.store.ListReports(ctx, []uuid.UUID{reviewID})
}

// ResolveReport marks a report resolved, or reopens it when resolved is
// false. The reporter is notified when a report is resolved. The review's
// flag is untouched; admins clear it with Unflag.
func (s *Service) ResolveReport(ctx context.Context, actor *models.User, reportID uuid.UUID, resolved bool) (*models.ReviewReport, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	report, err := s.store.SetReportResolved(ctx, reportID, resolved, actor.ID)
	if errors.Is(err, db.ErrReportNotFound) {
		return nil, validation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve report: %w", err)
	}

	slog.Info("report resolution changed", "moderator", actor.ID, "report_id", reportID, "resolved", resolved)
	if resolved && s.notifier != nil {
		s.notifier.NotifyReportResolved(ctx, report)
	}
	return report, nil
}

func validReportReason(reason string) bool {
	for _, r := range models.ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// SetSuspended suspends or reinstates a user. Admin accounts, the actor's
// included, cannot be suspended.
func (s *Service) SetSuspended(ctx context.Context, actor *models.User, userID uuid.UUID, suspended bool) error {
	if err := authorize(actor); err != nil {
		return err
	}
	if suspended && actor.ID == userID {
		return validation.Reject(validation.ReasonInvalidField, "you cannot suspend yourself")
	}

	target, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, db.ErrUserNotFound) {
		return validation.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if suspended && target.Role == models.RoleAdmin {
		return validation.Reject(validation.ReasonInvalidField, "you cannot suspend an admin")
	}

	err = s.store.SetUserSuspended(ctx, userID, suspended)
	if errors.Is(err, db.ErrUserNotFound) {
		return validation.ErrNotFound
	}
	if err != nil {
		return err
	}
	slog.Info("user suspension changed", "moderator", actor.ID, "user_id", userID, "suspended", suspended)
	return nil
}
