package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/models"
)

// RecipientLookup finds the people a notification goes to.
type RecipientLookup interface {
	GetAdminEmails(ctx context.Context) ([]string, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

// Notifier sends email notifications for review events.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        RecipientLookup
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db RecipientLookup) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
	}
}

// userEmail returns the address of an active user, or "".
func (n *Notifier) userEmail(ctx context.Context, id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	user, err := n.db.GetUserByID(ctx, *id)
	if err != nil {
		slog.Error("failed to load notification recipient", "user_id", *id, "error", err)
		return ""
	}
	if user.Suspended {
		return ""
	}
	return user.Email
}

// NotifyReviewSubmitted tells admins that a review is waiting for moderation.
func (n *Notifier) NotifyReviewSubmitted(ctx context.Context, property *models.Property, review *models.Review) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyAdminsOnReview {
		return
	}

	emails, err := n.db.GetAdminEmails(ctx)
	if err != nil {
		slog.Error("failed to get admin emails", "error", err)
		return
	}
	if len(emails) == 0 {
		slog.Debug("no admin emails for review notification", "review_id", review.ID)
		return
	}

	subject, htmlBody, textBody := n.templates.ReviewPending(property, review)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyReviewModerated tells the author about the decision and, when the
// review was published, the property's creator.
func (n *Notifier) NotifyReviewModerated(ctx context.Context, review *models.Review, moderator *models.User) {
	if !n.service.IsEnabled() {
		return
	}
	if !n.cfg.EmailNotifyAuthorOnDecision && !n.cfg.EmailNotifyOwnerOnReview {
		return
	}

	property, err := n.db.GetPropertyByID(ctx, review.PropertyID)
	if err != nil {
		slog.Error("failed to load property for notification", "property_id", review.PropertyID, "error", err)
		return
	}

	if n.cfg.EmailNotifyAuthorOnDecision {
		if addr := n.userEmail(ctx, review.AuthorID); addr != "" {
			subject, htmlBody, textBody := n.templates.ReviewDecision(property, review)
			n.service.SendAsync([]string{addr}, subject, htmlBody, textBody)
		}
	}

	if n.cfg.EmailNotifyOwnerOnReview && review.Status == models.StatusApproved {
		// Skip owners reviewing their own listing and the moderator who just acted.
		owner := property.CreatedBy
		if owner == nil || (review.AuthorID != nil && *owner == *review.AuthorID) || (moderator != nil && *owner == moderator.ID) {
			return
		}
		if addr := n.userEmail(ctx, owner); addr != "" {
			subject, htmlBody, textBody := n.templates.ReviewPublished(property, review)
			n.service.SendAsync([]string{addr}, subject, htmlBody, textBody)
		}
	}
}

// NotifyReportResolved tells a reporter that their report was closed.
func (n *Notifier) NotifyReportResolved(ctx context.Context, report *models.ReviewReport) {
	if !n.service.IsEnabled() {
		return
	}
	if addr := n.userEmail(ctx, &report.ReporterID); addr != "" {
		subject, htmlBody, textBody := n.templates.ReportResolved(report)
		n.service.SendAsync([]string{addr}, subject, htmlBody, textBody)
	}
}

// NotifyPendingDigest reminds admins of reviews stuck in the queue.
func (n *Notifier) NotifyPendingDigest(ctx context.Context, reviews []models.Review) {
	if !n.service.IsEnabled() || len(reviews) == 0 {
		return
	}

	emails, err := n.db.GetAdminEmails(ctx)
	if err != nil {
		slog.Error("failed to get admin emails", "error", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	oldest := reviews[0].CreatedAt
	for _, r := range reviews[1:] {
		if r.CreatedAt.Before(oldest) {
			oldest = r.CreatedAt
		}
	}

	subject, htmlBody, textBody := n.templates.PendingDigest(reviews, oldest.UTC().Format("Jan 2, 2006 15:04 MST"))
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}
