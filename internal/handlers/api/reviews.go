package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"propreviews/internal/models"
	"propreviews/internal/reviews"
	"propreviews/internal/validation"
)

// ReviewSubmitter accepts new reviews.
type ReviewSubmitter interface {
	Submit(ctx context.Context, user *models.User, sessionID string, sub reviews.Submission) (*models.Review, error)
	ForProperty(ctx context.Context, propertyID uuid.UUID) (*reviews.PropertyReviews, error)
}

// ReviewHandler serves review submission and public review listings.
type ReviewHandler struct {
	reviews ReviewSubmitter
}

// NewReviewHandler creates a new API review handler.
func NewReviewHandler(svc ReviewSubmitter) *ReviewHandler {
	return &ReviewHandler{reviews: svc}
}

// SubmitReviewRequest is the body of POST /api/properties/:id/reviews.
// Dates use YYYY-MM-DD.
type SubmitReviewRequest struct {
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	ProsCons    string `json:"pros_cons"`
	LivedFrom   string `json:"lived_from"`
	LivedTo     string `json:"lived_to"`
	Anonymous   bool   `json:"anonymous"`
	DisplayName string `json:"display_name"`
}

const dateLayout = "2006-01-02"

func parseDate(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, validation.Reject(validation.ReasonInvalidField, "%s must be a date like 2024-01-31", field)
	}
	return &t, nil
}

// visitorSessionID returns the caller's session id, marking the session so
// that its cookie persists across requests.
func visitorSessionID(c fiber.Ctx) string {
	sess := session.FromContext(c)
	if sess == nil {
		return ""
	}
	sess.Set("visitor", true)
	return sess.ID()
}

// List returns approved reviews with their rating summary.
func (h *ReviewHandler) List(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}

	public, err := h.reviews.ForProperty(c.Context(), id)
	if err != nil {
		return handleError(c, err, "load reviews")
	}

	out := make([]models.PublicReview, 0, len(public.Reviews))
	for i := range public.Reviews {
		out = append(out, public.Reviews[i].ToPublic())
	}
	return jsonSuccess(c, fiber.Map{
		"reviews": out,
		"summary": public.Summary,
	})
}

// Submit accepts a review for moderation. Anonymous visitors may submit;
// they are tracked by session.
func (h *ReviewHandler) Submit(c fiber.Ctx) error {
	propertyID, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}

	var req SubmitReviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return jsonRejection(c, validation.Reject(validation.ReasonInvalidField, "invalid request body"))
	}

	from, err := parseDate(req.LivedFrom, "lived_from")
	if err != nil {
		return handleError(c, err, "submit review")
	}
	to, err := parseDate(req.LivedTo, "lived_to")
	if err != nil {
		return handleError(c, err, "submit review")
	}

	user := currentUser(c)
	sessionID := ""
	if user == nil {
		sessionID = visitorSessionID(c)
	}

	review, err := h.reviews.Submit(c.Context(), user, sessionID, reviews.Submission{
		PropertyID:  propertyID,
		Rating:      req.Rating,
		Title:       req.Title,
		Body:        req.Body,
		ProsCons:    req.ProsCons,
		LivedFrom:   from,
		LivedTo:     to,
		Anonymous:   req.Anonymous,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return handleError(c, err, "submit review")
	}

	return jsonCreated(c, models.SubmittedReview{
		ID:     review.ID,
		Status: review.Status,
		Title:  review.Title,
	})
}
