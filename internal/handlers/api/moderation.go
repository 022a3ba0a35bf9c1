package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/moderation"
	"propreviews/internal/models"
	"propreviews/internal/validation"
)

// Moderator is the moderation workflow used by the API.
type Moderator interface {
	Apply(ctx context.Context, actor *models.User, ids []uuid.UUID, target string) ([]moderation.Result, error)
	Pending(ctx context.Context, actor *models.User, limit int) ([]models.Review, error)
	Flagged(ctx context.Context, actor *models.User, limit int) ([]models.Review, error)
	Unflag(ctx context.Context, actor *models.User, reviewID uuid.UUID) error
	Report(ctx context.Context, reporter *models.User, reviewID uuid.UUID, reason, description string) (*models.ReviewReport, error)
	Reports(ctx context.Context, actor *models.User, reviewID uuid.UUID) ([]models.ReviewReport, error)
	ResolveReport(ctx context.Context, actor *models.User, reportID uuid.UUID, resolved bool) (*models.ReviewReport, error)
	SetSuspended(ctx context.Context, actor *models.User, userID uuid.UUID, suspended bool) error
}

// ModerationHandler handles review moderation via JSON API.
type ModerationHandler struct {
	moderation Moderator
}

// NewModerationHandler creates a new API moderation handler.
func NewModerationHandler(svc Moderator) *ModerationHandler {
	return &ModerationHandler{moderation: svc}
}

// BulkModerationRequest is the body of POST /api/moderation/reviews.
type BulkModerationRequest struct {
	IDs    []uuid.UUID `json:"ids"`
	Status string      `json:"status"`
}

// ReportRequest is the body of POST /api/reviews/:id/report.
type ReportRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// Apply approves or rejects a batch of pending reviews.
func (h *ModerationHandler) Apply(c fiber.Ctx) error {
	var req BulkModerationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return jsonRejection(c, validation.Reject(validation.ReasonInvalidField, "invalid request body"))
	}

	results, err := h.moderation.Apply(c.Context(), currentUser(c), req.IDs, req.Status)
	if err != nil {
		return handleError(c, err, "moderate reviews")
	}
	return jsonSuccess(c, results)
}

// ListPending returns reviews awaiting moderation.
func (h *ModerationHandler) ListPending(c fiber.Ctx) error {
	list, err := h.moderation.Pending(c.Context(), currentUser(c), fiber.Query[int](c, "limit"))
	if err != nil {
		return handleError(c, err, "fetch pending reviews")
	}
	return jsonSuccess(c, emptyIfNil(list))
}

// ListFlagged returns reported reviews.
func (h *ModerationHandler) ListFlagged(c fiber.Ctx) error {
	list, err := h.moderation.Flagged(c.Context(), currentUser(c), fiber.Query[int](c, "limit"))
	if err != nil {
		return handleError(c, err, "fetch flagged reviews")
	}
	return jsonSuccess(c, emptyIfNil(list))
}

func emptyIfNil(list []models.Review) []models.Review {
	if list == nil {
		return []models.Review{}
	}
	return list
}

// Unflag clears a review's flag.
func (h *ModerationHandler) Unflag(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}
	if err := h.moderation.Unflag(c.Context(), currentUser(c), id); err != nil {
		return handleError(c, err, "unflag review")
	}
	return jsonSuccess(c, fiber.Map{"id": id, "flagged": false})
}

// Report files a report against a published review.
func (h *ModerationHandler) Report(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}

	var req ReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return jsonRejection(c, validation.Reject(validation.ReasonInvalidField, "invalid request body"))
	}

	report, err := h.moderation.Report(c.Context(), currentUser(c), id, req.Reason, req.Description)
	if err != nil {
		return handleError(c, err, "report review")
	}
	return jsonCreated(c, report)
}

// ListReports returns the reports filed against a review.
func (h *ModerationHandler) ListReports(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}
	reports, err := h.moderation.Reports(c.Context(), currentUser(c), id)
	if err != nil {
		return handleError(c, err, "fetch reports")
	}
	if reports == nil {
		reports = []models.ReviewReport{}
	}
	return jsonSuccess(c, reports)
}

// ResolveReport marks a report resolved.
func (h *ModerationHandler) ResolveReport(c fiber.Ctx) error {
	return h.setResolved(c, true)
}

// ReopenReport clears a report's resolution.
func (h *ModerationHandler) ReopenReport(c fiber.Ctx) error {
	return h.setResolved(c, false)
}

func (h *ModerationHandler) setResolved(c fiber.Ctx, resolved bool) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}
	report, err := h.moderation.ResolveReport(c.Context(), currentUser(c), id, resolved)
	if err != nil {
		return handleError(c, err, "update report")
	}
	return jsonSuccess(c, report)
}

// Suspend suspends a user.
func (h *ModerationHandler) Suspend(c fiber.Ctx) error {
	return h.setSuspended(c, true)
}

// Reinstate lifts a user's suspension.
func (h *ModerationHandler) Reinstate(c fiber.Ctx) error {
	return h.setSuspended(c, false)
}

func (h *ModerationHandler) setSuspended(c fiber.Ctx, suspended bool) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}
	if err := h.moderation.SetSuspended(c.Context(), currentUser(c), id, suspended); err != nil {
		return handleError(c, err, "update user")
	}
	return jsonSuccess(c, fiber.Map{"id": id, "suspended": suspended})
}
