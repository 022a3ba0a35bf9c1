package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/middleware"
	"propreviews/internal/moderation"
	"propreviews/internal/models"
	"propreviews/internal/validation"
)

// ReviewModerator is the moderation workflow behind the dashboard.
type ReviewModerator interface {
	Apply(ctx context.Context, actor *models.User, ids []uuid.UUID, target string) ([]moderation.Result, error)
	Pending(ctx context.Context, actor *models.User, limit int) ([]models.Review, error)
	FlaggedWithReports(ctx context.Context, actor *models.User, limit int) ([]moderation.FlaggedReview, error)
	Unflag(ctx context.Context, actor *models.User, reviewID uuid.UUID) error
	ResolveReport(ctx context.Context, actor *models.User, reportID uuid.UUID, resolved bool) (*models.ReviewReport, error)
}

// ModerationHandler renders the review moderation dashboard.
type ModerationHandler struct {
	moderation ReviewModerator
	cfg        *config.Config
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(svc ReviewModerator, cfg *config.Config) *ModerationHandler {
	return &ModerationHandler{moderation: svc, cfg: cfg}
}

// Index renders pending reviews and flagged reviews with their reports.
func (h *ModerationHandler) Index(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	pending, err := h.moderation.Pending(c.Context(), user, moderation.DefaultListLimit)
	if err != nil {
		return moderationError(err)
	}
	flagged, err := h.moderation.FlaggedWithReports(c.Context(), user, moderation.DefaultListLimit)
	if err != nil {
		return moderationError(err)
	}

	data := pageData(c, h.cfg, "Moderation")
	data["Pending"] = pending
	data["Flagged"] = flagged
	return c.Render("moderation", data)
}

// Decide applies the status named by :action ("approve" or "reject") to the
// review ids posted in the form. A single :id in the path is accepted too.
func (h *ModerationHandler) Decide(c fiber.Ctx) error {
	var target string
	switch c.Params("action") {
	case "approve":
		target = models.StatusApproved
	case "reject":
		target = models.StatusRejected
	default:
		return fiber.NewError(fiber.StatusNotFound, "unknown action")
	}

	ids := formIDs(c)
	if len(ids) == 0 {
		return htmxError(c, "Select at least one review.")
	}

	results, err := h.moderation.Apply(c.Context(), middleware.CurrentUser(c), ids, target)
	if err != nil {
		var r *validation.Rejection
		if errors.As(err, &r) {
			return htmxError(c, r.Message)
		}
		slog.Error("moderation failed", "error", err)
		return htmxError(c, "Moderation failed. Please try again.")
	}

	return c.Render("partials/moderation_result", fiber.Map{
		"Target":  target,
		"Results": results,
	}, "")
}

// Unflag clears a review's flag from the dashboard.
func (h *ModerationHandler) Unflag(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "review not found")
	}
	if err := h.moderation.Unflag(c.Context(), middleware.CurrentUser(c), id); err != nil {
		if validation.IsReason(err, validation.ReasonNotFound) {
			return htmxError(c, "That review no longer exists.")
		}
		return moderationError(err)
	}
	return c.SendString(`<div class="notice notice-ok">Flag cleared.</div>`)
}

// ResolveReport resolves or reopens a report, per :action, and re-renders its
// row.
func (h *ModerationHandler) ResolveReport(c fiber.Ctx) error {
	var resolved bool
	switch c.Params("action") {
	case "resolve":
		resolved = true
	case "reopen":
	default:
		return fiber.NewError(fiber.StatusNotFound, "unknown action")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "report not found")
	}

	report, err := h.moderation.ResolveReport(c.Context(), middleware.CurrentUser(c), id, resolved)
	if err != nil {
		if validation.IsReason(err, validation.ReasonNotFound) {
			return htmxError(c, "That report no longer exists.")
		}
		return moderationError(err)
	}
	return c.Render("partials/report_row", report, "")
}

// formIDs collects review ids from the path and from repeated "ids" form
// fields. Malformed ids are skipped.
func formIDs(c fiber.Ctx) []uuid.UUID {
	var ids []uuid.UUID
	if raw := c.Params("id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	for _, raw := range c.Request().PostArgs().PeekMulti("ids") {
		if id, err := uuid.ParseBytes(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// moderationError maps service errors onto page errors.
func moderationError(err error) error {
	switch validation.ReasonOf(err) {
	case validation.ReasonUnauthorized:
		return fiber.NewError(fiber.StatusForbidden, "admin access required")
	case validation.ReasonNotFound:
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}
	return err
}
