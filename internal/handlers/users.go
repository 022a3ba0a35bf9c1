package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/middleware"
	"propreviews/internal/models"
	"propreviews/internal/validation"
)

// UserLister lists accounts for the admin page.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Suspender suspends and reinstates accounts.
type Suspender interface {
	SetSuspended(ctx context.Context, actor *models.User, userID uuid.UUID, suspended bool) error
}

// UserHandler handles user management operations.
type UserHandler struct {
	db        UserLister
	suspender Suspender
	cfg       *config.Config
}

// NewUserHandler creates a new user handler.
func NewUserHandler(database UserLister, suspender Suspender, cfg *config.Config) *UserHandler {
	return &UserHandler{db: database, suspender: suspender, cfg: cfg}
}

// ListUsers renders the user management page (admin only).
func (h *UserHandler) ListUsers(c fiber.Ctx) error {
	if !middleware.CurrentUser(c).IsAdmin() {
		return fiber.NewError(fiber.StatusForbidden, "admin access required")
	}

	users, err := h.db.ListUsers(c.Context())
	if err != nil {
		return err
	}

	data := pageData(c, h.cfg, "Users")
	data["Users"] = users
	return c.Render("users", data)
}

// UpdateSuspension suspends the user when the form's "suspended" field is
// "true" and reinstates them otherwise.
func (h *UserHandler) UpdateSuspension(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return htmxError(c, "Invalid user id.")
	}
	suspended := c.FormValue("suspended") == "true"

	if err := h.suspender.SetSuspended(c.Context(), middleware.CurrentUser(c), id, suspended); err != nil {
		var r *validation.Rejection
		if errors.As(err, &r) {
			return htmxError(c, r.Message)
		}
		return err
	}

	if suspended {
		return c.SendString(`<span class="badge badge-rejected">suspended</span>`)
	}
	return c.SendString(`<span class="badge badge-approved">active</span>`)
}
