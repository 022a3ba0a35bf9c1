package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/middleware"
	"propreviews/internal/models"
)

// AuthorReviews lists the reviews a user has written.
type AuthorReviews interface {
	ListReviewsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Review, error)
}

// ProfileHandler handles user profile pages.
type ProfileHandler struct {
	db  AuthorReviews
	cfg *config.Config
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(database AuthorReviews, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{db: database, cfg: cfg}
}

// Show renders the user's profile page with their reviews and where each
// stands in moderation.
func (h *ProfileHandler) Show(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Redirect().To("/login")
	}

	reviews, err := h.db.ListReviewsByAuthor(c.Context(), user.ID)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	for _, r := range reviews {
		counts[r.Status]++
	}

	data := pageData(c, h.cfg, "Your reviews")
	data["Reviews"] = reviews
	data["Counts"] = counts
	return c.Render("profile", data)
}
