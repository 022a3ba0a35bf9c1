package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/db"
	"propreviews/internal/middleware"
	"propreviews/internal/models"
	"propreviews/internal/reviews"
)

// indexLimit caps how many properties the home page lists.
const indexLimit = 12

// PropertyFinder looks up properties for the HTML pages.
type PropertyFinder interface {
	SearchProperties(ctx context.Context, query, propertyType string, limit int) ([]models.Property, error)
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

// ReviewReader loads a property's approved reviews and rating summary.
type ReviewReader interface {
	ForProperty(ctx context.Context, propertyID uuid.UUID) (*reviews.PropertyReviews, error)
}

// PropertyHandler renders the public property pages.
type PropertyHandler struct {
	db      PropertyFinder
	reviews ReviewReader
	cfg     *config.Config
}

// NewPropertyHandler creates a new property page handler.
func NewPropertyHandler(database PropertyFinder, reviews ReviewReader, cfg *config.Config) *PropertyHandler {
	return &PropertyHandler{db: database, reviews: reviews, cfg: cfg}
}

// Index renders the home page with a search box and recently added properties.
func (h *PropertyHandler) Index(c fiber.Ctx) error {
	properties, err := h.db.SearchProperties(c.Context(), "", "", indexLimit)
	if err != nil {
		return err
	}

	data := pageData(c, h.cfg, "")
	data["Properties"] = properties
	data["PropertyTypes"] = models.PropertyTypes
	return c.Render("index", data)
}

// Search renders properties matching ?q= and ?type=.
func (h *PropertyHandler) Search(c fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	propertyType := strings.ToLower(c.Query("type"))
	if propertyType != "" && !models.ValidPropertyType(propertyType) {
		propertyType = ""
	}

	properties, err := h.db.SearchProperties(c.Context(), query, propertyType, db.DefaultSearchLimit)
	if err != nil {
		return err
	}

	data := pageData(c, h.cfg, "Search")
	data["Properties"] = properties
	data["Query"] = query
	data["Type"] = propertyType
	data["PropertyTypes"] = models.PropertyTypes
	return c.Render("search", data)
}

// Show renders a property with its images, approved reviews and review form.
func (h *PropertyHandler) Show(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	}

	property, err := h.db.GetPropertyByID(c.Context(), id)
	if errors.Is(err, db.ErrPropertyNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	}
	if err != nil {
		return err
	}

	public, err := h.reviews.ForProperty(c.Context(), id)
	if err != nil {
		return err
	}

	reviewList := make([]models.PublicReview, 0, len(public.Reviews))
	for i := range public.Reviews {
		reviewList = append(reviewList, public.Reviews[i].ToPublic())
	}

	user := middleware.CurrentUser(c)
	data := pageData(c, h.cfg, property.FullAddress())
	data["Property"] = property
	data["Reviews"] = reviewList
	data["Summary"] = public.Summary
	data["CanManage"] = property.CanManage(user)
	data["CanAddImage"] = property.CanManage(user) && len(property.Images) < h.cfg.Policy.MaxImagesPerProperty
	data["ReportReasons"] = models.ReportReasons
	return c.Render("property", data)
}

// Login renders the sign-in page.
func (h *PropertyHandler) Login(c fiber.Ctx) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect().To("/")
	}
	return c.Render("login", pageData(c, h.cfg, "Sign in"))
}
