package api

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/db"
	"propreviews/internal/models"
	"propreviews/internal/ratings"
	"propreviews/internal/reviews"
	"propreviews/internal/validation"
)

// PropertyStore is the property persistence used by the API.
type PropertyStore interface {
	SearchProperties(ctx context.Context, query, propertyType string, limit int) ([]models.Property, error)
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) error
}

// ReviewReader loads a property's public reviews and rating summary.
type ReviewReader interface {
	ForProperty(ctx context.Context, propertyID uuid.UUID) (*reviews.PropertyReviews, error)
}

// PropertyHandler serves property search, detail and creation.
type PropertyHandler struct {
	db       PropertyStore
	reviews  ReviewReader
	validate *validator.Validate
}

// NewPropertyHandler creates a new API property handler.
func NewPropertyHandler(store PropertyStore, reviews ReviewReader, validate *validator.Validate) *PropertyHandler {
	return &PropertyHandler{db: store, reviews: reviews, validate: validate}
}

// CreatePropertyRequest is the body of POST /api/properties.
type CreatePropertyRequest struct {
	Address      string `json:"address" validate:"required,max=200"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=50"`
	Zip          string `json:"zip" validate:"required,max=20"`
	PropertyType string `json:"property_type" validate:"required,oneof=apartment house condo townhouse other"`
	Description  string `json:"description" validate:"omitempty,min=50,max=2000"`
}

func (r *CreatePropertyRequest) trim() {
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.Zip = strings.TrimSpace(r.Zip)
	r.PropertyType = strings.ToLower(strings.TrimSpace(r.PropertyType))
	r.Description = strings.TrimSpace(r.Description)
}

// PropertyDetail is the response of GET /api/properties/:id.
type PropertyDetail struct {
	*models.Property
	Summary ratings.Summary `json:"rating_summary"`
}

// Search returns properties matching ?q=, optionally filtered by ?type=.
func (h *PropertyHandler) Search(c fiber.Ctx) error {
	propertyType := strings.ToLower(strings.TrimSpace(c.Query("type")))
	if propertyType != "" && !models.ValidPropertyType(propertyType) {
		return jsonRejection(c, validation.Reject(validation.ReasonInvalidField, "unknown property type %q", propertyType))
	}

	limit := fiber.Query[int](c, "limit", db.DefaultSearchLimit)
	results, err := h.db.SearchProperties(c.Context(), c.Query("q"), propertyType, limit)
	if err != nil {
		return handleError(c, err, "search properties")
	}
	if results == nil {
		results = []models.Property{}
	}
	return jsonSuccess(c, results)
}

// Get returns a property with its images and rating summary.
func (h *PropertyHandler) Get(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}

	property, err := h.db.GetPropertyByID(c.Context(), id)
	if errors.Is(err, db.ErrPropertyNotFound) {
		return notFound(c)
	}
	if err != nil {
		return handleError(c, err, "load property")
	}

	public, err := h.reviews.ForProperty(c.Context(), id)
	if err != nil {
		return handleError(c, err, "load reviews")
	}
	return jsonSuccess(c, PropertyDetail{Property: property, Summary: public.Summary})
}

// Create adds a property owned by the current user.
func (h *PropertyHandler) Create(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req CreatePropertyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return jsonRejection(c, validation.Reject(validation.ReasonInvalidField, "invalid request body"))
	}
	req.trim()
	if err := h.validate.Struct(&req); err != nil {
		return jsonRejection(c, fieldRejection(err))
	}

	owner := user.ID
	property := &models.Property{
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		PropertyType: req.PropertyType,
		Description:  req.Description,
		CreatedBy:    &owner,
	}
	if err := h.db.CreateProperty(c.Context(), property); err != nil {
		return handleError(c, err, "create property")
	}
	return jsonCreated(c, property)
}

// fieldRejection turns the first validator failure into an InvalidField
// rejection naming the JSON field.
func fieldRejection(err error) *validation.Rejection {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validation.Reject(validation.ReasonInvalidField, "invalid request")
	}

	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return validation.Reject(validation.ReasonInvalidField, "%s", msg)
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
