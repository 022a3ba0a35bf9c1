package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/middleware"
	"propreviews/internal/models"
	"propreviews/internal/validation"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated is jsonSuccess with a 201 status.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// reasonStatus maps rejection reasons onto HTTP status codes.
var reasonStatus = map[validation.Reason]int{
	validation.ReasonInvalidRating:       fiber.StatusBadRequest,
	validation.ReasonTooShort:            fiber.StatusBadRequest,
	validation.ReasonInvalidField:        fiber.StatusBadRequest,
	validation.ReasonInvalidTransition:   fiber.StatusBadRequest,
	validation.ReasonContentViolation:    fiber.StatusUnprocessableEntity,
	validation.ReasonCorruptImage:        fiber.StatusUnprocessableEntity,
	validation.ReasonDuplicateReview:     fiber.StatusConflict,
	validation.ReasonDuplicateReport:     fiber.StatusConflict,
	validation.ReasonTooManyImages:       fiber.StatusConflict,
	validation.ReasonRateLimited:         fiber.StatusTooManyRequests,
	validation.ReasonDisallowedExtension: fiber.StatusUnsupportedMediaType,
	validation.ReasonContentMismatch:     fiber.StatusUnsupportedMediaType,
	validation.ReasonFileTooLarge:        fiber.StatusRequestEntityTooLarge,
	validation.ReasonUnauthorized:        fiber.StatusForbidden,
	validation.ReasonNotFound:            fiber.StatusNotFound,
}

// StatusFor returns the HTTP status for a rejection reason.
func StatusFor(reason validation.Reason) int {
	if status, ok := reasonStatus[reason]; ok {
		return status
	}
	return fiber.StatusBadRequest
}

// jsonRejection writes a domain rejection with its reason code.
func jsonRejection(c fiber.Ctx, r *validation.Rejection) error {
	return c.Status(StatusFor(r.Reason)).JSON(fiber.Map{
		"status": "error",
		"error":  r.Message,
		"reason": r.Reason,
	})
}

// handleError writes rejections as such and hides everything else behind a
// generic 500.
func handleError(c fiber.Ctx, err error, action string) error {
	var rejection *validation.Rejection
	if errors.As(err, &rejection) {
		return jsonRejection(c, rejection)
	}
	slog.Error("request failed", "action", action, "path", c.Path(), "error", err)
	return jsonError(c, fiber.StatusInternalServerError, "failed to "+action)
}

// paramID parses a uuid route parameter, answering 404 for malformed ids so
// callers cannot tell them apart from unknown ones.
func paramID(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func notFound(c fiber.Ctx) error {
	return jsonRejection(c, validation.ErrNotFound)
}

func currentUser(c fiber.Ctx) *models.User {
	return middleware.CurrentUser(c)
}
