package api

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"propreviews/internal/images"
	"propreviews/internal/models"
	"propreviews/internal/storage"
	"propreviews/internal/validation"
)

// ImageUploader stores property images.
type ImageUploader interface {
	Upload(ctx context.Context, user *models.User, propertyID uuid.UUID, up images.Upload) (*models.PropertyImage, error)
	Validator() *validation.ImageValidator
}

// ImageHandler serves property image uploads and, for stores that need it,
// image downloads.
type ImageHandler struct {
	images ImageUploader
	opener storage.Opener
}

// NewImageHandler creates a new API image handler. opener may be nil when
// images are served elsewhere.
func NewImageHandler(svc ImageUploader, opener storage.Opener) *ImageHandler {
	return &ImageHandler{images: svc, opener: opener}
}

// Upload accepts a multipart file in the "image" field.
func (h *ImageHandler) Upload(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	propertyID, ok := paramID(c, "id")
	if !ok {
		return notFound(c)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return jsonRejection(c, validation.Reject(validation.ReasonInvalidField, "an image file is required in the \"image\" field"))
	}

	// Refuse cheaply before reading the file into memory.
	v := h.images.Validator()
	if _, err := v.CheckExtension(file.Filename); err != nil {
		return handleError(c, err, "upload image")
	}
	if err := v.CheckSize(file.Size); err != nil {
		return handleError(c, err, "upload image")
	}

	f, err := file.Open()
	if err != nil {
		return handleError(c, err, "upload image")
	}
	defer f.Close()

	// Read one byte past the limit so a lying Content-Length cannot sneak
	// an oversized file through.
	data, err := io.ReadAll(io.LimitReader(f, v.MaxBytes()+1))
	if err != nil {
		return handleError(c, err, "upload image")
	}

	img, err := h.images.Upload(c.Context(), user, propertyID, images.Upload{Filename: file.Filename, Data: data})
	if err != nil {
		return handleError(c, err, "upload image")
	}
	return jsonCreated(c, img)
}

// Serve streams an image from the blob store.
func (h *ImageHandler) Serve(c fiber.Ctx) error {
	if h.opener == nil {
		return fiber.ErrNotFound
	}

	rc, contentType, err := h.opener.Open(c.Context(), c.Params("id"))
	if errors.Is(err, storage.ErrNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Set("X-Content-Type-Options", "nosniff")
	return c.Send(data)
}
