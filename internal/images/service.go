// Package images accepts property photo uploads.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/db"
	"propreviews/internal/metrics"
	"propreviews/internal/models"
	"propreviews/internal/storage"
	"propreviews/internal/validation"
)

// Store is the persistence the service needs.
type Store interface {
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	AttachImage(ctx context.Context, propertyID uuid.UUID, limit int, put db.PutFunc) (*models.PropertyImage, error)
}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Service validates uploads and stores them for a property.
type Service struct {
	store     Store
	blobs     storage.Store
	validator *validation.ImageValidator
	maxImages int
}

// NewService builds a Service from policy.
func NewService(store Store, blobs storage.Store, policy config.Policy) *Service {
	return &Service{
		store:     store,
		blobs:     blobs,
		validator: validation.NewImageValidator(policy.AllowedExtensions, policy.MaxImageBytes),
		maxImages: policy.MaxImagesPerProperty,
	}
}

// Validator exposes the upload checks so handlers can refuse oversized or
// misnamed files before reading them.
func (s *Service) Validator() *validation.ImageValidator {
	return s.validator
}

// Upload checks that user may manage the property, validates the file and
// stores it. On any rejection no blob or row is left behind.
func (s *Service) Upload(ctx context.Context, user *models.User, propertyID uuid.UUID, up Upload) (*models.PropertyImage, error) {
	img, err := s.upload(ctx, user, propertyID, up)
	if err != nil {
		if reason := validation.ReasonOf(err); reason != "" {
			metrics.RecordUpload(string(reason))
		}
		return nil, err
	}
	metrics.RecordUpload("accepted")
	return img, nil
}

func (s *Service) upload(ctx context.Context, user *models.User, propertyID uuid.UUID, up Upload) (*models.PropertyImage, error) {
	if user == nil {
		return nil, validation.ErrUnauthorized
	}

	property, err := s.store.GetPropertyByID(ctx, propertyID)
	if errors.Is(err, db.ErrPropertyNotFound) {
		return nil, validation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if !property.CanManage(user) {
		return nil, validation.ErrUnauthorized
	}
	if len(property.Images) >= s.maxImages {
		return nil, tooManyImages(s.maxImages)
	}

	info, err := s.validator.Validate(up.Filename, up.Data)
	if err != nil {
		return nil, err
	}
	key := storage.PropertyImageKey(property.ID, validation.SanitizeFilename(up.Filename), info.Ext)

	var stored *storage.Object
	img, err := s.store.AttachImage(ctx, property.ID, s.maxImages, func(ctx context.Context, _ int) (string, string, error) {
		obj, err := s.blobs.Put(ctx, key, info.ContentType, up.Data)
		if err != nil {
			return "", "", fmt.Errorf("store image: %w", err)
		}
		stored = obj
		return obj.URL, obj.Key, nil
	})
	if err != nil {
		if stored != nil {
			if derr := s.blobs.Delete(context.WithoutCancel(ctx), stored.Key); derr != nil {
				slog.Error("failed to remove orphaned image", "key", stored.Key, "error", derr)
			}
		}
		switch {
		case errors.Is(err, db.ErrTooManyImages):
			return nil, tooManyImages(s.maxImages)
		case errors.Is(err, db.ErrPropertyNotFound):
			return nil, validation.ErrNotFound
		}
		return nil, err
	}

	slog.Info("image uploaded", "property_id", property.ID, "image_id", img.ID, "bytes", len(up.Data), "type", info.ContentType)
	return img, nil
}

func tooManyImages(limit int) error {
	return validation.Reject(validation.ReasonTooManyImages, "a property can have at most %d images", limit)
}
