// Package storage holds image blobs behind a small key/value interface. Each
// write returns the public URL the blob is served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Backend names accepted by IMAGE_STORAGE.
const (
	BackendLocal      = "local"
	BackendGridFS     = "gridfs"
	BackendCloudinary = "cloudinary"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that would escape the store.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object is a stored blob.
type Object struct {
	// Key identifies the blob for later deletion.
	Key string
	URL string
}

// Store persists validated image bytes.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// Opener is implemented by stores whose blobs are served by this application
// rather than by a static file handler or CDN.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// PropertyImageKey builds the key for a property image from a sanitized
// filename. The random prefix keeps uploads with equal names apart; ext is
// appended when the sanitized name lost it.
func PropertyImageKey(propertyID uuid.UUID, sanitized, ext string) string {
	name := sanitized
	if ext != "" && !strings.EqualFold(path.Ext(name), ext) {
		name += ext
	}
	return fmt.Sprintf("properties/%s/%s-%s", propertyID, uuid.NewString()[:8], name)
}

// cleanKey validates a slash-separated relative key.
func cleanKey(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "\\\x00") || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned != key {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
