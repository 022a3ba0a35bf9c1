package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a root directory that is served statically
// at urlPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: abs, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root returns the absolute upload directory.
func (s *LocalStore) Root() string {
	return s.root
}

// resolve maps a key to a path, refusing anything outside root.
func (s *LocalStore) resolve(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", ErrInvalidKey
	}
	return full, nil
}

// Put writes data to a new file. Existing files are never overwritten.
func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (*Object, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create image file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full)
		return nil, fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("close image file: %w", err)
	}

	return &Object{Key: key, URL: s.urlPrefix + "/" + escapeKey(key)}, nil
}

// escapeKey path-escapes each segment of key for use in a URL.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// Delete removes a stored file.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
