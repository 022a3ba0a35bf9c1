package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"propreviews/internal/config"
	"propreviews/internal/db"
	"propreviews/internal/models"
	"propreviews/internal/storage"
	"propreviews/internal/validation"
)

type fakeStore struct {
	mu         sync.Mutex
	properties map[uuid.UUID]*models.Property
	insertErr  error
}

func (s *fakeStore) GetPropertyByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, db.ErrPropertyNotFound
	}
	cp := *p
	cp.Images = append([]models.PropertyImage(nil), p.Images...)
	return &cp, nil
}

func (s *fakeStore) AttachImage(ctx context.Context, propertyID uuid.UUID, limit int, put db.PutFunc) (*models.PropertyImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[propertyID]
	if !ok {
		return nil, db.ErrPropertyNotFound
	}
	if len(p.Images) >= limit {
		return nil, db.ErrTooManyImages
	}
	url, key, err := put(ctx, len(p.Images))
	if err != nil {
		return nil, err
	}
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	img := models.PropertyImage{ID: uuid.New(), PropertyID: propertyID, URL: url, StorageKey: key, Position: len(p.Images)}
	p.Images = append(p.Images, img)
	return &img, nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Put(_ context.Context, key, _ string, data []byte) (*storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return &storage.Object{Key: key, URL: "/uploads/" + key}, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(b.objects, key)
	return nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	store    *fakeStore
	blobs    *memBlobs
	svc      *Service
	owner    *models.User
	property *models.Property
}

func newFixture() *fixture {
	owner := &models.User{ID: uuid.New(), Name: "Owner", Role: models.RoleUser}
	ownerID := owner.ID
	property := &models.Property{ID: uuid.New(), Address: "1 Elm St", CreatedBy: &ownerID}
	store := &fakeStore{properties: map[uuid.UUID]*models.Property{property.ID: property}}
	blobs := newMemBlobs()
	return &fixture{
		store:    store,
		blobs:    blobs,
		svc:      NewService(store, blobs, config.DefaultPolicy()),
		owner:    owner,
		property: property,
	}
}

func TestUpload_Accepted(t *testing.T) {
	f := newFixture()

	img, err := f.svc.Upload(context.Background(), f.owner, f.property.ID, Upload{Filename: "../../Front Door.PNG", Data: pngBytes(t)})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(img.StorageKey, "properties/"+f.property.ID.String()+"/") {
		t.Errorf("storage key = %q", img.StorageKey)
	}
	if strings.Contains(img.StorageKey, "..") {
		t.Errorf("storage key %q contains traversal", img.StorageKey)
	}
	if !strings.HasSuffix(img.StorageKey, "-Front Door.PNG") {
		t.Errorf("storage key = %q, want sanitized name", img.StorageKey)
	}
	if len(f.blobs.objects) != 1 {
		t.Errorf("stored %d blobs, want 1", len(f.blobs.objects))
	}
}

func TestUpload_Rejections(t *testing.T) {
	good := pngBytes(t)
	jpegName := "photo.jpg"

	tests := []struct {
		name   string
		user   func(f *fixture) *models.User
		upload Upload
		reason validation.Reason
	}{
		{"anonymous", func(*fixture) *models.User { return nil }, Upload{Filename: "a.png", Data: good}, validation.ReasonUnauthorized},
		{"not owner", func(*fixture) *models.User { return &models.User{ID: uuid.New(), Role: models.RoleUser} }, Upload{Filename: "a.png", Data: good}, validation.ReasonUnauthorized},
		{"extension", func(f *fixture) *models.User { return f.owner }, Upload{Filename: "a.exe", Data: good}, validation.ReasonDisallowedExtension},
		{"too large", func(f *fixture) *models.User { return f.owner }, Upload{Filename: "a.png", Data: make([]byte, 6<<20)}, validation.ReasonFileTooLarge},
		{"png as jpg", func(f *fixture) *models.User { return f.owner }, Upload{Filename: jpegName, Data: good}, validation.ReasonContentMismatch},
		{"truncated", func(f *fixture) *models.User { return f.owner }, Upload{Filename: "a.png", Data: good[:len(good)/2]}, validation.ReasonCorruptImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Upload(context.Background(), tt.user(f), f.property.ID, tt.upload)
			if got := validation.ReasonOf(err); got != tt.reason {
				t.Errorf("reason = %q (err %v), want %q", got, err, tt.reason)
			}
			if len(f.blobs.objects) != 0 || len(f.property.Images) != 0 {
				t.Error("rejected upload left data behind")
			}
		})
	}
}

func TestUpload_AdminMayUpload(t *testing.T) {
	f := newFixture()
	adminUser := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	if _, err := f.svc.Upload(context.Background(), adminUser, f.property.ID, Upload{Filename: "a.png", Data: pngBytes(t)}); err != nil {
		t.Errorf("admin upload: %v", err)
	}
}

func TestUpload_UnknownProperty(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(context.Background(), f.owner, uuid.New(), Upload{Filename: "a.png", Data: pngBytes(t)})
	if !errors.Is(err, validation.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpload_SeventhImage(t *testing.T) {
	f := newFixture()
	data := pngBytes(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if _, err := f.svc.Upload(ctx, f.owner, f.property.ID, Upload{Filename: "a.png", Data: data}); err != nil {
			t.Fatalf("upload %d: %v", i+1, err)
		}
	}
	_, err := f.svc.Upload(ctx, f.owner, f.property.ID, Upload{Filename: "a.png", Data: data})
	if !validation.IsReason(err, validation.ReasonTooManyImages) {
		t.Errorf("seventh upload err = %v, want too_many_images", err)
	}
	if len(f.blobs.objects) != 6 {
		t.Errorf("stored %d blobs, want 6", len(f.blobs.objects))
	}
}

func TestUpload_ConcurrentLimit(t *testing.T) {
	f := newFixture()
	data := pngBytes(t)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Upload(context.Background(), f.owner, f.property.ID, Upload{Filename: "a.png", Data: data})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case !validation.IsReason(err, validation.ReasonTooManyImages):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if accepted != 6 {
		t.Errorf("accepted %d uploads, want 6", accepted)
	}
	if len(f.blobs.objects) != 6 {
		t.Errorf("stored %d blobs, want 6", len(f.blobs.objects))
	}
}

func TestUpload_RemovesBlobWhenInsertFails(t *testing.T) {
	f := newFixture()
	f.store.insertErr = errors.New("insert failed")

	_, err := f.svc.Upload(context.Background(), f.owner, f.property.ID, Upload{Filename: "a.png", Data: pngBytes(t)})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.blobs.objects) != 0 {
		t.Errorf("orphaned blobs: %d", len(f.blobs.objects))
	}
}
