package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"propreviews/internal/db"
	"propreviews/internal/images"
	"propreviews/internal/moderation"
	"propreviews/internal/models"
	"propreviews/internal/ratings"
	"propreviews/internal/reviews"
	"propreviews/internal/storage"
	"propreviews/internal/validation"
)

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Reason string          `json:"reason"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return env
}

// newApp returns an app whose requests run as user (nil for anonymous).
func newApp(user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(session.New())
	app.Use(func(c fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// --- reviews ---

type fakeReviews struct {
	submitted []reviews.Submission
	sessions  []string
	err       error
	summary   ratings.Summary
	approved  []models.Review
	known     map[uuid.UUID]bool
}

func (f *fakeReviews) Submit(_ context.Context, user *models.User, sessionID string, sub reviews.Submission) (*models.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.submitted = append(f.submitted, sub)
	f.sessions = append(f.sessions, sessionID)
	return &models.Review{ID: uuid.New(), PropertyID: sub.PropertyID, Title: "Quiet street", Status: models.StatusPending}, nil
}

func (f *fakeReviews) ForProperty(_ context.Context, propertyID uuid.UUID) (*reviews.PropertyReviews, error) {
	if f.known != nil && !f.known[propertyID] {
		return nil, validation.ErrNotFound
	}
	return &reviews.PropertyReviews{Reviews: f.approved, Summary: f.summary}, nil
}

func TestReviewSubmit(t *testing.T) {
	fake := &fakeReviews{}
	h := NewReviewHandler(fake)
	app := newApp(nil)
	app.Post("/api/properties/:id/reviews", h.Submit)

	propertyID := uuid.New()
	resp, err := app.Test(jsonRequest("POST", "/api/properties/"+propertyID.String()+"/reviews", fiber.Map{
		"rating":     4,
		"body":       strings.Repeat("solid place ", 6),
		"lived_from": "2022-03-01",
		"anonymous":  true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out models.SubmittedReview
	if err := json.Unmarshal(decode(t, resp).Data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", out.Status)
	}
	if len(fake.submitted) != 1 {
		t.Fatalf("submitted %d reviews, want 1", len(fake.submitted))
	}
	sub := fake.submitted[0]
	if sub.PropertyID != propertyID || sub.Rating != 4 || !sub.Anonymous {
		t.Errorf("submission = %+v", sub)
	}
	if sub.LivedFrom == nil || sub.LivedFrom.Format(dateLayout) != "2022-03-01" {
		t.Errorf("lived_from = %v", sub.LivedFrom)
	}
	if fake.sessions[0] == "" {
		t.Error("anonymous submission should carry the session id")
	}
}

func TestReviewSubmitAuthenticatedSkipsSession(t *testing.T) {
	fake := &fakeReviews{}
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleUser})
	app.Post("/api/properties/:id/reviews", NewReviewHandler(fake).Submit)

	resp, _ := app.Test(jsonRequest("POST", "/api/properties/"+uuid.NewString()+"/reviews", fiber.Map{"rating": 5}))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if fake.sessions[0] != "" {
		t.Errorf("session id = %q, want empty for a signed-in user", fake.sessions[0])
	}
}

func TestReviewSubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       any
		err        error
		wantStatus int
		wantReason string
	}{
		{
			name:       "bad property id",
			path:       "/api/properties/nope/reviews",
			body:       fiber.Map{"rating": 5},
			wantStatus: fiber.StatusNotFound,
			wantReason: "not_found",
		},
		{
			name:       "bad date",
			path:       "/api/properties/" + uuid.NewString() + "/reviews",
			body:       fiber.Map{"rating": 5, "lived_to": "last spring"},
			wantStatus: fiber.StatusBadRequest,
			wantReason: "invalid_field",
		},
		{
			name:       "rate limited",
			path:       "/api/properties/" + uuid.NewString() + "/reviews",
			body:       fiber.Map{"rating": 5},
			err:        validation.Reject(validation.ReasonRateLimited, "slow down"),
			wantStatus: fiber.StatusTooManyRequests,
			wantReason: "rate_limited",
		},
		{
			name:       "content violation",
			path:       "/api/properties/" + uuid.NewString() + "/reviews",
			body:       fiber.Map{"rating": 1},
			err:        validation.Reject(validation.ReasonContentViolation, "keep it about the property"),
			wantStatus: fiber.StatusUnprocessableEntity,
			wantReason: "content_violation",
		},
		{
			name:       "internal failure",
			path:       "/api/properties/" + uuid.NewString() + "/reviews",
			body:       fiber.Map{"rating": 3},
			err:        errors.New("connection reset"),
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(nil)
			app.Post("/api/properties/:id/reviews", NewReviewHandler(&fakeReviews{err: tt.err}).Submit)

			resp, err := app.Test(jsonRequest("POST", tt.path, tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			env := decode(t, resp)
			if env.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", env.Reason, tt.wantReason)
			}
			if tt.wantStatus == fiber.StatusInternalServerError && strings.Contains(env.Error, "connection") {
				t.Errorf("internal error leaked: %q", env.Error)
			}
		})
	}
}

func TestReviewList(t *testing.T) {
	author := uuid.New()
	fake := &fakeReviews{
		approved: []models.Review{{
			ID: uuid.New(), AuthorID: &author, SubmitterKey: "user:" + author.String(),
			AuthorName: "Dana", Rating: 5, Title: "Great", Body: "Lovely light.", Status: models.StatusApproved,
		}},
		summary: ratings.Summarize([]int{5}),
	}
	app := newApp(nil)
	app.Get("/api/properties/:id/reviews", NewReviewHandler(fake).List)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/properties/"+uuid.NewString()+"/reviews", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw := string(decode(t, resp).Data)
	if strings.Contains(raw, author.String()) {
		t.Errorf("public listing exposes author id: %s", raw)
	}
	if !strings.Contains(raw, `"author":"Dana"`) {
		t.Errorf("listing missing attribution: %s", raw)
	}
}

func TestReviewListUnknownProperty(t *testing.T) {
	known := uuid.New()
	fake := &fakeReviews{known: map[uuid.UUID]bool{known: true}}
	app := newApp(nil)
	app.Get("/api/properties/:id/reviews", NewReviewHandler(fake).List)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/properties/"+uuid.NewString()+"/reviews", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if env := decode(t, resp); env.Reason != "not_found" {
		t.Errorf("reason = %q, want not_found", env.Reason)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/properties/"+known.String()+"/reviews", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("known property status = %d, want 200", resp.StatusCode)
	}
}

// --- moderation ---

type fakeModerator struct {
	applied  []uuid.UUID
	target   string
	actor    *models.User
	resolved map[uuid.UUID]bool
}

func (f *fakeModerator) Apply(_ context.Context, actor *models.User, ids []uuid.UUID, target string) ([]moderation.Result, error) {
	if !actor.IsAdmin() {
		return nil, validation.ErrUnauthorized
	}
	f.applied, f.target = ids, target
	out := make([]moderation.Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, moderation.Result{ID: id, Outcome: moderation.OutcomeApplied})
	}
	return out, nil
}

func (f *fakeModerator) Pending(_ context.Context, actor *models.User, limit int) ([]models.Review, error) {
	return nil, nil
}

func (f *fakeModerator) Flagged(_ context.Context, actor *models.User, limit int) ([]models.Review, error) {
	return []models.Review{{ID: uuid.New(), Flagged: true}}, nil
}

func (f *fakeModerator) Unflag(_ context.Context, actor *models.User, reviewID uuid.UUID) error {
	return validation.ErrNotFound
}

func (f *fakeModerator) Report(_ context.Context, reporter *models.User, reviewID uuid.UUID, reason, description string) (*models.ReviewReport, error) {
	if reason == "" {
		return nil, validation.Reject(validation.ReasonInvalidField, "reason is required")
	}
	return &models.ReviewReport{ID: uuid.New(), ReviewID: reviewID, ReporterID: reporter.ID, Reason: reason}, nil
}

func (f *fakeModerator) Reports(_ context.Context, actor *models.User, reviewID uuid.UUID) ([]models.ReviewReport, error) {
	if f.resolved == nil {
		return nil, validation.ErrNotFound
	}
	var out []models.ReviewReport
	for id, resolved := range f.resolved {
		out = append(out, models.ReviewReport{ID: id, ReviewID: reviewID, Resolved: resolved})
	}
	return out, nil
}

func (f *fakeModerator) ResolveReport(_ context.Context, actor *models.User, reportID uuid.UUID, resolved bool) (*models.ReviewReport, error) {
	if _, ok := f.resolved[reportID]; !ok {
		return nil, validation.ErrNotFound
	}
	f.resolved[reportID] = resolved
	return &models.ReviewReport{ID: reportID, Resolved: resolved}, nil
}

func (f *fakeModerator) SetSuspended(_ context.Context, actor *models.User, userID uuid.UUID, suspended bool) error {
	f.actor = actor
	return nil
}

func TestModerationApply(t *testing.T) {
	fake := &fakeModerator{}
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	app.Post("/api/moderation/reviews", NewModerationHandler(fake).Apply)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	resp, _ := app.Test(jsonRequest("POST", "/api/moderation/reviews", fiber.Map{"ids": ids, "status": "approved"}))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var results []moderation.Result
	if err := json.Unmarshal(decode(t, resp).Data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Outcome != moderation.OutcomeApplied {
		t.Errorf("results = %+v", results)
	}
	if fake.target != models.StatusApproved || len(fake.applied) != 2 {
		t.Errorf("applied %v -> %q", fake.applied, fake.target)
	}
}

func TestModerationApplyForbidden(t *testing.T) {
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleUser})
	app.Post("/api/moderation/reviews", NewModerationHandler(&fakeModerator{}).Apply)

	resp, _ := app.Test(jsonRequest("POST", "/api/moderation/reviews", fiber.Map{"ids": []uuid.UUID{uuid.New()}, "status": "rejected"}))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if env := decode(t, resp); env.Reason != "unauthorized" {
		t.Errorf("reason = %q", env.Reason)
	}
}

func TestModerationListsNeverNull(t *testing.T) {
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	h := NewModerationHandler(&fakeModerator{})
	app.Get("/api/moderation/pending", h.ListPending)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/moderation/pending", nil))
	if got := string(decode(t, resp).Data); got != "[]" {
		t.Errorf("data = %s, want []", got)
	}
}

func TestModerationUnflagUnknown(t *testing.T) {
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	app.Post("/api/moderation/reviews/:id/unflag", NewModerationHandler(&fakeModerator{}).Unflag)

	resp, _ := app.Test(httptest.NewRequest("POST", "/api/moderation/reviews/"+uuid.NewString()+"/unflag", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestReport(t *testing.T) {
	reporter := &models.User{ID: uuid.New(), Role: models.RoleUser}
	app := newApp(reporter)
	app.Post("/api/reviews/:id/report", NewModerationHandler(&fakeModerator{}).Report)

	reviewID := uuid.New()
	resp, _ := app.Test(jsonRequest("POST", "/api/reviews/"+reviewID.String()+"/report", fiber.Map{"reason": models.ReportSpam}))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp, _ = app.Test(jsonRequest("POST", "/api/reviews/"+reviewID.String()+"/report", fiber.Map{}))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReportResolutionRoutes(t *testing.T) {
	reportID := uuid.New()
	fake := &fakeModerator{resolved: map[uuid.UUID]bool{reportID: false}}
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	h := NewModerationHandler(fake)
	app.Get("/api/moderation/reviews/:id/reports", h.ListReports)
	app.Post("/api/moderation/reports/:id/resolve", h.ResolveReport)
	app.Post("/api/moderation/reports/:id/reopen", h.ReopenReport)

	resp, _ := app.Test(httptest.NewRequest("POST", "/api/moderation/reports/"+reportID.String()+"/resolve", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("resolve status = %d, want 200", resp.StatusCode)
	}
	var report models.ReviewReport
	if err := json.Unmarshal(decode(t, resp).Data, &report); err != nil {
		t.Fatal(err)
	}
	if !report.Resolved || !fake.resolved[reportID] {
		t.Errorf("report = %+v, want resolved", report)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/moderation/reviews/"+uuid.NewString()+"/reports", nil))
	var list []models.ReviewReport
	if err := json.Unmarshal(decode(t, resp).Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].Resolved {
		t.Errorf("reports = %+v", list)
	}

	resp, _ = app.Test(httptest.NewRequest("POST", "/api/moderation/reports/"+reportID.String()+"/reopen", nil))
	if resp.StatusCode != fiber.StatusOK || fake.resolved[reportID] {
		t.Errorf("reopen status = %d, resolved = %v", resp.StatusCode, fake.resolved[reportID])
	}

	resp, _ = app.Test(httptest.NewRequest("POST", "/api/moderation/reports/"+uuid.NewString()+"/resolve", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown report status = %d, want 404", resp.StatusCode)
	}
	if env := decode(t, resp); env.Reason != "not_found" {
		t.Errorf("reason = %q", env.Reason)
	}
}

func TestReportListUnknownReview(t *testing.T) {
	app := newApp(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	app.Get("/api/moderation/reviews/:id/reports", NewModerationHandler(&fakeModerator{}).ListReports)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/moderation/reviews/"+uuid.NewString()+"/reports", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSuspendRoutes(t *testing.T) {
	fake := &fakeModerator{}
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	app := newApp(admin)
	h := NewModerationHandler(fake)
	app.Post("/api/moderation/users/:id/suspend", h.Suspend)

	resp, _ := app.Test(httptest.NewRequest("POST", "/api/moderation/users/"+uuid.NewString()+"/suspend", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if fake.actor != admin {
		t.Error("actor not passed through")
	}
}

// --- images ---

type fakeUploader struct {
	validator *validation.ImageValidator
	got       []images.Upload
}

func (f *fakeUploader) Upload(_ context.Context, user *models.User, propertyID uuid.UUID, up images.Upload) (*models.PropertyImage, error) {
	f.got = append(f.got, up)
	return &models.PropertyImage{ID: uuid.New(), PropertyID: propertyID, URL: "/uploads/x.png", Position: len(f.got) - 1}, nil
}

func (f *fakeUploader) Validator() *validation.ImageValidator { return f.validator }

func multipartRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImageUploadPrechecks(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Role: models.RoleUser}
	target := "/api/properties/" + uuid.NewString() + "/images"

	tests := []struct {
		name       string
		filename   string
		data       []byte
		wantStatus int
		wantCalls  int
	}{
		{"extension refused before reading", "payload.exe", []byte("MZ"), fiber.StatusUnsupportedMediaType, 0},
		{"too large refused before reading", "big.png", bytes.Repeat([]byte{0}, 2048), fiber.StatusRequestEntityTooLarge, 0},
		{"allowed file reaches the service", "door.png", []byte("\x89PNG"), fiber.StatusCreated, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUploader{validator: validation.NewImageValidator([]string{".png", ".jpg"}, 1024)}
			app := newApp(owner)
			app.Post("/api/properties/:id/images", NewImageHandler(fake, nil).Upload)

			resp, err := app.Test(multipartRequest(t, target, tt.filename, tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if len(fake.got) != tt.wantCalls {
				t.Errorf("service calls = %d, want %d", len(fake.got), tt.wantCalls)
			}
		})
	}
}

func TestImageUploadRequiresLogin(t *testing.T) {
	fake := &fakeUploader{validator: validation.NewImageValidator([]string{".png"}, 1024)}
	app := newApp(nil)
	app.Post("/api/properties/:id/images", NewImageHandler(fake, nil).Upload)

	resp, _ := app.Test(multipartRequest(t, "/api/properties/"+uuid.NewString()+"/images", "a.png", []byte("\x89PNG")))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

type memOpener map[string][]byte

func (m memOpener) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := m[key]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

func TestImageServe(t *testing.T) {
	app := newApp(nil)
	app.Get("/images/:id", NewImageHandler(nil, memOpener{"abc": []byte("png-bytes")}).Serve)

	resp, _ := app.Test(httptest.NewRequest("GET", "/images/abc", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/images/missing", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

// --- properties ---

type fakeProperties struct {
	props   map[uuid.UUID]*models.Property
	queries []string
}

func (f *fakeProperties) SearchProperties(_ context.Context, query, propertyType string, limit int) ([]models.Property, error) {
	f.queries = append(f.queries, query)
	return nil, nil
}

func (f *fakeProperties) GetPropertyByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	if p, ok := f.props[id]; ok {
		return p, nil
	}
	return nil, db.ErrPropertyNotFound
}

func (f *fakeProperties) CreateProperty(_ context.Context, p *models.Property) error {
	p.ID = uuid.New()
	f.props[p.ID] = p
	return nil
}

func TestPropertySearch(t *testing.T) {
	store := &fakeProperties{props: map[uuid.UUID]*models.Property{}}
	app := newApp(nil)
	app.Get("/api/properties", NewPropertyHandler(store, &fakeReviews{}, NewValidator()).Search)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/properties?q=Austin", nil))
	if got := string(decode(t, resp).Data); got != "[]" {
		t.Errorf("data = %s, want []", got)
	}
	if len(store.queries) != 1 || store.queries[0] != "Austin" {
		t.Errorf("queries = %v", store.queries)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/properties?type=castle", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("unknown type status = %d, want 400", resp.StatusCode)
	}
}

func TestPropertyCreate(t *testing.T) {
	store := &fakeProperties{props: map[uuid.UUID]*models.Property{}}
	user := &models.User{ID: uuid.New(), Role: models.RoleUser}
	app := newApp(user)
	app.Post("/api/properties", NewPropertyHandler(store, &fakeReviews{}, NewValidator()).Create)

	resp, _ := app.Test(jsonRequest("POST", "/api/properties", fiber.Map{
		"address": "12 Elm St", "city": "Austin", "state": "TX", "zip": "78701", "property_type": "House",
	}))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if len(store.props) != 1 {
		t.Fatalf("stored %d properties", len(store.props))
	}
	for _, p := range store.props {
		if p.CreatedBy == nil || *p.CreatedBy != user.ID || p.PropertyType != models.PropertyHouse {
			t.Errorf("property = %+v", p)
		}
	}

	resp, _ = app.Test(jsonRequest("POST", "/api/properties", fiber.Map{"address": "12 Elm St"}))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env := decode(t, resp); !strings.Contains(env.Error, "city") {
		t.Errorf("error = %q, want it to name the field", env.Error)
	}
}

func TestPropertyGetUnknown(t *testing.T) {
	app := newApp(nil)
	app.Get("/api/properties/:id", NewPropertyHandler(&fakeProperties{props: map[uuid.UUID]*models.Property{}}, &fakeReviews{}, NewValidator()).Get)

	for _, path := range []string{"/api/properties/" + uuid.NewString(), "/api/properties/not-a-uuid"} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil))
		if resp.StatusCode != fiber.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
		}
	}
}

// --- health ---

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	app := newApp(nil)
	app.Get("/healthz", NewHealthHandler(pingFunc(func(context.Context) error { return nil })).Check)
	resp, _ := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	down := newApp(nil)
	down.Get("/healthz", NewHealthHandler(pingFunc(func(context.Context) error { return errors.New("down") })).Check)
	resp, _ = down.Test(httptest.NewRequest("GET", "/healthz", nil))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
