package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"propreviews/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserBySub(_ context.Context, sub string) (*models.User, error) {
	u, ok := f[sub]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func newTestApp(users fakeUsers) *fiber.App {
	app := fiber.New()
	app.Use(session.New())

	app.Get("/test-login/:sub", func(c fiber.Ctx) error {
		session.FromContext(c).Set(SessionUserSub, c.Params("sub"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	auth := NewAuthMiddleware(users)
	whoami := func(c fiber.Ctx) error {
		if u := CurrentUser(c); u != nil {
			return c.SendString(u.Name)
		}
		return c.SendString("guest")
	}
	app.Get("/api/me", auth.RequireAuth, whoami)
	app.Get("/account", auth.RequireAuth, whoami)
	app.Get("/maybe", auth.OptionalAuth, whoami)
	app.Get("/api/admin", auth.RequireAuth, RequireAdmin, whoami)
	return app
}

// login returns the session cookie for sub.
func login(t *testing.T, app *fiber.App, sub string) *http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test-login/"+sub, nil))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	for _, c := range resp.Cookies() {
		if c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func get(t *testing.T, app *fiber.App, path string, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func testUsers() fakeUsers {
	return fakeUsers{
		"alice":   {ID: uuid.New(), Sub: "alice", Name: "Alice", Role: models.RoleUser},
		"root":    {ID: uuid.New(), Sub: "root", Name: "Root", Role: models.RoleAdmin},
		"mallory": {ID: uuid.New(), Sub: "mallory", Name: "Mallory", Role: models.RoleUser, Suspended: true},
	}
}

func TestRequireAuth_API(t *testing.T) {
	app := newTestApp(testUsers())

	resp, _ := get(t, app, "/api/me", nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", resp.StatusCode)
	}

	resp, body := get(t, app, "/api/me", login(t, app, "alice"))
	if resp.StatusCode != fiber.StatusOK || body != "Alice" {
		t.Errorf("logged in: status=%d body=%q", resp.StatusCode, body)
	}
}

func TestRequireAuth_PageRedirects(t *testing.T) {
	app := newTestApp(testUsers())

	resp, _ := get(t, app, "/account", nil)
	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		t.Fatalf("status = %d, want redirect", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestRequireAuth_SuspendedUserLoggedOut(t *testing.T) {
	app := newTestApp(testUsers())

	resp, _ := get(t, app, "/api/me", login(t, app, "mallory"))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("suspended user status = %d, want 401", resp.StatusCode)
	}
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	app := newTestApp(testUsers())

	resp, _ := get(t, app, "/api/me", login(t, app, "ghost"))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", resp.StatusCode)
	}
}

func TestOptionalAuth(t *testing.T) {
	app := newTestApp(testUsers())

	if _, body := get(t, app, "/maybe", nil); body != "guest" {
		t.Errorf("anonymous body = %q, want guest", body)
	}
	if _, body := get(t, app, "/maybe", login(t, app, "alice")); body != "Alice" {
		t.Errorf("logged in body = %q, want Alice", body)
	}
	if _, body := get(t, app, "/maybe", login(t, app, "mallory")); body != "guest" {
		t.Errorf("suspended body = %q, want guest", body)
	}
}

func TestRequireAdmin(t *testing.T) {
	app := newTestApp(testUsers())

	resp, _ := get(t, app, "/api/admin", login(t, app, "alice"))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("regular user status = %d, want 403", resp.StatusCode)
	}

	resp, body := get(t, app, "/api/admin", login(t, app, "root"))
	if resp.StatusCode != fiber.StatusOK || body != "Root" {
		t.Errorf("admin: status=%d body=%q", resp.StatusCode, body)
	}
}
