package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"propreviews/internal/models"
)

// Session keys shared with the auth handler.
const (
	SessionUserSub       = "user_sub"
	SessionRedirectAfter = "redirect_after_login"
)

// UserLookup resolves the logged-in subject to a user.
type UserLookup interface {
	GetUserBySub(ctx context.Context, sub string) (*models.User, error)
}

// AuthMiddleware handles user authentication via sessions.
type AuthMiddleware struct {
	db UserLookup
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(db UserLookup) *AuthMiddleware {
	return &AuthMiddleware{db: db}
}

// CurrentUser returns the user loaded by the middleware, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

func isAPI(c fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// loadUser resolves the session's user. Suspended users and users that no
// longer exist have their session destroyed.
func (m *AuthMiddleware) loadUser(c fiber.Ctx) *models.User {
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}

	sub, ok := sess.Get(SessionUserSub).(string)
	if !ok || sub == "" {
		return nil
	}

	user, err := m.db.GetUserBySub(c.Context(), sub)
	if err != nil || user.Suspended {
		sess.Destroy()
		return nil
	}
	return user
}

// RequireAuth ensures the user is authenticated. API requests get a JSON 401;
// page requests are redirected to /login and come back afterwards.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	user := m.loadUser(c)
	if user == nil {
		if isAPI(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  "authentication required",
				"reason": "unauthenticated",
			})
		}
		if sess := session.FromContext(c); sess != nil && c.Method() == fiber.MethodGet {
			sess.Set(SessionRedirectAfter, c.OriginalURL())
		}
		return c.Redirect().To("/login")
	}

	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if user := m.loadUser(c); user != nil {
		c.Locals("user", user)
	}
	return c.Next()
}

// RequireAdmin rejects users without the admin role. It must run after
// RequireAuth.
func RequireAdmin(c fiber.Ctx) error {
	if !CurrentUser(c).IsAdmin() {
		if isAPI(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error":  "you are not allowed to do that",
				"reason": "unauthorized",
			})
		}
		return fiber.NewError(fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}
