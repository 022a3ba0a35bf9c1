package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"golang.org/x/oauth2"

	"propreviews/internal/config"
	"propreviews/internal/middleware"
	"propreviews/internal/models"
)

// UserStore persists users signing in through OIDC.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

// AuthHandler handles OIDC authentication flows.
type AuthHandler struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	db           UserStore
	cfg          *config.Config
}

// NewAuthHandler creates a new auth handler with OIDC configuration.
func NewAuthHandler(ctx context.Context, cfg *config.Config, database UserStore) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, err
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &AuthHandler{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
		db:           database,
		cfg:          cfg,
	}, nil
}

// Login initiates the OIDC login flow.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state := generateState()

	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}
	sess.Set("oauth_state", state)

	return c.Redirect().To(h.oauth2Config.AuthCodeURL(state))
}

// Callback handles the OIDC callback after authentication.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}

	savedState, _ := sess.Get("oauth_state").(string)
	if savedState == "" || savedState != c.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete("oauth_state")

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "missing id_token")
	}

	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id_token")
	}

	claims := make(map[string]any)
	if err := idToken.Claims(&claims); err != nil {
		return err
	}

	// Some providers only put minimal claims in the ID token.
	userInfo, err := h.provider.UserInfo(c.Context(), oauth2.StaticTokenSource(oauth2Token))
	if err == nil {
		var extra map[string]any
		if err := userInfo.Claims(&extra); err == nil {
			for k, v := range extra {
				claims[k] = v
			}
		}
	} else {
		slog.Warn("failed to fetch userinfo", "error", err)
	}

	if h.cfg.IsDev() {
		slog.Debug("oidc claims received", "claims", claims)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing subject claim")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	user := &models.User{
		Sub:     sub,
		Email:   email,
		Name:    name,
		Picture: picture,
		Role:    roleFromClaims(claims, h.cfg.OIDCAdminClaim, h.cfg.OIDCAdminValue),
	}
	if err := h.db.UpsertUser(c.Context(), user); err != nil {
		return err
	}
	if user.Suspended {
		sess.Destroy()
		return fiber.NewError(fiber.StatusForbidden, "your account has been suspended")
	}

	sess.Set(middleware.SessionUserSub, sub)
	slog.Info("user signed in", "user_id", user.ID, "role", user.Role)

	redirectURL := "/"
	if saved, ok := sess.Get(middleware.SessionRedirectAfter).(string); ok && safeRedirect(saved) {
		redirectURL = saved
	}
	sess.Delete(middleware.SessionRedirectAfter)

	return c.Redirect().To(redirectURL)
}

// Logout clears the user session.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if sess := session.FromContext(c); sess != nil {
		sess.Destroy()
	}
	return c.Redirect().To("/")
}

// roleFromClaims maps the configured admin claim onto a role. It returns ""
// when no admin claim is configured so the stored role is left alone.
func roleFromClaims(claims map[string]any, claim, value string) string {
	if claim == "" || value == "" {
		return ""
	}
	switch v := claims[claim].(type) {
	case string:
		if v == value {
			return models.RoleAdmin
		}
	case bool:
		if v && value == "true" {
			return models.RoleAdmin
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == value {
				return models.RoleAdmin
			}
		}
	}
	return models.RoleUser
}

// safeRedirect accepts only local absolute paths.
func safeRedirect(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.Contains(target, "\\")
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
