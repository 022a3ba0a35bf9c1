package handlers

import (
	"github.com/gofiber/fiber/v3"

	"propreviews/internal/config"
	"propreviews/internal/middleware"
)

// BrandingData contains site branding information for templates.
type BrandingData struct {
	SiteTitle   string
	SiteTagline string
}

// GetBrandingData returns branding data from config for template rendering.
func GetBrandingData(cfg *config.Config) BrandingData {
	return BrandingData{
		SiteTitle:   cfg.SiteTitle,
		SiteTagline: cfg.SiteTagline,
	}
}

// MergeBranding adds branding data to a fiber.Map for template rendering.
func MergeBranding(data fiber.Map, cfg *config.Config) fiber.Map {
	branding := GetBrandingData(cfg)
	data["SiteTitle"] = branding.SiteTitle
	data["SiteTagline"] = branding.SiteTagline
	return data
}

// pageData builds the common template data for a page: branding plus the
// signed-in user, if any.
func pageData(c fiber.Ctx, cfg *config.Config, title string) fiber.Map {
	user := middleware.CurrentUser(c)
	return MergeBranding(fiber.Map{
		"Title":   title,
		"User":    user,
		"IsAdmin": user.IsAdmin(),
	}, cfg)
}
