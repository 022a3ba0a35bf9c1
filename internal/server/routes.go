package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"propreviews/internal/db"
	"propreviews/internal/handlers"
	"propreviews/internal/handlers/api"
	"propreviews/internal/images"
	"propreviews/internal/middleware"
	"propreviews/internal/moderation"
	"propreviews/internal/reviews"
	"propreviews/internal/storage"
)

// Services are the domain services the routes delegate to.
type Services struct {
	Reviews    *reviews.Service
	Moderation *moderation.Service
	Images     *images.Service

	// Opener serves stored images from /images/:id. Nil when the blob store
	// hands out its own URLs.
	Opener storage.Opener
	// LocalUploads is the directory served at the upload URL prefix when
	// images live on local disk.
	LocalUploads string
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, database *db.DB, svc Services) error {
	if s.Cfg.OIDCIssuer == "" {
		return errors.New("OIDC_ISSUER is required")
	}

	authMiddleware := middleware.NewAuthMiddleware(database)

	authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database)
	if err != nil {
		return err
	}
	propertyPages := handlers.NewPropertyHandler(database, svc.Reviews, s.Cfg)
	profilePages := handlers.NewProfileHandler(database, s.Cfg)
	moderationPages := handlers.NewModerationHandler(svc.Moderation, s.Cfg)
	userPages := handlers.NewUserHandler(database, svc.Moderation, s.Cfg)

	propertyAPI := api.NewPropertyHandler(database, svc.Reviews, api.NewValidator())
	reviewAPI := api.NewReviewHandler(svc.Reviews)
	imageAPI := api.NewImageHandler(svc.Images, svc.Opener)
	moderationAPI := api.NewModerationHandler(svc.Moderation)
	healthAPI := api.NewHealthHandler(database)

	// Operational endpoints
	s.App.Get("/healthz", healthAPI.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth
	s.App.Get("/login", authMiddleware.OptionalAuth, propertyPages.Login)
	s.App.Get("/auth/login", authHandler.Login)
	s.App.Get("/auth/callback", authHandler.Callback)
	s.App.Get("/auth/logout", authHandler.Logout)

	// Stored images
	if svc.LocalUploads != "" {
		s.App.Get(s.Cfg.UploadURLPrefix+"/*", static.New(svc.LocalUploads))
	}
	if svc.Opener != nil {
		s.App.Get("/images/:id", imageAPI.Serve)
	}

	// Public pages
	s.App.Get("/", authMiddleware.OptionalAuth, propertyPages.Index)
	s.App.Get("/search", authMiddleware.OptionalAuth, propertyPages.Search)
	s.App.Get("/properties/:id", authMiddleware.OptionalAuth, propertyPages.Show)
	s.App.Get("/profile", authMiddleware.RequireAuth, profilePages.Show)

	// Admin pages
	s.App.Get("/moderation", authMiddleware.RequireAuth, middleware.RequireAdmin, moderationPages.Index)
	s.App.Post("/moderation/reviews/:action", authMiddleware.RequireAuth, middleware.RequireAdmin, moderationPages.Decide)
	s.App.Post("/moderation/reviews/:id/:action", authMiddleware.RequireAuth, middleware.RequireAdmin, moderationPages.Decide)
	s.App.Post("/moderation/flagged/:id/unflag", authMiddleware.RequireAuth, middleware.RequireAdmin, moderationPages.Unflag)
	s.App.Post("/moderation/reports/:id/:action", authMiddleware.RequireAuth, middleware.RequireAdmin, moderationPages.ResolveReport)
	s.App.Get("/admin/users", authMiddleware.RequireAuth, middleware.RequireAdmin, userPages.ListUsers)
	s.App.Post("/admin/users/:id/suspension", authMiddleware.RequireAuth, middleware.RequireAdmin, userPages.UpdateSuspension)

	// JSON API
	v1 := s.App.Group("/api")
	v1.Get("/properties", propertyAPI.Search)
	v1.Post("/properties", authMiddleware.RequireAuth, propertyAPI.Create)
	v1.Get("/properties/:id", propertyAPI.Get)
	v1.Get("/properties/:id/reviews", reviewAPI.List)
	v1.Post("/properties/:id/reviews", authMiddleware.OptionalAuth, reviewAPI.Submit)
	v1.Post("/properties/:id/images", authMiddleware.RequireAuth, imageAPI.Upload)
	v1.Post("/reviews/:id/report", authMiddleware.RequireAuth, moderationAPI.Report)

	mod := v1.Group("/moderation", authMiddleware.RequireAuth, middleware.RequireAdmin)
	mod.Get("/pending", moderationAPI.ListPending)
	mod.Get("/flagged", moderationAPI.ListFlagged)
	mod.Post("/reviews", moderationAPI.Apply)
	mod.Post("/reviews/:id/unflag", moderationAPI.Unflag)
	mod.Get("/reviews/:id/reports", moderationAPI.ListReports)
	mod.Post("/reports/:id/resolve", moderationAPI.ResolveReport)
	mod.Post("/reports/:id/reopen", moderationAPI.ReopenReport)
	mod.Post("/users/:id/suspend", moderationAPI.Suspend)
	mod.Post("/users/:id/reinstate", moderationAPI.Reinstate)

	slog.Info("routes registered")
	return nil
}
