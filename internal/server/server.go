package server

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v3"

	"propreviews/internal/config"
)

// Server wraps the Fiber app and configuration.
type Server struct {
	App *fiber.App
	Cfg *config.Config

	redis *redis.Storage
}

// New creates a new server with middleware configured.
func New(cfg *config.Config) *Server {
	engine := html.New("./views", ".html")
	engine.Reload(cfg.IsDev())

	app := fiber.New(fiber.Config{
		Views:        engine,
		ViewsLayout:  "layouts/main",
		BodyLimit:    bodyLimit(cfg.Policy.MaxImageBytes),
		ErrorHandler: errorHandler(cfg),
	})

	s := &Server{App: app, Cfg: cfg}

	// Sessions and the request limiter share Redis when configured so
	// several instances see the same state.
	var store fiber.Storage
	if cfg.RedisURL != "" {
		s.redis = redis.New(redis.Config{URL: cfg.RedisURL})
		store = s.redis
		slog.Info("using redis for sessions and rate limiting")
	}

	app.Use(recover.New())
	app.Use(logger.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "HX-Request", "HX-Current-URL", "HX-Target"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: deriveEncryptionKey(cfg.SessionSecret),
	}))

	sessionMiddleware, _ := session.NewWithStore(session.Config{
		Storage:        store,
		CookieSecure:   cfg.TLSEnabled || !cfg.IsDev(),
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		IdleTimeout:    7 * 24 * time.Hour,
	})
	app.Use(sessionMiddleware)

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RequestRateLimit,
		Expiration: 1 * time.Minute,
		Storage:    store,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": "error",
				"error":  "Rate limit exceeded. Please try again later.",
				"reason": "rate_limited",
			})
		},
	}))

	app.Get("/static/*", static.New("./static"))

	return s
}

// bodyLimit leaves room for one maximum-size image plus multipart framing.
func bodyLimit(maxImageBytes int64) int {
	return int(maxImageBytes) + 1<<20
}

// errorHandler renders JSON for API paths and the error page otherwise.
func errorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			slog.Error("unhandled error", "path", c.Path(), "error", err)
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(fiber.Map{
				"status": "error",
				"error":  message,
			})
		}

		return c.Status(code).Render("error", fiber.Map{
			"Title":       "Error",
			"Code":        code,
			"Message":     message,
			"SiteTitle":   cfg.SiteTitle,
			"SiteTagline": cfg.SiteTagline,
		})
	}
}

// Start starts the server with the configured address and TLS settings.
func (s *Server) Start() error {
	if s.Cfg.TLSEnabled {
		slog.Info("starting server with TLS", "addr", s.Cfg.ServerAddr)
		return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{
			CertFile:    s.Cfg.TLSCertFile,
			CertKeyFile: s.Cfg.TLSKeyFile,
			TLSConfigFunc: func(tc *tls.Config) {
				tc.MinVersion = tls.VersionTLS12
			},
			DisableStartupMessage: !s.Cfg.IsDev(),
		})
	}
	slog.Info("starting server", "addr", s.Cfg.ServerAddr)
	return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{DisableStartupMessage: !s.Cfg.IsDev()})
}

// Shutdown gracefully shuts down the server and releases shared storage.
func (s *Server) Shutdown() error {
	err := s.App.Shutdown()
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// deriveEncryptionKey derives a 32-byte encryption key from the session secret.
func deriveEncryptionKey(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(hash[:])
}
