package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"propreviews/internal/config"
	"propreviews/internal/db"
	"propreviews/internal/email"
	"propreviews/internal/images"
	"propreviews/internal/jobs"
	"propreviews/internal/metrics"
	"propreviews/internal/moderation"
	"propreviews/internal/reviews"
	"propreviews/internal/server"
	"propreviews/internal/storage"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	yamlCfg.Apply(&cfg.Policy)

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("migrations completed")

	if cfg.IsDev() {
		if err := database.SeedDevProperties(ctx); err != nil {
			slog.Warn("failed to seed development properties", "error", err)
		}
	}

	blobs, svcOpts, closeBlobs, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlobs()

	metrics.Init(database)

	notifier := email.NewNotifier(cfg, database)
	if cfg.IsEmailEnabled() {
		slog.Info("email notifications enabled", "host", cfg.SMTPHost)
	}

	reviewService, err := reviews.NewService(database, cfg.Policy, notifier)
	if err != nil {
		return fmt.Errorf("failed to build review service: %w", err)
	}
	svcOpts.Reviews = reviewService
	svcOpts.Moderation = moderation.NewService(database, notifier)
	svcOpts.Images = images.NewService(database, blobs, cfg.Policy)

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, database, svcOpts); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	if cfg.DigestInterval > 0 {
		digest := jobs.NewPendingDigest(database, notifier, cfg.DigestInterval, cfg.DigestStaleAfter)
		go digest.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exited")
	return nil
}

// openImageStore builds the configured blob store. The returned Services
// carry whatever the routes need to serve stored images.
func openImageStore(ctx context.Context, cfg *config.Config) (storage.Store, server.Services, func(), error) {
	var svc server.Services
	noop := func() {}

	switch cfg.ImageStorage {
	case storage.BackendLocal, "":
		store, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
		if err != nil {
			return nil, svc, noop, fmt.Errorf("failed to open upload directory: %w", err)
		}
		svc.LocalUploads = store.Root()
		slog.Info("storing images on disk", "dir", store.Root())
		return store, svc, noop, nil

	case storage.BackendGridFS:
		store, err := storage.NewGridFSStore(ctx, cfg.MongoURI, cfg.MongoDatabase, "/images")
		if err != nil {
			return nil, svc, noop, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		svc.Opener = store
		slog.Info("storing images in gridfs", "database", cfg.MongoDatabase)
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				slog.Warn("failed to disconnect from mongodb", "error", err)
			}
		}
		return store, svc, closeFn, nil

	case storage.BackendCloudinary:
		store, err := storage.NewCloudinaryStore(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			return nil, svc, noop, err
		}
		slog.Info("storing images in cloudinary", "cloud", cfg.CloudinaryCloudName)
		return store, svc, noop, nil
	}

	return nil, svc, noop, fmt.Errorf("unknown IMAGE_STORAGE %q", cfg.ImageStorage)
}
