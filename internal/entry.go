// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mwestall/shopfront/internal/admin"
	"github.com/mwestall/shopfront/internal/api"
	"github.com/mwestall/shopfront/internal/mcpserver"
	"github.com/mwestall/shopfront/internal/recordstore"
	"github.com/mwestall/shopfront/internal/siteservice"
	"github.com/mwestall/shopfront/internal/sse"
	"github.com/mwestall/shopfront/internal/storage"
	"github.com/mwestall/shopfront/internal/uploads"
	"github.com/mwestall/shopfront/internal/watcher"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Site.DataDir),
		slog.String("gallery_dir", cfg.Site.GalleryDir),
		slog.String("hero_dir", cfg.Site.HeroDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if cfg.Admin.Password == "" {
		logger.Warn("Admin password is empty, all mutation requests will be rejected")
	}

	// Ensure data and upload directories exist.
	for _, dir := range []string{cfg.Site.DataDir, cfg.Site.GalleryDir, cfg.Site.HeroDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	dataDir, err := storage.NewDir(cfg.Site.DataDir)
	if err != nil {
		return fmt.Errorf("init data dir: %w", err)
	}
	galleryDir, err := storage.NewDir(cfg.Site.GalleryDir)
	if err != nil {
		return fmt.Errorf("init gallery dir: %w", err)
	}
	heroDir, err := storage.NewDir(cfg.Site.HeroDir)
	if err != nil {
		return fmt.Errorf("init hero dir: %w", err)
	}

	// Record store seeds missing records with defaults on first run.
	records, err := recordstore.New(dataDir)
	if err != nil {
		return fmt.Errorf("init record store: %w", err)
	}

	uploadMgr := uploads.NewManager(galleryDir, heroDir)
	gate := admin.NewGate(cfg.Admin.Password)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := siteservice.NewService(records, uploadMgr, gate, func(kind string) {
		broker.PublishRecordChange(kind)
	})

	// MCP mode: serve tools over stdio instead of HTTP.
	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	start := time.Now()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(cfg.App.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.App.CORS.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
			MaxAge:         300,
		}))
	}

	r.Use(api.Metrics())

	r.Get("/health", api.Health(start))
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, cfg.App.RateLimit.RequestsPerMinute))

	// SSE endpoint.
	r.Get("/api/events", broker.ServeHTTP)

	// Uploaded binaries.
	files := api.NewFileHandler(galleryDir, heroDir)
	r.Get("/uploads/gallery/{filename}", files.ServeGallery)
	r.Get("/uploads/hero/{filename}", files.ServeHero)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data directory for out-of-band record edits.
	g.Go(func() error {
		return watcher.Watch(gCtx, cfg.Site.DataDir, logger, func(kind string) {
			broker.PublishRecordChange(kind)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
