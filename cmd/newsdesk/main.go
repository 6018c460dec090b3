// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the newsdesk API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/assets"
	"newsdesk/internal/auth"
	"newsdesk/internal/cache"
	"newsdesk/internal/config"
	"newsdesk/internal/content"
	"newsdesk/internal/csrf"
	"newsdesk/internal/database"
	"newsdesk/internal/handlers"
	"newsdesk/internal/metrics"
	"newsdesk/internal/middleware"
	"newsdesk/internal/preview"
	"newsdesk/internal/router"
	"newsdesk/internal/session"
	"newsdesk/internal/storage"
	"newsdesk/internal/store"
)

func main() {
	// Load configuration from environment variables (and .env, if present).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
		"asset_backend", cfg.AssetBackend,
	)

	ctx := context.Background()

	// Connect to the relational store.
	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		slog.Error("unsupported database driver", "error", err)
		os.Exit(1)
	}
	db, err := database.Connect(dialect, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db, dialect); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(ctx, db, dialect); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for sessions.
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessions := session.NewStore(valkeyClient, cfg.SessionTTL)
	cookies := session.Cookies{Secure: !cfg.IsDev(), TTL: cfg.SessionTTL}

	// Asset storage: local disk served by this process, or S3.
	var (
		backend       assets.Backend
		uploads       http.Handler
		uploadsPrefix string
	)
	switch cfg.AssetBackend {
	case "s3":
		client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		backend = client
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		local, err := storage.NewLocal(cfg.AssetDir, cfg.AssetURLPrefix)
		if err != nil {
			slog.Error("failed to initialize local storage", "error", err)
			os.Exit(1)
		}
		backend = local
		uploads = http.FileServer(http.Dir(local.Dir()))
		uploadsPrefix = cfg.AssetURLPrefix
		slog.Info("local storage configured", "dir", local.Dir(), "prefix", cfg.AssetURLPrefix)
	}
	media := assets.NewManager(backend, cfg.AssetMaxBytes, cfg.AssetDefaults)

	// Repositories.
	userStore := store.NewUserStore(db, dialect)
	contentStore := store.NewContentStore(db, dialect)
	categoryStore := store.NewCategoryStore(db, dialect)
	subcategoryStore := store.NewSubcategoryStore(db, dialect)
	tagStore := store.NewTagStore(db, dialect)
	commentStore := store.NewCommentStore(db, dialect)
	subscriberStore := store.NewSubscriberStore(db, dialect)

	// Services.
	manager := auth.NewManager(userStore, sessions, media)
	guard := csrf.New(sessions)
	previews := preview.NewSigner(cfg.PreviewSecret, cfg.PreviewTTL)
	contentSvc := content.NewService(contentStore, categoryStore, tagStore, media)
	taxonomySvc := content.NewTaxonomyService(categoryStore, subcategoryStore, tagStore)
	commentSvc := content.NewCommentService(commentStore, contentStore)
	subscriberSvc := content.NewSubscriberService(subscriberStore)
	m := metrics.New()

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute, cfg.TrustProxy)
	defer loginLimiter.Stop()

	// Multipart parts above this size spill to temporary files.
	const maxMemory = 8 << 20

	r := router.New(router.Deps{
		Sessions:      sessions,
		Cookies:       cookies,
		Authorizer:    manager,
		CSRF:          guard,
		Metrics:       m,
		LoginLimiter:  loginLimiter,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		HSTS:          cfg.IsProduction(),
		Uploads:       uploads,
		UploadsPrefix: uploadsPrefix,
		Ping: func(ctx context.Context) error {
			return errors.Join(db.PingContext(ctx), valkeyClient.Ping(ctx).Err())
		},

		Auth:      handlers.NewAuth(manager, guard, cookies, m),
		Admin:     handlers.NewAdmin(contentSvc, previews, maxMemory),
		Taxonomy:  handlers.NewTaxonomy(taxonomySvc),
		Community: handlers.NewCommunity(commentSvc, subscriberSvc),
		Media:     handlers.NewMedia(media, m, contentStore, userStore),
		Users:     handlers.NewUsers(manager, maxMemory),
		Public:    handlers.NewPublic(contentSvc, taxonomySvc, commentSvc, previews, m),
	})

	// Create the HTTP server with sensible timeouts. Uploads need a longer
	// read window than plain JSON requests.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
