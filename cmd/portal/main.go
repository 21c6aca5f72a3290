package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"portalunk/internal/auth"
	"portalunk/internal/backend"
	"portalunk/internal/cache"
	"portalunk/internal/cli"
	"portalunk/internal/core"
	"portalunk/internal/dashboard"
	apphttp "portalunk/internal/http"
	applog "portalunk/internal/log"
	"portalunk/internal/middleware/ratelimit"
	"portalunk/internal/services"
)

const (
	dashboardCacheSize = 64
	cacheCleanupEvery  = 5 * time.Minute
	shutdownTimeout    = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	defer logger.Close()

	ctx := applog.NewContext(context.Background(), logger)
	res := cli.InitBackend(ctx, logger, cfg)

	publisher, closePublisher := backend.NewPublisher(ctx, cfg)

	blobs, err := backend.NewBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize blob store", "error", err, "blob_backend", cfg.BlobBackend)
		os.Exit(1)
	}

	summaries := cache.NewLRUCache[core.DashboardSummary](dashboardCacheSize, cfg.DashboardCacheTTL)
	caches := cache.NewManager()
	caches.Register(summaries)
	caches.StartCleanup(cacheCleanupEvery)

	dash := services.NewDashboardService(res.Stores, summaries, dashboard.Options{
		UpcomingDays:  cfg.UpcomingWindowDays,
		RevenueMonths: cfg.RevenueMonths,
		TopGenres:     5,
	}, cfg.Location())

	var sessions *auth.Manager
	if cfg.AdminEmail != "" {
		sessions = auth.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.AdminEmail, cfg.AdminPasswordHash, cfg.SecureCookie)
	} else {
		logger.Warn("ADMIN_EMAIL not set, the API is served without authentication")
	}

	deps := apphttp.Deps{
		Events:         services.NewEventService(res.Stores.Events, blobs, cfg.BlobBucket, publisher, dash),
		Payments:       services.NewPaymentService(res.Stores.Payments, res.Stores.Events, publisher, dash),
		DJs:            services.NewDJService(res.Stores.DJs, publisher, dash),
		Dashboard:      dash,
		Auth:           sessions,
		Ready:          res.Ready,
		Logger:         logger,
		Location:       cfg.Location(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:      ratelimit.DefaultConfig(),
	}
	if cfg.BlobBackend == "local" {
		deps.FilesDir = cfg.BlobDir
		deps.FilesPrefix = cfg.BlobBaseURL
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := closePublisher(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close data backend", "error", err)
		}
	})

	logger.Info("Starting portal server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"blob_backend", cfg.BlobBackend,
		"auth", sessions != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
