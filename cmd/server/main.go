package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/analogous-app/analogous/internal"
	"github.com/analogous-app/analogous/internal/ai"
	"github.com/analogous-app/analogous/internal/ai/gemini"
	aimock "github.com/analogous-app/analogous/internal/ai/mock"
	"github.com/analogous-app/analogous/internal/billing"
	"github.com/analogous-app/analogous/internal/handler"
	"github.com/analogous-app/analogous/internal/imagegen"
	imagemock "github.com/analogous-app/analogous/internal/imagegen/mock"
	"github.com/analogous-app/analogous/internal/imagegen/stability"
	"github.com/analogous-app/analogous/internal/metrics"
	"github.com/analogous-app/analogous/internal/middleware"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/service"
	"github.com/analogous-app/analogous/internal/storage"
	"github.com/analogous-app/analogous/internal/tzdate"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Timezone resolution for local-day bookkeeping
	resolver := tzdate.NewResolver(logger)

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case "r2":
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("r2 storage initialization failed: %w", err)
		}
		logger.Info("Storage initialized", "provider", "r2", "bucket", cfg.R2BucketName)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("local storage initialization failed: %w", err)
		}
		logger.Info("Storage initialized", "provider", "local", "path", cfg.LocalStoragePath)
	}

	// Initialize content generation provider
	var provider ai.Provider
	if cfg.AIProvider == "gemini" {
		provider, err = gemini.New(gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
		if err != nil {
			return fmt.Errorf("gemini provider initialization failed: %w", err)
		}
		logger.Info("Content provider initialized", "provider", "gemini", "model", cfg.GeminiModel)
	} else {
		provider = aimock.New(logger)
		logger.Info("Content provider initialized", "provider", "mock")
	}

	// Initialize image synthesis provider
	var images imagegen.Provider
	if cfg.ImageProvider == "stability" {
		images, err = stability.New(stability.Config{
			APIKey:         cfg.StabilityAPIKey,
			RequestTimeout: cfg.ImageRequestTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("stability provider initialization failed: %w", err)
		}
		logger.Info("Image provider initialized", "provider", "stability")
	} else {
		images = imagemock.New(logger)
		logger.Info("Image provider initialized", "provider", "mock")
	}

	// Initialize billing. A nil billing service leaves the upgrade and
	// webhook endpoints functional but inert, which is how development
	// environments run.
	var billingService billing.Service
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeScholarMonthlyPriceID)
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing not configured; upgrade endpoints will return payment errors")
	}

	// Initialize services
	accountService := service.NewAccountService(repo, logger)
	entitlementService := service.NewEntitlementService(repo, resolver, logger)
	streakService := service.NewStreakService(repo, resolver, logger)
	subscriptionService := service.NewSubscriptionService(repo, billingService, entitlementService, resolver, cfg.BaseURL, logger)
	analogyService := service.NewAnalogyService(repo, entitlementService, streakService, provider, images, store, resolver, logger, cfg.ImagesPerAnalogy)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(accountService, logger)
	requireAccount := middleware.Stack(authMw.WithAccount, authMw.RequireAccount)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(accountService, logger)
	analogyHandler := handler.NewAnalogyHandler(analogyService, entitlementService, logger)
	streakHandler := handler.NewStreakHandler(streakService, logger)
	billingHandler := handler.NewBillingHandler(subscriptionService, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, subscriptionService, logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Locally stored analogy images are served straight off disk in
	// development. In production R2 serves them.
	if cfg.StorageProvider == "local" {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	healthHandler.RegisterRoutes(mux)
	webhookHandler.RegisterRoutes(mux)
	authHandler.RegisterRoutes(mux, authLimiter.LimitSignup, authLimiter.LimitLogin)
	authHandler.RegisterProtectedRoutes(mux, requireAccount)
	analogyHandler.RegisterRoutes(mux, requireAccount)
	streakHandler.RegisterRoutes(mux, requireAccount)
	billingHandler.RegisterRoutes(mux, requireAccount)

	// Outermost first: security headers, request logging, then metrics.
	root := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
