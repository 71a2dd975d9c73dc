package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/teetimes/internal/bookings"
	"github.com/Vovarama1992/teetimes/internal/config"
	"github.com/Vovarama1992/teetimes/internal/courses"
	"github.com/Vovarama1992/teetimes/internal/delivery"
	"github.com/Vovarama1992/teetimes/internal/domain"
	"github.com/Vovarama1992/teetimes/internal/foreup"
	"github.com/Vovarama1992/teetimes/internal/infra"
	"github.com/Vovarama1992/teetimes/internal/notificator"
	"github.com/Vovarama1992/teetimes/internal/payments"
	"github.com/Vovarama1992/teetimes/internal/ratelimit"
	"github.com/Vovarama1992/teetimes/internal/settings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	pendingMaxAge   = 30 * time.Minute
	cleanupInterval = 5 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// CONFIG / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	baseLogger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer baseLogger.Sync()
	sugar := baseLogger.Sugar()
	zl := logger.NewZapLogger(sugar)

	// =========================================================================
	// DB INIT
	// =========================================================================

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	storage, err := infra.NewS3Storage(pingCtx, cfg.S3)
	if err != nil {
		log.Fatalf("failed to init s3: %v", err)
	}

	var counter httprate.LimitCounter
	if cfg.RateLimit.RedisURL != "" {
		rdb, err := ratelimit.Dial(pingCtx, cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		counter = ratelimit.NewRedisCounter(rdb, cfg.RateLimit.Timeout)
	}

	paymentProvider := infra.NewHyperswitchProvider(cfg.Payments, sugar)

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	var notifyInfra notificator.Notificator = notificator.NewLogInfra(sugar)
	if cfg.Telegram.BotToken != "" {
		tg, err := notificator.NewTelegramInfra(cfg.Telegram.BotToken, cfg.Telegram.AdminChatIDs)
		if err != nil {
			log.Fatalf("failed to init telegram: %v", err)
		}
		notifyInfra = tg
	}
	notifier := notificator.NewService(notifyInfra, sugar)

	// =========================================================================
	// REPOSITORIES
	// =========================================================================

	assetRepo := infra.NewAssetRepo(db)
	authRepo := infra.NewAuthRepo(db)
	courseRepo := courses.NewRepo(db)
	bookingRepo := bookings.NewRepo(db)
	settingsRepo := settings.NewRepo(db)

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	uploadService := domain.NewUploadService(storage, assetRepo, notifier, cfg.S3.URLExpiry, sugar)
	authService := domain.NewAuthService(authRepo, cfg.AuthSecret)
	courseService := courses.NewService(courseRepo, assetRepo, sugar)
	bookingService := bookings.NewService(bookingRepo, courseService, paymentProvider, string(payments.ProviderHyperswitch), notifier, sugar)
	settingsCache := settings.NewCache(settingsRepo, cfg.SettingsTTL, sugar)

	limiter := ratelimit.NewLimiter(counter, cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Timeout, sugar)

	var processors []payments.Processor
	if cfg.Webhooks.StripeSecret != "" {
		processors = append(processors, payments.NewStripeProcessor(cfg.Webhooks.StripeSecret))
	}
	if cfg.Webhooks.HyperswitchKey != "" {
		processors = append(processors, payments.NewHyperswitchProcessor(cfg.Webhooks.HyperswitchKey))
	}
	if cfg.Webhooks.FinixSecret != "" {
		processors = append(processors, payments.NewFinixProcessor(cfg.Webhooks.FinixSecret))
	}

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
	}))
	r.Use(ratelimit.Middleware(limiter, zl, cfg.RateLimit.TrustProxy))

	delivery.RegisterRoutes(r, delivery.Handlers{
		Auth:     delivery.NewAuthHandler(authService, zl),
		Uploads:  delivery.NewUploadHandler(uploadService, zl),
		Courses:  delivery.NewCourseHandler(courseService, zl),
		Bookings: delivery.NewBookingHandler(bookingService, zl),
		Settings: delivery.NewSettingsHandler(settingsCache, zl),
		Webhooks: delivery.NewWebhookHandler(
			processors,
			foreup.NewParser(cfg.Webhooks.ForeUpToken),
			bookingService,
			courseService,
			notifier,
			zl,
		),
	}, authService)

	// =========================================================================
	// BACKGROUND JOBS
	// =========================================================================

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := bookingService.ExpirePending(ctx, pendingMaxAge); err != nil {
					sugar.Errorw("[expire-pending] error", "error", err)
				}
			}
		}
	}()

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "listening at " + addr,
			Service: "teetimes",
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
	sugar.Info("server stopped")
}
