package portal

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AgentPisite999/Car-Site/internal/backend"
	"github.com/AgentPisite999/Car-Site/internal/config"
	"github.com/AgentPisite999/Car-Site/internal/enrollment"
	webhttp "github.com/AgentPisite999/Car-Site/internal/http"
	"github.com/AgentPisite999/Car-Site/internal/http/handlers"
	httpmw "github.com/AgentPisite999/Car-Site/internal/http/middleware"
	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/logging"
	"github.com/AgentPisite999/Car-Site/internal/metrics"
	"github.com/AgentPisite999/Car-Site/internal/payment"
	"github.com/AgentPisite999/Car-Site/internal/screening"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

// Run starts the portal and blocks until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis url parse failed", slog.String("error", err.Error()))
		} else {
			redisClient = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Error("redis ping failed", slog.String("error", err.Error()))
				_ = redisClient.Close()
				redisClient = nil
			}
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("redis close failed", slog.String("error", err.Error()))
			}
		}()
	}

	var sessions session.Store
	var limiter httpmw.Limiter
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
		limiter = httpmw.NewRedisLimiter(redisClient)
	} else {
		logger.Warn("redis unavailable, using in-memory session store")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		limiter = httpmw.NewRateLimiter()
	}

	apiClient := backend.NewClient(cfg.BackendBaseURL, &http.Client{Timeout: cfg.BackendTimeout})
	uploadClient := backend.NewClient(cfg.BackendBaseURL, &http.Client{Timeout: cfg.UploadTimeout})

	cookies := session.NewCookieManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies)
	enrollments := enrollment.NewService(apiClient, logger)
	screenings := screening.NewService(uploadClient, logger)
	payments := payment.NewService(apiClient, logger)

	v, err := views.New()
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	router := webhttp.NewRouter(webhttp.RouterDependencies{
		AuthHandler:      handlers.NewAuthHandler(sessions, cookies, apiClient, v, cfg.GoogleClientID, cfg.NotifyTimeout, logger),
		PageHandler:      handlers.NewPageHandler(sessions, cookies, enrollments, v, logger),
		ScreeningHandler: handlers.NewScreeningHandler(sessions, cookies, screenings, enrollments, v, cfg.MaxResumeBytes, logger),
		PaymentHandler:   handlers.NewPaymentHandler(sessions, cookies, payments, enrollments, v, cfg.RazorpayKeyID, cfg.SuccessRedirect, logger),
		Limiter:          limiter,
		Metrics:          collector,
		RequestTimeout:   cfg.RequestTimeout,
		MaxBodyBytes:     cfg.MaxResumeBytes + 1<<20,
		LoginPerMin:      cfg.LoginPerMin,
		SubmitPerMin:     cfg.SubmitPerMin,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.UploadTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("career portal listening", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("career portal server error", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("career portal shutdown error", slog.String("error", err.Error()))
	}

	return nil
}
