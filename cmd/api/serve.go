package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/cache"
	"github.com/companyhub/companyhub/internal/config"
	"github.com/companyhub/companyhub/internal/metrics"
	"github.com/companyhub/companyhub/internal/middleware"
	"github.com/companyhub/companyhub/internal/notify"
	"github.com/companyhub/companyhub/internal/repository"
	"github.com/companyhub/companyhub/internal/server"
	"github.com/companyhub/companyhub/internal/service"
	"github.com/companyhub/companyhub/internal/tracing"
)

const loginLimiterSweepInterval = time.Minute

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.cfg, opts.logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, logger, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "companyhub",
		Environment: cfg.AppEnv,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return connectionError(logger, "database", cfg.DatabaseURL, err)
	}
	defer repo.Close()
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		return connectionError(logger, "Redis", cfg.RedisURL, err)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()

	// Initialize services
	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}
	verifier, err := auth.NewArgon2Verifier()
	if err != nil {
		return fmt.Errorf("init password verifier: %w", err)
	}

	notifier := notify.NewEmailNotifier(newMailSender(cfg, logger), cfg.MailFrom, logger)
	companyService := service.NewCompanyService(repo, notifier, companyPolicy(cfg), recorder)
	authService := service.NewAuthService(service.NewCredentialResolver(repo, verifier), issuer, recorder)

	var loginLimiter *middleware.LoginLimiter
	if cfg.RateLimitLoginEnabled {
		loginLimiter = middleware.NewLoginLimiter(logger, cfg.RateLimitLoginRPS, cfg.RateLimitLoginBurst)
		go loginLimiter.Run(ctx, loginLimiterSweepInterval)
	}

	// Setup router
	router := server.NewRouter(server.Deps{
		Logger:         logger,
		Companies:      companyService,
		Auth:           authService,
		BaseURL:        cfg.BaseURL,
		Verifier:       issuer,
		Accounts:       repo,
		AccountCache:   cacheClient,
		Database:       repo,
		Cache:          cacheClient,
		Observer:       recorder,
		MetricsHandler: recorder.Handler(),
		RateLimit: middleware.RateLimitConfig{
			Logger:    logger,
			Limiter:   cacheClient,
			Enabled:   cfg.RateLimitAPIEnabled,
			PerMinute: cfg.RateLimitAPIPerMinute,
			Burst:     cfg.RateLimitAPIBurst,
		},
		LoginLimiter:       loginLimiter,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:               middleware.CORSConfig{AllowedOrigins: cfg.GetCORSAllowedOrigins()},
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	// Create and run server
	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("tracing", server.ShutdownFunc(shutdownTracing))

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"company_quota", cfg.CompanyQuota,
		"smtp_enabled", cfg.SMTPHost != "",
	)

	return srv.Run(ctx)
}

// companyPolicy maps configuration onto the company service rules.
func companyPolicy(cfg *config.Config) service.CompanyPolicy {
	return service.CompanyPolicy{
		Quota:               cfg.CompanyQuota,
		QuotaStrict:         cfg.QuotaStrict,
		NotifyTransactional: cfg.NotifyTransactional,
		HideForeignRecords:  cfg.HideForeignRecords,
		DefaultPageSize:     cfg.DefaultPageSize,
		MaxPageSize:         cfg.MaxPageSize,
	}
}

// newMailSender picks SMTP delivery when a relay is configured and falls
// back to logging messages otherwise.
func newMailSender(cfg *config.Config, logger *slog.Logger) notify.Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set: notifications will only be logged")
		return notify.NewLogSender(logger)
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
}
