package main

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

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/app"
	"github.com/volleyscore/scoreboard/internal/auth"
	"github.com/volleyscore/scoreboard/internal/guard"
	"github.com/volleyscore/scoreboard/internal/infra"
	"github.com/volleyscore/scoreboard/internal/media"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/repository"
	"github.com/volleyscore/scoreboard/internal/scoring"
	"github.com/volleyscore/scoreboard/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Telemetry
	rec, metricsHandler, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:      cfg.MetricsEnabled,
		ServiceName:  cfg.OtelServiceName,
		OtlpEndpoint: cfg.OtlpEndpoint,
		OtlpInsecure: cfg.OtlpInsecure,
	})
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logger.Error("metrics shutdown failed", "error", err)
		}
	}()

	// State store
	var store repository.Store
	var memStore *repository.MemoryStore
	switch cfg.StoreBackend {
	case infra.StoreBackendMemory:
		memStore = repository.NewMemoryStore()
		store = memStore
		logger.Warn("using in-memory store; state is lost on restart")
	default:
		if cfg.MigrateOnStart {
			if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		store = repository.NewPgStore(pool)
		logger.Info("connected to postgres")
	}

	// Operator credentials
	passwordHash, err := operatorPasswordHash(cfg, logger)
	if err != nil {
		return err
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTOperatorExpiry)

	// Uploaded images
	logos, err := media.NewLogoStore(cfg.UploadDir, cfg.MaxLogoBytes)
	if err != nil {
		return fmt.Errorf("open upload dir: %w", err)
	}

	rules := scoring.DefaultSetRules()
	rules.Enforce = cfg.EnforceSetRules

	r := app.NewRouter(app.RouterDeps{
		Store:          store,
		Logos:          logos,
		JWTMgr:         jwtMgr,
		Logger:         logger,
		AuthEnabled:    cfg.AuthEnabled,
		PasswordHash:   passwordHash,
		Rules:          rules,
		PollInterval:   cfg.PollInterval,
		RateLimit:      cfg.MutationRateLimit,
		RateWindow:     cfg.MutationRateWindow,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Metrics:        rec,
		MetricsHandler: metricsHandler,
	})

	// The memory store has no separate relay process, so drain its outbox in-process.
	if memStore != nil {
		producer := infra.NewKafkaProducer(cfg.Brokers(), cfg.KafkaEnabled, logger)
		defer producer.Close()
		relay := infra.NewOutboxRelay(memStore, producer, guard.NewCircuitBreaker(5, 30*time.Second), rec, logger, infra.OutboxRelayConfig{
			Interval:    cfg.OutboxPollInterval,
			BatchSize:   cfg.OutboxBatchSize,
			TopicPrefix: cfg.KafkaTopicPrefix,
		})
		relay.Start(ctx)
	}

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "store", cfg.StoreBackend, "auth", cfg.AuthEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// operatorPasswordHash prefers a configured bcrypt hash and otherwise hashes the plain
// password. Without either (insecure dev mode only) a one-off password is generated and logged.
func operatorPasswordHash(cfg *infra.Config, logger *slog.Logger) ([]byte, error) {
	if cfg.OperatorPasswordHash != "" {
		return []byte(cfg.OperatorPasswordHash), nil
	}
	password := cfg.OperatorPassword
	if password == "" {
		password = uuid.NewString()
		logger.Warn("no operator password configured; generated a temporary one", "password", password)
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash operator password: %w", err)
	}
	return hash, nil
}
