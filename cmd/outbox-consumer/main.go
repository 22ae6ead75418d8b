package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/volleyscore/scoreboard/internal/guard"
	"github.com/volleyscore/scoreboard/internal/infra"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StoreBackend != infra.StoreBackendPostgres {
		return fmt.Errorf("outbox-consumer needs STORE_BACKEND=postgres, got %q", cfg.StoreBackend)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox-consumer connected to postgres")

	rec, _, shutdownMetrics, err := metrics.Setup(ctx, metrics.TelemetryConfig{
		Enabled:      cfg.MetricsEnabled && cfg.OtlpEndpoint != "",
		ServiceName:  "scoreboard-outbox-consumer",
		OtlpEndpoint: cfg.OtlpEndpoint,
		OtlpInsecure: cfg.OtlpInsecure,
	})
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	producer := infra.NewKafkaProducer(cfg.Brokers(), cfg.KafkaEnabled, logger)
	defer producer.Close()

	relay := infra.NewOutboxRelay(
		repository.NewPgStore(pool),
		producer,
		guard.NewCircuitBreaker(5, 30*time.Second),
		rec,
		logger,
		infra.OutboxRelayConfig{
			Interval:    cfg.OutboxPollInterval,
			BatchSize:   cfg.OutboxBatchSize,
			TopicPrefix: cfg.KafkaTopicPrefix,
		},
	)

	logger.Info("outbox-consumer starting",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"kafka_enabled", producer.Enabled(),
	)
	relay.Run(ctx)

	logger.Info("outbox-consumer shutting down")
	return nil
}
