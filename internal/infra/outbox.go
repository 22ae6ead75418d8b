package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/guard"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/repository"
)

// publishCircuit is the circuit breaker key for the message broker.
const publishCircuit = "kafka"

// Publisher sends relayed outbox events to the broker.
type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxRelayConfig tunes the relay loop.
type OutboxRelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	TopicPrefix string
}

// OutboxRelay polls the outbox and publishes events to Kafka, deleting them once
// the broker has acknowledged them. Events are published in outbox order; a failed
// batch is retried whole on the next tick.
type OutboxRelay struct {
	source    repository.OutboxSource
	publisher Publisher
	breaker   *guard.CircuitBreaker
	metrics   *metrics.Recorder
	logger    *slog.Logger
	cfg       OutboxRelayConfig
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(
	source repository.OutboxSource,
	publisher Publisher,
	breaker *guard.CircuitBreaker,
	rec *metrics.Recorder,
	logger *slog.Logger,
	cfg OutboxRelayConfig,
) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "scoreboard"
	}
	if breaker == nil {
		breaker = guard.NewCircuitBreaker(5, 30*time.Second)
	}
	return &OutboxRelay{
		source:    source,
		publisher: publisher,
		breaker:   breaker,
		metrics:   rec,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (r *OutboxRelay) Start(ctx context.Context) {
	go r.Run(ctx)
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox relay error", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were relayed.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.relay(ctx)
	r.metrics.RecordRelayCycle(n, time.Since(start), err)
	return n, err
}

func (r *OutboxRelay) relay(ctx context.Context) (int, error) {
	records, err := r.source.FetchUnpublished(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		msg, err := r.message(rec)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, msg)
		ids = append(ids, rec.SeqID)
	}

	if res := r.breaker.Check(ctx, publishCircuit); !res.Allowed {
		r.logger.Debug("outbox relay skipped", "reason", res.Reason)
		return 0, nil
	}
	if err := r.publisher.Publish(ctx, msgs...); err != nil {
		r.breaker.RecordFailure(publishCircuit)
		return 0, fmt.Errorf("publish outbox batch: %w", err)
	}
	r.breaker.RecordSuccess(publishCircuit)

	if err := r.source.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}

	for _, rec := range records {
		r.logger.Debug("outbox event relayed",
			"seq_id", rec.SeqID,
			"event_id", rec.EventID,
			"aggregate_type", rec.AggregateType,
			"aggregate_id", rec.AggregateID,
			"event_type", rec.EventType,
		)
	}
	r.logger.Info("relayed outbox batch", "count", len(records))
	return len(records), nil
}

// Topic returns the topic an event is published to: prefix.aggregate.eventType.
func (r *OutboxRelay) Topic(aggregate domain.AggregateType, eventType domain.EventType) string {
	return r.cfg.TopicPrefix + "." + string(aggregate) + "." + string(eventType)
}

type envelope struct {
	EventID       uuid.UUID            `json:"eventId"`
	AggregateType domain.AggregateType `json:"aggregateType"`
	AggregateID   string               `json:"aggregateId"`
	EventType     domain.EventType     `json:"eventType"`
	Payload       json.RawMessage      `json:"payload"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

func (r *OutboxRelay) message(rec domain.OutboxRecord) (kafka.Message, error) {
	value, err := json.Marshal(envelope{
		EventID:       rec.EventID,
		AggregateType: rec.AggregateType,
		AggregateID:   rec.AggregateID,
		EventType:     rec.EventType,
		Payload:       rec.Payload,
		OccurredAt:    rec.OccurredAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", rec.EventID, err)
	}

	key := rec.PartitionKey
	if key == "" {
		key = rec.AggregateID
	}

	headers := []kafka.Header{
		{Key: "eventId", Value: []byte(rec.EventID.String())},
		{Key: "eventType", Value: []byte(rec.EventType)},
	}
	if len(rec.Headers) > 0 {
		var extra map[string]string
		if err := json.Unmarshal(rec.Headers, &extra); err == nil {
			for k, v := range extra {
				headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
			}
		}
	}

	return kafka.Message{
		Topic:   r.Topic(rec.AggregateType, rec.EventType),
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
		Time:    rec.OccurredAt,
	}, nil
}
