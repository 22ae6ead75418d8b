package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/guard"
	"github.com/volleyscore/scoreboard/internal/metrics"
	"github.com/volleyscore/scoreboard/internal/repository"
	"github.com/volleyscore/scoreboard/internal/scoreboard"
	"github.com/volleyscore/scoreboard/internal/scoring"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// seedEvents creates a match and scores one point, leaving two events in the outbox.
func seedEvents(t *testing.T, store *repository.MemoryStore) *domain.MatchBundle {
	t.Helper()
	ctx := context.Background()
	engine := scoreboard.NewEngine(store, scoring.DefaultSetRules(), nil)
	res, err := engine.CreateMatch(ctx, domain.CreateMatchParams{Format: 5})
	require.NoError(t, err)
	_, err = engine.AdjustScore(ctx, domain.AdjustScoreParams{MatchID: res.Bundle.Match.ID, Side: domain.SideHome, Delta: 1})
	require.NoError(t, err)
	return res.Bundle
}

func TestOutboxRelay_PublishesInOrder(t *testing.T) {
	store := repository.NewMemoryStore()
	b := seedEvents(t, store)
	pub := &fakePublisher{}
	rec := metrics.NewRecorder()
	relay := NewOutboxRelay(store, pub, nil, rec, discardLogger(), OutboxRelayConfig{TopicPrefix: "volley"})

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, rec.Relayed())

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "volley.match.match.created", pub.msgs[0].Topic)
	assert.Equal(t, "volley.match.score.adjusted", pub.msgs[1].Topic)
	assert.Equal(t, b.Match.ID.String(), string(pub.msgs[1].Key))

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.msgs[1].Value, &env))
	assert.Equal(t, "score.adjusted", env["eventType"])
	assert.Equal(t, b.Match.ID.String(), env["aggregateId"])

	// Outbox is drained.
	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxRelay_FailureKeepsEvents(t *testing.T) {
	store := repository.NewMemoryStore()
	seedEvents(t, store)
	pub := &fakePublisher{err: errors.New("broker down")}
	relay := NewOutboxRelay(store, pub, nil, nil, discardLogger(), OutboxRelayConfig{})

	_, err := relay.RelayOnce(context.Background())
	require.Error(t, err)

	pending, err := store.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	pub.err = nil
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOutboxRelay_CircuitOpensAfterFailures(t *testing.T) {
	store := repository.NewMemoryStore()
	seedEvents(t, store)
	pub := &fakePublisher{err: errors.New("broker down")}
	breaker := guard.NewCircuitBreaker(2, time.Hour)
	relay := NewOutboxRelay(store, pub, breaker, nil, discardLogger(), OutboxRelayConfig{})

	for i := 0; i < 2; i++ {
		_, err := relay.RelayOnce(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, guard.CircuitOpen, breaker.State(publishCircuit))

	// While open the relay skips publishing without error.
	pub.err = nil
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.msgs)
}

func TestOutboxRelay_RunStopsOnCancel(t *testing.T) {
	store := repository.NewMemoryStore()
	seedEvents(t, store)
	pub := &fakePublisher{}
	relay := NewOutboxRelay(store, pub, nil, nil, discardLogger(), OutboxRelayConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.msgs) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestKafkaProducer_Disabled(t *testing.T) {
	p := NewKafkaProducer(nil, true, discardLogger())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), kafka.Message{Topic: "t"}))
	assert.NoError(t, p.Close())
}
