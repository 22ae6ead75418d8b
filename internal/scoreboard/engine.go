package scoreboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/repository"
	"github.com/volleyscore/scoreboard/internal/scoring"
)

// Engine executes scoreboard commands against a Store.
// Every command follows the same shape: Validate → Lock (store mutation) → Evaluate → Apply.
// Evaluation is delegated to the pure scoring package; the store guarantees the apply step
// is all-or-nothing.
type Engine struct {
	store repository.Store
	rules scoring.SetRules
	now   func() time.Time
}

// NewEngine creates an engine. A nil clock defaults to time.Now in UTC.
func NewEngine(store repository.Store, rules scoring.SetRules, now func() time.Time) *Engine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{store: store, rules: rules, now: now}
}

// Rules returns the set rules the engine enforces.
func (e *Engine) Rules() scoring.SetRules {
	return e.rules
}

// Current returns the most recently created match bundle.
func (e *Engine) Current(ctx context.Context) (*domain.MatchBundle, error) {
	b, err := e.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current match: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound("match", "current")
	}
	return b, nil
}

// Get returns the bundle for matchID.
func (e *Engine) Get(ctx context.Context, matchID uuid.UUID) (*domain.MatchBundle, error) {
	b, err := e.store.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound("match", matchID.String())
	}
	return b, nil
}

// Settings returns the global display settings.
func (e *Engine) Settings(ctx context.Context) (*domain.Settings, error) {
	s, err := e.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Export returns the bundle for matchID in its portable form.
func (e *Engine) Export(ctx context.Context, matchID uuid.UUID) (*domain.MatchBundle, error) {
	return e.Get(ctx, matchID)
}

func (e *Engine) mutate(ctx context.Context, matchID uuid.UUID, fn repository.MatchMutation) (*domain.MatchBundle, []domain.OutboxDraft, error) {
	var events []domain.OutboxDraft
	b, err := e.store.UpdateMatch(ctx, matchID, func(b *domain.MatchBundle) ([]domain.OutboxDraft, error) {
		evs, err := fn(b)
		events = evs
		return evs, err
	})
	if err != nil {
		return nil, nil, err
	}
	return b, events, nil
}
