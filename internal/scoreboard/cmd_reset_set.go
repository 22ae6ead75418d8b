package scoreboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// ResetCurrentSet zeroes both live scores. History and the current set are untouched.
// Repeating the call is safe.
func (e *Engine) ResetCurrentSet(ctx context.Context, matchID uuid.UUID) (*domain.CommandResult, error) {
	b, events, err := e.mutate(ctx, matchID, func(b *domain.MatchBundle) ([]domain.OutboxDraft, error) {
		gs := &b.GameState
		gs.HomeScore = 0
		gs.AwayScore = 0
		gs.Timestamp = e.now()
		return []domain.OutboxDraft{domain.NewSetResetEvent(gs)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reset set: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: true, Events: events}, nil
}
