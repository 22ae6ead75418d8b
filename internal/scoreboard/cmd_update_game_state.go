package scoreboard

import (
	"context"
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
)

// UpdateGameState replaces live scores and merges display flags.
func (e *Engine) UpdateGameState(ctx context.Context, params domain.UpdateGameStateParams) (*domain.CommandResult, error) {
	for _, score := range []*int{params.HomeScore, params.AwayScore} {
		if score == nil {
			continue
		}
		if err := domain.ValidateScore(*score); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
	}

	b, events, err := e.mutate(ctx, params.MatchID, func(b *domain.MatchBundle) ([]domain.OutboxDraft, error) {
		gs := &b.GameState
		if params.HomeScore != nil {
			gs.HomeScore = *params.HomeScore
		}
		if params.AwayScore != nil {
			gs.AwayScore = *params.AwayScore
		}
		if params.DisplayOptions != nil {
			gs.DisplayOptions = params.DisplayOptions.Apply(gs.DisplayOptions)
		}
		gs.Timestamp = e.now()
		return []domain.OutboxDraft{domain.NewGameStateUpdatedEvent(gs)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update game state: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: true, Events: events}, nil
}
