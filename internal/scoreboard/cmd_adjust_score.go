package scoreboard

import (
	"context"
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/scoring"
)

// AdjustScore adds delta (+1 or -1) to one side's live score.
// Pattern: Validate → Lock → EvaluateScoreDelta → Apply
//
// A decrement at zero is a no-op reported with Applied=false, or an InvalidState error
// when params.Strict is set.
func (e *Engine) AdjustScore(ctx context.Context, params domain.AdjustScoreParams) (*domain.CommandResult, error) {
	if err := domain.ValidateSide(params.Side); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateDelta(params.Delta); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	applied := false
	b, events, err := e.mutate(ctx, params.MatchID, func(b *domain.MatchBundle) ([]domain.OutboxDraft, error) {
		if b.Match.IsComplete {
			return nil, domain.ErrInvalidState("match is complete, scores are frozen")
		}

		gs := &b.GameState
		eval := scoring.EvaluateScoreDelta(gs.HomeScore, gs.AwayScore, params.Side, params.Delta)
		if !eval.Applied {
			if params.Strict {
				return nil, domain.ErrInvalidState(fmt.Sprintf("%s score is already 0", params.Side))
			}
			return nil, nil
		}

		gs.HomeScore = eval.HomeScore
		gs.AwayScore = eval.AwayScore
		gs.Timestamp = e.now()
		applied = true
		return []domain.OutboxDraft{domain.NewScoreAdjustedEvent(gs, params.Side, params.Delta)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("adjust score: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: applied, Events: events}, nil
}
