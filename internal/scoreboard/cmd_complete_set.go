package scoreboard

import (
	"context"
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/scoring"
)

// CompleteSet finalizes a set and advances the match.
// Pattern: Validate → Lock → EvaluateSetCompletion → Apply
//
// Scores and set number default to the live state when omitted. History is always read
// from the locked match, never taken from the caller. The append, the sets-won increment,
// the set advance and the live score reset land in a single store transition.
func (e *Engine) CompleteSet(ctx context.Context, params domain.CompleteSetParams) (*domain.CommandResult, error) {
	for _, score := range []*int{params.HomeScore, params.AwayScore} {
		if score == nil {
			continue
		}
		if err := domain.ValidateScore(*score); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
	}

	b, events, err := e.mutate(ctx, params.MatchID, func(b *domain.MatchBundle) ([]domain.OutboxDraft, error) {
		m := &b.Match
		gs := &b.GameState

		home, away, setNumber := gs.HomeScore, gs.AwayScore, m.CurrentSet
		if params.HomeScore != nil {
			home = *params.HomeScore
		}
		if params.AwayScore != nil {
			away = *params.AwayScore
		}
		if params.SetNumber != nil {
			setNumber = *params.SetNumber
		}

		eval := scoring.EvaluateSetCompletion(m, e.rules, setNumber, home, away)
		if !eval.Allowed {
			return nil, domain.ErrInvalidState(eval.Reason)
		}

		now := e.now()
		m.SetHistory = append(m.SetHistory, eval.Result)
		m.HomeSetsWon = eval.HomeSetsWon
		m.AwaySetsWon = eval.AwaySetsWon
		m.CurrentSet = eval.NextSet
		m.IsComplete = eval.MatchComplete
		m.UpdatedAt = now

		gs.HomeScore = 0
		gs.AwayScore = 0
		gs.CurrentSet = m.CurrentSet
		gs.IsSetComplete = eval.MatchComplete
		gs.Timestamp = now

		out := []domain.OutboxDraft{domain.NewSetCompletedEvent(m, eval.Result, now)}
		if eval.MatchComplete {
			out = append(out, domain.NewMatchCompletedEvent(m, eval.Winner, now))
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete set: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: true, Events: events}, nil
}
