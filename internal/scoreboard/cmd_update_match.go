package scoreboard

import (
	"context"
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/scoring"
)

// UpdateMatch changes the format and/or overrides the sets-won counters.
//
// Sets-won values are clamped to [0, min(5, SetsToWin(format))]. A direct override can make
// the counters disagree with the set history; Audit reports that divergence. An override
// that would leave both teams at SetsToWin is rejected.
func (e *Engine) UpdateMatch(ctx context.Context, params domain.UpdateMatchParams) (*domain.CommandResult, error) {
	if params.Format != nil {
		if err := domain.ValidateFormat(*params.Format); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
	}
	if params.Format == nil && params.HomeSetsWon == nil && params.AwaySetsWon == nil {
		b, err := e.Get(ctx, params.MatchID)
		if err != nil {
			return nil, err
		}
		return &domain.CommandResult{Bundle: b, Applied: false}, nil
	}

	b, events, err := e.mutate(ctx, params.MatchID, func(b *domain.MatchBundle) ([]domain.OutboxDraft, error) {
		m := &b.Match
		gs := &b.GameState

		if params.Format != nil && *params.Format != m.Format {
			if err := checkFormatChange(m, *params.Format); err != nil {
				return nil, err
			}
			m.Format = *params.Format
		}

		overridden := false
		if params.HomeSetsWon != nil {
			m.HomeSetsWon = scoring.ClampSetsWon(*params.HomeSetsWon, m.Format)
			overridden = true
		}
		if params.AwaySetsWon != nil {
			m.AwaySetsWon = scoring.ClampSetsWon(*params.AwaySetsWon, m.Format)
			overridden = true
		}
		if need := scoring.SetsToWin(m.Format); m.HomeSetsWon >= need && m.AwaySetsWon >= need {
			return nil, domain.ErrInvalidState(fmt.Sprintf(
				"sets won %d-%d: both teams cannot reach %d in best-of-%d",
				m.HomeSetsWon, m.AwaySetsWon, need, m.Format))
		}

		now := e.now()
		wasComplete := m.IsComplete
		m.IsComplete = scoring.IsMatchComplete(m.Format, m.HomeSetsWon, m.AwaySetsWon)
		switch last := lastRecordedSet(m.SetHistory); {
		case wasComplete && !m.IsComplete:
			// Reopened: play resumes after the last recorded set.
			m.CurrentSet = last + 1
		case !wasComplete && m.IsComplete && last > 0:
			m.CurrentSet = last
		}
		m.CurrentSet = max(1, min(m.CurrentSet, m.Format))
		m.UpdatedAt = now
		gs.CurrentSet = m.CurrentSet
		gs.IsSetComplete = m.IsComplete
		gs.Timestamp = now

		return []domain.OutboxDraft{domain.NewMatchUpdatedEvent(m, overridden)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update match: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: true, Events: events}, nil
}

// checkFormatChange rejects a format that can no longer hold what has been played.
func checkFormatChange(m *domain.Match, format int) error {
	need := scoring.SetsToWin(format)
	if m.HomeSetsWon > need || m.AwaySetsWon > need {
		return domain.ErrInvalidState(fmt.Sprintf(
			"best-of-%d cannot hold recorded sets won %d-%d", format, m.HomeSetsWon, m.AwaySetsWon))
	}
	for _, r := range m.SetHistory {
		if r.SetNumber > format {
			return domain.ErrInvalidState(fmt.Sprintf(
				"set %d is already recorded, best-of-%d is too short", r.SetNumber, format))
		}
	}
	return nil
}

func lastRecordedSet(history []domain.SetResult) int {
	last := 0
	for _, r := range history {
		last = max(last, r.SetNumber)
	}
	return last
}
