package scoreboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// Import creates a new match from an exported bundle. The bundle must pass Audit;
// every id is regenerated so the same export can be imported more than once.
func (e *Engine) Import(ctx context.Context, in domain.MatchBundle) (*domain.CommandResult, error) {
	if err := domain.ValidateFormat(in.Match.Format); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if audit := Audit(&in); !audit.AllPassed {
		return nil, domain.ErrValidation("import rejected, failed checks: " + strings.Join(audit.Failed(), ", "))
	}

	now := e.now()
	b := in.Clone()
	b.HomeTeam.ID = uuid.New()
	b.AwayTeam.ID = uuid.New()
	b.HomeTeam.CreatedAt, b.HomeTeam.UpdatedAt = now, now
	b.AwayTeam.CreatedAt, b.AwayTeam.UpdatedAt = now, now

	b.Match.ID = uuid.New()
	b.Match.HomeTeamID = b.HomeTeam.ID
	b.Match.AwayTeamID = b.AwayTeam.ID
	b.Match.CreatedAt, b.Match.UpdatedAt = now, now
	if b.Match.SetHistory == nil {
		b.Match.SetHistory = []domain.SetResult{}
	}

	b.GameState.ID = uuid.New()
	b.GameState.MatchID = b.Match.ID
	b.GameState.Timestamp = now

	events := []domain.OutboxDraft{domain.NewMatchCreatedEvent(b, true)}
	if err := e.store.Create(ctx, b, events); err != nil {
		return nil, fmt.Errorf("import match: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: true, Events: events}, nil
}
