package scoreboard

import (
	"context"
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
)

// UpdateTeam replaces the given team fields. Colors are opaque strings.
func (e *Engine) UpdateTeam(ctx context.Context, params domain.UpdateTeamParams) (*domain.Team, error) {
	t, err := e.store.UpdateTeam(ctx, params.TeamID, func(t *domain.Team) ([]domain.OutboxDraft, error) {
		if params.Empty() {
			return nil, nil
		}
		if params.Name != nil {
			t.Name = *params.Name
		}
		if params.Location != nil {
			t.Location = *params.Location
		}
		if params.PrimaryColor != nil {
			t.PrimaryColor = *params.PrimaryColor
		}
		if params.SecondaryColor != nil {
			t.SecondaryColor = *params.SecondaryColor
		}
		if params.LogoPath != nil {
			p := *params.LogoPath
			t.LogoPath = &p
		}
		t.UpdatedAt = e.now()
		return []domain.OutboxDraft{domain.NewTeamUpdatedEvent(t)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	return t, nil
}
