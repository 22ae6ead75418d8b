package scoreboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// CreateMatch creates a match with its two teams and a fresh game state.
// A zero format means the default best-of-5; missing teams use the default seed teams.
func (e *Engine) CreateMatch(ctx context.Context, params domain.CreateMatchParams) (*domain.CommandResult, error) {
	format := params.Format
	if format == 0 {
		format = domain.DefaultFormat
	}
	if err := domain.ValidateFormat(format); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	homeIn := domain.DefaultHomeTeam()
	if params.Home != nil {
		homeIn = *params.Home
	}
	awayIn := domain.DefaultAwayTeam()
	if params.Away != nil {
		awayIn = *params.Away
	}

	now := e.now()
	home := newTeam(homeIn, now)
	away := newTeam(awayIn, now)
	matchID := uuid.New()

	b := &domain.MatchBundle{
		Match: domain.Match{
			ID:         matchID,
			HomeTeamID: home.ID,
			AwayTeamID: away.ID,
			Format:     format,
			CurrentSet: 1,
			SetHistory: []domain.SetResult{},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		HomeTeam: home,
		AwayTeam: away,
		GameState: domain.GameState{
			ID:             uuid.New(),
			MatchID:        matchID,
			CurrentSet:     1,
			DisplayOptions: domain.DefaultDisplayOptions(),
			Timestamp:      now,
		},
	}

	events := []domain.OutboxDraft{domain.NewMatchCreatedEvent(b, false)}
	if err := e.store.Create(ctx, b, events); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &domain.CommandResult{Bundle: b, Applied: true, Events: events}, nil
}

func newTeam(in domain.TeamInput, now time.Time) domain.Team {
	t := domain.Team{
		ID:             uuid.New(),
		Name:           in.Name,
		Location:       in.Location,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = domain.DefaultPrimaryColor
	}
	if t.SecondaryColor == "" {
		t.SecondaryColor = domain.DefaultSecondaryColor
	}
	if in.LogoPath != nil {
		p := *in.LogoPath
		t.LogoPath = &p
	}
	return t
}
