package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volleyscore/scoreboard/internal/domain"
)

func newBundle() *domain.MatchBundle {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	matchID := uuid.New()
	home := domain.Team{ID: uuid.New(), Name: "EAGLES", CreatedAt: now, UpdatedAt: now}
	away := domain.Team{ID: uuid.New(), Name: "TIGERS", CreatedAt: now, UpdatedAt: now}
	return &domain.MatchBundle{
		Match: domain.Match{
			ID: matchID, HomeTeamID: home.ID, AwayTeamID: away.ID,
			Format: 5, CurrentSet: 1, SetHistory: []domain.SetResult{},
			CreatedAt: now, UpdatedAt: now,
		},
		HomeTeam:  home,
		AwayTeam:  away,
		GameState: domain.GameState{ID: uuid.New(), MatchID: matchID, CurrentSet: 1, Timestamp: now},
	}
}

func TestMemoryStore_CurrentEmpty(t *testing.T) {
	s := NewMemoryStore()
	b, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestMemoryStore_CreateAndCurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := newBundle()
	second := newBundle()
	require.NoError(t, s.Create(ctx, first, nil))
	require.NoError(t, s.Create(ctx, second, nil))

	cur, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Match.ID, cur.Match.ID)

	got, err := s.Get(ctx, first.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Match.ID, got.Match.ID)

	missing, err := s.Get(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := newBundle()
	require.NoError(t, s.Create(ctx, b, nil))

	err := s.Create(ctx, b, nil)
	assert.True(t, domain.HasCode(err, domain.CodeConflict))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := newBundle()
	require.NoError(t, s.Create(ctx, b, nil))

	got, err := s.Get(ctx, b.Match.ID)
	require.NoError(t, err)
	got.GameState.HomeScore = 99
	got.Match.SetHistory = append(got.Match.SetHistory, domain.SetResult{SetNumber: 1, HomeScore: 25})

	again, err := s.Get(ctx, b.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.GameState.HomeScore)
	assert.Empty(t, again.Match.SetHistory)
}

func TestMemoryStore_UpdateMatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := newBundle()
	require.NoError(t, s.Create(ctx, b, nil))

	t.Run("applies mutation and records events", func(t *testing.T) {
		out, err := s.UpdateMatch(ctx, b.Match.ID, func(w *domain.MatchBundle) ([]domain.OutboxDraft, error) {
			w.GameState.HomeScore = 3
			return []domain.OutboxDraft{domain.NewScoreAdjustedEvent(&w.GameState, domain.SideHome, 1)}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, out.GameState.HomeScore)

		events, err := s.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventScoreAdjusted, events[0].EventType)
	})

	t.Run("failed mutation leaves state unchanged", func(t *testing.T) {
		_, err := s.UpdateMatch(ctx, b.Match.ID, func(w *domain.MatchBundle) ([]domain.OutboxDraft, error) {
			w.GameState.HomeScore = 50
			w.Match.HomeSetsWon = 2
			return nil, errors.New("boom")
		})
		require.Error(t, err)

		got, err := s.Get(ctx, b.Match.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.GameState.HomeScore)
		assert.Equal(t, 0, got.Match.HomeSetsWon)
	})

	t.Run("team edits are ignored", func(t *testing.T) {
		_, err := s.UpdateMatch(ctx, b.Match.ID, func(w *domain.MatchBundle) ([]domain.OutboxDraft, error) {
			w.HomeTeam.Name = "CHANGED"
			return nil, nil
		})
		require.NoError(t, err)
		got, _ := s.Get(ctx, b.Match.ID)
		assert.Equal(t, "EAGLES", got.HomeTeam.Name)
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := s.UpdateMatch(ctx, uuid.New(), func(*domain.MatchBundle) ([]domain.OutboxDraft, error) {
			return nil, nil
		})
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})
}

func TestMemoryStore_UpdateTeam(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := newBundle()
	require.NoError(t, s.Create(ctx, b, nil))

	team, err := s.UpdateTeam(ctx, b.AwayTeam.ID, func(tm *domain.Team) ([]domain.OutboxDraft, error) {
		tm.Name = "LIONS"
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "LIONS", team.Name)

	got, _ := s.Get(ctx, b.Match.ID)
	assert.Equal(t, "LIONS", got.AwayTeam.Name)
	assert.Equal(t, "EAGLES", got.HomeTeam.Name)

	_, err = s.UpdateTeam(ctx, uuid.New(), func(*domain.Team) ([]domain.OutboxDraft, error) { return nil, nil })
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestMemoryStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	def, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *def)

	logo := "/uploads/sponsor.png"
	_, err = s.UpdateSettings(ctx, func(st *domain.Settings) ([]domain.OutboxDraft, error) {
		st.SponsorLogoPath = &logo
		return nil, nil
	})
	require.NoError(t, err)

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.SponsorLogoPath)
	assert.Equal(t, logo, *got.SponsorLogoPath)
	assert.Equal(t, domain.DefaultPrimaryColor, got.PrimaryColor)
}

func TestMemoryStore_Outbox(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	b := newBundle()
	events := []domain.OutboxDraft{
		domain.NewMatchCreatedEvent(b, false),
		domain.NewSetResetEvent(&b.GameState),
		domain.NewSetResetEvent(&b.GameState),
	}
	require.NoError(t, s.Create(ctx, b, events))

	batch, err := s.FetchUnpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(1), batch[0].SeqID)
	assert.Equal(t, int64(2), batch[1].SeqID)

	require.NoError(t, s.MarkPublished(ctx, []int64{batch[0].SeqID, batch[1].SeqID}))

	rest, err := s.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(3), rest[0].SeqID)
}
