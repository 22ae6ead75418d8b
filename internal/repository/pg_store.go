package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// PgStore is the PostgreSQL Store. Each mutation runs in one transaction:
// Lock → apply → Update → outbox Insert → Commit.
type PgStore struct {
	pool       *pgxpool.Pool
	matches    MatchRepository
	teams      TeamRepository
	gameStates GameStateRepository
	settings   SettingsRepository
	outbox     OutboxRepository
}

// NewPgStore creates a PgStore with the default repositories.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{
		pool:       pool,
		matches:    NewMatchRepository(),
		teams:      NewTeamRepository(),
		gameStates: NewGameStateRepository(),
		settings:   NewSettingsRepository(),
		outbox:     NewOutboxRepository(),
	}
}

var (
	_ Store        = (*PgStore)(nil)
	_ OutboxSource = (*PgStore)(nil)
)

func (s *PgStore) Current(ctx context.Context) (*domain.MatchBundle, error) {
	m, err := s.matches.FindLatest(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return s.loadBundle(ctx, s.pool, m)
}

func (s *PgStore) Get(ctx context.Context, matchID uuid.UUID) (*domain.MatchBundle, error) {
	m, err := s.matches.FindByID(ctx, s.pool, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return s.loadBundle(ctx, s.pool, m)
}

func (s *PgStore) loadBundle(ctx context.Context, db DBTX, m *domain.Match) (*domain.MatchBundle, error) {
	home, err := s.teams.FindByID(ctx, db, m.HomeTeamID)
	if err != nil {
		return nil, err
	}
	away, err := s.teams.FindByID(ctx, db, m.AwayTeamID)
	if err != nil {
		return nil, err
	}
	gs, err := s.gameStates.FindByMatch(ctx, db, m.ID)
	if err != nil {
		return nil, err
	}
	if home == nil || away == nil || gs == nil {
		return nil, domain.ErrInternal(fmt.Sprintf("match %s has dangling references", m.ID), nil)
	}
	return &domain.MatchBundle{Match: *m, HomeTeam: *home, AwayTeam: *away, GameState: *gs}, nil
}

func (s *PgStore) Create(ctx context.Context, b *domain.MatchBundle, events []domain.OutboxDraft) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.teams.Insert(ctx, tx, &b.HomeTeam); err != nil {
		return err
	}
	if err := s.teams.Insert(ctx, tx, &b.AwayTeam); err != nil {
		return err
	}
	if err := s.matches.Insert(ctx, tx, &b.Match); err != nil {
		return err
	}
	if err := s.gameStates.Insert(ctx, tx, &b.GameState); err != nil {
		return err
	}
	if err := s.insertEvents(ctx, tx, events); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PgStore) UpdateMatch(ctx context.Context, matchID uuid.UUID, fn MatchMutation) (*domain.MatchBundle, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Match row first, then game state: the same order for every writer.
	m, err := s.matches.LockForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("lock match: %w", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound("match", matchID.String())
	}
	gs, err := s.gameStates.LockForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("lock game state: %w", err)
	}
	if gs == nil {
		return nil, domain.ErrNotFound("game state for match", matchID.String())
	}
	home, err := s.teams.FindByID(ctx, tx, m.HomeTeamID)
	if err != nil {
		return nil, err
	}
	away, err := s.teams.FindByID(ctx, tx, m.AwayTeamID)
	if err != nil {
		return nil, err
	}
	if home == nil || away == nil {
		return nil, domain.ErrInternal(fmt.Sprintf("match %s has dangling team references", matchID), nil)
	}

	b := &domain.MatchBundle{Match: *m, HomeTeam: *home, AwayTeam: *away, GameState: *gs}
	events, err := fn(b)
	if err != nil {
		return nil, err
	}

	if err := s.matches.Update(ctx, tx, &b.Match); err != nil {
		return nil, err
	}
	if err := s.gameStates.Update(ctx, tx, &b.GameState); err != nil {
		return nil, err
	}
	if err := s.insertEvents(ctx, tx, events); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return b, nil
}

func (s *PgStore) UpdateTeam(ctx context.Context, teamID uuid.UUID, fn TeamMutation) (*domain.Team, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := s.teams.LockForUpdate(ctx, tx, teamID)
	if err != nil {
		return nil, fmt.Errorf("lock team: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}

	events, err := fn(t)
	if err != nil {
		return nil, err
	}
	if err := s.teams.Update(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := s.insertEvents(ctx, tx, events); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func (s *PgStore) Settings(ctx context.Context) (*domain.Settings, error) {
	st, err := s.settings.Get(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	if st == nil {
		def := domain.DefaultSettings()
		return &def, nil
	}
	return st, nil
}

func (s *PgStore) UpdateSettings(ctx context.Context, fn SettingsMutation) (*domain.Settings, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st, err := s.settings.LockForUpdate(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("lock settings: %w", err)
	}
	if st == nil {
		def := domain.DefaultSettings()
		st = &def
	}

	events, err := fn(st)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Upsert(ctx, tx, st); err != nil {
		return nil, err
	}
	if err := s.insertEvents(ctx, tx, events); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return st, nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	return s.outbox.FetchUnpublished(ctx, s.pool, limit)
}

func (s *PgStore) MarkPublished(ctx context.Context, seqIDs []int64) error {
	return s.outbox.MarkPublished(ctx, s.pool, seqIDs)
}

func (s *PgStore) insertEvents(ctx context.Context, tx pgx.Tx, events []domain.OutboxDraft) error {
	for _, ev := range events {
		if err := s.outbox.Insert(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}
