package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// MatchMutation is applied to a working copy of a bundle inside a store transaction.
// The returned events are persisted with the bundle. Returning an error discards the copy.
type MatchMutation func(b *domain.MatchBundle) ([]domain.OutboxDraft, error)

// TeamMutation is the team equivalent of MatchMutation.
type TeamMutation func(t *domain.Team) ([]domain.OutboxDraft, error)

// SettingsMutation is the settings equivalent of MatchMutation.
type SettingsMutation func(s *domain.Settings) ([]domain.OutboxDraft, error)

// Store is the scoreboard's state store. Every mutating method is atomic: readers see either
// the state before the mutation or after it, never a mix.
type Store interface {
	// Current returns the most recently created match bundle, or nil if there is none.
	Current(ctx context.Context) (*domain.MatchBundle, error)

	// Get returns the bundle for matchID, or nil if it does not exist.
	Get(ctx context.Context, matchID uuid.UUID) (*domain.MatchBundle, error)

	// Create inserts a new bundle (teams, match, game state) together with its events.
	Create(ctx context.Context, b *domain.MatchBundle, events []domain.OutboxDraft) error

	// UpdateMatch locks the bundle for matchID and persists the match and game state
	// as left by fn. Team changes made by fn are not persisted.
	UpdateMatch(ctx context.Context, matchID uuid.UUID, fn MatchMutation) (*domain.MatchBundle, error)

	// UpdateTeam locks the team and persists it as left by fn.
	UpdateTeam(ctx context.Context, teamID uuid.UUID, fn TeamMutation) (*domain.Team, error)

	// Settings returns the saved settings, or the defaults if none were saved.
	Settings(ctx context.Context) (*domain.Settings, error)

	// UpdateSettings persists settings as left by fn.
	UpdateSettings(ctx context.Context, fn SettingsMutation) (*domain.Settings, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

// OutboxSource is read by the outbox relay.
type OutboxSource interface {
	// FetchUnpublished returns up to limit unpublished events, oldest first.
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error)

	// MarkPublished removes the given events from the outbox.
	MarkPublished(ctx context.Context, seqIDs []int64) error
}

// MatchRepository provides access to matches.
type MatchRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Match, error)

	// FindLatest returns the most recently created match.
	FindLatest(ctx context.Context, db DBTX) (*domain.Match, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the match.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Match, error)

	Insert(ctx context.Context, db DBTX, m *domain.Match) error

	// Update writes every mutable column, including the set history.
	Update(ctx context.Context, db DBTX, m *domain.Match) error
}

// TeamRepository provides access to teams.
type TeamRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Team, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Team, error)
	Insert(ctx context.Context, db DBTX, t *domain.Team) error
	Update(ctx context.Context, db DBTX, t *domain.Team) error
}

// GameStateRepository provides access to game_states (one row per match).
type GameStateRepository interface {
	FindByMatch(ctx context.Context, db DBTX, matchID uuid.UUID) (*domain.GameState, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (*domain.GameState, error)
	Insert(ctx context.Context, db DBTX, gs *domain.GameState) error
	Update(ctx context.Context, db DBTX, gs *domain.GameState) error
}

// SettingsRepository provides access to the scoreboard_settings singleton row.
type SettingsRepository interface {
	// Get returns the settings row, or nil if none was saved yet.
	Get(ctx context.Context, db DBTX) (*domain.Settings, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Settings, error)
	Upsert(ctx context.Context, db DBTX, s *domain.Settings) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the state change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox relay.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRecord, error)

	// MarkPublished deletes published events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
