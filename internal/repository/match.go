package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/volleyscore/scoreboard/internal/domain"
)

type matchRepo struct{}

// NewMatchRepository returns a pgx-backed MatchRepository.
func NewMatchRepository() MatchRepository {
	return &matchRepo{}
}

const matchColumns = `id, home_team_id, away_team_id, format, current_set, home_sets_won, away_sets_won,
		       is_complete, set_history, created_at, updated_at`

func (r *matchRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Match, error) {
	row := db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	return scanMatch(row)
}

func (r *matchRepo) FindLatest(ctx context.Context, db DBTX) (*domain.Match, error) {
	row := db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanMatch(row)
}

func (r *matchRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Match, error) {
	row := tx.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, id)
	return scanMatch(row)
}

func (r *matchRepo) Insert(ctx context.Context, db DBTX, m *domain.Match) error {
	history, err := marshalHistory(m.SetHistory)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO matches (id, home_team_id, away_team_id, format, current_set, home_sets_won,
		                     away_sets_won, is_complete, set_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.HomeTeamID, m.AwayTeamID, m.Format, m.CurrentSet, m.HomeSetsWon,
		m.AwaySetsWon, m.IsComplete, history, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *matchRepo) Update(ctx context.Context, db DBTX, m *domain.Match) error {
	history, err := marshalHistory(m.SetHistory)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `
		UPDATE matches
		SET format = $2, current_set = $3, home_sets_won = $4, away_sets_won = $5,
		    is_complete = $6, set_history = $7, updated_at = $8
		WHERE id = $1`,
		m.ID, m.Format, m.CurrentSet, m.HomeSetsWon, m.AwaySetsWon,
		m.IsComplete, history, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("match", m.ID.String())
	}
	return nil
}

func marshalHistory(history []domain.SetResult) ([]byte, error) {
	if history == nil {
		history = []domain.SetResult{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshal set history: %w", err)
	}
	return data, nil
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	var history []byte
	err := row.Scan(&m.ID, &m.HomeTeamID, &m.AwayTeamID, &m.Format, &m.CurrentSet,
		&m.HomeSetsWon, &m.AwaySetsWon, &m.IsComplete, &history, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan match: %w", err)
	}
	if err := json.Unmarshal(history, &m.SetHistory); err != nil {
		return nil, fmt.Errorf("decode set history: %w", err)
	}
	if m.SetHistory == nil {
		m.SetHistory = []domain.SetResult{}
	}
	return &m, nil
}
