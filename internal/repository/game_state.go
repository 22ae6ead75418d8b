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

type gameStateRepo struct{}

// NewGameStateRepository returns a pgx-backed GameStateRepository.
func NewGameStateRepository() GameStateRepository {
	return &gameStateRepo{}
}

const gameStateColumns = `id, match_id, home_score, away_score, current_set, is_set_complete, display_options, updated_at`

func (r *gameStateRepo) FindByMatch(ctx context.Context, db DBTX, matchID uuid.UUID) (*domain.GameState, error) {
	row := db.QueryRow(ctx, `SELECT `+gameStateColumns+` FROM game_states WHERE match_id = $1`, matchID)
	return scanGameState(row)
}

func (r *gameStateRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (*domain.GameState, error) {
	row := tx.QueryRow(ctx, `SELECT `+gameStateColumns+` FROM game_states WHERE match_id = $1 FOR UPDATE`, matchID)
	return scanGameState(row)
}

func (r *gameStateRepo) Insert(ctx context.Context, db DBTX, gs *domain.GameState) error {
	opts, err := json.Marshal(gs.DisplayOptions)
	if err != nil {
		return fmt.Errorf("marshal display options: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO game_states (id, match_id, home_score, away_score, current_set, is_set_complete,
		                         display_options, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		gs.ID, gs.MatchID, gs.HomeScore, gs.AwayScore, gs.CurrentSet, gs.IsSetComplete, opts, gs.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert game state: %w", err)
	}
	return nil
}

func (r *gameStateRepo) Update(ctx context.Context, db DBTX, gs *domain.GameState) error {
	opts, err := json.Marshal(gs.DisplayOptions)
	if err != nil {
		return fmt.Errorf("marshal display options: %w", err)
	}
	tag, err := db.Exec(ctx, `
		UPDATE game_states
		SET home_score = $2, away_score = $3, current_set = $4, is_set_complete = $5,
		    display_options = $6, updated_at = $7
		WHERE match_id = $1`,
		gs.MatchID, gs.HomeScore, gs.AwayScore, gs.CurrentSet, gs.IsSetComplete, opts, gs.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("update game state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("game state for match", gs.MatchID.String())
	}
	return nil
}

func scanGameState(row pgx.Row) (*domain.GameState, error) {
	var gs domain.GameState
	var opts []byte
	err := row.Scan(&gs.ID, &gs.MatchID, &gs.HomeScore, &gs.AwayScore, &gs.CurrentSet,
		&gs.IsSetComplete, &opts, &gs.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan game state: %w", err)
	}
	if err := json.Unmarshal(opts, &gs.DisplayOptions); err != nil {
		return nil, fmt.Errorf("decode display options: %w", err)
	}
	return &gs, nil
}
