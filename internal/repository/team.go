package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/volleyscore/scoreboard/internal/domain"
)

type teamRepo struct{}

// NewTeamRepository returns a pgx-backed TeamRepository.
func NewTeamRepository() TeamRepository {
	return &teamRepo{}
}

const teamColumns = `id, name, location, primary_color, secondary_color, logo_path, created_at, updated_at`

func (r *teamRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Team, error) {
	row := db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	return scanTeam(row)
}

func (r *teamRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Team, error) {
	row := tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, id)
	return scanTeam(row)
}

func (r *teamRepo) Insert(ctx context.Context, db DBTX, t *domain.Team) error {
	_, err := db.Exec(ctx, `
		INSERT INTO teams (id, name, location, primary_color, secondary_color, logo_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Location, t.PrimaryColor, t.SecondaryColor, t.LogoPath, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (r *teamRepo) Update(ctx context.Context, db DBTX, t *domain.Team) error {
	tag, err := db.Exec(ctx, `
		UPDATE teams
		SET name = $2, location = $3, primary_color = $4, secondary_color = $5,
		    logo_path = $6, updated_at = $7
		WHERE id = $1`,
		t.ID, t.Name, t.Location, t.PrimaryColor, t.SecondaryColor, t.LogoPath, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("team", t.ID.String())
	}
	return nil
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	err := row.Scan(&t.ID, &t.Name, &t.Location, &t.PrimaryColor, &t.SecondaryColor,
		&t.LogoPath, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}
	return &t, nil
}
