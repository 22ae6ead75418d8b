package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/volleyscore/scoreboard/internal/domain"
)

type settingsRepo struct{}

// NewSettingsRepository returns a pgx-backed SettingsRepository.
func NewSettingsRepository() SettingsRepository {
	return &settingsRepo{}
}

const settingsQuery = `
		SELECT sponsor_logo_path, primary_color, accent_color, theme, updated_at
		FROM scoreboard_settings WHERE id = 1`

func (r *settingsRepo) Get(ctx context.Context, db DBTX) (*domain.Settings, error) {
	return scanSettings(db.QueryRow(ctx, settingsQuery))
}

func (r *settingsRepo) LockForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Settings, error) {
	return scanSettings(tx.QueryRow(ctx, settingsQuery+` FOR UPDATE`))
}

func (r *settingsRepo) Upsert(ctx context.Context, db DBTX, s *domain.Settings) error {
	_, err := db.Exec(ctx, `
		INSERT INTO scoreboard_settings (id, sponsor_logo_path, primary_color, accent_color, theme, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET sponsor_logo_path = EXCLUDED.sponsor_logo_path,
		    primary_color = EXCLUDED.primary_color,
		    accent_color = EXCLUDED.accent_color,
		    theme = EXCLUDED.theme,
		    updated_at = EXCLUDED.updated_at`,
		s.SponsorLogoPath, s.PrimaryColor, s.AccentColor, s.Theme, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func scanSettings(row pgx.Row) (*domain.Settings, error) {
	var s domain.Settings
	err := row.Scan(&s.SponsorLogoPath, &s.PrimaryColor, &s.AccentColor, &s.Theme, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	return &s, nil
}
