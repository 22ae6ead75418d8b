package scoreboard

import (
	"context"
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
)

// UpdateSettings replaces the given global settings fields.
func (e *Engine) UpdateSettings(ctx context.Context, params domain.UpdateSettingsParams) (*domain.Settings, error) {
	s, err := e.store.UpdateSettings(ctx, func(s *domain.Settings) ([]domain.OutboxDraft, error) {
		if params.SponsorLogoPath != nil {
			p := *params.SponsorLogoPath
			s.SponsorLogoPath = &p
		}
		if params.PrimaryColor != nil {
			s.PrimaryColor = *params.PrimaryColor
		}
		if params.AccentColor != nil {
			s.AccentColor = *params.AccentColor
		}
		if params.Theme != nil {
			s.Theme = *params.Theme
		}
		s.UpdatedAt = e.now()
		return []domain.OutboxDraft{domain.NewSettingsUpdatedEvent(s)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s, nil
}
