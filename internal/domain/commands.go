package domain

import "github.com/google/uuid"

// TeamInput describes a team supplied at match creation.
type TeamInput struct {
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor"`
	LogoPath       *string `json:"logoPath,omitempty"`
}

// CreateMatchParams holds the input for match creation. Nil teams fall back to the defaults.
type CreateMatchParams struct {
	Format int        `json:"format"`
	Home   *TeamInput `json:"homeTeam,omitempty"`
	Away   *TeamInput `json:"awayTeam,omitempty"`
}

// AdjustScoreParams holds a single point change.
type AdjustScoreParams struct {
	MatchID uuid.UUID `json:"-"`
	Side    Side      `json:"team"`
	Delta   int       `json:"delta"`
	// Strict turns a decrement at zero into an InvalidState error instead of a no-op.
	Strict bool `json:"-"`
}

// CompleteSetParams finalizes a set. Nil scores or set number fall back to the live state.
type CompleteSetParams struct {
	MatchID   uuid.UUID `json:"-"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
	SetNumber *int      `json:"setNumber,omitempty"`
}

// UpdateMatchParams is a partial update of the match record.
type UpdateMatchParams struct {
	MatchID     uuid.UUID `json:"-"`
	Format      *int      `json:"format,omitempty"`
	HomeSetsWon *int      `json:"homeSetsWon,omitempty"`
	AwaySetsWon *int      `json:"awaySetsWon,omitempty"`
}

// DisplayOptionsPatch updates individual display flags.
type DisplayOptionsPatch struct {
	ShowSetHistory *bool `json:"showSetHistory,omitempty"`
	ShowSponsors   *bool `json:"showSponsors,omitempty"`
	ShowTimer      *bool `json:"showTimer,omitempty"`
}

// Apply merges the set fields of p into o.
func (p DisplayOptionsPatch) Apply(o DisplayOptions) DisplayOptions {
	if p.ShowSetHistory != nil {
		o.ShowSetHistory = *p.ShowSetHistory
	}
	if p.ShowSponsors != nil {
		o.ShowSponsors = *p.ShowSponsors
	}
	if p.ShowTimer != nil {
		o.ShowTimer = *p.ShowTimer
	}
	return o
}

// UpdateGameStateParams is a partial update of the live state.
type UpdateGameStateParams struct {
	MatchID        uuid.UUID            `json:"-"`
	HomeScore      *int                 `json:"homeScore,omitempty"`
	AwayScore      *int                 `json:"awayScore,omitempty"`
	DisplayOptions *DisplayOptionsPatch `json:"displayOptions,omitempty"`
}

// UpdateTeamParams replaces individual team fields.
type UpdateTeamParams struct {
	TeamID         uuid.UUID `json:"-"`
	Name           *string   `json:"name,omitempty"`
	Location       *string   `json:"location,omitempty"`
	PrimaryColor   *string   `json:"primaryColor,omitempty"`
	SecondaryColor *string   `json:"secondaryColor,omitempty"`
	LogoPath       *string   `json:"logoPath,omitempty"`
}

// Empty reports whether no field is set.
func (p UpdateTeamParams) Empty() bool {
	return p.Name == nil && p.Location == nil && p.PrimaryColor == nil &&
		p.SecondaryColor == nil && p.LogoPath == nil
}

// UpdateSettingsParams replaces individual settings fields.
type UpdateSettingsParams struct {
	SponsorLogoPath *string `json:"sponsorLogoPath,omitempty"`
	PrimaryColor    *string `json:"primaryColor,omitempty"`
	AccentColor     *string `json:"accentColor,omitempty"`
	Theme           *string `json:"theme,omitempty"`
}

// CommandResult is returned by every match command.
type CommandResult struct {
	Bundle *MatchBundle `json:"bundle"`
	// Applied is false when the command was accepted but changed nothing (e.g. decrement at zero).
	Applied bool          `json:"applied"`
	Events  []OutboxDraft `json:"-"`
}
