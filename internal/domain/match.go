package domain

import (
	"time"

	"github.com/google/uuid"
)

// Side identifies one of the two teams in a match.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Valid reports whether s names a known side.
func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// Match format bounds. A format is the total number of playable sets (best-of-N, N odd).
const (
	DefaultFormat = 5
	MinFormat     = 3
	MaxFormat     = 9
	MaxSetsWon    = 5
)

// SetResult is the final score of a completed set. Immutable once appended to history.
type SetResult struct {
	SetNumber int `json:"setNumber"`
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`
}

// Winner returns the side with the higher score, or "" for a tie.
func (r SetResult) Winner() Side {
	switch {
	case r.HomeScore > r.AwayScore:
		return SideHome
	case r.AwayScore > r.HomeScore:
		return SideAway
	default:
		return ""
	}
}

// Match is the canonical match record.
type Match struct {
	ID          uuid.UUID   `json:"id"`
	HomeTeamID  uuid.UUID   `json:"homeTeamId"`
	AwayTeamID  uuid.UUID   `json:"awayTeamId"`
	Format      int         `json:"format"`
	CurrentSet  int         `json:"currentSet"`
	HomeSetsWon int         `json:"homeSetsWon"`
	AwaySetsWon int         `json:"awaySetsWon"`
	IsComplete  bool        `json:"isComplete"`
	SetHistory  []SetResult `json:"setHistory"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// SetsWon returns the stored sets-won counter for side.
func (m *Match) SetsWon(side Side) int {
	if side == SideHome {
		return m.HomeSetsWon
	}
	return m.AwaySetsWon
}

// FindSet returns the history entry for setNumber.
func (m *Match) FindSet(setNumber int) (SetResult, bool) {
	for _, r := range m.SetHistory {
		if r.SetNumber == setNumber {
			return r, true
		}
	}
	return SetResult{}, false
}

// Team is a side's display identity.
type Team struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	PrimaryColor   string    `json:"primaryColor"`
	SecondaryColor string    `json:"secondaryColor"`
	LogoPath       *string   `json:"logoPath"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DisplayOptions toggles optional overlay elements.
type DisplayOptions struct {
	ShowSetHistory bool `json:"showSetHistory"`
	ShowSponsors   bool `json:"showSponsors"`
	ShowTimer      bool `json:"showTimer"`
}

// DefaultDisplayOptions is what a new game state starts with.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{ShowSetHistory: true}
}

// GameState is the live state of the current set.
type GameState struct {
	ID             uuid.UUID      `json:"id"`
	MatchID        uuid.UUID      `json:"matchId"`
	HomeScore      int            `json:"homeScore"`
	AwayScore      int            `json:"awayScore"`
	CurrentSet     int            `json:"currentSet"`
	IsSetComplete  bool           `json:"isSetComplete"`
	DisplayOptions DisplayOptions `json:"displayOptions"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Score returns the live score for side.
func (g *GameState) Score(side Side) int {
	if side == SideHome {
		return g.HomeScore
	}
	return g.AwayScore
}

// MatchBundle is the unit the control surface and overlay read: match, teams and live state.
type MatchBundle struct {
	Match     Match     `json:"match"`
	HomeTeam  Team      `json:"homeTeam"`
	AwayTeam  Team      `json:"awayTeam"`
	GameState GameState `json:"gameState"`
}

// Clone returns a deep copy so a mutation can be discarded without touching the original.
func (b *MatchBundle) Clone() *MatchBundle {
	if b == nil {
		return nil
	}
	c := *b
	c.Match.SetHistory = append([]SetResult(nil), b.Match.SetHistory...)
	c.HomeTeam = b.HomeTeam.Clone()
	c.AwayTeam = b.AwayTeam.Clone()
	return &c
}

// Team returns the team playing on side.
func (b *MatchBundle) Team(side Side) Team {
	if side == SideHome {
		return b.HomeTeam
	}
	return b.AwayTeam
}

// Clone returns a copy of t that shares no pointers with it.
func (t Team) Clone() Team {
	if t.LogoPath != nil {
		p := *t.LogoPath
		t.LogoPath = &p
	}
	return t
}

// Settings holds global display settings shared by every match.
type Settings struct {
	SponsorLogoPath *string   `json:"sponsorLogoPath"`
	PrimaryColor    string    `json:"primaryColor"`
	AccentColor     string    `json:"accentColor"`
	Theme           string    `json:"theme"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DefaultSettings is returned before any settings have been saved.
func DefaultSettings() Settings {
	return Settings{
		PrimaryColor: DefaultPrimaryColor,
		AccentColor:  "#F59E0B",
		Theme:        "dark",
	}
}

// Clone returns a copy of s that shares no pointers with it.
func (s Settings) Clone() Settings {
	if s.SponsorLogoPath != nil {
		p := *s.SponsorLogoPath
		s.SponsorLogoPath = &p
	}
	return s
}

// Team defaults used when a match is created without explicit teams.
const (
	DefaultPrimaryColor   = "#1565C0"
	DefaultSecondaryColor = "#90CAF9"
)

// DefaultHomeTeam and DefaultAwayTeam seed a new match.
func DefaultHomeTeam() TeamInput {
	return TeamInput{Name: "EAGLES", Location: "Central High", PrimaryColor: DefaultPrimaryColor, SecondaryColor: DefaultSecondaryColor}
}

func DefaultAwayTeam() TeamInput {
	return TeamInput{Name: "TIGERS", Location: "North Valley", PrimaryColor: DefaultPrimaryColor, SecondaryColor: DefaultSecondaryColor}
}
