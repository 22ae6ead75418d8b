package projection

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// SetState describes how a set cell is rendered.
type SetState string

const (
	SetInProgress SetState = "in_progress"
	SetFinal      SetState = "final"
	SetPending    SetState = "pending"
)

// FallbackColor is used for a team without a primary color.
const FallbackColor = domain.DefaultPrimaryColor

// TeamView is a team as the overlay draws it. Initial is drawn in a colored badge
// when there is no logo.
type TeamView struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	PrimaryColor   string    `json:"primaryColor"`
	SecondaryColor string    `json:"secondaryColor"`
	LogoPath       *string   `json:"logoPath"`
	HasLogo        bool      `json:"hasLogo"`
	Initial        string    `json:"initial"`
	SetsWon        int       `json:"setsWon"`
	Score          int       `json:"score"`
}

// SetCell is one column of the set-by-set table. Scores and winner are nil for pending sets.
type SetCell struct {
	SetNumber int          `json:"setNumber"`
	State     SetState     `json:"state"`
	HomeScore *int         `json:"homeScore"`
	AwayScore *int         `json:"awayScore"`
	Winner    *domain.Side `json:"winner"`
}

// Scoreboard is the projection served to overlay clients.
type Scoreboard struct {
	MatchID         uuid.UUID             `json:"matchId"`
	Format          int                   `json:"format"`
	CurrentSet      int                   `json:"currentSet"`
	IsComplete      bool                  `json:"isComplete"`
	Winner          *domain.Side          `json:"winner"`
	Home            TeamView              `json:"home"`
	Away            TeamView              `json:"away"`
	SetsToShow      int                   `json:"setsToShow"`
	Sets            []SetCell             `json:"sets"`
	DisplayOptions  domain.DisplayOptions `json:"displayOptions"`
	SponsorLogoPath *string               `json:"sponsorLogoPath"`
	PrimaryColor    string                `json:"primaryColor"`
	AccentColor     string                `json:"accentColor"`
	Theme           string                `json:"theme"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// SetsToShow returns min(max(currentSet, len(history)), format).
func SetsToShow(m *domain.Match) int {
	return min(max(m.CurrentSet, len(m.SetHistory)), m.Format)
}

// Project renders a bundle for display. It is a pure function of its inputs.
func Project(b *domain.MatchBundle, settings *domain.Settings) *Scoreboard {
	m := &b.Match
	gs := &b.GameState
	if settings == nil {
		def := domain.DefaultSettings()
		settings = &def
	}

	sb := &Scoreboard{
		MatchID:        m.ID,
		Format:         m.Format,
		CurrentSet:     m.CurrentSet,
		IsComplete:     m.IsComplete,
		Home:           teamView(b.HomeTeam, m.HomeSetsWon, gs.HomeScore),
		Away:           teamView(b.AwayTeam, m.AwaySetsWon, gs.AwayScore),
		SetsToShow:     SetsToShow(m),
		DisplayOptions: gs.DisplayOptions,
		PrimaryColor:   settings.PrimaryColor,
		AccentColor:    settings.AccentColor,
		Theme:          settings.Theme,
		UpdatedAt:      gs.Timestamp,
	}

	if m.IsComplete && m.HomeSetsWon != m.AwaySetsWon {
		w := domain.SideAway
		if m.HomeSetsWon > m.AwaySetsWon {
			w = domain.SideHome
		}
		sb.Winner = &w
	}

	sb.Sets = make([]SetCell, 0, sb.SetsToShow)
	for n := 1; n <= sb.SetsToShow; n++ {
		sb.Sets = append(sb.Sets, setCell(m, gs, n))
	}

	if gs.DisplayOptions.ShowSponsors && settings.SponsorLogoPath != nil {
		p := *settings.SponsorLogoPath
		sb.SponsorLogoPath = &p
	}
	return sb
}

func setCell(m *domain.Match, gs *domain.GameState, n int) SetCell {
	if n == m.CurrentSet && !m.IsComplete {
		home, away := gs.HomeScore, gs.AwayScore
		return SetCell{SetNumber: n, State: SetInProgress, HomeScore: &home, AwayScore: &away}
	}
	if r, ok := m.FindSet(n); ok {
		home, away := r.HomeScore, r.AwayScore
		cell := SetCell{SetNumber: n, State: SetFinal, HomeScore: &home, AwayScore: &away}
		if w := r.Winner(); w != "" {
			cell.Winner = &w
		}
		return cell
	}
	return SetCell{SetNumber: n, State: SetPending}
}

func teamView(t domain.Team, setsWon, score int) TeamView {
	v := TeamView{
		ID:             t.ID,
		Name:           t.Name,
		Location:       t.Location,
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		SetsWon:        setsWon,
		Score:          score,
		Initial:        initial(t.Name),
	}
	if v.PrimaryColor == "" {
		v.PrimaryColor = FallbackColor
	}
	if t.LogoPath != nil && *t.LogoPath != "" {
		p := *t.LogoPath
		v.LogoPath = &p
		v.HasLogo = true
	}
	return v
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}
