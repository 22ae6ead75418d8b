package scoreboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/scoring"
)

// AuditResult holds the outcome of a consistency audit.
type AuditResult struct {
	MatchID   uuid.UUID        `json:"matchId"`
	Checks    []InvariantCheck `json:"checks"`
	AllPassed bool             `json:"allPassed"`
}

// InvariantCheck records a single invariant validation.
type InvariantCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Failed returns the names of the checks that did not pass.
func (r *AuditResult) Failed() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

// AuditMatch loads a match and audits it.
func (e *Engine) AuditMatch(ctx context.Context, matchID uuid.UUID) (*AuditResult, error) {
	b, err := e.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return Audit(b), nil
}

// Audit re-derives the match counters from the set history and validates the bundle.
//
// Invariants:
//  1. Game state and match agree on the current set
//  2. No set number appears twice in the history
//  3. Sets-won counters equal the winners counted in the history
//  4. No score is negative
//  5. The match is complete exactly when a side reached SetsToWin(format)
//  6. No recorded set ended tied
//  7. Recorded set numbers lie within the format
//  8. The current set lies within the format
//  9. Sets-won counters lie in [0, SetsToWin(format)] and only one side reached it
func Audit(b *domain.MatchBundle) *AuditResult {
	m := &b.Match
	gs := &b.GameState
	checks := make([]InvariantCheck, 0, 9)

	checks = append(checks, InvariantCheck{
		Name:   "current_set_sync",
		Passed: gs.CurrentSet == m.CurrentSet,
		Detail: fmt.Sprintf("match=%d gameState=%d", m.CurrentSet, gs.CurrentSet),
	})

	seen := make(map[int]bool, len(m.SetHistory))
	var dup []int
	for _, r := range m.SetHistory {
		if seen[r.SetNumber] {
			dup = append(dup, r.SetNumber)
		}
		seen[r.SetNumber] = true
	}
	checks = append(checks, InvariantCheck{
		Name:   "unique_set_numbers",
		Passed: len(dup) == 0,
		Detail: fmt.Sprintf("duplicates=%v", dup),
	})

	home, away := scoring.ReplaySetsWon(m.SetHistory)
	checks = append(checks, InvariantCheck{
		Name:   "sets_won_parity",
		Passed: home == m.HomeSetsWon && away == m.AwaySetsWon,
		Detail: fmt.Sprintf("stored=%d-%d history=%d-%d", m.HomeSetsWon, m.AwaySetsWon, home, away),
	})

	nonNeg := gs.HomeScore >= 0 && gs.AwayScore >= 0 && m.HomeSetsWon >= 0 && m.AwaySetsWon >= 0
	for _, r := range m.SetHistory {
		if r.HomeScore < 0 || r.AwayScore < 0 {
			nonNeg = false
		}
	}
	checks = append(checks, InvariantCheck{
		Name:   "non_negative_scores",
		Passed: nonNeg,
		Detail: fmt.Sprintf("live=%d-%d", gs.HomeScore, gs.AwayScore),
	})

	expectComplete := scoring.IsMatchComplete(m.Format, m.HomeSetsWon, m.AwaySetsWon)
	checks = append(checks, InvariantCheck{
		Name:   "completion_consistency",
		Passed: m.IsComplete == expectComplete,
		Detail: fmt.Sprintf("isComplete=%t expected=%t", m.IsComplete, expectComplete),
	})

	var tied []int
	var outOfRange []int
	for _, r := range m.SetHistory {
		if r.Winner() == "" {
			tied = append(tied, r.SetNumber)
		}
		if r.SetNumber < 1 || r.SetNumber > m.Format {
			outOfRange = append(outOfRange, r.SetNumber)
		}
	}
	checks = append(checks, InvariantCheck{
		Name:   "no_tied_results",
		Passed: len(tied) == 0,
		Detail: fmt.Sprintf("tied=%v", tied),
	})
	checks = append(checks, InvariantCheck{
		Name:   "set_numbers_in_format",
		Passed: len(outOfRange) == 0,
		Detail: fmt.Sprintf("format=%d outOfRange=%v", m.Format, outOfRange),
	})

	checks = append(checks, InvariantCheck{
		Name:   "current_set_in_range",
		Passed: m.CurrentSet >= 1 && m.CurrentSet <= m.Format,
		Detail: fmt.Sprintf("currentSet=%d format=%d", m.CurrentSet, m.Format),
	})

	need := scoring.SetsToWin(m.Format)
	inRange := func(n int) bool { return n >= 0 && n <= need }
	wonOK := inRange(m.HomeSetsWon) && inRange(m.AwaySetsWon) &&
		!(m.HomeSetsWon == need && m.AwaySetsWon == need)
	checks = append(checks, InvariantCheck{
		Name:   "sets_won_in_range",
		Passed: wonOK,
		Detail: fmt.Sprintf("setsWon=%d-%d setsToWin=%d", m.HomeSetsWon, m.AwaySetsWon, need),
	})

	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
		}
	}
	return &AuditResult{MatchID: m.ID, Checks: checks, AllPassed: allPassed}
}
