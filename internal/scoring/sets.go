package scoring

import (
	"fmt"

	"github.com/volleyscore/scoreboard/internal/domain"
)

// SetsToWin returns the sets needed to take a best-of-format match: ceil(format/2).
func SetsToWin(format int) int {
	return (format + 1) / 2
}

// ClampSetsWon bounds a directly edited sets-won value to [0, min(MaxSetsWon, SetsToWin(format))].
func ClampSetsWon(value, format int) int {
	ceiling := min(domain.MaxSetsWon, SetsToWin(format))
	return max(0, min(value, ceiling))
}

// IsMatchComplete reports whether either side has reached SetsToWin(format).
func IsMatchComplete(format, homeSetsWon, awaySetsWon int) bool {
	need := SetsToWin(format)
	return homeSetsWon >= need || awaySetsWon >= need
}

// ReplaySetsWon derives sets-won counters from a set history.
func ReplaySetsWon(history []domain.SetResult) (home, away int) {
	for _, r := range history {
		switch r.Winner() {
		case domain.SideHome:
			home++
		case domain.SideAway:
			away++
		}
	}
	return home, away
}

// SetCompletion holds the match counters that result from finalizing a set.
type SetCompletion struct {
	Allowed       bool             `json:"allowed"`
	Reason        string           `json:"reason,omitempty"`
	Result        domain.SetResult `json:"result"`
	Winner        domain.Side      `json:"winner,omitempty"`
	HomeSetsWon   int              `json:"homeSetsWon"`
	AwaySetsWon   int              `json:"awaySetsWon"`
	NextSet       int              `json:"nextSet"`
	MatchComplete bool             `json:"matchComplete"`
}

func rejected(format string, args ...interface{}) SetCompletion {
	return SetCompletion{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// EvaluateSetCompletion computes the transition for finalizing setNumber at home-away.
// It does not modify m.
func EvaluateSetCompletion(m *domain.Match, rules SetRules, setNumber, home, away int) SetCompletion {
	if m.IsComplete {
		return rejected("match is already complete")
	}
	if setNumber < 1 {
		return rejected("set number must be at least 1, got %d", setNumber)
	}
	if setNumber > m.Format {
		return rejected("set %d exceeds best-of-%d format", setNumber, m.Format)
	}
	if home == away {
		return rejected("a set cannot end tied (%d-%d)", home, away)
	}
	if _, exists := m.FindSet(setNumber); exists {
		return rejected("set %d is already recorded", setNumber)
	}
	if eval := EvaluateSetRules(rules, setNumber, m.Format, home, away); !eval.Allowed {
		return rejected("%s", eval.Reason)
	}

	result := domain.SetResult{SetNumber: setNumber, HomeScore: home, AwayScore: away}
	out := SetCompletion{
		Allowed:     true,
		Result:      result,
		Winner:      result.Winner(),
		HomeSetsWon: m.HomeSetsWon,
		AwaySetsWon: m.AwaySetsWon,
	}
	if out.Winner == domain.SideHome {
		out.HomeSetsWon++
	} else {
		out.AwaySetsWon++
	}

	out.MatchComplete = IsMatchComplete(m.Format, out.HomeSetsWon, out.AwaySetsWon)
	// Out-of-order entry never moves the current set backwards while play continues.
	// A finished match rests on the highest recorded set.
	out.NextSet = min(max(m.CurrentSet, setNumber+1), m.Format)
	if out.MatchComplete {
		out.NextSet = setNumber
		for _, r := range m.SetHistory {
			out.NextSet = max(out.NextSet, r.SetNumber)
		}
	}
	return out
}
