package scoring

import "fmt"

// SetRules defines how a set is won. The rules are only checked when Enforce is set;
// by default the operator decides when a set ends.
type SetRules struct {
	Enforce        bool `json:"enforce"`
	TargetPoints   int  `json:"targetPoints"`
	DecidingTarget int  `json:"decidingTarget"`
	MinMargin      int  `json:"minMargin"`
}

// DefaultSetRules returns indoor volleyball rules (25 points, 15 in the deciding set, win by 2).
func DefaultSetRules() SetRules {
	return SetRules{
		TargetPoints:   25,
		DecidingTarget: 15,
		MinMargin:      2,
	}
}

// Target returns the points needed to win setNumber in a best-of-format match.
func (r SetRules) Target(setNumber, format int) int {
	if setNumber == format && r.DecidingTarget > 0 {
		return r.DecidingTarget
	}
	return r.TargetPoints
}

// RulesEvaluation holds the result of a set rules check.
type RulesEvaluation struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// EvaluateSetRules checks a final score against the target and margin rules.
func EvaluateSetRules(r SetRules, setNumber, format, home, away int) RulesEvaluation {
	if !r.Enforce {
		return RulesEvaluation{Allowed: true}
	}

	high, low := home, away
	if away > home {
		high, low = away, home
	}

	target := r.Target(setNumber, format)
	if high < target {
		return RulesEvaluation{
			Allowed: false,
			Reason:  fmt.Sprintf("set %d is played to %d points, leader has %d", setNumber, target, high),
		}
	}
	if high-low < r.MinMargin {
		return RulesEvaluation{
			Allowed: false,
			Reason:  fmt.Sprintf("set %d must be won by %d points, margin is %d", setNumber, r.MinMargin, high-low),
		}
	}
	return RulesEvaluation{Allowed: true}
}
