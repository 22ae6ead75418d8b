package scoring

import "github.com/volleyscore/scoreboard/internal/domain"

// ScoreEvaluation holds the outcome of a point change.
type ScoreEvaluation struct {
	HomeScore int  `json:"homeScore"`
	AwayScore int  `json:"awayScore"`
	Applied   bool `json:"applied"`
}

// EvaluateScoreDelta applies delta to side's score. A decrement at zero is not applied.
// side and delta are assumed valid (see domain.ValidateSide / domain.ValidateDelta).
func EvaluateScoreDelta(home, away int, side domain.Side, delta int) ScoreEvaluation {
	current := home
	if side == domain.SideAway {
		current = away
	}
	if current+delta < 0 {
		return ScoreEvaluation{HomeScore: home, AwayScore: away, Applied: false}
	}

	if side == domain.SideHome {
		home += delta
	} else {
		away += delta
	}
	return ScoreEvaluation{HomeScore: home, AwayScore: away, Applied: true}
}
