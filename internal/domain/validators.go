package domain

import "fmt"

// ValidateFormat checks that format is an odd set count within the supported range.
func ValidateFormat(format int) error {
	if format < MinFormat || format > MaxFormat {
		return fmt.Errorf("format must be between %d and %d sets, got %d", MinFormat, MaxFormat, format)
	}
	if format%2 == 0 {
		return fmt.Errorf("format must be an odd number of sets, got %d", format)
	}
	return nil
}

// ValidateSide checks that side names home or away.
func ValidateSide(side Side) error {
	if !side.Valid() {
		return fmt.Errorf("team must be %q or %q, got %q", SideHome, SideAway, side)
	}
	return nil
}

// ValidateDelta checks that a score change is a single point.
func ValidateDelta(delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("delta must be +1 or -1, got %d", delta)
	}
	return nil
}

// ValidateScore checks that a score is non-negative.
func ValidateScore(score int) error {
	if score < 0 {
		return fmt.Errorf("score must be non-negative, got %d", score)
	}
	return nil
}
