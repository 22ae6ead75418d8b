package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  int
		wantErr bool
	}{
		{"best of 3", 3, false},
		{"best of 5", 5, false},
		{"best of 9", 9, false},
		{"even", 4, true},
		{"too small", 1, true},
		{"too large", 11, true},
		{"zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSideAndDelta(t *testing.T) {
	assert.NoError(t, ValidateSide(SideHome))
	assert.NoError(t, ValidateSide(SideAway))
	assert.Error(t, ValidateSide("visitors"))

	assert.NoError(t, ValidateDelta(1))
	assert.NoError(t, ValidateDelta(-1))
	assert.Error(t, ValidateDelta(2))
	assert.Error(t, ValidateDelta(0))

	assert.NoError(t, ValidateScore(0))
	assert.Error(t, ValidateScore(-1))
}

// --- AppError Tests ---

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{ErrNotFound("match", "abc"), CodeNotFound, 404},
		{ErrInvalidState("tied"), CodeInvalidState, 409},
		{ErrValidation("bad"), CodeValidation, 400},
		{ErrConflict("dup"), CodeConflict, 409},
		{ErrUnauthorized("no token"), CodeUnauthorized, 401},
		{ErrRateLimited("slow down"), CodeRateLimited, 429},
		{ErrAccountLocked("locked"), CodeLocked, 429},
		{ErrInternal("boom", nil), CodeInternal, 500},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
		})
	}
}

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrInternal("load match", cause)

	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("service: %w", ErrNotFound("team", "x"))
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

// --- Model Tests ---

func TestSetResultWinner(t *testing.T) {
	assert.Equal(t, SideHome, SetResult{SetNumber: 1, HomeScore: 25, AwayScore: 20}.Winner())
	assert.Equal(t, SideAway, SetResult{SetNumber: 1, HomeScore: 23, AwayScore: 25}.Winner())
	assert.Equal(t, Side(""), SetResult{SetNumber: 1, HomeScore: 24, AwayScore: 24}.Winner())
}

func TestMatchBundleClone(t *testing.T) {
	logo := "/uploads/a.png"
	b := &MatchBundle{
		Match: Match{
			ID:         uuid.New(),
			Format:     5,
			CurrentSet: 2,
			SetHistory: []SetResult{{SetNumber: 1, HomeScore: 25, AwayScore: 20}},
		},
		HomeTeam:  Team{Name: "EAGLES", LogoPath: &logo},
		GameState: GameState{HomeScore: 3},
	}

	c := b.Clone()
	c.Match.SetHistory[0].HomeScore = 99
	c.Match.SetHistory = append(c.Match.SetHistory, SetResult{SetNumber: 2})
	*c.HomeTeam.LogoPath = "/uploads/b.png"
	c.GameState.HomeScore = 10

	assert.Equal(t, 25, b.Match.SetHistory[0].HomeScore)
	assert.Len(t, b.Match.SetHistory, 1)
	assert.Equal(t, "/uploads/a.png", *b.HomeTeam.LogoPath)
	assert.Equal(t, 3, b.GameState.HomeScore)
}

func TestMatchFindSetAndSetsWon(t *testing.T) {
	m := Match{
		HomeSetsWon: 2,
		AwaySetsWon: 1,
		SetHistory: []SetResult{
			{SetNumber: 1, HomeScore: 25, AwayScore: 20},
			{SetNumber: 2, HomeScore: 18, AwayScore: 25},
		},
	}
	r, ok := m.FindSet(2)
	require.True(t, ok)
	assert.Equal(t, 18, r.HomeScore)
	_, ok = m.FindSet(3)
	assert.False(t, ok)
	assert.Equal(t, 2, m.SetsWon(SideHome))
	assert.Equal(t, 1, m.SetsWon(SideAway))
}

func TestDisplayOptionsPatchApply(t *testing.T) {
	yes, no := true, false
	opts := DisplayOptions{ShowSetHistory: true}

	got := DisplayOptionsPatch{ShowSponsors: &yes, ShowSetHistory: &no}.Apply(opts)

	assert.False(t, got.ShowSetHistory)
	assert.True(t, got.ShowSponsors)
	assert.False(t, got.ShowTimer)
}

// --- Event Tests ---

func TestNewScoreAdjustedEvent(t *testing.T) {
	gs := &GameState{MatchID: uuid.New(), HomeScore: 4, AwayScore: 2, CurrentSet: 1, Timestamp: time.Now()}
	evt := NewScoreAdjustedEvent(gs, SideHome, 1)

	assert.Equal(t, AggregateMatch, evt.AggregateType)
	assert.Equal(t, EventScoreAdjusted, evt.EventType)
	assert.Equal(t, gs.MatchID.String(), evt.AggregateID)
	assert.Equal(t, evt.AggregateID, evt.PartitionKey)
	assert.NotEqual(t, uuid.Nil, evt.EventID)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "home", payload["team"])
	assert.Equal(t, float64(4), payload["homeScore"])
}

func TestNewMatchCreatedEvent_Imported(t *testing.T) {
	b := &MatchBundle{Match: Match{ID: uuid.New(), CreatedAt: time.Now()}}
	assert.Equal(t, EventMatchCreated, NewMatchCreatedEvent(b, false).EventType)
	assert.Equal(t, EventMatchImported, NewMatchCreatedEvent(b, true).EventType)
}
