package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func newDraft(aggregate AggregateType, aggregateID uuid.UUID, evtType EventType, payload interface{}, at time.Time) OutboxDraft {
	data, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: aggregate,
		AggregateID:   aggregateID.String(),
		EventType:     evtType,
		PartitionKey:  aggregateID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       data,
		OccurredAt:    at,
	}
}

// NewMatchCreatedEvent records a new match bundle.
func NewMatchCreatedEvent(b *MatchBundle, imported bool) OutboxDraft {
	evtType := EventMatchCreated
	if imported {
		evtType = EventMatchImported
	}
	return newDraft(AggregateMatch, b.Match.ID, evtType, b, b.Match.CreatedAt)
}

// NewScoreAdjustedEvent records a single point change.
func NewScoreAdjustedEvent(gs *GameState, side Side, delta int) OutboxDraft {
	return newDraft(AggregateMatch, gs.MatchID, EventScoreAdjusted, map[string]interface{}{
		"matchId":    gs.MatchID.String(),
		"team":       side,
		"delta":      delta,
		"homeScore":  gs.HomeScore,
		"awayScore":  gs.AwayScore,
		"currentSet": gs.CurrentSet,
	}, gs.Timestamp)
}

// NewSetResetEvent records a live score reset.
func NewSetResetEvent(gs *GameState) OutboxDraft {
	return newDraft(AggregateMatch, gs.MatchID, EventSetReset, map[string]interface{}{
		"matchId":    gs.MatchID.String(),
		"currentSet": gs.CurrentSet,
	}, gs.Timestamp)
}

// NewSetCompletedEvent records a finalized set and the resulting match counters.
func NewSetCompletedEvent(m *Match, result SetResult, at time.Time) OutboxDraft {
	return newDraft(AggregateMatch, m.ID, EventSetCompleted, map[string]interface{}{
		"matchId":     m.ID.String(),
		"set":         result,
		"winner":      result.Winner(),
		"homeSetsWon": m.HomeSetsWon,
		"awaySetsWon": m.AwaySetsWon,
		"currentSet":  m.CurrentSet,
	}, at)
}

// NewMatchCompletedEvent records the end of a match.
func NewMatchCompletedEvent(m *Match, winner Side, at time.Time) OutboxDraft {
	return newDraft(AggregateMatch, m.ID, EventMatchCompleted, map[string]interface{}{
		"matchId":     m.ID.String(),
		"winner":      winner,
		"homeSetsWon": m.HomeSetsWon,
		"awaySetsWon": m.AwaySetsWon,
		"setHistory":  m.SetHistory,
	}, at)
}

// NewMatchUpdatedEvent records a format or sets-won change.
func NewMatchUpdatedEvent(m *Match, overridden bool) OutboxDraft {
	evtType := EventMatchUpdated
	if overridden {
		evtType = EventSetsWonOverride
	}
	return newDraft(AggregateMatch, m.ID, evtType, map[string]interface{}{
		"matchId":     m.ID.String(),
		"format":      m.Format,
		"homeSetsWon": m.HomeSetsWon,
		"awaySetsWon": m.AwaySetsWon,
		"isComplete":  m.IsComplete,
	}, m.UpdatedAt)
}

// NewGameStateUpdatedEvent records a direct live-state edit.
func NewGameStateUpdatedEvent(gs *GameState) OutboxDraft {
	return newDraft(AggregateMatch, gs.MatchID, EventGameStateUpdated, gs, gs.Timestamp)
}

// NewTeamUpdatedEvent records a team field change.
func NewTeamUpdatedEvent(t *Team) OutboxDraft {
	return newDraft(AggregateTeam, t.ID, EventTeamUpdated, t, t.UpdatedAt)
}

// settingsAggregateID is the fixed aggregate id of the settings singleton.
var settingsAggregateID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// NewSettingsUpdatedEvent records a settings change.
func NewSettingsUpdatedEvent(s *Settings) OutboxDraft {
	return newDraft(AggregateSettings, settingsAggregateID, EventSettingsUpdated, s, s.UpdatedAt)
}
