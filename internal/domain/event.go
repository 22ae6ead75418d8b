package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventMatchCreated     EventType = "match.created"
	EventMatchImported    EventType = "match.imported"
	EventMatchUpdated     EventType = "match.updated"
	EventMatchCompleted   EventType = "match.completed"
	EventSetsWonOverride  EventType = "match.sets_won.overridden"
	EventScoreAdjusted    EventType = "score.adjusted"
	EventSetReset         EventType = "set.reset"
	EventSetCompleted     EventType = "set.completed"
	EventGameStateUpdated EventType = "game_state.updated"
	EventTeamUpdated      EventType = "team.updated"
	EventSettingsUpdated  EventType = "settings.updated"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateMatch    AggregateType = "match"
	AggregateTeam     AggregateType = "team"
	AggregateSettings AggregateType = "settings"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// OutboxRecord is a stored outbox row awaiting publication.
type OutboxRecord struct {
	SeqID int64
	OutboxDraft
}
