package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types published via the outbox.
type EventType string

// Topic returns the broker topic for the event type: the short "cq."
// prefix is swapped for the "chainquest." namespace, so
// cq.player.leveled_up publishes to chainquest.player.leveled_up.
func (t EventType) Topic() string {
	return "chainquest." + strings.TrimPrefix(string(t), "cq.")
}

const (
	EventPlayerCreated       EventType = "cq.player.created"
	EventPlayerLeveledUp     EventType = "cq.player.leveled_up"
	EventPlayerPrestiged     EventType = "cq.player.prestiged"
	EventSkillUpgraded       EventType = "cq.player.skill_upgraded"
	EventQuestActivated      EventType = "cq.quest.activated"
	EventQuestCompleted      EventType = "cq.quest.completed"
	EventRewardGranted       EventType = "cq.reward.granted"
	EventRewardPending       EventType = "cq.reward.pending"
	EventRelationshipChanged EventType = "cq.relationship.changed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePlayer AggregateType = "player"
	AggregateQuest  AggregateType = "quest"
	AggregateReward AggregateType = "reward"
)

// OutboxDraft is the payload written to the event_outbox table in the same
// transaction as the state mutation it describes.
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
