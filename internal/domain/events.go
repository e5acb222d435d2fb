package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

func draft(agg AggregateType, aggID string, evtType EventType, partitionKey string, payload any) OutboxDraft {
	body, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evtType,
		PartitionKey:  partitionKey,
		Headers:       json.RawMessage(`{}`),
		Payload:       body,
		OccurredAt:    time.Now(),
	}
}

// NewPlayerCreatedEvent marks first contact for a player.
func NewPlayerCreatedEvent(playerID uuid.UUID, email string) OutboxDraft {
	return draft(AggregatePlayer, playerID.String(), EventPlayerCreated, playerID.String(), map[string]string{
		"player_id": playerID.String(),
		"email":     email,
	})
}

// NewLevelUpEvent records a level change from a single experience grant.
// fromLevel < toLevel always; one event covers a multi-level jump.
func NewLevelUpEvent(playerID uuid.UUID, fromLevel, toLevel int, totalExperience int64) OutboxDraft {
	return draft(AggregatePlayer, playerID.String(), EventPlayerLeveledUp, playerID.String(), map[string]any{
		"player_id":        playerID.String(),
		"from_level":       fromLevel,
		"to_level":         toLevel,
		"total_experience": totalExperience,
	})
}

// NewPrestigeEvent records a prestige reset.
func NewPrestigeEvent(playerID uuid.UUID, prestigeCount, masteryBonus int) OutboxDraft {
	return draft(AggregatePlayer, playerID.String(), EventPlayerPrestiged, playerID.String(), map[string]any{
		"player_id":      playerID.String(),
		"prestige_count": prestigeCount,
		"mastery_bonus":  masteryBonus,
	})
}

// NewSkillUpgradedEvent records a purchased skill tier.
func NewSkillUpgradedEvent(playerID uuid.UUID, branch SkillBranchID, newLevel int) OutboxDraft {
	return draft(AggregatePlayer, playerID.String(), EventSkillUpgraded, playerID.String(), map[string]any{
		"player_id": playerID.String(),
		"branch":    branch,
		"new_level": newLevel,
	})
}

// NewQuestActivatedEvent records a quest entering the active state.
func NewQuestActivatedEvent(playerID uuid.UUID, questID string) OutboxDraft {
	return draft(AggregateQuest, questID, EventQuestActivated, playerID.String(), map[string]string{
		"player_id": playerID.String(),
		"quest_id":  questID,
	})
}

// NewQuestCompletedEvent records all non-optional objectives reaching target.
func NewQuestCompletedEvent(playerID uuid.UUID, questID string, completionCount int) OutboxDraft {
	return draft(AggregateQuest, questID, EventQuestCompleted, playerID.String(), map[string]any{
		"player_id":        playerID.String(),
		"quest_id":         questID,
		"completion_count": completionCount,
	})
}

// NewRewardGrantedEvent hands a realized grant to the outbound effect sink.
func NewRewardGrantedEvent(grant GrantedReward) OutboxDraft {
	payload, _ := json.Marshal(grant)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateReward,
		AggregateID:   grant.ID.String(),
		EventType:     EventRewardGranted,
		PartitionKey:  grant.PlayerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewRewardPendingEvent records an oracle failure leaving a completed quest
// undispensed. Surfaces to the player as "reward pending", not an error.
func NewRewardPendingEvent(playerID uuid.UUID, questID string) OutboxDraft {
	return draft(AggregateReward, questID, EventRewardPending, playerID.String(), map[string]string{
		"player_id": playerID.String(),
		"quest_id":  questID,
	})
}

// NewRelationshipChangedEvent records an affinity delta from a quest outcome.
func NewRelationshipChangedEvent(playerID uuid.UUID, characterID string, delta, newScore int) OutboxDraft {
	return draft(AggregatePlayer, playerID.String(), EventRelationshipChanged, playerID.String(), map[string]any{
		"player_id":    playerID.String(),
		"character_id": characterID,
		"delta":        delta,
		"new_score":    newScore,
	})
}
