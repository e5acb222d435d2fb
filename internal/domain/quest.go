package domain

import (
	"time"
)

// ObjectiveType tags the closed set of objective kinds. Collect and score
// objectives advance by numeric deltas; the rest are discrete occurred
// signals that jump straight to the target.
type ObjectiveType string

const (
	ObjectiveCollect  ObjectiveType = "collect"
	ObjectiveComplete ObjectiveType = "complete"
	ObjectiveAchieve  ObjectiveType = "achieve"
	ObjectiveInteract ObjectiveType = "interact"
	ObjectiveExplore  ObjectiveType = "explore"
	ObjectiveSurvive  ObjectiveType = "survive"
	ObjectiveScore    ObjectiveType = "score"
)

// Counting reports whether the objective advances by deltas rather than a
// single occurred signal.
func (t ObjectiveType) Counting() bool {
	return t == ObjectiveCollect || t == ObjectiveScore
}

// Valid reports whether t is a known objective type.
func (t ObjectiveType) Valid() bool {
	switch t {
	case ObjectiveCollect, ObjectiveComplete, ObjectiveAchieve,
		ObjectiveInteract, ObjectiveExplore, ObjectiveSurvive, ObjectiveScore:
		return true
	}
	return false
}

// Objective is an immutable sub-goal definition within a quest. Per-player
// progress lives in QuestState, not here.
type Objective struct {
	ID          string        `json:"id"`
	Type        ObjectiveType `json:"type"`
	Description string        `json:"description,omitempty"`
	Target      int64         `json:"target"`
	Optional    bool          `json:"optional,omitempty"`
}

// Quest is an immutable content definition loaded from the catalog.
// Criteria is set only on reactive quests verified against chain events.
type Quest struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Description         string           `json:"description,omitempty"`
	LevelRequirement    int              `json:"level_requirement"`
	Prerequisites       []Prerequisite   `json:"prerequisites,omitempty"`
	Objectives          []Objective      `json:"objectives"`
	Rewards             []Reward         `json:"rewards,omitempty"`
	RelationshipChanges map[string]int   `json:"relationship_changes,omitempty"`
	Repeatable          bool             `json:"repeatable,omitempty"`
	Cooldown            time.Duration    `json:"cooldown,omitempty"`
	Criteria            *EventCriteria   `json:"criteria,omitempty"`
}

// Objective returns the objective definition with the given id, or nil.
func (q *Quest) Objective(id string) *Objective {
	for i := range q.Objectives {
		if q.Objectives[i].ID == id {
			return &q.Objectives[i]
		}
	}
	return nil
}

// Character is an immutable character definition. Availability is gated by
// its prerequisites the same way quests are.
type Character struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Prerequisites []Prerequisite `json:"prerequisites,omitempty"`
}

// QuestStatus is the per-player quest lifecycle state. The locked/available
// distinction is computed by the prerequisite resolver, not stored.
type QuestStatus string

const (
	QuestNotStarted QuestStatus = "not_started"
	QuestActive     QuestStatus = "active"
	QuestCompleted  QuestStatus = "completed"
)

// QuestState is the mutable per-player state of one quest.
type QuestState struct {
	QuestID         string            `json:"quest_id"`
	Status          QuestStatus       `json:"status"`
	Progress        map[string]int64  `json:"progress,omitempty"`
	ActivatedAt     time.Time         `json:"activated_at,omitzero"`
	LastCompletedAt *time.Time        `json:"last_completed_at,omitempty"`
	CompletionCount int               `json:"completion_count,omitempty"`
	Dispensed       bool              `json:"dispensed,omitempty"`
	PendingDispense bool              `json:"pending_dispense,omitempty"`
	RarityRolls     map[string]string `json:"rarity_rolls,omitempty"`
}

// NewQuestState returns the not-started default state for a quest.
func NewQuestState(questID string) *QuestState {
	return &QuestState{
		QuestID:  questID,
		Status:   QuestNotStarted,
		Progress: make(map[string]int64),
	}
}

// Current returns the progress counter for an objective.
func (s *QuestState) Current(objectiveID string) int64 {
	return s.Progress[objectiveID]
}

// ObjectiveCompleted reports whether the objective has reached its target.
func (s *QuestState) ObjectiveCompleted(obj Objective) bool {
	return s.Progress[obj.ID] >= obj.Target
}

// InCooldown reports whether a completed repeatable quest is still inside
// its cooldown window at the given time.
func (s *QuestState) InCooldown(q *Quest, now time.Time) bool {
	if !q.Repeatable || q.Cooldown <= 0 || s.LastCompletedAt == nil {
		return false
	}
	return now.Sub(*s.LastCompletedAt) < q.Cooldown
}
