package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerState is the full per-player working set the engine operates on:
// state in, new state plus result out. The caller owns loading, locking,
// and persisting it (see service and repository packages).
type PlayerState struct {
	PlayerID      uuid.UUID              `json:"player_id"`
	Progression   PlayerProgression      `json:"progression"`
	Skills        SkillSet               `json:"skills"`
	Relationships map[string]int         `json:"relationships"`
	Quests        map[string]*QuestState `json:"quests"`
	Achievements  map[string]bool        `json:"achievements"`
	Characters    map[string]bool        `json:"characters"`
	Unlocks       map[string]bool        `json:"unlocks"`
	SeenEvents    map[string]bool        `json:"seen_events"`

	// Version is the optimistic concurrency token checked on save.
	Version int64 `json:"version"`
}

// NewPlayerState returns the defaulted state created on first contact.
func NewPlayerState(playerID uuid.UUID) *PlayerState {
	return &PlayerState{
		PlayerID:      playerID,
		Progression:   NewPlayerProgression(playerID),
		Skills:        NewSkillSet(),
		Relationships: make(map[string]int),
		Quests:        make(map[string]*QuestState),
		Achievements:  make(map[string]bool),
		Characters:    make(map[string]bool),
		Unlocks:       make(map[string]bool),
		SeenEvents:    make(map[string]bool),
	}
}

// QuestState returns the state for a quest, creating the not-started
// default on first access.
func (s *PlayerState) QuestState(questID string) *QuestState {
	qs, ok := s.Quests[questID]
	if !ok {
		qs = NewQuestState(questID)
		s.Quests[questID] = qs
	}
	return qs
}

// CompletedQuests returns the set of quest ids completed at least once.
func (s *PlayerState) CompletedQuests() map[string]bool {
	done := make(map[string]bool)
	for id, qs := range s.Quests {
		if qs.Status == QuestCompleted || qs.CompletionCount > 0 {
			done[id] = true
		}
	}
	return done
}

// AuthUser holds account credentials.
type AuthUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
