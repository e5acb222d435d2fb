package domain

import "fmt"

// PrerequisiteType tags the closed set of gating condition kinds.
type PrerequisiteType string

const (
	PrereqLevel        PrerequisiteType = "level"
	PrereqAchievement  PrerequisiteType = "achievement"
	PrereqQuest        PrerequisiteType = "quest"
	PrereqRelationship PrerequisiteType = "relationship"
	PrereqCharacter    PrerequisiteType = "character"
)

// Prerequisite is a tagged union over the five gating condition kinds.
// Only the fields for the tagged type are meaningful.
type Prerequisite struct {
	Type          PrerequisiteType `json:"type"`
	Level         int              `json:"level,omitempty"`
	AchievementID string           `json:"achievement_id,omitempty"`
	QuestID       string           `json:"quest_id,omitempty"`
	CharacterID   string           `json:"character_id,omitempty"`
	MinScore      int              `json:"min_score,omitempty"`
}

// Validate checks that the tagged payload is present and well formed.
func (p Prerequisite) Validate() error {
	switch p.Type {
	case PrereqLevel:
		if p.Level < 1 {
			return fmt.Errorf("level prerequisite must be >= 1, got %d", p.Level)
		}
	case PrereqAchievement:
		if p.AchievementID == "" {
			return fmt.Errorf("achievement prerequisite missing achievement_id")
		}
	case PrereqQuest:
		if p.QuestID == "" {
			return fmt.Errorf("quest prerequisite missing quest_id")
		}
	case PrereqRelationship:
		if p.CharacterID == "" {
			return fmt.Errorf("relationship prerequisite missing character_id")
		}
	case PrereqCharacter:
		if p.CharacterID == "" {
			return fmt.Errorf("character prerequisite missing character_id")
		}
	default:
		return fmt.Errorf("unknown prerequisite type %q", p.Type)
	}
	return nil
}
