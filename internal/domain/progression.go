package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlayerProgression holds a player's level, experience, and spendable
// mastery points. Mutated only by the engine's AddExperience and Prestige.
type PlayerProgression struct {
	PlayerID        uuid.UUID `json:"player_id"`
	Level           int       `json:"level"`
	TotalExperience int64     `json:"total_experience"`
	LevelExperience int64     `json:"level_experience"`
	PrestigeCount   int       `json:"prestige_count"`
	MasteryPoints   int       `json:"mastery_points"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewPlayerProgression returns the first-contact default progression.
func NewPlayerProgression(playerID uuid.UUID) PlayerProgression {
	return PlayerProgression{
		PlayerID:  playerID,
		Level:     1,
		UpdatedAt: time.Now(),
	}
}

// LevelCurveTier is one segment of the experience step function. The
// threshold to advance from a level inside [MinLevel, MaxLevel] is
// Base + Slope*level. MaxLevel 0 means unbounded (the last tier).
type LevelCurveTier struct {
	MinLevel int   `json:"min_level"`
	MaxLevel int   `json:"max_level"`
	Base     int64 `json:"base"`
	Slope    int64 `json:"slope"`
}

// LevelCurve is the ordered set of curve tiers, lowest level first.
type LevelCurve []LevelCurveTier

// Threshold returns the experience required to advance from the given level.
func (c LevelCurve) Threshold(level int) int64 {
	for _, t := range c {
		if level >= t.MinLevel && (t.MaxLevel == 0 || level <= t.MaxLevel) {
			return t.Base + t.Slope*int64(level)
		}
	}
	// Past the configured tiers: extend the last tier's slope.
	if len(c) > 0 {
		last := c[len(c)-1]
		return last.Base + last.Slope*int64(level)
	}
	return 0
}

// DefaultLevelCurve returns the production experience curve: five tiers
// with accelerating per-level cost.
func DefaultLevelCurve() LevelCurve {
	return LevelCurve{
		{MinLevel: 1, MaxLevel: 10, Slope: 100},
		{MinLevel: 11, MaxLevel: 25, Slope: 150},
		{MinLevel: 26, MaxLevel: 50, Slope: 250},
		{MinLevel: 51, MaxLevel: 75, Slope: 400},
		{MinLevel: 76, MaxLevel: 0, Slope: 600},
	}
}

// LevelGrant is what a player receives for reaching a specific level.
type LevelGrant struct {
	Level         int      `json:"level"`
	MasteryPoints int      `json:"mastery_points"`
	Rewards       []Reward `json:"rewards,omitempty"`
}
