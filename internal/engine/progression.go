package engine

import (
	"github.com/chainquest/platform/internal/domain"
)

// LevelUpResult reports the outcome of one experience grant.
type LevelUpResult struct {
	LeveledUp        bool            `json:"leveled_up"`
	PreviousLevel    int             `json:"previous_level"`
	NewLevel         int             `json:"new_level"`
	MasteryAwarded   int             `json:"mastery_awarded,omitempty"`
	TriggeredRewards []domain.Reward `json:"triggered_rewards,omitempty"`
}

// AddExperience applies a non-negative experience amount to the player's
// progression. Level-ups are processed in a loop, so one large grant that
// crosses several thresholds yields every intermediate level grant in
// order. Grouping is irrelevant: many small grants and one big grant
// summing to the same total land on the same level and remainder.
func (e *Engine) AddExperience(st *domain.PlayerState, amount int64) (LevelUpResult, error) {
	if err := domain.ValidateNonNegativeAmount(amount); err != nil {
		return LevelUpResult{}, domain.ErrValidation(err.Error())
	}

	p := &st.Progression
	res := LevelUpResult{PreviousLevel: p.Level, NewLevel: p.Level}

	p.TotalExperience += amount
	p.LevelExperience += amount

	for {
		threshold := e.catalog.LevelCurve.Threshold(p.Level)
		if threshold <= 0 || p.LevelExperience < threshold {
			break
		}
		p.LevelExperience -= threshold
		p.Level++
		res.LeveledUp = true
		res.NewLevel = p.Level

		if grant, ok := e.catalog.LevelGrants[p.Level]; ok {
			p.MasteryPoints += grant.MasteryPoints
			res.MasteryAwarded += grant.MasteryPoints
			res.TriggeredRewards = append(res.TriggeredRewards, grant.Rewards...)
		}
	}

	p.UpdatedAt = e.now()
	return res, nil
}

// Prestige resets a player at or above the prestige floor back to level 1,
// zeroes both experience counters and all skill branches, and grants the
// flat mastery bonus. Returns false with no mutation below the floor.
// Mastery points already spent are not refunded beyond the bonus.
func (e *Engine) Prestige(st *domain.PlayerState) bool {
	p := &st.Progression
	if p.Level < e.catalog.PrestigeMinLevel {
		return false
	}

	p.Level = 1
	p.TotalExperience = 0
	p.LevelExperience = 0
	p.PrestigeCount++
	p.MasteryPoints += e.catalog.PrestigeMasteryBonus
	st.Skills.Reset()
	p.UpdatedAt = e.now()
	return true
}
