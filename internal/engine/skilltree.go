package engine

import (
	"github.com/chainquest/platform/internal/domain"
)

// UpgradeSkill purchases the given tier of a skill branch. It succeeds only
// when the branch level equals the tier's required level (tiers are bought
// strictly in sequence) and the player holds enough mastery points. On
// failure nothing is applied.
func (e *Engine) UpgradeSkill(st *domain.PlayerState, branch domain.SkillBranchID, tierIndex int) bool {
	tiers, ok := e.catalog.SkillTiers[branch]
	if !ok || tierIndex < 0 || tierIndex >= len(tiers) {
		return false
	}
	tier := tiers[tierIndex]

	b, ok := st.Skills[branch]
	if !ok {
		b = &domain.SkillBranch{}
		st.Skills[branch] = b
	}
	if b.Level != tier.RequiredLevel {
		return false
	}
	if st.Progression.MasteryPoints < tier.Cost {
		return false
	}

	st.Progression.MasteryPoints -= tier.Cost
	b.Level++
	b.Bonuses = append(b.Bonuses, tier.Bonus)
	return true
}

// SkillBonus returns the sum of owned bonus magnitudes for a branch,
// consumed by gameplay systems as a multiplier.
func (e *Engine) SkillBonus(st *domain.PlayerState, branch domain.SkillBranchID) float64 {
	b, ok := st.Skills[branch]
	if !ok {
		return 0
	}
	return b.BonusTotal()
}
