package domain

// SkillBranchID identifies one of the five skill branches.
type SkillBranchID string

const (
	BranchSpeed     SkillBranchID = "speed"
	BranchAccuracy  SkillBranchID = "accuracy"
	BranchEndurance SkillBranchID = "endurance"
	BranchLuck      SkillBranchID = "luck"
	BranchStrategy  SkillBranchID = "strategy"
)

// SkillBranches lists every branch in canonical order.
var SkillBranches = []SkillBranchID{
	BranchSpeed, BranchAccuracy, BranchEndurance, BranchLuck, BranchStrategy,
}

// ValidBranch reports whether id names a known skill branch.
func ValidBranch(id SkillBranchID) bool {
	for _, b := range SkillBranches {
		if b == id {
			return true
		}
	}
	return false
}

// SkillBonus is an additive multiplier unlocked by purchasing a tier.
type SkillBonus struct {
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
}

// SkillTier is one purchasable step of a branch. RequiredLevel is the branch
// level the player must already hold; purchasing raises the branch to
// RequiredLevel+1. Tiers must be bought strictly in order.
type SkillTier struct {
	RequiredLevel int        `json:"required_level"`
	Cost          int        `json:"cost"`
	Bonus         SkillBonus `json:"bonus"`
}

// SkillBranch is the player-side state of one branch. Level only increases
// (prestige excepted), and Bonuses append in purchase order.
type SkillBranch struct {
	Level   int          `json:"level"`
	Bonuses []SkillBonus `json:"bonuses,omitempty"`
}

// BonusTotal sums the owned bonus magnitudes for the branch.
func (b *SkillBranch) BonusTotal() float64 {
	var total float64
	for _, bonus := range b.Bonuses {
		total += bonus.Magnitude
	}
	return total
}

// SkillSet maps every branch to its state.
type SkillSet map[SkillBranchID]*SkillBranch

// NewSkillSet returns a zeroed skill set covering all five branches.
func NewSkillSet() SkillSet {
	set := make(SkillSet, len(SkillBranches))
	for _, b := range SkillBranches {
		set[b] = &SkillBranch{}
	}
	return set
}

// Reset zeroes every branch. Used by prestige.
func (s SkillSet) Reset() {
	for _, b := range SkillBranches {
		s[b] = &SkillBranch{}
	}
}
