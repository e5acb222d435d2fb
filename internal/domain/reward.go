package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RewardType tags the closed set of reward kinds.
type RewardType string

const (
	RewardExperience      RewardType = "experience"
	RewardToken           RewardType = "token"
	RewardNFT             RewardType = "nft"
	RewardCharacterUnlock RewardType = "character_unlock"
	RewardStoryUnlock     RewardType = "story_unlock"
	RewardFeatureUnlock   RewardType = "feature_unlock"
	RewardCosmetic        RewardType = "cosmetic"
)

// RarityBucket is one entry of a rarity drop table. Chance is the
// probability mass of the bucket; buckets are resolved cumulatively.
type RarityBucket struct {
	Tier   string  `json:"tier"`
	Chance float64 `json:"chance"`
}

// RarityRollConfig configures the probabilistic tier of an NFT reward.
// WordCount random words are requested from the randomness oracle; the
// first word selects the bucket, the rest seed item attributes downstream.
type RarityRollConfig struct {
	WordCount int            `json:"word_count"`
	Table     []RarityBucket `json:"table"`
}

// Validate checks word count and that the drop table sums to 1.
func (c RarityRollConfig) Validate() error {
	if c.WordCount < 1 {
		return fmt.Errorf("rarity roll word_count must be >= 1, got %d", c.WordCount)
	}
	if len(c.Table) == 0 {
		return fmt.Errorf("rarity roll table is empty")
	}
	var sum float64
	for _, b := range c.Table {
		if b.Tier == "" {
			return fmt.Errorf("rarity bucket missing tier name")
		}
		if b.Chance <= 0 {
			return fmt.Errorf("rarity bucket %q has non-positive chance", b.Tier)
		}
		sum += b.Chance
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("rarity table chances sum to %.4f, want 1.0", sum)
	}
	return nil
}

// Reward is a tagged union over the reward kinds. Amount applies to
// experience and token rewards; TargetID names the unlock, collection,
// or cosmetic; RarityRoll is set only on NFT rewards with a random tier.
type Reward struct {
	ID         string            `json:"id"`
	Type       RewardType        `json:"type"`
	Amount     int64             `json:"amount,omitempty"`
	TargetID   string            `json:"target_id,omitempty"`
	RarityRoll *RarityRollConfig `json:"rarity_roll,omitempty"`
}

// Validate checks the tagged payload.
func (r Reward) Validate() error {
	switch r.Type {
	case RewardExperience, RewardToken:
		if r.Amount <= 0 {
			return fmt.Errorf("reward %q: %s amount must be positive", r.ID, r.Type)
		}
	case RewardNFT:
		if r.TargetID == "" {
			return fmt.Errorf("reward %q: nft reward missing target_id", r.ID)
		}
		if r.RarityRoll != nil {
			if err := r.RarityRoll.Validate(); err != nil {
				return fmt.Errorf("reward %q: %w", r.ID, err)
			}
		}
	case RewardCharacterUnlock, RewardStoryUnlock, RewardFeatureUnlock, RewardCosmetic:
		if r.TargetID == "" {
			return fmt.Errorf("reward %q: %s missing target_id", r.ID, r.Type)
		}
	default:
		return fmt.Errorf("reward %q: unknown type %q", r.ID, r.Type)
	}
	return nil
}

// GrantedReward is a realized reward record handed to the outbound effect
// sink. Rarity is set only for NFT rewards whose tier was rolled.
type GrantedReward struct {
	ID        uuid.UUID  `json:"id"`
	PlayerID  uuid.UUID  `json:"player_id"`
	QuestID   string     `json:"quest_id"`
	RewardID  string     `json:"reward_id"`
	Type      RewardType `json:"type"`
	Amount    int64      `json:"amount,omitempty"`
	TargetID  string     `json:"target_id,omitempty"`
	Rarity    string     `json:"rarity,omitempty"`
	// Cycle is the completion count the grant belongs to; a repeatable
	// quest accumulates one batch of grants per cycle.
	Cycle     int       `json:"cycle"`
	CreatedAt time.Time `json:"created_at"`
}
