package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chainquest/platform/internal/domain"
)

// DispenseResult is the full outcome of dispensing a completed quest:
// realized grants for the outbound effect sink, the relationship deltas
// applied, and the recomputed availability after unlock cascades.
type DispenseResult struct {
	Grants              []domain.GrantedReward `json:"grants"`
	RelationshipChanges map[string]int         `json:"relationship_changes,omitempty"`
	Available           Availability           `json:"available"`
	Replayed            bool                   `json:"replayed,omitempty"`
}

// Dispense computes and applies the reward set for a completed quest.
//
// Rarity rolls are resolved first, before any state mutation, so an oracle
// failure leaves the quest completed-pending-dispense with nothing applied;
// rolls already resolved are stored on the quest state and reused on retry,
// never re-rolled. Once all rolls are known the grants are applied: an
// experience reward routes through AddExperience and its secondary level
// grants are appended to the result, unlock rewards cascade into the
// player's sets, then relationship deltas land and availability is
// recomputed for newly reachable nodes.
//
// Calling Dispense again on an already-dispensed completion replays the
// grant computation without re-applying state, so re-querying a past grant
// is idempotent and issues no new oracle requests.
func (e *Engine) Dispense(ctx context.Context, st *domain.PlayerState, questID string) (*DispenseResult, error) {
	q, ok := e.catalog.Quests[questID]
	if !ok {
		return nil, domain.ErrInvalidOperation(fmt.Sprintf("unknown quest %q", questID))
	}
	qs, ok := st.Quests[questID]
	if !ok || qs.Status != domain.QuestCompleted {
		return nil, domain.ErrInvalidOperation(fmt.Sprintf("quest %q is not completed", questID))
	}

	replay := qs.Dispensed

	// Phase 1: resolve every outstanding rarity roll up front.
	if qs.RarityRolls == nil {
		qs.RarityRolls = make(map[string]string)
	}
	for _, r := range q.Rewards {
		if r.Type != domain.RewardNFT || r.RarityRoll == nil {
			continue
		}
		if _, done := qs.RarityRolls[r.ID]; done {
			continue
		}
		words, err := e.oracle.RandomWords(ctx, r.RarityRoll.WordCount)
		if err != nil {
			qs.PendingDispense = true
			return nil, domain.ErrOracle(err)
		}
		if len(words) < 1 {
			qs.PendingDispense = true
			return nil, domain.ErrOracle(fmt.Errorf("oracle returned %d words, want %d", len(words), r.RarityRoll.WordCount))
		}
		qs.RarityRolls[r.ID] = bucketTier(words[0], r.RarityRoll.Table)
	}

	// Phase 2: apply grants.
	res := &DispenseResult{Replayed: replay}
	now := e.now()

	for _, r := range q.Rewards {
		grant := domain.GrantedReward{
			ID:        uuid.New(),
			PlayerID:  st.PlayerID,
			QuestID:   questID,
			RewardID:  r.ID,
			Type:      r.Type,
			Amount:    r.Amount,
			TargetID:  r.TargetID,
			Cycle:     qs.CompletionCount,
			CreatedAt: now,
		}

		switch r.Type {
		case domain.RewardExperience:
			if !replay {
				lvl, err := e.AddExperience(st, r.Amount)
				if err != nil {
					return nil, err
				}
				res.Grants = append(res.Grants, grant)
				// Secondary level grants ride along in order.
				for _, tr := range lvl.TriggeredRewards {
					res.Grants = append(res.Grants, e.applySecondary(st, questID, qs.CompletionCount, tr, now))
				}
				continue
			}
		case domain.RewardNFT:
			grant.Rarity = qs.RarityRolls[r.ID]
		case domain.RewardCharacterUnlock:
			if !replay {
				st.Characters[r.TargetID] = true
			}
		case domain.RewardStoryUnlock, domain.RewardFeatureUnlock, domain.RewardCosmetic:
			if !replay {
				st.Unlocks[r.TargetID] = true
			}
		}
		res.Grants = append(res.Grants, grant)
	}

	if !replay {
		if len(q.RelationshipChanges) > 0 {
			res.RelationshipChanges = make(map[string]int, len(q.RelationshipChanges))
			for charID, delta := range q.RelationshipChanges {
				st.Relationships[charID] += delta
				res.RelationshipChanges[charID] = delta
			}
		}
		qs.Dispensed = true
		qs.PendingDispense = false
	}

	avail, err := e.ListAvailable(st)
	if err != nil {
		return nil, err
	}
	res.Available = avail
	return res, nil
}

// applySecondary realizes one level-grant reward triggered by an
// experience grant during dispense.
func (e *Engine) applySecondary(st *domain.PlayerState, questID string, cycle int, r domain.Reward, now time.Time) domain.GrantedReward {
	grant := domain.GrantedReward{
		ID:        uuid.New(),
		PlayerID:  st.PlayerID,
		QuestID:   questID,
		RewardID:  r.ID,
		Type:      r.Type,
		Amount:    r.Amount,
		TargetID:  r.TargetID,
		Cycle:     cycle,
		CreatedAt: now,
	}
	switch r.Type {
	case domain.RewardCharacterUnlock:
		st.Characters[r.TargetID] = true
	case domain.RewardStoryUnlock, domain.RewardFeatureUnlock, domain.RewardCosmetic:
		st.Unlocks[r.TargetID] = true
	}
	return grant
}

// bucketTier maps one oracle word onto the cumulative drop-chance table.
func bucketTier(word uint64, table []domain.RarityBucket) string {
	fraction := float64(word%RandomWordMax) / float64(RandomWordMax)
	var cum float64
	for _, b := range table {
		cum += b.Chance
		if fraction < cum {
			return b.Tier
		}
	}
	// Floating point slack: the last bucket absorbs the remainder.
	return table[len(table)-1].Tier
}
