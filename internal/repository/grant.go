package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chainquest/platform/internal/domain"
)

type grantRepo struct{}

// NewGrantRepository returns a pgx-backed GrantRepository.
func NewGrantRepository() GrantRepository {
	return &grantRepo{}
}

func (r *grantRepo) Insert(ctx context.Context, db DBTX, grant domain.GrantedReward) error {
	_, err := db.Exec(ctx, `
		INSERT INTO reward_grants
		  (id, player_id, quest_id, reward_id, reward_type, amount, target_id, rarity, cycle, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		grant.ID, grant.PlayerID, grant.QuestID, grant.RewardID,
		string(grant.Type), grant.Amount, grant.TargetID, grant.Rarity, grant.Cycle, grant.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reward grant: %w", err)
	}
	return nil
}

func (r *grantRepo) ListByQuest(ctx context.Context, db DBTX, playerID uuid.UUID, questID string, cycle int) ([]domain.GrantedReward, error) {
	rows, err := db.Query(ctx, `
		SELECT id, player_id, quest_id, reward_id, reward_type, amount, target_id, rarity, cycle, created_at
		FROM reward_grants
		WHERE player_id = $1 AND quest_id = $2 AND cycle = $3
		ORDER BY created_at ASC, id ASC`, playerID, questID, cycle)
	if err != nil {
		return nil, fmt.Errorf("list reward grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.GrantedReward
	for rows.Next() {
		var g domain.GrantedReward
		err := rows.Scan(&g.ID, &g.PlayerID, &g.QuestID, &g.RewardID,
			&g.Type, &g.Amount, &g.TargetID, &g.Rarity, &g.Cycle, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan reward grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
