package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/infra"
)

type playerStateRepo struct{}

// NewPlayerStateRepository returns a pgx-backed PlayerStateRepository.
func NewPlayerStateRepository() PlayerStateRepository {
	return &playerStateRepo{}
}

const (
	unlockKindAchievement = "achievement"
	unlockKindCharacter   = "character"
	unlockKindFeature     = "feature"
)

func (r *playerStateRepo) Load(ctx context.Context, db DBTX, playerID uuid.UUID) (*domain.PlayerState, error) {
	st := domain.NewPlayerState(playerID)

	row := db.QueryRow(ctx, `
		SELECT level, total_experience, level_experience, prestige_count, mastery_points, version, updated_at
		FROM player_progression WHERE player_id = $1`, playerID)
	p := &st.Progression
	var total pgtype.Numeric
	err := row.Scan(&p.Level, &total, &p.LevelExperience, &p.PrestigeCount, &p.MasteryPoints, &st.Version, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progression: %w", err)
	}
	// total_experience is numeric(20,0): it only ever grows.
	if p.TotalExperience, err = infra.NumericToInt64(total); err != nil {
		return nil, fmt.Errorf("load progression: %w", err)
	}

	if err := r.loadSkills(ctx, db, st); err != nil {
		return nil, err
	}
	if err := r.loadRelationships(ctx, db, st); err != nil {
		return nil, err
	}
	if err := r.loadQuestStates(ctx, db, st); err != nil {
		return nil, err
	}
	if err := r.loadUnlocks(ctx, db, st); err != nil {
		return nil, err
	}
	if err := r.loadSeenEvents(ctx, db, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *playerStateRepo) loadSkills(ctx context.Context, db DBTX, st *domain.PlayerState) error {
	rows, err := db.Query(ctx, `
		SELECT branch, level, bonuses FROM player_skills WHERE player_id = $1`, st.PlayerID)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var branch string
		var level int
		var bonuses []byte
		if err := rows.Scan(&branch, &level, &bonuses); err != nil {
			return fmt.Errorf("scan skill row: %w", err)
		}
		b := &domain.SkillBranch{Level: level}
		if len(bonuses) > 0 {
			if err := json.Unmarshal(bonuses, &b.Bonuses); err != nil {
				return fmt.Errorf("decode skill bonuses: %w", err)
			}
		}
		st.Skills[domain.SkillBranchID(branch)] = b
	}
	return rows.Err()
}

func (r *playerStateRepo) loadRelationships(ctx context.Context, db DBTX, st *domain.PlayerState) error {
	rows, err := db.Query(ctx, `
		SELECT character_id, score FROM player_relationships WHERE player_id = $1`, st.PlayerID)
	if err != nil {
		return fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var characterID string
		var score int
		if err := rows.Scan(&characterID, &score); err != nil {
			return fmt.Errorf("scan relationship row: %w", err)
		}
		st.Relationships[characterID] = score
	}
	return rows.Err()
}

func (r *playerStateRepo) loadQuestStates(ctx context.Context, db DBTX, st *domain.PlayerState) error {
	rows, err := db.Query(ctx, `
		SELECT quest_id, status, progress, activated_at, last_completed_at,
		       completion_count, dispensed, pending_dispense, rarity_rolls
		FROM player_quest_states WHERE player_id = $1`, st.PlayerID)
	if err != nil {
		return fmt.Errorf("load quest states: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		qs := &domain.QuestState{}
		var progress, rolls []byte
		var activatedAt *time.Time
		err := rows.Scan(&qs.QuestID, &qs.Status, &progress, &activatedAt, &qs.LastCompletedAt,
			&qs.CompletionCount, &qs.Dispensed, &qs.PendingDispense, &rolls)
		if err != nil {
			return fmt.Errorf("scan quest state row: %w", err)
		}
		qs.Progress = make(map[string]int64)
		if len(progress) > 0 {
			if err := json.Unmarshal(progress, &qs.Progress); err != nil {
				return fmt.Errorf("decode quest progress: %w", err)
			}
		}
		if len(rolls) > 0 {
			if err := json.Unmarshal(rolls, &qs.RarityRolls); err != nil {
				return fmt.Errorf("decode rarity rolls: %w", err)
			}
		}
		if activatedAt != nil {
			qs.ActivatedAt = *activatedAt
		}
		st.Quests[qs.QuestID] = qs
	}
	return rows.Err()
}

func (r *playerStateRepo) loadUnlocks(ctx context.Context, db DBTX, st *domain.PlayerState) error {
	rows, err := db.Query(ctx, `
		SELECT kind, ref_id FROM player_unlocks WHERE player_id = $1`, st.PlayerID)
	if err != nil {
		return fmt.Errorf("load unlocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, refID string
		if err := rows.Scan(&kind, &refID); err != nil {
			return fmt.Errorf("scan unlock row: %w", err)
		}
		switch kind {
		case unlockKindAchievement:
			st.Achievements[refID] = true
		case unlockKindCharacter:
			st.Characters[refID] = true
		default:
			st.Unlocks[refID] = true
		}
	}
	return rows.Err()
}

func (r *playerStateRepo) loadSeenEvents(ctx context.Context, db DBTX, st *domain.PlayerState) error {
	rows, err := db.Query(ctx, `
		SELECT unique_id FROM processed_events WHERE player_id = $1`, st.PlayerID)
	if err != nil {
		return fmt.Errorf("load processed events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan processed event row: %w", err)
		}
		st.SeenEvents[id] = true
	}
	return rows.Err()
}

func (r *playerStateRepo) Create(ctx context.Context, db DBTX, st *domain.PlayerState) error {
	p := st.Progression
	_, err := db.Exec(ctx, `
		INSERT INTO player_progression
		  (player_id, level, total_experience, level_experience, prestige_count, mastery_points, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, now())`,
		st.PlayerID, p.Level, infra.Int64ToNumeric(p.TotalExperience), p.LevelExperience, p.PrestigeCount, p.MasteryPoints)
	if err != nil {
		return fmt.Errorf("insert progression: %w", err)
	}
	st.Version = 1
	return nil
}

// Save writes the mutated state back, asserting the version read at load
// time. Everything except the version check is an upsert: engine state
// only grows or moves forward, so deletes are never needed here.
func (r *playerStateRepo) Save(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) error {
	p := st.Progression
	tag, err := tx.Exec(ctx, `
		UPDATE player_progression
		SET level = $1, total_experience = $2, level_experience = $3,
		    prestige_count = $4, mastery_points = $5, version = version + 1, updated_at = now()
		WHERE player_id = $6 AND version = $7`,
		p.Level, infra.Int64ToNumeric(p.TotalExperience), p.LevelExperience, p.PrestigeCount, p.MasteryPoints,
		st.PlayerID, st.Version)
	if err != nil {
		return fmt.Errorf("update progression: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrency(st.PlayerID.String())
	}
	st.Version++

	for branch, b := range st.Skills {
		bonuses, err := json.Marshal(b.Bonuses)
		if err != nil {
			return fmt.Errorf("encode skill bonuses: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO player_skills (player_id, branch, level, bonuses)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (player_id, branch)
			DO UPDATE SET level = EXCLUDED.level, bonuses = EXCLUDED.bonuses`,
			st.PlayerID, string(branch), b.Level, bonuses)
		if err != nil {
			return fmt.Errorf("upsert skill %s: %w", branch, err)
		}
	}

	for characterID, score := range st.Relationships {
		_, err := tx.Exec(ctx, `
			INSERT INTO player_relationships (player_id, character_id, score)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_id, character_id)
			DO UPDATE SET score = EXCLUDED.score`,
			st.PlayerID, characterID, score)
		if err != nil {
			return fmt.Errorf("upsert relationship %s: %w", characterID, err)
		}
	}

	for questID, qs := range st.Quests {
		progress, err := json.Marshal(qs.Progress)
		if err != nil {
			return fmt.Errorf("encode quest progress: %w", err)
		}
		var rolls []byte
		if len(qs.RarityRolls) > 0 {
			if rolls, err = json.Marshal(qs.RarityRolls); err != nil {
				return fmt.Errorf("encode rarity rolls: %w", err)
			}
		}
		var activatedAt *time.Time
		if !qs.ActivatedAt.IsZero() {
			activatedAt = &qs.ActivatedAt
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO player_quest_states
			  (player_id, quest_id, status, progress, activated_at, last_completed_at,
			   completion_count, dispensed, pending_dispense, rarity_rolls)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (player_id, quest_id)
			DO UPDATE SET status = EXCLUDED.status, progress = EXCLUDED.progress,
			    activated_at = EXCLUDED.activated_at, last_completed_at = EXCLUDED.last_completed_at,
			    completion_count = EXCLUDED.completion_count, dispensed = EXCLUDED.dispensed,
			    pending_dispense = EXCLUDED.pending_dispense, rarity_rolls = EXCLUDED.rarity_rolls`,
			st.PlayerID, questID, string(qs.Status), progress, activatedAt, qs.LastCompletedAt,
			qs.CompletionCount, qs.Dispensed, qs.PendingDispense, rolls)
		if err != nil {
			return fmt.Errorf("upsert quest state %s: %w", questID, err)
		}
	}

	if err := r.saveUnlocks(ctx, tx, st); err != nil {
		return err
	}

	for uniqueID := range st.SeenEvents {
		_, err := tx.Exec(ctx, `
			INSERT INTO processed_events (player_id, unique_id, processed_at)
			VALUES ($1, $2, now())
			ON CONFLICT (player_id, unique_id) DO NOTHING`,
			st.PlayerID, uniqueID)
		if err != nil {
			return fmt.Errorf("insert processed event: %w", err)
		}
	}
	return nil
}

func (r *playerStateRepo) saveUnlocks(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) error {
	insert := func(kind string, set map[string]bool) error {
		for refID := range set {
			_, err := tx.Exec(ctx, `
				INSERT INTO player_unlocks (player_id, kind, ref_id)
				VALUES ($1, $2, $3)
				ON CONFLICT (player_id, kind, ref_id) DO NOTHING`,
				st.PlayerID, kind, refID)
			if err != nil {
				return fmt.Errorf("insert unlock %s/%s: %w", kind, refID, err)
			}
		}
		return nil
	}
	if err := insert(unlockKindAchievement, st.Achievements); err != nil {
		return err
	}
	if err := insert(unlockKindCharacter, st.Characters); err != nil {
		return err
	}
	return insert(unlockKindFeature, st.Unlocks)
}
