package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
	"github.com/chainquest/platform/internal/projection"
	"github.com/chainquest/platform/internal/repository"
)

// DB is the slice of pgxpool.Pool the progression service needs: plain
// queries plus transaction begin.
type DB interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Notifier pushes a state-change notification to a connected player.
// Implemented by the websocket hub; a no-op implementation is fine.
type Notifier interface {
	NotifyPlayer(playerID uuid.UUID, eventType string, payload interface{})
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyPlayer(uuid.UUID, string, interface{}) {}

// saveRetries bounds optimistic-concurrency retries. The per-player lock
// serializes writers within one process, so retries only fire when another
// instance races us.
const saveRetries = 3

// ProgressionService orchestrates every player-state mutation: lock, load,
// run the pure engine operation, persist with the outbox drafts in one
// transaction, then invalidate the availability projection and notify.
type ProgressionService struct {
	pool   DB
	engine *engine.Engine
	states repository.PlayerStateRepository
	grants repository.GrantRepository
	outbox repository.OutboxRepository
	locks  *guard.PlayerLocks
	avail  *projection.AvailabilityCache
	notify Notifier
	logger *slog.Logger
}

// NewProgressionService creates a ProgressionService.
func NewProgressionService(
	pool DB,
	eng *engine.Engine,
	states repository.PlayerStateRepository,
	grants repository.GrantRepository,
	outbox repository.OutboxRepository,
	locks *guard.PlayerLocks,
	avail *projection.AvailabilityCache,
	notify Notifier,
	logger *slog.Logger,
) *ProgressionService {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &ProgressionService{
		pool:   pool,
		engine: eng,
		states: states,
		grants: grants,
		outbox: outbox,
		locks:  locks,
		avail:  avail,
		notify: notify,
		logger: logger,
	}
}

// GetState returns the player's full state, creating the defaulted state
// on first contact.
func (s *ProgressionService) GetState(ctx context.Context, playerID uuid.UUID) (*domain.PlayerState, error) {
	st, err := s.states.Load(ctx, s.pool, playerID)
	if err != nil {
		return nil, domain.ErrInternal("load player state", err)
	}
	if st != nil {
		return st, nil
	}

	release := s.locks.Lock(playerID)
	defer release()

	// Re-check under the lock: another request may have created it.
	st, err = s.states.Load(ctx, s.pool, playerID)
	if err != nil {
		return nil, domain.ErrInternal("load player state", err)
	}
	if st != nil {
		return st, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	st = domain.NewPlayerState(playerID)
	if err := s.states.Create(ctx, tx, st); err != nil {
		return nil, domain.ErrInternal("create player state", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewPlayerCreatedEvent(playerID, "")); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}
	return st, nil
}

// Availability returns the quests and characters currently reachable by
// the player, served from the LRU projection when warm.
func (s *ProgressionService) Availability(ctx context.Context, playerID uuid.UUID) (engine.Availability, error) {
	if av, ok := s.avail.Get(playerID); ok {
		return av, nil
	}
	st, err := s.GetState(ctx, playerID)
	if err != nil {
		return engine.Availability{}, err
	}
	av, err := s.engine.ListAvailable(st)
	if err != nil {
		return engine.Availability{}, err
	}
	s.avail.Put(playerID, av)
	return av, nil
}

// mutateFn runs one engine operation against the loaded state inside the
// save transaction. Returned drafts are written to the outbox atomically
// with the state. A non-nil error rolls everything back unless
// keepOnOracleFailure applies (see ClaimQuest).
type mutateFn func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error)

func (s *ProgressionService) mutate(ctx context.Context, playerID uuid.UUID, fn mutateFn) error {
	release := s.locks.Lock(playerID)
	defer release()

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		err := s.mutateOnce(ctx, playerID, fn)
		if err == nil {
			return nil
		}
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == "CONCURRENCY_VIOLATION" {
			lastErr = err
			s.logger.Warn("stale version on save, retrying", "player_id", playerID, "attempt", attempt+1)
			continue
		}
		return err
	}
	return lastErr
}

func (s *ProgressionService) mutateOnce(ctx context.Context, playerID uuid.UUID, fn mutateFn) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	st, err := s.states.Load(ctx, tx, playerID)
	if err != nil {
		return domain.ErrInternal("load player state", err)
	}
	created := false
	if st == nil {
		st = domain.NewPlayerState(playerID)
		if err := s.states.Create(ctx, tx, st); err != nil {
			return domain.ErrInternal("create player state", err)
		}
		created = true
	}

	drafts, opErr := fn(ctx, tx, st)
	if opErr != nil && !oracleFailure(opErr) {
		return opErr
	}
	// An oracle failure still persists: the quest is now marked
	// completed-pending-dispense and any rolls already resolved must
	// survive for the retry.

	if created {
		drafts = append([]domain.OutboxDraft{domain.NewPlayerCreatedEvent(playerID, "")}, drafts...)
	}
	if err := s.states.Save(ctx, tx, st); err != nil {
		return err
	}
	for _, draft := range drafts {
		if err := s.outbox.Insert(ctx, tx, draft); err != nil {
			return domain.ErrInternal("insert outbox event", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}

	s.avail.Invalidate(playerID)
	for _, draft := range drafts {
		s.notify.NotifyPlayer(playerID, string(draft.EventType), draft.Payload)
	}
	return opErr
}

func oracleFailure(err error) bool {
	var appErr *domain.AppError
	return errors.As(err, &appErr) && appErr.Code == "ORACLE_FAILURE"
}

// AddExperience grants experience to the player and reports level-ups.
func (s *ProgressionService) AddExperience(ctx context.Context, playerID uuid.UUID, amount int64) (*engine.LevelUpResult, error) {
	var result engine.LevelUpResult
	err := s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		res, err := s.engine.AddExperience(st, amount)
		if err != nil {
			return nil, err
		}
		result = res
		if !res.LeveledUp {
			return nil, nil
		}
		return []domain.OutboxDraft{
			domain.NewLevelUpEvent(playerID, res.PreviousLevel, res.NewLevel, st.Progression.TotalExperience),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Prestige resets the player at the prestige floor in exchange for the
// mastery bonus.
func (s *ProgressionService) Prestige(ctx context.Context, playerID uuid.UUID) (*domain.PlayerProgression, error) {
	var prog domain.PlayerProgression
	err := s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		if !s.engine.Prestige(st) {
			return nil, domain.ErrInvalidOperation("level below prestige floor")
		}
		prog = st.Progression
		return []domain.OutboxDraft{
			domain.NewPrestigeEvent(playerID, prog.PrestigeCount, s.engine.Catalog().PrestigeMasteryBonus),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// UpgradeSkill purchases the next tier of a skill branch.
func (s *ProgressionService) UpgradeSkill(ctx context.Context, playerID uuid.UUID, branch domain.SkillBranchID, tierIndex int) (*domain.SkillBranch, error) {
	var upgraded domain.SkillBranch
	err := s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		if !s.engine.UpgradeSkill(st, branch, tierIndex) {
			return nil, domain.ErrInvalidOperation("skill tier not purchasable")
		}
		upgraded = *st.Skills[branch]
		return []domain.OutboxDraft{
			domain.NewSkillUpgradedEvent(playerID, branch, upgraded.Level),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &upgraded, nil
}

// ActivateQuest moves an available quest into the active state.
func (s *ProgressionService) ActivateQuest(ctx context.Context, playerID uuid.UUID, questID string) (*domain.QuestState, error) {
	var qs domain.QuestState
	err := s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		if err := s.engine.Activate(st, questID); err != nil {
			return nil, err
		}
		qs = *st.Quests[questID]
		return []domain.OutboxDraft{
			domain.NewQuestActivatedEvent(playerID, questID),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &qs, nil
}

// RecordProgress applies reported objective progress to an active quest.
func (s *ProgressionService) RecordProgress(ctx context.Context, playerID uuid.UUID, questID, objectiveID string, delta int64, occurred bool) (*engine.ProgressResult, error) {
	var result engine.ProgressResult
	err := s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		res, err := s.engine.RecordProgress(st, questID, objectiveID, delta, occurred)
		if err != nil {
			return nil, err
		}
		result = res
		if !res.QuestCompleted {
			return nil, nil
		}
		return []domain.OutboxDraft{
			domain.NewQuestCompletedEvent(playerID, questID, st.Quests[questID].CompletionCount),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ClaimQuest dispenses the reward set of a completed quest. A quest whose
// grants were already dispensed replays the stored grants without touching
// state or the oracle; an oracle failure leaves the quest
// completed-pending-dispense and reports 503 so the client retries.
func (s *ProgressionService) ClaimQuest(ctx context.Context, playerID uuid.UUID, questID string) (*engine.DispenseResult, error) {
	// Replay fast path: already-dispensed completions are answered from
	// the durable grant record of the current cycle.
	st, err := s.GetState(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if qs, ok := st.Quests[questID]; ok && qs.Dispensed {
		stored, err := s.grants.ListByQuest(ctx, s.pool, playerID, questID, qs.CompletionCount)
		if err != nil {
			return nil, domain.ErrInternal("list stored grants", err)
		}
		av, err := s.engine.ListAvailable(st)
		if err != nil {
			return nil, err
		}
		return &engine.DispenseResult{Grants: stored, Available: av, Replayed: true}, nil
	}

	var result *engine.DispenseResult
	err = s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		res, err := s.engine.Dispense(ctx, st, questID)
		if err != nil {
			if oracleFailure(err) {
				return []domain.OutboxDraft{domain.NewRewardPendingEvent(playerID, questID)}, err
			}
			return nil, err
		}
		result = res

		// The fast path above runs before the per-player lock, so a
		// concurrent claim can slip past it. The loser lands here on the
		// engine's replay path; serve the stored rows and write nothing,
		// or the sink would receive the same completion twice.
		if res.Replayed {
			stored, err := s.grants.ListByQuest(ctx, tx, playerID, questID, st.Quests[questID].CompletionCount)
			if err != nil {
				return nil, domain.ErrInternal("list stored grants", err)
			}
			res.Grants = stored
			return nil, nil
		}

		drafts := make([]domain.OutboxDraft, 0, len(res.Grants)+len(res.RelationshipChanges))
		for _, g := range res.Grants {
			if err := s.grants.Insert(ctx, tx, g); err != nil {
				return nil, domain.ErrInternal("insert grant", err)
			}
			drafts = append(drafts, domain.NewRewardGrantedEvent(g))
		}
		for characterID, delta := range res.RelationshipChanges {
			drafts = append(drafts, domain.NewRelationshipChangedEvent(playerID, characterID, delta, st.Relationships[characterID]))
		}
		return drafts, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GrantAchievement marks an achievement as earned. Admin surface; gameplay
// achievements normally arrive through quest rewards.
func (s *ProgressionService) GrantAchievement(ctx context.Context, playerID uuid.UUID, achievementID string) error {
	if _, ok := s.engine.Catalog().Achievements[achievementID]; !ok {
		return domain.ErrNotFound("achievement", achievementID)
	}
	return s.mutate(ctx, playerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		st.Achievements[achievementID] = true
		return nil, nil
	})
}
