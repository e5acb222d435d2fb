package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
)

// ChainEventService feeds decoded chain events into the verification
// engine. The feed is at-least-once; the in-process guard sheds duplicate
// deliveries cheaply and the per-player seen-event record is the durable
// dedupe line.
type ChainEventService struct {
	prog   *ProgressionService
	idem   *guard.IdempotencyGuard
	logger *slog.Logger
}

// NewChainEventService creates a ChainEventService.
func NewChainEventService(prog *ProgressionService, idem *guard.IdempotencyGuard, logger *slog.Logger) *ChainEventService {
	return &ChainEventService{prog: prog, idem: idem, logger: logger}
}

// Handle verifies one chain event against the player's in-flight reactive
// quests. Duplicate deliveries return an empty result and no error.
func (s *ChainEventService) Handle(ctx context.Context, rec domain.EventRecord) ([]engine.VerificationResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if res := s.idem.Check(ctx, rec.UniqueID); !res.Allowed {
		s.logger.Info("duplicate chain event shed in-process", "unique_id", rec.UniqueID)
		return nil, nil
	}

	var results []engine.VerificationResult
	err := s.prog.mutate(ctx, rec.PlayerID, func(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) ([]domain.OutboxDraft, error) {
		res, err := s.prog.engine.HandleEvent(st, rec)
		if err != nil {
			return nil, err
		}
		results = res

		var drafts []domain.OutboxDraft
		for _, r := range res {
			if r.QuestCompleted {
				drafts = append(drafts, domain.NewQuestCompletedEvent(rec.PlayerID, r.QuestID, st.Quests[r.QuestID].CompletionCount))
			}
		}
		return drafts, nil
	})
	if err != nil {
		// Let a redelivery retry the event.
		s.idem.Remove(rec.UniqueID)
		return nil, err
	}
	return results, nil
}
