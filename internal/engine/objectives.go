package engine

import (
	"fmt"

	"github.com/chainquest/platform/internal/domain"
)

// ProgressResult reports the outcome of one progress signal. Changed is
// false when the signal was tolerated as a duplicate or arrived for an
// inactive quest; that is a no-op, not an error.
type ProgressResult struct {
	Changed            bool `json:"changed"`
	ObjectiveCompleted bool `json:"objective_completed"`
	QuestCompleted     bool `json:"quest_completed"`
}

// Activate moves an available quest into the active state. Repeatable
// quests re-enter active after their cooldown expires, resetting objective
// progress to zero.
func (e *Engine) Activate(st *domain.PlayerState, questID string) error {
	q, ok := e.catalog.Quests[questID]
	if !ok {
		return domain.ErrInvalidOperation(fmt.Sprintf("unknown quest %q", questID))
	}

	qs := st.QuestState(questID)
	switch qs.Status {
	case domain.QuestActive:
		return domain.ErrInvalidOperation(fmt.Sprintf("quest %q is already active", questID))
	case domain.QuestCompleted:
		if !q.Repeatable {
			return domain.ErrInvalidOperation(fmt.Sprintf("quest %q is not repeatable", questID))
		}
		if qs.PendingDispense {
			return domain.ErrInvalidOperation(fmt.Sprintf("quest %q has an undispensed reward", questID))
		}
		if qs.InCooldown(q, e.now()) {
			return domain.ErrInvalidOperation(fmt.Sprintf("quest %q is still in cooldown", questID))
		}
	}

	available, err := e.IsAvailable(st, questID)
	if err != nil {
		return err
	}
	if !available {
		return domain.ErrInvalidOperation(fmt.Sprintf("quest %q prerequisites are not met", questID))
	}

	e.beginCycle(qs)
	return nil
}

// beginCycle resets a quest state for a fresh active run.
func (e *Engine) beginCycle(qs *domain.QuestState) {
	qs.Status = domain.QuestActive
	qs.ActivatedAt = e.now()
	qs.Progress = make(map[string]int64)
	qs.Dispensed = false
	qs.PendingDispense = false
	qs.RarityRolls = nil
}

// RecordProgress advances one objective of an active quest. Counting
// objectives (collect, score) take delta; all other types treat the call
// as a discrete occurred signal that jumps straight to target. Progress is
// clamped and never exceeds target. Signals for inactive or completed
// quests report no change, which tolerates duplicate delivery of the same
// gameplay event.
func (e *Engine) RecordProgress(st *domain.PlayerState, questID, objectiveID string, delta int64, occurred bool) (ProgressResult, error) {
	q, ok := e.catalog.Quests[questID]
	if !ok {
		return ProgressResult{}, domain.ErrInvalidOperation(fmt.Sprintf("unknown quest %q", questID))
	}
	obj := q.Objective(objectiveID)
	if obj == nil {
		return ProgressResult{}, domain.ErrInvalidOperation(fmt.Sprintf("quest %q has no objective %q", questID, objectiveID))
	}

	qs, ok := st.Quests[questID]
	if !ok || qs.Status != domain.QuestActive {
		return ProgressResult{}, nil
	}

	cur := qs.Progress[objectiveID]
	next := cur
	if obj.Type.Counting() && !occurred {
		if delta <= 0 {
			return ProgressResult{}, nil
		}
		next = cur + delta
	} else {
		next = obj.Target
	}
	if next > obj.Target {
		next = obj.Target
	}
	if next == cur {
		return ProgressResult{}, nil
	}

	qs.Progress[objectiveID] = next
	res := ProgressResult{
		Changed:            true,
		ObjectiveCompleted: next >= obj.Target,
	}

	// Only non-optional objectives gate completion.
	completed := true
	for _, o := range q.Objectives {
		if !o.Optional && qs.Progress[o.ID] < o.Target {
			completed = false
			break
		}
	}
	if completed {
		now := e.now()
		qs.Status = domain.QuestCompleted
		qs.LastCompletedAt = &now
		qs.CompletionCount++
		qs.PendingDispense = true
		res.QuestCompleted = true
	}
	return res, nil
}
