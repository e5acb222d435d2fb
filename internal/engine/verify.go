package engine

import (
	"github.com/chainquest/platform/internal/domain"
)

// VerificationResult reports one quest advanced by a chain event.
type VerificationResult struct {
	QuestID            string `json:"quest_id"`
	ObjectiveID        string `json:"objective_id"`
	ObjectiveCompleted bool   `json:"objective_completed"`
	QuestCompleted     bool   `json:"quest_completed"`
}

// HandleEvent verifies one decoded chain event against every reactive
// quest the player has in flight. The feed is at-least-once: a uniqueId
// already recorded is rejected as a duplicate delivery (empty result, nil
// error) even when every other criterion still matches. The identifier is
// recorded only when at least one quest accepts the event, so an event
// arriving before its quest activates can still count on redelivery.
func (e *Engine) HandleEvent(st *domain.PlayerState, rec domain.EventRecord) ([]VerificationResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if st.SeenEvents[rec.UniqueID] {
		return nil, nil
	}

	var results []VerificationResult
	for _, questID := range e.sortedQuestIDs() {
		q := e.catalog.Quests[questID]
		crit := q.Criteria
		if crit == nil || crit.Signature != rec.Signature {
			continue
		}

		qs, ok := st.Quests[questID]
		if !ok || qs.Status == domain.QuestNotStarted {
			// Activation is a precondition for progress.
			continue
		}

		if qs.Status == domain.QuestCompleted {
			if !e.reopenForRepeat(q, qs) {
				continue
			}
		} else if !e.repeatGateOpen(crit, qs) {
			continue
		}

		if crit.TimeWindow > 0 && rec.Timestamp.After(qs.ActivatedAt.Add(crit.TimeWindow)) {
			continue
		}
		if !checksPass(crit.Checks, rec.Parameters) {
			continue
		}

		var (
			pr  ProgressResult
			err error
		)
		if crit.DeltaParam != "" {
			pr, err = e.RecordProgress(st, questID, crit.ObjectiveID, rec.Parameters[crit.DeltaParam], false)
		} else {
			pr, err = e.RecordProgress(st, questID, crit.ObjectiveID, 0, true)
		}
		if err != nil {
			return nil, err
		}
		if pr.Changed {
			results = append(results, VerificationResult{
				QuestID:            questID,
				ObjectiveID:        crit.ObjectiveID,
				ObjectiveCompleted: pr.ObjectiveCompleted,
				QuestCompleted:     pr.QuestCompleted,
			})
		}
	}

	if len(results) > 0 {
		st.SeenEvents[rec.UniqueID] = true
	}
	return results, nil
}

// reopenForRepeat re-enters a completed repeatable quest once its cooldown
// and repeatability period have both elapsed, resetting objective progress
// to zero. Returns false when the quest must stay closed.
func (e *Engine) reopenForRepeat(q *domain.Quest, qs *domain.QuestState) bool {
	crit := q.Criteria
	if !q.Repeatable || crit.Repeatability == domain.RepeatOnce {
		return false
	}
	if qs.PendingDispense {
		return false
	}
	now := e.now()
	if qs.InCooldown(q, now) {
		return false
	}
	if period := crit.Repeatability.Period(); period > 0 && qs.LastCompletedAt != nil {
		if now.Sub(*qs.LastCompletedAt) < period {
			return false
		}
	}
	e.beginCycle(qs)
	return true
}

// repeatGateOpen applies the daily/weekly period to an active quest that
// has completed before (repeatable quests re-activated by the caller).
func (e *Engine) repeatGateOpen(crit *domain.EventCriteria, qs *domain.QuestState) bool {
	period := crit.Repeatability.Period()
	if period == 0 || qs.LastCompletedAt == nil {
		return true
	}
	return e.now().Sub(*qs.LastCompletedAt) >= period
}

func checksPass(checks []domain.ParameterCheck, params map[string]int64) bool {
	for _, c := range checks {
		v, ok := params[c.Param]
		if !ok {
			return false
		}
		pass, err := c.Op.Eval(v, c.Value)
		if err != nil || !pass {
			return false
		}
	}
	return true
}
