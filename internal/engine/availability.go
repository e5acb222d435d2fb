package engine

import (
	"fmt"

	"github.com/chainquest/platform/internal/domain"
)

// Availability is the side output of a full availability pass.
type Availability struct {
	Quests     []string `json:"quests"`
	Characters []string `json:"characters"`
}

// resolution memoizes one availability pass so shared ancestors on a
// diamond-shaped graph are evaluated once, and flags any cycle that
// somehow survived catalog validation instead of recursing forever.
type resolution struct {
	e        *Engine
	st       *domain.PlayerState
	memo     map[string]bool
	visiting map[string]bool
}

func (e *Engine) newResolution(st *domain.PlayerState) *resolution {
	return &resolution{
		e:        e,
		st:       st,
		memo:     make(map[string]bool),
		visiting: make(map[string]bool),
	}
}

// IsAvailable reports whether the quest or character with the given id is
// currently unlockable for the player. All prerequisites must hold (AND
// semantics). A cycle encountered during recursion is a content defect and
// is reported as an error, never silently resolved.
func (e *Engine) IsAvailable(st *domain.PlayerState, id string) (bool, error) {
	r := e.newResolution(st)
	if _, ok := e.catalog.Quests[id]; ok {
		return r.questAvailable(id)
	}
	if _, ok := e.catalog.Characters[id]; ok {
		return r.characterAvailable(id)
	}
	return false, domain.ErrNotFound("definition", id)
}

// ListAvailable runs one memoized pass over every definition, excluding
// non-repeatable quests already completed and repeatable quests still
// inside their cooldown window.
func (e *Engine) ListAvailable(st *domain.PlayerState) (Availability, error) {
	r := e.newResolution(st)
	var out Availability
	now := e.now()

	for _, id := range e.sortedQuestIDs() {
		q := e.catalog.Quests[id]
		if qs, ok := st.Quests[id]; ok && (qs.Status == domain.QuestCompleted || qs.CompletionCount > 0) {
			if !q.Repeatable {
				continue
			}
			if qs.InCooldown(q, now) {
				continue
			}
		}
		ok, err := r.questAvailable(id)
		if err != nil {
			return Availability{}, err
		}
		if ok {
			out.Quests = append(out.Quests, id)
		}
	}

	for _, id := range e.sortedCharacterIDs() {
		ok, err := r.characterAvailable(id)
		if err != nil {
			return Availability{}, err
		}
		if ok {
			out.Characters = append(out.Characters, id)
		}
	}
	return out, nil
}

func (r *resolution) questAvailable(id string) (bool, error) {
	return r.resolve("quest:"+id, func() (bool, error) {
		q := r.e.catalog.Quests[id]
		if q.LevelRequirement > 0 && r.st.Progression.Level < q.LevelRequirement {
			return false, nil
		}
		return r.prerequisitesHold(q.Prerequisites)
	})
}

func (r *resolution) characterAvailable(id string) (bool, error) {
	return r.resolve("character:"+id, func() (bool, error) {
		// An already-unlocked character satisfies its own gate.
		if r.st.Characters[id] {
			return true, nil
		}
		return r.prerequisitesHold(r.e.catalog.Characters[id].Prerequisites)
	})
}

func (r *resolution) resolve(node string, eval func() (bool, error)) (bool, error) {
	if v, ok := r.memo[node]; ok {
		return v, nil
	}
	if r.visiting[node] {
		return false, domain.ErrContent(fmt.Sprintf("prerequisite cycle reached at runtime through %s", node), nil)
	}
	r.visiting[node] = true
	defer delete(r.visiting, node)

	v, err := eval()
	if err != nil {
		return false, err
	}
	r.memo[node] = v
	return v, nil
}

func (r *resolution) prerequisitesHold(prereqs []domain.Prerequisite) (bool, error) {
	completed := r.st.CompletedQuests()
	for _, p := range prereqs {
		switch p.Type {
		case domain.PrereqLevel:
			if r.st.Progression.Level < p.Level {
				return false, nil
			}
		case domain.PrereqAchievement:
			if !r.st.Achievements[p.AchievementID] {
				return false, nil
			}
		case domain.PrereqQuest:
			if !completed[p.QuestID] {
				return false, nil
			}
		case domain.PrereqRelationship:
			if r.st.Relationships[p.CharacterID] < p.MinScore {
				return false, nil
			}
		case domain.PrereqCharacter:
			if r.st.Characters[p.CharacterID] {
				continue
			}
			ok, err := r.characterAvailable(p.CharacterID)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		default:
			return false, domain.ErrContent(fmt.Sprintf("unknown prerequisite type %q", p.Type), nil)
		}
	}
	return true, nil
}
