package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chainquest/platform/internal/catalog"
	"github.com/chainquest/platform/internal/domain"
)

// testNow is the frozen clock every test engine runs on.
var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// fakeOracle hands out a scripted word sequence and counts requests.
type fakeOracle struct {
	words []uint64
	err   error
	calls int
}

// RandomWords serves the scripted sequence; once exhausted it returns err
// when set, zeros otherwise.
func (f *fakeOracle) RandomWords(_ context.Context, n int) ([]uint64, error) {
	f.calls++
	if len(f.words) >= n {
		out := f.words[:n]
		f.words = f.words[n:]
		return out, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return make([]uint64, n), nil
}

func testEngine(cat *catalog.Catalog, oracle RandomSource) *Engine {
	e := New(cat, oracle)
	e.now = func() time.Time { return testNow }
	return e
}

// baseCatalog is an empty validated-shape catalog with a linear curve:
// advancing from level n costs 100*n experience.
func baseCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Quests:       map[string]*domain.Quest{},
		Characters:   map[string]*domain.Character{},
		Achievements: map[string]string{},
		SkillTiers:   map[domain.SkillBranchID][]domain.SkillTier{},
		LevelCurve:   domain.LevelCurve{{MinLevel: 1, Slope: 100}},
		LevelGrants:  map[int]domain.LevelGrant{},

		PrestigeMinLevel:     5,
		PrestigeMasteryBonus: 10,
	}
}

func newPlayer() *domain.PlayerState {
	return domain.NewPlayerState(uuid.New())
}

// interactQuest is a minimal one-objective quest that completes on a
// single occurred signal.
func interactQuest(id string) *domain.Quest {
	return &domain.Quest{
		ID:    id,
		Title: id,
		Objectives: []domain.Objective{
			{ID: "do", Type: domain.ObjectiveInteract, Target: 1},
		},
	}
}

// completeQuest drives a quest with a single "do" objective to completed.
func completeQuest(e *Engine, st *domain.PlayerState, questID string) error {
	if err := e.Activate(st, questID); err != nil {
		return err
	}
	_, err := e.RecordProgress(st, questID, "do", 0, true)
	return err
}
