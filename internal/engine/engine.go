// Package engine implements the progression and quest-gating rules as a
// pure, synchronous function set over externally-owned player state:
// state in, new state plus result out. Loading, locking, persistence, and
// transport live at the boundary (see the service package); the one
// exception is the randomness oracle, consumed through RandomSource during
// dispense.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/chainquest/platform/internal/catalog"
)

// RandomWordMax bounds the half-open range [0, RandomWordMax) of every
// word returned by a RandomSource.
const RandomWordMax = 1_000_000_000

// RandomSource supplies unbiased random words. Implemented by the
// randomness oracle client; the engine is the sole consumer of raw values
// and performs its own bucketing into rarity tiers.
type RandomSource interface {
	RandomWords(ctx context.Context, n int) ([]uint64, error)
}

// Engine evaluates progression and quest rules against a validated catalog.
// Engine itself is stateless and safe for concurrent use; callers must
// serialize operations per player (see guard.PlayerLocks).
type Engine struct {
	catalog *catalog.Catalog
	oracle  RandomSource
	now     func() time.Time
}

// New creates an engine over the given catalog and randomness source.
func New(cat *catalog.Catalog, oracle RandomSource) *Engine {
	return &Engine{catalog: cat, oracle: oracle, now: time.Now}
}

// Catalog returns the content set the engine runs against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

func (e *Engine) sortedQuestIDs() []string {
	ids := make([]string, 0, len(e.catalog.Quests))
	for id := range e.catalog.Quests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) sortedCharacterIDs() []string {
	ids := make([]string, 0, len(e.catalog.Characters))
	for id := range e.catalog.Characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
