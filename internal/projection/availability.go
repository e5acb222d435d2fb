package projection

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/chainquest/platform/internal/engine"
)

// AvailabilityCache memoizes the per-player availability projection. Any
// state mutation for a player must invalidate their entry; reads that miss
// recompute from the engine and repopulate.
type AvailabilityCache struct {
	cache *lru.Cache
}

// NewAvailabilityCache creates a cache bounded to size players.
func NewAvailabilityCache(size int) (*AvailabilityCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &AvailabilityCache{cache: c}, nil
}

// Get returns the cached availability for a player, if present.
func (a *AvailabilityCache) Get(playerID uuid.UUID) (engine.Availability, bool) {
	v, ok := a.cache.Get(playerID)
	if !ok {
		return engine.Availability{}, false
	}
	av, ok := v.(engine.Availability)
	return av, ok
}

// Put stores the availability for a player.
func (a *AvailabilityCache) Put(playerID uuid.UUID, av engine.Availability) {
	a.cache.Add(playerID, av)
}

// Invalidate drops the cached entry after a state mutation.
func (a *AvailabilityCache) Invalidate(playerID uuid.UUID) {
	a.cache.Remove(playerID)
}

// Purge drops every entry, used when the catalog is reloaded.
func (a *AvailabilityCache) Purge() {
	a.cache.Purge()
}
