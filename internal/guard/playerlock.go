package guard

import (
	"sync"

	"github.com/google/uuid"
)

// PlayerLocks serializes engine operations per player. Two concurrent
// event deliveries for the same player must not interleave mid-mutation;
// cross-player operations proceed in parallel without coordination.
type PlayerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

// NewPlayerLocks creates a per-player lock set.
func NewPlayerLocks() *PlayerLocks {
	return &PlayerLocks{locks: make(map[uuid.UUID]*playerLock)}
}

// Lock acquires the lock for a player and returns the release function.
// Entries are reference counted so the map does not grow without bound.
func (pl *PlayerLocks) Lock(playerID uuid.UUID) func() {
	pl.mu.Lock()
	l, ok := pl.locks[playerID]
	if !ok {
		l = &playerLock{}
		pl.locks[playerID] = l
	}
	l.refs++
	pl.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		pl.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(pl.locks, playerID)
		}
		pl.mu.Unlock()
	}
}
