// Package guard holds the small in-process protections in front of the
// engine: event dedupe, per-player serialization, oracle circuit breaking,
// ingest rate limiting, and login lockout.
package guard

import (
	"context"
	"sync"

	"github.com/chainquest/platform/internal/domain"
)

// IdempotencyGuard deduplicates chain-event deliveries by unique event id
// (transaction hash, or hash:logIndex). It is the fast in-memory path in
// front of the persistent processed-event check; the feed is at-least-once
// so duplicates are expected, not errors.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewIdempotencyGuard creates a new in-memory idempotency guard.
func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]bool),
	}
}

// Check returns whether the given event id has already been processed.
func (ig *IdempotencyGuard) Check(_ context.Context, uniqueID string) domain.GuardResult {
	if uniqueID == "" {
		return domain.GuardResult{Allowed: true}
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	if ig.seen[uniqueID] {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "duplicate delivery: event id already processed",
			Guard:   "idempotency",
		}
	}

	ig.seen[uniqueID] = true
	return domain.GuardResult{Allowed: true}
}

// Remove deletes an event id from the seen set. Used when an accepted
// event fails downstream and must be retriable.
func (ig *IdempotencyGuard) Remove(uniqueID string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, uniqueID)
}
