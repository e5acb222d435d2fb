package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chainquest/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PlayerStateRepository loads and persists the full per-player working set
// the engine mutates. The caller supplies read-modify-write semantics
// under the per-player locking discipline.
type PlayerStateRepository interface {
	// Load assembles the player state from its tables. Returns nil if the
	// player has no progression row yet.
	Load(ctx context.Context, db DBTX, playerID uuid.UUID) (*domain.PlayerState, error)

	// Create inserts the defaulted first-contact state.
	Create(ctx context.Context, db DBTX, st *domain.PlayerState) error

	// Save writes the mutated state back. The progression row carries the
	// optimistic version token; a stale version returns ErrConcurrency
	// and the caller must re-read and retry, never merge.
	Save(ctx context.Context, tx pgx.Tx, st *domain.PlayerState) error
}

// GrantRepository provides access to reward_grants, the durable record of
// every realized reward handed to the outbound effect sink.
type GrantRepository interface {
	Insert(ctx context.Context, db DBTX, grant domain.GrantedReward) error

	// ListByQuest returns the grants of one completion cycle of a player's
	// quest, oldest first. Used to replay a past dispense idempotently; a
	// repeatable quest keeps one batch of rows per cycle.
	ListByQuest(ctx context.Context, db DBTX, playerID uuid.UUID, questID string, cycle int) ([]domain.GrantedReward, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event within the same transaction as the
	// state mutation it describes.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublishedRows returns unpublished events for the poller.
	FetchUnpublishedRows(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished removes published events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}

// OutboxRow is an outbox draft plus its sequence id.
type OutboxRow struct {
	SeqID int64
	domain.OutboxDraft
}

// AuthUserRepository provides access to auth_users.
type AuthUserRepository interface {
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error)
	Create(ctx context.Context, db DBTX, user *domain.AuthUser) error
}
