package storage

import (
	"context"

	"solana-staking-pipeline/internal/domain"
)

// PoolCacheStore provides access to pool_cache storage.
//
// The cache is a derived artifact, never the source of truth: callers treat
// a hit as a hint and re-derive from on-chain state on miss or staleness.
type PoolCacheStore interface {
	// Get retrieves the cached pool record for an owner.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, ownerID string) (*domain.PoolCacheRecord, error)

	// Upsert inserts or replaces the cached pool record for an owner.
	Upsert(ctx context.Context, rec *domain.PoolCacheRecord) error
}

// SubmissionLogStore provides access to the submission_log audit trail.
type SubmissionLogStore interface {
	// Insert appends one state transition. The log is append-only.
	Insert(ctx context.Context, rec *domain.SubmissionRecord) error

	// GetBySignature retrieves all transitions recorded for a signature,
	// ordered by occurrence time ASC.
	GetBySignature(ctx context.Context, signature string) ([]*domain.SubmissionRecord, error)
}
