package postgres

import (
	"context"
	"fmt"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/storage"
)

// PoolCacheStore implements storage.PoolCacheStore using PostgreSQL.
type PoolCacheStore struct {
	pool *Pool
}

// NewPoolCacheStore creates a new PoolCacheStore.
func NewPoolCacheStore(pool *Pool) *PoolCacheStore {
	return &PoolCacheStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolCacheStore = (*PoolCacheStore)(nil)

// Get retrieves the cached pool record for an owner.
func (s *PoolCacheStore) Get(ctx context.Context, ownerID string) (*domain.PoolCacheRecord, error) {
	if ownerID == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT owner_id, stake_pool, mint, reward_pool_nonce, reward_mint, updated_at
		FROM pool_cache
		WHERE owner_id = $1
	`

	rec := &domain.PoolCacheRecord{}
	err := s.pool.QueryRow(ctx, query, ownerID).Scan(
		&rec.OwnerID,
		&rec.StakePool,
		&rec.Mint,
		&rec.RewardPoolNonce,
		&rec.RewardMint,
		&rec.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool cache record: %w", err)
	}
	return rec, nil
}

// Upsert inserts or replaces the cached pool record for an owner.
func (s *PoolCacheStore) Upsert(ctx context.Context, rec *domain.PoolCacheRecord) error {
	if rec == nil || rec.OwnerID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pool_cache (owner_id, stake_pool, mint, reward_pool_nonce, reward_mint, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			stake_pool = EXCLUDED.stake_pool,
			mint = EXCLUDED.mint,
			reward_pool_nonce = EXCLUDED.reward_pool_nonce,
			reward_mint = EXCLUDED.reward_mint,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		rec.OwnerID,
		rec.StakePool,
		rec.Mint,
		rec.RewardPoolNonce,
		rec.RewardMint,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pool cache record: %w", err)
	}
	return nil
}
