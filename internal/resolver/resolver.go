// Package resolver maps application owners and token mints to stake pool
// addresses, reconciling a local cache against canonical on-chain state.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/staking"
	"solana-staking-pipeline/internal/storage"
)

// PoolResolver resolves stake pool addresses with cache-first lookups and
// on-chain fallback. The cache self-heals: pools found on chain but missing
// from the cache are written back.
type PoolResolver struct {
	program *staking.Program
	rpc     solana.RPCClient
	cache   storage.PoolCacheStore
	logger  *log.Logger
}

// Options configures a PoolResolver.
type Options struct {
	Program *staking.Program
	RPC     solana.RPCClient
	Cache   storage.PoolCacheStore
	Logger  *log.Logger
}

// New creates a PoolResolver.
func New(opts Options) *PoolResolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &PoolResolver{
		program: opts.Program,
		rpc:     opts.RPC,
		cache:   opts.Cache,
		logger:  logger,
	}
}

// Resolve returns the stake pool address for an owner and token mint.
//
// The cache is consulted first but never trusted exclusively: a cached
// record for a different mint is ignored and re-derived. On cache miss the
// on-chain pools for the mint are scanned; when several exist the lowest
// base58 address wins, so repeated resolutions are stable regardless of the
// undefined RPC result order. Returns staking.ErrPoolNotFound when no pool
// exists for the mint.
func (r *PoolResolver) Resolve(ctx context.Context, ownerID, mint string) (string, error) {
	rec, err := r.cache.Get(ctx, ownerID)
	if err == nil && rec.Mint == mint && rec.StakePool != "" {
		return rec.StakePool, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		// A broken cache never blocks resolution; fall through to chain.
		r.logger.Printf("pool cache read failed for owner %s: %v", ownerID, err)
	}

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return "", fmt.Errorf("parse mint: %w", err)
	}

	pools, err := r.program.FindPoolsByMint(ctx, r.rpc, mintKey)
	if err != nil {
		return "", err
	}
	if len(pools) == 0 {
		return "", staking.ErrPoolNotFound
	}
	pool := pools[0]

	// Self-heal: record the discovery so the next resolution skips the scan.
	r.writeCache(ctx, ownerID, pool)

	return pool.Address, nil
}

// SavePool persists a pool record after a successful on-chain creation.
func (r *PoolResolver) SavePool(ctx context.Context, ownerID string, pool *domain.StakePool, rewardPoolNonce uint8, rewardMint string) error {
	rec := &domain.PoolCacheRecord{
		OwnerID:         ownerID,
		StakePool:       pool.Address,
		Mint:            pool.Mint,
		RewardPoolNonce: rewardPoolNonce,
		RewardMint:      rewardMint,
		UpdatedAt:       time.Now().UnixMilli(),
	}
	if err := r.cache.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("save pool record: %w", err)
	}
	return nil
}

func (r *PoolResolver) writeCache(ctx context.Context, ownerID string, pool *domain.StakePool) {
	rec := &domain.PoolCacheRecord{
		OwnerID:   ownerID,
		StakePool: pool.Address,
		Mint:      pool.Mint,
		UpdatedAt: time.Now().UnixMilli(),
	}
	if err := r.cache.Upsert(ctx, rec); err != nil {
		r.logger.Printf("pool cache writeback failed for owner %s: %v", ownerID, err)
	}
}
