package staking

import (
	"context"
	"fmt"
	"sort"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
)

// GetStakePool fetches and decodes one stake pool account.
// Returns ErrPoolNotFound for missing accounts.
func (p *Program) GetStakePool(ctx context.Context, rpc solana.RPCClient, address string) (*domain.StakePool, error) {
	info, err := rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch stake pool %s: %w", address, err)
	}
	if info == nil {
		return nil, ErrPoolNotFound
	}
	return DecodeStakePool(address, info.Data)
}

// GetRewardPool fetches and decodes one reward pool account.
// Returns ErrRewardPoolNotFound for missing accounts.
func (p *Program) GetRewardPool(ctx context.Context, rpc solana.RPCClient, address string) (*domain.RewardPool, error) {
	info, err := rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch reward pool %s: %w", address, err)
	}
	if info == nil {
		return nil, ErrRewardPoolNotFound
	}
	return DecodeRewardPool(address, info.Data)
}

// FindPoolsByMint scans the program for stake pools over the given token
// mint. Results are sorted by address so that repeated scans are stable:
// the RPC search order is undefined, and callers that pick "the first pool"
// need a deterministic tie-break.
func (p *Program) FindPoolsByMint(ctx context.Context, rpc solana.RPCClient, mint solana.PublicKey) ([]*domain.StakePool, error) {
	tag := StakePoolTag()
	accounts, err := rpc.GetProgramAccounts(ctx, p.ID.String(), []solana.ProgramFilter{
		solana.MemcmpFilterAt(0, tag[:]),
		solana.MemcmpFilterAt(StakePoolMintOffset, mint[:]),
	})
	if err != nil {
		return nil, fmt.Errorf("scan stake pools: %w", err)
	}

	pools := make([]*domain.StakePool, 0, len(accounts))
	for _, acc := range accounts {
		pool, err := DecodeStakePool(acc.Pubkey, acc.Account.Data)
		if err != nil {
			continue
		}
		pools = append(pools, pool)
	}

	sort.Slice(pools, func(i, j int) bool {
		return pools[i].Address < pools[j].Address
	})
	return pools, nil
}

// ListRewardPools scans the program for reward pools belonging to a stake
// pool, sorted by nonce. The first entry is treated as authoritative for
// APY display.
func (p *Program) ListRewardPools(ctx context.Context, rpc solana.RPCClient, pool solana.PublicKey) ([]*domain.RewardPool, error) {
	tag := RewardPoolTag()
	accounts, err := rpc.GetProgramAccounts(ctx, p.ID.String(), []solana.ProgramFilter{
		solana.MemcmpFilterAt(0, tag[:]),
		solana.MemcmpFilterAt(RewardPoolParentOffset, pool[:]),
	})
	if err != nil {
		return nil, fmt.Errorf("scan reward pools: %w", err)
	}

	pools := make([]*domain.RewardPool, 0, len(accounts))
	for _, acc := range accounts {
		rp, err := DecodeRewardPool(acc.Pubkey, acc.Account.Data)
		if err != nil {
			continue
		}
		pools = append(pools, rp)
	}

	sort.Slice(pools, func(i, j int) bool {
		return pools[i].Nonce < pools[j].Nonce
	})
	return pools, nil
}
