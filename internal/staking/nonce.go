package staking

import (
	"context"
	"fmt"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
)

// ListStakeEntries retrieves all stake entries for an (owner, pool) pair via
// a filtered program account scan.
func (p *Program) ListStakeEntries(ctx context.Context, rpc solana.RPCClient, owner, pool solana.PublicKey) ([]*domain.StakeEntry, error) {
	tag := StakeEntryTag()
	accounts, err := rpc.GetProgramAccounts(ctx, p.ID.String(), []solana.ProgramFilter{
		solana.MemcmpFilterAt(0, tag[:]),
		solana.MemcmpFilterAt(StakeEntryOwnerOffset, owner[:]),
		solana.MemcmpFilterAt(StakeEntryPoolOffset, pool[:]),
	})
	if err != nil {
		return nil, fmt.Errorf("list stake entries: %w", err)
	}

	entries := make([]*domain.StakeEntry, 0, len(accounts))
	for _, acc := range accounts {
		entry, err := DecodeStakeEntry(acc.Pubkey, acc.Account.Data)
		if err != nil {
			// The scan can surface unrelated accounts when the node
			// ignores filters; skip anything that does not decode.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FindFreeNonce returns the lowest nonce in [0,255] not used by any existing
// stake entry for the (owner, pool) pair, or ErrNonceExhausted when all 256
// slots are taken.
//
// This is a read-then-use pattern with no reservation step: two concurrent
// stake requests from the same owner can observe the same free nonce, and
// the on-chain program rejects one of the racing transactions. No locking is
// applied here.
func (p *Program) FindFreeNonce(ctx context.Context, rpc solana.RPCClient, owner, pool solana.PublicKey) (uint8, error) {
	entries, err := p.ListStakeEntries(ctx, rpc, owner, pool)
	if err != nil {
		return 0, err
	}
	return lowestFreeNonce(entries)
}

func lowestFreeNonce(entries []*domain.StakeEntry) (uint8, error) {
	var used [256]bool
	for _, e := range entries {
		used[e.Nonce] = true
	}
	for n := 0; n < 256; n++ {
		if !used[n] {
			return uint8(n), nil
		}
	}
	return 0, ErrNonceExhausted
}
