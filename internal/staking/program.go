package staking

import (
	"crypto/sha256"
	"fmt"

	"solana-staking-pipeline/internal/solana"
)

// PDA seed prefixes used by the staking program.
const (
	seedStakePool   = "stake-pool"
	seedStakeMint   = "stake-mint"
	seedVault       = "vault"
	seedStakeEntry  = "stake-entry"
	seedRewardPool  = "reward-pool"
	seedRewardVault = "reward-vault"
	seedRewardEntry = "reward-entry"
)

// Program addresses accounts and instructions for one deployment of the
// staking program.
type Program struct {
	ID solana.PublicKey
}

// NewProgram creates a Program for the given base58 program ID.
func NewProgram(programID string) (*Program, error) {
	id, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("parse staking program id: %w", err)
	}
	return &Program{ID: id}, nil
}

// instructionTag computes the 8-byte anchor instruction discriminator:
// sha256("global:<name>")[:8].
func instructionTag(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:8]
}

// accountTag computes the 8-byte anchor account discriminator:
// sha256("account:<Name>")[:8].
func accountTag(name string) [8]byte {
	h := sha256.Sum256([]byte("account:" + name))
	var tag [8]byte
	copy(tag[:], h[:8])
	return tag
}

// StakePoolAddress derives the stake pool PDA for an authority, mint and
// pool nonce.
func (p *Program) StakePoolAddress(authority, mint solana.PublicKey, nonce uint8) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedStakePool), {nonce}, mint[:], authority[:]},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive stake pool address: %w", err)
	}
	return pk, nil
}

// StakeMintAddress derives the receipt mint PDA for a pool.
func (p *Program) StakeMintAddress(pool solana.PublicKey) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedStakeMint), pool[:]},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive stake mint address: %w", err)
	}
	return pk, nil
}

// VaultAddress derives the deposit vault PDA for a pool.
func (p *Program) VaultAddress(pool solana.PublicKey) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedVault), pool[:]},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault address: %w", err)
	}
	return pk, nil
}

// StakeEntryAddress derives the stake entry PDA for an owner's position.
func (p *Program) StakeEntryAddress(pool, owner solana.PublicKey, nonce uint8) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedStakeEntry), pool[:], owner[:], {nonce}},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive stake entry address: %w", err)
	}
	return pk, nil
}

// RewardPoolAddress derives the reward pool PDA for a stake pool and nonce.
func (p *Program) RewardPoolAddress(pool solana.PublicKey, nonce uint8) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedRewardPool), pool[:], {nonce}},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive reward pool address: %w", err)
	}
	return pk, nil
}

// RewardVaultAddress derives the reward vault PDA for a reward pool.
func (p *Program) RewardVaultAddress(rewardPool solana.PublicKey) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedRewardVault), rewardPool[:]},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive reward vault address: %w", err)
	}
	return pk, nil
}

// RewardEntryAddress derives the reward entry PDA for a (stake entry,
// reward pool) pair.
func (p *Program) RewardEntryAddress(stakeEntry, rewardPool solana.PublicKey) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(seedRewardEntry), stakeEntry[:], rewardPool[:]},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive reward entry address: %w", err)
	}
	return pk, nil
}
