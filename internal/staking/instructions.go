package staking

import (
	"encoding/binary"

	"solana-staking-pipeline/internal/solana"
)

// Instruction payloads carry the 8-byte instruction discriminator followed
// by little-endian arguments in declaration order.

// CreatePoolParams are the pool parameters encoded into create_stake_pool.
type CreatePoolParams struct {
	Nonce       uint8
	MinDuration uint64 // seconds
	MaxDuration uint64 // seconds
	MaxWeight   uint64 // scaled by 10^9
}

// CreateStakePoolInstruction builds the create_stake_pool instruction.
func (p *Program) CreateStakePoolInstruction(authority, mint solana.PublicKey, params CreatePoolParams) (solana.Instruction, error) {
	pool, err := p.StakePoolAddress(authority, mint, params.Nonce)
	if err != nil {
		return solana.Instruction{}, err
	}
	stakeMint, err := p.StakeMintAddress(pool)
	if err != nil {
		return solana.Instruction{}, err
	}
	vault, err := p.VaultAddress(pool)
	if err != nil {
		return solana.Instruction{}, err
	}

	data := instructionTag("create_stake_pool")
	data = append(data, params.Nonce)
	data = binary.LittleEndian.AppendUint64(data, params.MaxWeight)
	data = binary.LittleEndian.AppendUint64(data, params.MinDuration)
	data = binary.LittleEndian.AppendUint64(data, params.MaxDuration)

	return solana.Instruction{
		ProgramID: p.ID,
		Accounts: []solana.AccountMeta{
			solana.Meta(authority).Sign().Write(),
			solana.Meta(pool).Write(),
			solana.Meta(mint),
			solana.Meta(stakeMint).Write(),
			solana.Meta(vault).Write(),
			solana.Meta(solana.TokenProgramID),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(solana.SysvarRentID),
		},
		Data: data,
	}, nil
}

// RewardPoolParams are the parameters encoded into create_reward_pool.
type RewardPoolParams struct {
	Nonce        uint8
	RewardAmount uint64 // rate per period, scaled by 10^9
	RewardPeriod uint64 // seconds
	// Permissionless allows anyone to fund the pool.
	Permissionless bool
	// AutoClaim distributes rewards on unstake without a separate claim.
	AutoClaim bool
}

// CreateRewardPoolInstruction builds the create_reward_pool instruction.
// Callers must pass its payload through PadRewardPoolData before compiling
// the transaction; see that function for the upstream defect it repairs.
func (p *Program) CreateRewardPoolInstruction(authority, pool, rewardMint solana.PublicKey, params RewardPoolParams) (solana.Instruction, error) {
	rewardPool, err := p.RewardPoolAddress(pool, params.Nonce)
	if err != nil {
		return solana.Instruction{}, err
	}
	rewardVault, err := p.RewardVaultAddress(rewardPool)
	if err != nil {
		return solana.Instruction{}, err
	}

	data := instructionTag("create_reward_pool")
	data = append(data, params.Nonce)
	data = binary.LittleEndian.AppendUint64(data, params.RewardAmount)
	data = binary.LittleEndian.AppendUint64(data, params.RewardPeriod)
	data = append(data, boolByte(params.Permissionless), boolByte(params.AutoClaim))

	return solana.Instruction{
		ProgramID: p.ID,
		Accounts: []solana.AccountMeta{
			solana.Meta(authority).Sign().Write(),
			solana.Meta(pool).Write(),
			solana.Meta(rewardPool).Write(),
			solana.Meta(rewardMint),
			solana.Meta(rewardVault).Write(),
			solana.Meta(solana.TokenProgramID),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(solana.SysvarRentID),
		},
		Data: data,
	}, nil
}

// FundRewardPoolInstruction builds the fund_reward_pool instruction moving
// rawAmount from the funder's token account into the reward vault.
func (p *Program) FundRewardPoolInstruction(funder, funderTokenAccount, pool solana.PublicKey, rewardPoolNonce uint8, rawAmount uint64) (solana.Instruction, error) {
	rewardPool, err := p.RewardPoolAddress(pool, rewardPoolNonce)
	if err != nil {
		return solana.Instruction{}, err
	}
	rewardVault, err := p.RewardVaultAddress(rewardPool)
	if err != nil {
		return solana.Instruction{}, err
	}

	data := instructionTag("fund_reward_pool")
	data = append(data, rewardPoolNonce)
	data = binary.LittleEndian.AppendUint64(data, rawAmount)

	return solana.Instruction{
		ProgramID: p.ID,
		Accounts: []solana.AccountMeta{
			solana.Meta(funder).Sign().Write(),
			solana.Meta(funderTokenAccount).Write(),
			solana.Meta(pool),
			solana.Meta(rewardPool).Write(),
			solana.Meta(rewardVault).Write(),
			solana.Meta(solana.TokenProgramID),
		},
		Data: data,
	}, nil
}

// StakeAccounts collects the derived addresses a stake instruction touches.
type StakeAccounts struct {
	Pool              solana.PublicKey
	Vault             solana.PublicKey
	StakeMint         solana.PublicKey
	StakeEntry        solana.PublicKey
	OwnerTokenAccount solana.PublicKey
	OwnerStakeAccount solana.PublicKey
}

// StakeInstruction builds the stake instruction. When reward pools are
// supplied, reward entries are created alongside the position and their
// accounts are appended after the fixed account list.
func (p *Program) StakeInstruction(owner solana.PublicKey, accts StakeAccounts, entryNonce uint8, rawAmount, durationSeconds uint64, rewardPools []solana.PublicKey) (solana.Instruction, error) {
	name := "stake"
	if len(rewardPools) > 0 {
		name = "stake_with_rewards"
	}
	data := instructionTag(name)
	data = append(data, entryNonce)
	data = binary.LittleEndian.AppendUint64(data, rawAmount)
	data = binary.LittleEndian.AppendUint64(data, durationSeconds)

	metas := []solana.AccountMeta{
		solana.Meta(owner).Sign().Write(),
		solana.Meta(accts.Pool).Write(),
		solana.Meta(accts.Vault).Write(),
		solana.Meta(accts.StakeEntry).Write(),
		solana.Meta(accts.OwnerTokenAccount).Write(),
		solana.Meta(accts.OwnerStakeAccount).Write(),
		solana.Meta(accts.StakeMint).Write(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
	}
	for _, rp := range rewardPools {
		entry, err := p.RewardEntryAddress(accts.StakeEntry, rp)
		if err != nil {
			return solana.Instruction{}, err
		}
		metas = append(metas,
			solana.Meta(rp).Write(),
			solana.Meta(entry).Write(),
		)
	}

	return solana.Instruction{ProgramID: p.ID, Accounts: metas, Data: data}, nil
}

// UnstakeAccounts collects the derived addresses an unstake instruction
// touches. RewardAccounts holds, per reward pool, the owner's receiving
// token account.
type UnstakeAccounts struct {
	Pool              solana.PublicKey
	Vault             solana.PublicKey
	StakeMint         solana.PublicKey
	StakeEntry        solana.PublicKey
	OwnerTokenAccount solana.PublicKey
	OwnerStakeAccount solana.PublicKey
}

// RewardPoolAccounts groups a reward pool with the owner-side account that
// receives claimed rewards.
type RewardPoolAccounts struct {
	RewardPool  solana.PublicKey
	RewardVault solana.PublicKey
	Destination solana.PublicKey
}

// UnstakeInstruction builds the unstake instruction, closing the position.
// Supplied reward pools are claimed in the same instruction.
func (p *Program) UnstakeInstruction(owner solana.PublicKey, accts UnstakeAccounts, rewardPools []RewardPoolAccounts) (solana.Instruction, error) {
	name := "unstake"
	if len(rewardPools) > 0 {
		name = "unstake_and_claim"
	}
	data := instructionTag(name)

	metas := []solana.AccountMeta{
		solana.Meta(owner).Sign().Write(),
		solana.Meta(accts.Pool).Write(),
		solana.Meta(accts.Vault).Write(),
		solana.Meta(accts.StakeEntry).Write(),
		solana.Meta(accts.OwnerTokenAccount).Write(),
		solana.Meta(accts.OwnerStakeAccount).Write(),
		solana.Meta(accts.StakeMint).Write(),
		solana.Meta(solana.TokenProgramID),
	}
	for _, rp := range rewardPools {
		entry, err := p.RewardEntryAddress(accts.StakeEntry, rp.RewardPool)
		if err != nil {
			return solana.Instruction{}, err
		}
		metas = append(metas,
			solana.Meta(rp.RewardPool).Write(),
			solana.Meta(rp.RewardVault).Write(),
			solana.Meta(rp.Destination).Write(),
			solana.Meta(entry).Write(),
		)
	}

	return solana.Instruction{ProgramID: p.ID, Accounts: metas, Data: data}, nil
}

// ClaimInstruction builds one claim instruction for a single reward pool.
// Claim-only transactions concatenate one per reward pool.
func (p *Program) ClaimInstruction(owner, pool, stakeEntry solana.PublicKey, rp RewardPoolAccounts) (solana.Instruction, error) {
	entry, err := p.RewardEntryAddress(stakeEntry, rp.RewardPool)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.Instruction{
		ProgramID: p.ID,
		Accounts: []solana.AccountMeta{
			solana.Meta(owner).Sign().Write(),
			solana.Meta(pool),
			solana.Meta(stakeEntry).Write(),
			solana.Meta(rp.RewardPool).Write(),
			solana.Meta(rp.RewardVault).Write(),
			solana.Meta(rp.Destination).Write(),
			solana.Meta(entry).Write(),
			solana.Meta(solana.TokenProgramID),
		},
		Data: instructionTag("claim"),
	}, nil
}

// CreateAssociatedTokenAccountInstruction builds the idempotent ATA-create
// instruction for a wallet and mint under the given token program.
func CreateAssociatedTokenAccountInstruction(payer, wallet, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	ata, err := solana.FindAssociatedTokenAddress(wallet, mint, tokenProgram)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.Instruction{
		ProgramID: solana.AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(payer).Sign().Write(),
			solana.Meta(ata).Write(),
			solana.Meta(wallet),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(tokenProgram),
		},
		// create_idempotent: no-op when the account already exists
		Data: []byte{1},
	}, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
