// Package txbuild composes protocol and account-setup instructions into
// unsigned, size-validated transactions for each staking operation.
package txbuild

import (
	"context"
	"fmt"
	"log"

	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/staking"
)

// Builder produces base64-encoded unsigned transactions. Every operation
// fetches a fresh blockhash and sets the owner as fee payer; signatures are
// zero placeholders until the Signer runs.
type Builder struct {
	program *staking.Program
	rpc     solana.RPCClient
	logger  *log.Logger
}

// Options configures a Builder.
type Options struct {
	Program *staking.Program
	RPC     solana.RPCClient
	Logger  *log.Logger
}

// New creates a Builder.
func New(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		program: opts.Program,
		rpc:     opts.RPC,
		logger:  logger,
	}
}

// CreatePool builds the create_stake_pool transaction and returns it with
// the derived pool address.
func (b *Builder) CreatePool(ctx context.Context, owner, mint string, params staking.CreatePoolParams) (string, string, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", "", fmt.Errorf("parse owner: %w", err)
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return "", "", fmt.Errorf("parse mint: %w", err)
	}

	ins, err := b.program.CreateStakePoolInstruction(ownerKey, mintKey, params)
	if err != nil {
		return "", "", err
	}

	pool, err := b.program.StakePoolAddress(ownerKey, mintKey, params.Nonce)
	if err != nil {
		return "", "", err
	}

	tx, err := b.compile(ctx, ownerKey, []solana.Instruction{ins})
	if err != nil {
		return "", "", err
	}
	return tx, pool.String(), nil
}

// CreateRewardPool builds the create_reward_pool transaction. The
// instruction payload is passed through the serialization patch before the
// transaction is compiled.
func (b *Builder) CreateRewardPool(ctx context.Context, owner, pool, rewardMint string, params staking.RewardPoolParams) (string, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", fmt.Errorf("parse owner: %w", err)
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return "", fmt.Errorf("parse pool: %w", err)
	}
	mintKey, err := solana.PublicKeyFromBase58(rewardMint)
	if err != nil {
		return "", fmt.Errorf("parse reward mint: %w", err)
	}

	ins, err := b.program.CreateRewardPoolInstruction(ownerKey, poolKey, mintKey, params)
	if err != nil {
		return "", err
	}
	ins.Data = staking.PadRewardPoolData(ins.Data)

	return b.compile(ctx, ownerKey, []solana.Instruction{ins})
}

// FundRewardPool builds the fund_reward_pool transaction. The human-readable
// amount is converted through the exact decimal-shift codec using the reward
// mint's on-chain decimals.
func (b *Builder) FundRewardPool(ctx context.Context, owner, pool, rewardMint, humanAmount string, rewardPoolNonce uint8) (string, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", fmt.Errorf("parse owner: %w", err)
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return "", fmt.Errorf("parse pool: %w", err)
	}
	mintKey, err := solana.PublicKeyFromBase58(rewardMint)
	if err != nil {
		return "", fmt.Errorf("parse reward mint: %w", err)
	}

	decimals := staking.DecimalsOf(ctx, b.rpc, rewardMint)
	raw, err := staking.ToRaw(humanAmount, decimals)
	if err != nil {
		return "", fmt.Errorf("convert amount: %w", err)
	}

	tokenProgram := b.tokenProgramFor(ctx, rewardMint)
	funderAccount, err := solana.FindAssociatedTokenAddress(ownerKey, mintKey, tokenProgram)
	if err != nil {
		return "", err
	}

	ins, err := b.program.FundRewardPoolInstruction(ownerKey, funderAccount, poolKey, rewardPoolNonce, raw)
	if err != nil {
		return "", err
	}

	return b.compile(ctx, ownerKey, []solana.Instruction{ins})
}

// Stake builds the stake transaction: account setup for any missing
// associated token accounts, then the stake instruction, combined with
// reward entry creation when reward pools are supplied.
func (b *Builder) Stake(ctx context.Context, owner, pool, mint, humanAmount string, durationSeconds uint64, entryNonce uint8, rewardPools []string) (string, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", fmt.Errorf("parse owner: %w", err)
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return "", fmt.Errorf("parse pool: %w", err)
	}

	// The receipt mint lives on the pool account and is distinct from the
	// staked token's mint.
	poolState, err := b.program.GetStakePool(ctx, b.rpc, pool)
	if err != nil {
		return "", err
	}
	if poolState.Mint != mint {
		return "", fmt.Errorf("pool %s is for mint %s, not %s", pool, poolState.Mint, mint)
	}

	decimals := staking.DecimalsOf(ctx, b.rpc, mint)
	raw, err := staking.ToRaw(humanAmount, decimals)
	if err != nil {
		return "", fmt.Errorf("convert amount: %w", err)
	}

	var setup []solana.Instruction

	ownerTokenAccount, ins, err := b.ensureTokenAccount(ctx, ownerKey, mint)
	if err != nil {
		return "", err
	}
	setup = append(setup, ins...)

	ownerStakeAccount, ins, err := b.ensureTokenAccount(ctx, ownerKey, poolState.StakeMint)
	if err != nil {
		return "", err
	}
	setup = append(setup, ins...)

	stakeEntry, err := b.program.StakeEntryAddress(poolKey, ownerKey, entryNonce)
	if err != nil {
		return "", err
	}
	vaultKey, err := solana.PublicKeyFromBase58(poolState.Vault)
	if err != nil {
		return "", fmt.Errorf("parse pool vault: %w", err)
	}
	stakeMintKey, err := solana.PublicKeyFromBase58(poolState.StakeMint)
	if err != nil {
		return "", fmt.Errorf("parse stake mint: %w", err)
	}

	rewardPoolKeys, err := parseKeys(rewardPools)
	if err != nil {
		return "", fmt.Errorf("parse reward pools: %w", err)
	}

	stakeIns, err := b.program.StakeInstruction(ownerKey, staking.StakeAccounts{
		Pool:              poolKey,
		Vault:             vaultKey,
		StakeMint:         stakeMintKey,
		StakeEntry:        stakeEntry,
		OwnerTokenAccount: ownerTokenAccount,
		OwnerStakeAccount: ownerStakeAccount,
	}, entryNonce, raw, durationSeconds, rewardPoolKeys)
	if err != nil {
		return "", err
	}

	return b.compile(ctx, ownerKey, append(setup, stakeIns))
}

// Unstake builds the unstake transaction, claiming from any supplied reward
// pools in the same instruction. Receiving accounts for each reward mint are
// created first when missing.
func (b *Builder) Unstake(ctx context.Context, owner, pool, mint string, entryNonce uint8, rewardPools []string) (string, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", fmt.Errorf("parse owner: %w", err)
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return "", fmt.Errorf("parse pool: %w", err)
	}

	poolState, err := b.program.GetStakePool(ctx, b.rpc, pool)
	if err != nil {
		return "", err
	}
	if poolState.Mint != mint {
		return "", fmt.Errorf("pool %s is for mint %s, not %s", pool, poolState.Mint, mint)
	}

	var setup []solana.Instruction

	ownerTokenAccount, ins, err := b.ensureTokenAccount(ctx, ownerKey, poolState.Mint)
	if err != nil {
		return "", err
	}
	setup = append(setup, ins...)

	ownerStakeAccount, ins, err := b.ensureTokenAccount(ctx, ownerKey, poolState.StakeMint)
	if err != nil {
		return "", err
	}
	setup = append(setup, ins...)

	rewardAccounts, rewardSetup, err := b.rewardPoolAccounts(ctx, ownerKey, rewardPools)
	if err != nil {
		return "", err
	}
	setup = append(setup, rewardSetup...)

	stakeEntry, err := b.program.StakeEntryAddress(poolKey, ownerKey, entryNonce)
	if err != nil {
		return "", err
	}
	vaultKey, err := solana.PublicKeyFromBase58(poolState.Vault)
	if err != nil {
		return "", fmt.Errorf("parse pool vault: %w", err)
	}
	stakeMintKey, err := solana.PublicKeyFromBase58(poolState.StakeMint)
	if err != nil {
		return "", fmt.Errorf("parse stake mint: %w", err)
	}

	unstakeIns, err := b.program.UnstakeInstruction(ownerKey, staking.UnstakeAccounts{
		Pool:              poolKey,
		Vault:             vaultKey,
		StakeMint:         stakeMintKey,
		StakeEntry:        stakeEntry,
		OwnerTokenAccount: ownerTokenAccount,
		OwnerStakeAccount: ownerStakeAccount,
	}, rewardAccounts)
	if err != nil {
		return "", err
	}

	return b.compile(ctx, ownerKey, append(setup, unstakeIns))
}

// Claim builds a claim-only transaction: one claim instruction per reward
// pool, concatenated into a single transaction.
func (b *Builder) Claim(ctx context.Context, owner, pool string, entryNonce uint8, rewardPools []string) (string, error) {
	if len(rewardPools) == 0 {
		return "", staking.ErrRewardPoolNotFound
	}

	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", fmt.Errorf("parse owner: %w", err)
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return "", fmt.Errorf("parse pool: %w", err)
	}

	rewardAccounts, setup, err := b.rewardPoolAccounts(ctx, ownerKey, rewardPools)
	if err != nil {
		return "", err
	}

	stakeEntry, err := b.program.StakeEntryAddress(poolKey, ownerKey, entryNonce)
	if err != nil {
		return "", err
	}

	instructions := setup
	for _, rp := range rewardAccounts {
		claimIns, err := b.program.ClaimInstruction(ownerKey, poolKey, stakeEntry, rp)
		if err != nil {
			return "", err
		}
		instructions = append(instructions, claimIns)
	}

	return b.compile(ctx, ownerKey, instructions)
}

// compile fetches a fresh blockhash, compiles the instructions with the
// owner as fee payer and returns the unsigned transaction as base64.
func (b *Builder) compile(ctx context.Context, feePayer solana.PublicKey, instructions []solana.Instruction) (string, error) {
	latest, err := b.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch blockhash: %w", err)
	}
	blockhash, err := solana.HashFromBase58(latest.Blockhash)
	if err != nil {
		return "", fmt.Errorf("parse blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, feePayer)
	if err != nil {
		return "", fmt.Errorf("compile transaction: %w", err)
	}
	return tx.ToBase64()
}

// ensureTokenAccount derives the owner's associated token account for a
// mint and returns a create instruction when the account does not exist
// yet. The token program is detected from the mint account's owner,
// defaulting to the legacy program when detection fails.
func (b *Builder) ensureTokenAccount(ctx context.Context, owner solana.PublicKey, mint string) (solana.PublicKey, []solana.Instruction, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("parse mint %s: %w", mint, err)
	}

	tokenProgram := b.tokenProgramFor(ctx, mint)
	ata, err := solana.FindAssociatedTokenAddress(owner, mintKey, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}

	info, err := b.rpc.GetAccountInfo(ctx, ata.String())
	if err == nil && info != nil {
		return ata, nil, nil
	}

	ins, err := staking.CreateAssociatedTokenAccountInstruction(owner, owner, mintKey, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return ata, []solana.Instruction{ins}, nil
}

// tokenProgramFor inspects a mint account's on-chain owner to decide
// between the legacy token program and its extended variant.
func (b *Builder) tokenProgramFor(ctx context.Context, mint string) solana.PublicKey {
	info, err := b.rpc.GetAccountInfo(ctx, mint)
	if err != nil || info == nil {
		return solana.TokenProgramID
	}
	if info.Owner == solana.Token2022ProgramID.String() {
		return solana.Token2022ProgramID
	}
	return solana.TokenProgramID
}

// rewardPoolAccounts fetches each reward pool, derives the owner's
// receiving account for its mint (pre-creating missing ones) and collects
// the account triples the claim-capable instructions need.
func (b *Builder) rewardPoolAccounts(ctx context.Context, owner solana.PublicKey, rewardPools []string) ([]staking.RewardPoolAccounts, []solana.Instruction, error) {
	var accounts []staking.RewardPoolAccounts
	var setup []solana.Instruction

	for _, addr := range rewardPools {
		rp, err := b.program.GetRewardPool(ctx, b.rpc, addr)
		if err != nil {
			return nil, nil, err
		}

		rpKey, err := solana.PublicKeyFromBase58(rp.Address)
		if err != nil {
			return nil, nil, fmt.Errorf("parse reward pool: %w", err)
		}
		vaultKey, err := solana.PublicKeyFromBase58(rp.Vault)
		if err != nil {
			return nil, nil, fmt.Errorf("parse reward vault: %w", err)
		}

		dest, ins, err := b.ensureTokenAccount(ctx, owner, rp.RewardMint)
		if err != nil {
			return nil, nil, err
		}
		setup = append(setup, ins...)

		accounts = append(accounts, staking.RewardPoolAccounts{
			RewardPool:  rpKey,
			RewardVault: vaultKey,
			Destination: dest,
		})
	}

	return accounts, setup, nil
}

func parseKeys(addrs []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(addrs))
	for _, a := range addrs {
		k, err := solana.PublicKeyFromBase58(a)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", a, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}
