package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/resolver"
	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/staking"
	"solana-staking-pipeline/internal/storage"
	"solana-staking-pipeline/internal/submit"
	"solana-staking-pipeline/internal/txbuild"
)

// LockedError is returned when an unstake is requested before the
// position's lock duration has elapsed. The transaction is never built:
// the ledger would reject it anyway, so the caller gets a precise answer
// instead of a burned submission.
type LockedError struct {
	UnlockTs  int64
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	hours := int64(e.Remaining.Hours())
	if hours < 1 {
		return fmt.Sprintf("position still locked for %d minutes", int64(e.Remaining.Minutes()))
	}
	return fmt.Sprintf("position still locked for %d hours", hours)
}

// Outcome reports a completed operation.
type Outcome struct {
	Signature string
	Via       domain.SubmissionVia
	Pool      string
	Nonce     uint8
}

// Runner drives one staking operation through its full lifecycle:
// build, validate, sign, submit, confirm. Every transition is appended
// to the audit log when one is configured.
type Runner struct {
	program   *staking.Program
	rpc       solana.RPCClient
	builder   *txbuild.Builder
	resolver  *resolver.PoolResolver
	signer    *submit.Signer
	submitter *submit.Submitter
	confirmer *submit.Confirmer
	auditLog  storage.SubmissionLogStore
	logger    *log.Logger
	clock     func() time.Time
}

// RunnerOptions wires a Runner. AuditLog is optional; everything else
// is required.
type RunnerOptions struct {
	Program   *staking.Program
	RPC       solana.RPCClient
	Builder   *txbuild.Builder
	Resolver  *resolver.PoolResolver
	Signer    *submit.Signer
	Submitter *submit.Submitter
	Confirmer *submit.Confirmer
	AuditLog  storage.SubmissionLogStore
	Logger    *log.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	switch {
	case opts.Program == nil:
		return nil, fmt.Errorf("program is required")
	case opts.RPC == nil:
		return nil, fmt.Errorf("rpc client is required")
	case opts.Builder == nil:
		return nil, fmt.Errorf("builder is required")
	case opts.Resolver == nil:
		return nil, fmt.Errorf("resolver is required")
	case opts.Signer == nil:
		return nil, fmt.Errorf("signer is required")
	case opts.Submitter == nil:
		return nil, fmt.Errorf("submitter is required")
	case opts.Confirmer == nil:
		return nil, fmt.Errorf("confirmer is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{
		program:   opts.Program,
		rpc:       opts.RPC,
		builder:   opts.Builder,
		resolver:  opts.Resolver,
		signer:    opts.Signer,
		submitter: opts.Submitter,
		confirmer: opts.Confirmer,
		auditLog:  opts.AuditLog,
		logger:    opts.Logger,
		clock:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock sets a custom clock for deterministic tests.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// StakeRequest describes a stake operation for one wallet.
type StakeRequest struct {
	OwnerID         string // pool-owner identity used for resolution
	WalletID        string // custody wallet performing the stake
	Wallet          string // wallet public key, base58
	Mint            string
	Amount          string // human-readable decimal amount
	DurationSeconds uint64
	UseRelay        bool
	AuthContext     json.RawMessage
}

// Stake resolves the pool, allocates a free position nonce, builds the
// stake transaction with every reward pool attached and runs the
// lifecycle to confirmation.
func (r *Runner) Stake(ctx context.Context, req StakeRequest) (*Outcome, error) {
	pool, err := r.resolver.Resolve(ctx, req.OwnerID, req.Mint)
	if err != nil {
		return nil, err
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return nil, fmt.Errorf("parse pool: %w", err)
	}
	walletKey, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}

	nonce, err := r.program.FindFreeNonce(ctx, r.rpc, walletKey, poolKey)
	if err != nil {
		return nil, err
	}
	rewardPools, err := r.rewardPoolAddresses(ctx, poolKey)
	if err != nil {
		return nil, err
	}

	txBase64, err := r.builder.Stake(ctx, req.Wallet, pool, req.Mint, req.Amount, req.DurationSeconds, nonce, rewardPools)
	if err != nil {
		return nil, err
	}

	out, err := r.execute(ctx, req.OwnerID, "stake", req.WalletID, txBase64, req.UseRelay, req.AuthContext)
	if err != nil {
		return nil, err
	}
	out.Pool = pool
	out.Nonce = nonce
	return out, nil
}

// UnstakeRequest describes an unstake (and claim) for one position.
type UnstakeRequest struct {
	OwnerID     string
	WalletID    string
	Wallet      string
	Mint        string
	EntryNonce  uint8
	UseRelay    bool
	AuthContext json.RawMessage
}

// Unstake checks the position's lock before building anything, then runs
// the combined unstake-and-claim transaction to confirmation.
func (r *Runner) Unstake(ctx context.Context, req UnstakeRequest) (*Outcome, error) {
	pool, err := r.resolver.Resolve(ctx, req.OwnerID, req.Mint)
	if err != nil {
		return nil, err
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return nil, fmt.Errorf("parse pool: %w", err)
	}
	walletKey, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}

	if err := r.checkUnlocked(ctx, poolKey, walletKey, req.EntryNonce); err != nil {
		return nil, err
	}
	rewardPools, err := r.rewardPoolAddresses(ctx, poolKey)
	if err != nil {
		return nil, err
	}

	txBase64, err := r.builder.Unstake(ctx, req.Wallet, pool, req.Mint, req.EntryNonce, rewardPools)
	if err != nil {
		return nil, err
	}

	out, err := r.execute(ctx, req.OwnerID, "unstake", req.WalletID, txBase64, req.UseRelay, req.AuthContext)
	if err != nil {
		return nil, err
	}
	out.Pool = pool
	out.Nonce = req.EntryNonce
	return out, nil
}

// ClaimRequest describes a standalone reward claim for one position.
type ClaimRequest struct {
	OwnerID     string
	WalletID    string
	Wallet      string
	Mint        string
	EntryNonce  uint8
	UseRelay    bool
	AuthContext json.RawMessage
}

// Claim builds and runs a claim transaction covering every reward pool of
// the resolved stake pool.
func (r *Runner) Claim(ctx context.Context, req ClaimRequest) (*Outcome, error) {
	pool, err := r.resolver.Resolve(ctx, req.OwnerID, req.Mint)
	if err != nil {
		return nil, err
	}
	poolKey, err := solana.PublicKeyFromBase58(pool)
	if err != nil {
		return nil, fmt.Errorf("parse pool: %w", err)
	}
	rewardPools, err := r.rewardPoolAddresses(ctx, poolKey)
	if err != nil {
		return nil, err
	}

	txBase64, err := r.builder.Claim(ctx, req.Wallet, pool, req.EntryNonce, rewardPools)
	if err != nil {
		return nil, err
	}

	out, err := r.execute(ctx, req.OwnerID, "claim", req.WalletID, txBase64, req.UseRelay, req.AuthContext)
	if err != nil {
		return nil, err
	}
	out.Pool = pool
	out.Nonce = req.EntryNonce
	return out, nil
}

// CreatePoolRequest describes creation of a new stake pool plus its
// first reward pool.
type CreatePoolRequest struct {
	OwnerID      string
	WalletID     string
	Wallet       string
	Mint         string
	RewardMint   string
	PoolParams   staking.CreatePoolParams
	RewardParams staking.RewardPoolParams
	UseRelay     bool
	AuthContext  json.RawMessage
}

// CreatePool runs the stake-pool creation transaction to confirmation,
// then the reward-pool creation, and finally records the pool in the
// cache so later stakes resolve without a chain scan.
func (r *Runner) CreatePool(ctx context.Context, req CreatePoolRequest) (*Outcome, error) {
	txBase64, poolAddr, err := r.builder.CreatePool(ctx, req.Wallet, req.Mint, req.PoolParams)
	if err != nil {
		return nil, err
	}
	out, err := r.execute(ctx, req.OwnerID, "create_pool", req.WalletID, txBase64, req.UseRelay, req.AuthContext)
	if err != nil {
		return nil, err
	}
	out.Pool = poolAddr
	out.Nonce = req.PoolParams.Nonce

	rewardTx, err := r.builder.CreateRewardPool(ctx, req.Wallet, poolAddr, req.RewardMint, req.RewardParams)
	if err != nil {
		return nil, err
	}
	if _, err := r.execute(ctx, req.OwnerID, "create_reward_pool", req.WalletID, rewardTx, req.UseRelay, req.AuthContext); err != nil {
		return nil, err
	}

	pool, err := r.program.GetStakePool(ctx, r.rpc, poolAddr)
	if err != nil {
		// The pool exists on chain; a failed read only delays caching.
		r.logger.Printf("pool %s confirmed but read-back failed: %v", poolAddr, err)
		return out, nil
	}
	if err := r.resolver.SavePool(ctx, req.OwnerID, pool, req.RewardParams.Nonce, req.RewardMint); err != nil {
		r.logger.Printf("pool cache save failed for %s: %v", poolAddr, err)
	}
	return out, nil
}

// FundRewardPoolRequest describes a reward-pool top-up.
type FundRewardPoolRequest struct {
	OwnerID         string
	WalletID        string
	Wallet          string
	Mint            string
	RewardMint      string
	Amount          string // human-readable decimal amount
	RewardPoolNonce uint8
	UseRelay        bool
	AuthContext     json.RawMessage
}

// FundRewardPool transfers rewards into the pool's reward vault.
func (r *Runner) FundRewardPool(ctx context.Context, req FundRewardPoolRequest) (*Outcome, error) {
	pool, err := r.resolver.Resolve(ctx, req.OwnerID, req.Mint)
	if err != nil {
		return nil, err
	}

	txBase64, err := r.builder.FundRewardPool(ctx, req.Wallet, pool, req.RewardMint, req.Amount, req.RewardPoolNonce)
	if err != nil {
		return nil, err
	}

	out, err := r.execute(ctx, req.OwnerID, "fund_reward_pool", req.WalletID, txBase64, req.UseRelay, req.AuthContext)
	if err != nil {
		return nil, err
	}
	out.Pool = pool
	return out, nil
}

// execute drives a built transaction through validate, sign, submit and
// confirm, recording each transition.
func (r *Runner) execute(ctx context.Context, ownerID, operation, walletID, txBase64 string, useRelay bool, authCtx json.RawMessage) (*Outcome, error) {
	r.record(ctx, ownerID, operation, domain.StateBuilt, "", "", "")

	if err := txbuild.Validate(txBase64); err != nil {
		r.record(ctx, ownerID, operation, domain.StateFailed, "", "", err.Error())
		return nil, err
	}
	r.record(ctx, ownerID, operation, domain.StateValidated, "", "", "")

	signedTx, err := r.signer.Sign(ctx, walletID, txBase64, authCtx)
	if err != nil {
		r.record(ctx, ownerID, operation, domain.StateFailed, "", "", err.Error())
		return nil, err
	}
	r.record(ctx, ownerID, operation, domain.StateSigned, "", "", "")

	result, err := r.submitter.Submit(ctx, signedTx, useRelay)
	if err != nil {
		r.record(ctx, ownerID, operation, domain.StateFailed, "", "", err.Error())
		return nil, err
	}
	r.record(ctx, ownerID, operation, domain.StateSubmitted, result.Signature, result.Via, "")

	if err := r.confirmer.AwaitConfirmation(ctx, result.Signature); err != nil {
		r.record(ctx, ownerID, operation, domain.StateFailed, result.Signature, result.Via, err.Error())
		return nil, err
	}
	r.record(ctx, ownerID, operation, domain.StateConfirmed, result.Signature, result.Via, "")

	r.logger.Printf("%s confirmed: %s (via %s)", operation, result.Signature, result.Via)
	return &Outcome{Signature: result.Signature, Via: result.Via}, nil
}

// checkUnlocked loads the stake entry and rejects the unstake while its
// lock duration has not elapsed.
func (r *Runner) checkUnlocked(ctx context.Context, pool, wallet solana.PublicKey, nonce uint8) error {
	entryAddr, err := r.program.StakeEntryAddress(pool, wallet, nonce)
	if err != nil {
		return err
	}
	info, err := r.rpc.GetAccountInfo(ctx, entryAddr.String())
	if err != nil {
		return fmt.Errorf("fetch stake entry %s: %w", entryAddr, err)
	}
	if info == nil {
		return fmt.Errorf("stake entry %s not found", entryAddr)
	}
	entry, err := staking.DecodeStakeEntry(entryAddr.String(), info.Data)
	if err != nil {
		return err
	}

	now := r.clock().Unix()
	if unlock := entry.UnlockTs(); now < unlock {
		return &LockedError{
			UnlockTs:  unlock,
			Remaining: time.Duration(unlock-now) * time.Second,
		}
	}
	return nil
}

// rewardPoolAddresses lists every reward pool attached to a stake pool.
func (r *Runner) rewardPoolAddresses(ctx context.Context, pool solana.PublicKey) ([]string, error) {
	pools, err := r.program.ListRewardPools(ctx, r.rpc, pool)
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0, len(pools))
	for _, rp := range pools {
		addrs = append(addrs, rp.Address)
	}
	return addrs, nil
}

// record appends one audit row. The audit trail is best-effort: a
// storage failure is logged, never fatal to the operation itself.
func (r *Runner) record(ctx context.Context, ownerID, operation string, state domain.OperationState, signature string, via domain.SubmissionVia, failReason string) {
	if r.auditLog == nil {
		return
	}
	rec := &domain.SubmissionRecord{
		OwnerID:    ownerID,
		Operation:  operation,
		State:      state,
		Signature:  signature,
		Via:        via,
		FailReason: failReason,
		OccurredAt: r.clock().UnixMilli(),
	}
	if err := r.auditLog.Insert(ctx, rec); err != nil {
		r.logger.Printf("audit log insert failed (%s %s): %v", operation, state, err)
	}
}
