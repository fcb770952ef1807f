package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/resolver"
	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/solana/stub"
	"solana-staking-pipeline/internal/staking"
	"solana-staking-pipeline/internal/storage/memory"
	"solana-staking-pipeline/internal/submit"
	"solana-staking-pipeline/internal/txbuild"
)

// echoCustody signs by returning the transaction unchanged.
type echoCustody struct {
	calls int
	err   error
}

func (c *echoCustody) SignTransaction(_ context.Context, req submit.SignRequest) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return req.Transaction, nil
}

// fixedStrategy accepts every transaction with a fixed signature.
type fixedStrategy struct {
	sig string
	err error
}

func (s *fixedStrategy) Name() string { return "test" }

func (s *fixedStrategy) Submit(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.sig, nil
}

type runnerEnv struct {
	runner   *Runner
	rpc      *stub.RPCClient
	program  *staking.Program
	custody  *echoCustody
	auditLog *memory.SubmissionLogStore
	owner    solana.PublicKey
	mint     solana.PublicKey
	pool     solana.PublicKey
}

func newRunnerEnv(t *testing.T) *runnerEnv {
	t.Helper()

	program, err := staking.NewProgram(solana.PublicKey{250}.String())
	require.NoError(t, err)

	owner := solana.PublicKey{1}
	mint := solana.PublicKey{2}

	pool, err := program.StakePoolAddress(owner, mint, 0)
	require.NoError(t, err)
	stakeMint, err := program.StakeMintAddress(pool)
	require.NoError(t, err)
	vault, err := program.VaultAddress(pool)
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	rpc.SendSignature = "confirmed-sig"
	rpc.Statuses["confirmed-sig"] = &solana.SignatureStatus{ConfirmationStatus: "confirmed"}

	poolData, err := staking.EncodeStakePool(&domain.StakePool{
		Authority:   owner.String(),
		Mint:        mint.String(),
		StakeMint:   stakeMint.String(),
		Vault:       vault.String(),
		MinDuration: 604800,
		MaxDuration: 15552000,
		MaxWeight:   4 * domain.WeightScale,
	})
	require.NoError(t, err)
	rpc.Accounts[pool.String()] = &solana.AccountInfo{Data: poolData}
	rpc.ProgramAccounts[program.ID.String()] = []solana.KeyedAccount{
		{Pubkey: pool.String(), Account: solana.AccountInfo{Data: poolData}},
	}

	logger := log.New(io.Discard, "", 0)
	custody := &echoCustody{}
	auditLog := memory.NewSubmissionLogStore()

	builder := txbuild.New(txbuild.Options{Program: program, RPC: rpc, Logger: logger})
	poolResolver := resolver.New(resolver.Options{
		Program: program,
		RPC:     rpc,
		Cache:   memory.NewPoolCacheStore(),
		Logger:  logger,
	})
	signer, err := submit.NewSigner(submit.SignerOptions{Custody: custody, Logger: logger})
	require.NoError(t, err)
	submitter, err := submit.NewSubmitter(submit.SubmitterOptions{
		Fallbacks: []submit.Strategy{&fixedStrategy{sig: "confirmed-sig"}},
		Logger:    logger,
	})
	require.NoError(t, err)
	confirmer, err := submit.NewConfirmer(submit.ConfirmerOptions{
		RPC:      rpc,
		Interval: time.Millisecond,
		Timeout:  time.Second,
		Logger:   logger,
	})
	require.NoError(t, err)

	runner, err := NewRunner(RunnerOptions{
		Program:   program,
		RPC:       rpc,
		Builder:   builder,
		Resolver:  poolResolver,
		Signer:    signer,
		Submitter: submitter,
		Confirmer: confirmer,
		AuditLog:  auditLog,
		Logger:    logger,
	})
	require.NoError(t, err)

	return &runnerEnv{
		runner:   runner,
		rpc:      rpc,
		program:  program,
		custody:  custody,
		auditLog: auditLog,
		owner:    owner,
		mint:     mint,
		pool:     pool,
	}
}

// seedStakeEntry places a position on chain for (owner, pool, nonce).
func (e *runnerEnv) seedStakeEntry(t *testing.T, nonce uint8, createdTs int64, duration uint64) {
	t.Helper()
	entryAddr, err := e.program.StakeEntryAddress(e.pool, e.owner, nonce)
	require.NoError(t, err)

	data, err := staking.EncodeStakeEntry(&domain.StakeEntry{
		Owner:     e.owner.String(),
		StakePool: e.pool.String(),
		Amount:    1_000_000,
		CreatedTs: createdTs,
		Duration:  duration,
		Nonce:     nonce,
	})
	require.NoError(t, err)
	e.rpc.Accounts[entryAddr.String()] = &solana.AccountInfo{Data: data}
	e.rpc.ProgramAccounts[e.program.ID.String()] = append(
		e.rpc.ProgramAccounts[e.program.ID.String()],
		solana.KeyedAccount{Pubkey: entryAddr.String(), Account: solana.AccountInfo{Data: data}},
	)
}

func auditStates(records []*domain.SubmissionRecord) []domain.OperationState {
	states := make([]domain.OperationState, len(records))
	for i, rec := range records {
		states[i] = rec.State
	}
	return states
}

func TestRunner_Stake_FullLifecycle(t *testing.T) {
	env := newRunnerEnv(t)

	out, err := env.runner.Stake(context.Background(), StakeRequest{
		OwnerID:         "owner-1",
		WalletID:        "wallet-1",
		Wallet:          env.owner.String(),
		Mint:            env.mint.String(),
		Amount:          "1000",
		DurationSeconds: 2592000,
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed-sig", out.Signature)
	assert.Equal(t, domain.ViaFallback, out.Via)
	assert.Equal(t, env.pool.String(), out.Pool)
	assert.Equal(t, uint8(0), out.Nonce, "first free nonce")
	assert.Equal(t, 1, env.custody.calls)

	assert.Equal(t, []domain.OperationState{
		domain.StateBuilt,
		domain.StateValidated,
		domain.StateSigned,
		domain.StateSubmitted,
		domain.StateConfirmed,
	}, auditStates(env.auditLog.All()))
}

func TestRunner_Stake_AllocatesNextNonce(t *testing.T) {
	env := newRunnerEnv(t)
	env.seedStakeEntry(t, 0, time.Now().Unix(), 604800)

	out, err := env.runner.Stake(context.Background(), StakeRequest{
		OwnerID:         "owner-1",
		WalletID:        "wallet-1",
		Wallet:          env.owner.String(),
		Mint:            env.mint.String(),
		Amount:          "1",
		DurationSeconds: 2592000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), out.Nonce)
}

func TestRunner_Unstake_LockedPositionRejected(t *testing.T) {
	env := newRunnerEnv(t)
	// Position created now with a 30-day lock: still locked.
	env.seedStakeEntry(t, 0, time.Now().Unix(), 2592000)

	_, err := env.runner.Unstake(context.Background(), UnstakeRequest{
		OwnerID:    "owner-1",
		WalletID:   "wallet-1",
		Wallet:     env.owner.String(),
		Mint:       env.mint.String(),
		EntryNonce: 0,
	})
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.Contains(t, locked.Error(), "still locked")
	assert.Zero(t, env.custody.calls, "locked positions never reach signing")
	assert.Empty(t, env.auditLog.All(), "nothing was built")
}

func TestRunner_Unstake_UnlockedPositionRuns(t *testing.T) {
	env := newRunnerEnv(t)
	// Lock elapsed a day ago.
	env.seedStakeEntry(t, 0, time.Now().Unix()-700000, 604800)

	out, err := env.runner.Unstake(context.Background(), UnstakeRequest{
		OwnerID:    "owner-1",
		WalletID:   "wallet-1",
		Wallet:     env.owner.String(),
		Mint:       env.mint.String(),
		EntryNonce: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed-sig", out.Signature)
}

func TestRunner_SubmissionFailureRecorded(t *testing.T) {
	env := newRunnerEnv(t)
	env.custody.err = errors.New("policy denied")

	_, err := env.runner.Stake(context.Background(), StakeRequest{
		OwnerID:         "owner-1",
		WalletID:        "wallet-1",
		Wallet:          env.owner.String(),
		Mint:            env.mint.String(),
		Amount:          "1",
		DurationSeconds: 2592000,
	})
	require.Error(t, err)

	records := env.auditLog.All()
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.Equal(t, domain.StateFailed, last.State)
	assert.Contains(t, last.FailReason, "policy denied")
}

func TestRunner_AuthContextForwarded(t *testing.T) {
	env := newRunnerEnv(t)

	custody := &capturingCustody{}
	signer, err := submit.NewSigner(submit.SignerOptions{Custody: custody, Logger: log.New(io.Discard, "", 0)})
	require.NoError(t, err)
	env.runner.signer = signer

	_, err = env.runner.Stake(context.Background(), StakeRequest{
		OwnerID:         "owner-1",
		WalletID:        "wallet-1",
		Wallet:          env.owner.String(),
		Mint:            env.mint.String(),
		Amount:          "1",
		DurationSeconds: 2592000,
		AuthContext:     json.RawMessage(`{"mfa":"123456"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mfa":"123456"}`, string(custody.authCtx))
}

type capturingCustody struct {
	authCtx json.RawMessage
}

func (c *capturingCustody) SignTransaction(_ context.Context, req submit.SignRequest) (string, error) {
	c.authCtx = req.AuthorizationContext
	return req.Transaction, nil
}
