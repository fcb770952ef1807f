// Package main provides the staking operations CLI.
// Commands: create-pool, fund, stake, unstake, claim, info, history.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-staking-pipeline/internal/pipeline"
	"solana-staking-pipeline/internal/resolver"
	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/staking"
	"solana-staking-pipeline/internal/storage"
	chstore "solana-staking-pipeline/internal/storage/clickhouse"
	"solana-staking-pipeline/internal/storage/memory"
	pgstore "solana-staking-pipeline/internal/storage/postgres"
	"solana-staking-pipeline/internal/submit"
	"solana-staking-pipeline/internal/txbuild"
)

func main() {
	loadEnvFile()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)

	// Shared flags (env vars as defaults)
	rpcEndpoint := fs.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := fs.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, confirmation fast path)")
	relayEndpoints := fs.String("relay-endpoints", os.Getenv("RELAY_ENDPOINTS"), "Comma-separated transaction relay endpoints")
	custodyEndpoint := fs.String("custody-endpoint", os.Getenv("CUSTODY_ENDPOINT"), "Custody signing service endpoint")
	postgresDSN := fs.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (omit for in-memory pool cache)")
	clickhouseDSN := fs.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (omit to disable the audit log)")
	programID := fs.String("program-id", os.Getenv("STAKING_PROGRAM_ID"), "Staking program ID")
	ownerID := fs.String("owner-id", "", "Pool owner identity for pool resolution")
	walletID := fs.String("wallet-id", "", "Custody wallet ID")
	wallet := fs.String("wallet", "", "Wallet public key (base58)")
	mint := fs.String("mint", "", "Token mint (base58)")
	useRelay := fs.Bool("use-relay", true, "Submit through the relay tier first")

	// Command-specific flags
	amount := fs.String("amount", "", "Token amount, human-readable decimal")
	duration := fs.Uint64("duration", 0, "Lock duration in seconds")
	nonce := fs.Uint("nonce", 0, "Position nonce (unstake/claim)")
	rewardMint := fs.String("reward-mint", "", "Reward token mint (base58)")
	rewardPoolNonce := fs.Uint("reward-pool-nonce", 0, "Reward pool nonce")
	poolNonce := fs.Uint("pool-nonce", 0, "Stake pool nonce (create-pool)")
	minDuration := fs.Uint64("min-duration", 604800, "Minimum lock duration in seconds (create-pool)")
	maxDuration := fs.Uint64("max-duration", 31536000, "Maximum lock duration in seconds (create-pool)")
	maxWeight := fs.Uint64("max-weight", 1_000_000_000, "Multiplier ceiling scaled by 10^9 (create-pool)")
	rewardAmount := fs.Uint64("reward-amount", 0, "Reward rate per period scaled by 10^9 (create-pool)")
	rewardPeriod := fs.Uint64("reward-period", 86400, "Reward period in seconds (create-pool)")
	signature := fs.String("signature", "", "Transaction signature (history)")

	fs.Parse(os.Args[2:])

	logger := log.New(os.Stdout, "[stakecli] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *programID == "" {
		logger.Fatal("--program-id is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	program, err := staking.NewProgram(*programID)
	if err != nil {
		logger.Fatalf("Invalid program ID: %v", err)
	}
	rpc := solana.NewHTTPClient(*rpcEndpoint)

	poolCache, auditLog, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Read-only commands need no custody or submission wiring.
	switch command {
	case "info":
		if err := runInfo(ctx, program, rpc, *mint, *duration); err != nil {
			logger.Fatalf("info: %v", err)
		}
		return
	case "history":
		if err := runHistory(ctx, auditLog, *signature); err != nil {
			logger.Fatalf("history: %v", err)
		}
		return
	}

	if *custodyEndpoint == "" {
		logger.Fatal("--custody-endpoint is required")
	}
	runner, err := createRunner(ctx, runnerDeps{
		program:         program,
		rpc:             rpc,
		wsEndpoint:      *wsEndpoint,
		relayEndpoints:  splitList(*relayEndpoints),
		rpcEndpoint:     *rpcEndpoint,
		custodyEndpoint: *custodyEndpoint,
		poolCache:       poolCache,
		auditLog:        auditLog,
		logger:          logger,
	})
	if err != nil {
		logger.Fatalf("Failed to wire runner: %v", err)
	}

	var outcome *pipeline.Outcome
	switch command {
	case "create-pool":
		outcome, err = runner.CreatePool(ctx, pipeline.CreatePoolRequest{
			OwnerID:    *ownerID,
			WalletID:   *walletID,
			Wallet:     *wallet,
			Mint:       *mint,
			RewardMint: *rewardMint,
			PoolParams: staking.CreatePoolParams{
				Nonce:       uint8(*poolNonce),
				MinDuration: *minDuration,
				MaxDuration: *maxDuration,
				MaxWeight:   *maxWeight,
			},
			RewardParams: staking.RewardPoolParams{
				Nonce:        uint8(*rewardPoolNonce),
				RewardAmount: *rewardAmount,
				RewardPeriod: *rewardPeriod,
			},
			UseRelay: *useRelay,
		})
	case "fund":
		outcome, err = runner.FundRewardPool(ctx, pipeline.FundRewardPoolRequest{
			OwnerID:         *ownerID,
			WalletID:        *walletID,
			Wallet:          *wallet,
			Mint:            *mint,
			RewardMint:      *rewardMint,
			Amount:          *amount,
			RewardPoolNonce: uint8(*rewardPoolNonce),
			UseRelay:        *useRelay,
		})
	case "stake":
		outcome, err = runner.Stake(ctx, pipeline.StakeRequest{
			OwnerID:         *ownerID,
			WalletID:        *walletID,
			Wallet:          *wallet,
			Mint:            *mint,
			Amount:          *amount,
			DurationSeconds: *duration,
			UseRelay:        *useRelay,
		})
	case "unstake":
		outcome, err = runner.Unstake(ctx, pipeline.UnstakeRequest{
			OwnerID:    *ownerID,
			WalletID:   *walletID,
			Wallet:     *wallet,
			Mint:       *mint,
			EntryNonce: uint8(*nonce),
			UseRelay:   *useRelay,
		})
	case "claim":
		outcome, err = runner.Claim(ctx, pipeline.ClaimRequest{
			OwnerID:    *ownerID,
			WalletID:   *walletID,
			Wallet:     *wallet,
			Mint:       *mint,
			EntryNonce: uint8(*nonce),
			UseRelay:   *useRelay,
		})
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatalf("%s failed: %v", command, err)
	}
	fmt.Printf("%s confirmed\n", command)
	fmt.Printf("  signature: %s\n", outcome.Signature)
	fmt.Printf("  via:       %s\n", outcome.Via)
	if outcome.Pool != "" {
		fmt.Printf("  pool:      %s\n", outcome.Pool)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: stakecli <command> [flags]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  create-pool  Create a stake pool and its first reward pool")
	fmt.Fprintln(os.Stderr, "  fund         Fund a reward pool")
	fmt.Fprintln(os.Stderr, "  stake        Stake tokens into a pool")
	fmt.Fprintln(os.Stderr, "  unstake      Unstake a position and claim its rewards")
	fmt.Fprintln(os.Stderr, "  claim        Claim rewards without unstaking")
	fmt.Fprintln(os.Stderr, "  info         Show pool APY, multiplier and outstanding rewards")
	fmt.Fprintln(os.Stderr, "  history      Show the audit trail for a signature")
	fmt.Fprintln(os.Stderr, "Run 'stakecli <command> -h' for flags.")
}

// runnerDeps collects everything createRunner needs to wire a pipeline.Runner.
type runnerDeps struct {
	program         *staking.Program
	rpc             solana.RPCClient
	wsEndpoint      string
	relayEndpoints  []string
	rpcEndpoint     string
	custodyEndpoint string
	poolCache       storage.PoolCacheStore
	auditLog        storage.SubmissionLogStore
	logger          *log.Logger
}

func createRunner(ctx context.Context, deps runnerDeps) (*pipeline.Runner, error) {
	builder := txbuild.New(txbuild.Options{
		Program: deps.program,
		RPC:     deps.rpc,
		Logger:  deps.logger,
	})
	poolResolver := resolver.New(resolver.Options{
		Program: deps.program,
		RPC:     deps.rpc,
		Cache:   deps.poolCache,
		Logger:  deps.logger,
	})
	signer, err := submit.NewSigner(submit.SignerOptions{
		Custody: submit.NewHTTPCustodyClient(deps.custodyEndpoint, submit.WithCustodyLogger(deps.logger)),
		Logger:  deps.logger,
	})
	if err != nil {
		return nil, err
	}
	submitter, err := submit.NewSubmitterFromEndpoints(deps.relayEndpoints, []string{deps.rpcEndpoint}, deps.logger)
	if err != nil {
		return nil, err
	}

	var ws solana.WSClient
	if deps.wsEndpoint != "" {
		wsClient, err := solana.NewWSClient(ctx, deps.wsEndpoint, nil)
		if err != nil {
			deps.logger.Printf("WebSocket connect failed, confirmations will poll: %v", err)
		} else {
			ws = wsClient
		}
	}
	confirmer, err := submit.NewConfirmer(submit.ConfirmerOptions{
		RPC:    deps.rpc,
		WS:     ws,
		Logger: deps.logger,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.NewRunner(pipeline.RunnerOptions{
		Program:   deps.program,
		RPC:       deps.rpc,
		Builder:   builder,
		Resolver:  poolResolver,
		Signer:    signer,
		Submitter: submitter,
		Confirmer: confirmer,
		AuditLog:  deps.auditLog,
		Logger:    deps.logger,
	})
}

// createStores wires the pool cache and audit log. Either DSN may be
// empty: the cache falls back to memory, the audit log to memory as well.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string) (storage.PoolCacheStore, storage.SubmissionLogStore, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var poolCache storage.PoolCacheStore
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		poolCache = pgstore.NewPoolCacheStore(pool)
	} else {
		poolCache = memory.NewPoolCacheStore()
	}

	var auditLog storage.SubmissionLogStore
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		auditLog = chstore.NewSubmissionLogStore(conn)
	} else {
		auditLog = memory.NewSubmissionLogStore()
	}

	return poolCache, auditLog, cleanup, nil
}

// runInfo prints pool parameters, the first reward pool's APY, the
// outstanding reward balance and a multiplier preview for the requested
// duration.
func runInfo(ctx context.Context, program *staking.Program, rpc solana.RPCClient, mint string, duration uint64) error {
	if mint == "" {
		return fmt.Errorf("--mint is required")
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("parse mint: %w", err)
	}

	pools, err := program.FindPoolsByMint(ctx, rpc, mintKey)
	if err != nil {
		return err
	}
	if len(pools) == 0 {
		return staking.ErrPoolNotFound
	}

	for _, pool := range pools {
		fmt.Printf("Pool %s\n", pool.Address)
		fmt.Printf("  min duration: %s\n", time.Duration(pool.MinDuration)*time.Second)
		fmt.Printf("  max duration: %s\n", time.Duration(pool.MaxDuration)*time.Second)
		fmt.Printf("  max weight:   %.4f\n", float64(pool.MaxWeight)/1e9)

		if duration > 0 {
			mult := staking.ComputeMultiplier(duration, pool.MinDuration, pool.MaxDuration, pool.MaxWeight)
			fmt.Printf("  multiplier for %s: %.4f\n", time.Duration(duration)*time.Second, mult)
		}

		poolKey, err := solana.PublicKeyFromBase58(pool.Address)
		if err != nil {
			return err
		}
		rewardPools, err := program.ListRewardPools(ctx, rpc, poolKey)
		if err != nil {
			return err
		}
		for _, rp := range rewardPools {
			apy := staking.ComputeAPY(rp)
			decimals := staking.DecimalsOf(ctx, rpc, rp.RewardMint)
			outstanding := staking.RewardsOutstanding(ctx, rpc, rp, decimals)
			fmt.Printf("  reward pool %s (nonce %d)\n", rp.Address, rp.Nonce)
			fmt.Printf("    apy:         %.2f%%\n", apy)
			fmt.Printf("    outstanding: %.6f\n", outstanding)
		}
	}
	return nil
}

// runHistory prints the audit trail recorded for one signature.
func runHistory(ctx context.Context, auditLog storage.SubmissionLogStore, signature string) error {
	if signature == "" {
		return fmt.Errorf("--signature is required")
	}
	records, err := auditLog.GetBySignature(ctx, signature)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No records found.")
		return nil
	}
	for _, rec := range records {
		ts := time.UnixMilli(rec.OccurredAt).UTC().Format(time.RFC3339)
		line := fmt.Sprintf("%s  %-18s %-10s", ts, rec.Operation, rec.State)
		if rec.Via != "" {
			line += "  via=" + string(rec.Via)
		}
		if rec.FailReason != "" {
			line += "  reason=" + rec.FailReason
		}
		fmt.Println(line)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
