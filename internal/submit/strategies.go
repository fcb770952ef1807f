package submit

import (
	"context"
	"fmt"
	"log"

	"solana-staking-pipeline/internal/solana"
)

// Strategy is one way of getting a signed transaction onto the ledger.
// The transaction arrives base58-encoded, the wire encoding
// sendTransaction expects. Submit returns the transaction signature on
// success.
type Strategy interface {
	Name() string
	Submit(ctx context.Context, signedTxBase58 string) (string, error)
}

// rpcStrategy submits through a standard JSON-RPC node with fixed send
// options.
type rpcStrategy struct {
	name string
	rpc  solana.RPCClient
	opts solana.SendOptions
}

func (s *rpcStrategy) Name() string { return s.name }

func (s *rpcStrategy) Submit(ctx context.Context, signedTxBase58 string) (string, error) {
	return s.rpc.SendTransaction(ctx, signedTxBase58, s.opts)
}

// NewRelayStrategy builds a strategy for a transaction relay: preflight
// is skipped and node-side retries are disabled because the relay
// manages delivery itself.
func NewRelayStrategy(name string, rpc solana.RPCClient) Strategy {
	var noRetries uint64
	return &rpcStrategy{
		name: name,
		rpc:  rpc,
		opts: solana.SendOptions{
			SkipPreflight: true,
			MaxRetries:    &noRetries,
		},
	}
}

// NewFallbackStrategy builds a strategy for a plain RPC node: preflight
// runs at confirmed commitment and the node retries delivery a few
// times.
func NewFallbackStrategy(name string, rpc solana.RPCClient) Strategy {
	retries := uint64(5)
	return &rpcStrategy{
		name: name,
		rpc:  rpc,
		opts: solana.SendOptions{
			SkipPreflight:       false,
			PreflightCommitment: "confirmed",
			MaxRetries:          &retries,
		},
	}
}

// tryInOrder attempts each strategy until one succeeds. A nil isFatal
// treats every error as recoverable. When isFatal matches an error, the
// remaining strategies are skipped and a FatalSubmissionError is
// returned; otherwise the last error is reported alongside
// ErrSubmissionExhausted.
func tryInOrder(ctx context.Context, signedTxBase58 string, strategies []Strategy, isFatal func(error) bool, logger *log.Logger) (string, error) {
	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sig, err := s.Submit(ctx, signedTxBase58)
		if err == nil {
			return sig, nil
		}
		if isFatal != nil && isFatal(err) {
			return "", &FatalSubmissionError{Endpoint: s.Name(), Cause: err}
		}
		logger.Printf("submission via %s failed: %v", s.Name(), err)
		lastErr = err
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: last error: %v", ErrSubmissionExhausted, lastErr)
	}
	return "", ErrSubmissionExhausted
}
