package submit

import (
	"context"
	"fmt"
	"log"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
)

// Result reports where a submitted transaction ended up.
type Result struct {
	Signature string
	Via       domain.SubmissionVia
}

// Submitter pushes signed transactions to the ledger. Relay endpoints
// are tried first when requested; plain RPC endpoints serve as the
// fallback tier. Within the fallback tier an error indicating the
// transaction can never succeed stops the remaining attempts.
type Submitter struct {
	relays    []Strategy
	fallbacks []Strategy
	logger    *log.Logger
}

// SubmitterOptions configures a Submitter. At least one fallback
// strategy is required; relays are optional.
type SubmitterOptions struct {
	Relays    []Strategy
	Fallbacks []Strategy
	Logger    *log.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(opts SubmitterOptions) (*Submitter, error) {
	if len(opts.Fallbacks) == 0 {
		return nil, fmt.Errorf("at least one fallback strategy is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Submitter{
		relays:    opts.Relays,
		fallbacks: opts.Fallbacks,
		logger:    opts.Logger,
	}, nil
}

// NewSubmitterFromEndpoints wires a Submitter from raw endpoint URLs
// using the standard HTTP RPC client for each.
func NewSubmitterFromEndpoints(relayEndpoints, fallbackEndpoints []string, logger *log.Logger) (*Submitter, error) {
	if logger == nil {
		logger = log.Default()
	}
	var relays []Strategy
	for _, url := range relayEndpoints {
		relays = append(relays, NewRelayStrategy(url, solana.NewHTTPClient(url, solana.WithMaxRetries(0))))
	}
	var fallbacks []Strategy
	for _, url := range fallbackEndpoints {
		fallbacks = append(fallbacks, NewFallbackStrategy(url, solana.NewHTTPClient(url)))
	}
	return NewSubmitter(SubmitterOptions{Relays: relays, Fallbacks: fallbacks, Logger: logger})
}

// Submit sends the signed transaction and returns its signature and the
// tier that accepted it. The transaction arrives base64-encoded from the
// signer and is re-encoded to base58 once, the encoding sendTransaction
// requires. When useRelay is true the relay tier is tried first; relay
// errors are always soft and only move the attempt down a tier. Fallback
// errors are soft too, except insufficient-funds and expired-blockhash
// failures which no endpoint can recover from.
func (s *Submitter) Submit(ctx context.Context, signedTxBase64 string, useRelay bool) (*Result, error) {
	signedTx, err := solana.Base64ToBase58(signedTxBase64)
	if err != nil {
		return nil, err
	}

	if useRelay && len(s.relays) > 0 {
		sig, err := tryInOrder(ctx, signedTx, s.relays, nil, s.logger)
		if err == nil {
			return &Result{Signature: sig, Via: domain.ViaRelay}, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		s.logger.Printf("all relay endpoints failed, falling back to direct RPC: %v", err)
	}

	sig, err := tryInOrder(ctx, signedTx, s.fallbacks, isFatalSubmission, s.logger)
	if err != nil {
		return nil, err
	}
	return &Result{Signature: sig, Via: domain.ViaFallback}, nil
}
