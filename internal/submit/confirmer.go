package submit

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-staking-pipeline/internal/solana"
)

// Default confirmation parameters.
const (
	DefaultPollInterval   = 1500 * time.Millisecond
	DefaultConfirmTimeout = 90 * time.Second
)

// Confirmer waits for a submitted transaction to reach confirmed
// commitment. A WebSocket subscription is used as a fast path when
// available; polling getSignatureStatuses is the always-present
// baseline.
type Confirmer struct {
	rpc      solana.RPCClient
	ws       solana.WSClient
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
}

// ConfirmerOptions configures a Confirmer. WS is optional.
type ConfirmerOptions struct {
	RPC      solana.RPCClient
	WS       solana.WSClient
	Interval time.Duration
	Timeout  time.Duration
	Logger   *log.Logger
}

// NewConfirmer creates a Confirmer.
func NewConfirmer(opts ConfirmerOptions) (*Confirmer, error) {
	if opts.RPC == nil {
		return nil, fmt.Errorf("rpc client is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultConfirmTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Confirmer{
		rpc:      opts.RPC,
		ws:       opts.WS,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}, nil
}

// AwaitConfirmation blocks until the signature is confirmed, fails on
// chain, or the deadline passes. An on-chain failure is reported as
// OnChainExecutionError; a deadline as ErrConfirmationTimeout.
func (c *Confirmer) AwaitConfirmation(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.ws != nil {
		done, err := c.awaitViaWS(ctx, signature)
		if done {
			return err
		}
		// WS path unavailable or dropped, fall through to polling.
	}
	return c.awaitViaPolling(ctx, signature)
}

// awaitViaWS returns done=false when the subscription could not deliver
// a verdict and polling should take over.
func (c *Confirmer) awaitViaWS(ctx context.Context, signature string) (bool, error) {
	ch, err := c.ws.SubscribeSignature(ctx, signature)
	if err != nil {
		c.logger.Printf("signature subscription failed, polling instead: %v", err)
		return false, nil
	}
	select {
	case note, ok := <-ch:
		if !ok {
			return false, nil
		}
		if note.Err != nil {
			return true, &OnChainExecutionError{Signature: signature, Detail: note.Err}
		}
		return true, nil
	case <-ctx.Done():
		return true, fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
	}
}

func (c *Confirmer) awaitViaPolling(ctx context.Context, signature string) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			c.logger.Printf("signature status poll failed: %v", err)
		} else if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return &OnChainExecutionError{Signature: signature, Detail: st.Err}
			}
			if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
		case <-ticker.C:
		}
	}
}
