package stub

import (
	"context"
	"errors"

	"solana-staking-pipeline/internal/solana"
)

// ErrUnavailable is returned for lookups the stub has no fixture for, when
// the corresponding Fail flag is set.
var ErrUnavailable = errors.New("stub: unavailable")

// RPCClient implements solana.RPCClient for testing. Fixture maps are keyed
// by base58 address or signature.
type RPCClient struct {
	Accounts        map[string]*solana.AccountInfo
	ProgramAccounts map[string][]solana.KeyedAccount
	TokenBalances   map[string]*solana.TokenAmount
	Statuses        map[string]*solana.SignatureStatus
	Blockhash       string

	// FailTokenBalance makes GetTokenAccountBalance fail for any account,
	// exercising fallback paths.
	FailTokenBalance bool

	// SentTransactions records every SendTransaction payload.
	SentTransactions []string
	// SendSignature is returned from SendTransaction when set.
	SendSignature string
	// SendErr makes SendTransaction fail.
	SendErr error
}

// NewRPCClient creates a new stub RPC client with a fixed blockhash.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:        make(map[string]*solana.AccountInfo),
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
		TokenBalances:   make(map[string]*solana.TokenAmount),
		Statuses:        make(map[string]*solana.SignatureStatus),
		Blockhash:       "GfVcyD4kkTrj4bKc7WA9sZCGrEvGg5Fb5wWqJbxrfMqX",
	}
}

// GetAccountInfo retrieves an account from the fixture map.
// Returns nil for unknown accounts, matching the RPC not-found contract.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	return c.Accounts[pubkey], nil
}

// GetLatestBlockhash returns the fixed stub blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	return &solana.LatestBlockhash{
		Blockhash:            c.Blockhash,
		LastValidBlockHeight: 1000,
	}, nil
}

// GetProgramAccounts returns fixtures for the program, ignoring filters.
// Tests that care about filtering pre-narrow their fixtures.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, _ []solana.ProgramFilter) ([]solana.KeyedAccount, error) {
	return c.ProgramAccounts[programID], nil
}

// GetTokenAccountBalance retrieves a token balance from the fixture map.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, account string) (*solana.TokenAmount, error) {
	if c.FailTokenBalance {
		return nil, ErrUnavailable
	}
	amt, ok := c.TokenBalances[account]
	if !ok {
		return nil, ErrUnavailable
	}
	return amt, nil
}

// GetSignatureStatuses retrieves statuses from the fixture map.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// SendTransaction records the payload and returns the scripted result.
func (c *RPCClient) SendTransaction(_ context.Context, base58Tx string, _ solana.SendOptions) (string, error) {
	c.SentTransactions = append(c.SentTransactions, base58Tx)
	if c.SendErr != nil {
		return "", c.SendErr
	}
	if c.SendSignature != "" {
		return c.SendSignature, nil
	}
	return "stub-signature", nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
