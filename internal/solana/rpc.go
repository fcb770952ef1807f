package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface this subsystem uses.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash retrieves a fresh blockhash and its expiry height.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// GetProgramAccounts retrieves all accounts owned by a program,
	// optionally narrowed by dataSize/memcmp filters.
	GetProgramAccounts(ctx context.Context, programID string, filters []ProgramFilter) ([]KeyedAccount, error)

	// GetTokenAccountBalance retrieves the balance of an SPL token account.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error)

	// GetSignatureStatuses retrieves confirmation status for signatures.
	// Result entries are nil for unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// SendTransaction submits a base58-encoded signed transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, base58Tx string, opts SendOptions) (string, error)
}
