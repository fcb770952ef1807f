package solana

import "github.com/mr-tron/base58"

// AccountInfo represents Solana account information with base64 data.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte // decoded account data
	Executable bool
	RentEpoch  uint64
}

// KeyedAccount pairs an account with its address, as returned by
// getProgramAccounts.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}

// LatestBlockhash from getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// ProgramFilter narrows a getProgramAccounts scan. Exactly one of DataSize
// or Memcmp is set.
type ProgramFilter struct {
	DataSize uint64
	Memcmp   *MemcmpFilter
}

// MemcmpFilter matches raw account bytes at an offset. Bytes are
// base58-encoded per the RPC convention.
type MemcmpFilter struct {
	Offset uint64
	Bytes  string
}

// DataSizeFilter builds a dataSize filter.
func DataSizeFilter(size uint64) ProgramFilter {
	return ProgramFilter{DataSize: size}
}

// MemcmpFilterAt builds a memcmp filter matching raw bytes at offset.
func MemcmpFilterAt(offset uint64, raw []byte) ProgramFilter {
	return ProgramFilter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: base58.Encode(raw)}}
}

// TokenAmount is the RPC representation of an SPL token balance.
type TokenAmount struct {
	Amount   string // raw amount as decimal string
	Decimals uint8
	UIAmount float64
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	ConfirmationStatus string // "processed" | "confirmed" | "finalized"
	Err                interface{}
}

// SendOptions configure sendTransaction preflight and retry behavior.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *uint64
}
