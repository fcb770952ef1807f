package txbuild

import (
	"encoding/base64"
	"fmt"

	"solana-staking-pipeline/internal/solana"
)

// ValidationError describes why a transaction failed the pre-signing gate.
// Nothing carrying a ValidationError was ever signed or sent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction validation failed: %s", e.Reason)
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate runs the structural sanity gate on a base64-encoded transaction.
// It is mandatory before every signing call.
//
// Rejected: undecodable base64, empty or oversized payloads (>1232 bytes),
// payloads that parse under neither the versioned nor the legacy message
// format, empty instruction lists, and unset or all-zero blockhashes.
func Validate(base64Tx string) error {
	raw, err := base64.StdEncoding.DecodeString(base64Tx)
	if err != nil {
		return invalid("not valid base64: %v", err)
	}

	if len(raw) == 0 {
		return invalid("empty transaction")
	}
	if len(raw) > solana.MaxTransactionSize {
		return invalid("serialized size %d exceeds %d byte limit", len(raw), solana.MaxTransactionSize)
	}

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return invalid("undeserializable payload: %v", err)
	}

	if len(tx.Message.Instructions) == 0 {
		return invalid("no instructions")
	}

	if tx.Message.RecentBlockhash.IsZero() {
		return invalid("recent blockhash is unset")
	}

	return nil
}
