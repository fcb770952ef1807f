package submit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubmissionExhausted is returned when every relay and fallback
	// endpoint failed without a fatal signal.
	ErrSubmissionExhausted = errors.New("all submission endpoints exhausted")

	// ErrConfirmationTimeout is returned when the confirmation deadline
	// passes with no definitive status from the ledger.
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)

// SigningError indicates the custody service rejected the request or
// returned a malformed response.
type SigningError struct {
	Cause error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Cause)
}

func (e *SigningError) Unwrap() error {
	return e.Cause
}

// FatalSubmissionError wraps an endpoint error that no other endpoint can
// recover from: the transaction cannot succeed anywhere, so fallback
// attempts stop immediately.
type FatalSubmissionError struct {
	Endpoint string
	Cause    error
}

func (e *FatalSubmissionError) Error() string {
	return fmt.Sprintf("fatal submission error from %s: %v", e.Endpoint, e.Cause)
}

func (e *FatalSubmissionError) Unwrap() error {
	return e.Cause
}

// OnChainExecutionError indicates the ledger accepted the transaction but
// reported that its execution failed.
type OnChainExecutionError struct {
	Signature string
	Detail    interface{}
}

func (e *OnChainExecutionError) Error() string {
	return fmt.Sprintf("transaction %s failed on chain: %v", e.Signature, e.Detail)
}

// isFatalSubmission reports whether an endpoint error indicates the
// transaction can never succeed: insufficient funds or an expired
// blockhash. Matching is on the error text because both relays and RPC
// nodes surface these only as message strings.
func isFatalSubmission(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient") || strings.Contains(msg, "blockhash not found")
}
