package domain

// OperationState is the client-side view of one staking operation.
// Terminal states are Confirmed and Failed; no transition skips validation
// and nothing retries automatically past Submitted.
type OperationState string

const (
	StateBuilt     OperationState = "BUILT"
	StateValidated OperationState = "VALIDATED"
	StateSigned    OperationState = "SIGNED"
	StateSubmitted OperationState = "SUBMITTED"
	StateConfirmed OperationState = "CONFIRMED"
	StateFailed    OperationState = "FAILED"
)

// SubmissionVia records which path accepted a transaction.
type SubmissionVia string

const (
	ViaRelay    SubmissionVia = "relay"
	ViaFallback SubmissionVia = "fallback"
)

// SubmissionRecord is one row of the submission audit log. Corresponds to
// the submission_log table in ClickHouse.
type SubmissionRecord struct {
	OwnerID    string
	Operation  string // stake | unstake | claim | create_pool | create_reward_pool | fund_reward_pool
	State      OperationState
	Signature  string        // empty until Submitted
	Via        SubmissionVia // empty until Submitted
	FailReason string        // empty unless Failed
	OccurredAt int64         // Unix timestamp in milliseconds
}
