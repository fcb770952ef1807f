package staking

import "errors"

// Resolution and allocation failures surfaced to callers as not-found
// conditions, not retryable faults.
var (
	// ErrPoolNotFound is returned when no stake pool exists for a mint.
	ErrPoolNotFound = errors.New("stake pool not found")

	// ErrRewardPoolNotFound is returned when a stake pool has no reward pools.
	ErrRewardPoolNotFound = errors.New("reward pool not found")

	// ErrNonceExhausted is returned when all 256 position slots for an
	// (owner, pool) pair are taken.
	ErrNonceExhausted = errors.New("all 256 stake entry nonces are in use")
)
