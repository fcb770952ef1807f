package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/storage"
)

func TestSubmissionLogStore_InsertAndGetBySignature(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSubmissionLogStore(conn)
	ctx := context.Background()

	records := []*domain.SubmissionRecord{
		{
			OwnerID:    "owner-001",
			Operation:  "stake",
			State:      domain.StateSubmitted,
			Signature:  "sig-001",
			Via:        domain.ViaRelay,
			OccurredAt: 1700000000000,
		},
		{
			OwnerID:    "owner-001",
			Operation:  "stake",
			State:      domain.StateConfirmed,
			Signature:  "sig-001",
			Via:        domain.ViaRelay,
			OccurredAt: 1700000005000,
		},
	}
	for _, rec := range records {
		require.NoError(t, store.Insert(ctx, rec))
	}

	retrieved, err := store.GetBySignature(ctx, "sig-001")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	assert.Equal(t, domain.StateSubmitted, retrieved[0].State)
	assert.Equal(t, domain.StateConfirmed, retrieved[1].State)
	assert.Equal(t, "owner-001", retrieved[0].OwnerID)
	assert.Equal(t, domain.ViaRelay, retrieved[0].Via)
	assert.Equal(t, int64(1700000000000), retrieved[0].OccurredAt)
}

func TestSubmissionLogStore_OrderedByOccurrence(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSubmissionLogStore(conn)
	ctx := context.Background()

	// Inserted newest first; the query orders by occurred_at ASC.
	records := []*domain.SubmissionRecord{
		{OwnerID: "owner-001", Operation: "unstake", State: domain.StateConfirmed, Signature: "sig-002", OccurredAt: 1700000009000},
		{OwnerID: "owner-001", Operation: "unstake", State: domain.StateBuilt, Signature: "sig-002", OccurredAt: 1700000001000},
		{OwnerID: "owner-001", Operation: "unstake", State: domain.StateSubmitted, Signature: "sig-002", OccurredAt: 1700000004000},
	}
	for _, rec := range records {
		require.NoError(t, store.Insert(ctx, rec))
	}

	retrieved, err := store.GetBySignature(ctx, "sig-002")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	assert.Equal(t, domain.StateBuilt, retrieved[0].State)
	assert.Equal(t, domain.StateSubmitted, retrieved[1].State)
	assert.Equal(t, domain.StateConfirmed, retrieved[2].State)
}

func TestSubmissionLogStore_FailReasonRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSubmissionLogStore(conn)
	ctx := context.Background()

	rec := &domain.SubmissionRecord{
		OwnerID:    "owner-001",
		Operation:  "claim",
		State:      domain.StateFailed,
		Signature:  "sig-003",
		Via:        domain.ViaFallback,
		FailReason: "transaction simulation failed: insufficient funds",
		OccurredAt: 1700000000000,
	}
	require.NoError(t, store.Insert(ctx, rec))

	retrieved, err := store.GetBySignature(ctx, "sig-003")
	require.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Equal(t, rec.FailReason, retrieved[0].FailReason)
}

func TestSubmissionLogStore_UnknownSignature(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSubmissionLogStore(conn)

	retrieved, err := store.GetBySignature(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, retrieved)
}

func TestSubmissionLogStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSubmissionLogStore(conn)
	ctx := context.Background()

	err := store.Insert(ctx, nil)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	err = store.Insert(ctx, &domain.SubmissionRecord{Operation: "stake"})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	_, err = store.GetBySignature(ctx, "")
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}
