package clickhouse

import (
	"context"
	"fmt"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/storage"
)

// SubmissionLogStore implements storage.SubmissionLogStore using ClickHouse.
// The log is append-only; MergeTree ordering by (signature, occurred_at)
// serves the per-signature history query.
type SubmissionLogStore struct {
	conn *Conn
}

// NewSubmissionLogStore creates a new SubmissionLogStore.
func NewSubmissionLogStore(conn *Conn) *SubmissionLogStore {
	return &SubmissionLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SubmissionLogStore = (*SubmissionLogStore)(nil)

// Insert appends one state transition.
func (s *SubmissionLogStore) Insert(ctx context.Context, rec *domain.SubmissionRecord) error {
	if rec == nil || rec.OwnerID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO submission_log (
			owner_id, operation, state, signature, via, fail_reason, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err := s.conn.Exec(ctx, query,
		rec.OwnerID,
		rec.Operation,
		string(rec.State),
		rec.Signature,
		string(rec.Via),
		rec.FailReason,
		uint64(rec.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert submission record: %w", err)
	}
	return nil
}

// GetBySignature retrieves all transitions recorded for a signature,
// ordered by occurrence time ASC.
func (s *SubmissionLogStore) GetBySignature(ctx context.Context, signature string) ([]*domain.SubmissionRecord, error) {
	if signature == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT owner_id, operation, state, signature, via, fail_reason, occurred_at
		FROM submission_log
		WHERE signature = $1
		ORDER BY occurred_at ASC
	`

	rows, err := s.conn.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("query submission records: %w", err)
	}
	defer rows.Close()

	var out []*domain.SubmissionRecord
	for rows.Next() {
		rec := &domain.SubmissionRecord{}
		var state, via string
		var occurredAt uint64
		if err := rows.Scan(
			&rec.OwnerID,
			&rec.Operation,
			&state,
			&rec.Signature,
			&via,
			&rec.FailReason,
			&occurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission record: %w", err)
		}
		rec.State = domain.OperationState(state)
		rec.Via = domain.SubmissionVia(via)
		rec.OccurredAt = int64(occurredAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission records: %w", err)
	}
	return out, nil
}
