package memory

import (
	"context"
	"sort"
	"sync"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/storage"
)

// SubmissionLogStore is an in-memory implementation of
// storage.SubmissionLogStore.
type SubmissionLogStore struct {
	mu      sync.RWMutex
	records []*domain.SubmissionRecord
}

// NewSubmissionLogStore creates a new in-memory submission log store.
func NewSubmissionLogStore() *SubmissionLogStore {
	return &SubmissionLogStore{}
}

var _ storage.SubmissionLogStore = (*SubmissionLogStore)(nil)

// Insert appends one state transition.
func (s *SubmissionLogStore) Insert(_ context.Context, rec *domain.SubmissionRecord) error {
	if rec == nil || rec.OwnerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	s.records = append(s.records, &recCopy)
	return nil
}

// GetBySignature retrieves all transitions recorded for a signature,
// ordered by occurrence time ASC.
func (s *SubmissionLogStore) GetBySignature(_ context.Context, signature string) ([]*domain.SubmissionRecord, error) {
	if signature == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SubmissionRecord
	for _, rec := range s.records {
		if rec.Signature == signature {
			recCopy := *rec
			out = append(out, &recCopy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt < out[j].OccurredAt
	})
	return out, nil
}

// All returns every record in insertion order. Test helper.
func (s *SubmissionLogStore) All() []*domain.SubmissionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.SubmissionRecord, len(s.records))
	copy(out, s.records)
	return out
}
