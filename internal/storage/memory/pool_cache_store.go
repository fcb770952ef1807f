package memory

import (
	"context"
	"sync"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/storage"
)

// PoolCacheStore is an in-memory implementation of storage.PoolCacheStore.
type PoolCacheStore struct {
	mu      sync.RWMutex
	byOwner map[string]*domain.PoolCacheRecord
}

// NewPoolCacheStore creates a new in-memory pool cache store.
func NewPoolCacheStore() *PoolCacheStore {
	return &PoolCacheStore{
		byOwner: make(map[string]*domain.PoolCacheRecord),
	}
}

var _ storage.PoolCacheStore = (*PoolCacheStore)(nil)

// Get retrieves the cached pool record for an owner.
func (s *PoolCacheStore) Get(_ context.Context, ownerID string) (*domain.PoolCacheRecord, error) {
	if ownerID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.byOwner[ownerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// Upsert inserts or replaces the cached pool record for an owner.
func (s *PoolCacheStore) Upsert(_ context.Context, rec *domain.PoolCacheRecord) error {
	if rec == nil || rec.OwnerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	s.byOwner[rec.OwnerID] = &recCopy
	return nil
}
