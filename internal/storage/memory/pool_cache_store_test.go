package memory

import (
	"context"
	"errors"
	"testing"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/storage"
)

func TestPoolCacheStore_UpsertAndGet(t *testing.T) {
	store := NewPoolCacheStore()
	ctx := context.Background()

	rec := &domain.PoolCacheRecord{
		OwnerID:         "owner1",
		StakePool:       "pool1",
		Mint:            "mint1",
		RewardPoolNonce: 2,
		RewardMint:      "rmint1",
		UpdatedAt:       1704067200000,
	}

	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := store.Get(ctx, "owner1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if result.StakePool != "pool1" {
		t.Errorf("StakePool mismatch: got %s, want pool1", result.StakePool)
	}
	if result.RewardPoolNonce != 2 {
		t.Errorf("RewardPoolNonce mismatch: got %d, want 2", result.RewardPoolNonce)
	}
}

func TestPoolCacheStore_UpsertReplaces(t *testing.T) {
	store := NewPoolCacheStore()
	ctx := context.Background()

	first := &domain.PoolCacheRecord{OwnerID: "owner1", StakePool: "pool1", Mint: "mint1"}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	second := &domain.PoolCacheRecord{OwnerID: "owner1", StakePool: "pool2", Mint: "mint2"}
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := store.Get(ctx, "owner1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if result.StakePool != "pool2" {
		t.Errorf("StakePool mismatch: got %s, want pool2", result.StakePool)
	}
}

func TestPoolCacheStore_GetUnknown(t *testing.T) {
	store := NewPoolCacheStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPoolCacheStore_InvalidInput(t *testing.T) {
	store := NewPoolCacheStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Get with empty owner: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Upsert nil: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Upsert(ctx, &domain.PoolCacheRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Upsert empty owner: expected ErrInvalidInput, got %v", err)
	}
}

func TestPoolCacheStore_GetReturnsCopy(t *testing.T) {
	store := NewPoolCacheStore()
	ctx := context.Background()

	rec := &domain.PoolCacheRecord{OwnerID: "owner1", StakePool: "pool1"}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "owner1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.StakePool = "mutated"

	again, err := store.Get(ctx, "owner1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.StakePool != "pool1" {
		t.Errorf("stored record was mutated through the returned copy")
	}
}
