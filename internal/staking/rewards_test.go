package staking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/solana/stub"
)

func TestComputeAPY_Compounding(t *testing.T) {
	// 0.1% per day compounded daily: (1.001)^365 - 1 ≈ 44.02%.
	rp := &domain.RewardPool{
		RewardAmount: domain.WeightScale / 1000, // 0.001
		RewardPeriod: 86400,
	}
	assert.InDelta(t, 44.02, ComputeAPY(rp), 0.1)
}

func TestComputeAPY_ZeroRate(t *testing.T) {
	assert.Zero(t, ComputeAPY(&domain.RewardPool{RewardAmount: 0, RewardPeriod: 86400}))
	assert.Zero(t, ComputeAPY(&domain.RewardPool{RewardAmount: domain.WeightScale, RewardPeriod: 0}))
	assert.Zero(t, ComputeAPY(nil))
}

func TestComputeAPY_Cap(t *testing.T) {
	// 100% per hour compounds far past the cap.
	rp := &domain.RewardPool{
		RewardAmount: domain.WeightScale,
		RewardPeriod: 3600,
	}
	assert.Equal(t, float64(APYCap), ComputeAPY(rp))
}

func TestComputeMultiplier(t *testing.T) {
	const (
		week  = uint64(604800)
		halfY = uint64(15552000)
	)
	// maxWeight 4.0 scaled by 10^9.
	maxWeight := uint64(4 * domain.WeightScale)

	// Endpoints.
	assert.InDelta(t, 1.0, ComputeMultiplier(week, week, halfY, maxWeight), 1e-9)
	assert.InDelta(t, 4.0, ComputeMultiplier(halfY, week, halfY, maxWeight), 1e-9)

	// 30 days between one week and six months: 1 + 3*(2592000-604800)/(15552000-604800).
	assert.InDelta(t, 1.3989, ComputeMultiplier(2592000, week, halfY, maxWeight), 0.001)

	// Durations outside the window clamp to the endpoints.
	assert.InDelta(t, 1.0, ComputeMultiplier(0, week, halfY, maxWeight), 1e-9)
	assert.InDelta(t, 4.0, ComputeMultiplier(halfY*10, week, halfY, maxWeight), 1e-9)
}

func TestComputeMultiplier_Degenerate(t *testing.T) {
	// maxDuration <= minDuration always yields 1.0.
	assert.InDelta(t, 1.0, ComputeMultiplier(1000, 500, 500, 4*domain.WeightScale), 1e-9)
	assert.InDelta(t, 1.0, ComputeMultiplier(1000, 500, 100, 4*domain.WeightScale), 1e-9)
}

func TestComputeMultiplier_FloorsAtOne(t *testing.T) {
	// maxWeight below the scale would interpolate under 1.0; the floor wins.
	assert.InDelta(t, 1.0, ComputeMultiplier(750, 500, 1000, domain.WeightScale/2), 1e-9)
}

func TestRewardsOutstanding_VaultFirst(t *testing.T) {
	rpc := stub.NewRPCClient()
	vault := solana.PublicKey{7}.String()
	rpc.TokenBalances[vault] = &solana.TokenAmount{
		Amount:   "500000000",
		Decimals: 6,
	}

	rp := &domain.RewardPool{
		Vault:         vault,
		FundedAmount:  480_000_000,
		ClaimedAmount: 0,
	}

	// Live vault balance wins over the cached counters.
	assert.InDelta(t, 500.0, RewardsOutstanding(context.Background(), rpc, rp, 6), 1e-9)
}

func TestRewardsOutstanding_FallsBackToCounters(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.FailTokenBalance = true

	rp := &domain.RewardPool{
		Vault:         solana.PublicKey{7}.String(),
		FundedAmount:  500_000_000,
		ClaimedAmount: 20_000_000,
	}
	assert.InDelta(t, 480.0, RewardsOutstanding(context.Background(), rpc, rp, 6), 1e-9)

	// Claimed past funded never goes negative.
	rp.ClaimedAmount = 600_000_000
	assert.Zero(t, RewardsOutstanding(context.Background(), rpc, rp, 6))
}
