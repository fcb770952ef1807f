package staking

import (
	"context"
	"math"
	"strconv"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
)

// APYCap bounds displayed APY values; compounding small rates over short
// periods explodes quickly and anything beyond this is display noise.
const APYCap = 9999

const secondsPerYear = 365 * 86400

// ComputeAPY derives the annualized compounded yield percentage from a
// reward pool's rate and period.
//
//	ratePerPeriod = rewardAmount / 10^9
//	periodsPerYear = secondsPerYear / rewardPeriod
//	apy = ((1 + ratePerPeriod)^periodsPerYear - 1) * 100
//
// This is compounding, not simple interest. Zero rate or period yields zero.
func ComputeAPY(rp *domain.RewardPool) float64 {
	if rp == nil || rp.RewardAmount == 0 || rp.RewardPeriod == 0 {
		return 0
	}

	ratePerPeriod := float64(rp.RewardAmount) / float64(domain.WeightScale)
	periodsPerYear := float64(secondsPerYear) / float64(rp.RewardPeriod)

	apy := (math.Pow(1+ratePerPeriod, periodsPerYear) - 1) * 100
	if apy > APYCap || math.IsInf(apy, 1) {
		return APYCap
	}
	return apy
}

// RewardsOutstanding reports the unclaimed reward balance of a pool in
// human-readable units.
//
// The live vault token balance is the source of truth: the program's cached
// fundedAmount/claimedAmount counters can be stale or mis-deserialized. Only
// when the vault lookup fails (or the decoded account carries no vault
// address) does the computation fall back to max(0, funded-claimed).
func RewardsOutstanding(ctx context.Context, rpc solana.RPCClient, rp *domain.RewardPool, decimals uint8) float64 {
	if rp == nil {
		return 0
	}

	if rp.Vault != "" {
		balance, err := rpc.GetTokenAccountBalance(ctx, rp.Vault)
		if err == nil && balance != nil {
			if raw, perr := strconv.ParseUint(balance.Amount, 10, 64); perr == nil {
				return FromRaw(raw, balance.Decimals)
			}
		}
	}

	if rp.ClaimedAmount >= rp.FundedAmount {
		return 0
	}
	return FromRaw(rp.FundedAmount-rp.ClaimedAmount, decimals)
}

// ComputeMultiplier interpolates the stake weight multiplier linearly
// between 1.0 at minDuration and maxWeight/10^9 at maxDuration. Degenerate
// configs (maxDuration <= minDuration) always yield 1.0, and the result is
// floored at 1.0.
func ComputeMultiplier(durationSeconds, minDuration, maxDuration, maxWeight uint64) float64 {
	if maxDuration <= minDuration {
		return 1.0
	}

	if durationSeconds < minDuration {
		durationSeconds = minDuration
	}
	if durationSeconds > maxDuration {
		durationSeconds = maxDuration
	}

	maxMult := float64(maxWeight) / float64(domain.WeightScale)
	progress := float64(durationSeconds-minDuration) / float64(maxDuration-minDuration)

	mult := 1.0 + progress*(maxMult-1.0)
	if mult < 1.0 {
		return 1.0
	}
	return mult
}
