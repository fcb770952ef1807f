package domain

// WeightScale is the fixed-point scale (10^9) used by the staking program
// for maxWeight and reward rates.
const WeightScale = 1_000_000_000

// StakePool is the on-chain account parameterizing one staking instance.
// Read-only to this subsystem; all mutation happens through submitted
// transactions executed by the ledger.
type StakePool struct {
	Address     string // stake pool account address
	Authority   string // pool creator / authority wallet
	Mint        string // underlying token mint
	StakeMint   string // receipt mint issued for staked positions
	Vault       string // token account holding staked deposits
	MinDuration uint64 // seconds
	MaxDuration uint64 // seconds
	MaxWeight   uint64 // reward multiplier ceiling, scaled by 10^9
	Nonce       uint8
}

// RewardPool defines a reward-distribution rate tied to a stake pool.
// The protocol allows several per pool; the first found is treated as
// authoritative for APY display.
type RewardPool struct {
	Address       string
	StakePool     string
	RewardMint    string
	Vault         string // token account holding unclaimed rewards
	RewardAmount  uint64 // rate per period, scaled by 10^9
	RewardPeriod  uint64 // seconds
	FundedAmount  uint64 // raw units, cached by the program
	ClaimedAmount uint64 // raw units, cached by the program
	Nonce         uint8
}

// StakeEntry is one wallet's locked position in a pool.
// Unlock time is CreatedTs + Duration.
type StakeEntry struct {
	Address   string
	Owner     string
	StakePool string
	Amount    uint64 // raw units
	CreatedTs int64  // Unix seconds
	Duration  uint64 // seconds
	Nonce     uint8  // 0-255, unique per (owner, pool)
}

// UnlockTs returns the Unix time at which the position can be unstaked.
func (e *StakeEntry) UnlockTs() int64 {
	return e.CreatedTs + int64(e.Duration)
}

// RewardEntry tracks claimed rewards per (stake entry, reward pool) pair.
type RewardEntry struct {
	Address       string
	StakeEntry    string
	RewardPool    string
	ClaimedAmount uint64
}
