package domain

// PoolCacheRecord maps an application-level owner identifier to the pool it
// created. Corresponds to the pool_cache table in PostgreSQL.
//
// The cache is a hint, never the source of truth: read paths that need
// certainty re-derive from on-chain data on miss, and createAndCache-style
// flows rewrite stale records rather than trusting them.
type PoolCacheRecord struct {
	OwnerID         string // PRIMARY KEY, application-level owner identifier
	StakePool       string // stake pool account address
	Mint            string // underlying token mint
	RewardPoolNonce uint8  // nonce of the reward pool created with the pool
	RewardMint      string // reward token mint
	UpdatedAt       int64  // Unix timestamp in milliseconds
}
