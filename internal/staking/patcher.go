package staking

// RewardPoolDataMinLen is the fixed minimum payload length of the
// create_reward_pool instruction: 8-byte discriminator, 1-byte nonce, two
// 8-byte integers and two 1-byte flags.
const RewardPoolDataMinLen = 8 + 1 + 8 + 8 + 1 + 1

// PadRewardPoolData repairs a known serialization defect in the upstream
// instruction encoder, which drops the trailing optional flag and produces a
// payload exactly one byte short. Payloads of any other length pass through
// untouched so that unrelated encodings are never corrupted.
//
// TODO: remove once the upstream encoder emits the absent-optional byte.
func PadRewardPoolData(data []byte) []byte {
	if len(data) != RewardPoolDataMinLen-1 {
		return data
	}
	patched := make([]byte, len(data), len(data)+1)
	copy(patched, data)
	return append(patched, 0)
}
