package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-staking-pipeline/internal/domain"
	"solana-staking-pipeline/internal/solana"
)

func testProgram(t *testing.T) *Program {
	t.Helper()
	program, err := NewProgram(solana.PublicKey{250}.String())
	require.NoError(t, err)
	return program
}

func TestNewProgram_InvalidID(t *testing.T) {
	_, err := NewProgram("not-base58-0OIl")
	assert.Error(t, err)
}

func TestPDADerivation_Deterministic(t *testing.T) {
	program := testProgram(t)
	authority := solana.PublicKey{1}
	mint := solana.PublicKey{2}

	pool1, err := program.StakePoolAddress(authority, mint, 0)
	require.NoError(t, err)
	pool2, err := program.StakePoolAddress(authority, mint, 0)
	require.NoError(t, err)
	assert.Equal(t, pool1, pool2, "same seeds must derive the same address")

	// Any seed change produces a different address.
	other, err := program.StakePoolAddress(authority, mint, 1)
	require.NoError(t, err)
	assert.NotEqual(t, pool1, other)
}

func TestPDADerivation_DistinctNamespaces(t *testing.T) {
	program := testProgram(t)
	pool := solana.PublicKey{3}

	mintAddr, err := program.StakeMintAddress(pool)
	require.NoError(t, err)
	vaultAddr, err := program.VaultAddress(pool)
	require.NoError(t, err)
	assert.NotEqual(t, mintAddr, vaultAddr, "seed prefixes must separate namespaces")
}

func TestRewardEntryAddress_PairSensitive(t *testing.T) {
	program := testProgram(t)
	entry := solana.PublicKey{4}
	rpA := solana.PublicKey{5}
	rpB := solana.PublicKey{6}

	a, err := program.RewardEntryAddress(entry, rpA)
	require.NoError(t, err)
	b, err := program.RewardEntryAddress(entry, rpB)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAccountTags_Distinct(t *testing.T) {
	assert.NotEqual(t, StakePoolTag(), RewardPoolTag())
	assert.NotEqual(t, StakePoolTag(), StakeEntryTag())
	assert.NotEqual(t, RewardPoolTag(), StakeEntryTag())
}

func TestDecodeStakePool_RejectsWrongTag(t *testing.T) {
	data, err := EncodeStakeEntry(&domain.StakeEntry{
		Owner:     solana.PublicKey{1}.String(),
		StakePool: solana.PublicKey{2}.String(),
	})
	require.NoError(t, err)

	_, err = DecodeStakePool(solana.PublicKey{9}.String(), data)
	assert.Error(t, err)
}

func TestDecodeStakePool_RoundTrip(t *testing.T) {
	in := &domain.StakePool{
		Authority:   solana.PublicKey{1}.String(),
		Mint:        solana.PublicKey{2}.String(),
		StakeMint:   solana.PublicKey{3}.String(),
		Vault:       solana.PublicKey{4}.String(),
		MinDuration: 604800,
		MaxDuration: 15552000,
		MaxWeight:   4 * domain.WeightScale,
		Nonce:       7,
	}
	data, err := EncodeStakePool(in)
	require.NoError(t, err)
	require.Len(t, data, StakePoolAccountSize)

	addr := solana.PublicKey{9}.String()
	out, err := DecodeStakePool(addr, data)
	require.NoError(t, err)

	in.Address = addr
	assert.Equal(t, in, out)
}
