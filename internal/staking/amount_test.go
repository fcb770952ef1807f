package staking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-staking-pipeline/internal/solana"
	"solana-staking-pipeline/internal/solana/stub"
)

func TestToRaw(t *testing.T) {
	tests := []struct {
		amount   string
		decimals uint8
		want     uint64
	}{
		{"1000", 6, 1_000_000_000},
		{"0.000001", 6, 1},
		{"1.5", 6, 1_500_000},
		{"0", 6, 0},
		{"42", 0, 42},
		{".5", 2, 50},
		{"7.", 2, 700},
		// Excess fractional digits are cut, never rounded.
		{"1.23456789", 4, 12345},
		{"0.999999999", 6, 999_999},
		// 18 decimals stays exact where float64 could not.
		{"1.000000000000000001", 18, 1_000_000_000_000_000_001},
	}
	for _, tt := range tests {
		got, err := ToRaw(tt.amount, tt.decimals)
		require.NoError(t, err, "ToRaw(%q, %d)", tt.amount, tt.decimals)
		assert.Equal(t, tt.want, got, "ToRaw(%q, %d)", tt.amount, tt.decimals)
	}
}

func TestToRaw_Invalid(t *testing.T) {
	for _, amount := range []string{"", "-1", "abc", "1.2.3", "1,5"} {
		_, err := ToRaw(amount, 6)
		assert.Error(t, err, "amount %q", amount)
	}
}

func TestToRaw_Overflow(t *testing.T) {
	_, err := ToRaw("18446744073709551616", 0) // 2^64
	assert.Error(t, err)

	// Just inside the range still works.
	got, err := ToRaw("18446744073709551615", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), got)
}

func TestFormatRaw_RoundTrip(t *testing.T) {
	// ToRaw and FormatRaw invert each other for amounts within the decimal
	// precision.
	tests := []struct {
		amount   string
		decimals uint8
	}{
		{"1000", 6},
		{"0.000001", 6},
		{"1.5", 6},
		{"123456.654321", 6},
		{"1.000000000000000001", 18},
	}
	for _, tt := range tests {
		raw, err := ToRaw(tt.amount, tt.decimals)
		require.NoError(t, err)
		assert.Equal(t, tt.amount, FormatRaw(raw, tt.decimals), "decimals=%d", tt.decimals)
	}
}

func TestFromRaw(t *testing.T) {
	assert.InDelta(t, 1.5, FromRaw(1_500_000, 6), 1e-9)
	assert.InDelta(t, 0, FromRaw(0, 6), 1e-9)
}

func TestDecimalsOf(t *testing.T) {
	rpc := stub.NewRPCClient()
	mint := "So11111111111111111111111111111111111111112"

	// Unknown mint: fallback applies.
	assert.Equal(t, uint8(DefaultDecimals), DecimalsOf(context.Background(), rpc, mint))

	// SPL mint layout with decimals=9 at its fixed offset.
	data := make([]byte, 82)
	data[splMintDecimalsOffset] = 9
	rpc.Accounts[mint] = &solana.AccountInfo{Data: data}
	assert.Equal(t, uint8(9), DecimalsOf(context.Background(), rpc, mint))
}
