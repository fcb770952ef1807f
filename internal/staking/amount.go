package staking

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"solana-staking-pipeline/internal/solana"
)

// DefaultDecimals is assumed when the mint lookup fails. Six is the common
// SPL token configuration; the fallback is explicit policy, never a silent
// zero.
const DefaultDecimals = 6

// splMintDecimalsOffset locates the decimals byte in the SPL mint layout:
// mintAuthorityOption u32 | mintAuthority 32 | supply u64 | decimals u8.
const splMintDecimalsOffset = 4 + 32 + 8

// ToRaw converts a human-readable decimal amount string to the raw
// fixed-point integer representation with the given number of decimals.
//
// The conversion shifts the decimal point textually: the fractional part is
// right-padded with zeros to the decimal count and excess digits are
// truncated, never rounded. Floating point is never involved, so the result
// is exact for any amount with at most `decimals` fractional digits.
func ToRaw(amount string, decimals uint8) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("negative amount %q", amount)
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		frac = frac[:decimals] // truncate, never round
	}
	for len(frac) < int(decimals) {
		frac += "0"
	}

	digits := whole + frac
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, fmt.Errorf("invalid decimal amount %q", amount)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows raw range at %d decimals", amount, decimals)
	}
	return n.Uint64(), nil
}

// FromRaw converts a raw amount back to a human-readable float. Display
// only: the float is non-authoritative output and may lose precision for
// very large values.
func FromRaw(raw uint64, decimals uint8) float64 {
	divisor := new(big.Float).SetInt(pow10(int(decimals)))
	out, _ := new(big.Float).Quo(new(big.Float).SetUint64(raw), divisor).Float64()
	return out
}

// FormatRaw renders a raw amount as an exact decimal string.
func FormatRaw(raw uint64, decimals uint8) string {
	s := fmt.Sprintf("%d", raw)
	if decimals == 0 {
		return s
	}
	for len(s) <= int(decimals) {
		s = "0" + s
	}
	cut := len(s) - int(decimals)
	whole, frac := s[:cut], s[cut:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// DecimalsOf looks up a mint's decimal count on chain. Falls back to
// DefaultDecimals when the account is missing, malformed or unreachable.
func DecimalsOf(ctx context.Context, rpc solana.RPCClient, mint string) uint8 {
	info, err := rpc.GetAccountInfo(ctx, mint)
	if err != nil || info == nil || len(info.Data) <= splMintDecimalsOffset {
		return DefaultDecimals
	}
	return info.Data[splMintDecimalsOffset]
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
