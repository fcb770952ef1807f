package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program IDs.
var (
	SystemProgramID          = MustPublicKeyFromBase58("11111111111111111111111111111111")
	TokenProgramID           = MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID       = MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	AssociatedTokenProgramID = MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SysvarRentID             = MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// pdaMarker terminates the seed preimage for program derived addresses.
const pdaMarker = "ProgramDerivedAddress"

// PublicKey is a 32-byte ed25519 public key or program derived address.
type PublicKey [32]byte

// Hash is a 32-byte blockhash.
type Hash [32]byte

// Signature is a 64-byte ed25519 signature.
type Signature [64]byte

// PublicKeyFromBase58 parses a base58-encoded public key.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode base58 pubkey: %w", err)
	}
	if len(b) != 32 {
		return pk, fmt.Errorf("invalid pubkey length %d, want 32", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPublicKeyFromBase58 parses a base58 public key and panics on failure.
// Intended for package-level constants only.
func MustPublicKeyFromBase58(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// HashFromBase58 parses a base58-encoded blockhash.
func HashFromBase58(s string) (Hash, error) {
	var h Hash
	b, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("decode base58 hash: %w", err)
	}
	if len(b) != 32 {
		return h, fmt.Errorf("invalid hash length %d, want 32", len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func (pk PublicKey) Equals(other PublicKey) bool {
	return pk == other
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// CreateProgramAddress derives an address from seeds and a program ID.
// Fails if the resulting point lies on the ed25519 curve.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	var data []byte
	for _, seed := range seeds {
		if len(seed) > 32 {
			return PublicKey{}, fmt.Errorf("seed length %d exceeds 32", len(seed))
		}
		data = append(data, seed...)
	}
	data = append(data, programID[:]...)
	data = append(data, []byte(pdaMarker)...)

	hash := sha256.Sum256(data)
	if isOnCurve(hash[:]) {
		return PublicKey{}, fmt.Errorf("derived address is on curve")
	}

	var pk PublicKey
	copy(pk[:], hash[:])
	return pk, nil
}

// FindProgramAddress searches bump seeds 255..0 for a valid program derived
// address. The same seeds always yield the same (address, bump) pair.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		pk, err := CreateProgramAddress(append(seeds, []byte{uint8(bump)}), programID)
		if err == nil {
			return pk, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, fmt.Errorf("no viable bump seed found")
}

// FindAssociatedTokenAddress derives the associated token account for a
// wallet and mint under the given token program.
func FindAssociatedTokenAddress(wallet, mint, tokenProgram PublicKey) (PublicKey, error) {
	pk, _, err := FindProgramAddress(
		[][]byte{wallet[:], tokenProgram[:], mint[:]},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return pk, nil
}

// isOnCurve reports whether a 32-byte value decodes to a valid ed25519 point.
// Program derived addresses must decode to no valid point so that no private
// key can exist for them.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
