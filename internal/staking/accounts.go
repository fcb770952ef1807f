package staking

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-staking-pipeline/internal/domain"
)

// Account byte layouts. All integers are little-endian, preceded by the
// 8-byte account discriminator.
//
//	StakePool:  authority 32 | mint 32 | stakeMint 32 | vault 32 |
//	            minDuration u64 | maxDuration u64 | maxWeight u64 |
//	            nonce u8 | bump u8
//	RewardPool: stakePool 32 | rewardMint 32 | vault 32 |
//	            rewardAmount u64 | rewardPeriod u64 |
//	            fundedAmount u64 | claimedAmount u64 | nonce u8 | bump u8
//	StakeEntry: owner 32 | stakePool 32 | amount u64 | createdTs i64 |
//	            duration u64 | nonce u8 | bump u8
const (
	StakePoolAccountSize  = 8 + 4*32 + 3*8 + 2
	RewardPoolAccountSize = 8 + 3*32 + 4*8 + 2
	StakeEntryAccountSize = 8 + 2*32 + 3*8 + 2

	// Memcmp offsets for getProgramAccounts filters.
	StakePoolMintOffset    = 8 + 32 // mint field
	StakeEntryOwnerOffset  = 8      // owner field
	StakeEntryPoolOffset   = 8 + 32
	RewardPoolParentOffset = 8 // stakePool field
)

var (
	stakePoolTag  = accountTag("StakePool")
	rewardPoolTag = accountTag("RewardPool")
	stakeEntryTag = accountTag("StakeEntry")
)

// StakePoolTag returns the StakePool account discriminator.
func StakePoolTag() [8]byte { return stakePoolTag }

// RewardPoolTag returns the RewardPool account discriminator.
func RewardPoolTag() [8]byte { return rewardPoolTag }

// StakeEntryTag returns the StakeEntry account discriminator.
func StakeEntryTag() [8]byte { return stakeEntryTag }

// DecodeStakePool parses a StakePool account. The address is recorded on the
// returned struct since account data does not contain it.
func DecodeStakePool(address string, data []byte) (*domain.StakePool, error) {
	if len(data) < StakePoolAccountSize {
		return nil, fmt.Errorf("stake pool account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], stakePoolTag[:]) {
		return nil, fmt.Errorf("not a stake pool account")
	}

	d := newAccountDecoder(data[8:])
	pool := &domain.StakePool{
		Address:   address,
		Authority: d.pubkey(),
		Mint:      d.pubkey(),
		StakeMint: d.pubkey(),
		Vault:     d.pubkey(),
	}
	pool.MinDuration = d.u64()
	pool.MaxDuration = d.u64()
	pool.MaxWeight = d.u64()
	pool.Nonce = d.u8()
	return pool, nil
}

// DecodeRewardPool parses a RewardPool account.
func DecodeRewardPool(address string, data []byte) (*domain.RewardPool, error) {
	if len(data) < RewardPoolAccountSize {
		return nil, fmt.Errorf("reward pool account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], rewardPoolTag[:]) {
		return nil, fmt.Errorf("not a reward pool account")
	}

	d := newAccountDecoder(data[8:])
	rp := &domain.RewardPool{
		Address:    address,
		StakePool:  d.pubkey(),
		RewardMint: d.pubkey(),
		Vault:      d.pubkey(),
	}
	rp.RewardAmount = d.u64()
	rp.RewardPeriod = d.u64()
	rp.FundedAmount = d.u64()
	rp.ClaimedAmount = d.u64()
	rp.Nonce = d.u8()
	return rp, nil
}

// DecodeStakeEntry parses a StakeEntry account.
func DecodeStakeEntry(address string, data []byte) (*domain.StakeEntry, error) {
	if len(data) < StakeEntryAccountSize {
		return nil, fmt.Errorf("stake entry account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], stakeEntryTag[:]) {
		return nil, fmt.Errorf("not a stake entry account")
	}

	d := newAccountDecoder(data[8:])
	entry := &domain.StakeEntry{
		Address:   address,
		Owner:     d.pubkey(),
		StakePool: d.pubkey(),
	}
	entry.Amount = d.u64()
	entry.CreatedTs = int64(d.u64())
	entry.Duration = d.u64()
	entry.Nonce = d.u8()
	return entry, nil
}

// EncodeStakePool serializes a StakePool account payload. The inverse of
// DecodeStakePool; used to seed fixtures.
func EncodeStakePool(pool *domain.StakePool) ([]byte, error) {
	e := newAccountEncoder(stakePoolTag)
	if err := e.pubkeys(pool.Authority, pool.Mint, pool.StakeMint, pool.Vault); err != nil {
		return nil, err
	}
	e.u64(pool.MinDuration)
	e.u64(pool.MaxDuration)
	e.u64(pool.MaxWeight)
	e.u8(pool.Nonce)
	e.u8(0) // bump, unused by this subsystem
	return e.buf, nil
}

// EncodeRewardPool serializes a RewardPool account payload.
func EncodeRewardPool(rp *domain.RewardPool) ([]byte, error) {
	e := newAccountEncoder(rewardPoolTag)
	if err := e.pubkeys(rp.StakePool, rp.RewardMint, rp.Vault); err != nil {
		return nil, err
	}
	e.u64(rp.RewardAmount)
	e.u64(rp.RewardPeriod)
	e.u64(rp.FundedAmount)
	e.u64(rp.ClaimedAmount)
	e.u8(rp.Nonce)
	e.u8(0)
	return e.buf, nil
}

// EncodeStakeEntry serializes a StakeEntry account payload.
func EncodeStakeEntry(entry *domain.StakeEntry) ([]byte, error) {
	e := newAccountEncoder(stakeEntryTag)
	if err := e.pubkeys(entry.Owner, entry.StakePool); err != nil {
		return nil, err
	}
	e.u64(entry.Amount)
	e.u64(uint64(entry.CreatedTs))
	e.u64(entry.Duration)
	e.u8(entry.Nonce)
	e.u8(0)
	return e.buf, nil
}

// accountDecoder walks a length-checked account payload. Callers verify the
// total size up front, so the read helpers never bounds-check.
type accountDecoder struct {
	data []byte
	pos  int
}

func newAccountDecoder(data []byte) *accountDecoder {
	return &accountDecoder{data: data}
}

func (d *accountDecoder) pubkey() string {
	var pk [32]byte
	copy(pk[:], d.data[d.pos:d.pos+32])
	d.pos += 32
	return encodePubkey(pk)
}

func (d *accountDecoder) u64() uint64 {
	v := binary.LittleEndian.Uint64(d.data[d.pos:])
	d.pos += 8
	return v
}

func (d *accountDecoder) u8() uint8 {
	v := d.data[d.pos]
	d.pos++
	return v
}

type accountEncoder struct {
	buf []byte
}

func newAccountEncoder(tag [8]byte) *accountEncoder {
	return &accountEncoder{buf: append([]byte(nil), tag[:]...)}
}

func (e *accountEncoder) pubkeys(keys ...string) error {
	for _, key := range keys {
		b, err := base58.Decode(key)
		if err != nil || len(b) != 32 {
			return fmt.Errorf("invalid pubkey %q", key)
		}
		e.buf = append(e.buf, b...)
	}
	return nil
}

func (e *accountEncoder) u64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *accountEncoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func encodePubkey(pk [32]byte) string {
	return base58.Encode(pk[:])
}
