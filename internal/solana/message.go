package solana

import (
	"fmt"
)

// MessageHeader counts signer and read-only accounts in a message.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction references accounts by index into the message key list.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// AddressTableLookup is a v0-message reference into an on-chain address
// lookup table. This subsystem never emits lookups but must parse them.
type AddressTableLookup struct {
	AccountKey      PublicKey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// Message is a transaction message in either the legacy or v0 format.
type Message struct {
	// Version is -1 for legacy messages, 0 for v0.
	Version         int
	Header          MessageHeader
	AccountKeys     []PublicKey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
	AddressLookups  []AddressTableLookup
}

// versionPrefixMask marks the first message byte of a versioned message.
const versionPrefixMask = 0x80

// MarshalBinary serializes the message. Legacy messages have no version
// prefix; v0 messages are prefixed with 0x80.
func (m *Message) MarshalBinary() ([]byte, error) {
	if len(m.AccountKeys) > 256 {
		return nil, fmt.Errorf("too many account keys: %d", len(m.AccountKeys))
	}

	var out []byte
	if m.Version == 0 {
		out = append(out, versionPrefixMask)
	}
	out = append(out, m.Header.NumRequiredSignatures, m.Header.NumReadonlySignedAccounts, m.Header.NumReadonlyUnsignedAccounts)

	out = AppendCompactU16(out, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		out = append(out, key[:]...)
	}

	out = append(out, m.RecentBlockhash[:]...)

	out = AppendCompactU16(out, len(m.Instructions))
	for _, ins := range m.Instructions {
		out = append(out, ins.ProgramIDIndex)
		out = AppendCompactU16(out, len(ins.Accounts))
		out = append(out, ins.Accounts...)
		out = AppendCompactU16(out, len(ins.Data))
		out = append(out, ins.Data...)
	}

	if m.Version == 0 {
		out = AppendCompactU16(out, len(m.AddressLookups))
		for _, l := range m.AddressLookups {
			out = append(out, l.AccountKey[:]...)
			out = AppendCompactU16(out, len(l.WritableIndexes))
			out = append(out, l.WritableIndexes...)
			out = AppendCompactU16(out, len(l.ReadonlyIndexes))
			out = append(out, l.ReadonlyIndexes...)
		}
	}

	return out, nil
}

// UnmarshalBinary parses a message, auto-detecting legacy vs v0 from the
// version prefix bit. Returns bytes consumed.
func (m *Message) UnmarshalBinary(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty message")
	}

	pos := 0
	m.Version = -1
	if data[0]&versionPrefixMask != 0 {
		version := int(data[0] & 0x7f)
		if version != 0 {
			return 0, fmt.Errorf("unsupported message version %d", version)
		}
		m.Version = 0
		pos++
	}

	if len(data) < pos+3 {
		return 0, fmt.Errorf("truncated message header")
	}
	m.Header.NumRequiredSignatures = data[pos]
	m.Header.NumReadonlySignedAccounts = data[pos+1]
	m.Header.NumReadonlyUnsignedAccounts = data[pos+2]
	pos += 3

	numKeys, n, err := ReadCompactU16(data[pos:])
	if err != nil {
		return 0, fmt.Errorf("account key count: %w", err)
	}
	pos += n
	if len(data) < pos+numKeys*32 {
		return 0, fmt.Errorf("truncated account keys")
	}
	m.AccountKeys = make([]PublicKey, numKeys)
	for i := 0; i < numKeys; i++ {
		copy(m.AccountKeys[i][:], data[pos:pos+32])
		pos += 32
	}

	if len(data) < pos+32 {
		return 0, fmt.Errorf("truncated blockhash")
	}
	copy(m.RecentBlockhash[:], data[pos:pos+32])
	pos += 32

	numIns, n, err := ReadCompactU16(data[pos:])
	if err != nil {
		return 0, fmt.Errorf("instruction count: %w", err)
	}
	pos += n
	m.Instructions = make([]CompiledInstruction, 0, numIns)
	for i := 0; i < numIns; i++ {
		if len(data) < pos+1 {
			return 0, fmt.Errorf("truncated instruction %d", i)
		}
		var ins CompiledInstruction
		ins.ProgramIDIndex = data[pos]
		pos++

		numAccts, n, err := ReadCompactU16(data[pos:])
		if err != nil {
			return 0, fmt.Errorf("instruction %d account count: %w", i, err)
		}
		pos += n
		if len(data) < pos+numAccts {
			return 0, fmt.Errorf("truncated instruction %d accounts", i)
		}
		ins.Accounts = append([]uint8(nil), data[pos:pos+numAccts]...)
		pos += numAccts

		dataLen, n, err := ReadCompactU16(data[pos:])
		if err != nil {
			return 0, fmt.Errorf("instruction %d data length: %w", i, err)
		}
		pos += n
		if len(data) < pos+dataLen {
			return 0, fmt.Errorf("truncated instruction %d data", i)
		}
		ins.Data = append([]byte(nil), data[pos:pos+dataLen]...)
		pos += dataLen

		m.Instructions = append(m.Instructions, ins)
	}

	if m.Version == 0 {
		numLookups, n, err := ReadCompactU16(data[pos:])
		if err != nil {
			return 0, fmt.Errorf("lookup count: %w", err)
		}
		pos += n
		m.AddressLookups = make([]AddressTableLookup, 0, numLookups)
		for i := 0; i < numLookups; i++ {
			if len(data) < pos+32 {
				return 0, fmt.Errorf("truncated lookup %d key", i)
			}
			var l AddressTableLookup
			copy(l.AccountKey[:], data[pos:pos+32])
			pos += 32

			wLen, n, err := ReadCompactU16(data[pos:])
			if err != nil {
				return 0, fmt.Errorf("lookup %d writable count: %w", i, err)
			}
			pos += n
			if len(data) < pos+wLen {
				return 0, fmt.Errorf("truncated lookup %d writable indexes", i)
			}
			l.WritableIndexes = append([]uint8(nil), data[pos:pos+wLen]...)
			pos += wLen

			rLen, n, err := ReadCompactU16(data[pos:])
			if err != nil {
				return 0, fmt.Errorf("lookup %d readonly count: %w", i, err)
			}
			pos += n
			if len(data) < pos+rLen {
				return 0, fmt.Errorf("truncated lookup %d readonly indexes", i)
			}
			l.ReadonlyIndexes = append([]uint8(nil), data[pos:pos+rLen]...)
			pos += rLen

			m.AddressLookups = append(m.AddressLookups, l)
		}
	}

	return pos, nil
}
