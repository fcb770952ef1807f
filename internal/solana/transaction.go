package solana

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

const (
	// MaxTransactionSize is the hard ceiling on a serialized transaction,
	// enforced by the network at ingestion.
	MaxTransactionSize = 1232

	// SignatureSize is the byte length of one ed25519 signature.
	SignatureSize = 64
)

// AccountMeta describes how an instruction uses one account.
type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

// Meta builds a read-only, non-signer AccountMeta.
func Meta(pk PublicKey) AccountMeta {
	return AccountMeta{PublicKey: pk}
}

// Write marks the account writable.
func (m AccountMeta) Write() AccountMeta {
	m.IsWritable = true
	return m
}

// Sign marks the account as a required signer.
func (m AccountMeta) Sign() AccountMeta {
	m.IsSigner = true
	return m
}

// less orders account metas: signers first, then writable, per the message
// account ordering rules.
func (m AccountMeta) less(other AccountMeta) bool {
	if m.IsSigner != other.IsSigner {
		return m.IsSigner
	}
	if m.IsWritable != other.IsWritable {
		return m.IsWritable
	}
	return false
}

// Instruction is one program invocation with its account list and payload.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is a list of signatures over a message. Unsigned transactions
// carry all-zero placeholder signatures sized to the signer count.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles instructions into an unsigned transaction. The fee
// payer is always account index 0 and is added as a writable signer even when
// no instruction references it.
func NewTransaction(instructions []Instruction, recentBlockhash Hash, feePayer PublicKey) (*Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}
	if feePayer.IsZero() {
		return nil, fmt.Errorf("fee payer is required")
	}

	// Gather all account metas plus invoked program IDs (read-only).
	var metas []AccountMeta
	seenPrograms := make(map[PublicKey]struct{})
	for _, ins := range instructions {
		metas = append(metas, ins.Accounts...)
		if _, ok := seenPrograms[ins.ProgramID]; !ok {
			seenPrograms[ins.ProgramID] = struct{}{}
			metas = append(metas, Meta(ins.ProgramID))
		}
	}

	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].less(metas[j])
	})

	// Deduplicate, merging signer/writable flags.
	index := make(map[PublicKey]int)
	var uniq []AccountMeta
	for _, m := range metas {
		if i, ok := index[m.PublicKey]; ok {
			uniq[i].IsSigner = uniq[i].IsSigner || m.IsSigner
			uniq[i].IsWritable = uniq[i].IsWritable || m.IsWritable
			continue
		}
		index[m.PublicKey] = len(uniq)
		uniq = append(uniq, m)
	}

	// Fee payer goes first, as a writable signer.
	ordered := make([]AccountMeta, 0, len(uniq)+1)
	ordered = append(ordered, AccountMeta{PublicKey: feePayer, IsSigner: true, IsWritable: true})
	for _, m := range uniq {
		if m.PublicKey.Equals(feePayer) {
			continue
		}
		ordered = append(ordered, m)
	}

	msg := Message{
		Version:         -1,
		RecentBlockhash: recentBlockhash,
		AccountKeys:     make([]PublicKey, 0, len(ordered)),
	}
	keyIndex := make(map[PublicKey]uint8, len(ordered))
	for i, m := range ordered {
		msg.AccountKeys = append(msg.AccountKeys, m.PublicKey)
		keyIndex[m.PublicKey] = uint8(i)
		if m.IsSigner {
			msg.Header.NumRequiredSignatures++
			if !m.IsWritable {
				msg.Header.NumReadonlySignedAccounts++
			}
		} else if !m.IsWritable {
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}

	for i, ins := range instructions {
		accounts := make([]uint8, len(ins.Accounts))
		for j, m := range ins.Accounts {
			accounts[j] = keyIndex[m.PublicKey]
		}
		progIdx, ok := keyIndex[ins.ProgramID]
		if !ok {
			return nil, fmt.Errorf("instruction %d: program not in account keys", i)
		}
		msg.Instructions = append(msg.Instructions, CompiledInstruction{
			ProgramIDIndex: progIdx,
			Accounts:       accounts,
			Data:           ins.Data,
		})
	}

	return &Transaction{
		Signatures: make([]Signature, msg.Header.NumRequiredSignatures),
		Message:    msg,
	}, nil
}

// MarshalBinary serializes the transaction in the native wire format.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	sigs := tx.Signatures
	if len(sigs) == 0 {
		sigs = make([]Signature, tx.Message.Header.NumRequiredSignatures)
	}

	var out []byte
	out = AppendCompactU16(out, len(sigs))
	for _, sig := range sigs {
		out = append(out, sig[:]...)
	}
	out = append(out, msgBytes...)
	return out, nil
}

// UnmarshalBinary parses a serialized transaction, legacy or v0.
func (tx *Transaction) UnmarshalBinary(data []byte) error {
	numSigs, n, err := ReadCompactU16(data)
	if err != nil {
		return fmt.Errorf("signature count: %w", err)
	}
	pos := n
	if numSigs > (len(data)-pos)/SignatureSize {
		return fmt.Errorf("signature count %d exceeds remaining bytes", numSigs)
	}
	tx.Signatures = make([]Signature, numSigs)
	for i := 0; i < numSigs; i++ {
		copy(tx.Signatures[i][:], data[pos:pos+SignatureSize])
		pos += SignatureSize
	}

	consumed, err := tx.Message.UnmarshalBinary(data[pos:])
	if err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	if pos+consumed != len(data) {
		return fmt.Errorf("trailing garbage: %d bytes", len(data)-pos-consumed)
	}
	return nil
}

// ToBase64 serializes the transaction and base64-encodes it.
func (tx *Transaction) ToBase64() (string, error) {
	b, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// TransactionFromBytes parses a serialized transaction.
func TransactionFromBytes(data []byte) (*Transaction, error) {
	tx := new(Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return tx, nil
}

// TransactionFromBase64 decodes and parses a base64 transaction.
func TransactionFromBase64(s string) (*Transaction, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 transaction: %w", err)
	}
	return TransactionFromBytes(data)
}

// Base64ToBase58 re-encodes a base64 wire payload as base58, the encoding
// sendTransaction expects. The two encodings are not interchangeable.
func Base64ToBase58(b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decode base64 transaction: %w", err)
	}
	return base58.Encode(data), nil
}
