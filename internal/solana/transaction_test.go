package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlockhash(t *testing.T) Hash {
	t.Helper()
	h, err := HashFromBase58("GfVcyD4kkTrj4bKc7WA9sZCGrEvGg5Fb5wWqJbxrfMqX")
	require.NoError(t, err)
	return h
}

func TestNewTransaction_FeePayerFirst(t *testing.T) {
	feePayer := PublicKey{1}
	other := PublicKey{2}
	program := PublicKey{3}

	tx, err := NewTransaction([]Instruction{{
		ProgramID: program,
		Accounts: []AccountMeta{
			Meta(other).Write(),
			Meta(feePayer).Sign().Write(),
		},
		Data: []byte{0xde, 0xad},
	}}, testBlockhash(t), feePayer)
	require.NoError(t, err)

	require.NotEmpty(t, tx.Message.AccountKeys)
	assert.Equal(t, feePayer, tx.Message.AccountKeys[0], "fee payer must be account 0")
	assert.Equal(t, uint8(1), tx.Message.Header.NumRequiredSignatures)
	assert.Len(t, tx.Signatures, 1, "placeholder signatures sized to signer count")

	// Program ID is appended read-only and counted as readonly unsigned.
	progIdx := tx.Message.Instructions[0].ProgramIDIndex
	assert.Equal(t, program, tx.Message.AccountKeys[progIdx])
	assert.Equal(t, uint8(1), tx.Message.Header.NumReadonlyUnsignedAccounts)
}

func TestNewTransaction_MergesDuplicateAccounts(t *testing.T) {
	feePayer := PublicKey{1}
	shared := PublicKey{2}
	program := PublicKey{3}

	// The same account appears read-only in one instruction and writable
	// in another; the compiled message keeps one entry with merged flags.
	tx, err := NewTransaction([]Instruction{
		{ProgramID: program, Accounts: []AccountMeta{Meta(shared)}, Data: []byte{1}},
		{ProgramID: program, Accounts: []AccountMeta{Meta(shared).Write()}, Data: []byte{2}},
	}, testBlockhash(t), feePayer)
	require.NoError(t, err)

	count := 0
	for _, key := range tx.Message.AccountKeys {
		if key == shared {
			count++
		}
	}
	assert.Equal(t, 1, count)
	// Writable merged in: shared is not in the readonly unsigned tail.
	assert.Equal(t, uint8(1), tx.Message.Header.NumReadonlyUnsignedAccounts, "only the program stays read-only")
}

func TestNewTransaction_Rejects(t *testing.T) {
	_, err := NewTransaction(nil, testBlockhash(t), PublicKey{1})
	assert.Error(t, err, "no instructions")

	_, err = NewTransaction([]Instruction{{ProgramID: PublicKey{3}}}, testBlockhash(t), PublicKey{})
	assert.Error(t, err, "zero fee payer")
}

func TestTransaction_RoundTrip(t *testing.T) {
	feePayer := PublicKey{1}
	tx, err := NewTransaction([]Instruction{{
		ProgramID: PublicKey{3},
		Accounts: []AccountMeta{
			Meta(feePayer).Sign().Write(),
			Meta(PublicKey{2}).Write(),
			Meta(PublicKey{4}),
		},
		Data: []byte{9, 8, 7, 6},
	}}, testBlockhash(t), feePayer)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	require.LessOrEqual(t, len(raw), MaxTransactionSize)

	parsed, err := TransactionFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, tx.Message.Header, parsed.Message.Header)
	assert.Equal(t, tx.Message.AccountKeys, parsed.Message.AccountKeys)
	assert.Equal(t, tx.Message.RecentBlockhash, parsed.Message.RecentBlockhash)
	assert.Equal(t, tx.Message.Instructions, parsed.Message.Instructions)
	assert.Equal(t, -1, parsed.Message.Version)
}

func TestTransaction_Base64RoundTrip(t *testing.T) {
	feePayer := PublicKey{1}
	tx, err := NewTransaction([]Instruction{{
		ProgramID: PublicKey{3},
		Accounts:  []AccountMeta{Meta(feePayer).Sign().Write()},
		Data:      []byte{1},
	}}, testBlockhash(t), feePayer)
	require.NoError(t, err)

	b64, err := tx.ToBase64()
	require.NoError(t, err)

	parsed, err := TransactionFromBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, tx.Message.AccountKeys, parsed.Message.AccountKeys)
}

func TestMessage_V0RoundTrip(t *testing.T) {
	msg := Message{
		Version: 0,
		Header: MessageHeader{
			NumRequiredSignatures:       1,
			NumReadonlyUnsignedAccounts: 1,
		},
		AccountKeys:     []PublicKey{{1}, {3}},
		RecentBlockhash: testBlockhash(t),
		Instructions: []CompiledInstruction{{
			ProgramIDIndex: 1,
			Accounts:       []uint8{0, 2},
			Data:           []byte{5},
		}},
		AddressLookups: []AddressTableLookup{{
			AccountKey:      PublicKey{7},
			WritableIndexes: []uint8{0},
			ReadonlyIndexes: []uint8{1, 2},
		}},
	}

	raw, err := msg.MarshalBinary()
	require.NoError(t, err)

	var parsed Message
	n, err := parsed.UnmarshalBinary(raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, 0, parsed.Version)
	assert.Equal(t, msg.AddressLookups, parsed.AddressLookups)
	assert.Equal(t, msg.Instructions, parsed.Instructions)
}

func TestTransaction_RejectsTrailingGarbage(t *testing.T) {
	feePayer := PublicKey{1}
	tx, err := NewTransaction([]Instruction{{
		ProgramID: PublicKey{3},
		Accounts:  []AccountMeta{Meta(feePayer).Sign().Write()},
		Data:      []byte{1},
	}}, testBlockhash(t), feePayer)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	_, err = TransactionFromBytes(append(raw, 0x00))
	assert.Error(t, err)
}

func TestBase64ToBase58(t *testing.T) {
	// "\x01\x02\x03" is AQID in base64 and Ldp in base58.
	out, err := Base64ToBase58("AQID")
	require.NoError(t, err)
	assert.Equal(t, "Ldp", out)

	_, err = Base64ToBase58("not$$base64")
	assert.Error(t, err)
}
