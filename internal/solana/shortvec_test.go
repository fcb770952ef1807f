package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactU16_RoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, 127, 128, 255, 256, 16383, 16384, 0xffff} {
		buf := AppendCompactU16(nil, v)
		got, n, err := ReadCompactU16(buf)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestCompactU16_KnownEncodings(t *testing.T) {
	assert.Equal(t, []byte{0x00}, AppendCompactU16(nil, 0))
	assert.Equal(t, []byte{0x7f}, AppendCompactU16(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, AppendCompactU16(nil, 128))
	assert.Equal(t, []byte{0xff, 0x01}, AppendCompactU16(nil, 255))
	assert.Equal(t, []byte{0x80, 0x80, 0x01}, AppendCompactU16(nil, 16384))
}

func TestCompactU16_Errors(t *testing.T) {
	_, _, err := ReadCompactU16(nil)
	assert.Error(t, err)

	// Continuation bit with no following byte.
	_, _, err = ReadCompactU16([]byte{0x80})
	assert.Error(t, err)

	// More than three bytes of continuation.
	_, _, err = ReadCompactU16([]byte{0x80, 0x80, 0x80, 0x01})
	assert.Error(t, err)

	// Three bytes encoding a value past 0xffff.
	_, _, err = ReadCompactU16([]byte{0xff, 0xff, 0x7f})
	assert.Error(t, err)
}
