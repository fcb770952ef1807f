package solana

import "fmt"

// Compact-u16 ("shortvec") length encoding used throughout the Solana wire
// format: 7 bits per byte, little-endian, high bit set on continuation bytes.

// AppendCompactU16 appends the compact-u16 encoding of v to buf.
func AppendCompactU16(buf []byte, v int) []byte {
	for {
		b := uint8(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// ReadCompactU16 decodes a compact-u16 value from data, returning the value
// and the number of bytes consumed.
func ReadCompactU16(data []byte) (int, int, error) {
	var v, shift int
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, fmt.Errorf("compact-u16: truncated input")
		}
		b := data[i]
		v |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			if v > 0xffff {
				return 0, 0, fmt.Errorf("compact-u16: value %d out of range", v)
			}
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("compact-u16: encoding exceeds 3 bytes")
}
