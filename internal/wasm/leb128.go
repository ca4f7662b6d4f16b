package wasm

import (
	"fmt"
)

// AppendUleb128 appends v in unsigned LEB128.
func AppendUleb128(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}

// AppendSleb128 appends v in signed LEB128.
func AppendSleb128(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if !done {
			c |= 0x80
		}
		b = append(b, c)
		if done {
			return b
		}
	}
}

// readUleb decodes an unsigned LEB128 of at most bits significant bits and
// returns the value and the number of bytes consumed.
func readUleb(b []byte, bits uint) (uint64, int, error) {
	var (
		result uint64
		shift  uint
	)
	maxBytes := int((bits + 6) / 7)
	for i := 0; i < maxBytes; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("%w: truncated integer", ErrMalformed)
		}
		c := b[i]
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			if i == maxBytes-1 && bits%7 != 0 && c>>(bits%7) != 0 {
				return 0, 0, fmt.Errorf("%w: integer too large", ErrMalformed)
			}
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("%w: integer representation too long", ErrMalformed)
}

// readSleb decodes a signed LEB128 of at most bits significant bits.
func readSleb(b []byte, bits uint) (int64, int, error) {
	var (
		result int64
		shift  uint
	)
	maxBytes := int((bits + 6) / 7)
	for i := 0; i < maxBytes; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("%w: truncated integer", ErrMalformed)
		}
		c := b[i]
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if i == maxBytes-1 && bits%7 != 0 {
				// remaining high bits must be a sign extension
				rest := int8(c<<1) >> (bits % 7)
				if rest != 0 && rest != -1 {
					return 0, 0, fmt.Errorf("%w: integer too large", ErrMalformed)
				}
			}
			if shift < 64 && c&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: integer representation too long", ErrMalformed)
}
