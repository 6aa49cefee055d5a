// Package vlsize implements the variable-length size encoding used for
// length prefixes in arena storage.
//
// Each byte carries 7 payload bits in its low bits; the high bit is a
// continuation flag. The maximum-length byte (the 9th for the 64-bit
// family, the 5th for the 32-bit family) has no continuation flag and
// carries a full 8 payload bits, so the complete uint64/uint32 range is
// representable. Groups are big-endian: the first byte holds the most
// significant bits.
package vlsize

import (
	"errors"
	"math/bits"
)

// Maximum encoded lengths per family.
const (
	Max64 = 9 // 8 * 7 + 8 = 64 bits
	Max32 = 5 // 4 * 7 + 4 = 32 bits (top 4 bits of byte 0 ignored)

	// MaxNative is the maximum encoded length for the native word size.
	MaxNative = bits.UintSize/8 + 1
)

// ErrEndOfBuffer is returned when a buffer is exhausted before a
// complete encoding was read or written.
var ErrEndOfBuffer = errors.New("vlsize: end of buffer")

// Bytes64 returns the number of bytes Encode64 would write for size.
func Bytes64(size uint64) int {
	switch {
	case size < 1<<7:
		return 1
	case size < 1<<14:
		return 2
	case size < 1<<21:
		return 3
	case size < 1<<28:
		return 4
	case size < 1<<35:
		return 5
	case size < 1<<42:
		return 6
	case size < 1<<49:
		return 7
	case size < 1<<56:
		return 8
	}
	return 9
}

// Encode64 writes the encoding of size into buf and returns the number
// of bytes written. It returns ErrEndOfBuffer when buf is too small.
func Encode64(buf []byte, size uint64) (int, error) {
	n := Bytes64(size)
	if n > len(buf) {
		return 0, ErrEndOfBuffer
	}
	if n < Max64 {
		for i := 0; i < n; i++ {
			b := byte(size>>(uint(n-1-i)*7)) & 0x7f
			if i != n-1 {
				b |= 0x80
			}
			buf[i] = b
		}
		return n, nil
	}
	// 9-byte form: 8 continuation groups of 7 bits, final full byte.
	for i := 0; i < 8; i++ {
		buf[i] = byte(size>>(uint(8-i)*7+1)) | 0x80
	}
	buf[8] = byte(size)
	return n, nil
}

// Decode64 reads an encoded value from buf, returning the value and the
// number of bytes consumed.
func Decode64(buf []byte) (uint64, int, error) {
	var size uint64
	scan := len(buf)
	if scan > Max64 {
		scan = Max64
	}
	for i := 0; i < scan; i++ {
		if i < Max64-1 {
			size = size<<7 | uint64(buf[i]&0x7f)
			if buf[i]&0x80 == 0 {
				return size, i + 1, nil
			}
		} else {
			// Last byte always terminates and is a full 8 bits.
			size = size<<8 | uint64(buf[i])
			return size, i + 1, nil
		}
	}
	return 0, 0, ErrEndOfBuffer
}

// Decode64Nocheck is Decode64 without bounds checking. The caller
// guarantees at least a complete encoding (at most Max64 bytes) at buf.
func Decode64Nocheck(buf []byte) (uint64, int) {
	var size uint64
	for i := 0; i < Max64-1; i++ {
		size = size<<7 | uint64(buf[i]&0x7f)
		if buf[i]&0x80 == 0 {
			return size, i + 1
		}
	}
	size = size<<8 | uint64(buf[Max64-1])
	return size, Max64
}

// Skip64 advances past an encoded value without decoding it, returning
// the number of bytes consumed.
func Skip64(buf []byte) (int, error) {
	scan := len(buf)
	if scan > Max64 {
		scan = Max64
	}
	for i := 0; i < scan; i++ {
		if i == Max64-1 || buf[i]&0x80 == 0 {
			return i + 1, nil
		}
	}
	return 0, ErrEndOfBuffer
}

// Skip64Nocheck advances past an encoded value without bounds checking.
func Skip64Nocheck(buf []byte) int {
	for i := 0; i < Max64-1; i++ {
		if buf[i]&0x80 == 0 {
			return i + 1
		}
	}
	return Max64
}

// Bytes32 returns the number of bytes Encode32 would write for size.
func Bytes32(size uint32) int {
	switch {
	case size < 1<<7:
		return 1
	case size < 1<<14:
		return 2
	case size < 1<<21:
		return 3
	case size < 1<<28:
		return 4
	}
	return 5
}

// Encode32 writes the encoding of size into buf and returns the number
// of bytes written. It returns ErrEndOfBuffer when buf is too small.
func Encode32(buf []byte, size uint32) (int, error) {
	n := Bytes32(size)
	if n > len(buf) {
		return 0, ErrEndOfBuffer
	}
	if n < Max32 {
		for i := 0; i < n; i++ {
			b := byte(size>>(uint(n-1-i)*7)) & 0x7f
			if i != n-1 {
				b |= 0x80
			}
			buf[i] = b
		}
		return n, nil
	}
	// 5-byte form: the top 4 bits of byte 0 are ignored on decode.
	buf[0] = byte(size>>29) | 0x80
	buf[1] = byte(size>>22) | 0x80
	buf[2] = byte(size>>15) | 0x80
	buf[3] = byte(size>>8) | 0x80
	buf[4] = byte(size)
	return n, nil
}

// Decode32 reads an encoded value from buf, returning the value and the
// number of bytes consumed.
func Decode32(buf []byte) (uint32, int, error) {
	var size uint32
	scan := len(buf)
	if scan > Max32 {
		scan = Max32
	}
	for i := 0; i < scan; i++ {
		if i < Max32-1 {
			size = size<<7 | uint32(buf[i]&0x7f)
			if buf[i]&0x80 == 0 {
				return size, i + 1, nil
			}
		} else {
			size = size<<8 | uint32(buf[i])
			return size, i + 1, nil
		}
	}
	return 0, 0, ErrEndOfBuffer
}

// Decode32Nocheck is Decode32 without bounds checking.
func Decode32Nocheck(buf []byte) (uint32, int) {
	var size uint32
	for i := 0; i < Max32-1; i++ {
		size = size<<7 | uint32(buf[i]&0x7f)
		if buf[i]&0x80 == 0 {
			return size, i + 1
		}
	}
	size = size<<8 | uint32(buf[Max32-1])
	return size, Max32
}

// Skip32 advances past an encoded value without decoding it.
func Skip32(buf []byte) (int, error) {
	scan := len(buf)
	if scan > Max32 {
		scan = Max32
	}
	for i := 0; i < scan; i++ {
		if i == Max32-1 || buf[i]&0x80 == 0 {
			return i + 1, nil
		}
	}
	return 0, ErrEndOfBuffer
}

// Skip32Nocheck advances past an encoded value without bounds checking.
func Skip32Nocheck(buf []byte) int {
	for i := 0; i < Max32-1; i++ {
		if buf[i]&0x80 == 0 {
			return i + 1
		}
	}
	return Max32
}

// The native-width family selects the 64-bit or 32-bit variant based on
// the platform word size.

// Bytes returns the encoded length of size at the native width.
func Bytes(size uint) int {
	if bits.UintSize == 64 {
		return Bytes64(uint64(size))
	}
	return Bytes32(uint32(size))
}

// Encode writes the native-width encoding of size into buf.
func Encode(buf []byte, size uint) (int, error) {
	if bits.UintSize == 64 {
		return Encode64(buf, uint64(size))
	}
	return Encode32(buf, uint32(size))
}

// Decode reads a native-width encoded value from buf.
func Decode(buf []byte) (uint, int, error) {
	if bits.UintSize == 64 {
		v, n, err := Decode64(buf)
		return uint(v), n, err
	}
	v, n, err := Decode32(buf)
	return uint(v), n, err
}

// DecodeNocheck is Decode without bounds checking.
func DecodeNocheck(buf []byte) (uint, int) {
	if bits.UintSize == 64 {
		v, n := Decode64Nocheck(buf)
		return uint(v), n
	}
	v, n := Decode32Nocheck(buf)
	return uint(v), n
}

// Skip advances past a native-width encoded value.
func Skip(buf []byte) (int, error) {
	if bits.UintSize == 64 {
		return Skip64(buf)
	}
	return Skip32(buf)
}

// SkipNocheck advances past a native-width encoded value without bounds
// checking.
func SkipNocheck(buf []byte) int {
	if bits.UintSize == 64 {
		return Skip64Nocheck(buf)
	}
	return Skip32Nocheck(buf)
}
