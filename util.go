package biff

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

var (
	LE = binary.LittleEndian
	// Order is the byte order of every multi-byte field in a BIFF stream.
	Order binary.ByteOrder = LE
)

const BUFFER_SIZE = 4096

var empty [BUFFER_SIZE]byte

// Roundup rounds n up to the nearest multiple of align. align must be a power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// byteAt extracts byte i (0 = least significant) of v.
func byteAt[T constraints.Unsigned](v T, i int) byte { return byte(v >> (8 * uint(i))) }

// invariant reports a broken internal assumption. Under the biffdebug build tag
// it panics; otherwise the caller gets an error wrapping ErrInvariant.
func invariant(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	err := fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
	if debugAsserts {
		panic(err)
	}
	return err
}

// CheckBufferNotZeros verifies that every byte of p is zero.
func CheckBufferNotZeros(p []byte) error {
	for i, b := range p {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, b, i)
		}
	}
	return nil
}
