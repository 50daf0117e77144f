// Package util holds small helpers shared by the generation and
// serialization packages.
package util

import "math/big"

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// BytesFromBits renders a packed unsigned integer as a big-endian byte
// buffer sized to the bit count rounded up to the next byte multiple.
func BytesFromBits(v *big.Int, bits int) []byte {
	if rem := bits % 8; rem != 0 {
		bits += 8 - rem
	}
	buf := make([]byte, bits/8)
	v.FillBytes(buf)
	return buf
}
