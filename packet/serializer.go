package packet

import (
	"fmt"
	"math"
	"math/big"

	"github.com/lmco/parselab/spec"
)

// Serialize bit-packs an ordered sequence of generated values into one
// arbitrary-width unsigned integer. Values are accumulated MSB-first in
// declared order; the returned bit count is the significant size before the
// trailing pad that aligns the buffer to a byte multiple.
//
// Per scalar: signed integers are folded to two's complement at the declared
// width, floats are reinterpreted as their IEEE-754 32-bit pattern, and
// little-endian multi-byte scalars have their byte order reversed.
func Serialize(values []*spec.GeneratedValue) (*big.Int, int, error) {
	serial := new(big.Int)
	bits := 0

	for _, gv := range values {
		width := gv.DType.BitWidth()
		if width <= 0 {
			return nil, 0, fmt.Errorf("cannot serialize %s: struct values must be flattened first", gv)
		}

		for _, s := range gv.Values {
			enc, err := encodeScalar(s, gv.DType)
			if err != nil {
				return nil, 0, fmt.Errorf("cannot serialize %s: %w", gv, err)
			}
			serial.Lsh(serial, uint(width))
			serial.Or(serial, enc)
			bits += width
		}
	}

	if pad := (8 - bits%8) % 8; pad > 0 {
		serial.Lsh(serial, uint(pad))
	}

	return serial, bits, nil
}

// encodeScalar encodes one scalar at its type's declared width.
func encodeScalar(s spec.Scalar, dt *spec.DType) (*big.Int, error) {
	width := dt.BitWidth()

	var v *big.Int
	if dt.IsFloat() {
		v = new(big.Int).SetUint64(uint64(math.Float32bits(float32(s.Float()))))
	} else {
		v = new(big.Int).Set(s.Int())
		if v.Sign() < 0 {
			// two's complement fold
			v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
		}
		if v.Sign() < 0 || v.BitLen() > width {
			return nil, fmt.Errorf("value %s does not fit in %d bits", s, width)
		}
	}

	if !dt.IsBigEndian() && width > 8 && width%8 == 0 {
		v = reverseBytes(v, width)
	}

	return v, nil
}

// reverseBytes reverses the byte order of a width-bit value.
func reverseBytes(v *big.Int, width int) *big.Int {
	buf := make([]byte, width/8)
	v.FillBytes(buf)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return new(big.Int).SetBytes(buf)
}
