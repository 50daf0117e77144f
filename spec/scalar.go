package spec

import (
	"fmt"
	"math/big"
	"strconv"
)

// Scalar is one exact numeric value generated for (or declared on) a field.
//
// Integer scalars are held as big integers so that the full unsigned 64-bit
// domain stays representable; float scalars are held as float64 and rounded
// to four decimal places when generated.
type Scalar struct {
	i       *big.Int
	f       float64
	isFloat bool
}

// IntScalar creates an integer Scalar from an int64.
func IntScalar(v int64) Scalar {
	return Scalar{i: big.NewInt(v)}
}

// BigScalar creates an integer Scalar from a big integer. The value is copied.
func BigScalar(v *big.Int) Scalar {
	return Scalar{i: new(big.Int).Set(v)}
}

// FloatScalar creates a float Scalar.
func FloatScalar(v float64) Scalar {
	return Scalar{f: v, isFloat: true}
}

// IsFloat reports whether the scalar holds a float value.
func (s Scalar) IsFloat() bool { return s.isFloat }

// Int returns the integer value. The caller must not mutate the result.
func (s Scalar) Int() *big.Int { return s.i }

// Float returns the float value.
func (s Scalar) Float() float64 { return s.f }

// Cmp compares two scalars numerically, returning -1, 0 or +1.
func (s Scalar) Cmp(o Scalar) int {
	if s.isFloat || o.isFloat {
		a, b := s.asFloat(), o.asFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return s.i.Cmp(o.i)
}

// Equal reports whether two scalars hold the same numeric value.
func (s Scalar) Equal(o Scalar) bool {
	if s.isFloat != o.isFloat {
		return false
	}
	return s.Cmp(o) == 0
}

func (s Scalar) asFloat() float64 {
	if s.isFloat {
		return s.f
	}
	f, _ := new(big.Float).SetInt(s.i).Float64()
	return f
}

func (s Scalar) String() string {
	if s.isFloat {
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	}
	return s.i.String()
}

// add returns s+delta for integer scalars.
func (s Scalar) add(delta int64) Scalar {
	return Scalar{i: new(big.Int).Add(s.i, big.NewInt(delta))}
}

// parseScalar parses one literal of the value grammar: a decimal number, a
// 0x/0b/0o prefixed integer, or a single character (optionally quoted).
// The interpretation of prefixed literals follows the data type's signedness:
// a bit pattern with the sign bit set folds into the negative domain.
func parseScalar(s string, dt *DType) (Scalar, error) {
	if s == "" {
		return Scalar{}, syntaxErrorf(s, 0, "empty value literal")
	}

	if len(s) >= 2 && s[0] == symString && s[len(s)-1] == symString {
		ch := s[1 : len(s)-1]
		if len(ch) != 1 {
			return Scalar{}, syntaxErrorf(s, 1, "character literal must contain exactly one character")
		}
		return IntScalar(int64(ch[0])), nil
	}

	// Bare single alphabetic character, e.g. the value string "A".
	if len(s) == 1 && isAlpha(rune(s[0])) {
		return IntScalar(int64(s[0])), nil
	}

	prefixed := len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X' || s[1] == 'b' || s[1] == 'B' || s[1] == 'o' || s[1] == 'O')

	if dt.IsFloat() {
		if prefixed {
			return Scalar{}, syntaxErrorf(s, 0, "hex or binary literals cannot define a float field")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Scalar{}, syntaxErrorf(s, 0, "cannot parse %q as a float literal", s)
		}
		return FloatScalar(f), nil
	}

	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return Scalar{}, syntaxErrorf(s, 0, "cannot parse %q as an integer literal", s)
	}

	// A prefixed literal describes a raw bit pattern; reinterpret it under the
	// type's signedness, e.g. 0xFF on an I8 field means -1.
	if prefixed && dt.Signed() && v.Sign() > 0 && v.BitLen() == dt.BitWidth() {
		width := new(big.Int).Lsh(big.NewInt(1), uint(dt.BitWidth()))
		v.Sub(v, width)
	}

	return Scalar{i: v}, nil
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlphaNumeric(r rune) bool {
	return r == '_' || isAlpha(r) || isDigit(r)
}

// formatScalars renders a scalar slice for log output.
func formatScalars(values []Scalar) string {
	if len(values) == 1 {
		return values[0].String()
	}
	return fmt.Sprintf("%v", values)
}
