package spec

import (
	"math/big"
	"strings"
)

// Single constrains a field to one concrete number or character literal.
type Single struct {
	dtype *DType
	val   Scalar
}

// singleResampleBudget bounds the resampling loop of GenerateInvalid.
const singleResampleBudget = 10

// parseSingle matches a lone literal: a decimal, hex or binary number, or a
// (quoted) single character. Any structural symbol means a different grammar
// owns the string.
func parseSingle(s string, dt *DType) (*Single, bool, error) {
	if strings.ContainsAny(s, "[]()|") {
		return nil, false, nil
	}

	val, err := parseScalar(strings.TrimSpace(s), dt)
	if err != nil {
		return nil, false, err
	}

	return &Single{dtype: dt, val: val}, true, nil
}

func newSingle(dt *DType, val Scalar) *Single {
	return &Single{dtype: dt, val: val}
}

// Scalar returns the literal value.
func (v *Single) Scalar() Scalar { return v.val }

// GenerateValid returns the literal itself.
func (v *Single) GenerateValid(_ *GenContext) (*GeneratedValue, error) {
	return newGeneratedValue(ClassValid, v.dtype, v.val), nil
}

// CanGenerateInvalid always reports true for a single literal; any other
// value of the type violates it.
func (v *Single) CanGenerateInvalid() bool { return true }

// GenerateInvalid resamples the type's natural domain until the result
// differs from the literal, within a fixed budget. When the budget is
// exhausted the result degrades to a valid classification; this is a
// declared limitation, not a failure.
func (v *Single) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	sample, err := v.dtype.generateValidScalar(ctx)
	if err != nil {
		return nil, err
	}

	for i := 0; i < singleResampleBudget && sample.Equal(v.val); i++ {
		if sample, err = v.dtype.generateValidScalar(ctx); err != nil {
			return nil, err
		}
	}

	if sample.Equal(v.val) {
		return newGeneratedValue(ClassValid, v.dtype, sample), nil
	}

	return newGeneratedValue(ClassInvalid, v.dtype, sample), nil
}

// Name returns the literal as the rule name.
func (v *Single) Name() string { return v.val.String() }

func (v *Single) singles() []*Single { return []*Single{v} }
func (v *Single) hasList() bool      { return false }
func (v *Single) value()             {}

func (v *Single) String() string { return v.val.String() }

// singleGapValue picks a number of the type's domain that is not contained
// in the given set of single literals. Starting from a random base it walks
// outward in alternating directions until the value escapes the set.
// The set must not cover the entire type domain.
func singleGapValue(set []*Single, ctx *GenContext) (Scalar, error) {
	dt := set[0].dtype

	if dt.IsFloat() {
		// Brute-force resampling; a collision over the float domain is
		// vanishingly unlikely.
		const lo, hi = -1000000, 1000000
		for {
			f := FloatScalar(ctx.RandFloatBetween(lo, hi))
			if !scalarInSet(f, set) {
				return f, nil
			}
		}
	}

	min, max := dt.Bounds()
	domain := new(big.Int).Sub(max, min)
	domain.Add(domain, big.NewInt(1))
	if domain.IsInt64() && domain.Int64() == int64(len(set)) {
		return Scalar{}, ErrNotInvalidatable
	}

	base := BigScalar(ctx.RandIntBetween(min, max))
	offset := int64(0)
	for {
		candidate := base.add(offset)
		if !scalarInSet(candidate, set) {
			return candidate, nil
		}
		if offset >= 0 {
			offset = -(offset + 1)
		} else {
			offset = -offset
		}
	}
}

func scalarInSet(s Scalar, set []*Single) bool {
	for _, v := range set {
		if v.val.Equal(s) {
			return true
		}
	}
	return false
}
