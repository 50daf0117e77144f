package spec

import (
	"fmt"
	"sort"
	"strings"
)

// Range constrains a field to the interval between two Single bounds.
// Integer generation samples the half-open interval [min,max); the parser
// requires min < max.
type Range struct {
	dtype    *DType
	min, max *Single
}

// parseRange matches an outer pair of parentheses containing exactly two
// comma-separated bounds.
func parseRange(s string, dt *DType) (*Range, bool, error) {
	if len(s) < 2 || s[0] != symRangeOpen || s[len(s)-1] != symRangeClose {
		return nil, false, nil
	}

	if n := strings.Count(s, string(symDelimiter)); n > 1 {
		second := strings.Index(s[strings.Index(s, ",")+1:], ",") + strings.Index(s, ",") + 1
		return nil, false, syntaxErrorf(s, second, "cannot have more than one delimiter in a range statement")
	}

	inner := s[1 : len(s)-1]
	var bounds []string
	var segment strings.Builder
	for i, c := range inner {
		switch c {
		case symRangeOpen, symRangeClose:
			return nil, false, syntaxErrorf(inner, i, "cannot have nested range statements")
		case symChoice:
			return nil, false, syntaxErrorf(inner, i, "cannot have a choice statement in a range statement")
		case symDelimiter:
			if segment.Len() == 0 {
				return nil, false, syntaxErrorf(inner, i, "unexpected delimiter before the minimum bound")
			}
			bounds = append(bounds, segment.String())
			segment.Reset()
		default:
			segment.WriteRune(c)
		}
	}
	if segment.Len() == 0 {
		return nil, false, syntaxErrorf(s, len(s)-1, "unexpected termination of range statement, missing an upper bound")
	}
	bounds = append(bounds, segment.String())

	if len(bounds) != 2 {
		return nil, false, syntaxErrorf(s, 0, "a range statement takes exactly two bounds")
	}

	min, err := parseScalar(strings.TrimSpace(bounds[0]), dt)
	if err != nil {
		return nil, false, fmt.Errorf("lower bound of range %q: %w", s, err)
	}
	max, err := parseScalar(strings.TrimSpace(bounds[1]), dt)
	if err != nil {
		return nil, false, fmt.Errorf("upper bound of range %q: %w", s, err)
	}

	if min.Cmp(max) >= 0 {
		return nil, false, fmt.Errorf("lower bound %s of range %q must be less than the upper bound %s", min, s, max)
	}

	return &Range{dtype: dt, min: newSingle(dt, min), max: newSingle(dt, max)}, true, nil
}

func newRange(dt *DType, min, max Scalar) *Range {
	return &Range{dtype: dt, min: newSingle(dt, min), max: newSingle(dt, max)}
}

// Min returns the inclusive lower bound.
func (v *Range) Min() Scalar { return v.min.val }

// Max returns the declared upper bound.
func (v *Range) Max() Scalar { return v.max.val }

// GenerateValid samples the range: uniformly over [min,max) for integers,
// a four-decimal rounded uniform sample for floats.
func (v *Range) GenerateValid(ctx *GenContext) (*GeneratedValue, error) {
	if v.dtype.IsFloat() {
		f := ctx.RandFloatBetween(v.min.val.Float(), v.max.val.Float())
		return newGeneratedValue(ClassValid, v.dtype, FloatScalar(f)), nil
	}

	val := ctx.RandIntBelow(v.min.val.Int(), v.max.val.Int())
	return newGeneratedValue(ClassValid, v.dtype, BigScalar(val)), nil
}

// CanGenerateInvalid reports false only when the range covers the type's
// whole representable domain.
func (v *Range) CanGenerateInvalid() bool {
	if !v.dtype.IsInt() {
		return true
	}
	min, max := v.dtype.Bounds()
	return !(v.min.val.Int().Cmp(min) == 0 && v.max.val.Int().Cmp(max) == 0)
}

// GenerateInvalid steps one past whichever declared bound does not coincide
// with the type's own bound, choosing a side at random when both are free.
func (v *Range) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	above := func() *GeneratedValue {
		return newGeneratedValue(ClassAboveBounds, v.dtype, v.max.val.add(1))
	}
	below := func() *GeneratedValue {
		return newGeneratedValue(ClassBelowBounds, v.dtype, v.min.val.add(-1))
	}

	if v.dtype.IsFloat() {
		if ctx.Coin() {
			return newGeneratedValue(ClassAboveBounds, v.dtype, FloatScalar(v.max.val.Float()+1)), nil
		}
		return newGeneratedValue(ClassBelowBounds, v.dtype, FloatScalar(v.min.val.Float()-1)), nil
	}

	typeMin, typeMax := v.dtype.Bounds()
	minPinned := v.min.val.Int().Cmp(typeMin) == 0
	maxPinned := v.max.val.Int().Cmp(typeMax) == 0

	switch {
	case minPinned && maxPinned:
		return nil, fmt.Errorf("range %s: %w", v.Name(), ErrNotInvalidatable)
	case minPinned:
		return above(), nil
	case maxPinned:
		return below(), nil
	case ctx.Coin():
		return above(), nil
	default:
		return below(), nil
	}
}

// Name returns the canonical rule name, e.g. RANGE__10_50.
func (v *Range) Name() string {
	return fmt.Sprintf("RANGE__%s_%s", v.min.val, v.max.val)
}

func (v *Range) singles() []*Single { return []*Single{v.min, v.max} }
func (v *Range) hasList() bool      { return false }
func (v *Range) value()             {}

func (v *Range) String() string {
	return fmt.Sprintf("RANGE(%s,%s)", v.min.val, v.max.val)
}

// CombineRanges reduces a set of ranges to its canonical disjoint cover:
// pairs whose intervals touch or overlap are merged, rescanning until a full
// pass produces no change.
func CombineRanges(in []*Range) []*Range {
	out := make([]*Range, len(in))
	copy(out, in)

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(out) && !changed; i++ {
			for j := i + 1; j < len(out) && !changed; j++ {
				merged, ok := mergeRanges(out[i], out[j])
				if !ok {
					continue
				}
				out[j] = out[len(out)-1]
				out[i] = merged
				out = out[:len(out)-1]
				changed = true
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return lessValue(out[i], out[j]) })

	return out
}

// mergeRanges merges two ranges into one iff their intervals overlap or,
// for integer types, touch: integer intervals like (1,10) and (11,20) leave
// no representable value between them and form one contiguous interval.
func mergeRanges(a, b *Range) (*Range, bool) {
	if a.dtype.IsInt() {
		if a.min.val.Cmp(b.max.val.add(1)) > 0 || b.min.val.Cmp(a.max.val.add(1)) > 0 {
			return nil, false
		}
	} else if a.min.val.Cmp(b.max.val) > 0 || b.min.val.Cmp(a.max.val) > 0 {
		return nil, false
	}

	min := a.min.val
	if b.min.val.Cmp(min) < 0 {
		min = b.min.val
	}
	max := a.max.val
	if b.max.val.Cmp(max) > 0 {
		max = b.max.val
	}

	return newRange(a.dtype, min, max), true
}

// rangeGapValue picks a value strictly between two adjacent ranges of a
// sorted, pre-merged set. The set must contain at least two ranges; merging
// guarantees at least one representable value between neighbors.
func rangeGapValue(set []*Range, ctx *GenContext) (Scalar, error) {
	if len(set) < 2 {
		return Scalar{}, fmt.Errorf("cannot pick a gap value from fewer than two ranges: %w", ErrNotInvalidatable)
	}

	idx := ctx.Intn(len(set) - 1)
	low, high := set[idx], set[idx+1]

	dt := low.dtype
	if dt.IsFloat() {
		const lo, hi = -100000, 100000
		return FloatScalar(ctx.RandFloatBetween(lo, hi)), nil
	}

	lo := low.max.val.add(1)
	hi := high.min.val.add(-1)
	return BigScalar(ctx.RandIntBetween(lo.Int(), hi.Int())), nil
}
