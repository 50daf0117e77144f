package spec

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Choice constrains a field to one of a set of alternatives. The
// alternatives are homogeneous (all Single, all Range, or all List),
// deduplicated, and held in canonical sorted order; range alternatives are
// merged into their disjoint cover. A Choice never nests another Choice.
type Choice struct {
	dtype    *DType
	contents []Value
}

// parseChoice matches a string with at least one top-level choice symbol
// outside list and range brackets. Each alternative is parsed as a List,
// Range or Single, in that order.
func parseChoice(s string, dt *DType) (*Choice, bool, error) {
	if !strings.ContainsRune(s, symChoice) {
		return nil, false, nil
	}

	inList := false
	inRange := false
	var segment strings.Builder
	var segments []string

	for i, c := range s {
		switch c {
		case symListOpen:
			if inList {
				return nil, false, syntaxErrorf(s, i, "cannot have nested list statements")
			}
			inList = true
			segment.WriteRune(c)
		case symListClose:
			if !inList {
				return nil, false, syntaxErrorf(s, i, "unexpected termination of list statement")
			}
			inList = false
			segment.WriteRune(c)
		case symRangeOpen:
			if inRange {
				return nil, false, syntaxErrorf(s, i, "cannot have nested range statements")
			}
			inRange = true
			segment.WriteRune(c)
		case symRangeClose:
			if !inRange {
				return nil, false, syntaxErrorf(s, i, "unexpected termination of range statement")
			}
			inRange = false
			segment.WriteRune(c)
		case symChoice:
			if inList || inRange {
				segment.WriteRune(c)
				continue
			}
			if i+1 < len(s) && s[i+1] == symChoice {
				return nil, false, syntaxErrorf(s, i, "cannot have two adjacent choice symbols")
			}
			segments = append(segments, segment.String())
			segment.Reset()
		default:
			segment.WriteRune(c)
		}
	}

	if len(segments) == 0 {
		return nil, false, nil
	}
	segments = append(segments, segment.String())

	contents := make([]Value, 0, len(segments))
	for _, seg := range segments {
		v, err := parseChoiceSegment(strings.TrimSpace(seg), dt)
		if err != nil {
			return nil, false, err
		}
		if !containsValue(contents, v) {
			contents = append(contents, v)
		}
	}

	c := &Choice{dtype: dt, contents: contents}
	if err := c.canonicalize(); err != nil {
		return nil, false, err
	}

	return c, true, nil
}

func parseChoiceSegment(seg string, dt *DType) (Value, error) {
	if l, ok, err := parseList(seg, dt); err != nil {
		return nil, err
	} else if ok {
		return l, nil
	}
	if r, ok, err := parseRange(seg, dt); err != nil {
		return nil, err
	} else if ok {
		return r, nil
	}
	if v, ok, err := parseSingle(seg, dt); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}
	return nil, syntaxErrorf(seg, 0, "unable to parse choice alternative")
}

// canonicalize validates homogeneity, merges range alternatives, and sorts.
func (v *Choice) canonicalize() error {
	if len(v.contents) < 1 {
		return fmt.Errorf("the choice operator must not be empty")
	}

	switch v.contents[0].(type) {
	case *Single:
		for _, item := range v.contents {
			if _, ok := item.(*Single); !ok {
				return fmt.Errorf("choice alternatives must all be of the same kind")
			}
		}
	case *Range:
		ranges := make([]*Range, 0, len(v.contents))
		for _, item := range v.contents {
			r, ok := item.(*Range)
			if !ok {
				return fmt.Errorf("choice alternatives must all be of the same kind")
			}
			ranges = append(ranges, r)
		}
		merged := CombineRanges(ranges)
		v.contents = v.contents[:0]
		for _, r := range merged {
			v.contents = append(v.contents, r)
		}
	case *List:
		for _, item := range v.contents {
			if _, ok := item.(*List); !ok {
				return fmt.Errorf("choice alternatives must all be of the same kind")
			}
		}
	}

	sort.Slice(v.contents, func(i, j int) bool { return lessValue(v.contents[i], v.contents[j]) })

	return nil
}

// Alternatives returns the canonical alternative set.
func (v *Choice) Alternatives() []Value { return v.contents }

// GenerateValid picks one alternative uniformly and recurses into it.
func (v *Choice) GenerateValid(ctx *GenContext) (*GeneratedValue, error) {
	opt := v.contents[ctx.Intn(len(v.contents))]
	return opt.GenerateValid(ctx)
}

// CanGenerateInvalid reports whether any value of the type falls outside
// every alternative.
func (v *Choice) CanGenerateInvalid() bool {
	switch v.contents[0].(type) {
	case *Single:
		if v.dtype.IsFloat() {
			return true
		}
		min, max := v.dtype.Bounds()
		domain := new(big.Int).Sub(max, min)
		domain.Add(domain, big.NewInt(1))
		return !(domain.IsInt64() && domain.Int64() == int64(len(v.contents)))
	case *Range:
		if len(v.contents) != 1 {
			return true
		}
		r := v.contents[0].(*Range)
		return r.CanGenerateInvalid()
	default: // *List
		for _, item := range v.contents {
			if !item.CanGenerateInvalid() {
				return false
			}
		}
		return true
	}
}

// GenerateInvalid produces a value outside every alternative: a domain value
// absent from a Single set, a value in the gap between two merged Ranges,
// or, for List alternatives, the invalidation of one randomly chosen
// alternative.
func (v *Choice) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	switch v.contents[0].(type) {
	case *Single:
		set := make([]*Single, 0, len(v.contents))
		for _, item := range v.contents {
			set = append(set, item.(*Single))
		}
		val, err := singleGapValue(set, ctx)
		if err != nil {
			return nil, err
		}
		return newGeneratedValue(ClassInvalid, v.dtype, val), nil

	case *Range:
		set := make([]*Range, 0, len(v.contents))
		for _, item := range v.contents {
			set = append(set, item.(*Range))
		}
		// Alternatives merged into one interval leave no gap; step past a
		// bound instead.
		if len(set) == 1 {
			return set[0].GenerateInvalid(ctx)
		}
		val, err := rangeGapValue(set, ctx)
		if err != nil {
			return nil, err
		}
		return newGeneratedValue(ClassInvalid, v.dtype, val), nil

	default: // *List
		opt := v.contents[ctx.Intn(len(v.contents))]
		return opt.GenerateInvalid(ctx)
	}
}

// Name returns the canonical rule name, e.g. CHOICE__3__RANGE__10_50.
func (v *Choice) Name() string {
	parts := make([]string, 0, len(v.contents))
	for _, item := range v.contents {
		parts = append(parts, item.Name())
	}
	return "CHOICE__" + strings.Join(parts, "__")
}

func (v *Choice) singles() []*Single {
	var all []*Single
	for _, item := range v.contents {
		all = append(all, item.singles()...)
	}
	return all
}

func (v *Choice) hasList() bool {
	for _, item := range v.contents {
		if item.hasList() {
			return true
		}
	}
	return false
}

func (v *Choice) value() {}

func (v *Choice) String() string {
	parts := make([]string, 0, len(v.contents))
	for _, item := range v.contents {
		parts = append(parts, fmt.Sprintf("%v", item))
	}
	return "OR(" + strings.Join(parts, ", ") + ")"
}

func containsValue(values []Value, v Value) bool {
	for _, existing := range values {
		if equalValue(existing, v) {
			return true
		}
	}
	return false
}
