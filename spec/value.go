package spec

// Value is the constraint placed on a field's domain. It is a closed
// hierarchy of four variants: Single, Range, Choice and List. Each variant
// knows how to produce a value inside its domain, how to produce one outside
// of it, and whether the latter is possible at all.
type Value interface {
	// GenerateValid produces a value guaranteed inside the constraint domain.
	GenerateValid(ctx *GenContext) (*GeneratedValue, error)

	// GenerateInvalid produces a value outside the constraint domain. Callers
	// must check CanGenerateInvalid first; some variants degrade to a valid
	// classification instead of failing when no invalid value exists.
	GenerateInvalid(ctx *GenContext) (*GeneratedValue, error)

	// CanGenerateInvalid reports whether the domain leaves room for an
	// invalid value.
	CanGenerateInvalid() bool

	// Name returns the canonical rule name of the constraint.
	Name() string

	// singles returns every Single literal reachable from this value, used
	// for bounds validation.
	singles() []*Single

	// hasList reports whether a List occurs anywhere in this value.
	hasList() bool

	value() // closed hierarchy marker
}

// ParseValue parses a value constraint string. The dispatch order is
// significant and preserved: Choice, then List, then Range, then Single. The
// first grammar that matches must consume the whole string.
func ParseValue(s string, dt *DType) (Value, error) {
	if c, ok, err := parseChoice(s, dt); err != nil {
		return nil, err
	} else if ok {
		return c, nil
	}

	if l, ok, err := parseList(s, dt); err != nil {
		return nil, err
	} else if ok {
		return l, nil
	}

	if r, ok, err := parseRange(s, dt); err != nil {
		return nil, err
	} else if ok {
		return r, nil
	}

	if v, ok, err := parseSingle(s, dt); err != nil {
		return nil, err
	} else if ok {
		return v, nil
	}

	return nil, syntaxErrorf(s, 0, "unable to parse value definition")
}

// equalValue reports whether two values describe the same constraint.
func equalValue(a, b Value) bool {
	switch av := a.(type) {
	case *Single:
		bv, ok := b.(*Single)
		return ok && av.val.Equal(bv.val)
	case *Range:
		bv, ok := b.(*Range)
		return ok && av.min.val.Equal(bv.min.val) && av.max.val.Equal(bv.max.val)
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.contents) != len(bv.contents) {
			return false
		}
		for i := range av.contents {
			if !equalValue(av.contents[i], bv.contents[i]) {
				return false
			}
		}
		return true
	case *Choice:
		bv, ok := b.(*Choice)
		if !ok || len(av.contents) != len(bv.contents) {
			return false
		}
		for i := range av.contents {
			if !equalValue(av.contents[i], bv.contents[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// lessValue orders values of the same variant for canonical sorting:
// singles by value, ranges by lower bound, lists and choices
// lexicographically by element.
func lessValue(a, b Value) bool {
	switch av := a.(type) {
	case *Single:
		if bv, ok := b.(*Single); ok {
			return av.val.Cmp(bv.val) < 0
		}
	case *Range:
		if bv, ok := b.(*Range); ok {
			return av.min.val.Cmp(bv.min.val) < 0
		}
	case *List:
		if bv, ok := b.(*List); ok {
			return lessValueSlice(av.contents, bv.contents)
		}
	case *Choice:
		if bv, ok := b.(*Choice); ok {
			return lessValueSlice(av.contents, bv.contents)
		}
	}
	return false
}

func lessValueSlice(a, b []Value) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if equalValue(a[i], b[i]) {
			continue
		}
		return lessValue(a[i], b[i])
	}
	return len(a) < len(b)
}
