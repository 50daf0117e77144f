package spec

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lmco/parselab/internal/util"
)

// List constrains a list-typed field to an ordered element sequence. Each
// element carries its own constraint (Single, Range or Choice), applied
// positionally.
type List struct {
	dtype    *DType
	contents []Value
}

// parseList matches an outer pair of list brackets, or a quoted string of
// two or more characters which desugars into a list of character literals.
func parseList(s string, dt *DType) (*List, bool, error) {
	if len(s) >= 2 && s[0] == symString && s[len(s)-1] == symString {
		// a one-character literal is a Single, not a list
		if utf8.RuneCountInString(s[1:len(s)-1]) == 1 {
			return nil, false, nil
		}
		return parseCharList(s, dt)
	}

	if len(s) < 2 || s[0] != symListOpen || s[len(s)-1] != symListClose {
		return nil, false, nil
	}

	inner := s[1 : len(s)-1]
	inRange := false
	var segment strings.Builder
	var segments []string

	for i, c := range inner {
		switch c {
		case symListOpen:
			return nil, false, syntaxErrorf(inner, i, "cannot have nested list statements")
		case symListClose:
			return nil, false, syntaxErrorf(inner, i, "unexpected termination of list statement")
		case symRangeOpen:
			if inRange {
				return nil, false, syntaxErrorf(inner, i, "cannot have nested range statements")
			}
			inRange = true
			segment.WriteRune(c)
		case symRangeClose:
			if !inRange {
				return nil, false, syntaxErrorf(inner, i, "unexpected termination of range statement")
			}
			inRange = false
			segment.WriteRune(c)
		case symDelimiter:
			if inRange {
				segment.WriteRune(c)
				continue
			}
			segments = append(segments, segment.String())
			segment.Reset()
		default:
			segment.WriteRune(c)
		}
	}
	segments = append(segments, segment.String())

	contents := make([]Value, 0, len(segments))
	for _, seg := range segments {
		v, err := parseListSegment(strings.TrimSpace(seg), dt)
		if err != nil {
			return nil, false, err
		}
		contents = append(contents, v)
	}

	return &List{dtype: dt, contents: contents}, true, nil
}

// parseCharList desugars a quoted string into one character literal per rune.
func parseCharList(s string, dt *DType) (*List, bool, error) {
	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil, false, syntaxErrorf(s, 1, "cannot have an empty character string")
	}

	contents := make([]Value, 0, len(inner))
	for i, c := range inner {
		val, err := parseScalar(string(symString)+string(c)+string(symString), dt)
		if err != nil {
			return nil, false, syntaxErrorf(s, i+1, "invalid character element: %v", err)
		}
		contents = append(contents, newSingle(dt, val))
	}

	return &List{dtype: dt, contents: contents}, true, nil
}

// parseListSegment parses one element constraint, trying the grammars in the
// same order as the top-level dispatch minus List itself.
func parseListSegment(seg string, dt *DType) (Value, error) {
	if c, ok, err := parseChoice(seg, dt); err != nil {
		return nil, err
	} else if ok {
		return c, nil
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
	return nil, syntaxErrorf(seg, 0, "unable to parse list element")
}

// Elements returns the ordered element constraints.
func (v *List) Elements() []Value { return v.contents }

// Arity returns the declared element count.
func (v *List) Arity() int { return len(v.contents) }

// GenerateValid generates each element independently and concatenates the
// results in declared order.
func (v *List) GenerateValid(ctx *GenContext) (*GeneratedValue, error) {
	values := make([]Scalar, 0, len(v.contents))
	for _, element := range v.contents {
		gv, err := element.GenerateValid(ctx)
		if err != nil {
			return nil, fmt.Errorf("list element %s: %w", element.Name(), err)
		}
		values = append(values, gv.Values...)
	}
	return newGeneratedList(ClassValid, v.dtype, values), nil
}

// CanGenerateInvalid always reports true: the length can be perturbed even
// when no element constraint leaves room for an invalid value.
func (v *List) CanGenerateInvalid() bool { return true }

// GenerateInvalid perturbs the length: with even odds (always when the list
// has at most one element) it appends one extra valid value of the element
// type, otherwise it drops the last element.
func (v *List) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	gv, err := v.GenerateValid(ctx)
	if err != nil {
		return nil, err
	}
	values := gv.Values

	if len(values) <= 1 || ctx.Coin() {
		extra, err := v.dtype.generateValidScalar(ctx)
		if err != nil {
			return nil, err
		}
		return newGeneratedList(ClassListTooLong, v.dtype, append(values, extra)), nil
	}

	return newGeneratedList(ClassListTooShort, v.dtype, util.CloneSlice(values, len(values)-1)), nil
}

// Name returns the canonical rule name, e.g. LIST__1__2__3.
func (v *List) Name() string {
	parts := make([]string, 0, len(v.contents))
	for _, item := range v.contents {
		parts = append(parts, item.Name())
	}
	return "LIST__" + strings.Join(parts, "__")
}

func (v *List) singles() []*Single {
	var all []*Single
	for _, item := range v.contents {
		all = append(all, item.singles()...)
	}
	return all
}

func (v *List) hasList() bool { return true }
func (v *List) value()        {}

func (v *List) String() string {
	parts := make([]string, 0, len(v.contents))
	for _, item := range v.contents {
		parts = append(parts, fmt.Sprintf("%v", item))
	}
	return "LIST(" + strings.Join(parts, ", ") + ")"
}
