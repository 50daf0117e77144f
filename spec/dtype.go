package spec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/lmco/parselab/internal/util"
)

// Symbols of the type and value grammars.
const (
	symLittleEndian = '<'
	symBigEndian    = '>'
	symDepOpen      = '['
	symDepClose     = ']'
	symListOpen     = '['
	symListClose    = ']'
	symRangeOpen    = '('
	symRangeClose   = ')'
	symChoice       = '|'
	symDelimiter    = ','
	symString       = '\''
)

// Native type codes.
const (
	codeUnsigned = 'U'
	codeSigned   = 'I'
	codeFloat    = 'F'
	codeDouble   = 'D'
)

// nativeFloatWidth is the only supported float width.
const nativeFloatWidth = 32

// Kind discriminates the three shapes a field type can take.
type Kind int

const (
	// KindInt is a native signed or unsigned integer.
	KindInt Kind = iota
	// KindFloat is a native IEEE-754 float.
	KindFloat
	// KindStruct is a reference to a registered aggregate type.
	KindStruct
)

// DType is the parsed type descriptor of one field: bit width, signedness,
// endianness, list and dependency shape, and an optional struct reference.
//
// A DType is immutable once parsed. The grammar is
//
//	type     := [endian] base ['[' listspec ']']
//	endian   := '<' | '>'                      (absent means big-endian)
//	base     := ('U'|'I'|'F') digits | identifier
//	listspec := digits | identifier
//
// where an identifier base must name a registered struct, digit listspecs fix
// the element count, and identifier listspecs name another field in the same
// message whose generated value supplies the count.
type DType struct {
	raw       string
	fieldName string
	kind      Kind
	signed    bool
	bitWidth  int
	isList    bool
	listCount int
	listDep   string
	bigEndian bool
	dependee  string
	structRef *Struct
	min, max  *big.Int
}

// ParseDType parses a type string. dependee is the owning field's name when
// the field publishes its value for other fields, empty otherwise. The
// registry resolves struct-typed bases and may be nil when the protocol
// declares no structs.
func ParseDType(raw, dependee, fieldName string, reg *StructRegistry) (*DType, error) {
	dt := &DType{
		raw:       raw,
		fieldName: fieldName,
		dependee:  dependee,
		bigEndian: true,
		bitWidth:  -1,
	}

	s := raw
	if s == "" {
		return nil, syntaxErrorf(raw, 0, "field %q has an empty type", fieldName)
	}

	offset := 0
	if s[0] == symLittleEndian || s[0] == symBigEndian {
		dt.bigEndian = s[0] == symBigEndian
		s = s[1:]
		offset = 1
	}

	base, listSpec, err := splitTypeString(raw, s, offset)
	if err != nil {
		return nil, err
	}

	if err := dt.parseBase(raw, base, offset, reg); err != nil {
		return nil, err
	}
	// the list spec starts one past the opening bracket
	if err := dt.parseListSpec(raw, listSpec, offset+len(base)+1); err != nil {
		return nil, err
	}

	if dt.dependee != "" && dt.kind != KindInt {
		return nil, fmt.Errorf("field %q (%s): a dependee must be of an integer type", fieldName, raw)
	}

	if dt.kind == KindInt {
		dt.min, dt.max = intBounds(dt.bitWidth, dt.signed)
	}

	return dt, nil
}

// splitTypeString separates the base type from the bracketed list spec,
// rejecting nested or unbalanced brackets and stray symbols.
func splitTypeString(raw, s string, offset int) (base, listSpec string, err error) {
	inDep := false
	sawDep := false
	var baseB, depB strings.Builder

	for i, c := range s {
		switch {
		case c == symDepOpen:
			if inDep || sawDep {
				return "", "", syntaxErrorf(raw, offset+i, "cannot have nested dependencies in a type")
			}
			if baseB.Len() == 0 {
				return "", "", syntaxErrorf(raw, offset+i, "cannot declare a dependency without a base type")
			}
			inDep = true
		case c == symDepClose:
			if !inDep {
				return "", "", syntaxErrorf(raw, offset+i, "unexpected termination of dependency")
			}
			if depB.Len() == 0 {
				return "", "", syntaxErrorf(raw, offset+i, "cannot declare an empty dependency")
			}
			inDep = false
			sawDep = true
		case isAlphaNumeric(c):
			if inDep {
				depB.WriteRune(c)
			} else {
				if sawDep {
					return "", "", syntaxErrorf(raw, offset+i, "unexpected character after dependency block")
				}
				baseB.WriteRune(c)
			}
		default:
			return "", "", syntaxErrorf(raw, offset+i, "unexpected symbol in field type")
		}
	}

	if inDep {
		return "", "", syntaxErrorf(raw, len(raw)-1, "dependency block is never terminated with %q", string(symDepClose))
	}
	if baseB.Len() == 0 {
		return "", "", syntaxErrorf(raw, len(raw)-1, "reached end of type without declaring a base type")
	}

	return baseB.String(), depB.String(), nil
}

func (dt *DType) parseBase(raw, base string, offset int, reg *StructRegistry) error {
	switch base[0] {
	case codeUnsigned, codeSigned, codeFloat, codeDouble:
		width, err := strconv.Atoi(base[1:])
		if err != nil {
			break // fall through to struct lookup, e.g. a struct named "Uplink"
		}
		if width <= 0 {
			return syntaxErrorf(raw, offset+1, "type width must be a positive number, got %d", width)
		}
		switch base[0] {
		case codeUnsigned:
			dt.kind = KindInt
		case codeSigned:
			dt.kind = KindInt
			dt.signed = true
		case codeFloat:
			if width != nativeFloatWidth {
				return syntaxErrorf(raw, offset+1, "float width %d is not supported, did you mean F32?", width)
			}
			dt.kind = KindFloat
		case codeDouble:
			return syntaxErrorf(raw, offset, "the D type code is reserved and not supported yet")
		}
		dt.bitWidth = width
		return nil
	}

	if reg != nil {
		if s, ok := reg.Lookup(base); ok {
			dt.kind = KindStruct
			dt.structRef = s
			return nil
		}
	}

	return fmt.Errorf("field %q: %w: %q", dt.fieldName, ErrUnknownStruct, base)
}

func (dt *DType) parseListSpec(raw, listSpec string, offset int) error {
	if listSpec == "" {
		return nil
	}

	if n, err := strconv.Atoi(listSpec); err == nil {
		if n == 0 {
			return syntaxErrorf(raw, offset, "cannot have a zero-length list type")
		}
		dt.isList = true
		dt.listCount = n
		return nil
	}

	first := rune(listSpec[0])
	if !isAlpha(first) && first != '_' {
		return syntaxErrorf(raw, offset, "dependency name %q must start with a letter or underscore", listSpec)
	}
	for i, c := range listSpec {
		if !isAlphaNumeric(c) {
			return syntaxErrorf(raw, offset+i, "dependency name %q must be alphanumeric", listSpec)
		}
	}
	dt.isList = true
	dt.listDep = listSpec

	return nil
}

// intBounds returns the inclusive representable range for an integer of the
// given width and signedness.
func intBounds(width int, signed bool) (min, max *big.Int) {
	one := big.NewInt(1)
	if signed {
		min = new(big.Int).Neg(new(big.Int).Lsh(one, uint(width-1)))
		max = new(big.Int).Sub(new(big.Int).Lsh(one, uint(width-1)), one)
		return min, max
	}
	min = big.NewInt(0)
	max = new(big.Int).Sub(new(big.Int).Lsh(one, uint(width)), one)
	return min, max
}

// Kind returns the type's kind.
func (dt *DType) Kind() Kind { return dt.kind }

// IsInt reports whether the type is a native integer.
func (dt *DType) IsInt() bool { return dt.kind == KindInt }

// IsFloat reports whether the type is a native float.
func (dt *DType) IsFloat() bool { return dt.kind == KindFloat }

// IsStruct reports whether the type references a struct.
func (dt *DType) IsStruct() bool { return dt.kind == KindStruct }

// Signed reports whether the integer type is signed.
func (dt *DType) Signed() bool { return dt.signed }

// BitWidth returns the native bit width, or -1 for struct types.
func (dt *DType) BitWidth() int { return dt.bitWidth }

// IsList reports whether the type declares a list shape.
func (dt *DType) IsList() bool { return dt.isList }

// ListCount returns the fixed element count, or 0 when the length comes from
// a dependency or the type is not a list.
func (dt *DType) ListCount() int { return dt.listCount }

// ListDependency returns the name of the field supplying the element count,
// or the empty string.
func (dt *DType) ListDependency() string { return dt.listDep }

// IsBigEndian reports the byte order of multi-byte values.
func (dt *DType) IsBigEndian() bool { return dt.bigEndian }

// Dependee returns the owning field's name when the field publishes its
// generated value, or the empty string.
func (dt *DType) Dependee() string { return dt.dependee }

// StructRef returns the referenced struct for struct types, nil otherwise.
func (dt *DType) StructRef() *Struct { return dt.structRef }

// FieldName returns the name of the field this type was declared on.
func (dt *DType) FieldName() string { return dt.fieldName }

// Bounds returns the inclusive representable range of the integer type.
// It returns nils for float and struct types.
func (dt *DType) Bounds() (min, max *big.Int) {
	return dt.min, dt.max
}

func (dt *DType) String() string {
	if dt.listDep != "" {
		return fmt.Sprintf("%s[%s]", dt.baseString(), dt.listDep)
	}
	if dt.isList {
		return fmt.Sprintf("%s[%d]", dt.baseString(), dt.listCount)
	}
	return dt.baseString()
}

func (dt *DType) baseString() string {
	switch dt.kind {
	case KindStruct:
		return dt.structRef.Name
	case KindFloat:
		return fmt.Sprintf("F%d", dt.bitWidth)
	default:
		if dt.signed {
			return fmt.Sprintf("I%d", dt.bitWidth)
		}
		return fmt.Sprintf("U%d", dt.bitWidth)
	}
}

// ResolveCount determines the element count of a list-typed field, reading
// the dependency table when the length comes from another field.
func (dt *DType) ResolveCount(ctx *GenContext) (int, error) {
	if dt.listDep == "" {
		return dt.listCount, nil
	}
	n, err := ctx.DependencyCount(dt.listDep)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", dt.fieldName, err)
	}
	return n, nil
}

// generateValidScalar produces one value inside the type's natural domain.
func (dt *DType) generateValidScalar(ctx *GenContext) (Scalar, error) {
	switch dt.kind {
	case KindFloat:
		return FloatScalar(ctx.RandFloatBetween(floatDomainMin, floatDomainMax)), nil
	case KindInt:
		return BigScalar(ctx.RandIntBetween(dt.min, dt.max)), nil
	default:
		return Scalar{}, fmt.Errorf("field %q: cannot generate a scalar for a struct type", dt.fieldName)
	}
}

// Natural float sampling domain for unconstrained float fields.
const (
	floatDomainMin = -10000
	floatDomainMax = 10000
)

// GenerateValid produces a value inside the type's natural domain. For list
// types the element count comes from the fixed count or the dependency table.
func (dt *DType) GenerateValid(ctx *GenContext) (*GeneratedValue, error) {
	if !dt.isList {
		s, err := dt.generateValidScalar(ctx)
		if err != nil {
			return nil, err
		}
		return newGeneratedValue(ClassValid, dt, s), nil
	}

	count, err := dt.ResolveCount(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]Scalar, 0, count)
	for i := 0; i < count; i++ {
		s, err := dt.generateValidScalar(ctx)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}

	return newGeneratedList(ClassValid, dt, values), nil
}

// CanGenerateInvalid reports whether the bare type, absent any value
// constraint, can produce an invalid value. Only list lengths can be
// perturbed; a scalar covering its whole natural domain cannot.
func (dt *DType) CanGenerateInvalid() bool {
	return dt.isList
}

// GenerateInvalid produces a list with a perturbed length: one extra valid
// element, or one element short. Callers must check CanGenerateInvalid first.
func (dt *DType) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	if !dt.isList {
		return nil, fmt.Errorf("field %q: %w", dt.fieldName, ErrNotInvalidatable)
	}

	gv, err := dt.GenerateValid(ctx)
	if err != nil {
		return nil, err
	}

	values := gv.Values
	if len(values) <= 1 || ctx.Coin() {
		extra, err := dt.generateValidScalar(ctx)
		if err != nil {
			return nil, err
		}
		return newGeneratedList(ClassListTooLong, dt, append(values, extra)), nil
	}

	return newGeneratedList(ClassListTooShort, dt, util.CloneSlice(values, len(values)-1)), nil
}
