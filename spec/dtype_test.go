package spec

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContext(seed int64) *GenContext {
	return NewGenContext(rand.New(rand.NewSource(seed)))
}

func TestParseDType(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		input       string
		kind        Kind
		signed      bool
		width       int
		bigEndian   bool
		isList      bool
		listCount   int
		listDep     string
	}{
		{
			description: "unsigned byte",
			input:       "U8",
			kind:        KindInt,
			width:       8,
			bigEndian:   true,
		},
		{
			description: "signed 16-bit",
			input:       "I16",
			kind:        KindInt,
			signed:      true,
			width:       16,
			bigEndian:   true,
		},
		{
			description: "little-endian unsigned 32-bit",
			input:       "<U32",
			kind:        KindInt,
			width:       32,
		},
		{
			description: "explicit big-endian",
			input:       ">U16",
			kind:        KindInt,
			width:       16,
			bigEndian:   true,
		},
		{
			description: "32-bit float",
			input:       "F32",
			kind:        KindFloat,
			width:       32,
			bigEndian:   true,
		},
		{
			description: "fixed-count list",
			input:       "U16[3]",
			kind:        KindInt,
			width:       16,
			bigEndian:   true,
			isList:      true,
			listCount:   3,
		},
		{
			description: "dependency-counted list",
			input:       "U8[payload_len]",
			kind:        KindInt,
			width:       8,
			bigEndian:   true,
			isList:      true,
			listDep:     "payload_len",
		},
		{
			description: "little-endian signed list",
			input:       "<I64[2]",
			kind:        KindInt,
			signed:      true,
			width:       64,
			isList:      true,
			listCount:   2,
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		dt, err := ParseDType(test.input, "", "f", nil)
		require.NoError(err)
		require.Equal(test.kind, dt.Kind())
		require.Equal(test.signed, dt.Signed())
		require.Equal(test.width, dt.BitWidth())
		require.Equal(test.bigEndian, dt.IsBigEndian())
		require.Equal(test.isList, dt.IsList())
		require.Equal(test.listCount, dt.ListCount())
		require.Equal(test.listDep, dt.ListDependency())
	}
}

func TestParseDTypeErrors(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		input       string
	}{
		{"empty type", ""},
		{"unknown base", "Frame"},
		{"missing width treated as struct lookup", "U"},
		{"zero width", "U0"},
		{"unsupported float width", "F64"},
		{"reserved double code", "D64"},
		{"zero-length list", "U8[0]"},
		{"unterminated list spec", "U8[3"},
		{"nested list spec", "U8[[3]]"},
		{"empty list spec", "U8[]"},
		{"trailing garbage", "U8[3]x"},
		{"stray symbol", "U8%"},
		{"dependency starting with digit", "U8[3abc]"},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		_, err := ParseDType(test.input, "", "f", nil)
		require.Error(err)
	}
}

func TestParseDTypeErrorOffsets(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		input       string
		offset      int
	}{
		{"zero width after endian prefix", "<U0", 2},
		{"unsupported float width", "F64", 1},
		{"reserved double code", "D64", 0},
		{"zero-length list", "U8[0]", 3},
		{"zero-length list after endian prefix", "<U8[0]", 4},
		{"dependency starting with digit", "<U16[9abc]", 5},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		_, err := ParseDType(test.input, "", "f", nil)
		require.Error(err)
		var serr *SyntaxError
		require.ErrorAs(err, &serr)
		require.Equal(test.offset, serr.Offset, "input %q", test.input)
	}
}

func TestParseDTypeStructRef(t *testing.T) {
	require := require.New(t)

	reg := NewStructRegistry()
	member, err := NewFieldDef(FieldConfig{Name: "id", Type: "U8", Owner: "Header"}, nil)
	require.NoError(err)
	require.NoError(reg.Register(NewStruct("Header", []*FieldDef{member})))

	dt, err := ParseDType("Header", "", "hdr", reg)
	require.NoError(err)
	require.True(dt.IsStruct())
	require.Equal("Header", dt.StructRef().Name)

	// lookup is case-insensitive
	dt, err = ParseDType("header[2]", "", "hdrs", reg)
	require.NoError(err)
	require.True(dt.IsStruct())
	require.True(dt.IsList())
	require.Equal(2, dt.ListCount())

	_, err = ParseDType("Trailer", "", "x", reg)
	require.ErrorIs(err, ErrUnknownStruct)
}

func TestParseDTypeDependeeMustBeInt(t *testing.T) {
	require := require.New(t)

	_, err := ParseDType("F32", "count", "count", nil)
	require.Error(err)

	dt, err := ParseDType("U16", "count", "count", nil)
	require.NoError(err)
	require.Equal("count", dt.Dependee())
}

func TestDTypeBounds(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		input    string
		min, max string
	}{
		{"U8", "0", "255"},
		{"I8", "-128", "127"},
		{"U16", "0", "65535"},
		{"I16", "-32768", "32767"},
		{"U64", "0", "18446744073709551615"},
		{"I64", "-9223372036854775808", "9223372036854775807"},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.input)
		dt, err := ParseDType(test.input, "", "f", nil)
		require.NoError(err)
		min, max := dt.Bounds()
		require.Equal(test.min, min.String())
		require.Equal(test.max, max.String())
	}
}

func TestDTypeGenerateValidWithinBounds(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(1)

	for _, typeStr := range []string{"U8", "I8", "U16", "I32", "U64", "I64"} {
		dt, err := ParseDType(typeStr, "", "f", nil)
		require.NoError(err)
		min, max := dt.Bounds()
		for i := 0; i < 200; i++ {
			gv, err := dt.GenerateValid(ctx)
			require.NoError(err)
			require.Equal(ClassValid, gv.Class)
			v := gv.Scalar().Int()
			require.GreaterOrEqual(v.Cmp(min), 0, "type %s generated %s", typeStr, v)
			require.LessOrEqual(v.Cmp(max), 0, "type %s generated %s", typeStr, v)
		}
	}
}

func TestDTypeGenerateValidList(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(2)

	dt, err := ParseDType("U8[5]", "", "f", nil)
	require.NoError(err)
	gv, err := dt.GenerateValid(ctx)
	require.NoError(err)
	require.True(gv.IsList)
	require.Len(gv.Values, 5)
}

func TestDTypeDependencyCount(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(3)

	dt, err := ParseDType("U8[len]", "", "payload", nil)
	require.NoError(err)

	_, err = dt.GenerateValid(ctx)
	require.ErrorIs(err, ErrUnresolvedDependency)

	ctx.PublishDependee("Len", BigScalar(big.NewInt(4)))
	gv, err := dt.GenerateValid(ctx)
	require.NoError(err)
	require.Len(gv.Values, 4)
}

func TestDTypeGenerateInvalidPerturbsLength(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(4)

	dt, err := ParseDType("U8[3]", "", "f", nil)
	require.NoError(err)
	require.True(dt.CanGenerateInvalid())

	for i := 0; i < 50; i++ {
		gv, err := dt.GenerateInvalid(ctx)
		require.NoError(err)
		switch gv.Class {
		case ClassListTooLong:
			require.Len(gv.Values, 4)
		case ClassListTooShort:
			require.Len(gv.Values, 2)
		default:
			t.Fatalf("unexpected classification %s", gv.Class)
		}
	}

	scalar, err := ParseDType("U8", "", "f", nil)
	require.NoError(err)
	require.False(scalar.CanGenerateInvalid())
	_, err = scalar.GenerateInvalid(ctx)
	require.ErrorIs(err, ErrNotInvalidatable)
}
