package spec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFieldDef(t *testing.T) {
	require := require.New(t)

	f, err := NewFieldDef(FieldConfig{Name: "opcode", Type: "U8", Value: "1|2|3", Owner: "Command"}, nil)
	require.NoError(err)
	require.Equal("opcode", f.Name)
	require.Equal("Command", f.Owner)
	require.Equal("CHOICE__1__2__3", f.RuleName())
	require.True(f.CanGenerateInvalid())

	// unconstrained scalar covers its whole domain
	f, err = NewFieldDef(FieldConfig{Name: "raw", Type: "U16", Owner: "Command"}, nil)
	require.NoError(err)
	require.False(f.CanGenerateInvalid())
	require.Equal("U16", f.RuleName())
}

func TestNewFieldDefErrors(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		cfg         FieldConfig
	}{
		{
			description: "missing name",
			cfg:         FieldConfig{Type: "U8", Owner: "M"},
		},
		{
			description: "literal outside type bounds",
			cfg:         FieldConfig{Name: "f", Type: "U8", Value: "300", Owner: "M"},
		},
		{
			description: "negative literal on unsigned type",
			cfg:         FieldConfig{Name: "f", Type: "U8", Value: "-1", Owner: "M"},
		},
		{
			description: "list value on scalar type",
			cfg:         FieldConfig{Name: "f", Type: "U8", Value: "[1,2]", Owner: "M"},
		},
		{
			description: "scalar value on list type",
			cfg:         FieldConfig{Name: "f", Type: "U8[3]", Value: "7", Owner: "M"},
		},
		{
			description: "list arity above fixed count",
			cfg:         FieldConfig{Name: "f", Type: "U8[2]", Value: "[1,2,3]", Owner: "M"},
		},
		{
			description: "choice alternative arity above fixed count",
			cfg:         FieldConfig{Name: "f", Type: "U8[2]", Value: "[1,2]|[1,2,3]", Owner: "M"},
		},
		{
			description: "dependee on a float type",
			cfg:         FieldConfig{Name: "f", Type: "F32", Dependee: true, Owner: "M"},
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		_, err := NewFieldDef(test.cfg, nil)
		require.Error(err)
	}
}

func TestStrictFieldNeverInvalidatable(t *testing.T) {
	require := require.New(t)

	f, err := NewFieldDef(FieldConfig{Name: "magic", Type: "U16", Value: "0xBEEF", Strict: true, Owner: "M"}, nil)
	require.NoError(err)
	require.False(f.CanGenerateInvalid())

	relaxed, err := NewFieldDef(FieldConfig{Name: "magic", Type: "U16", Value: "0xBEEF", Owner: "M"}, nil)
	require.NoError(err)
	require.True(relaxed.CanGenerateInvalid())
}

func TestDependeePublishing(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(20)

	length, err := NewFieldDef(FieldConfig{Name: "len", Type: "U8", Value: "(1,5)", Dependee: true, Owner: "M"}, nil)
	require.NoError(err)
	payload, err := NewFieldDef(FieldConfig{Name: "payload", Type: "U16[len]", Owner: "M"}, nil)
	require.NoError(err)

	gv, err := length.GenerateValid(ctx)
	require.NoError(err)
	require.Same(length, gv.Field)

	want := int(gv.Scalar().Int().Int64())
	got, err := payload.GenerateValid(ctx)
	require.NoError(err)
	require.Len(got.Values, want)
}

func TestStructRegistry(t *testing.T) {
	require := require.New(t)

	reg := NewStructRegistry()
	id, err := NewFieldDef(FieldConfig{Name: "id", Type: "U8", Owner: "Header"}, nil)
	require.NoError(err)

	require.NoError(reg.Register(NewStruct("Header", []*FieldDef{id})))
	require.ErrorIs(reg.Register(NewStruct("header", nil)), ErrDuplicateStruct)

	s, ok := reg.Lookup("HEADER")
	require.True(ok)
	require.Equal("Header", s.Name)

	_, ok = reg.Lookup("Footer")
	require.False(ok)
}

func TestStructCycleDetection(t *testing.T) {
	require := require.New(t)

	reg := NewStructRegistry()
	leafMember, err := NewFieldDef(FieldConfig{Name: "x", Type: "U8", Owner: "Leaf"}, reg)
	require.NoError(err)
	require.NoError(reg.Register(NewStruct("Leaf", []*FieldDef{leafMember})))

	innerMember, err := NewFieldDef(FieldConfig{Name: "leaf", Type: "Leaf", Owner: "Outer"}, reg)
	require.NoError(err)
	outer := NewStruct("Outer", []*FieldDef{innerMember})
	require.NoError(reg.Register(outer))
	require.NoError(reg.Validate())

	// splice a cycle Outer -> Loop -> Outer
	loopMember, err := NewFieldDef(FieldConfig{Name: "outer", Type: "Outer", Owner: "Loop"}, reg)
	require.NoError(err)
	require.NoError(reg.Register(NewStruct("Loop", []*FieldDef{loopMember})))
	outer.Members = append(outer.Members, mustField(t, FieldConfig{Name: "loop", Type: "Loop", Owner: "Outer"}, reg))

	require.ErrorIs(reg.Validate(), ErrCyclicStruct)
}

func mustField(t *testing.T, cfg FieldConfig, reg *StructRegistry) *FieldDef {
	t.Helper()
	f, err := NewFieldDef(cfg, reg)
	require.NoError(t, err)
	return f
}

func TestMessageTypeDuplicateFields(t *testing.T) {
	require := require.New(t)

	a := mustField(t, FieldConfig{Name: "a", Type: "U8", Owner: "M"}, nil)
	b := mustField(t, FieldConfig{Name: "A", Type: "U16", Owner: "M"}, nil)

	_, err := NewMessageType("M", []*FieldDef{a, b})
	require.Error(err)

	mt, err := NewMessageType("M", []*FieldDef{a})
	require.NoError(err)
	require.Equal("M", mt.Name)
}

func TestProtocolLookup(t *testing.T) {
	require := require.New(t)

	a := mustField(t, FieldConfig{Name: "a", Type: "U8", Owner: "Ping"}, nil)
	ping, err := NewMessageType("Ping", []*FieldDef{a})
	require.NoError(err)

	p, err := NewProtocol([]*MessageType{ping}, nil)
	require.NoError(err)

	mt, ok := p.MessageType("PING")
	require.True(ok)
	require.Same(ping, mt)

	_, ok = p.MessageType("Pong")
	require.False(ok)

	_, err = NewProtocol([]*MessageType{ping, ping}, nil)
	require.Error(err)
}
