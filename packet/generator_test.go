package packet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmco/parselab/logger"
	"github.com/lmco/parselab/spec"
)

func testProtocol(t *testing.T, types ...*spec.MessageType) *spec.Protocol {
	t.Helper()
	p, err := spec.NewProtocol(types, nil)
	require.NoError(t, err)
	return p
}

func message(t *testing.T, name string, fields ...*spec.FieldDef) *spec.MessageType {
	t.Helper()
	mt, err := spec.NewMessageType(name, fields)
	require.NoError(t, err)
	return mt
}

func TestGenerateValidPacket(t *testing.T) {
	require := require.New(t)

	mt := message(t, "Command",
		mustField(t, spec.FieldConfig{Name: "opcode", Type: "U8", Value: "1|2|3", Owner: "Command"}),
		mustField(t, spec.FieldConfig{Name: "arg", Type: "U16", Value: "(0,1000)", Owner: "Command"}),
	)
	g := NewPacketGenerator(testProtocol(t, mt), WithSeed(1))

	for i := 0; i < 100; i++ {
		p, err := g.GeneratePacket("Command", true)
		require.NoError(err)
		require.True(p.Valid)
		require.False(p.Degraded)
		require.Empty(p.FaultField)
		require.Len(p.Values, 2)
		require.Equal(24, p.Bits)
		require.Len(p.Bytes(), 3)
	}

	_, err := g.GeneratePacket("Unknown", true)
	require.Error(err)
}

func TestGenerateRangeStaysInSampledInterval(t *testing.T) {
	require := require.New(t)

	mt := message(t, "M",
		mustField(t, spec.FieldConfig{Name: "f", Type: "U8", Value: "(10,50)", Owner: "M"}),
	)
	g := NewPacketGenerator(testProtocol(t, mt), WithSeed(2))

	for i := 0; i < 1000; i++ {
		p, err := g.GeneratePacket("M", true)
		require.NoError(err)
		n := int(p.Bytes()[0])
		require.GreaterOrEqual(n, 10)
		require.LessOrEqual(n, 49)
	}
}

func TestGenerateInvalidInjectsExactlyOneFault(t *testing.T) {
	require := require.New(t)

	mt := message(t, "M",
		mustField(t, spec.FieldConfig{Name: "a", Type: "U8", Value: "5", Owner: "M"}),
		mustField(t, spec.FieldConfig{Name: "b", Type: "U8", Value: "(10,50)", Owner: "M"}),
		mustField(t, spec.FieldConfig{Name: "c", Type: "U8", Value: "7", Owner: "M"}),
	)
	g := NewPacketGenerator(testProtocol(t, mt), WithSeed(3))

	for i := 0; i < 200; i++ {
		p, err := g.GeneratePacket("M", false)
		require.NoError(err)
		require.False(p.Valid)
		require.False(p.Degraded)
		require.Contains([]string{"a", "b", "c"}, p.FaultField)
		require.NotEqual(spec.ClassValid, p.FaultClass)

		faulted := 0
		for _, gv := range p.Values {
			if gv.Class != spec.ClassValid {
				faulted++
			}
		}
		require.Equal(1, faulted)
	}
}

func TestGenerateInvalidDegradesWhenNothingInvalidatable(t *testing.T) {
	require := require.New(t)

	mt := message(t, "M",
		mustField(t, spec.FieldConfig{Name: "magic", Type: "U16", Value: "0xBEEF", Strict: true, Owner: "M"}),
	)

	log := logger.NewMockLogger()
	log.On("Warn", "no field can be invalidated, degrading to a valid packet", []any{"message", "M"}).Return()
	log.On("Debug", "generated packet", []any{
		"message", "M", "valid", true, "degraded", true, "bits", 16,
	}).Return()

	g := NewPacketGenerator(testProtocol(t, mt), WithSeed(4), WithLogger(log))

	p, err := g.GeneratePacket("M", false)
	require.NoError(err)
	require.True(p.Valid)
	require.True(p.Degraded)
	require.Empty(p.FaultField)
	require.Equal([]byte{0xBE, 0xEF}, p.Bytes())
	log.AssertExpectations(t)
}

func TestGenerateStructExpansion(t *testing.T) {
	require := require.New(t)

	reg := spec.NewStructRegistry()
	id, err := spec.NewFieldDef(spec.FieldConfig{Name: "id", Type: "U8", Value: "9", Owner: "Header"}, reg)
	require.NoError(err)
	seq, err := spec.NewFieldDef(spec.FieldConfig{Name: "seq", Type: "U16", Value: "(0,100)", Owner: "Header"}, reg)
	require.NoError(err)
	require.NoError(reg.Register(spec.NewStruct("Header", []*spec.FieldDef{id, seq})))

	hdr, err := spec.NewFieldDef(spec.FieldConfig{Name: "hdr", Type: "Header", Owner: "M"}, reg)
	require.NoError(err)
	body, err := spec.NewFieldDef(spec.FieldConfig{Name: "body", Type: "U8", Value: "1", Owner: "M"}, reg)
	require.NoError(err)

	mt, err := spec.NewMessageType("M", []*spec.FieldDef{hdr, body})
	require.NoError(err)
	protocol, err := spec.NewProtocol([]*spec.MessageType{mt}, reg)
	require.NoError(err)

	g := NewPacketGenerator(protocol, WithSeed(5))

	p, err := g.GeneratePacket("M", true)
	require.NoError(err)
	require.True(p.Valid)
	// hdr.id, hdr.seq, body
	require.Len(p.Values, 3)
	require.Equal(32, p.Bits)
	require.Equal(byte(9), p.Bytes()[0])

	for i := 0; i < 100; i++ {
		p, err = g.GeneratePacket("M", false)
		require.NoError(err)
		require.False(p.Valid)
		require.Contains([]string{"hdr.id", "hdr.seq", "body"}, p.FaultField)
	}
}

func TestGenerateStructListFault(t *testing.T) {
	require := require.New(t)

	reg := spec.NewStructRegistry()
	x, err := spec.NewFieldDef(spec.FieldConfig{Name: "x", Type: "U8", Value: "3", Owner: "Point"}, reg)
	require.NoError(err)
	require.NoError(reg.Register(spec.NewStruct("Point", []*spec.FieldDef{x})))

	pts, err := spec.NewFieldDef(spec.FieldConfig{Name: "pts", Type: "Point[2]", Owner: "M"}, reg)
	require.NoError(err)

	mt, err := spec.NewMessageType("M", []*spec.FieldDef{pts})
	require.NoError(err)
	protocol, err := spec.NewProtocol([]*spec.MessageType{mt}, reg)
	require.NoError(err)

	g := NewPacketGenerator(protocol, WithSeed(6))

	p, err := g.GeneratePacket("M", true)
	require.NoError(err)
	require.Equal([]byte{3, 3}, p.Bytes())

	// corrupting a struct list always adds one repetition
	p, err = g.GeneratePacket("M", false)
	require.NoError(err)
	require.False(p.Valid)
	require.Equal("pts", p.FaultField)
	require.Equal(spec.ClassListTooLong, p.FaultClass)
	require.Equal([]byte{3, 3, 3}, p.Bytes())
	require.Equal("030303", p.HexString())
}

func TestGenerateDependencyDrivenList(t *testing.T) {
	require := require.New(t)

	mt := message(t, "M",
		mustField(t, spec.FieldConfig{Name: "len", Type: "U8", Value: "(1,5)", Dependee: true, Owner: "M"}),
		mustField(t, spec.FieldConfig{Name: "payload", Type: "U8[len]", Strict: true, Owner: "M"}),
	)
	g := NewPacketGenerator(testProtocol(t, mt), WithSeed(7))

	for i := 0; i < 100; i++ {
		p, err := g.GeneratePacket("M", true)
		require.NoError(err)
		n := int(p.Bytes()[0])
		require.Len(p.Bytes(), 1+n)
	}
}
