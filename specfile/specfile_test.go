package specfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSpec = `{
	"structs": [
		{
			"struct_name": "Header",
			"members": [
				{"name": "version", "type": "U8", "value": 1},
				{"name": "length", "type": "U16"}
			]
		}
	],
	"protocol_types": [
		{
			"msg_name": "Command",
			"fields": [
				{"field_name": "hdr", "type": "Header"},
				{"name": "opcode", "type": "U8", "value": "1|2|3"},
				{"name": "checksum", "type": "U16", "strict": "true"},
				{"name": "count", "type": "U8", "dependee": true, "value": "(1,5)"},
				{"name": "items", "type": "U16[count]"},
				{"name": "debug", "type": "U8", "ignore": "true"}
			],
			"priority": 3
		},
		{
			"name": "Ack",
			"state_ids": ["idle", 2],
			"fields": [
				{"name": "code", "type": "U8[3]", "value": [1, 2, 3]}
			]
		},
		{
			"name": "Skipped",
			"ignore": "true",
			"fields": []
		}
	]
}`

func TestParseSampleSpec(t *testing.T) {
	require := require.New(t)

	p, err := NewParser().Parse([]byte(sampleSpec))
	require.NoError(err)
	require.Len(p.MessageTypes, 2)

	command, ok := p.MessageType("Command")
	require.True(ok)
	// the ignored field is dropped
	require.Len(command.Fields, 5)
	require.Equal(map[string]any{"priority": float64(3)}, command.Custom)

	hdr := command.Fields[0]
	require.True(hdr.DType.IsStruct())
	require.Equal("Header", hdr.DType.StructRef().Name)
	require.Len(hdr.DType.StructRef().Members, 2)

	checksum := command.Fields[2]
	require.True(checksum.Strict)
	require.False(checksum.CanGenerateInvalid())

	count := command.Fields[3]
	require.Equal("count", count.DType.Dependee())

	items := command.Fields[4]
	require.Equal("count", items.DType.ListDependency())

	ack, ok := p.MessageType("Ack")
	require.True(ok)
	require.Equal([]string{"idle", "2"}, ack.StateIDs)
	require.Equal("LIST__1__2__3", ack.Fields[0].RuleName())

	_, ok = p.MessageType("Skipped")
	require.False(ok)
}

func TestParseErrors(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		input       string
	}{
		{"not JSON", "plainly not json"},
		{"missing protocol types", `{"other": []}`},
		{"message without name", `{"protocol_types": [{"fields": []}]}`},
		{"field without type", `{"protocol_types": [{"name": "M", "fields": [{"name": "f"}]}]}`},
		{"field without name", `{"protocol_types": [{"name": "M", "fields": [{"type": "U8"}]}]}`},
		{"unknown struct reference", `{"protocol_types": [{"name": "M", "fields": [{"name": "f", "type": "Missing"}]}]}`},
		{
			"struct with a value",
			`{"structs": [{"name": "S", "value": "1", "members": []}], "protocol_types": []}`,
		},
		{
			"struct without members",
			`{"structs": [{"name": "S"}], "protocol_types": []}`,
		},
		{
			"struct field with a value",
			`{"structs": [{"name": "S", "members": [{"name": "x", "type": "U8"}]}],
			  "protocol_types": [{"name": "M", "fields": [{"name": "s", "type": "S", "value": "1"}]}]}`,
		},
		{
			"malformed value grammar",
			`{"protocol_types": [{"name": "M", "fields": [{"name": "f", "type": "U8", "value": "(1,2,3)"}]}]}`,
		},
		{
			"duplicate struct names",
			`{"structs": [
				{"name": "S", "members": [{"name": "x", "type": "U8"}]},
				{"name": "s", "members": [{"name": "y", "type": "U8"}]}
			 ], "protocol_types": []}`,
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		_, err := NewParser().Parse([]byte(test.input))
		require.Error(err)
	}
}

func TestValueStringForms(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		description string
		in          any
		want        string
	}{
		{"nil stays empty", nil, ""},
		{"string passes through", "(1,5)", "(1,5)"},
		{"whole number", float64(7), "7"},
		{"fractional number", 2.5, "2.5"},
		{"array becomes a list literal", []any{float64(1), "0x2", float64(3)}, "[1,0x2,3]"},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		got, err := valueString(test.in)
		require.NoError(err)
		require.Equal(test.want, got)
	}

	_, err := valueString(map[string]any{})
	require.Error(err)
}

func TestStructsResolveInDeclarationOrder(t *testing.T) {
	require := require.New(t)

	input := `{
		"structs": [
			{"name": "Inner", "members": [{"name": "x", "type": "U8"}]},
			{"name": "Outer", "members": [{"name": "inner", "type": "Inner[2]"}]}
		],
		"protocol_types": [
			{"name": "M", "fields": [{"name": "o", "type": "Outer"}]}
		]
	}`

	p, err := NewParser().Parse([]byte(input))
	require.NoError(err)

	mt, ok := p.MessageType("M")
	require.True(ok)
	require.True(mt.Fields[0].DType.IsStruct())

	inner, ok := p.Structs.Lookup("inner")
	require.True(ok)
	require.Equal("Inner", inner.Name)
}
