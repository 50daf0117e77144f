package spec

import (
	"fmt"
	"strings"
)

// MessageType is one named message: an ordered field list plus optional state
// ids and free-form metadata carried through from the specification file.
// State ids are opaque to generation; stateful protocol drivers consume them.
type MessageType struct {
	Name     string
	Fields   []*FieldDef
	StateIDs []string
	Custom   map[string]any
}

// NewMessageType creates a message type from its ordered fields.
func NewMessageType(name string, fields []*FieldDef) (*MessageType, error) {
	if name == "" {
		return nil, fmt.Errorf("a message type must have a name")
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		key := strings.ToLower(f.Name)
		if seen[key] {
			return nil, fmt.Errorf("message %q: duplicate field name %q", name, f.Name)
		}
		seen[key] = true
	}

	return &MessageType{Name: name, Fields: fields}, nil
}

func (m *MessageType) String() string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(names, ", "))
}

// Protocol is a parsed protocol specification: its message types in
// declaration order and the struct registry they resolve against.
type Protocol struct {
	MessageTypes []*MessageType
	Structs      *StructRegistry
}

// NewProtocol creates a protocol from its message types and structs. Message
// names must be unique case-insensitively, and the struct set must be
// acyclic.
func NewProtocol(types []*MessageType, structs *StructRegistry) (*Protocol, error) {
	if structs == nil {
		structs = NewStructRegistry()
	}
	if err := structs.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(types))
	for _, mt := range types {
		key := strings.ToLower(mt.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate message type %q", mt.Name)
		}
		seen[key] = true
	}

	return &Protocol{MessageTypes: types, Structs: structs}, nil
}

// MessageType resolves a message type by name, case-insensitively.
func (p *Protocol) MessageType(name string) (*MessageType, bool) {
	for _, mt := range p.MessageTypes {
		if strings.EqualFold(mt.Name, name) {
			return mt, true
		}
	}
	return nil, false
}
