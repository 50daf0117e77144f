// Package specfile ingests JSON protocol specification files into a parsed
// Protocol. A specification file declares optional structs and a list of
// protocol message types, each carrying named, typed, optionally constrained
// fields; unrecognized keys are preserved as custom metadata.
package specfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lmco/parselab/logger"
	"github.com/lmco/parselab/spec"
)

// JSON object keys of the specification format.
const (
	keyProtocolTypes = "protocol_types"
	keyStructs       = "structs"
	keyName          = "name"
	keyMsgName       = "msg_name"
	keyStructName    = "struct_name"
	keyFieldName     = "field_name"
	keyFields        = "fields"
	keyMembers       = "members"
	keyType          = "type"
	keyValue         = "value"
	keyDependee      = "dependee"
	keyStrict        = "strict"
	keyIgnore        = "ignore"
	keyStateIDs      = "state_ids"
)

// Parser parses JSON protocol specification files.
type Parser struct {
	logger logger.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the parser's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// NewParser creates a specification file parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: logger.GetLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads and parses one specification file.
func (p *Parser) ParseFile(path string) (*spec.Protocol, error) {
	p.logger.Info("parsing protocol specification", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specification %q: %w", path, err)
	}
	return p.Parse(data)
}

// Parse parses specification bytes. Structs are registered first, in
// declaration order, so message fields can reference them by name.
func (p *Parser) Parse(data []byte) (*spec.Protocol, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("specification is not well-formed JSON: %w", err)
	}

	reg := spec.NewStructRegistry()
	if raw, ok := doc[keyStructs]; ok {
		if err := p.parseStructs(raw, reg); err != nil {
			return nil, err
		}
	}

	raw, ok := doc[keyProtocolTypes]
	if !ok {
		return nil, fmt.Errorf("specification has no %q list", keyProtocolTypes)
	}

	types, err := p.parseMessageTypes(raw, reg)
	if err != nil {
		return nil, err
	}

	return spec.NewProtocol(types, reg)
}

func (p *Parser) parseStructs(raw json.RawMessage, reg *spec.StructRegistry) error {
	var objs []map[string]any
	if err := json.Unmarshal(raw, &objs); err != nil {
		return fmt.Errorf("%q must be a list of objects: %w", keyStructs, err)
	}

	for _, obj := range objs {
		name := stringKey(obj, keyStructName, keyName)
		if name == "" {
			return fmt.Errorf("every struct requires a name")
		}
		if flexBool(obj[keyIgnore]) {
			p.logger.Info("skipping ignored struct", "struct", name)
			continue
		}
		if _, ok := obj[keyValue]; ok {
			return fmt.Errorf("struct %q: a struct cannot declare a value", name)
		}

		memberObjs, ok := obj[keyMembers].([]any)
		if !ok {
			return fmt.Errorf("struct %q requires a %q list", name, keyMembers)
		}

		members := make([]*spec.FieldDef, 0, len(memberObjs))
		for _, m := range memberObjs {
			memberObj, ok := m.(map[string]any)
			if !ok {
				return fmt.Errorf("struct %q: every member must be an object", name)
			}
			f, err := p.parseField(memberObj, name, reg)
			if err != nil {
				return err
			}
			if f != nil {
				members = append(members, f)
			}
		}

		if err := reg.Register(spec.NewStruct(name, members)); err != nil {
			return err
		}
		p.logger.Debug("registered struct", "struct", name, "members", len(members))
	}

	return nil
}

func (p *Parser) parseMessageTypes(raw json.RawMessage, reg *spec.StructRegistry) ([]*spec.MessageType, error) {
	var objs []map[string]any
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("%q must be a list of objects: %w", keyProtocolTypes, err)
	}

	var types []*spec.MessageType
	for _, obj := range objs {
		name := stringKey(obj, keyMsgName, keyName)
		if name == "" {
			return nil, fmt.Errorf("every message type requires a name")
		}
		if flexBool(obj[keyIgnore]) {
			p.logger.Info("skipping ignored message type", "message", name)
			continue
		}

		fieldObjs, ok := obj[keyFields].([]any)
		if !ok {
			return nil, fmt.Errorf("message %q requires a %q list", name, keyFields)
		}

		var fields []*spec.FieldDef
		for _, fo := range fieldObjs {
			fieldObj, ok := fo.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("message %q: every field must be an object", name)
			}
			f, err := p.parseField(fieldObj, name, reg)
			if err != nil {
				return nil, err
			}
			if f != nil {
				fields = append(fields, f)
			}
		}

		mt, err := spec.NewMessageType(name, fields)
		if err != nil {
			return nil, err
		}
		mt.StateIDs = stateIDs(obj[keyStateIDs])
		mt.Custom = customKeys(obj, keyName, keyMsgName, keyFields, keyIgnore, keyStateIDs)
		types = append(types, mt)

		p.logger.Debug("parsed message type", "message", name, "fields", len(fields))
	}

	return types, nil
}

// parseField builds one field from its JSON object. A nil field (no error)
// means the field carries an ignore flag.
func (p *Parser) parseField(obj map[string]any, owner string, reg *spec.StructRegistry) (*spec.FieldDef, error) {
	name := stringKey(obj, keyFieldName, keyName)
	if name == "" {
		return nil, fmt.Errorf("message %q: every field requires a name", owner)
	}
	if flexBool(obj[keyIgnore]) {
		p.logger.Info("skipping ignored field", "owner", owner, "field", name)
		return nil, nil
	}

	typeStr, _ := obj[keyType].(string)
	if typeStr == "" {
		return nil, fmt.Errorf("field %q of %q requires a type", name, owner)
	}

	value, err := valueString(obj[keyValue])
	if err != nil {
		return nil, fmt.Errorf("field %q of %q: %w", name, owner, err)
	}

	return spec.NewFieldDef(spec.FieldConfig{
		Name:     name,
		Type:     typeStr,
		Value:    value,
		Strict:   flexBool(obj[keyStrict]),
		Dependee: flexBool(obj[keyDependee]),
		Owner:    owner,
		Custom:   customKeys(obj, keyName, keyFieldName, keyType, keyValue, keyDependee, keyStrict, keyIgnore),
	}, reg)
}

// stringKey returns the first present, non-empty string among the keys.
func stringKey(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// flexBool interprets a JSON boolean or the string "true" (any case) as true.
func flexBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

// valueString renders a JSON value constraint as its textual grammar form: a
// string passes through, a number is formatted exactly, and an array becomes
// a bracketed comma-joined list.
func valueString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), nil
		}
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, err := valueString(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	default:
		return "", fmt.Errorf("unsupported value literal %v", v)
	}
}

// stateIDs renders the optional state id list, accepting strings and numbers.
func stateIDs(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		switch id := item.(type) {
		case string:
			ids = append(ids, id)
		case float64:
			ids = append(ids, strconv.FormatInt(int64(id), 10))
		}
	}
	return ids
}

// customKeys collects the keys of obj not recognized by the format.
func customKeys(obj map[string]any, known ...string) map[string]any {
	isKnown := func(k string) bool {
		for _, kn := range known {
			if k == kn {
				return true
			}
		}
		return false
	}

	var custom map[string]any
	for k, v := range obj {
		if isKnown(k) {
			continue
		}
		if custom == nil {
			custom = make(map[string]any)
		}
		custom[k] = v
	}
	return custom
}
