package spec

import "fmt"

// FieldConfig carries one field declaration as ingested from a protocol
// specification file.
type FieldConfig struct {
	// Name is the field's name, unique within its message or struct.
	Name string
	// Type is the type string, e.g. "U16", "<I32[4]", "U8[count]" or a
	// struct name.
	Type string
	// Value is the constraint string; empty declares an unconstrained field.
	Value string
	// Strict excludes the field from fault injection.
	Strict bool
	// Dependee publishes the field's generated value for list-length lookups.
	Dependee bool
	// Owner names the message or struct declaring the field.
	Owner string
	// Custom preserves unrecognized specification keys.
	Custom map[string]any
}

// FieldDef is one fully validated field: its name, type and value constraint,
// plus the strictness flag and free-form metadata carried through from the
// specification file.
type FieldDef struct {
	Name     string
	Owner    string
	DType    *DType
	ValueDef *ValueDef
	Strict   bool
	Custom   map[string]any
}

// NewFieldDef parses and validates one field declaration. The registry
// resolves struct-typed bases and may be nil when the protocol declares no
// structs.
func NewFieldDef(cfg FieldConfig, reg *StructRegistry) (*FieldDef, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("message %q: a field must have a name", cfg.Owner)
	}

	dependee := ""
	if cfg.Dependee {
		dependee = cfg.Name
	}

	dt, err := ParseDType(cfg.Type, dependee, cfg.Name, reg)
	if err != nil {
		return nil, err
	}

	vd, err := NewValueDef(cfg.Value, dt)
	if err != nil {
		return nil, err
	}

	f := &FieldDef{
		Name:     cfg.Name,
		Owner:    cfg.Owner,
		DType:    dt,
		ValueDef: vd,
		Strict:   cfg.Strict,
		Custom:   cfg.Custom,
	}

	if err := f.checkValid(); err != nil {
		return nil, err
	}

	return f, nil
}

// checkValid enforces the cross-cutting constraints between a field's type
// and its value: shape agreement between the constraint and the type's
// list-ness, arity limits against a fixed list count, and literal bounds
// against the type's representable range.
func (f *FieldDef) checkValid() error {
	v := f.ValueDef.Value()
	if v == nil {
		return nil
	}

	if v.hasList() != f.DType.IsList() {
		if f.DType.IsList() {
			return fmt.Errorf("field %q: a list-typed field requires a list value, got %s", f.Name, v.Name())
		}
		return fmt.Errorf("field %q: a list value requires a list type, got %s", f.Name, f.DType)
	}

	if count := f.DType.ListCount(); count > 0 {
		if err := checkArity(f.Name, v, count); err != nil {
			return err
		}
	}

	if f.DType.IsInt() {
		min, max := f.DType.Bounds()
		for _, s := range v.singles() {
			val := s.Scalar()
			if val.IsFloat() {
				return fmt.Errorf("field %q: float literal %s on an integer type %s", f.Name, val, f.DType)
			}
			if val.Int().Cmp(min) < 0 || val.Int().Cmp(max) > 0 {
				return fmt.Errorf("field %q: %w: %s is outside [%s, %s] of type %s",
					f.Name, ErrValueOutOfBounds, val, min, max, f.DType)
			}
		}
	}

	return nil
}

// checkArity verifies that no list alternative exceeds the fixed element
// count declared on the type.
func checkArity(name string, v Value, count int) error {
	switch vv := v.(type) {
	case *List:
		if vv.Arity() > count {
			return fmt.Errorf("field %q: list value has %d elements but the type declares %d", name, vv.Arity(), count)
		}
	case *Choice:
		for _, alt := range vv.Alternatives() {
			if err := checkArity(name, alt, count); err != nil {
				return err
			}
		}
	}
	return nil
}

// GenerateValid produces a valid value for the field and stamps it with the
// owning field.
func (f *FieldDef) GenerateValid(ctx *GenContext) (*GeneratedValue, error) {
	gv, err := f.ValueDef.GenerateValid(ctx)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	gv.Field = f
	return gv, nil
}

// GenerateInvalid produces an invalid value for the field. Callers must check
// CanGenerateInvalid first; a Single constraint may still degrade to a valid
// classification when its resample budget runs out.
func (f *FieldDef) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	gv, err := f.ValueDef.GenerateInvalid(ctx)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	gv.Field = f
	return gv, nil
}

// CanGenerateInvalid reports whether the field may be chosen for fault
// injection. Strict fields never are.
func (f *FieldDef) CanGenerateInvalid() bool {
	if f.Strict {
		return false
	}
	return f.ValueDef.CanGenerateInvalid()
}

// RuleName returns the descriptive name of the field's constraint.
func (f *FieldDef) RuleName() string { return f.ValueDef.Name() }

func (f *FieldDef) String() string {
	return fmt.Sprintf("%s %s", f.Name, f.DType)
}
