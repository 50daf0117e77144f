package spec

import "fmt"

// ValueDef binds a field's type to its optional value constraint. When no
// constraint is declared the type's natural domain generates values; a parsed
// Value narrows it.
type ValueDef struct {
	raw   string
	dtype *DType
	value Value // nil when the field is unconstrained
}

// NewValueDef parses the constraint string against the type. An empty string
// declares an unconstrained field.
func NewValueDef(raw string, dt *DType) (*ValueDef, error) {
	vd := &ValueDef{raw: raw, dtype: dt}
	if raw == "" {
		return vd, nil
	}

	if dt.IsStruct() {
		return nil, fmt.Errorf("field %q: a struct-typed field cannot declare a value", dt.FieldName())
	}

	v, err := ParseValue(raw, dt)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", dt.FieldName(), err)
	}
	vd.value = v

	return vd, nil
}

// Raw returns the constraint string as declared.
func (vd *ValueDef) Raw() string { return vd.raw }

// Value returns the bound constraint, or nil when unconstrained.
func (vd *ValueDef) Value() Value { return vd.value }

// Name returns the canonical rule name of the constraint, or the type string
// when unconstrained.
func (vd *ValueDef) Name() string {
	if vd.value == nil {
		return vd.dtype.String()
	}
	return vd.value.Name()
}

// GenerateValid produces a value inside the constrained domain, delegating to
// the type's natural domain when unconstrained. A generated dependee value is
// published into the context for later list-length lookups.
func (vd *ValueDef) GenerateValid(ctx *GenContext) (*GeneratedValue, error) {
	var (
		gv  *GeneratedValue
		err error
	)
	if vd.value == nil {
		gv, err = vd.dtype.GenerateValid(ctx)
	} else {
		gv, err = vd.value.GenerateValid(ctx)
	}
	if err != nil {
		return nil, err
	}

	vd.publish(ctx, gv)

	return gv, nil
}

// GenerateInvalid produces a value outside the constrained domain. The
// dependee value is still published so that dependent fields stay consistent
// with the corrupted field.
func (vd *ValueDef) GenerateInvalid(ctx *GenContext) (*GeneratedValue, error) {
	var (
		gv  *GeneratedValue
		err error
	)
	if vd.value == nil {
		gv, err = vd.dtype.GenerateInvalid(ctx)
	} else {
		gv, err = vd.value.GenerateInvalid(ctx)
	}
	if err != nil {
		return nil, err
	}

	vd.publish(ctx, gv)

	return gv, nil
}

// CanGenerateInvalid reports whether the constrained domain leaves room for
// an invalid value.
func (vd *ValueDef) CanGenerateInvalid() bool {
	if vd.value == nil {
		return vd.dtype.CanGenerateInvalid()
	}
	return vd.value.CanGenerateInvalid()
}

func (vd *ValueDef) publish(ctx *GenContext, gv *GeneratedValue) {
	if vd.dtype.Dependee() == "" || gv.IsList || len(gv.Values) == 0 {
		return
	}
	ctx.PublishDependee(vd.dtype.Dependee(), gv.Scalar())
}
