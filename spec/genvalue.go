package spec

// Classification tags a generated value with the reason it is valid or
// invalid with respect to the field's constraint.
type Classification int

const (
	// ClassValid marks a value inside the field's declared domain. It is also
	// used when an invalid value was requested but none was possible.
	ClassValid Classification = iota
	// ClassInvalid marks a generic constraint violation.
	ClassInvalid
	// ClassAboveBounds marks a value above the declared bounds.
	ClassAboveBounds
	// ClassBelowBounds marks a value below the declared bounds.
	ClassBelowBounds
	// ClassListTooShort marks a list with one too few elements.
	ClassListTooShort
	// ClassListTooLong marks a list with one too many elements.
	ClassListTooLong
)

func (c Classification) String() string {
	switch c {
	case ClassValid:
		return "valid"
	case ClassInvalid:
		return "invalid"
	case ClassAboveBounds:
		return "above_bounds"
	case ClassBelowBounds:
		return "below_bounds"
	case ClassListTooShort:
		return "list_too_short"
	case ClassListTooLong:
		return "list_too_long"
	default:
		return "unknown"
	}
}

// IsValid reports whether the classification counts as a valid value.
func (c Classification) IsValid() bool { return c == ClassValid }

// GeneratedValue is one concrete instantiation of a field: the scalar values,
// the classification explaining their validity, and the owning type and
// field. It is created fresh for every generation call and never mutated
// after the owning field is attached.
type GeneratedValue struct {
	Class  Classification
	Values []Scalar
	IsList bool
	DType  *DType
	Field  *FieldDef
}

func newGeneratedValue(class Classification, dt *DType, values ...Scalar) *GeneratedValue {
	return &GeneratedValue{Class: class, Values: values, DType: dt}
}

func newGeneratedList(class Classification, dt *DType, values []Scalar) *GeneratedValue {
	return &GeneratedValue{Class: class, Values: values, IsList: true, DType: dt}
}

// Scalar returns the single scalar of a non-list value.
func (gv *GeneratedValue) Scalar() Scalar {
	return gv.Values[0]
}

func (gv *GeneratedValue) String() string {
	name := ""
	if gv.Field != nil {
		name = gv.Field.Name + " "
	}
	return name + gv.DType.String() + " " + formatScalars(gv.Values)
}
