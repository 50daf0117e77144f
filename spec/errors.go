package spec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownStruct indicates that a field's base type is neither a native
	// type code nor the name of a registered struct.
	ErrUnknownStruct = errors.New("base type is not a native type or a registered struct")

	// ErrDuplicateStruct indicates that a struct with the same name was
	// already registered.
	ErrDuplicateStruct = errors.New("struct with this name is already registered")

	// ErrCyclicStruct indicates that a struct reaches itself through its
	// member types.
	ErrCyclicStruct = errors.New("cyclic struct reference")

	// ErrUnresolvedDependency indicates that a list-length dependency names a
	// field whose value has not been generated in the current run.
	ErrUnresolvedDependency = errors.New("dependency value not generated yet")

	// ErrBadDependencyValue indicates that a dependee's generated value cannot
	// be used as a list length.
	ErrBadDependencyValue = errors.New("dependency value is not usable as a list length")

	// ErrValueOutOfBounds indicates that a declared value literal does not fit
	// in the field's data type.
	ErrValueOutOfBounds = errors.New("value does not fit in the field data type")

	// ErrNotInvalidatable indicates that an invalid value was requested from a
	// constraint whose domain already covers the whole type.
	ErrNotInvalidatable = errors.New("constraint domain covers the whole type, nothing to invalidate")
)

// SyntaxError records a malformed type or value string together with the
// offset of the offending character.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	sb.WriteString("\n\t")
	sb.WriteString(e.Input)
	sb.WriteString("\n\t")
	sb.WriteString(strings.Repeat(" ", e.Offset))
	sb.WriteByte('^')
	return sb.String()
}

func syntaxErrorf(input string, offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: input, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
