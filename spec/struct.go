package spec

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Struct is a named aggregate type: an ordered list of member field
// definitions. Struct-typed fields expand into their flattened member
// sequence at generation time.
type Struct struct {
	Name    string
	Members []*FieldDef
}

// NewStruct creates a struct from its ordered members.
func NewStruct(name string, members []*FieldDef) *Struct {
	return &Struct{Name: name, Members: members}
}

// StructRegistry resolves struct names at type-parse time. Lookups are
// case-insensitive. The registry is safe for concurrent use so independent
// generation runs can share one parsed protocol.
type StructRegistry struct {
	m *xsync.MapOf[string, *Struct]
}

// NewStructRegistry creates an empty registry.
func NewStructRegistry() *StructRegistry {
	return &StructRegistry{m: xsync.NewMapOf[string, *Struct]()}
}

// Register adds a struct to the registry. Registering a second struct with
// the same name is an error.
func (r *StructRegistry) Register(s *Struct) error {
	if _, loaded := r.m.LoadOrStore(strings.ToLower(s.Name), s); loaded {
		return fmt.Errorf("%w: %q", ErrDuplicateStruct, s.Name)
	}
	return nil
}

// Lookup resolves a struct by name.
func (r *StructRegistry) Lookup(name string) (*Struct, bool) {
	return r.m.Load(strings.ToLower(name))
}

// Validate checks that no registered struct reaches itself through its
// member types.
func (r *StructRegistry) Validate() error {
	var err error
	r.m.Range(func(_ string, s *Struct) bool {
		if cycleErr := checkStructCycle(s, make(map[string]bool)); cycleErr != nil {
			err = cycleErr
			return false
		}
		return true
	})
	return err
}

func checkStructCycle(s *Struct, visiting map[string]bool) error {
	key := strings.ToLower(s.Name)
	if visiting[key] {
		return fmt.Errorf("%w: struct %q reaches itself", ErrCyclicStruct, s.Name)
	}
	visiting[key] = true
	defer delete(visiting, key)

	for _, member := range s.Members {
		if ref := member.DType.StructRef(); ref != nil {
			if err := checkStructCycle(ref, visiting); err != nil {
				return err
			}
		}
	}

	return nil
}
