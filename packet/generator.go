package packet

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lmco/parselab/logger"
	"github.com/lmco/parselab/spec"
)

// PacketGenerator instantiates message types into packets. Each generation
// call runs in a fresh context, so dependee values never leak between
// packets; the generator itself only carries the protocol, the random source
// and a logger.
type PacketGenerator struct {
	protocol *spec.Protocol
	logger   logger.Logger
	rng      *rand.Rand
}

// GeneratorOption configures a PacketGenerator.
type GeneratorOption func(*PacketGenerator)

// WithLogger sets the generator's logger.
func WithLogger(l logger.Logger) GeneratorOption {
	return func(g *PacketGenerator) { g.logger = l }
}

// WithSeed seeds the generator's random source for reproducible runs.
func WithSeed(seed int64) GeneratorOption {
	return func(g *PacketGenerator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// NewPacketGenerator creates a generator for the protocol.
func NewPacketGenerator(p *spec.Protocol, opts ...GeneratorOption) *PacketGenerator {
	g := &PacketGenerator{
		protocol: p,
		logger:   logger.GetLogger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Intn returns a uniform int in [0,n) from the generator's random source, so
// batch drivers can make reproducible picks from the same seed.
func (g *PacketGenerator) Intn(n int) int { return g.rng.Intn(n) }

// GeneratePacket generates one packet of the named message type. When valid
// is false, exactly one field is corrupted; if no field can be corrupted the
// packet degrades to a valid one and is marked accordingly.
func (g *PacketGenerator) GeneratePacket(name string, valid bool) (*Packet, error) {
	mt, ok := g.protocol.MessageType(name)
	if !ok {
		return nil, fmt.Errorf("unknown message type %q", name)
	}
	return g.GenerateFromType(mt, valid)
}

// GenerateFromType generates one packet of the given message type.
func (g *PacketGenerator) GenerateFromType(mt *spec.MessageType, valid bool) (*Packet, error) {
	ctx := spec.NewGenContext(g.rng)

	target := -1
	if !valid {
		candidates := make([]int, 0, len(mt.Fields))
		for i, f := range mt.Fields {
			if g.canInvalidate(f) {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			g.logger.Warn("no field can be invalidated, degrading to a valid packet", "message", mt.Name)
		} else {
			target = candidates[ctx.Intn(len(candidates))]
		}
	}

	p := &Packet{
		MessageType: mt,
		Valid:       true,
		Degraded:    !valid && target < 0,
	}

	for i, f := range mt.Fields {
		values, fault, err := g.generateField(ctx, f, f.Name, i == target)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", mt.Name, err)
		}
		p.Values = append(p.Values, values...)

		if i != target {
			continue
		}
		if fault.class.IsValid() {
			// The corrupted field degraded, e.g. a literal whose resample
			// budget ran out.
			g.logger.Warn("field invalidation degraded to a valid value",
				"message", mt.Name, "field", fault.name)
			p.Degraded = true
			continue
		}
		p.Valid = false
		p.FaultField = fault.name
		p.FaultClass = fault.class
	}

	data, bits, err := Serialize(p.Values)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", mt.Name, err)
	}
	p.Data = data
	p.Bits = bits

	g.logger.Debug("generated packet",
		"message", mt.Name, "valid", p.Valid, "degraded", p.Degraded, "bits", bits)

	return p, nil
}

// fault identifies the corrupted field and the injected classification.
type fault struct {
	name  string
	class spec.Classification
}

// generateField generates one field's value sequence, recursing into struct
// expansion. At most one fault is injected below any call with corrupt set;
// path is the dotted field path used to report it.
func (g *PacketGenerator) generateField(ctx *spec.GenContext, f *spec.FieldDef, path string, corrupt bool) ([]*spec.GeneratedValue, fault, error) {
	if f.DType.IsStruct() {
		return g.generateStructField(ctx, f, path, corrupt)
	}

	if corrupt {
		gv, err := f.GenerateInvalid(ctx)
		if err != nil {
			return nil, fault{}, err
		}
		return []*spec.GeneratedValue{gv}, fault{name: path, class: gv.Class}, nil
	}

	gv, err := f.GenerateValid(ctx)
	if err != nil {
		return nil, fault{}, err
	}
	return []*spec.GeneratedValue{gv}, fault{}, nil
}

// generateStructField expands a struct-typed field into its flattened member
// values. Corrupting a list-typed struct field always means one extra
// repetition of an otherwise valid instance; corrupting a non-list one
// recurses into a uniformly chosen invalidatable member.
func (g *PacketGenerator) generateStructField(ctx *spec.GenContext, f *spec.FieldDef, path string, corrupt bool) ([]*spec.GeneratedValue, fault, error) {
	st := f.DType.StructRef()

	count := 1
	if f.DType.IsList() {
		n, err := f.DType.ResolveCount(ctx)
		if err != nil {
			return nil, fault{}, err
		}
		count = n
	}

	if corrupt && f.DType.IsList() {
		count++
		var values []*spec.GeneratedValue
		for i := 0; i < count; i++ {
			vals, _, err := g.generateStructInstance(ctx, st, path, -1)
			if err != nil {
				return nil, fault{}, err
			}
			values = append(values, vals...)
		}
		return values, fault{name: path, class: spec.ClassListTooLong}, nil
	}

	memberTarget := -1
	if corrupt {
		candidates := make([]int, 0, len(st.Members))
		for i, m := range st.Members {
			if g.canInvalidate(m) {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil, fault{}, fmt.Errorf("struct %q: no member can be invalidated", st.Name)
		}
		memberTarget = candidates[ctx.Intn(len(candidates))]
	}

	var (
		values []*spec.GeneratedValue
		flt    fault
	)
	for i := 0; i < count; i++ {
		// Only the first instance of a repeated struct carries the fault.
		vals, instFault, err := g.generateStructInstance(ctx, st, path, memberTarget)
		if err != nil {
			return nil, fault{}, err
		}
		values = append(values, vals...)
		if memberTarget >= 0 {
			flt = instFault
			memberTarget = -1
		}
	}

	return values, flt, nil
}

func (g *PacketGenerator) generateStructInstance(ctx *spec.GenContext, st *spec.Struct, path string, memberTarget int) ([]*spec.GeneratedValue, fault, error) {
	var (
		values []*spec.GeneratedValue
		flt    fault
	)
	for i, m := range st.Members {
		vals, memberFault, err := g.generateField(ctx, m, path+"."+m.Name, i == memberTarget)
		if err != nil {
			return nil, fault{}, err
		}
		values = append(values, vals...)
		if i == memberTarget {
			flt = memberFault
		}
	}
	return values, flt, nil
}

// canInvalidate reports whether fault injection may target the field. Strict
// fields are never targeted; a list of structs can always gain a repetition;
// a plain struct is invalidatable when any member is.
func (g *PacketGenerator) canInvalidate(f *spec.FieldDef) bool {
	if f.Strict {
		return false
	}
	if f.DType.IsStruct() {
		if f.DType.IsList() {
			return true
		}
		for _, m := range f.DType.StructRef().Members {
			if g.canInvalidate(m) {
				return true
			}
		}
		return false
	}
	return f.CanGenerateInvalid()
}
