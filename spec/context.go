package spec

import (
	"fmt"
	"math/big"
	"math/rand"
	"strings"
)

// GenContext carries the state of one packet generation run: the random
// source and the table of dependee values published so far.
//
// A context is scoped to a single message. Two independently generated
// messages must never observe each other's dependee values, so callers create
// a fresh context per generation call.
type GenContext struct {
	rng  *rand.Rand
	deps map[string]*big.Int
}

// NewGenContext creates a generation context backed by the given random
// source.
func NewGenContext(rng *rand.Rand) *GenContext {
	return &GenContext{
		rng:  rng,
		deps: make(map[string]*big.Int),
	}
}

// PublishDependee records a dependee field's generated value so that later
// fields with a matching list dependency can resolve their element count.
// Names are matched case-insensitively.
func (c *GenContext) PublishDependee(name string, value Scalar) {
	if value.IsFloat() {
		return
	}
	c.deps[strings.ToLower(name)] = new(big.Int).Set(value.Int())
}

// DependencyCount resolves a list-length dependency by name.
func (c *GenContext) DependencyCount(name string) (int, error) {
	v, ok := c.deps[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q; did you mark the length field as a dependee?", ErrUnresolvedDependency, name)
	}
	if !v.IsInt64() || v.Sign() < 0 {
		return 0, fmt.Errorf("%w: %q resolved to %s", ErrBadDependencyValue, name, v.String())
	}
	return int(v.Int64()), nil
}

// Coin returns true with probability 0.5.
func (c *GenContext) Coin() bool {
	return c.rng.Float64() < 0.5
}

// Intn returns a uniform int in [0,n).
func (c *GenContext) Intn(n int) int {
	return c.rng.Intn(n)
}

// RandIntBetween returns a uniform integer in [lo,hi] (inclusive).
func (c *GenContext) RandIntBetween(lo, hi *big.Int) *big.Int {
	span := new(big.Int).Sub(hi, lo)
	span.Add(span, big.NewInt(1))
	v := new(big.Int).Rand(c.rng, span)
	return v.Add(v, lo)
}

// RandIntBelow returns a uniform integer in the half-open range [lo,hi).
func (c *GenContext) RandIntBelow(lo, hi *big.Int) *big.Int {
	span := new(big.Int).Sub(hi, lo)
	v := new(big.Int).Rand(c.rng, span)
	return v.Add(v, lo)
}

// RandFloatBetween returns a uniform float in [lo,hi), rounded to four
// decimal places.
func (c *GenContext) RandFloatBetween(lo, hi float64) float64 {
	f := lo + (hi-lo)*c.rng.Float64()
	return roundFloat(f)
}

func roundFloat(f float64) float64 {
	const shift = 10000
	if f < 0 {
		return float64(int64(f*shift-0.5)) / shift
	}
	return float64(int64(f*shift+0.5)) / shift
}
