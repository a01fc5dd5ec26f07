// Package reference generates short human-readable identifiers such as
// C4821937: a one-letter prefix followed by a fixed number of digits.
package reference

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
)

// ErrExhausted is returned when every number in the range is taken.
var ErrExhausted = errors.New("reference address space exhausted")

// Checker reports whether a reference is already stored.
type Checker interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, ref string) (bool, error)

func (f CheckerFunc) Exists(ctx context.Context, ref string) (bool, error) {
	return f(ctx, ref)
}

// Generator draws a random candidate and probes upward on collision.
// The check is read-then-write, so the store must also carry a unique index
// on the reference column and callers retry on a duplicate key.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded from the runtime's random source.
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewGeneratorWithSource is used by tests to make draws deterministic.
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns prefix+N for a free N with exactly digits digits.
func (g *Generator) Generate(ctx context.Context, store Checker, prefix string, digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", fmt.Errorf("reference width %d out of range", digits)
	}
	minimum := pow10(digits - 1)
	maximum := pow10(digits) - 1

	first := minimum + g.int64N(maximum-minimum+1)
	n := first
	for {
		ref := prefix + strconv.FormatInt(n, 10)
		taken, err := store.Exists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference %s: %w", ref, err)
		}
		if !taken {
			return ref, nil
		}

		n++
		if n > maximum {
			n = minimum
		}
		if n == first {
			return "", fmt.Errorf("prefix %q: %w", prefix, ErrExhausted)
		}
	}
}

func (g *Generator) int64N(n int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Int64N(n)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
