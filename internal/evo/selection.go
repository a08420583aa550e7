package evo

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrEmptyParentPool = errors.New("parent pool is empty")

// FallbackPolicy decides where parents come from when nobody was selected.
type FallbackPolicy int

const (
	// FallbackWholePopulation breeds from every current genome.
	FallbackWholePopulation FallbackPolicy = iota
	// FallbackReseed discards the population and builds a fresh one.
	FallbackReseed
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackWholePopulation:
		return "population"
	case FallbackReseed:
		return "reseed"
	default:
		return fmt.Sprintf("fallback(%d)", int(p))
	}
}

func ParseFallbackPolicy(name string) (FallbackPolicy, error) {
	switch name {
	case "", "population":
		return FallbackWholePopulation, nil
	case "reseed":
		return FallbackReseed, nil
	default:
		return 0, fmt.Errorf("unknown fallback policy: %q", name)
	}
}

// Selector picks one parent out of a pool of population indices.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, pool []int) (int, error)
}

// UniformSelector draws uniformly with replacement.
type UniformSelector struct{}

func (UniformSelector) Name() string {
	return "uniform"
}

func (UniformSelector) PickParent(rng *rand.Rand, pool []int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(pool) == 0 {
		return 0, ErrEmptyParentPool
	}
	return pool[rng.Intn(len(pool))], nil
}

// Champions returns the indices with strictly positive fitness, in order.
func Champions(fitness []float64) []int {
	var out []int
	for i, f := range fitness {
		if f > 0 {
			out = append(out, i)
		}
	}
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
