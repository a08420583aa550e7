package genotype

import (
	"errors"
	"fmt"
	"math/rand"

	"evosculpt/internal/model"
	"evosculpt/internal/nn"
)

// Breeder bundles construction, diversification and crossover behind the
// interface the evolution engine consumes. Every genome it hands out
// compiles against its registry.
type Breeder struct {
	registry *nn.Registry
	cfg      Config
}

func NewBreeder(registry *nn.Registry, cfg Config) (*Breeder, error) {
	if registry == nil {
		return nil, errors.New("activation registry is required")
	}
	if len(cfg.OutputActivations) == 0 {
		return nil, errors.New("output activation palette is required")
	}
	for _, name := range append(append([]string(nil), cfg.HiddenActivations...), cfg.OutputActivations...) {
		if !registry.Has(name) {
			return nil, fmt.Errorf("palette activation %q: %w", name, nn.ErrActivationNotFound)
		}
	}
	return &Breeder{registry: registry, cfg: cfg}, nil
}

func (b *Breeder) Registry() *nn.Registry {
	return b.registry
}

func (b *Breeder) NewGenome(rng *rand.Rand) (model.Genome, error) {
	return ConstructGenome(rng, b.cfg), nil
}

func (b *Breeder) Diversify(genome model.Genome, rng *rand.Rand) (model.Genome, error) {
	return Diversify(genome, rng, b.cfg.OutputActivations)
}

func (b *Breeder) Crossover(a, c model.Genome, rng *rand.Rand) (model.Genome, error) {
	child, err := Crossover(a, c, rng)
	if err != nil {
		return model.Genome{}, fmt.Errorf("crossover %s x %s: %w", a.ID, c.ID, err)
	}
	return child, nil
}
