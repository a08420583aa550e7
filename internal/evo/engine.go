// Package evo runs the interactive breeding loop: the user scores genomes,
// asks for a new generation or a different grid, and the engine applies
// those requests once per tick.
package evo

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"evosculpt/internal/genotype"
	"evosculpt/internal/model"
)

const (
	DefaultGridSize    = 4
	DefaultMaxGridSize = 16

	// SelectedFitness is what a toggle assigns to an unselected genome.
	SelectedFitness = 1.0
)

var ErrInvalidGridSize = errors.New("invalid grid size")

// Breeder creates and recombines genomes. Implementations must not retain or
// modify the genomes passed in.
type Breeder interface {
	NewGenome(rng *rand.Rand) (model.Genome, error)
	Diversify(genome model.Genome, rng *rand.Rand) (model.Genome, error)
	Crossover(a, b model.Genome, rng *rand.Rand) (model.Genome, error)
}

// Command is a set of pending requests.
type Command uint8

const (
	CommandEvolve Command = 1 << iota
	CommandResize
	CommandReset
)

func (c Command) Has(flag Command) bool {
	return c&flag != 0
}

func (c Command) String() string {
	if c == 0 {
		return "idle"
	}
	var parts []string
	for _, named := range []struct {
		flag Command
		name string
	}{{CommandReset, "reset"}, {CommandResize, "resize"}, {CommandEvolve, "evolve"}} {
		if c.Has(named.flag) {
			parts = append(parts, named.name)
		}
	}
	return strings.Join(parts, "+")
}

type Config struct {
	GridSize    int
	MaxGridSize int
	Seed        int64
	Breeder     Breeder
	Selector    Selector
	Fallback    FallbackPolicy
	Logger      *slog.Logger
}

// TickResult describes what one Tick applied.
type TickResult struct {
	Serviced       Command
	Generation     int
	GridSize       int
	PopulationSize int
	// Champions and the fields below are set only when an evolve ran.
	Champions          []int
	Fallback           bool
	Reseeded           bool
	Parents            [][2]int
	ParentFingerprints []string
	ChildFingerprints  []string
}

// Engine owns the population. It is not safe for concurrent use; a single
// loop calls the request methods and Tick.
type Engine struct {
	breeder     Breeder
	selector    Selector
	fallback    FallbackPolicy
	logger      *slog.Logger
	rng         *rand.Rand
	maxGridSize int

	gridSize   int
	genomes    []model.Genome
	fitness    []float64
	generation int
	dirty      bool

	pending      Command
	resizeTarget int
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Breeder == nil {
		return nil, errors.New("breeder is required")
	}
	if cfg.MaxGridSize <= 0 {
		cfg.MaxGridSize = DefaultMaxGridSize
	}
	if cfg.GridSize == 0 {
		cfg.GridSize = DefaultGridSize
	}
	if cfg.Selector == nil {
		cfg.Selector = UniformSelector{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		breeder:     cfg.Breeder,
		selector:    cfg.Selector,
		fallback:    cfg.Fallback,
		logger:      cfg.Logger,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		maxGridSize: cfg.MaxGridSize,
	}
	if err := e.validateGridSize(cfg.GridSize); err != nil {
		return nil, err
	}
	genomes, err := e.spawn(cfg.GridSize * cfg.GridSize)
	if err != nil {
		return nil, fmt.Errorf("initial population: %w", err)
	}
	e.gridSize = cfg.GridSize
	e.genomes = genomes
	e.fitness = make([]float64, len(genomes))
	e.dirty = true
	return e, nil
}

func (e *Engine) validateGridSize(g int) error {
	if g < 1 || g > e.maxGridSize {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidGridSize, g, e.maxGridSize)
	}
	return nil
}

// spawn builds n diversified genomes.
func (e *Engine) spawn(n int) ([]model.Genome, error) {
	out := make([]model.Genome, 0, n)
	for i := 0; i < n; i++ {
		g, err := e.breeder.NewGenome(e.rng)
		if err != nil {
			return nil, fmt.Errorf("new genome %d: %w", i, err)
		}
		g, err = e.breeder.Diversify(g, e.rng)
		if err != nil {
			return nil, fmt.Errorf("diversify genome %d: %w", i, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (e *Engine) RequestEvolve() {
	e.pending |= CommandEvolve
}

// RequestResize records g as the next grid size. A later request replaces
// an earlier one that has not been serviced yet.
func (e *Engine) RequestResize(g int) error {
	if err := e.validateGridSize(g); err != nil {
		return err
	}
	e.pending |= CommandResize
	e.resizeTarget = g
	return nil
}

func (e *Engine) RequestReset() {
	e.pending |= CommandReset
}

func (e *Engine) Pending() Command {
	return e.pending
}

// Tick applies pending requests in the order reset, resize, evolve. A reset
// drops a pending evolve. A step that fails keeps its request pending and
// stops the tick; earlier steps of the same tick stay applied.
func (e *Engine) Tick() (TickResult, error) {
	result := TickResult{}
	if e.pending.Has(CommandReset) {
		if err := e.reset(); err != nil {
			return e.finish(result), fmt.Errorf("reset: %w", err)
		}
		e.pending &^= CommandReset | CommandEvolve
		result.Serviced |= CommandReset
	}
	if e.pending.Has(CommandResize) {
		if err := e.resize(e.resizeTarget); err != nil {
			return e.finish(result), fmt.Errorf("resize to %d: %w", e.resizeTarget, err)
		}
		e.pending &^= CommandResize
		result.Serviced |= CommandResize
	}
	if e.pending.Has(CommandEvolve) {
		if err := e.evolve(&result); err != nil {
			return e.finish(result), fmt.Errorf("evolve generation %d: %w", e.generation, err)
		}
		e.pending &^= CommandEvolve
		result.Serviced |= CommandEvolve
	}
	return e.finish(result), nil
}

func (e *Engine) finish(result TickResult) TickResult {
	result.Generation = e.generation
	result.GridSize = e.gridSize
	result.PopulationSize = len(e.genomes)
	return result
}

func (e *Engine) reset() error {
	genomes, err := e.spawn(e.gridSize * e.gridSize)
	if err != nil {
		return err
	}
	e.genomes = genomes
	e.fitness = make([]float64, len(genomes))
	e.generation = 0
	e.dirty = true
	e.logger.Info("population reset", "grid_size", e.gridSize, "population", len(genomes))
	return nil
}

func (e *Engine) resize(g int) error {
	n := g * g
	switch {
	case n > len(e.genomes):
		extra, err := e.spawn(n - len(e.genomes))
		if err != nil {
			return err
		}
		genomes := make([]model.Genome, 0, n)
		genomes = append(append(genomes, e.genomes...), extra...)
		fitness := make([]float64, n)
		copy(fitness, e.fitness)
		e.genomes, e.fitness = genomes, fitness
	case n < len(e.genomes):
		e.genomes = append([]model.Genome(nil), e.genomes[:n]...)
		e.fitness = append([]float64(nil), e.fitness[:n]...)
	}
	previous := e.gridSize
	e.gridSize = g
	e.dirty = true
	e.logger.Info("population resized", "from", previous, "grid_size", g, "population", n)
	return nil
}

func (e *Engine) evolve(result *TickResult) error {
	n := len(e.genomes)
	champions := Champions(e.fitness)
	pool := champions
	fallback := len(champions) == 0
	if fallback {
		e.logger.Warn("no champions selected", "generation", e.generation, "policy", e.fallback.String())
		if e.fallback == FallbackReseed {
			children, err := e.spawn(n)
			if err != nil {
				return err
			}
			e.commitGeneration(children)
			result.Fallback, result.Reseeded = true, true
			result.ChildFingerprints = allFingerprints(children)
			return nil
		}
		pool = allIndices(n)
	}

	children := make([]model.Genome, 0, n)
	parents := make([][2]int, 0, n)
	for len(children) < n {
		a, err := e.selector.PickParent(e.rng, pool)
		if err != nil {
			return err
		}
		b, err := e.selector.PickParent(e.rng, pool)
		if err != nil {
			return err
		}
		child, err := e.breeder.Crossover(e.genomes[a], e.genomes[b], e.rng)
		if err != nil {
			return err
		}
		children = append(children, child)
		parents = append(parents, [2]int{a, b})
	}

	result.Champions = champions
	result.Fallback = fallback
	result.Parents = parents
	result.ParentFingerprints = fingerprints(e.genomes, pool)
	result.ChildFingerprints = allFingerprints(children)
	e.commitGeneration(children)
	return nil
}

func (e *Engine) commitGeneration(children []model.Genome) {
	e.genomes = children
	e.fitness = make([]float64, len(children))
	e.generation++
	e.dirty = true
	e.logger.Info("generation evolved", "generation", e.generation, "population", len(children))
}

// SetFitness assigns fitness to genome i. Out-of-range indices are ignored
// and reported as false.
func (e *Engine) SetFitness(i int, value float64) bool {
	if i < 0 || i >= len(e.fitness) {
		return false
	}
	e.fitness[i] = value
	return true
}

// ToggleSelection flips genome i between selected and unselected.
func (e *Engine) ToggleSelection(i int) bool {
	if i < 0 || i >= len(e.fitness) {
		return false
	}
	if e.fitness[i] > 0 {
		e.fitness[i] = 0
	} else {
		e.fitness[i] = SelectedFitness
	}
	return true
}

func (e *Engine) Fitness(i int) (float64, bool) {
	if i < 0 || i >= len(e.fitness) {
		return 0, false
	}
	return e.fitness[i], true
}

func (e *Engine) FitnessSnapshot() []float64 {
	return append([]float64(nil), e.fitness...)
}

func (e *Engine) Genome(i int) (model.Genome, bool) {
	if i < 0 || i >= len(e.genomes) {
		return model.Genome{}, false
	}
	return genotype.CloneGenome(e.genomes[i]), true
}

func (e *Engine) Genomes() []model.Genome {
	return genotype.CloneGenomes(e.genomes)
}

func (e *Engine) Champions() []int {
	return Champions(e.fitness)
}

func (e *Engine) Len() int {
	return len(e.genomes)
}

func (e *Engine) GridSize() int {
	return e.gridSize
}

func (e *Engine) MaxGridSize() int {
	return e.maxGridSize
}

func (e *Engine) Generation() int {
	return e.generation
}

func (e *Engine) Fallback() FallbackPolicy {
	return e.fallback
}

func (e *Engine) IsDirty() bool {
	return e.dirty
}

func (e *Engine) MarkDirty() {
	e.dirty = true
}

func (e *Engine) ClearDirty() {
	e.dirty = false
}
