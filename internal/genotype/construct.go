package genotype

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"evosculpt/internal/model"
	"evosculpt/internal/nn"
)

var ErrOutputIndex = errors.New("output neuron index out of range")

const (
	defaultMaxHidden      = 6
	defaultConnectionProb = 0.6
	defaultWeightSpread   = 2.0
	defaultBiasSpread     = 1.0

	// Hidden keys start after the fixed input and output keys.
	firstHiddenKey = int64(model.InputCount + model.OutputCount)
	hiddenKeySpace = int64(1) << 40
)

// Config bounds random genome construction.
type Config struct {
	MaxHidden         int
	ConnectionProb    float64
	WeightSpread      float64
	BiasSpread        float64
	HiddenActivations []string
	OutputActivations []string
}

func DefaultConfig() Config {
	return Config{
		MaxHidden:         defaultMaxHidden,
		ConnectionProb:    defaultConnectionProb,
		WeightSpread:      defaultWeightSpread,
		BiasSpread:        defaultBiasSpread,
		HiddenActivations: nn.OutputPalette(),
		OutputActivations: nn.OutputPalette(),
	}
}

func (c Config) withDefaults() Config {
	if c.MaxHidden < 0 {
		c.MaxHidden = 0
	}
	if c.ConnectionProb <= 0 || c.ConnectionProb > 1 {
		c.ConnectionProb = defaultConnectionProb
	}
	if c.WeightSpread <= 0 {
		c.WeightSpread = defaultWeightSpread
	}
	if c.BiasSpread < 0 {
		c.BiasSpread = defaultBiasSpread
	}
	return c
}

// ConstructGenome builds a random 3-in/3-out CPPN. Inputs take keys 0..2,
// outputs 3..5 and each hidden neuron a random key used for crossover
// alignment. Every hidden and output neuron receives at least one synapse.
func ConstructGenome(rng *rand.Rand, cfg Config) model.Genome {
	rng = ensureRNG(rng)
	cfg = cfg.withDefaults()

	neurons := make([]model.Neuron, 0, model.InputCount+model.OutputCount+cfg.MaxHidden)
	for i := 0; i < model.InputCount; i++ {
		neurons = append(neurons, model.Neuron{Key: int64(i), Layer: model.LayerInput, Activation: "identity"})
	}
	for i := 0; i < model.OutputCount; i++ {
		neurons = append(neurons, model.Neuron{
			Key:        int64(model.InputCount + i),
			Layer:      model.LayerOutput,
			Activation: "sigmoid",
			Bias:       randomSpread(rng, cfg.BiasSpread),
		})
	}

	hiddenCount := rng.Intn(cfg.MaxHidden + 1)
	used := make(map[int64]struct{}, hiddenCount)
	for len(used) < hiddenCount {
		key := firstHiddenKey + rng.Int63n(hiddenKeySpace)
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}
		neurons = append(neurons, model.Neuron{
			Key:        key,
			Layer:      model.LayerHidden,
			Activation: GenerateNeuronAF(rng, cfg.HiddenActivations),
			Bias:       randomSpread(rng, cfg.BiasSpread),
		})
	}

	var synapses []model.Synapse
	connect := func(from, to int) {
		synapses = append(synapses, model.Synapse{
			From:    from,
			To:      to,
			Weight:  randomSpread(rng, cfg.WeightSpread),
			Enabled: true,
		})
	}
	inputs := indicesByLayer(neurons, model.LayerInput)
	outputs := indicesByLayer(neurons, model.LayerOutput)
	hidden := indicesByLayer(neurons, model.LayerHidden)

	for _, to := range hidden {
		linked := false
		for _, from := range inputs {
			if rng.Float64() < cfg.ConnectionProb {
				connect(from, to)
				linked = true
			}
		}
		if !linked {
			connect(inputs[rng.Intn(len(inputs))], to)
		}
	}
	sources := append(append([]int(nil), inputs...), hidden...)
	for _, to := range outputs {
		linked := false
		for _, from := range sources {
			if rng.Float64() < cfg.ConnectionProb {
				connect(from, to)
				linked = true
			}
		}
		if !linked {
			connect(sources[rng.Intn(len(sources))], to)
		}
	}

	return model.Genome{
		ID:       newGenomeID(rng),
		Neurons:  neurons,
		Synapses: synapses,
	}
}

// Diversify re-samples every output activation from palette and returns the
// result as a new genome.
func Diversify(genome model.Genome, rng *rand.Rand, palette []string) (model.Genome, error) {
	if len(palette) == 0 {
		return model.Genome{}, errors.New("activation palette is required")
	}
	rng = ensureRNG(rng)
	out := CloneGenome(genome)
	for i := 0; i < model.OutputCount; i++ {
		choice, err := RandomElement(rng, palette)
		if err != nil {
			return model.Genome{}, err
		}
		if err := SetOutputActivation(&out, i, choice); err != nil {
			return model.Genome{}, err
		}
	}
	return out, nil
}

// SetOutputActivation sets the activation of the outputIndex-th output
// neuron, counted in key order. It mutates genome in place.
func SetOutputActivation(genome *model.Genome, outputIndex int, activation string) error {
	outputs := OutputIndices(*genome)
	if outputIndex < 0 || outputIndex >= len(outputs) {
		return fmt.Errorf("%w: %d of %d", ErrOutputIndex, outputIndex, len(outputs))
	}
	if strings.TrimSpace(activation) == "" {
		return errors.New("activation name is required")
	}
	genome.Neurons[outputs[outputIndex]].Activation = activation
	return nil
}

// OutputIndices returns arena indices of output neurons in key order.
func OutputIndices(genome model.Genome) []int {
	outputs := indicesByLayer(genome.Neurons, model.LayerOutput)
	sort.SliceStable(outputs, func(a, b int) bool {
		return genome.Neurons[outputs[a]].Key < genome.Neurons[outputs[b]].Key
	})
	return outputs
}

// GenerateNeuronAF picks a random activation. Empty inputs default to tanh.
func GenerateNeuronAF(rng *rand.Rand, activationFunctions []string) string {
	rng = ensureRNG(rng)
	if len(activationFunctions) == 0 {
		return "tanh"
	}
	choice, err := RandomElement(rng, activationFunctions)
	if err != nil {
		return "tanh"
	}
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return "tanh"
	}
	return choice
}

func indicesByLayer(neurons []model.Neuron, layer model.Layer) []int {
	var out []int
	for i, neuron := range neurons {
		if neuron.Layer == layer {
			out = append(out, i)
		}
	}
	return out
}

func randomSpread(rng *rand.Rand, spread float64) float64 {
	return (rng.Float64()*2 - 1) * spread
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
