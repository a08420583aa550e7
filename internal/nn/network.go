package nn

import (
	"errors"
	"fmt"
	"sort"

	"evosculpt/internal/model"
)

var ErrMalformedGenome = errors.New("malformed genome")

type inbound struct {
	from   int
	weight float64
}

// Network is a genome compiled for repeated evaluation. It keeps one value
// slot per neuron; Flush clears them so no sample sees a previous one.
type Network struct {
	order       []int
	inputs      [model.InputCount]int
	outputs     [model.OutputCount]int
	activations []ActivationFunc
	bias        []float64
	incoming    [][]inbound
	values      []float64
}

// Compile resolves activations and feed-forward order for genome.
func Compile(genome model.Genome, registry *Registry) (*Network, error) {
	if registry == nil {
		return nil, errors.New("activation registry is required")
	}
	n := len(genome.Neurons)
	net := &Network{
		order:       make([]int, 0, n),
		activations: make([]ActivationFunc, n),
		bias:        make([]float64, n),
		incoming:    make([][]inbound, n),
		values:      make([]float64, n),
	}

	var inputIdx, outputIdx []int
	for i, neuron := range genome.Neurons {
		switch neuron.Layer {
		case model.LayerInput:
			inputIdx = append(inputIdx, i)
		case model.LayerOutput:
			outputIdx = append(outputIdx, i)
		case model.LayerHidden:
		default:
			return nil, fmt.Errorf("%w: neuron %d has layer %d", ErrMalformedGenome, i, neuron.Layer)
		}
		if neuron.Layer != model.LayerInput {
			fn, err := registry.Get(neuron.Activation)
			if err != nil {
				return nil, fmt.Errorf("neuron %d: %w", i, err)
			}
			net.activations[i] = fn
			net.bias[i] = neuron.Bias
			net.order = append(net.order, i)
		}
	}
	if len(inputIdx) != model.InputCount || len(outputIdx) != model.OutputCount {
		return nil, fmt.Errorf("%w: want %d inputs and %d outputs, got %d and %d",
			ErrMalformedGenome, model.InputCount, model.OutputCount, len(inputIdx), len(outputIdx))
	}
	byKey := func(idx []int) func(a, b int) bool {
		return func(a, b int) bool {
			return genome.Neurons[idx[a]].Key < genome.Neurons[idx[b]].Key
		}
	}
	sort.SliceStable(inputIdx, byKey(inputIdx))
	sort.SliceStable(outputIdx, byKey(outputIdx))
	copy(net.inputs[:], inputIdx)
	copy(net.outputs[:], outputIdx)

	sort.SliceStable(net.order, func(a, b int) bool {
		return genome.Neurons[net.order[a]].Layer < genome.Neurons[net.order[b]].Layer
	})

	for i, synapse := range genome.Synapses {
		if !synapse.Enabled {
			continue
		}
		if synapse.From < 0 || synapse.From >= n || synapse.To < 0 || synapse.To >= n {
			return nil, fmt.Errorf("%w: synapse %d references %d->%d", ErrMalformedGenome, i, synapse.From, synapse.To)
		}
		if genome.Neurons[synapse.From].Layer >= genome.Neurons[synapse.To].Layer {
			return nil, fmt.Errorf("%w: synapse %d is not feed-forward", ErrMalformedGenome, i)
		}
		net.incoming[synapse.To] = append(net.incoming[synapse.To], inbound{from: synapse.From, weight: synapse.Weight})
	}
	return net, nil
}

// Flush zeroes every neuron value.
func (n *Network) Flush() {
	for i := range n.values {
		n.values[i] = 0
	}
}

// Evaluate runs one forward pass. Outputs are ordered by output neuron key.
func (n *Network) Evaluate(in [model.InputCount]float64) [model.OutputCount]float64 {
	for i, idx := range n.inputs {
		n.values[idx] = in[i]
	}
	for _, idx := range n.order {
		total := n.bias[idx]
		for _, link := range n.incoming[idx] {
			total += n.values[link.from] * link.weight
		}
		n.values[idx] = n.activations[idx](total)
	}
	var out [model.OutputCount]float64
	for i, idx := range n.outputs {
		out[i] = n.values[idx]
	}
	return out
}

// Forward compiles genome and evaluates a single input vector.
func Forward(genome model.Genome, registry *Registry, in [model.InputCount]float64) ([model.OutputCount]float64, error) {
	net, err := Compile(genome, registry)
	if err != nil {
		return [model.OutputCount]float64{}, err
	}
	return net.Evaluate(in), nil
}
