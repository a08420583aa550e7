package genotype

import (
	"fmt"
	"math/rand"
	"sort"

	"evosculpt/internal/model"
)

type synapseKey struct {
	from int64
	to   int64
}

type parentIndex struct {
	neurons  map[int64]model.Neuron
	synapses map[synapseKey]model.Synapse
	order    []synapseKey
}

func indexParent(g model.Genome) (parentIndex, error) {
	idx := parentIndex{
		neurons:  make(map[int64]model.Neuron, len(g.Neurons)),
		synapses: make(map[synapseKey]model.Synapse, len(g.Synapses)),
	}
	inputs, outputs := 0, 0
	for _, neuron := range g.Neurons {
		if _, dup := idx.neurons[neuron.Key]; dup {
			return parentIndex{}, fmt.Errorf("genome %s: duplicate neuron key %d", g.ID, neuron.Key)
		}
		idx.neurons[neuron.Key] = neuron
		switch neuron.Layer {
		case model.LayerInput:
			inputs++
		case model.LayerOutput:
			outputs++
		}
	}
	if inputs != model.InputCount || outputs != model.OutputCount {
		return parentIndex{}, fmt.Errorf("genome %s: want %d inputs and %d outputs, got %d and %d",
			g.ID, model.InputCount, model.OutputCount, inputs, outputs)
	}
	for i, synapse := range g.Synapses {
		if synapse.From < 0 || synapse.From >= len(g.Neurons) || synapse.To < 0 || synapse.To >= len(g.Neurons) {
			return parentIndex{}, fmt.Errorf("genome %s: synapse %d out of range", g.ID, i)
		}
		key := synapseKey{from: g.Neurons[synapse.From].Key, to: g.Neurons[synapse.To].Key}
		if _, dup := idx.synapses[key]; dup {
			continue
		}
		idx.synapses[key] = synapse
		idx.order = append(idx.order, key)
	}
	return idx, nil
}

// Crossover produces one child from two parents aligned by neuron key.
// Genes present in both parents are inherited from a random parent; genes
// present in only one parent are inherited with probability one half.
// Neither parent is modified.
func Crossover(a, b model.Genome, rng *rand.Rand) (model.Genome, error) {
	rng = ensureRNG(rng)
	pa, err := indexParent(a)
	if err != nil {
		return model.Genome{}, err
	}
	pb, err := indexParent(b)
	if err != nil {
		return model.Genome{}, err
	}

	keys := make([]int64, 0, len(pa.neurons)+len(pb.neurons))
	seen := make(map[int64]struct{}, cap(keys))
	for _, m := range []map[int64]model.Neuron{pa.neurons, pb.neurons} {
		for key := range m {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	neurons := make([]model.Neuron, 0, len(keys))
	position := make(map[int64]int, len(keys))
	for _, key := range keys {
		na, inA := pa.neurons[key]
		nb, inB := pb.neurons[key]
		var chosen model.Neuron
		switch {
		case inA && inB:
			chosen = na
			if rng.Intn(2) == 1 {
				chosen = nb
			}
			// Layer is part of the key contract; keep parent A's on conflict.
			chosen.Layer = na.Layer
		case inA:
			if na.Layer == model.LayerHidden && rng.Intn(2) == 0 {
				continue
			}
			chosen = na
		default:
			if nb.Layer == model.LayerHidden && rng.Intn(2) == 0 {
				continue
			}
			chosen = nb
		}
		position[key] = len(neurons)
		neurons = append(neurons, chosen)
	}

	synapseOrder := append([]synapseKey(nil), pa.order...)
	for _, key := range pb.order {
		if _, ok := pa.synapses[key]; !ok {
			synapseOrder = append(synapseOrder, key)
		}
	}
	synapses := make([]model.Synapse, 0, len(synapseOrder))
	for _, key := range synapseOrder {
		sa, inA := pa.synapses[key]
		sb, inB := pb.synapses[key]
		var chosen model.Synapse
		switch {
		case inA && inB:
			chosen = sa
			if rng.Intn(2) == 1 {
				chosen = sb
			}
		case inA:
			if rng.Intn(2) == 0 {
				continue
			}
			chosen = sa
		default:
			if rng.Intn(2) == 0 {
				continue
			}
			chosen = sb
		}
		from, okFrom := position[key.from]
		to, okTo := position[key.to]
		if !okFrom || !okTo {
			continue
		}
		if neurons[from].Layer >= neurons[to].Layer {
			continue
		}
		chosen.From = from
		chosen.To = to
		synapses = append(synapses, chosen)
	}

	return model.Genome{
		ID:       newGenomeID(rng),
		Neurons:  neurons,
		Synapses: synapses,
	}, nil
}
