package genotype

import "evosculpt/internal/model"

func CloneGenome(g model.Genome) model.Genome {
	out := g
	out.Neurons = append([]model.Neuron(nil), g.Neurons...)
	out.Synapses = append([]model.Synapse(nil), g.Synapses...)
	return out
}

func CloneGenomes(genomes []model.Genome) []model.Genome {
	out := make([]model.Genome, len(genomes))
	for i, g := range genomes {
		out[i] = CloneGenome(g)
	}
	return out
}
