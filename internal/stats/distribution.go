package stats

import (
	"sort"

	"evosculpt/internal/genotype"
	"evosculpt/internal/model"
)

type ActivationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ActivationDistribution counts hidden and output neurons per activation
// function across genomes.
func ActivationDistribution(genomes []model.Genome) map[string]int {
	out := make(map[string]int)
	for _, g := range genomes {
		for name, n := range genotype.ComputeGenomeSignature(g).Summary.ActivationDistribution {
			out[name] += n
		}
	}
	return out
}

// SortedDistribution orders counts from most to least used, ties by name.
func SortedDistribution(dist map[string]int) []ActivationCount {
	out := make([]ActivationCount, 0, len(dist))
	for name, count := range dist {
		out = append(out, ActivationCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
