package evo

import (
	"evosculpt/internal/genotype"
	"evosculpt/internal/model"
)

func fingerprints(genomes []model.Genome, indices []int) []string {
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		out = append(out, genotype.ComputeGenomeSignature(genomes[i]).Fingerprint)
	}
	return out
}

func allFingerprints(genomes []model.Genome) []string {
	return fingerprints(genomes, allIndices(len(genomes)))
}
