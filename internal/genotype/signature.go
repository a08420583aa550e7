package genotype

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"evosculpt/internal/model"
)

type TopologySummary struct {
	TotalNeurons           int            `json:"total_neurons"`
	HiddenNeurons          int            `json:"hidden_neurons"`
	TotalSynapses          int            `json:"total_synapses"`
	EnabledSynapses        int            `json:"enabled_synapses"`
	ActivationDistribution map[string]int `json:"activation_distribution"`
	OutputActivations      []string       `json:"output_activations"`
}

type GenomeSignature struct {
	Fingerprint string          `json:"fingerprint"`
	Summary     TopologySummary `json:"summary"`
}

// ComputeGenomeSignature summarizes the structure of a genome. Input neurons
// are not counted in the activation distribution since they pass values
// through unchanged.
func ComputeGenomeSignature(genome model.Genome) GenomeSignature {
	actDist := make(map[string]int)
	hidden := 0
	for _, n := range genome.Neurons {
		switch n.Layer {
		case model.LayerInput:
			continue
		case model.LayerHidden:
			hidden++
		}
		actDist[n.Activation]++
	}
	enabled := 0
	for _, s := range genome.Synapses {
		if s.Enabled {
			enabled++
		}
	}
	outputs := make([]string, 0, model.OutputCount)
	for _, idx := range OutputIndices(genome) {
		outputs = append(outputs, genome.Neurons[idx].Activation)
	}

	summary := TopologySummary{
		TotalNeurons:           len(genome.Neurons),
		HiddenNeurons:          hidden,
		TotalSynapses:          len(genome.Synapses),
		EnabledSynapses:        enabled,
		ActivationDistribution: actDist,
		OutputActivations:      outputs,
	}

	parts := []string{
		fmt.Sprintf("n=%d", summary.TotalNeurons),
		fmt.Sprintf("h=%d", summary.HiddenNeurons),
		fmt.Sprintf("s=%d", summary.TotalSynapses),
		fmt.Sprintf("e=%d", summary.EnabledSynapses),
		"out=" + strings.Join(outputs, ","),
	}
	keys := make([]string, 0, len(actDist))
	for k := range actDist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("af:%s=%d", k, actDist[k]))
	}

	digest := sha1.Sum([]byte(strings.Join(parts, "|")))
	return GenomeSignature{
		Fingerprint: hex.EncodeToString(digest[:8]),
		Summary:     summary,
	}
}
