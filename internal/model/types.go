package model

import "time"

// VersionedRecord captures schema and codec evolution for journal data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Layer places a neuron in the feed-forward order. Synapses only run from a
// lower layer to a strictly higher one.
type Layer int

const (
	LayerInput Layer = iota
	LayerHidden
	LayerOutput
)

func (l Layer) String() string {
	switch l {
	case LayerInput:
		return "input"
	case LayerHidden:
		return "hidden"
	case LayerOutput:
		return "output"
	default:
		return "unknown"
	}
}

const (
	InputCount  = 3
	OutputCount = 3
)

// Genome is a CPPN stored as an arena of neurons. Synapses address neurons by
// their index in Neurons, so a genome is copied and owned as a single value.
type Genome struct {
	ID       string    `json:"id"`
	Neurons  []Neuron  `json:"neurons"`
	Synapses []Synapse `json:"synapses"`
}

type Neuron struct {
	// Key aligns equivalent neurons across genomes during crossover.
	Key        int64   `json:"key"`
	Layer      Layer   `json:"layer"`
	Activation string  `json:"activation"`
	Bias       float64 `json:"bias"`
}

type Synapse struct {
	From    int     `json:"from"`
	To      int     `json:"to"`
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

// SessionRecord describes one interactive session in the journal.
type SessionRecord struct {
	VersionedRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	GridSize  int       `json:"grid_size"`
	ImageSize int       `json:"image_size"`
	Stitching string    `json:"stitching"`
	Seed      int64     `json:"seed"`
}

// GenerationRecord is appended to the journal after every serviced evolve.
// It keeps fingerprints only; genomes are never persisted.
type GenerationRecord struct {
	VersionedRecord
	SessionID          string    `json:"session_id"`
	Generation         int       `json:"generation"`
	PopulationSize     int       `json:"population_size"`
	Champions          []int     `json:"champions"`
	Fallback           bool      `json:"fallback"`
	ParentFingerprints []string  `json:"parent_fingerprints,omitempty"`
	ChildFingerprints  []string  `json:"child_fingerprints,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
