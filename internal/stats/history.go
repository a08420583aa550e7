package stats

import (
	"encoding/csv"
	"io"
	"strconv"

	"evosculpt/internal/model"
)

type HistorySummary struct {
	Generations    int     `json:"generations"`
	TotalChampions int     `json:"total_champions"`
	MeanChampions  float64 `json:"mean_champions"`
	MaxChampions   int     `json:"max_champions"`
	FallbackCount  int     `json:"fallback_count"`
	LastGeneration int     `json:"last_generation"`
	// DistinctChildren counts unique child fingerprints over the journal.
	DistinctChildren int `json:"distinct_children"`
}

func SummarizeHistory(records []model.GenerationRecord) HistorySummary {
	summary := HistorySummary{Generations: len(records)}
	seen := make(map[string]struct{})
	for _, r := range records {
		n := len(r.Champions)
		summary.TotalChampions += n
		summary.MaxChampions = max(summary.MaxChampions, n)
		if r.Fallback {
			summary.FallbackCount++
		}
		summary.LastGeneration = max(summary.LastGeneration, r.Generation)
		for _, fp := range r.ChildFingerprints {
			seen[fp] = struct{}{}
		}
	}
	if len(records) > 0 {
		summary.MeanChampions = float64(summary.TotalChampions) / float64(len(records))
	}
	summary.DistinctChildren = len(seen)
	return summary
}

type PlotPoint struct {
	Generation int     `json:"generation"`
	Value      float64 `json:"value"`
}

// ChampionSeries is the number of selected genomes that bred each generation.
func ChampionSeries(records []model.GenerationRecord) []PlotPoint {
	points := make([]PlotPoint, 0, len(records))
	for _, r := range records {
		points = append(points, PlotPoint{Generation: r.Generation, Value: float64(len(r.Champions))})
	}
	return points
}

// SelectionPressureSeries is the fraction of the population selected per
// generation; fallback generations count as zero.
func SelectionPressureSeries(records []model.GenerationRecord) []PlotPoint {
	points := make([]PlotPoint, 0, len(records))
	for _, r := range records {
		value := 0.0
		if r.PopulationSize > 0 {
			value = float64(len(r.Champions)) / float64(r.PopulationSize)
		}
		points = append(points, PlotPoint{Generation: r.Generation, Value: value})
	}
	return points
}

func WriteHistoryCSV(w io.Writer, records []model.GenerationRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"generation", "population_size", "champions", "fallback", "created_at"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			strconv.Itoa(r.Generation),
			strconv.Itoa(r.PopulationSize),
			strconv.Itoa(len(r.Champions)),
			strconv.FormatBool(r.Fallback),
			r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
