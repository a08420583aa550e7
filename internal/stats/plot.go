package stats

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"evosculpt/internal/model"
)

// PlotHistory draws champions and population size per generation. The image
// format follows the extension of path (.png, .svg, .pdf, ...).
func PlotHistory(records []model.GenerationRecord, title, path string) error {
	if len(records) == 0 {
		return errors.New("history is empty")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Genomes"

	champions := make(plotter.XYs, len(records))
	population := make(plotter.XYs, len(records))
	for i, point := range ChampionSeries(records) {
		champions[i].X = float64(point.Generation)
		champions[i].Y = point.Value
		population[i].X = float64(records[i].Generation)
		population[i].Y = float64(records[i].PopulationSize)
	}

	championLine, err := plotter.NewLine(champions)
	if err != nil {
		return err
	}
	championLine.Color = color.RGBA{R: 200, G: 60, B: 40, A: 255}
	populationLine, err := plotter.NewLine(population)
	if err != nil {
		return err
	}
	populationLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(championLine, populationLine)
	p.Legend.Add("champions", championLine)
	p.Legend.Add("population", populationLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
