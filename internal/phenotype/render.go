// Package phenotype turns a genome into its RGB image by sampling it over a
// normalized coordinate grid.
package phenotype

import (
	"errors"
	"fmt"
	"math"

	"evosculpt/internal/model"
	"evosculpt/internal/nn"
)

const (
	// DefaultSize is the edge length of the sample grid.
	DefaultSize = 32

	// Epsilon is the smallest channel range that is rescaled; narrower
	// channels render as MidpointByte.
	Epsilon = 1e-6

	// MidpointByte is round(0.5 * 255).
	MidpointByte uint8 = 128
)

var ErrGridTooSmall = errors.New("grid must be at least 2x2")

// Evaluator is one forward pass of a 3-in/3-out network. Flush must drop any
// state left by a previous Evaluate call.
type Evaluator interface {
	Flush()
	Evaluate(in [model.InputCount]float64) [model.OutputCount]float64
}

// Renderer samples genomes compiled against a fixed activation registry.
type Renderer struct {
	registry *nn.Registry
}

func NewRenderer(registry *nn.Registry) (*Renderer, error) {
	if registry == nil {
		return nil, errors.New("activation registry is required")
	}
	return &Renderer{registry: registry}, nil
}

// Render compiles genome and samples it on a width x height grid.
func (r *Renderer) Render(genome model.Genome, width, height int) (model.Image, error) {
	if width < 2 || height < 2 {
		return model.Image{}, fmt.Errorf("%w: %dx%d", ErrGridTooSmall, width, height)
	}
	net, err := nn.Compile(genome, r.registry)
	if err != nil {
		return model.Image{}, fmt.Errorf("compile genome %s: %w", genome.ID, err)
	}
	return RenderWith(net, width, height)
}

type channelRange struct {
	min, max float64
	invalid  bool
}

func newChannelRange() channelRange {
	return channelRange{min: math.Inf(1), max: math.Inf(-1)}
}

func (c *channelRange) observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.invalid = true
		return
	}
	c.min = math.Min(c.min, v)
	c.max = math.Max(c.max, v)
}

func (c channelRange) degenerate() bool {
	return c.invalid || c.max-c.min < Epsilon
}

func (c channelRange) quantize(v float64) uint8 {
	if c.degenerate() {
		return MidpointByte
	}
	n := (v - c.min) / (c.max - c.min)
	return uint8(math.Round(nn.Sat(n, 1, 0) * 255))
}

// RenderWith samples eval in row-major order and normalizes each channel
// independently to the full byte range. A channel whose range is below
// Epsilon, or that produced NaN or Inf anywhere, renders as MidpointByte.
func RenderWith(eval Evaluator, width, height int) (model.Image, error) {
	if width < 2 || height < 2 {
		return model.Image{}, fmt.Errorf("%w: %dx%d", ErrGridTooSmall, width, height)
	}
	if eval == nil {
		return model.Image{}, errors.New("evaluator is required")
	}

	raw := make([][model.OutputCount]float64, width*height)
	ranges := [model.OutputCount]channelRange{newChannelRange(), newChannelRange(), newChannelRange()}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			normX := (float64(x)/float64(width-1))*2 - 1
			normY := (float64(y)/float64(height-1))*2 - 1
			dist := math.Sqrt(normX*normX + normY*normY)

			eval.Flush()
			out := eval.Evaluate([model.InputCount]float64{normX, normY, dist})
			raw[y*width+x] = out
			for c := range ranges {
				ranges[c].observe(out[c])
			}
		}
	}

	img := model.NewImage(width, height)
	for i, out := range raw {
		img.Pix[i] = model.RGB{
			R: ranges[0].quantize(out[0]),
			G: ranges[1].quantize(out[1]),
			B: ranges[2].quantize(out[2]),
		}
	}
	return img, nil
}
