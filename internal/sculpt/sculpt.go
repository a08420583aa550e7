// Package sculpt assembles triangle meshes from phenotype images.
//
// Each pixel becomes one vertex whose position is the pixel's colour read as
// an (x, y, z) coordinate. The image grid only supplies connectivity, and the
// stitching mode decides which grid edges wrap around.
package sculpt

import (
	"errors"
	"fmt"

	"evosculpt/internal/model"
)

// DefaultScale is the edge length of the cube vertices are spread over.
const DefaultScale = 5.0

var (
	ErrGridTooSmall     = errors.New("mesh grid must be at least 2x2")
	ErrMalformedImage   = errors.New("image pixel count does not match its dimensions")
	ErrUnknownStitching = model.ErrUnknownStitching
)

// PoleMode selects how Sphere stitching closes its two open rims.
type PoleMode int

const (
	// PoleRimFan closes each rim with a fan rooted at the rim's first
	// vertex. The vertex count stays W*H, at the cost of flattened poles.
	PoleRimFan PoleMode = iota
	// PoleSynthesized appends one vertex per rim at the rim centroid and
	// fans the whole rim to it. Meshes carry W*H+2 vertices.
	PoleSynthesized
)

func (p PoleMode) String() string {
	switch p {
	case PoleRimFan:
		return "rim"
	case PoleSynthesized:
		return "synthesized"
	default:
		return fmt.Sprintf("poles(%d)", int(p))
	}
}

func ParsePoleMode(name string) (PoleMode, error) {
	switch name {
	case "", "rim":
		return PoleRimFan, nil
	case "synthesized", "true":
		return PoleSynthesized, nil
	default:
		return 0, fmt.Errorf("unknown pole mode: %q", name)
	}
}

type Options struct {
	Scale float64
	Mode  model.StitchingMode
	Poles PoleMode
}

type topology struct {
	wrapX  bool
	wrapY  bool
	capped bool
}

func topologyFor(mode model.StitchingMode) (topology, error) {
	switch mode {
	case model.StitchPlane:
		return topology{}, nil
	case model.StitchCylinder:
		return topology{wrapX: true}, nil
	case model.StitchSphere:
		return topology{wrapX: true, capped: true}, nil
	case model.StitchTorus:
		return topology{wrapX: true, wrapY: true}, nil
	default:
		return topology{}, fmt.Errorf("%w: %s", ErrUnknownStitching, mode)
	}
}

// Synthesize builds a mesh with rim-fan poles.
func Synthesize(img model.Image, scale float64, mode model.StitchingMode) (model.Mesh, error) {
	return SynthesizeWith(img, Options{Scale: scale, Mode: mode})
}

func SynthesizeWith(img model.Image, opts Options) (model.Mesh, error) {
	w, h := img.Width, img.Height
	if w < 2 || h < 2 {
		return model.Mesh{}, fmt.Errorf("%w: %dx%d", ErrGridTooSmall, w, h)
	}
	if len(img.Pix) != w*h {
		return model.Mesh{}, fmt.Errorf("%w: %dx%d with %d pixels", ErrMalformedImage, w, h, len(img.Pix))
	}
	topo, err := topologyFor(opts.Mode)
	if err != nil {
		return model.Mesh{}, err
	}

	count, err := IndexCount(opts.Mode, w, h, opts.Poles)
	if err != nil {
		return model.Mesh{}, err
	}
	mesh := model.Mesh{
		Vertices: Vertices(img, opts.Scale),
		Indices:  make([]uint32, 0, count),
	}
	mesh.Indices = appendQuads(mesh.Indices, w, h, topo)
	if topo.capped {
		switch opts.Poles {
		case PoleSynthesized:
			mesh = appendPoleCaps(mesh, w, h)
		default:
			mesh.Indices = appendRimCaps(mesh.Indices, w, h)
		}
	}
	return mesh, nil
}

// Vertices maps every pixel, row-major, to ((c/255 - 0.5) * scale) per channel.
func Vertices(img model.Image, scale float64) []model.Vertex {
	out := make([]model.Vertex, len(img.Pix))
	for i, p := range img.Pix {
		out[i] = model.Vertex{
			channelCoord(p.R, scale),
			channelCoord(p.G, scale),
			channelCoord(p.B, scale),
		}
	}
	return out
}

func channelCoord(c uint8, scale float64) float32 {
	return float32((float64(c)/255 - 0.5) * scale)
}

// IndexCount is the exact index-buffer length for a w x h grid.
func IndexCount(mode model.StitchingMode, w, h int, poles PoleMode) (int, error) {
	if w < 2 || h < 2 {
		return 0, fmt.Errorf("%w: %dx%d", ErrGridTooSmall, w, h)
	}
	switch mode {
	case model.StitchPlane:
		return 6 * (w - 1) * (h - 1), nil
	case model.StitchCylinder:
		return 6 * w * (h - 1), nil
	case model.StitchSphere:
		if poles == PoleSynthesized {
			return 6*w*(h-1) + 2*3*w, nil
		}
		return 6*w*(h-1) + 2*3*max(w-2, 0), nil
	case model.StitchTorus:
		return 6 * w * h, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownStitching, mode)
	}
}

// appendQuads emits two triangles per grid cell. With a=(x,y), b=(x,y+1),
// c=(x+1,y) and d=(x+1,y+1) the triangles are (a,b,c) and (c,b,d), so every
// quad shares its b-c diagonal and winds the same way.
func appendQuads(indices []uint32, w, h int, topo topology) []uint32 {
	cols, rows := w-1, h-1
	if topo.wrapX {
		cols = w
	}
	if topo.wrapY {
		rows = h
	}
	for y := 0; y < rows; y++ {
		y1 := (y + 1) % h
		for x := 0; x < cols; x++ {
			x1 := (x + 1) % w
			a := uint32(y*w + x)
			b := uint32(y1*w + x)
			c := uint32(y*w + x1)
			d := uint32(y1*w + x1)
			indices = append(indices, a, b, c, c, b, d)
		}
	}
	return indices
}

// appendRimCaps closes row 0 and row h-1. Each rim is fanned from its own
// first vertex; triangles touching the apex twice are skipped.
func appendRimCaps(indices []uint32, w, h int) []uint32 {
	top := uint32(0)
	bottom := uint32((h - 1) * w)
	for x := 1; x < w-1; x++ {
		u, v := uint32(x), uint32(x+1)
		indices = append(indices, top, top+u, top+v)
	}
	for x := 1; x < w-1; x++ {
		u, v := uint32(x), uint32(x+1)
		indices = append(indices, bottom, bottom+v, bottom+u)
	}
	return indices
}

// appendPoleCaps adds a centroid vertex per rim and fans every rim edge,
// including the wrap-around edge, to it.
func appendPoleCaps(mesh model.Mesh, w, h int) model.Mesh {
	topRow := 0
	bottomRow := (h - 1) * w
	topPole := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, ringCentroid(mesh.Vertices[topRow:topRow+w]))
	bottomPole := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, ringCentroid(mesh.Vertices[bottomRow:bottomRow+w]))

	for x := 0; x < w; x++ {
		u := uint32(topRow + x)
		v := uint32(topRow + (x+1)%w)
		mesh.Indices = append(mesh.Indices, topPole, u, v)
	}
	for x := 0; x < w; x++ {
		u := uint32(bottomRow + x)
		v := uint32(bottomRow + (x+1)%w)
		mesh.Indices = append(mesh.Indices, bottomPole, v, u)
	}
	return mesh
}

func ringCentroid(ring []model.Vertex) model.Vertex {
	var sum [3]float64
	for _, v := range ring {
		for i := range sum {
			sum[i] += float64(v[i])
		}
	}
	n := float64(len(ring))
	return model.Vertex{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n)}
}
