package model

import (
	"image"
	"image/color"
)

type RGB struct {
	R, G, B uint8
}

// Image is a row-major grid of RGB triples.
type Image struct {
	Width  int
	Height int
	Pix    []RGB
}

func NewImage(width, height int) Image {
	return Image{
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}
}

func (m Image) At(x, y int) RGB {
	return m.Pix[y*m.Width+x]
}

func (m Image) Set(x, y int, c RGB) {
	m.Pix[y*m.Width+x] = c
}

// ToNRGBA converts the grid into an opaque standard library image.
func (m Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			p := m.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{R: p.R, G: p.G, B: p.B, A: 0xff})
		}
	}
	return out
}

// Vertex is an (x, y, z) position laid out for GPU upload.
type Vertex [3]float32

// Mesh is a triangle soup: Indices holds vertex-index triples.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}
