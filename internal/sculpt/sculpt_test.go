package sculpt

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"evosculpt/internal/model"
)

func gradientImage(w, h int) model.Image {
	img := model.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, model.RGB{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: uint8((x + y) % 256)})
		}
	}
	return img
}

type directedEdge struct{ from, to uint32 }

func directedEdges(t *testing.T, mesh model.Mesh) map[directedEdge]int {
	t.Helper()
	if len(mesh.Indices)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of 3", len(mesh.Indices))
	}
	edges := make(map[directedEdge]int)
	for i := 0; i < len(mesh.Indices); i += 3 {
		tri := mesh.Indices[i : i+3]
		for k := 0; k < 3; k++ {
			edges[directedEdge{tri[k], tri[(k+1)%3]}]++
		}
	}
	return edges
}

// assertClosedAndOriented checks that every directed edge is used once and
// its reverse is used once, which holds for a closed consistently wound mesh.
func assertClosedAndOriented(t *testing.T, mesh model.Mesh) {
	t.Helper()
	for e, n := range directedEdges(t, mesh) {
		if n != 1 {
			t.Fatalf("directed edge %d->%d used %d times", e.from, e.to, n)
		}
	}
	edges := directedEdges(t, mesh)
	for e := range edges {
		if edges[directedEdge{e.to, e.from}] != 1 {
			t.Fatalf("edge %d->%d has no opposite", e.from, e.to)
		}
	}
}

func TestSynthesizeCounts(t *testing.T) {
	cases := []struct {
		mode     model.StitchingMode
		poles    PoleMode
		w, h     int
		vertices int
		indices  int
	}{
		{model.StitchPlane, PoleRimFan, 4, 3, 12, 6 * 3 * 2},
		{model.StitchCylinder, PoleRimFan, 4, 3, 12, 6 * 4 * 2},
		{model.StitchSphere, PoleRimFan, 4, 3, 12, 6*4*2 + 2*3*2},
		{model.StitchSphere, PoleSynthesized, 4, 3, 14, 6*4*2 + 2*3*4},
		{model.StitchTorus, PoleRimFan, 4, 3, 12, 6 * 4 * 3},
		{model.StitchPlane, PoleRimFan, 32, 32, 1024, 5766},
		{model.StitchTorus, PoleRimFan, 32, 32, 1024, 6144},
		{model.StitchSphere, PoleRimFan, 2, 2, 4, 12},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s/%dx%d", tc.mode, tc.poles, tc.w, tc.h), func(t *testing.T) {
			mesh, err := SynthesizeWith(gradientImage(tc.w, tc.h), Options{Scale: DefaultScale, Mode: tc.mode, Poles: tc.poles})
			if err != nil {
				t.Fatalf("synthesize: %v", err)
			}
			if len(mesh.Vertices) != tc.vertices {
				t.Fatalf("expected %d vertices, got %d", tc.vertices, len(mesh.Vertices))
			}
			if len(mesh.Indices) != tc.indices {
				t.Fatalf("expected %d indices, got %d", tc.indices, len(mesh.Indices))
			}
			want, err := IndexCount(tc.mode, tc.w, tc.h, tc.poles)
			if err != nil {
				t.Fatalf("index count: %v", err)
			}
			if want != len(mesh.Indices) {
				t.Fatalf("IndexCount=%d disagrees with mesh=%d", want, len(mesh.Indices))
			}
			for _, idx := range mesh.Indices {
				if int(idx) >= len(mesh.Vertices) {
					t.Fatalf("index %d out of range", idx)
				}
			}
		})
	}
}

func TestSynthesizePlaneWinding(t *testing.T) {
	mesh, err := Synthesize(gradientImage(2, 2), DefaultScale, model.StitchPlane)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	want := []uint32{0, 2, 1, 1, 2, 3}
	if d := cmp.Diff(want, mesh.Indices); d != "" {
		t.Fatalf("unexpected plane indices (-want +got):\n%s", d)
	}
}

func TestSynthesizeVertexPositions(t *testing.T) {
	img := model.NewImage(2, 2)
	img.Set(0, 0, model.RGB{R: 0, G: 255, B: 128})
	img.Set(1, 1, model.RGB{R: 255, G: 0, B: 0})
	mesh, err := Synthesize(img, 5, model.StitchPlane)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	approx := func(got float32, want float64) bool { return math.Abs(float64(got)-want) < 1e-5 }
	v0 := mesh.Vertices[0]
	if !approx(v0[0], -2.5) || !approx(v0[1], 2.5) || !approx(v0[2], (128.0/255-0.5)*5) {
		t.Fatalf("unexpected vertex 0: %v", v0)
	}
	v3 := mesh.Vertices[3]
	if !approx(v3[0], 2.5) || !approx(v3[1], -2.5) || !approx(v3[2], -2.5) {
		t.Fatalf("unexpected vertex 3: %v", v3)
	}
	for _, v := range mesh.Vertices {
		for _, c := range v {
			if c < -2.5 || c > 2.5 {
				t.Fatalf("vertex %v outside the scale cube", v)
			}
		}
	}
}

func TestSynthesizeClosedTopologies(t *testing.T) {
	img := gradientImage(5, 4)
	for _, opts := range []Options{
		{Scale: 1, Mode: model.StitchTorus},
		{Scale: 1, Mode: model.StitchSphere, Poles: PoleRimFan},
		{Scale: 1, Mode: model.StitchSphere, Poles: PoleSynthesized},
	} {
		t.Run(opts.Mode.String()+"/"+opts.Poles.String(), func(t *testing.T) {
			mesh, err := SynthesizeWith(img, opts)
			if err != nil {
				t.Fatalf("synthesize: %v", err)
			}
			assertClosedAndOriented(t, mesh)
		})
	}
}

func TestSynthesizeCylinderBoundaryIsBothRims(t *testing.T) {
	const w, h = 5, 4
	mesh, err := Synthesize(gradientImage(w, h), 1, model.StitchCylinder)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	edges := directedEdges(t, mesh)
	for e := range edges {
		if edges[directedEdge{e.to, e.from}] == 1 {
			continue
		}
		rowFrom, rowTo := int(e.from)/w, int(e.to)/w
		if rowFrom != rowTo || (rowFrom != 0 && rowFrom != h-1) {
			t.Fatalf("open edge %d->%d is not on a rim", e.from, e.to)
		}
	}
}

func TestSynthesizeSyntheticPolesAreRimCentroids(t *testing.T) {
	img := model.NewImage(3, 2)
	for x := 0; x < 3; x++ {
		img.Set(x, 0, model.RGB{R: uint8(x * 100)})
		img.Set(x, 1, model.RGB{G: 255})
	}
	mesh, err := SynthesizeWith(img, Options{Scale: 1, Mode: model.StitchSphere, Poles: PoleSynthesized})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	top := mesh.Vertices[6]
	wantTop := float32((100.0/255 - 0.5))
	if math.Abs(float64(top[0]-wantTop)) > 1e-5 {
		t.Fatalf("unexpected top pole: %v", top)
	}
	bottom := mesh.Vertices[7]
	if math.Abs(float64(bottom[1]-0.5)) > 1e-5 {
		t.Fatalf("unexpected bottom pole: %v", bottom)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	if _, err := Synthesize(gradientImage(1, 5), 1, model.StitchPlane); !errors.Is(err, ErrGridTooSmall) {
		t.Fatalf("expected ErrGridTooSmall, got: %v", err)
	}
	if _, err := Synthesize(gradientImage(3, 3), 1, model.StitchingMode(42)); !errors.Is(err, ErrUnknownStitching) {
		t.Fatalf("expected ErrUnknownStitching, got: %v", err)
	}
	broken := model.Image{Width: 3, Height: 3, Pix: make([]model.RGB, 4)}
	if _, err := Synthesize(broken, 1, model.StitchPlane); !errors.Is(err, ErrMalformedImage) {
		t.Fatalf("expected ErrMalformedImage, got: %v", err)
	}
}

func TestParsePoleMode(t *testing.T) {
	for name, want := range map[string]PoleMode{"": PoleRimFan, "rim": PoleRimFan, "synthesized": PoleSynthesized} {
		got, err := ParsePoleMode(name)
		if err != nil || got != want {
			t.Fatalf("parse %q: got=%v err=%v", name, got, err)
		}
	}
	if _, err := ParsePoleMode("round"); err == nil {
		t.Fatal("expected unknown pole mode error")
	}
}
