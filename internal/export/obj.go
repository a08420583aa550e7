package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"evosculpt/internal/model"
)

// SmoothNormals averages face normals around each vertex. Face normals are
// left unnormalized so larger triangles weigh more; vertices with no
// usable face get a zero normal.
func SmoothNormals(mesh model.Mesh) []r3.Vec {
	normals := make([]r3.Vec, len(mesh.Vertices))
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		ia, ib, ic := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		a, b, c := vec(mesh.Vertices[ia]), vec(mesh.Vertices[ib]), vec(mesh.Vertices[ic])
		face := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, i := range [3]uint32{ia, ib, ic} {
			normals[i] = r3.Add(normals[i], face)
		}
	}
	for i, n := range normals {
		if r3.Norm(n) > 1e-12 {
			normals[i] = r3.Unit(n)
		} else {
			normals[i] = r3.Vec{}
		}
	}
	return normals
}

func vec(v model.Vertex) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// WriteOBJ writes mesh as a Wavefront OBJ with per-vertex normals. OBJ
// indices are 1-based.
func WriteOBJ(w io.Writer, mesh model.Mesh, name string) error {
	bw := bufio.NewWriter(w)
	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v[0], v[1], v[2])
	}
	for _, n := range SmoothNormals(mesh) {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		a, b, c := mesh.Indices[t]+1, mesh.Indices[t+1]+1, mesh.Indices[t+2]+1
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return bw.Flush()
}

func WriteOBJFile(path string, mesh model.Mesh, name string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteOBJ(file, mesh, name); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
