// Package sdfx implements the kernel.Kernel interface with signed distance
// fields from github.com/deadsy/sdfx. Booleans are exact on the field;
// meshes come from marching cubes, so flat faces and sharp edges are
// approximated at the configured resolution.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	_ kernel.Kernel   = (*Kernel)(nil)
	_ kernel.Exporter = (*Kernel)(nil)
)

// DefaultMeshCells is the marching cubes resolution along the longest axis.
const DefaultMeshCells = 200

type sdfSolid struct {
	s sdf.SDF3
}

func (s *sdfSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// Kernel builds solids as distance fields.
type Kernel struct {
	cells int
}

// New returns a Kernel meshing with the given number of cells along the
// longest axis. A non-positive value selects DefaultMeshCells.
func New(cells int) *Kernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &Kernel{cells: cells}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	b, ok := s.(*sdfSolid)
	if !ok {
		panic(fmt.Sprintf("sdfx: foreign solid %T", s))
	}
	return b.s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfSolid{s: s}
}

// Box has its minimum corner at the origin. sdf.Box3D is centred, so the
// field is shifted by half the size.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx: box %gx%gx%g: %v", x, y, z, err))
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})))
}

// Cylinder is centred on the origin along Z. segments is ignored: the field
// is smooth and facets come from the mesh resolution.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx: cylinder h=%g r=%g: %v", height, radius, err))
	}
	return wrap(s)
}

// Sphere is centred on the origin. segments is ignored.
func (k *Kernel) Sphere(radius float64, segments int) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx: sphere r=%g: %v", radius, err))
	}
	return wrap(s)
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})))
}

// Rotate applies Euler angles in degrees: X first, then Y, then Z.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Triangles runs marching cubes over the solid's field.
func (k *Kernel) Triangles(s kernel.Solid) []*sdf.Triangle3 {
	return render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(k.cells))
}

// ToMesh converts a solid to a flat-shaded triangle mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris := k.Triangles(s)

	vertices := make([]float32, 0, len(tris)*9)
	normals := make([]float32, 0, len(tris)*9)
	indices := make([]uint32, 0, len(tris)*3)

	for i, tri := range tris {
		n := tri.Normal()
		for j := range 3 {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// WriteSTL meshes every solid and writes the triangles to one binary STL.
func (k *Kernel) WriteSTL(path string, solids ...kernel.Solid) error {
	var tris []*sdf.Triangle3
	for _, s := range solids {
		tris = append(tris, k.Triangles(s)...)
	}
	if len(tris) == 0 {
		return fmt.Errorf("sdfx: write %s: no geometry", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: write %s: %w", path, err)
	}
	return nil
}
