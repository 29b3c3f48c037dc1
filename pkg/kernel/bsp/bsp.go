// Package bsp implements the kernel.Kernel interface with the BSP-tree
// Boolean engine in pkg/csg. Solids are exact polygon boundaries, so meshing
// is a fan split of each convex face rather than a sampled surface.
package bsp

import (
	"fmt"

	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	_ kernel.Kernel   = (*Kernel)(nil)
	_ kernel.Exporter = (*Kernel)(nil)
	_ kernel.Measurer = (*Kernel)(nil)
)

// defaultSegments is used when a primitive is asked for fewer than three.
const defaultSegments = 32

// bspSolid wraps a csg.Solid to implement kernel.Solid.
type bspSolid struct {
	s *csg.Solid
}

// BoundingBox returns the axis-aligned bounding box.
func (s *bspSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.Bounds()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Kernel implements kernel.Kernel over pkg/csg.
type Kernel struct {
	opts csg.Options
}

// New returns a Kernel that classifies with the given epsilon. A
// non-positive epsilon selects csg.DefaultEpsilon.
func New(epsilon float64) *Kernel {
	return &Kernel{opts: csg.Options{Epsilon: epsilon}}
}

// unwrap extracts the underlying csg.Solid from a kernel.Solid. Solids from
// other backends are rejected loudly; mixing kernels is a programming error.
func unwrap(s kernel.Solid) *csg.Solid {
	if s == nil {
		return nil
	}
	b, ok := s.(*bspSolid)
	if !ok {
		panic(fmt.Sprintf("bsp: foreign solid %T", s))
	}
	return b.s
}

// wrap creates a kernel.Solid from a csg.Solid.
func wrap(s *csg.Solid) kernel.Solid {
	return &bspSolid{s: s}
}

func segments(n int) int {
	if n < 3 {
		return defaultSegments
	}
	return n
}

// Box creates a box with its minimum corner at the origin so that placement
// translations move the corner, matching how parts are laid out in scripts.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return wrap(csg.Box(v3.Vec{}, v3.Vec{X: x, Y: y, Z: z}))
}

// Cylinder creates a cylinder along Z centred on the origin.
func (k *Kernel) Cylinder(height, radius float64, segs int) kernel.Solid {
	start := v3.Vec{Z: -height / 2}
	end := v3.Vec{Z: height / 2}
	return wrap(csg.Cylinder(start, end, radius, segments(segs)))
}

// Sphere creates a sphere centred on the origin. segs slices the longitude;
// the latitude gets half as many stacks.
func (k *Kernel) Sphere(radius float64, segs int) kernel.Solid {
	n := segments(segs)
	return wrap(csg.Sphere(v3.Vec{}, radius, n, max(n/2, 2)))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(k.opts.Union(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(k.opts.Subtract(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(k.opts.Intersect(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(unwrap(s).Translate(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(unwrap(s).Rotate(x, y, z))
}

// Volume returns the enclosed volume of s.
func (k *Kernel) Volume(s kernel.Solid) float64 {
	return unwrap(s).Volume()
}

// Polygons returns copies of the boundary polygons of s.
func (k *Kernel) Polygons(s kernel.Solid) []*csg.Polygon {
	return unwrap(s).Polygons()
}

// ToMesh fan-triangulates each boundary polygon. Vertices are not shared
// between faces so each keeps its own normal; a zero vertex normal falls
// back to the face normal.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	polys := unwrap(s).Polygons()

	var numVerts, numTri int
	for _, p := range polys {
		numVerts += len(p.Vertices)
		numTri += len(p.Vertices) - 2
	}

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numTri*3)

	for _, p := range polys {
		base := uint32(len(vertices) / 3)
		for _, v := range p.Vertices {
			n := v.Normal
			if n.Length() == 0 {
				n = p.Plane.Normal
			}
			vertices = append(vertices, float32(v.Pos.X), float32(v.Pos.Y), float32(v.Pos.Z))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
		for i := 1; i+1 < len(p.Vertices); i++ {
			indices = append(indices, base, base+uint32(i), base+uint32(i+1))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// Triangles returns the fan triangulation of s in sdfx form.
func (k *Kernel) Triangles(s kernel.Solid) []*sdf.Triangle3 {
	var tris []*sdf.Triangle3
	for _, p := range unwrap(s).Polygons() {
		vs := p.Vertices
		for i := 1; i+1 < len(vs); i++ {
			tris = append(tris, &sdf.Triangle3{vs[0].Pos, vs[i].Pos, vs[i+1].Pos})
		}
	}
	return tris
}

// WriteSTL writes the solids to path as one binary STL file.
func (k *Kernel) WriteSTL(path string, solids ...kernel.Solid) error {
	var tris []*sdf.Triangle3
	for _, s := range solids {
		tris = append(tris, k.Triangles(s)...)
	}
	if len(tris) == 0 {
		return fmt.Errorf("bsp: write %s: no geometry", path)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("bsp: write %s: %w", path, err)
	}
	return nil
}
