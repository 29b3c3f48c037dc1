package csg

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Volume returns the enclosed volume by summing signed tetrahedra between
// the origin and a fan over each polygon. The result is only meaningful for
// closed, outward-facing boundaries.
func (s *Solid) Volume() float64 {
	if s == nil {
		return 0
	}
	var sum float64
	for _, p := range s.polygons {
		vs := p.Vertices
		a := vs[0].Pos
		for i := 1; i+1 < len(vs); i++ {
			sum += a.Dot(vs[i].Pos.Cross(vs[i+1].Pos))
		}
	}
	return sum / 6
}

// SurfaceArea returns the total area of the boundary polygons.
func (s *Solid) SurfaceArea() float64 {
	if s == nil {
		return 0
	}
	var sum float64
	for _, p := range s.polygons {
		sum += p.Area()
	}
	return sum
}

// Bounds returns the axis-aligned bounding box of every vertex. An empty
// solid has a zero box.
func (s *Solid) Bounds() sdf.Box3 {
	if s.IsEmpty() {
		return sdf.Box3{}
	}
	lo := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range s.polygons {
		for _, v := range p.Vertices {
			lo.X = math.Min(lo.X, v.Pos.X)
			lo.Y = math.Min(lo.Y, v.Pos.Y)
			lo.Z = math.Min(lo.Z, v.Pos.Z)
			hi.X = math.Max(hi.X, v.Pos.X)
			hi.Y = math.Max(hi.Y, v.Pos.Y)
			hi.Z = math.Max(hi.Z, v.Pos.Z)
		}
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// Classifier builds a BSP tree over s using DefaultEpsilon.
func (s *Solid) Classifier() *Tree {
	return Options{}.Classifier(s)
}

// Contains reports whether p lies inside s. It builds a tree on every call;
// use Classifier for batches of points.
func (s *Solid) Contains(p v3.Vec) bool {
	return s.Classifier().Contains(p)
}
