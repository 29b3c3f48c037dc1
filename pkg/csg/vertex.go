package csg

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex is a polygon corner. Pos is the position; the remaining fields are
// shading attributes that are interpolated alongside the position whenever
// an edge is split.
type Vertex struct {
	Pos    v3.Vec
	Normal v3.Vec
	UV     v2.Vec
	Color  [4]float64
}

// NewVertex returns a vertex with a position and normal and zero-valued
// texture coordinates and color.
func NewVertex(pos, normal v3.Vec) Vertex {
	return Vertex{Pos: pos, Normal: normal}
}

// Flip negates the vertex normal.
func (v Vertex) Flip() Vertex {
	v.Normal = v.Normal.MulScalar(-1)
	return v
}

// Interpolate returns the vertex a fraction t of the way from v to u. Every
// attribute uses the same t.
func (v Vertex) Interpolate(u Vertex, t float64) Vertex {
	out := Vertex{
		Pos:    lerp3(v.Pos, u.Pos, t),
		Normal: lerp3(v.Normal, u.Normal, t),
		UV: v2.Vec{
			X: v.UV.X + (u.UV.X-v.UV.X)*t,
			Y: v.UV.Y + (u.UV.Y-v.UV.Y)*t,
		},
	}
	for i := range out.Color {
		out.Color[i] = v.Color[i] + (u.Color[i]-v.Color[i])*t
	}
	return out
}

func lerp3(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}
