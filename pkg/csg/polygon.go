package csg

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Polygon is a convex planar vertex loop with its plane cached. Meta is
// opaque per-face data owned by the caller, such as a brush face's texture
// projection; it is copied to every fragment the polygon is split into.
type Polygon struct {
	Vertices []Vertex
	Plane    Plane
	Meta     any
}

// NewPolygon copies vertices into a new polygon and computes its plane from
// the first three non-collinear vertices.
func NewPolygon(vertices []Vertex, meta any) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("csg: polygon with %d vertices: %w", len(vertices), ErrDegenerate)
	}
	pts := make([]v3.Vec, len(vertices))
	for i, v := range vertices {
		pts[i] = v.Pos
	}
	plane, err := PlaneFromPoints(pts)
	if err != nil {
		return nil, fmt.Errorf("csg: polygon plane: %w", err)
	}
	vs := make([]Vertex, len(vertices))
	copy(vs, vertices)
	return &Polygon{Vertices: vs, Plane: plane, Meta: meta}, nil
}

// Clone returns a deep copy of the vertex loop. Meta is shared.
func (p *Polygon) Clone() *Polygon {
	vs := make([]Vertex, len(p.Vertices))
	copy(vs, p.Vertices)
	return &Polygon{Vertices: vs, Plane: p.Plane, Meta: p.Meta}
}

// Flip reverses the winding, negates the vertex normals and flips the plane.
func (p *Polygon) Flip() {
	vs := p.Vertices
	for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
		vs[i], vs[j] = vs[j], vs[i]
	}
	for i := range vs {
		vs[i] = vs[i].Flip()
	}
	p.Plane = p.Plane.Flip()
}

// AreaVector returns the Newell vector of the loop: its direction is the
// loop normal and its length is twice the enclosed area.
func (p *Polygon) AreaVector() v3.Vec {
	return areaVector(p.Vertices)
}

// Area returns the enclosed area.
func (p *Polygon) Area() float64 {
	return areaVector(p.Vertices).Length() / 2
}

// Centroid returns the mean of the vertex positions.
func (p *Polygon) Centroid() v3.Vec {
	var c v3.Vec
	for _, v := range p.Vertices {
		c = c.Add(v.Pos)
	}
	return c.DivScalar(float64(len(p.Vertices)))
}

// fragment wraps a vertex loop cut from p. The fragment keeps p's plane and
// metadata; loops that are too short or enclose no area yield nil.
func (p *Polygon) fragment(vs []Vertex, eps float64) *Polygon {
	if len(vs) < 3 {
		return nil
	}
	if areaVector(vs).Length() <= eps*eps {
		return nil
	}
	return &Polygon{Vertices: vs, Plane: p.Plane, Meta: p.Meta}
}

func areaVector(vs []Vertex) v3.Vec {
	var sum v3.Vec
	for i := range vs {
		j := (i + 1) % len(vs)
		sum = sum.Add(vs[i].Pos.Cross(vs[j].Pos))
	}
	return sum
}

func clonePolygons(polygons []*Polygon) []*Polygon {
	out := make([]*Polygon, len(polygons))
	for i, p := range polygons {
		out[i] = p.Clone()
	}
	return out
}
