package csg

// DefaultEpsilon is the plane classification tolerance, in model units,
// used when no other value is configured. It is absolute: geometry far
// smaller than a millimetre-scale model should be scaled up before use.
const DefaultEpsilon = 1e-5

// Options configures Boolean operations.
type Options struct {
	// Epsilon is the plane classification tolerance. Non-positive values
	// select DefaultEpsilon.
	Epsilon float64
}

func (o Options) epsilon() float64 {
	if o.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return o.Epsilon
}

// Solid is the closed boundary of a polyhedron given as convex polygons.
// Solids are values: operations return new solids and leave their operands
// untouched. The zero value and nil are both the empty solid.
type Solid struct {
	polygons []*Polygon
}

// NewSolid returns a solid bounded by copies of polygons.
func NewSolid(polygons []*Polygon) *Solid {
	return &Solid{polygons: clonePolygons(polygons)}
}

// Polygons returns copies of the boundary polygons.
func (s *Solid) Polygons() []*Polygon {
	if s == nil {
		return nil
	}
	return clonePolygons(s.polygons)
}

// Len returns the number of boundary polygons.
func (s *Solid) Len() int {
	if s == nil {
		return 0
	}
	return len(s.polygons)
}

// IsEmpty reports whether the solid has no polygons.
func (s *Solid) IsEmpty() bool {
	return s.Len() == 0
}

// Clone returns a deep copy of s.
func (s *Solid) Clone() *Solid {
	if s == nil {
		return &Solid{}
	}
	return &Solid{polygons: clonePolygons(s.polygons)}
}

// Inverse returns the complement of s: every polygon flipped.
func (s *Solid) Inverse() *Solid {
	out := s.Clone()
	for _, p := range out.polygons {
		p.Flip()
	}
	return out
}

// Union returns the space inside s or other, using DefaultEpsilon.
func (s *Solid) Union(other *Solid) *Solid {
	return Options{}.Union(s, other)
}

// Subtract returns the space inside s and outside other, using
// DefaultEpsilon.
func (s *Solid) Subtract(other *Solid) *Solid {
	return Options{}.Subtract(s, other)
}

// Intersect returns the space inside both s and other, using
// DefaultEpsilon.
func (s *Solid) Intersect(other *Solid) *Solid {
	return Options{}.Intersect(s, other)
}

// Union returns the space inside a or b.
func (o Options) Union(a, b *Solid) *Solid {
	if a.IsEmpty() {
		return b.Clone()
	}
	if b.IsEmpty() {
		return a.Clone()
	}
	eps := o.epsilon()
	ta := NewTree(a.polygons, eps)
	tb := NewTree(b.polygons, eps)
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	tb.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.Build(tb.AllPolygons())
	return &Solid{polygons: ta.AllPolygons()}
}

// Subtract returns the space inside a and outside b.
func (o Options) Subtract(a, b *Solid) *Solid {
	if a.IsEmpty() {
		return &Solid{}
	}
	if b.IsEmpty() {
		return a.Clone()
	}
	eps := o.epsilon()
	ta := NewTree(a.polygons, eps)
	tb := NewTree(b.polygons, eps)
	ta.Invert()
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	tb.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.Build(tb.AllPolygons())
	ta.Invert()
	return &Solid{polygons: ta.AllPolygons()}
}

// Intersect returns the space inside both a and b.
func (o Options) Intersect(a, b *Solid) *Solid {
	if a.IsEmpty() || b.IsEmpty() {
		return &Solid{}
	}
	eps := o.epsilon()
	ta := NewTree(a.polygons, eps)
	tb := NewTree(b.polygons, eps)
	ta.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	ta.Build(tb.AllPolygons())
	ta.Invert()
	return &Solid{polygons: ta.AllPolygons()}
}

// Classifier builds a BSP tree over s for repeated point queries.
func (o Options) Classifier(s *Solid) *Tree {
	if s == nil {
		return NewTree(nil, o.epsilon())
	}
	return NewTree(s.polygons, o.epsilon())
}
