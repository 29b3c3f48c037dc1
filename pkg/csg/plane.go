package csg

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDegenerate reports geometry with no well-defined plane: fewer than
// three vertices, coincident points, or collinear points.
var ErrDegenerate = errors.New("csg: degenerate geometry")

// collinearTolerance bounds |ab x ac| / (|ab||ac|), the sine of the angle at
// a, below which three points are treated as collinear.
const collinearTolerance = 1e-10

// Side classifies a point or polygon against a plane. Values combine with |
// so that a polygon with vertices on both sides is Spanning.
type Side int

const (
	Coplanar Side = 0
	Front    Side = 1
	Back     Side = 2
	Spanning Side = Front | Back
)

func (s Side) String() string {
	switch s {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Plane is the set of points p with Normal·p == W. Normal has unit length.
type Plane struct {
	Normal v3.Vec
	W      float64
}

// NewPlane returns the plane through a, b and c. The normal follows the
// right-hand rule for the winding a, b, c.
func NewPlane(a, b, c v3.Vec) (Plane, error) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	n := ab.Cross(ac)
	l := n.Length()
	if l == 0 || l <= collinearTolerance*ab.Length()*ac.Length() {
		return Plane{}, ErrDegenerate
	}
	n = n.DivScalar(l)
	return Plane{Normal: n, W: n.Dot(a)}, nil
}

// PlaneFromPoints returns the plane of a convex vertex loop, computed from
// the first three non-collinear points.
func PlaneFromPoints(points []v3.Vec) (Plane, error) {
	if len(points) < 3 {
		return Plane{}, ErrDegenerate
	}
	a := points[0]
	for j := 1; j < len(points)-1; j++ {
		if points[j].Sub(a).Length() == 0 {
			continue
		}
		for k := j + 1; k < len(points); k++ {
			if p, err := NewPlane(a, points[j], points[k]); err == nil {
				return p, nil
			}
		}
		break
	}
	return Plane{}, ErrDegenerate
}

// Flip returns the plane facing the other way. The point set is unchanged.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.MulScalar(-1), W: -p.W}
}

// Distance returns the signed distance from the plane to pt, positive on the
// side the normal points to.
func (p Plane) Distance(pt v3.Vec) float64 {
	return p.Normal.Dot(pt) - p.W
}

// Classify places pt in front of, behind, or on the plane within eps.
func (p Plane) Classify(pt v3.Vec, eps float64) Side {
	return classify(p.Distance(pt), eps)
}

func classify(d, eps float64) Side {
	switch {
	case d < -eps:
		return Back
	case d > eps:
		return Front
	default:
		return Coplanar
	}
}

// ApproxEqual reports whether two planes match within eps, comparing both
// the normal components and the offset.
func (p Plane) ApproxEqual(q Plane, eps float64) bool {
	return math.Abs(p.Normal.X-q.Normal.X) <= eps &&
		math.Abs(p.Normal.Y-q.Normal.Y) <= eps &&
		math.Abs(p.Normal.Z-q.Normal.Z) <= eps &&
		math.Abs(p.W-q.W) <= eps
}

// Split collects the outcome of splitting polygons against a plane.
type Split struct {
	CoplanarFront []*Polygon
	CoplanarBack  []*Polygon
	Front         []*Polygon
	Back          []*Polygon
}

// SplitPolygon classifies poly against the plane and appends it, or its
// fragments, to out.
//
// A polygon lying on the plane goes to CoplanarFront when its own normal
// agrees with the plane normal and to CoplanarBack otherwise. A polygon
// entirely on one side is appended unmodified. A spanning polygon is cut
// into a front and a back fragment; new vertices are interpolated at the
// crossing and fragments with no area are dropped. Ownership of poly passes
// to out.
func (p Plane) SplitPolygon(poly *Polygon, eps float64, out *Split) {
	n := len(poly.Vertices)
	sides := make([]Side, n)
	dists := make([]float64, n)
	kind := Coplanar
	for i, v := range poly.Vertices {
		d := p.Distance(v.Pos)
		dists[i] = d
		sides[i] = classify(d, eps)
		kind |= sides[i]
	}

	switch kind {
	case Coplanar:
		if p.Normal.Dot(poly.Plane.Normal) > 0 {
			out.CoplanarFront = append(out.CoplanarFront, poly)
		} else {
			out.CoplanarBack = append(out.CoplanarBack, poly)
		}
	case Front:
		out.Front = append(out.Front, poly)
	case Back:
		out.Back = append(out.Back, poly)
	case Spanning:
		f := make([]Vertex, 0, n+1)
		b := make([]Vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			si, sj := sides[i], sides[j]
			vi, vj := poly.Vertices[i], poly.Vertices[j]
			if si != Back {
				f = append(f, vi)
			}
			if si != Front {
				b = append(b, vi)
			}
			if si|sj == Spanning {
				t := dists[i] / (dists[i] - dists[j])
				v := vi.Interpolate(vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if frag := poly.fragment(f, eps); frag != nil {
			out.Front = append(out.Front, frag)
		}
		if frag := poly.fragment(b, eps); frag != nil {
			out.Back = append(out.Back, frag)
		}
	}
}
