package csg

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Transform returns s mapped through the affine matrix m. Vertex normals are
// carried through the inverse transpose of the linear part. A mirroring
// matrix reverses every loop so the boundary keeps facing outward. Polygons
// collapsed by a singular matrix are dropped.
func (s *Solid) Transform(m sdf.M44) *Solid {
	if s.IsEmpty() {
		return &Solid{}
	}
	origin := m.MulPosition(v3.Vec{})
	ex := m.MulPosition(v3.Vec{X: 1}).Sub(origin)
	ey := m.MulPosition(v3.Vec{Y: 1}).Sub(origin)
	ez := m.MulPosition(v3.Vec{Z: 1}).Sub(origin)
	cx, cy, cz := ey.Cross(ez), ez.Cross(ex), ex.Cross(ey)
	det := ex.Dot(cx)
	if det == 0 {
		return &Solid{}
	}
	sign := math.Copysign(1, det)

	out := make([]*Polygon, 0, len(s.polygons))
	for _, p := range s.polygons {
		vs := make([]Vertex, len(p.Vertices))
		for i, v := range p.Vertices {
			v.Pos = m.MulPosition(v.Pos)
			n := cx.MulScalar(v.Normal.X).Add(cy.MulScalar(v.Normal.Y)).Add(cz.MulScalar(v.Normal.Z))
			if l := n.Length(); l > 0 {
				v.Normal = n.MulScalar(sign / l)
			}
			vs[i] = v
		}
		if det < 0 {
			for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
				vs[i], vs[j] = vs[j], vs[i]
			}
		}
		if q, err := NewPolygon(vs, p.Meta); err == nil {
			out = append(out, q)
		}
	}
	return &Solid{polygons: out}
}

// Translate returns s moved by d.
func (s *Solid) Translate(d v3.Vec) *Solid {
	return s.Transform(sdf.Translate3d(d))
}

// Rotate returns s rotated by Euler angles in degrees, applied about X,
// then Y, then Z.
func (s *Solid) Rotate(x, y, z float64) *Solid {
	return s.Transform(RotationMatrix(x, y, z))
}

// Scale returns s scaled per axis about the origin.
func (s *Solid) Scale(k v3.Vec) *Solid {
	return s.Transform(sdf.Scale3d(k))
}

// RotationMatrix returns the rotation for Euler angles in degrees applied
// about X, then Y, then Z.
func RotationMatrix(x, y, z float64) sdf.M44 {
	const rad = math.Pi / 180
	return sdf.RotateZ(z * rad).Mul(sdf.RotateY(y * rad)).Mul(sdf.RotateX(x * rad))
}
