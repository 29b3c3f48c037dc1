package csg

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// cubeFaces lists the corner indices of each face of a cube, wound
// counter-clockwise seen from outside, with the face normal. Bit 0, 1 and 2
// of a corner index select the +X, +Y and +Z side.
var cubeFaces = [6]struct {
	corners [4]int
	normal  v3.Vec
}{
	{[4]int{0, 4, 6, 2}, v3.Vec{X: -1}},
	{[4]int{1, 3, 7, 5}, v3.Vec{X: 1}},
	{[4]int{0, 1, 5, 4}, v3.Vec{Y: -1}},
	{[4]int{2, 6, 7, 3}, v3.Vec{Y: 1}},
	{[4]int{0, 2, 3, 1}, v3.Vec{Z: -1}},
	{[4]int{4, 5, 7, 6}, v3.Vec{Z: 1}},
}

// Cube returns an axis-aligned box centred on center extending half[i]
// along each axis.
func Cube(center, half v3.Vec) *Solid {
	polys := make([]*Polygon, 0, len(cubeFaces))
	for _, f := range cubeFaces {
		vs := make([]Vertex, 4)
		for i, c := range f.corners {
			pos := v3.Vec{
				X: center.X + half.X*cornerSign(c&1),
				Y: center.Y + half.Y*cornerSign(c&2),
				Z: center.Z + half.Z*cornerSign(c&4),
			}
			vs[i] = NewVertex(pos, f.normal)
		}
		if p, err := NewPolygon(vs, nil); err == nil {
			polys = append(polys, p)
		}
	}
	return &Solid{polygons: polys}
}

func cornerSign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}

// Box returns the axis-aligned box spanning min to max.
func Box(min, max v3.Vec) *Solid {
	return Cube(min.Add(max).MulScalar(0.5), max.Sub(min).MulScalar(0.5))
}

// Sphere returns a UV sphere approximation. slices divide the longitude and
// stacks the latitude; the poles are on the Y axis.
func Sphere(center v3.Vec, radius float64, slices, stacks int) *Solid {
	if slices < 3 {
		slices = 3
	}
	if stacks < 2 {
		stacks = 2
	}
	vertex := func(theta, phi float64) Vertex {
		theta *= 2 * math.Pi
		phi *= math.Pi
		dir := v3.Vec{
			X: math.Cos(theta) * math.Sin(phi),
			Y: math.Cos(phi),
			Z: math.Sin(theta) * math.Sin(phi),
		}
		return NewVertex(center.Add(dir.MulScalar(radius)), dir)
	}
	fs, ft := float64(slices), float64(stacks)
	polys := make([]*Polygon, 0, slices*stacks)
	for i := 0; i < slices; i++ {
		for j := 0; j < stacks; j++ {
			fi, fj := float64(i), float64(j)
			vs := []Vertex{vertex(fi/fs, fj/ft)}
			if j > 0 {
				vs = append(vs, vertex((fi+1)/fs, fj/ft))
			}
			if j < stacks-1 {
				vs = append(vs, vertex((fi+1)/fs, (fj+1)/ft))
			}
			vs = append(vs, vertex(fi/fs, (fj+1)/ft))
			if p, err := NewPolygon(vs, nil); err == nil {
				polys = append(polys, p)
			}
		}
	}
	return &Solid{polygons: polys}
}

// Cylinder returns a prism approximating a cylinder from start to end.
func Cylinder(start, end v3.Vec, radius float64, slices int) *Solid {
	if slices < 3 {
		slices = 3
	}
	ray := end.Sub(start)
	if ray.Length() == 0 {
		return &Solid{}
	}
	axisZ := ray.Normalize()
	seed := v3.Vec{Y: 1}
	if math.Abs(axisZ.Y) > 0.5 {
		seed = v3.Vec{X: 1}
	}
	axisX := seed.Cross(axisZ).Normalize()
	axisY := axisX.Cross(axisZ).Normalize()

	startV := NewVertex(start, axisZ.MulScalar(-1))
	endV := NewVertex(end, axisZ)
	point := func(stack, slice, blend float64) Vertex {
		angle := slice * 2 * math.Pi
		out := axisX.MulScalar(math.Cos(angle)).Add(axisY.MulScalar(math.Sin(angle)))
		pos := start.Add(ray.MulScalar(stack)).Add(out.MulScalar(radius))
		normal := out.MulScalar(1 - math.Abs(blend)).Add(axisZ.MulScalar(blend))
		return NewVertex(pos, normal)
	}

	polys := make([]*Polygon, 0, 3*slices)
	add := func(vs ...Vertex) {
		if p, err := NewPolygon(vs, nil); err == nil {
			polys = append(polys, p)
		}
	}
	for i := 0; i < slices; i++ {
		t0 := float64(i) / float64(slices)
		t1 := float64(i+1) / float64(slices)
		add(startV, point(0, t0, -1), point(0, t1, -1))
		add(point(0, t1, 0), point(0, t0, 0), point(1, t0, 0), point(1, t1, 0))
		add(endV, point(1, t1, 1), point(1, t0, 1))
	}
	return &Solid{polygons: polys}
}
