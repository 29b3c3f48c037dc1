package kernel

// Mesh is a triangle mesh suitable for rendering and export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which design graph part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) [3][3]float64 {
	var tri [3][3]float64
	for c := 0; c < 3; c++ {
		v := int(m.Indices[3*i+c]) * 3
		tri[c] = [3]float64{float64(m.Vertices[v]), float64(m.Vertices[v+1]), float64(m.Vertices[v+2])}
	}
	return tri
}

// Volume returns the signed volume enclosed by the triangles. It is only
// meaningful for closed meshes wound counter-clockwise from outside.
func (m *Mesh) Volume() float64 {
	var sum float64
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		a, b, c := t[0], t[1], t[2]
		sum += a[0]*(b[1]*c[2]-b[2]*c[1]) -
			a[1]*(b[0]*c[2]-b[2]*c[0]) +
			a[2]*(b[0]*c[1]-b[1]*c[0])
	}
	return sum / 6
}
