// Package kernel defines the geometry kernel interface the design graph is
// evaluated against. The bsp backend implements it over pkg/csg and the
// sdfx backend over signed distance fields; either can be swapped in without
// touching the graph or the engine.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds, combines and meshes solids.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Exporter is implemented by kernels that write solids to STL files.
type Exporter interface {
	WriteSTL(path string, solids ...Solid) error
}

// Measurer is implemented by kernels that compute volumes from the solid
// itself rather than from its mesh.
type Measurer interface {
	Volume(s Solid) float64
}
