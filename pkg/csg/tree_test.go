package csg

import "testing"

func unitCube() *Solid {
	return Box(vec(0, 0, 0), vec(1, 1, 1))
}

func TestEmptyTreePassesThrough(t *testing.T) {
	tree := NewTree(nil, 0)
	in := []*Polygon{square(t)}
	out := tree.ClipPolygons(in)
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("empty tree changed its input: %v", out)
	}
	if tree.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", tree.Depth())
	}
	if tree.Contains(vec(0, 0, 0)) {
		t.Error("empty tree should contain nothing")
	}
	if len(tree.AllPolygons()) != 0 {
		t.Error("empty tree should hold no polygons")
	}
}

func TestNewTreeDoesNotAliasInput(t *testing.T) {
	c := unitCube()
	tree := NewTree(c.polygons, DefaultEpsilon)
	tree.Invert()
	if c.polygons[0].Plane.Normal != vec(-1, 0, 0) {
		t.Errorf("caller polygon flipped through the tree: %v", c.polygons[0].Plane.Normal)
	}
}

func TestBuildConvexChain(t *testing.T) {
	// Every face of a convex solid lies behind every other face's plane, so
	// the tree is a chain of back children with one face per node.
	tree := NewTree(unitCube().polygons, DefaultEpsilon)
	if got := tree.NodeCount(); got != 6 {
		t.Errorf("NodeCount() = %d, want 6", got)
	}
	if got := tree.Depth(); got != 6 {
		t.Errorf("Depth() = %d, want 6", got)
	}
	if got := len(tree.AllPolygons()); got != 6 {
		t.Errorf("AllPolygons() = %d polygons, want 6", got)
	}
	for i, n := range tree.nodes {
		if n.front != noChild {
			t.Errorf("node %d has a front child", i)
		}
		if len(n.polygons) != 1 {
			t.Errorf("node %d holds %d polygons, want 1", i, len(n.polygons))
		}
	}
}

func TestBuildUsesFirstPolygonPlane(t *testing.T) {
	c := unitCube()
	tree := NewTree(c.polygons, DefaultEpsilon)
	if tree.nodes[0].plane != c.polygons[0].Plane {
		t.Errorf("root plane = %+v, want first polygon's plane %+v", tree.nodes[0].plane, c.polygons[0].Plane)
	}
}

func TestBuildSplitsStraddlingPolygons(t *testing.T) {
	// A horizontal square straddling the root plane x=0.5 is cut in two.
	n := vec(0, 0, 1)
	wall, err := NewPolygon([]Vertex{
		NewVertex(vec(0.5, 0, 0), vec(1, 0, 0)),
		NewVertex(vec(0.5, 1, 0), vec(1, 0, 0)),
		NewVertex(vec(0.5, 1, 1), vec(1, 0, 0)),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	floor, err := NewPolygon([]Vertex{
		NewVertex(vec(0, 0, 0), n), NewVertex(vec(1, 0, 0), n),
		NewVertex(vec(1, 1, 0), n), NewVertex(vec(0, 1, 0), n),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tree := NewTree([]*Polygon{wall, floor}, DefaultEpsilon)
	root := tree.nodes[0]
	if len(root.polygons) != 1 {
		t.Fatalf("root holds %d polygons, want 1", len(root.polygons))
	}
	if root.front == noChild || root.back == noChild {
		t.Fatal("expected both children after splitting the floor")
	}
	if got := len(tree.AllPolygons()); got != 3 {
		t.Errorf("AllPolygons() = %d, want 3", got)
	}
}

func TestClipPolygonsAsymmetry(t *testing.T) {
	tree := NewTree(unitCube().polygons, DefaultEpsilon)

	n := vec(0, 0, 1)
	inside, _ := NewPolygon([]Vertex{
		NewVertex(vec(0.2, 0.2, 0.5), n), NewVertex(vec(0.8, 0.2, 0.5), n), NewVertex(vec(0.5, 0.8, 0.5), n),
	}, nil)
	outside, _ := NewPolygon([]Vertex{
		NewVertex(vec(2, 2, 2), n), NewVertex(vec(3, 2, 2), n), NewVertex(vec(2.5, 3, 2), n),
	}, nil)

	out := tree.ClipPolygons([]*Polygon{inside, outside})
	if len(out) != 1 || out[0] != outside {
		t.Fatalf("ClipPolygons kept %d polygons, want only the outside one", len(out))
	}

	// A polygon crossing a face keeps only its outside part.
	crossing, _ := NewPolygon([]Vertex{
		NewVertex(vec(0.5, 0.5, 0.5), n), NewVertex(vec(1.5, 0.5, 0.5), n),
		NewVertex(vec(1.5, 0.7, 0.5), n), NewVertex(vec(0.5, 0.7, 0.5), n),
	}, nil)
	out = tree.ClipPolygons([]*Polygon{crossing})
	var area float64
	for _, p := range out {
		area += p.Area()
	}
	if !approx(area, 0.1, 1e-9) {
		t.Errorf("surviving area = %v, want 0.1", area)
	}
}

func TestInvertIsInvolutive(t *testing.T) {
	a := Box(vec(0, 0, 0), vec(2, 2, 2))
	b := Box(vec(1, 1, 1), vec(3, 3, 3))

	tree := NewTree(a.polygons, DefaultEpsilon)
	before := snapshot(tree)
	clipBefore := len(tree.ClipPolygons(clonePolygons(b.polygons)))

	tree.Invert()
	if tree.Contains(vec(1, 1, 1)) {
		t.Error("inverted tree should not contain an interior point")
	}
	if !tree.Contains(vec(5, 5, 5)) {
		t.Error("inverted tree should contain an exterior point")
	}
	tree.Invert()

	after := snapshot(tree)
	if len(before) != len(after) {
		t.Fatalf("polygon count %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Plane != after[i].Plane {
			t.Errorf("polygon %d plane %+v -> %+v", i, before[i].Plane, after[i].Plane)
		}
		for j := range before[i].Vertices {
			if before[i].Vertices[j] != after[i].Vertices[j] {
				t.Errorf("polygon %d vertex %d changed", i, j)
			}
		}
	}
	if got := len(tree.ClipPolygons(clonePolygons(b.polygons))); got != clipBefore {
		t.Errorf("ClipPolygons after double invert kept %d, want %d", got, clipBefore)
	}
}

func snapshot(tree *Tree) []*Polygon {
	return clonePolygons(tree.AllPolygons())
}

func TestTreeContains(t *testing.T) {
	tree := NewTree(unitCube().polygons, DefaultEpsilon)
	tests := []struct {
		name string
		p    [3]float64
		want bool
	}{
		{"center", [3]float64{0.5, 0.5, 0.5}, true},
		{"near corner", [3]float64{0.01, 0.01, 0.99}, true},
		{"outside +x", [3]float64{1.5, 0.5, 0.5}, false},
		{"outside -z", [3]float64{0.5, 0.5, -0.1}, false},
		{"on face", [3]float64{1, 0.5, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Contains(vec(tt.p[0], tt.p[1], tt.p[2])); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestDeepTreeDoesNotRecurse(t *testing.T) {
	// A fine sphere gives a long chain of nodes; every traversal must still
	// run without recursion.
	s := Sphere(vec(0, 0, 0), 1, 64, 32)
	tree := NewTree(s.polygons, DefaultEpsilon)
	if tree.Depth() < 100 {
		t.Errorf("Depth() = %d, expected a deep chain", tree.Depth())
	}
	tree.Invert()
	tree.Invert()
	if got := len(tree.AllPolygons()); got < s.Len() {
		t.Errorf("AllPolygons() = %d, want at least %d", got, s.Len())
	}
	if !tree.Contains(vec(0.1, 0.2, 0.1)) {
		t.Error("sphere should contain a point near its centre")
	}
}
