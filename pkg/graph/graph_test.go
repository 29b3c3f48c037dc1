package graph

import "testing"

func box(name string, x, y, z float64) *Node {
	return &Node{
		ID: NewNodeID("defpart/" + name), Kind: NodePrimitive, Name: name,
		Data: PrimitiveData{Shape: ShapeBox, Size: Vec3{x, y, z}},
	}
}

func TestNewDesignGraph(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.Defaults.Segments != DefaultSegments {
		t.Errorf("default segments = %d, want %d", g.Defaults.Segments, DefaultSegments)
	}
	if g.Defaults.Units != "mm" {
		t.Errorf("default units = %q, want %q", g.Defaults.Units, "mm")
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("defpart/bracket")
	b := NewNodeID("defpart/bracket")
	c := NewNodeID("defpart/plate")
	if a != b {
		t.Errorf("same path gave %s and %s", a, b)
	}
	if a == c {
		t.Error("different paths gave the same ID")
	}
	if len(a) != 36 {
		t.Errorf("ID %q is not a UUID", a)
	}
	if a.Short() != string(a[:8]) {
		t.Errorf("Short() = %q, want %q", a.Short(), a[:8])
	}
	if a.IsZero() || !ZeroID.IsZero() {
		t.Error("IsZero mismatch")
	}
	if NodeID("abc").Short() != "abc" {
		t.Error("Short() should not truncate short IDs")
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()
	n := box("plate", 100, 50, 5)
	g.AddNode(n)
	g.AddRoot(n.ID)
	g.AddRoot(n.ID)

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}
	if found := g.Lookup("plate"); found == nil || found.ID != n.ID {
		t.Fatal("Lookup('plate') failed")
	}
	if g.MustLookup("plate").ID != n.ID {
		t.Error("MustLookup returned wrong node")
	}
	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}
	if got := g.Get(n.ID); got == nil || got.Name != "plate" {
		t.Error("Get by ID failed")
	}
	if len(g.Roots) != 1 || g.Roots[0] != n.ID {
		t.Errorf("roots = %v, want [%s]", g.Roots, n.ID.Short())
	}
	g.RemoveRoot(n.ID)
	if len(g.Roots) != 0 {
		t.Errorf("roots after RemoveRoot = %v", g.Roots)
	}
}

func TestMustLookupPanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic on missing name")
		}
	}()
	g.MustLookup("missing")
}

func TestPrimitivesAndChildren(t *testing.T) {
	g := New()
	a := box("a", 1, 1, 1)
	b := box("b", 2, 2, 2)
	u := &Node{
		ID: NewNodeID("union/0"), Kind: NodeBoolean,
		Children: []NodeID{a.ID, b.ID, NewNodeID("missing")},
		Data:     BooleanData{Op: OpUnion},
	}
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(u)

	if got := len(g.Primitives()); got != 2 {
		t.Errorf("Primitives() count = %d, want 2", got)
	}
	children := g.Children(u)
	if len(children) != 2 || children[0] != a || children[1] != b {
		t.Errorf("Children() = %v, want [a b]", children)
	}
}

func TestParts(t *testing.T) {
	g := New()
	a := box("a", 1, 1, 1)
	b := box("b", 1, 1, 1)
	c := box("c", 1, 1, 1)
	inner := &Node{
		ID: NewNodeID("inner"), Kind: NodeGroup, Name: "inner",
		Children: []NodeID{b.ID, c.ID}, Data: GroupData{},
	}
	outer := &Node{
		ID: NewNodeID("outer"), Kind: NodeGroup, Name: "outer",
		Children: []NodeID{a.ID, inner.ID}, Data: GroupData{},
	}
	loose := box("loose", 1, 1, 1)
	for _, n := range []*Node{a, b, c, inner, outer, loose} {
		g.AddNode(n)
	}
	g.AddRoot(outer.ID)
	g.AddRoot(loose.ID)

	parts := g.Parts()
	var names []string
	for _, p := range parts {
		names = append(names, p.Name)
	}
	want := []string{"a", "b", "c", "loose"}
	if len(names) != len(want) {
		t.Fatalf("Parts() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Parts()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestKindAndOpStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{NodePrimitive.String(), "primitive"},
		{NodeBoolean.String(), "boolean"},
		{NodeTransform.String(), "transform"},
		{NodeGroup.String(), "group"},
		{NodeKind(99).String(), "unknown"},
		{OpUnion.String(), "union"},
		{OpDifference.String(), "difference"},
		{OpIntersection.String(), "intersection"},
		{ShapeBox.String(), "box"},
		{ShapeCylinder.String(), "cylinder"},
		{ShapeSphere.String(), "sphere"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	n := box("plate", 1, 1, 1)
	if n.Label() != "plate" {
		t.Errorf("Label() = %q, want plate", n.Label())
	}
	n.Name = ""
	if n.Label() != n.ID.Short() {
		t.Errorf("Label() = %q, want short ID", n.Label())
	}
}
