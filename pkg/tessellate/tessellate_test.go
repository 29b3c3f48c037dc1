package tessellate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/bsp"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/tessellate"
)

func makeBox(g *graph.DesignGraph, name string, x, y, z float64) *graph.Node {
	n := &graph.Node{
		ID:   graph.NewNodeID("box/" + name),
		Kind: graph.NodePrimitive,
		Name: name,
		Data: graph.PrimitiveData{Shape: graph.ShapeBox, Size: graph.Vec3{X: x, Y: y, Z: z}},
	}
	g.AddNode(n)
	return n
}

func makeTranslate(g *graph.DesignGraph, path string, child graph.NodeID, x, y, z float64) *graph.Node {
	n := &graph.Node{
		ID:       graph.NewNodeID("translate/" + path),
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child},
		Data:     graph.TransformData{Translation: &graph.Vec3{X: x, Y: y, Z: z}},
	}
	g.AddNode(n)
	return n
}

func makeBoolean(g *graph.DesignGraph, path string, op graph.BooleanOp, children ...graph.NodeID) *graph.Node {
	n := &graph.Node{
		ID:       graph.NewNodeID(op.String() + "/" + path),
		Kind:     graph.NodeBoolean,
		Children: children,
		Data:     graph.BooleanData{Op: op},
	}
	g.AddNode(n)
	return n
}

func makeGroup(g *graph.DesignGraph, name string, children ...graph.NodeID) *graph.Node {
	n := &graph.Node{
		ID:       graph.NewNodeID("assembly/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{},
	}
	g.AddNode(n)
	return n
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b))
}

func TestSingleBox(t *testing.T) {
	g := graph.New()
	b := makeBox(g, "side", 10, 20, 30)
	g.AddRoot(b.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, bsp.New(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(meshes))
	}
	m := meshes[0]
	if m.PartName != "side" {
		t.Errorf("part name = %q, want %q", m.PartName, "side")
	}
	if m.TriangleCount() != 12 {
		t.Errorf("triangles = %d, want 12", m.TriangleCount())
	}
	if v := m.Volume(); !closeTo(v, 6000) {
		t.Errorf("volume = %g, want 6000", v)
	}
}

func TestTwoParts(t *testing.T) {
	g := graph.New()
	a := makeBox(g, "a", 1, 1, 1)
	b := makeBox(g, "b", 2, 2, 2)
	g.AddRoot(a.ID)
	g.AddRoot(b.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, bsp.New(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(meshes))
	}
	if meshes[0].PartName != "a" || meshes[1].PartName != "b" {
		t.Errorf("part order = %q, %q", meshes[0].PartName, meshes[1].PartName)
	}
}

func TestPartWithTransform(t *testing.T) {
	g := graph.New()
	shelf := makeBox(g, "shelf", 10, 10, 10)
	placed := makeTranslate(g, "shelf", shelf.ID, 100, 0, -5)
	g.AddRoot(placed.ID)

	parts, err := tessellate.Evaluate(context.Background(), g, bsp.New(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Name != "shelf" {
		t.Errorf("name = %q, want the placed shape's name", parts[0].Name)
	}
	min, max := parts[0].Solid.BoundingBox()
	want := [2][3]float64{{100, 0, -5}, {110, 10, 5}}
	for i := range 3 {
		if !closeTo(min[i], want[0][i]) || !closeTo(max[i], want[1][i]) {
			t.Fatalf("bounds = %v..%v, want %v..%v", min, max, want[0], want[1])
		}
	}
}

func TestUnnamedPartUsesShortID(t *testing.T) {
	g := graph.New()
	a := makeBox(g, "", 1, 1, 1)
	b := makeBox(g, "other", 1, 1, 1)
	u := makeBoolean(g, "1", graph.OpUnion, a.ID, b.ID)
	g.AddRoot(u.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, bsp.New(0))
	if err != nil {
		t.Fatal(err)
	}
	if got := meshes[0].PartName; got != u.ID.Short() {
		t.Errorf("part name = %q, want %q", got, u.ID.Short())
	}
}

func TestAssembly(t *testing.T) {
	g := graph.New()
	a := makeBox(g, "left", 1, 1, 1)
	b := makeBox(g, "right", 1, 1, 1)
	c := makeBox(g, "top", 3, 1, 1)
	rb := makeTranslate(g, "right", b.ID, 2, 0, 0)
	tc := makeTranslate(g, "top", c.ID, 0, 0, 1)
	grp := makeGroup(g, "frame", a.ID, rb.ID, tc.ID)
	g.AddRoot(grp.ID)

	meshes, err := tessellate.Tessellate(context.Background(), g, bsp.New(0))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"left", "right", "top"}
	if len(meshes) != len(want) {
		t.Fatalf("got %d meshes, want %d", len(meshes), len(want))
	}
	for i, m := range meshes {
		if m.PartName != want[i] {
			t.Errorf("mesh %d name = %q, want %q", i, m.PartName, want[i])
		}
	}
	if v := meshes[2].Volume(); !closeTo(v, 3) {
		t.Errorf("top volume = %g, want 3", v)
	}
}

func TestBooleanVolumes(t *testing.T) {
	tests := []struct {
		name string
		op   graph.BooleanOp
		want float64
	}{
		{"union", graph.OpUnion, 1000},
		{"difference", graph.OpDifference, 992},
		{"intersection", graph.OpIntersection, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			outer := makeBox(g, "outer", 10, 10, 10)
			inner := makeBox(g, "inner", 2, 2, 2)
			moved := makeTranslate(g, "inner", inner.ID, 4, 4, 4)
			op := makeBoolean(g, tt.name, tt.op, outer.ID, moved.ID)
			g.AddRoot(op.ID)

			k := bsp.New(0)
			parts, err := tessellate.Evaluate(context.Background(), g, k)
			if err != nil {
				t.Fatal(err)
			}
			if v := k.Volume(parts[0].Solid); !closeTo(v, tt.want) {
				t.Errorf("volume = %g, want %g", v, tt.want)
			}
		})
	}
}

func TestGroupOperand(t *testing.T) {
	g := graph.New()
	a := makeBox(g, "a", 1, 1, 1)
	b := makeBox(g, "b", 1, 1, 1)
	mb := makeTranslate(g, "b", b.ID, 3, 0, 0)
	grp := makeGroup(g, "pair", a.ID, mb.ID)
	slab := makeBox(g, "slab", 10, 10, 10)
	ms := makeTranslate(g, "slab", slab.ID, -1, -1, -1)
	cut := makeBoolean(g, "cut", graph.OpIntersection, ms.ID, grp.ID)
	g.AddRoot(cut.ID)

	k := bsp.New(0)
	parts, err := tessellate.Evaluate(context.Background(), g, k)
	if err != nil {
		t.Fatal(err)
	}
	if v := k.Volume(parts[0].Solid); !closeTo(v, 2) {
		t.Errorf("volume = %g, want 2", v)
	}
}

type countingKernel struct {
	*bsp.Kernel
	boxes int
}

func (k *countingKernel) Box(x, y, z float64) kernel.Solid {
	k.boxes++
	return k.Kernel.Box(x, y, z)
}

func TestSharedSubgraphBuiltOnce(t *testing.T) {
	g := graph.New()
	leg := makeBox(g, "leg", 1, 1, 4)
	l1 := makeTranslate(g, "leg1", leg.ID, 0, 0, 0)
	l2 := makeTranslate(g, "leg2", leg.ID, 5, 0, 0)
	g.AddRoot(l1.ID)
	g.AddRoot(l2.ID)

	k := &countingKernel{Kernel: bsp.New(0)}
	meshes, err := tessellate.Tessellate(context.Background(), g, k)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(meshes))
	}
	if k.boxes != 1 {
		t.Errorf("Box called %d times, want 1", k.boxes)
	}
}

func TestCancelledContext(t *testing.T) {
	g := graph.New()
	b := makeBox(g, "b", 1, 1, 1)
	g.AddRoot(b.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tessellate.Tessellate(ctx, g, bsp.New(0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCycleIsReported(t *testing.T) {
	g := graph.New()
	a := &graph.Node{ID: graph.NewNodeID("a"), Kind: graph.NodeTransform, Data: graph.TransformData{}}
	b := &graph.Node{ID: graph.NewNodeID("b"), Kind: graph.NodeTransform, Data: graph.TransformData{}}
	a.Children = []graph.NodeID{b.ID}
	b.Children = []graph.NodeID{a.ID}
	g.AddNode(a)
	g.AddNode(b)
	g.AddRoot(a.ID)

	if _, err := tessellate.Evaluate(context.Background(), g, bsp.New(0)); err == nil {
		t.Fatal("expected an error for a cyclic graph")
	}
}

func TestNilAndEmptyGraph(t *testing.T) {
	meshes, err := tessellate.Tessellate(context.Background(), nil, bsp.New(0))
	if err != nil || len(meshes) != 0 {
		t.Errorf("nil graph: %d meshes, err %v", len(meshes), err)
	}
	meshes, err = tessellate.Tessellate(context.Background(), graph.New(), bsp.New(0))
	if err != nil || len(meshes) != 0 {
		t.Errorf("empty graph: %d meshes, err %v", len(meshes), err)
	}
}

// TestKernelsAgree meshes one graph with both backends.
func TestKernelsAgree(t *testing.T) {
	g := graph.New()
	outer := makeBox(g, "outer", 10, 10, 10)
	bar := makeBox(g, "bar", 20, 2, 2)
	moved := makeTranslate(g, "bar", bar.ID, -5, 4, 4)
	cut := makeBoolean(g, "cut", graph.OpDifference, outer.ID, moved.ID)
	g.AddRoot(cut.ID)

	want := 1000.0 - 10*2*2
	for _, k := range []kernel.Kernel{bsp.New(0), sdfx.New(64)} {
		meshes, err := tessellate.Tessellate(context.Background(), g, k)
		if err != nil {
			t.Fatalf("%T: %v", k, err)
		}
		if v := math.Abs(meshes[0].Volume()); math.Abs(v-want) > 0.03*want {
			t.Errorf("%T: volume = %g, want about %g", k, v, want)
		}
	}
}
