// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per part.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
)

// Part is an evaluated part: the kernel solid for one design graph part.
type Part struct {
	Name   string
	NodeID graph.NodeID
	Solid  kernel.Solid
}

// Tessellate evaluates the design graph and produces one triangle mesh per
// part using the provided geometry kernel. The tessellator is read-only and
// never mutates the graph. ctx is checked before every kernel operation so
// a slow Boolean chain can be abandoned between steps.
func Tessellate(ctx context.Context, g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	parts, err := Evaluate(ctx, g, k)
	if err != nil {
		return nil, err
	}

	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		mesh, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", p.Name, err)
		}
		mesh.PartName = p.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Evaluate builds the kernel solid of every part in g.Parts() order.
// Subgraphs shared between parts are built once.
func Evaluate(ctx context.Context, g *graph.DesignGraph, k kernel.Kernel) ([]Part, error) {
	if g == nil {
		return nil, nil
	}

	ev := &evaluator{
		g:        g,
		k:        k,
		segments: g.Defaults.Segments,
		memo:     make(map[graph.NodeID]kernel.Solid),
	}
	if ev.segments <= 0 {
		ev.segments = graph.DefaultSegments
	}

	var parts []Part
	for _, n := range g.Parts() {
		s, err := ev.solid(ctx, n.ID)
		if err != nil {
			return nil, fmt.Errorf("tessellate: part %s: %w", n.Label(), err)
		}
		parts = append(parts, Part{Name: partName(g, n), NodeID: n.ID, Solid: s})
	}
	return parts, nil
}

// partName prefers the node's own name, then the name of the shape a chain
// of transforms places, then the short ID.
func partName(g *graph.DesignGraph, n *graph.Node) string {
	for cur := n; cur != nil; {
		if cur.Name != "" {
			return cur.Name
		}
		if cur.Kind != graph.NodeTransform || len(cur.Children) != 1 {
			break
		}
		cur = g.Get(cur.Children[0])
	}
	return n.ID.Short()
}

type evaluator struct {
	g        *graph.DesignGraph
	k        kernel.Kernel
	segments int
	memo     map[graph.NodeID]kernel.Solid
}

// frame is one pending node in the post-order walk.
type frame struct {
	id       graph.NodeID
	expanded bool
}

// solid builds the solid for id bottom-up with an explicit stack, so deep
// Boolean chains do not grow the goroutine stack.
func (ev *evaluator) solid(ctx context.Context, id graph.NodeID) (kernel.Solid, error) {
	visiting := make(map[graph.NodeID]bool)
	stack := []frame{{id: id}}

	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		if _, done := ev.memo[f.id]; done {
			stack = stack[:top]
			continue
		}
		n := ev.g.Get(f.id)
		if n == nil {
			return nil, fmt.Errorf("node %s does not exist", f.id.Short())
		}

		if !f.expanded {
			stack[top].expanded = true
			visiting[f.id] = true
			for i := len(n.Children) - 1; i >= 0; i-- {
				c := n.Children[i]
				if visiting[c] {
					return nil, fmt.Errorf("cycle through node %s", c.Short())
				}
				if _, done := ev.memo[c]; !done {
					stack = append(stack, frame{id: c})
				}
			}
			continue
		}

		stack = stack[:top]
		delete(visiting, f.id)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := ev.build(n)
		if err != nil {
			return nil, err
		}
		ev.memo[f.id] = s
	}
	return ev.memo[id], nil
}

// build creates the solid for n from its already-built children.
func (ev *evaluator) build(n *graph.Node) (kernel.Solid, error) {
	k := ev.k
	children := make([]kernel.Solid, len(n.Children))
	for i, c := range n.Children {
		children[i] = ev.memo[c]
	}

	switch data := n.Data.(type) {
	case graph.PrimitiveData:
		return ev.primitive(n, data)

	case graph.BooleanData:
		if len(children) == 0 {
			return nil, fmt.Errorf("boolean node %s has no children", n.ID.Short())
		}
		acc := children[0]
		for _, c := range children[1:] {
			switch data.Op {
			case graph.OpUnion:
				acc = k.Union(acc, c)
			case graph.OpDifference:
				acc = k.Difference(acc, c)
			case graph.OpIntersection:
				acc = k.Intersection(acc, c)
			default:
				return nil, fmt.Errorf("boolean node %s has unknown op %d", n.ID.Short(), int(data.Op))
			}
		}
		return acc, nil

	case graph.TransformData:
		s := unionAll(k, children)
		if s == nil {
			return nil, fmt.Errorf("transform node %s has no children", n.ID.Short())
		}
		// Rotation first, then translation.
		if r := data.Rotation; r != nil && *r != (graph.Vec3{}) {
			s = k.Rotate(s, r.X, r.Y, r.Z)
		}
		if t := data.Translation; t != nil && *t != (graph.Vec3{}) {
			s = k.Translate(s, t.X, t.Y, t.Z)
		}
		return s, nil

	case graph.GroupData:
		// A group used as an operand acts as the union of its members.
		s := unionAll(k, children)
		if s == nil {
			return nil, fmt.Errorf("group node %s has no children", n.ID.Short())
		}
		return s, nil

	default:
		return nil, fmt.Errorf("node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
}

func (ev *evaluator) primitive(n *graph.Node, pd graph.PrimitiveData) (kernel.Solid, error) {
	segs := pd.Segments
	if segs < 3 {
		segs = ev.segments
	}
	switch pd.Shape {
	case graph.ShapeBox:
		return ev.k.Box(pd.Size.X, pd.Size.Y, pd.Size.Z), nil
	case graph.ShapeCylinder:
		return ev.k.Cylinder(pd.Height, pd.Radius, segs), nil
	case graph.ShapeSphere:
		return ev.k.Sphere(pd.Radius, segs), nil
	default:
		return nil, fmt.Errorf("primitive node %s has unknown shape %d", n.ID.Short(), int(pd.Shape))
	}
}

func unionAll(k kernel.Kernel, solids []kernel.Solid) kernel.Solid {
	if len(solids) == 0 {
		return nil
	}
	acc := solids[0]
	for _, s := range solids[1:] {
		acc = k.Union(acc, s)
	}
	return acc
}
