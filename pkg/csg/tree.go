package csg

import v3 "github.com/deadsy/sdfx/vec/v3"

// noChild marks an absent front or back child.
const noChild int32 = -1

type bspNode struct {
	plane    Plane
	hasPlane bool
	polygons []*Polygon
	front    int32
	back     int32
}

// Tree is a BSP tree held as an arena of nodes. Children are referenced by
// arena index and the root is index 0. A root without a plane is an empty
// tree and passes every clip query through unchanged.
//
// Each node owns the polygons lying on its plane. The front child
// partitions the half-space the plane normal points into, the back child the
// other one. A missing back child stands for solid space and a missing front
// child for empty space.
type Tree struct {
	nodes []bspNode
	eps   float64
}

type task struct {
	node     int32
	polygons []*Polygon
}

// NewTree builds a tree over private copies of polygons. eps is the plane
// classification tolerance; a non-positive value selects DefaultEpsilon.
func NewTree(polygons []*Polygon, eps float64) *Tree {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	t := &Tree{eps: eps}
	t.newNode()
	t.Build(clonePolygons(polygons))
	return t
}

func (t *Tree) newNode() int32 {
	t.nodes = append(t.nodes, bspNode{front: noChild, back: noChild})
	return int32(len(t.nodes) - 1)
}

// Build inserts polygons into the tree and takes ownership of them. A node
// without a plane adopts the plane of the first polygon it receives;
// coplanar polygons stay on the node and the rest are pushed down to front
// and back children, created on demand.
func (t *Tree) Build(polygons []*Polygon) {
	if len(polygons) == 0 {
		return
	}
	stack := []task{{node: 0, polygons: polygons}}
	for len(stack) > 0 {
		tk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[tk.node]
		if !n.hasPlane {
			n.plane = tk.polygons[0].Plane
			n.hasPlane = true
		}
		var s Split
		for _, p := range tk.polygons {
			n.plane.SplitPolygon(p, t.eps, &s)
		}
		n.polygons = append(n.polygons, s.CoplanarFront...)
		n.polygons = append(n.polygons, s.CoplanarBack...)

		// newNode may move the arena, so n is not used past this point.
		if len(s.Front) > 0 {
			child := t.nodes[tk.node].front
			if child == noChild {
				child = t.newNode()
				t.nodes[tk.node].front = child
			}
			stack = append(stack, task{node: child, polygons: s.Front})
		}
		if len(s.Back) > 0 {
			child := t.nodes[tk.node].back
			if child == noChild {
				child = t.newNode()
				t.nodes[tk.node].back = child
			}
			stack = append(stack, task{node: child, polygons: s.Back})
		}
	}
}

// ClipPolygons removes the parts of polygons that lie in solid space of the
// tree. Polygons reaching a missing front child are kept; polygons reaching
// a missing back child are discarded. Coplanar fragments follow the side
// their normal faces.
func (t *Tree) ClipPolygons(polygons []*Polygon) []*Polygon {
	if !t.nodes[0].hasPlane {
		return polygons
	}
	var out []*Polygon
	stack := []task{{node: 0, polygons: polygons}}
	for len(stack) > 0 {
		tk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[tk.node]
		if !n.hasPlane {
			out = append(out, tk.polygons...)
			continue
		}
		var s Split
		for _, p := range tk.polygons {
			n.plane.SplitPolygon(p, t.eps, &s)
		}
		front := append(s.Front, s.CoplanarFront...)
		back := append(s.Back, s.CoplanarBack...)

		// Back is pushed first so the front subtree drains first and the
		// output keeps front-then-back order.
		if n.back != noChild && len(back) > 0 {
			stack = append(stack, task{node: n.back, polygons: back})
		}
		if len(front) > 0 {
			if n.front != noChild {
				stack = append(stack, task{node: n.front, polygons: front})
			} else {
				out = append(out, front...)
			}
		}
	}
	return out
}

// ClipTo replaces the polygons of every node with what survives clipping
// against other.
func (t *Tree) ClipTo(other *Tree) {
	for i := range t.nodes {
		t.nodes[i].polygons = other.ClipPolygons(t.nodes[i].polygons)
	}
}

// Invert swaps solid and empty space: every polygon and plane is flipped and
// the front and back children trade places.
func (t *Tree) Invert() {
	for i := range t.nodes {
		n := &t.nodes[i]
		for _, p := range n.polygons {
			p.Flip()
		}
		if n.hasPlane {
			n.plane = n.plane.Flip()
		}
		n.front, n.back = n.back, n.front
	}
}

// AllPolygons returns the polygons of the tree in pre-order: a node's own
// polygons, then its front subtree, then its back subtree. The returned
// polygons are still owned by the tree.
func (t *Tree) AllPolygons() []*Polygon {
	var out []*Polygon
	stack := []int32{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		out = append(out, n.polygons...)
		if n.back != noChild {
			stack = append(stack, n.back)
		}
		if n.front != noChild {
			stack = append(stack, n.front)
		}
	}
	return out
}

// Contains reports whether p lies in solid space. Points within eps of a
// plane are routed to its front side, so boundary points read as outside.
func (t *Tree) Contains(p v3.Vec) bool {
	if !t.nodes[0].hasPlane {
		return false
	}
	i := int32(0)
	for {
		n := &t.nodes[i]
		if n.plane.Distance(p) < -t.eps {
			if n.back == noChild {
				return true
			}
			i = n.back
		} else {
			if n.front == noChild {
				return false
			}
			i = n.front
		}
	}
}

// NodeCount returns the number of nodes in the arena.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// Depth returns the number of nodes on the longest root-to-leaf path. An
// empty tree has depth 0.
func (t *Tree) Depth() int {
	if !t.nodes[0].hasPlane {
		return 0
	}
	type frame struct {
		node  int32
		depth int
	}
	max := 0
	stack := []frame{{0, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > max {
			max = f.depth
		}
		n := &t.nodes[f.node]
		if n.front != noChild {
			stack = append(stack, frame{n.front, f.depth + 1})
		}
		if n.back != noChild {
			stack = append(stack, frame{n.back, f.depth + 1})
		}
	}
	return max
}
