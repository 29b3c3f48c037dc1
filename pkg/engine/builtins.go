package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		if name, ok := isKW(args[i]); ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
			continue
		}
		result.positional = append(result.positional, args[i])
		i++
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toNodeRefs collects shape references from args, flattening lists and
// arrays one level deep so (union (list a b c)) works.
func toNodeRefs(args []zygo.Sexp) ([]graph.NodeID, error) {
	var ids []graph.NodeID
	for i, a := range args {
		if _, ok := a.(*sexpNodeRef); !ok {
			if items, err := sexpListToSlice(a); err == nil {
				nested, err := toNodeRefs(items)
				if err != nil {
					return nil, err
				}
				ids = append(ids, nested...)
				continue
			}
		}
		id, err := toNodeRef(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Graph construction
// ---------------------------------------------------------------------------

// builder adds nodes to the graph under construction. Anonymous nodes are
// numbered per operator in evaluation order, so the same script always
// yields the same node IDs.
type builder struct {
	g   *graph.DesignGraph
	seq map[string]int
}

func newBuilder(g *graph.DesignGraph) *builder {
	return &builder{g: g, seq: make(map[string]int)}
}

// add creates an anonymous node and returns a reference to it. A part
// consumed as a child stops rendering on its own.
func (b *builder) add(op string, kind graph.NodeKind, data graph.NodeData, children []graph.NodeID) *sexpNodeRef {
	for _, c := range children {
		b.g.RemoveRoot(c)
	}
	b.seq[op]++
	id := graph.NewNodeID(fmt.Sprintf("%s/%d", op, b.seq[op]))
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     kind,
		Children: children,
		Data:     data,
	})
	return &sexpNodeRef{id: id}
}

// primitiveKW reads the optional numeric keywords a primitive accepts.
func primitiveKW(op string, pa kwArgs, pd *graph.PrimitiveData, keys ...string) error {
	for _, k := range keys {
		v, ok := pa.kw[k]
		if !ok {
			continue
		}
		if k == "segments" {
			n, err := toInt(v)
			if err != nil {
				return fmt.Errorf("%s: segments: %w", op, err)
			}
			pd.Segments = n
			continue
		}
		f, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", op, k, err)
		}
		switch k {
		case "radius":
			pd.Radius = f
		case "diameter":
			pd.Radius = f / 2
		case "height":
			pd.Height = f
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all kerf DSL builtins into a zygomys environment.
// The builtins populate the builder's graph during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	g := b.g

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: graph.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box :size (vec3 40 20 5)) or (box (vec3 40 20 5))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size, ok := pa.kw["size"]
		if !ok {
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("box requires :size (vec3 x y z)")
			}
			size = pa.positional[0]
		}
		v, err := toVec3(size)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		pd := graph.PrimitiveData{Shape: graph.ShapeBox, Size: v}
		return b.add("box", graph.NodePrimitive, pd, nil), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 4 :height 20 :segments 24)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pd := graph.PrimitiveData{Shape: graph.ShapeCylinder}
		if err := primitiveKW("cylinder", pa, &pd, "radius", "diameter", "height", "segments"); err != nil {
			return zygo.SexpNull, err
		}
		return b.add("cylinder", graph.NodePrimitive, pd, nil), nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 10 :segments 32)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pd := graph.PrimitiveData{Shape: graph.ShapeSphere}
		if err := primitiveKW("sphere", pa, &pd, "radius", "diameter", "segments"); err != nil {
			return zygo.SexpNull, err
		}
		return b.add("sphere", graph.NodePrimitive, pd, nil), nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	// -----------------------------------------------------------------------
	for _, op := range []graph.BooleanOp{graph.OpUnion, graph.OpDifference, graph.OpIntersection} {
		opName := op.String()
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			children, err := toNodeRefs(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			if len(children) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 shapes, got %d", opName, len(children))
			}
			return b.add(opName, graph.NodeBoolean, graph.BooleanData{Op: op}, children), nil
		})
	}

	// -----------------------------------------------------------------------
	// (translate shape (vec3 10 0 0)), (rotate shape :by (vec3 0 0 45))
	// -----------------------------------------------------------------------
	transform := func(opName string, set func(td *graph.TransformData, v graph.Vec3)) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			var vecArg zygo.Sexp
			var shapes []zygo.Sexp
			for _, a := range pa.positional {
				if _, ok := a.(*sexpVec3); ok && vecArg == nil {
					vecArg = a
					continue
				}
				shapes = append(shapes, a)
			}
			if v, ok := pa.kw["by"]; ok {
				vecArg = v
			}
			if vecArg == nil {
				return zygo.SexpNull, fmt.Errorf("%s requires a vec3", opName)
			}
			v, err := toVec3(vecArg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: by: %w", opName, err)
			}
			children, err := toNodeRefs(shapes)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			if len(children) == 0 {
				return zygo.SexpNull, fmt.Errorf("%s requires a shape", opName)
			}
			var td graph.TransformData
			set(&td, v)
			return b.add(opName, graph.NodeTransform, td, children), nil
		}
	}
	env.AddFunction("translate", transform("translate", func(td *graph.TransformData, v graph.Vec3) {
		td.Translation = &v
	}))
	env.AddFunction("rotate", transform("rotate", func(td *graph.TransformData, v graph.Vec3) {
		td.Rotation = &v
	}))

	// -----------------------------------------------------------------------
	// (defpart "name" shape)
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		if g.Lookup(partName) != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %q already defined", partName)
		}

		id, err := toNodeRef(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: body: %w", err)
		}
		n := g.Get(id)
		if n.Name != "" {
			return zygo.SexpNull, fmt.Errorf("defpart: body is already the part %q", n.Name)
		}
		n.Name = partName
		g.AddNode(n)
		g.AddRoot(id)

		return &sexpNodeRef{id: id, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		n := g.Lookup(partName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}

		return &sexpNodeRef{id: n.ID, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "name" shape ...)
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		if g.Lookup(asmName) != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: %q already defined", asmName)
		}

		children, err := toNodeRefs(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: %w", err)
		}
		if len(children) == 0 {
			return zygo.SexpNull, fmt.Errorf("assembly %q has no parts", asmName)
		}

		for _, c := range children {
			g.RemoveRoot(c)
		}

		id := graph.NewNodeID("assembly/" + asmName)
		g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     asmName,
			Children: children,
			Data:     graph.GroupData{},
		})
		g.AddRoot(id)

		return &sexpNodeRef{id: id, name: asmName}, nil
	})
}
