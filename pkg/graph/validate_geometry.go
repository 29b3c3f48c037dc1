package graph

import "fmt"

// ---------------------------------------------------------------------------
// Tier 2 — Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// minSegments is the smallest facet count the kernel builds; lower requests
// are replaced by the default.
const minSegments = 3

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateDimensions(g)...)
	warnings = append(warnings, validateSegments(g)...)
	warnings = append(warnings, validateRepeatedOperands(g)...)
	warnings = append(warnings, validateIdentityTransforms(g)...)

	return errs, warnings
}

// validateDimensions checks that every primitive has positive extents for
// its shape.
func validateDimensions(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	check := func(n *Node, what string, v float64) {
		if v <= 0 {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%s is %.4f, must be positive", what, v),
				Severity: SeverityError,
			})
		}
	}

	for _, node := range g.Nodes {
		pd, ok := node.Data.(PrimitiveData)
		if !ok {
			continue
		}
		switch pd.Shape {
		case ShapeBox:
			check(node, "box size X", pd.Size.X)
			check(node, "box size Y", pd.Size.Y)
			check(node, "box size Z", pd.Size.Z)
		case ShapeCylinder:
			check(node, "cylinder radius", pd.Radius)
			check(node, "cylinder height", pd.Height)
		case ShapeSphere:
			check(node, "sphere radius", pd.Radius)
		default:
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("unknown shape %d", int(pd.Shape)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateSegments warns about curved primitives asking for fewer facets
// than the kernel builds.
func validateSegments(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning
	for _, node := range g.Nodes {
		pd, ok := node.Data.(PrimitiveData)
		if !ok || pd.Shape == ShapeBox {
			continue
		}
		if pd.Segments != 0 && pd.Segments < minSegments {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("%s segments %d below %d, default used", pd.Shape, pd.Segments, minSegments),
			})
		}
	}
	return warnings
}

// validateRepeatedOperands warns when a Boolean lists the same child twice.
// A repeated difference operand subtracts a solid from itself.
func validateRepeatedOperands(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning
	for _, node := range g.Nodes {
		bd, ok := node.Data.(BooleanData)
		if !ok {
			continue
		}
		seen := make(map[NodeID]bool, len(node.Children))
		for _, c := range node.Children {
			if seen[c] {
				msg := fmt.Sprintf("%s repeats operand %s", bd.Op, c.Short())
				if bd.Op == OpDifference && c == node.Children[0] {
					msg += "; the result is empty"
				}
				warnings = append(warnings, ValidationWarning{NodeID: node.ID, Message: msg})
				break
			}
			seen[c] = true
		}
	}
	return warnings
}

// validateIdentityTransforms warns about transforms that move nothing.
func validateIdentityTransforms(g *DesignGraph) []ValidationWarning {
	var warnings []ValidationWarning
	for _, node := range g.Nodes {
		td, ok := node.Data.(TransformData)
		if !ok {
			continue
		}
		if (td.Translation == nil || *td.Translation == (Vec3{})) &&
			(td.Rotation == nil || *td.Rotation == (Vec3{})) {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: "transform has no translation or rotation",
			})
		}
	}
	return warnings
}
