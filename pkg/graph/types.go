package graph

import (
	"github.com/google/uuid"
)

// nodeNamespace scopes node IDs so the same path always yields the same ID.
var nodeNamespace = uuid.MustParse("4f1b7c2e-9a3d-5e60-8c11-2d7f0b6a9e45")

// NodeID is a content-addressed identifier for graph nodes: a name-based
// UUID derived from the node's construction path.
type NodeID string

// ZeroID is the unset NodeID.
const ZeroID NodeID = ""

// NewNodeID returns the deterministic ID for a construction path such as
// "defpart/bracket" or "union/bracket/0".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(nodeNamespace, []byte(path)).String())
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short returns the first eight characters of id for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Vec3 is a 3D vector in model units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SourceRef points at the script text that created a node.
type SourceRef struct {
	Line int `json:"line,omitempty"`
	Col  int `json:"col,omitempty"`
}
