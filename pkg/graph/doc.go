// Package graph defines the design graph types for kerf.
// The design graph is an immutable DAG of primitives, Boolean operations,
// transforms and groups produced by evaluating a script.
package graph
