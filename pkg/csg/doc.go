// Package csg implements constructive solid geometry on polygon soups using
// binary space partitioning trees.
//
// A Solid is a bag of convex planar polygons bounding a closed volume.
// Union, Subtract and Intersect build a private BSP tree per operand, clip
// the trees against each other, and harvest the surviving fragments into a
// new Solid. Operands are never modified.
//
// Trees are stored as arenas of nodes addressed by index and every traversal
// uses an explicit stack, so tree height is bounded by memory rather than by
// the goroutine stack.
package csg
