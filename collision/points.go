package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshsearch/bvh"
)

// ComputeCollisionsPoints returns, for each point, the entities whose leaf box contains it, in
// left-to-right leaf order. An empty tree gives one empty row per point.
func ComputeCollisionsPoints(tree *bvh.Tree, points []r3.Vector) AdjacencyList {
	rows := make([][]int, len(points))
	// The callback never fails.
	_ = forEachPoint(len(points), func(i int) error {
		rows[i] = pointCollisions(tree, points[i], false)
		return nil
	})
	return NewAdjacencyList(rows)
}

// ComputeFirstCollision returns the first entity, in leaf order, whose box contains pt, or -1.
func ComputeFirstCollision(tree *bvh.Tree, pt r3.Vector) int {
	if hits := pointCollisions(tree, pt, true); len(hits) > 0 {
		return hits[0]
	}
	return -1
}

func pointCollisions(tree *bvh.Tree, pt r3.Vector, firstOnly bool) []int {
	var hits []int
	if tree.Empty() {
		return hits
	}
	stack := []int{tree.Root()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !tree.NodeBox(n).ContainsPoint(pt) {
			continue
		}
		if tree.IsLeaf(n) {
			hits = append(hits, tree.Entity(n))
			if firstOnly {
				return hits
			}
			continue
		}
		left, right := tree.Children(n)
		stack = append(stack, right, left)
	}
	return hits
}
