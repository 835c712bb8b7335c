package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/meshsearch/bvh"
	"go.viam.com/meshsearch/mesh"
	"go.viam.com/meshsearch/utils"
)

// ComputeClosestEntity returns, for each point, the entity of tree closest to it, measured exactly
// against the entity geometry in m. Ties go to the smallest entity index, and every point maps to
// -1 when tree is empty.
//
// midpointTree must be built over the same entities (see bvh.NewMidpointTree). Its nearest
// midpoint gives an initial radius that prunes most of tree before exact distances are computed.
func ComputeClosestEntity(tree, midpointTree *bvh.Tree, m mesh.Mesh, points []r3.Vector) ([]int, error) {
	closest := make([]int, len(points))
	if tree.Empty() {
		for i := range closest {
			closest[i] = -1
		}
		return closest, nil
	}
	if midpointTree.TDim() != tree.TDim() || midpointTree.NumEntities() != tree.NumEntities() {
		return nil, utils.NewInvalidArgumentError(
			"midpoint tree (dim %d, %d entities) does not match tree (dim %d, %d entities)",
			midpointTree.TDim(), midpointTree.NumEntities(), tree.TDim(), tree.NumEntities())
	}

	err := forEachPoint(len(points), func(i int) error {
		entity, err := closestEntity(tree, midpointTree, m, points[i])
		if err != nil {
			return err
		}
		closest[i] = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closest, nil
}

func closestEntity(tree, midpointTree *bvh.Tree, m mesh.Mesh, pt r3.Vector) (int, error) {
	best := nearestLeaf(midpointTree, pt)
	radius, err := entitySquaredDistance(m, tree.TDim(), best, pt)
	if err != nil {
		return -1, err
	}

	stack := []int{tree.Root()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// Equal distances are not pruned so ties can still be broken by index.
		if tree.NodeBox(n).SquaredDistanceToPoint(pt) > radius {
			continue
		}
		if tree.IsLeaf(n) {
			entity := tree.Entity(n)
			if entity == best {
				continue
			}
			d, err := entitySquaredDistance(m, tree.TDim(), entity, pt)
			if err != nil {
				return -1, err
			}
			if d < radius || (d == radius && entity < best) {
				best, radius = entity, d
			}
			continue
		}
		stack = pushChildren(tree, n, pt, stack)
	}
	return best, nil
}

// nearestLeaf returns the entity whose leaf box is nearest to pt. For a midpoint tree that is the
// entity with the nearest midpoint.
func nearestLeaf(tree *bvh.Tree, pt r3.Vector) int {
	best := -1
	radius := math.Inf(1)
	stack := []int{tree.Root()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d := tree.NodeBox(n).SquaredDistanceToPoint(pt)
		if d > radius {
			continue
		}
		if tree.IsLeaf(n) {
			if entity := tree.Entity(n); d < radius || (d == radius && entity < best) {
				best, radius = entity, d
			}
			continue
		}
		stack = pushChildren(tree, n, pt, stack)
	}
	return best
}

// pushChildren pushes the children of n so the one nearer to pt is popped first.
func pushChildren(tree *bvh.Tree, n int, pt r3.Vector, stack []int) []int {
	left, right := tree.Children(n)
	if tree.NodeBox(left).SquaredDistanceToPoint(pt) <= tree.NodeBox(right).SquaredDistanceToPoint(pt) {
		return append(stack, right, left)
	}
	return append(stack, left, right)
}
