package collision

import (
	"go.viam.com/meshsearch/bvh"
)

// ComputeCollisionsTrees returns every (entity of a, entity of b) pair whose leaf boxes overlap.
// Swapping a and b swaps each pair but yields the same set.
func ComputeCollisionsTrees(a, b *bvh.Tree) [][2]int {
	pairs := [][2]int{}
	if a.Empty() || b.Empty() {
		return pairs
	}

	stack := [][2]int{{a.Root(), b.Root()}}
	for len(stack) > 0 {
		na, nb := stack[len(stack)-1][0], stack[len(stack)-1][1]
		stack = stack[:len(stack)-1]

		boxA, boxB := a.NodeBox(na), b.NodeBox(nb)
		if !boxA.CollidesWith(boxB) {
			continue
		}
		leafA, leafB := a.IsLeaf(na), b.IsLeaf(nb)
		switch {
		case leafA && leafB:
			pairs = append(pairs, [2]int{a.Entity(na), b.Entity(nb)})
		case leafA || (!leafB && boxB.Extent().Norm2() > boxA.Extent().Norm2()):
			// Descend whichever side is bigger, or the only side that can be.
			left, right := b.Children(nb)
			stack = append(stack, [2]int{na, right}, [2]int{na, left})
		default:
			left, right := a.Children(na)
			stack = append(stack, [2]int{right, nb}, [2]int{left, nb})
		}
	}
	return pairs
}
