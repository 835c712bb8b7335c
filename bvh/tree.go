// Package bvh builds bounding volume hierarchies over mesh entities and arbitrary points.
package bvh

import (
	"fmt"
	"strings"

	"go.viam.com/meshsearch/spatialmath"
	"go.viam.com/meshsearch/utils"
)

// node is a leaf owning one entity, or an internal node owning exactly two children.
type node struct {
	box      spatialmath.AABB
	children [2]int
	entity   int
}

func (n *node) isLeaf() bool {
	return n.children[0] < 0
}

// Tree is an immutable bounding box hierarchy. Nodes are stored children first, so the root is the
// last node. Leaves reference entity indices of the mesh the tree was built over.
type Tree struct {
	tdim     int
	entities []int
	nodes    []node
	root     int
}

// TDim returns the topological dimension of the entities in the tree.
func (t *Tree) TDim() int {
	return t.tdim
}

// Empty reports whether the tree has no entities.
func (t *Tree) Empty() bool {
	return t.root < 0
}

// Root returns the root node index, or -1 for an empty tree.
func (t *Tree) Root() int {
	return t.root
}

// NumBoxes returns the number of nodes.
func (t *Tree) NumBoxes() int {
	return len(t.nodes)
}

// NumEntities returns the number of leaves.
func (t *Tree) NumEntities() int {
	return len(t.entities)
}

// Entities returns a copy of the entity indices the tree was built over, in input order.
func (t *Tree) Entities() []int {
	return append([]int{}, t.entities...)
}

// Box returns the bounding box of a node.
func (t *Tree) Box(nodeIdx int) (spatialmath.AABB, error) {
	if nodeIdx < 0 || nodeIdx >= len(t.nodes) {
		return spatialmath.EmptyAABB(), utils.NewIndexOutOfRangeError("node", nodeIdx, len(t.nodes))
	}
	return t.nodes[nodeIdx].box, nil
}

// NodeBox is Box without the range check, for traversals that only follow Root and Children.
func (t *Tree) NodeBox(nodeIdx int) spatialmath.AABB {
	return t.nodes[nodeIdx].box
}

// IsLeaf reports whether a node is a leaf. nodeIdx must be a valid node.
func (t *Tree) IsLeaf(nodeIdx int) bool {
	return t.nodes[nodeIdx].isLeaf()
}

// Children returns the child node indices, or (-1, -1) for a leaf.
func (t *Tree) Children(nodeIdx int) (int, int) {
	return t.nodes[nodeIdx].children[0], t.nodes[nodeIdx].children[1]
}

// Entity returns the entity index of a leaf, or -1 for an internal node.
func (t *Tree) Entity(nodeIdx int) int {
	return t.nodes[nodeIdx].entity
}

// BoxCoordinates returns every node box flattened as min x, y, z then max x, y, z.
func (t *Tree) BoxCoordinates() []float64 {
	coords := make([]float64, 0, 6*len(t.nodes))
	for i := range t.nodes {
		b := t.nodes[i].box
		coords = append(coords, b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	}
	return coords
}

// String prints the hierarchy from the root, one node per line.
func (t *Tree) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tree(tdim=%d, entities=%d, nodes=%d)", t.tdim, len(t.entities), len(t.nodes))
	if t.Empty() {
		return sb.String()
	}

	type frame struct{ node, depth int }
	stack := []frame{{t.root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[f.node]
		indent := strings.Repeat("  ", f.depth)
		if n.isLeaf() {
			fmt.Fprintf(&sb, "\n%sleaf %d: entity %d %v", indent, f.node, n.entity, n.box)
			continue
		}
		fmt.Fprintf(&sb, "\n%snode %d: %v", indent, f.node, n.box)
		stack = append(stack, frame{n.children[1], f.depth + 1}, frame{n.children[0], f.depth + 1})
	}
	return sb.String()
}
