package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshsearch/bvh"
	"go.viam.com/meshsearch/mesh"
	"go.viam.com/meshsearch/utils"
)

// A point is inside a cell when its squared distance to it is below this.
const collidingCellsEpsilon = 1e-12

// ComputeCollidingCells filters candidate cells, usually from ComputeCollisionsPoints on a cell
// tree, down to those that actually contain their point. Row i of candidates belongs to points[i].
func ComputeCollidingCells(m mesh.Mesh, candidates AdjacencyList, points []r3.Vector) (AdjacencyList, error) {
	if candidates.NumNodes() != len(points) {
		return AdjacencyList{}, utils.NewLengthMismatchError("one candidate row per point", candidates.NumNodes(), len(points))
	}
	rows := make([][]int, len(points))
	err := forEachPoint(len(points), func(i int) error {
		for _, cell := range candidates.Links(i) {
			d, err := entitySquaredDistance(m, m.TDim(), cell, points[i])
			if err != nil {
				return err
			}
			if d < collidingCellsEpsilon {
				rows[i] = append(rows[i], cell)
			}
		}
		return nil
	})
	if err != nil {
		return AdjacencyList{}, err
	}
	return NewAdjacencyList(rows), nil
}

// ComputeFirstCollidingCell returns the first cell, in leaf order of tree, that contains pt, or
// -1. tree must be built over cells of m.
func ComputeFirstCollidingCell(m mesh.Mesh, tree *bvh.Tree, pt r3.Vector) (int, error) {
	if !tree.Empty() && tree.TDim() != m.TDim() {
		return -1, utils.NewInvalidArgumentError("tree is over entities of dimension %d, not cells of dimension %d",
			tree.TDim(), m.TDim())
	}
	for _, cell := range pointCollisions(tree, pt, false) {
		d, err := entitySquaredDistance(m, m.TDim(), cell, pt)
		if err != nil {
			return -1, err
		}
		if d < collidingCellsEpsilon {
			return cell, nil
		}
	}
	return -1, nil
}
