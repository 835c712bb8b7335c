package bvh

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/meshsearch/logging"
	"go.viam.com/meshsearch/mesh"
	"go.viam.com/meshsearch/spatialmath"
	"go.viam.com/meshsearch/utils"
)

// Entity boxes are computed on one goroutine below this count.
const parallelBoxThreshold = 4096

// NewTree builds a tree over entities of dimension dim, each boxed tightly around its vertices and
// grown by padding. A nil entities slice means every entity of that dimension.
func NewTree(
	ctx context.Context,
	m mesh.Mesh,
	dim int,
	entities []int,
	padding float64,
	logger logging.Logger,
) (*Tree, error) {
	if padding < 0 || math.IsNaN(padding) {
		return nil, utils.NewInvalidArgumentError("padding must be non-negative, got %v", padding)
	}
	start := time.Now()
	entities, err := resolveEntities(m, dim, entities)
	if err != nil {
		return nil, err
	}

	boxes, err := entityBoxes(ctx, m, dim, entities, padding)
	if err != nil {
		return nil, err
	}
	tree := build(dim, entities, boxes)
	logger.Debugw("built bounding box tree",
		"dim", dim, "entities", len(entities), "nodes", tree.NumBoxes(), "padding", padding,
		"elapsed", time.Since(start))
	return tree, nil
}

// NewTreeFromConfig validates cfg and builds the tree it describes.
func NewTreeFromConfig(ctx context.Context, m mesh.Mesh, cfg *TreeConfig, logger logging.Logger) (*Tree, error) {
	if err := cfg.Validate("tree"); err != nil {
		return nil, err
	}
	return NewTree(ctx, m, cfg.Dim, cfg.Entities, cfg.Padding, logger)
}

// NewMidpointTree builds a tree whose leaves are the vertex averages of the entities, as
// degenerate boxes. It is the coarse first stage of closest entity queries.
func NewMidpointTree(ctx context.Context, m mesh.Mesh, dim int, entities []int, logger logging.Logger) (*Tree, error) {
	entities, err := resolveEntities(m, dim, entities)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	midpoints, err := mesh.Midpoints(m, dim, entities)
	if err != nil {
		return nil, errors.Wrap(err, "computing entity midpoints")
	}
	tree := build(dim, entities, lo.Map(midpoints, func(pt r3.Vector, _ int) spatialmath.AABB {
		return spatialmath.NewAABBFromPoints(pt)
	}))
	logger.Debugw("built midpoint tree", "dim", dim, "entities", len(entities), "nodes", tree.NumBoxes())
	return tree, nil
}

// NewPointTree builds a tree with one degenerate leaf per point. Leaf i refers to points[i] and the
// tree has dimension 0.
func NewPointTree(points []r3.Vector) *Tree {
	boxes := make([]spatialmath.AABB, len(points))
	for i, pt := range points {
		boxes[i] = spatialmath.NewAABBFromPoints(pt)
	}
	return build(0, lo.Range(len(points)), boxes)
}

// NewTreeFromBoxes builds a tree from precomputed boxes; boxes[i] belongs to entities[i].
func NewTreeFromBoxes(dim int, entities []int, boxes []spatialmath.AABB) (*Tree, error) {
	if len(entities) != len(boxes) {
		return nil, utils.NewLengthMismatchError("boxes per entity", len(entities), len(boxes))
	}
	for i, box := range boxes {
		if box.IsEmpty() {
			return nil, utils.NewInvalidArgumentError("box of entity %d is empty", entities[i])
		}
	}
	return build(dim, append([]int{}, entities...), append([]spatialmath.AABB{}, boxes...)), nil
}

// resolveEntities checks that dim exists on the mesh and the entities are in range, filling in
// every entity when none are given.
func resolveEntities(m mesh.Mesh, dim int, entities []int) ([]int, error) {
	if dim < 0 || dim > m.TDim() {
		return nil, utils.NewInvalidArgumentError("dimension %d outside [0, %d]", dim, m.TDim())
	}
	count, err := m.EntityCount(dim)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build tree over entities of dimension %d", dim)
	}
	if entities == nil {
		return lo.Range(count), nil
	}
	for _, e := range entities {
		if e < 0 || e >= count {
			return nil, utils.NewIndexOutOfRangeError("entity", e, count)
		}
	}
	return append([]int{}, entities...), nil
}

func entityBox(m mesh.Mesh, dim, entity int, padding float64) (spatialmath.AABB, error) {
	verts, err := m.EntityVertices(dim, entity)
	if err != nil {
		return spatialmath.EmptyAABB(), err
	}
	if len(verts) == 0 {
		return spatialmath.EmptyAABB(), errors.Errorf("entity %d of dimension %d has no vertices", entity, dim)
	}
	return spatialmath.NewAABBFromPoints(verts...).Pad(padding), nil
}

func entityBoxes(ctx context.Context, m mesh.Mesh, dim int, entities []int, padding float64) ([]spatialmath.AABB, error) {
	boxes := make([]spatialmath.AABB, len(entities))
	if len(entities) < parallelBoxThreshold {
		for i, e := range entities {
			box, err := entityBox(m, dim, e, padding)
			if err != nil {
				return nil, err
			}
			boxes[i] = box
		}
		return boxes, nil
	}

	var errMu sync.Mutex
	var firstErr error
	err := utils.GroupWorkParallel(ctx, len(entities), func(int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			var groupErr error
			return func(memberNum, workNum int) {
					if groupErr != nil {
						return
					}
					boxes[workNum], groupErr = entityBox(m, dim, entities[workNum], padding)
				}, func() {
					if groupErr == nil {
						return
					}
					errMu.Lock()
					if firstErr == nil {
						firstErr = groupErr
					}
					errMu.Unlock()
				}
		})
	if err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return boxes, nil
}

// build arranges the leaves into a tree by recursive median splits, driven by an explicit stack.
// Each range is split at its middle after sorting along the axis of largest centroid spread, so
// the result depends only on the inputs.
func build(dim int, entities []int, boxes []spatialmath.AABB) *Tree {
	tree := &Tree{tdim: dim, entities: entities, root: -1}
	if len(entities) == 0 {
		return tree
	}
	tree.nodes = make([]node, 0, 2*len(entities)-1)

	centroids := make([]r3.Vector, len(boxes))
	for i, box := range boxes {
		centroids[i] = box.Center()
	}
	order := lo.Range(len(entities))

	type task struct {
		lo, hi int
		split  bool
	}
	tasks := []task{{0, len(order), false}}
	// Indices of finished subtrees. A finished range leaves exactly one entry.
	var done []int
	for len(tasks) > 0 {
		tk := tasks[len(tasks)-1]
		tasks = tasks[:len(tasks)-1]

		if tk.hi-tk.lo == 1 {
			leaf := order[tk.lo]
			tree.nodes = append(tree.nodes, node{box: boxes[leaf], children: [2]int{-1, -1}, entity: entities[leaf]})
			done = append(done, len(tree.nodes)-1)
			continue
		}
		if tk.split {
			left, right := done[len(done)-2], done[len(done)-1]
			done = done[:len(done)-2]
			tree.nodes = append(tree.nodes, node{
				box:      tree.nodes[left].box.Union(tree.nodes[right].box),
				children: [2]int{left, right},
				entity:   -1,
			})
			done = append(done, len(tree.nodes)-1)
			continue
		}

		sortAlongSplitAxis(order[tk.lo:tk.hi], centroids, entities)
		mid := tk.lo + (tk.hi-tk.lo)/2
		tasks = append(tasks, task{tk.lo, tk.hi, true}, task{mid, tk.hi, false}, task{tk.lo, mid, false})
	}
	tree.root = done[0]
	return tree
}

// sortAlongSplitAxis orders leaves by centroid along the axis where the centroids spread the most,
// lowest axis on ties, with entity index as tie-breaker. When all centroids coincide the leaves are
// ordered by entity index alone.
func sortAlongSplitAxis(order []int, centroids []r3.Vector, entities []int) {
	spread := spatialmath.EmptyAABB()
	for _, leaf := range order {
		spread = spread.Union(spatialmath.NewAABBFromPoints(centroids[leaf]))
	}
	extent := spread.Extent()

	axis := -1
	best := 0.0
	for i, e := range []float64{extent.X, extent.Y, extent.Z} {
		if e > best {
			axis, best = i, e
		}
	}

	key := func(leaf int) float64 {
		switch axis {
		case 0:
			return centroids[leaf].X
		case 1:
			return centroids[leaf].Y
		case 2:
			return centroids[leaf].Z
		}
		return 0
	}
	sort.Slice(order, func(i, j int) bool {
		ki, kj := key(order[i]), key(order[j])
		if ki != kj {
			return ki < kj
		}
		if entities[order[i]] != entities[order[j]] {
			return entities[order[i]] < entities[order[j]]
		}
		return order[i] < order[j]
	})
}
