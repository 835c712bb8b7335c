package collision

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/meshsearch/bvh"
	"go.viam.com/meshsearch/logging"
	"go.viam.com/meshsearch/mesh"
	"go.viam.com/meshsearch/utils"
)

type fixture struct {
	mesh         *mesh.Basic
	tree         *bvh.Tree
	midpointTree *bvh.Tree
}

func newFixture(t *testing.T, m *mesh.Basic, dim int, entities []int) fixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	tree, err := bvh.NewTree(ctx, m, dim, entities, 0, logger)
	test.That(t, err, test.ShouldBeNil)
	midpointTree, err := bvh.NewMidpointTree(ctx, m, dim, entities, logger)
	test.That(t, err, test.ShouldBeNil)
	return fixture{m, tree, midpointTree}
}

func randomPoints(rng *rand.Rand, n int, lo, hi r3.Vector) []r3.Vector {
	points := make([]r3.Vector, n)
	for i := range points {
		points[i] = r3.Vector{
			X: lo.X + rng.Float64()*(hi.X-lo.X),
			Y: lo.Y + rng.Float64()*(hi.Y-lo.Y),
			Z: lo.Z + rng.Float64()*(hi.Z-lo.Z),
		}
	}
	return points
}

func TestUnitSquare(t *testing.T) {
	m, err := mesh.CreateRectangle(r3.Vector{}, r3.Vector{X: 1, Y: 1}, 1, 1, mesh.Triangle)
	test.That(t, err, test.ShouldBeNil)
	f := newFixture(t, m, 2, nil)
	points := []r3.Vector{{X: 0.5, Y: 0.5}, {X: 2, Y: 2}, {X: 0.9, Y: 0.1}}

	candidates := ComputeCollisionsPoints(f.tree, points)
	test.That(t, candidates.NumNodes(), test.ShouldEqual, 3)
	test.That(t, candidates.NumLinks(0), test.ShouldEqual, 2)
	test.That(t, candidates.Links(1), test.ShouldBeEmpty)

	cells, err := ComputeCollidingCells(m, candidates, points)
	test.That(t, err, test.ShouldBeNil)
	got := append([]int{}, cells.Links(0)...)
	sort.Ints(got)
	test.That(t, got, test.ShouldResemble, []int{0, 1})
	test.That(t, cells.Links(1), test.ShouldBeEmpty)
	test.That(t, cells.Links(2), test.ShouldResemble, []int{0})

	first, err := ComputeFirstCollidingCell(m, f.tree, r3.Vector{X: 0.1, Y: 0.9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldEqual, 1)
	first, err = ComputeFirstCollidingCell(m, f.tree, r3.Vector{X: 2, Y: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldEqual, -1)

	d, err := SquaredDistance(m, 2, []int{0}, []r3.Vector{{X: 2}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d[0], test.ShouldAlmostEqual, 1., 1e-12)

	closest, err := ComputeClosestEntity(f.tree, f.midpointTree, m, []r3.Vector{{X: 2, Y: 0}, {X: -1, Y: 2}, {X: 0.5, Y: 0.5}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, closest, test.ShouldResemble, []int{0, 1, 0})
}

func TestEmptyAndSingleTrees(t *testing.T) {
	m, err := mesh.CreateRectangle(r3.Vector{}, r3.Vector{X: 1, Y: 1}, 2, 2, mesh.Triangle)
	test.That(t, err, test.ShouldBeNil)
	points := []r3.Vector{{X: 0.2, Y: 0.2}, {X: 5}}

	t.Run("empty", func(t *testing.T) {
		f := newFixture(t, m, 2, []int{})
		rows := ComputeCollisionsPoints(f.tree, points)
		test.That(t, rows.NumNodes(), test.ShouldEqual, 2)
		test.That(t, rows.Array(), test.ShouldBeEmpty)
		test.That(t, ComputeFirstCollision(f.tree, points[0]), test.ShouldEqual, -1)

		closest, err := ComputeClosestEntity(f.tree, f.midpointTree, m, points)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, closest, test.ShouldResemble, []int{-1, -1})

		full := newFixture(t, m, 2, nil)
		test.That(t, ComputeCollisionsTrees(f.tree, full.tree), test.ShouldBeEmpty)
		test.That(t, ComputeCollisionsTrees(full.tree, f.tree), test.ShouldBeEmpty)
	})

	t.Run("single entity", func(t *testing.T) {
		f := newFixture(t, m, 2, []int{5})
		closest, err := ComputeClosestEntity(f.tree, f.midpointTree, m, points)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, closest, test.ShouldResemble, []int{5, 5})
	})
}

func TestClosestEntityAgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tri, err := mesh.CreateRectangle(r3.Vector{}, r3.Vector{X: 2, Y: 1}, 6, 4, mesh.Triangle)
	test.That(t, err, test.ShouldBeNil)
	tet, err := mesh.CreateBox(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, 3, 2, 2, mesh.Tetrahedron)
	test.That(t, err, test.ShouldBeNil)
	hex, err := mesh.CreateBox(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, 3, 3, 3, mesh.Hexahedron)
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		name     string
		mesh     *mesh.Basic
		dim      int
		entities []int
	}{
		{"triangles", tri, 2, nil},
		{"triangle subset", tri, 2, []int{40, 3, 17, 22, 8}},
		{"tetrahedra", tet, 3, nil},
		{"hexahedra", hex, 3, nil},
		{"vertices", tet, 0, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.mesh, tc.dim, tc.entities)
			entities := f.tree.Entities()
			points := randomPoints(rng, 300, r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 3, Y: 2, Z: 2})

			closest, err := ComputeClosestEntity(f.tree, f.midpointTree, tc.mesh, points)
			test.That(t, err, test.ShouldBeNil)
			for i, pt := range points {
				best, bestDist := -1, math.Inf(1)
				for _, e := range entities {
					d, err := entitySquaredDistance(tc.mesh, tc.dim, e, pt)
					test.That(t, err, test.ShouldBeNil)
					if d < bestDist || (d == bestDist && e < best) {
						best, bestDist = e, d
					}
				}
				test.That(t, closest[i], test.ShouldEqual, best)
			}
		})
	}
}

func TestCollisionsAgreeWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m, err := mesh.CreateBox(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, 3, 3, 3, mesh.Tetrahedron)
	test.That(t, err, test.ShouldBeNil)
	f := newFixture(t, m, 3, nil)
	points := randomPoints(rng, 400, r3.Vector{X: -0.2, Y: -0.2, Z: -0.2}, r3.Vector{X: 1.2, Y: 1.2, Z: 1.2})

	candidates := ComputeCollisionsPoints(f.tree, points)
	cells, err := ComputeCollidingCells(m, candidates, points)
	test.That(t, err, test.ShouldBeNil)

	for i, pt := range points {
		var boxHits, cellHits []int
		for _, e := range f.tree.Entities() {
			verts, err := m.EntityVertices(3, e)
			test.That(t, err, test.ShouldBeNil)
			if boxContains(verts, pt) {
				boxHits = append(boxHits, e)
				d, err := entitySquaredDistance(m, 3, e, pt)
				test.That(t, err, test.ShouldBeNil)
				if d < collidingCellsEpsilon {
					cellHits = append(cellHits, e)
				}
			}
		}
		test.That(t, sorted(candidates.Links(i)), test.ShouldResemble, sorted(boxHits))
		test.That(t, sorted(cells.Links(i)), test.ShouldResemble, sorted(cellHits))

		inside := pt.X >= 0 && pt.X <= 1 && pt.Y >= 0 && pt.Y <= 1 && pt.Z >= 0 && pt.Z <= 1
		test.That(t, len(cellHits) > 0, test.ShouldEqual, inside)
		if first := ComputeFirstCollision(f.tree, pt); len(boxHits) > 0 {
			test.That(t, first, test.ShouldEqual, candidates.Links(i)[0])
		} else {
			test.That(t, first, test.ShouldEqual, -1)
		}
	}
}

func boxContains(verts []r3.Vector, pt r3.Vector) bool {
	lo, hi := verts[0], verts[0]
	for _, v := range verts[1:] {
		lo = r3.Vector{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vector{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo.X <= pt.X && pt.X <= hi.X && lo.Y <= pt.Y && pt.Y <= hi.Y && lo.Z <= pt.Z && pt.Z <= hi.Z
}

func sorted(in []int) []int {
	out := append([]int{}, in...)
	sort.Ints(out)
	return out
}

func TestCollisionsTrees(t *testing.T) {
	a, err := mesh.CreateRectangle(r3.Vector{}, r3.Vector{X: 1, Y: 1}, 4, 4, mesh.Triangle)
	test.That(t, err, test.ShouldBeNil)
	b, err := mesh.CreateRectangle(r3.Vector{X: 0.6, Y: 0.3}, r3.Vector{X: 1.6, Y: 1.3}, 3, 2, mesh.Quadrilateral)
	test.That(t, err, test.ShouldBeNil)
	fa := newFixture(t, a, 2, nil)
	fb := newFixture(t, b, 2, nil)

	pairs := ComputeCollisionsTrees(fa.tree, fb.tree)
	swapped := ComputeCollisionsTrees(fb.tree, fa.tree)
	test.That(t, len(pairs), test.ShouldBeGreaterThan, 0)
	test.That(t, len(swapped), test.ShouldEqual, len(pairs))

	expected := map[[2]int]bool{}
	for _, ea := range fa.tree.Entities() {
		va, _ := a.EntityVertices(2, ea)
		for _, eb := range fb.tree.Entities() {
			vb, _ := b.EntityVertices(2, eb)
			if boxesOverlap(va, vb) {
				expected[[2]int{ea, eb}] = true
			}
		}
	}
	test.That(t, len(pairs), test.ShouldEqual, len(expected))
	for _, p := range pairs {
		test.That(t, expected[p], test.ShouldBeTrue)
	}
	for _, p := range swapped {
		test.That(t, expected[[2]int{p[1], p[0]}], test.ShouldBeTrue)
	}

	self := ComputeCollisionsTrees(fa.tree, fa.tree)
	for _, e := range fa.tree.Entities() {
		found := false
		for _, p := range self {
			found = found || p == [2]int{e, e}
		}
		test.That(t, found, test.ShouldBeTrue)
	}
}

func boxesOverlap(va, vb []r3.Vector) bool {
	for _, v := range va {
		if boxContains(vb, v) {
			return true
		}
	}
	lo := func(vs []r3.Vector, f func(r3.Vector) float64) float64 {
		m := math.Inf(1)
		for _, v := range vs {
			m = math.Min(m, f(v))
		}
		return m
	}
	hi := func(vs []r3.Vector, f func(r3.Vector) float64) float64 {
		m := math.Inf(-1)
		for _, v := range vs {
			m = math.Max(m, f(v))
		}
		return m
	}
	for _, axis := range []func(r3.Vector) float64{
		func(v r3.Vector) float64 { return v.X },
		func(v r3.Vector) float64 { return v.Y },
		func(v r3.Vector) float64 { return v.Z },
	} {
		if lo(va, axis) > hi(vb, axis) || lo(vb, axis) > hi(va, axis) {
			return false
		}
	}
	return true
}

func TestQueryErrors(t *testing.T) {
	m, err := mesh.CreateRectangle(r3.Vector{}, r3.Vector{X: 1, Y: 1}, 2, 2, mesh.Triangle)
	test.That(t, err, test.ShouldBeNil)
	f := newFixture(t, m, 2, nil)

	t.Run("squared distance length mismatch", func(t *testing.T) {
		_, err := SquaredDistance(m, 2, []int{0, 1}, []r3.Vector{{}})
		test.That(t, errors.Is(err, utils.ErrInvalidArgument), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected 2, got 1")
	})

	t.Run("squared distance bad entity", func(t *testing.T) {
		_, err := SquaredDistance(m, 2, []int{99}, []r3.Vector{{}})
		test.That(t, err, test.ShouldNotBeNil)
		_, err = SquaredDistance(m, 1, []int{0}, []r3.Vector{{}})
		test.That(t, errors.Is(err, mesh.ErrEntitiesNotCreated), test.ShouldBeTrue)
	})

	t.Run("colliding cells length mismatch", func(t *testing.T) {
		_, err := ComputeCollidingCells(m, NewAdjacencyList([][]int{{0}}), nil)
		test.That(t, errors.Is(err, utils.ErrInvalidArgument), test.ShouldBeTrue)
	})

	t.Run("mismatched midpoint tree", func(t *testing.T) {
		vertices := newFixture(t, m, 0, nil)
		_, err := ComputeClosestEntity(f.tree, vertices.midpointTree, m, []r3.Vector{{}})
		test.That(t, errors.Is(err, utils.ErrInvalidArgument), test.ShouldBeTrue)
		_, err = ComputeFirstCollidingCell(m, vertices.tree, r3.Vector{})
		test.That(t, errors.Is(err, utils.ErrInvalidArgument), test.ShouldBeTrue)
	})
}

func TestLargeBatches(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m, err := mesh.CreateRectangle(r3.Vector{}, r3.Vector{X: 1, Y: 1}, 8, 8, mesh.Quadrilateral)
	test.That(t, err, test.ShouldBeNil)
	f := newFixture(t, m, 2, nil)
	points := randomPoints(rng, 4*pointsBeforeParallelization, r3.Vector{X: -0.5, Y: -0.5}, r3.Vector{X: 1.5, Y: 1.5})

	closest, err := ComputeClosestEntity(f.tree, f.midpointTree, m, points)
	test.That(t, err, test.ShouldBeNil)
	distances, err := SquaredDistance(m, 2, closest, points)
	test.That(t, err, test.ShouldBeNil)

	serial := utils.ParallelFactor
	utils.ParallelFactor = 1
	defer func() { utils.ParallelFactor = serial }()
	again, err := ComputeClosestEntity(f.tree, f.midpointTree, m, points)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, closest)

	for i, pt := range points {
		inside := pt.X >= 0 && pt.X <= 1 && pt.Y >= 0 && pt.Y <= 1
		if inside {
			test.That(t, distances[i], test.ShouldAlmostEqual, 0., 1e-20)
		} else {
			test.That(t, distances[i], test.ShouldBeGreaterThan, 0.)
		}
	}
}

func TestAdjacencyList(t *testing.T) {
	list := NewAdjacencyList([][]int{{3, 1}, nil, {7}})
	test.That(t, list.NumNodes(), test.ShouldEqual, 3)
	test.That(t, list.Array(), test.ShouldResemble, []int{3, 1, 7})
	test.That(t, list.Offsets(), test.ShouldResemble, []int{0, 2, 2, 3})
	test.That(t, list.Links(0), test.ShouldResemble, []int{3, 1})
	test.That(t, list.NumLinks(1), test.ShouldEqual, 0)
	test.That(t, list.String(), test.ShouldEqual, "AdjacencyList(nodes=3, links=3)\n  0: [3 1]\n  1: []\n  2: [7]")

	test.That(t, AdjacencyList{}.NumNodes(), test.ShouldEqual, 0)
	test.That(t, NewAdjacencyList(nil).NumNodes(), test.ShouldEqual, 0)

	fromCSR, err := NewAdjacencyListFromCSR([]int{3, 1, 7}, []int{0, 2, 2, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromCSR, test.ShouldResemble, list)

	_, err = NewAdjacencyListFromCSR([]int{1}, []int{0, 2})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewAdjacencyListFromCSR([]int{1}, []int{0, 1, 0})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewAdjacencyListFromCSR(nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
