package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/meshsearch/utils"
)

const (
	// A triangle whose squared edge-angle sine is below this is treated as a set of segments.
	triangleDegeneracyTol = 1e-12
	// A tetrahedron whose volume, relative to its edge lengths, is below this is treated as faces.
	tetrahedronDegeneracyTol = 1e-12
)

// ClosestPointSegmentPoint returns the point on segment [a, b] closest to pt.
func ClosestPointSegmentPoint(a, b, pt r3.Vector) r3.Vector {
	closest, _ := closestOnSegment(a.Sub(pt), b.Sub(pt))
	return closest.Add(pt)
}

// ClosestPointOnSimplex returns the point of the simplex spanned by 1 to 4 vertices that is
// closest to pt. Degenerate simplices are handled through their lower dimensional faces.
func ClosestPointOnSimplex(pt r3.Vector, vertices []r3.Vector) (r3.Vector, error) {
	offset, err := simplexOffset(pt, vertices)
	if err != nil {
		return r3.Vector{}, err
	}
	return offset.Add(pt), nil
}

// SquaredDistancePointToSimplex returns the squared distance between pt and the simplex spanned by
// 1 to 4 vertices: a point, segment, triangle or tetrahedron.
func SquaredDistancePointToSimplex(pt r3.Vector, vertices []r3.Vector) (float64, error) {
	offset, err := simplexOffset(pt, vertices)
	if err != nil {
		return 0, err
	}
	return offset.Norm2(), nil
}

// simplexOffset returns closest - pt, computed with pt moved to the origin.
func simplexOffset(pt r3.Vector, vertices []r3.Vector) (r3.Vector, error) {
	if len(vertices) < 1 || len(vertices) > 4 {
		return r3.Vector{}, utils.NewInvalidArgumentError("a simplex has 1 to 4 vertices, got %d", len(vertices))
	}
	shifted := make([]r3.Vector, len(vertices))
	for i, v := range vertices {
		shifted[i] = v.Sub(pt)
	}
	closest, _ := closestToOrigin(shifted)
	return closest, nil
}

// closestToOrigin returns the point of the simplex closest to the origin along with the smallest
// sub-simplex that still contains it.
func closestToOrigin(simplex []r3.Vector) (r3.Vector, []r3.Vector) {
	switch len(simplex) {
	case 1:
		return simplex[0], simplex
	case 2:
		return closestOnSegment(simplex[0], simplex[1])
	case 3:
		return closestOnTriangle(simplex[0], simplex[1], simplex[2])
	default:
		return closestOnTetrahedron(simplex)
	}
}

func closestOnSegment(a, b r3.Vector) (r3.Vector, []r3.Vector) {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom == 0 {
		return a, []r3.Vector{a}
	}
	t := -a.Dot(ab) / denom
	if t <= 0 {
		return a, []r3.Vector{a}
	}
	if t >= 1 {
		return b, []r3.Vector{b}
	}
	return a.Add(ab.Mul(t)), []r3.Vector{a, b}
}

// closestOnTriangle classifies the origin against the vertex, edge and face Voronoi regions of
// [a, b, c]. See Ericson, "Real-Time Collision Detection", 5.1.5.
func closestOnTriangle(a, b, c r3.Vector) (r3.Vector, []r3.Vector) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	if ab.Cross(ac).Norm2() <= triangleDegeneracyTol*ab.Norm2()*ac.Norm2() {
		return closestOnEdges(a, b, c)
	}

	d1 := -ab.Dot(a)
	d2 := -ac.Dot(a)
	if d1 <= 0 && d2 <= 0 {
		return a, []r3.Vector{a}
	}

	d3 := -ab.Dot(b)
	d4 := -ac.Dot(b)
	if d3 >= 0 && d4 <= d3 {
		return b, []r3.Vector{b}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), []r3.Vector{a, b}
	}

	d5 := -ab.Dot(c)
	d6 := -ac.Dot(c)
	if d6 >= 0 && d5 <= d6 {
		return c, []r3.Vector{c}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), []r3.Vector{a, c}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), []r3.Vector{b, c}
	}

	// va + vb + vc is |ab x ac|^2, nonzero past the degeneracy check.
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), []r3.Vector{a, b, c}
}

func closestOnEdges(a, b, c r3.Vector) (r3.Vector, []r3.Vector) {
	best, bestS := closestOnSegment(a, b)
	for _, edge := range [2][2]r3.Vector{{b, c}, {c, a}} {
		if v, s := closestOnSegment(edge[0], edge[1]); v.Norm2() < best.Norm2() {
			best, bestS = v, s
		}
	}
	return best, bestS
}

// originInTetrahedron solves for the barycentric coordinates of the origin. A flat tetrahedron
// never contains it, so the caller falls back to its faces.
func originInTetrahedron(pts []r3.Vector) bool {
	a := pts[0]
	ab, ac, ad := pts[1].Sub(a), pts[2].Sub(a), pts[3].Sub(a)
	edges := mat.NewDense(3, 3, []float64{
		ab.X, ac.X, ad.X,
		ab.Y, ac.Y, ad.Y,
		ab.Z, ac.Z, ad.Z,
	})
	scale := ab.Norm() * ac.Norm() * ad.Norm()
	if scale == 0 || math.Abs(mat.Det(edges)) <= tetrahedronDegeneracyTol*scale {
		return false
	}
	var bary mat.VecDense
	if err := bary.SolveVec(edges, mat.NewVecDense(3, []float64{-a.X, -a.Y, -a.Z})); err != nil {
		return false
	}
	l1, l2, l3 := bary.AtVec(0), bary.AtVec(1), bary.AtVec(2)
	return l1 >= 0 && l2 >= 0 && l3 >= 0 && l1+l2+l3 <= 1
}

// closestOnTetrahedron returns the zero vector and the full simplex when the origin is inside.
func closestOnTetrahedron(pts []r3.Vector) (r3.Vector, []r3.Vector) {
	if originInTetrahedron(pts) {
		return r3.Vector{}, pts
	}
	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	bestDist := math.Inf(1)
	var bestV r3.Vector
	var bestS []r3.Vector
	for _, f := range faces {
		v, s := closestOnTriangle(pts[f[0]], pts[f[1]], pts[f[2]])
		if d := v.Norm2(); d < bestDist {
			bestDist = d
			bestV = v
			bestS = s
		}
	}
	return bestV, bestS
}
