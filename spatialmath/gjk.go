package spatialmath

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshsearch/utils"
)

const (
	maxGJKIterations = 64
	// GJK stops once the support point improves |v|^2 by less than this fraction of it.
	gjkRelativeEpsilon = 1e-12
)

// SquaredDistanceGJK returns the squared distance between the convex hulls of p and q, zero when
// they intersect.
func SquaredDistanceGJK(p, q []r3.Vector) (float64, error) {
	v, err := DistanceGJK(p, q)
	if err != nil {
		return 0, err
	}
	return v.Norm2(), nil
}

// DistanceGJK returns the shortest vector between the convex hulls of p and q, as the point of the
// Minkowski difference p - q closest to the origin. It is the zero vector when the hulls
// intersect. If the iteration cap is hit the best estimate so far is returned.
func DistanceGJK(p, q []r3.Vector) (r3.Vector, error) {
	if len(p) == 0 || len(q) == 0 {
		return r3.Vector{}, utils.NewInvalidArgumentError("gjk needs non-empty vertex sets, got %d and %d", len(p), len(q))
	}

	v := p[0].Sub(q[0])
	simplex := []r3.Vector{v}
	for iter := 0; iter < maxGJKIterations; iter++ {
		vv := v.Norm2()
		if vv == 0 {
			return r3.Vector{}, nil
		}

		w := minkowskiSupport(p, q, v.Mul(-1))
		if vv-v.Dot(w) <= gjkRelativeEpsilon*vv {
			break
		}

		next, reduced := closestToOrigin(append(simplex, w))
		// Rounding can stall progress near convergence; keep the better estimate.
		if next.Norm2() >= vv {
			break
		}
		v, simplex = next, reduced
	}
	return v, nil
}

// support returns the first vertex with the largest projection on dir.
func support(vertices []r3.Vector, dir r3.Vector) r3.Vector {
	best := vertices[0]
	bestDot := best.Dot(dir)
	for _, v := range vertices[1:] {
		if d := v.Dot(dir); d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}

// minkowskiSupport returns support_p(dir) - support_q(-dir), a support point of p - q in dir.
func minkowskiSupport(p, q []r3.Vector, dir r3.Vector) r3.Vector {
	return support(p, dir).Sub(support(q, dir.Mul(-1)))
}
