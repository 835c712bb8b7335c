package spatialmath

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshsearch/utils"
)

const floatEpsilon = 1e-6

// R3VectorAlmostEqual compares two vectors component-wise within epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}
