package utils

import "math"

const floatEpsilon = 1e-6

// Square returns n*n.
func Square(n float64) float64 {
	return n * n
}

// Float64AlmostEqual reports whether a and b are within tol of each other.
func Float64AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// Float64AlmostZero reports whether a is within 1e-6 of zero.
func Float64AlmostZero(a float64) bool {
	return Float64AlmostEqual(a, 0, floatEpsilon)
}
