package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestFloatHelpers(t *testing.T) {
	test.That(t, Square(-3), test.ShouldEqual, 9.0)
	test.That(t, Float64AlmostEqual(1, 1.05, 0.1), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.2, 0.1), test.ShouldBeFalse)
	test.That(t, Float64AlmostZero(1e-9), test.ShouldBeTrue)
	test.That(t, Float64AlmostZero(1e-3), test.ShouldBeFalse)
}
