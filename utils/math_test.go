package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversion(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, RadToDeg(DegToRad(-37.5)), test.ShouldAlmostEqual, -37.5)
}

func TestClamp(t *testing.T) {
	lower, upper := -2.0, 3.0
	test.That(t, ClampOptional(10, &lower, &upper), test.ShouldEqual, 3.0)
	test.That(t, ClampOptional(-10, &lower, &upper), test.ShouldEqual, -2.0)
	test.That(t, ClampOptional(10, nil, &upper), test.ShouldEqual, 3.0)
	test.That(t, ClampOptional(-10, nil, &upper), test.ShouldEqual, -10.0)
	test.That(t, ClampOptional(1e9, nil, nil), test.ShouldEqual, 1e9)
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(1), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
}
