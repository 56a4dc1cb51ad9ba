package calibration

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/whizz-mobility/pathsteer/utils"
)

func TestPolynomialMap(t *testing.T) {
	for _, tc := range []struct {
		coeffs []float64
		x      float64
		y      float64
	}{
		{[]float64{1, 0}, 12.5, 12.5},
		{[]float64{3}, -40, 3},
		{[]float64{2, 1}, 3, 7},
		{[]float64{0.5, 0, -2}, 4, 6},
		{[]float64{1, -2, 3, -4}, 2, 2},
		{[]float64{0.01, 0.9, 0}, -10, -8},
	} {
		p, err := NewPolynomial(tc.coeffs)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.Map(tc.x), test.ShouldAlmostEqual, tc.y)
		test.That(t, p.Degree(), test.ShouldEqual, len(tc.coeffs)-1)
	}
}

func TestPolynomialIdentity(t *testing.T) {
	p := Identity()
	test.That(t, p.Degree(), test.ShouldEqual, 1)
	for _, x := range []float64{-90, -1.5, 0, 33} {
		test.That(t, p.Map(x), test.ShouldEqual, x)
	}
	test.That(t, p.String(), test.ShouldEqual, "1x + 0")
}

func TestPolynomialCopiesCoefficients(t *testing.T) {
	coeffs := []float64{2, 0}
	p, err := NewPolynomial(coeffs)
	test.That(t, err, test.ShouldBeNil)
	coeffs[0] = 100
	test.That(t, p.Map(1), test.ShouldEqual, 2.0)

	out := p.Coefficients()
	out[1] = 5
	test.That(t, p.Map(1), test.ShouldEqual, 2.0)
}

func TestNewPolynomialErrors(t *testing.T) {
	_, err := NewPolynomial(nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, utils.IsConfigError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"coefficients" is required`)

	_, err = NewPolynomial([]float64{1, math.NaN()})
	test.That(t, utils.IsConfigError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "coefficient 1")

	_, err = NewPolynomial([]float64{math.Inf(1)})
	test.That(t, err, test.ShouldNotBeNil)
}
