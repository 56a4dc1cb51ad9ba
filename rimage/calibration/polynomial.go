// Package calibration maps bearings measured in the image onto bearings in the
// world using a fixed polynomial fitted offline for a particular camera mount.
package calibration

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/whizz-mobility/pathsteer/utils"
)

// Config holds polynomial coefficients, highest degree first.
type Config struct {
	Coefficients []float64 `json:"coefficients"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if len(c.Coefficients) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "coefficients")
	}
	for i, coeff := range c.Coefficients {
		if !utils.IsFinite(coeff) {
			return utils.NewConfigValidationError(path, errors.Errorf("coefficient %d is not finite: %v", i, coeff))
		}
	}
	return nil
}

// A Polynomial maps an image bearing in degrees to a real bearing in degrees.
type Polynomial struct {
	coeffs []float64
}

// NewPolynomial returns a polynomial with the given coefficients, highest degree
// first. The slice is copied.
func NewPolynomial(coeffs []float64) (Polynomial, error) {
	conf := Config{Coefficients: coeffs}
	if err := conf.Validate("calibration"); err != nil {
		return Polynomial{}, err
	}
	return Polynomial{coeffs: append([]float64(nil), coeffs...)}, nil
}

// Identity returns the polynomial that maps every bearing onto itself.
func Identity() Polynomial {
	return Polynomial{coeffs: []float64{1, 0}}
}

// Map evaluates the polynomial at x.
func (p Polynomial) Map(x float64) float64 {
	var y float64
	for _, c := range p.coeffs {
		y = y*x + c
	}
	return y
}

// Degree returns the polynomial's degree.
func (p Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Coefficients returns a copy of the coefficients, highest degree first.
func (p Polynomial) Coefficients() []float64 {
	return append([]float64(nil), p.coeffs...)
}

func (p Polynomial) String() string {
	terms := make([]string, 0, len(p.coeffs))
	for i, c := range p.coeffs {
		switch pow := p.Degree() - i; pow {
		case 0:
			terms = append(terms, fmt.Sprintf("%g", c))
		case 1:
			terms = append(terms, fmt.Sprintf("%gx", c))
		default:
			terms = append(terms, fmt.Sprintf("%gx^%d", c, pow))
		}
	}
	return strings.Join(terms, " + ")
}
