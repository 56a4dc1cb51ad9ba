package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// ClampOptional limits value by whichever of lower and upper are set. A nil bound
// does not constrain that side.
func ClampOptional(value float64, lower, upper *float64) float64 {
	if lower != nil && value < *lower {
		value = *lower
	}
	if upper != nil && value > *upper {
		value = *upper
	}
	return value
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

