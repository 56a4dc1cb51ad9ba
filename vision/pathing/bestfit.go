package pathing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/whizz-mobility/pathsteer/utils"
)

// FitHeading fits a line through the valid waypoints that passes through the
// vehicle at (originX, originY), minimising horizontal error. The gradient is
// dx/dy in image coordinates, so a path straight up the frame has gradient 0.
// ok is false when no line can be fitted, which happens when there are no valid
// waypoints or every valid waypoint lies on the origin row.
func FitHeading(wps Waypoints, originX, originY float64) (gradient float64, ok bool) {
	n := wps.Len()
	tx := make([]float64, n)
	ty := make([]float64, n)
	weights := make([]float64, n)
	for i, valid := range wps.Valid {
		if !valid {
			continue
		}
		tx[i] = wps.X[i] - originX
		ty[i] = wps.Y[i] - originY
		weights[i] = 1
	}

	// ty is zero wherever the weight is, so this is Σ w·ty².
	if floats.Dot(ty, ty) == 0 {
		return 0, false
	}
	_, gradient = stat.LinearRegression(ty, tx, weights, true)
	if !utils.IsFinite(gradient) {
		return 0, false
	}
	return gradient, true
}

// ImageBearing converts a heading gradient into degrees from vertical. A path
// bending to the right of the frame gives a positive bearing.
func ImageBearing(gradient float64) float64 {
	return -utils.RadToDeg(math.Atan(gradient))
}
