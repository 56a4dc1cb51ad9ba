package pathing

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/whizz-mobility/pathsteer/vision/segmentation"
)

// Waypoints are the per-slice centroids of ridable pixels, ordered from the top
// slice to the bottom one. Invalid slices report X == Y == 0.
type Waypoints struct {
	X     []float64
	Y     []float64
	Area  []float64
	Valid []bool
}

// Len returns the number of slices.
func (w Waypoints) Len() int {
	return len(w.Valid)
}

// AnyValid reports whether at least one slice produced a waypoint.
func (w Waypoints) AnyValid() bool {
	return lo.Contains(w.Valid, true)
}

// ValidCount returns how many slices produced a waypoint.
func (w Waypoints) ValidCount() int {
	return lo.Count(w.Valid, true)
}

// ExtractWaypoints computes one waypoint per slice of geo from the pixels of mask
// labelled ridableClassID. A slice is valid when its ridable area is non-zero and
// reaches geo.MinRidableArea.
func ExtractWaypoints(mask *segmentation.Mask, geo *FrameGeometry, ridableClassID int) (Waypoints, error) {
	if mask == nil {
		return Waypoints{}, errors.New("no mask to extract waypoints from")
	}
	if !geo.Matches(mask.Width, mask.Height) {
		return Waypoints{}, errors.Errorf("mask is %dx%d but geometry expects %dx%d",
			mask.Width, mask.Height, geo.Width, geo.Height)
	}

	n := geo.NumSlices
	wps := Waypoints{
		X:     make([]float64, n),
		Y:     make([]float64, n),
		Area:  make([]float64, n),
		Valid: make([]bool, n),
	}
	for s := 0; s < n; s++ {
		var area, sumX, sumY float64
		for r := 0; r < geo.SliceHeight; r++ {
			y := geo.RowIndex.At(s, r)
			for x, class := range mask.Row(int(y)) {
				if class != ridableClassID {
					continue
				}
				area++
				sumX += geo.ColIndex[x]
				sumY += y
			}
		}
		wps.Area[s] = area
		if area == 0 || area < geo.MinRidableArea {
			continue
		}
		wps.Valid[s] = true
		wps.X[s] = sumX / area
		wps.Y[s] = sumY / area
	}
	return wps, nil
}
