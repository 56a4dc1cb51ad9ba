// Package pathing estimates a traversable heading from a segmentation mask. The
// cropped mask is cut into horizontal slices, each slice yields a waypoint at the
// centroid of its ridable pixels, and a line anchored at the vehicle is fitted
// through those waypoints.
package pathing

import (
	"fmt"
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/whizz-mobility/pathsteer/utils"
)

// sliceSnapTolerance absorbs float error in ratio*height so that a crop that is
// meant to land exactly on a slice boundary is not pushed down by one slice.
const sliceSnapTolerance = 1e-9

// GeometryConfig describes how a frame is cropped and sliced.
type GeometryConfig struct {
	CropUpperRatio     float64 `json:"crop_upper_ratio"`
	CropLowerRatio     float64 `json:"crop_lower_ratio"`
	NumSlices          int     `json:"n_slices"`
	MinRidableFraction float64 `json:"min_ridable_fraction"`
}

// DefaultGeometryConfig keeps the middle of the frame, dropping the sky above a
// quarter of the height and the vehicle's own body below 90%.
func DefaultGeometryConfig() GeometryConfig {
	return GeometryConfig{
		CropUpperRatio:     0.25,
		CropLowerRatio:     0.9,
		NumSlices:          20,
		MinRidableFraction: 0.1,
	}
}

// Validate ensures all parts of the config are valid.
func (c *GeometryConfig) Validate(path string) error {
	if c.NumSlices <= 0 {
		return utils.NewConfigValidationRangeError(path, "n_slices", c.NumSlices, "positive")
	}
	if c.CropUpperRatio < 0 || c.CropUpperRatio > 1 || math.IsNaN(c.CropUpperRatio) {
		return utils.NewConfigValidationRangeError(path, "crop_upper_ratio", c.CropUpperRatio, "in [0, 1]")
	}
	if c.CropLowerRatio < 0 || c.CropLowerRatio > 1 || math.IsNaN(c.CropLowerRatio) {
		return utils.NewConfigValidationRangeError(path, "crop_lower_ratio", c.CropLowerRatio, "in [0, 1]")
	}
	if c.CropUpperRatio >= c.CropLowerRatio {
		return utils.NewConfigValidationError(path,
			errors.Errorf("crop_upper_ratio (%v) must be below crop_lower_ratio (%v)", c.CropUpperRatio, c.CropLowerRatio))
	}
	if c.MinRidableFraction < 0 || c.MinRidableFraction > 1 || math.IsNaN(c.MinRidableFraction) {
		return utils.NewConfigValidationRangeError(path, "min_ridable_fraction", c.MinRidableFraction, "in [0, 1]")
	}
	return nil
}

// FrameGeometry holds the constants derived from a frame size and a
// GeometryConfig. It is immutable once built and is rebuilt only when the frame
// size or the config changes.
type FrameGeometry struct {
	Width  int
	Height int

	// TopCrop and BottomCrop bound the rows [TopCrop, BottomCrop) that are sliced.
	TopCrop     int
	BottomCrop  int
	CropHeight  int
	NumSlices   int
	SliceHeight int

	// MinRidableArea is the ridable pixel count a slice needs to yield a waypoint.
	MinRidableArea float64

	// XOffset and YOffset locate the vehicle in image coordinates.
	XOffset float64
	YOffset float64

	// RowIndex is NumSlices x SliceHeight; entry (s, r) is the image row of row r in slice s.
	RowIndex *mat.Dense
	// ColIndex holds the image column of every column, 0..Width-1.
	ColIndex []float64

	config GeometryConfig
}

// NewFrameGeometry derives the crop and slice layout for a width x height frame.
// The lower crop is snapped up so the crop height divides evenly into slices.
func NewFrameGeometry(width, height int, cfg GeometryConfig) (*FrameGeometry, error) {
	if err := cfg.Validate("geometry"); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, utils.NewConfigValidationError("geometry",
			errors.Errorf("frame dimensions must be positive, got %dx%d", width, height))
	}

	n := cfg.NumSlices
	top := int(math.Floor(cfg.CropUpperRatio * float64(height)))
	rawBottom := cfg.CropLowerRatio * float64(height)
	cropHeight := n * int(math.Floor((rawBottom-float64(top))/float64(n)+sliceSnapTolerance))
	if top+cropHeight > height {
		cropHeight -= n * int(math.Ceil(float64(top+cropHeight-height)/float64(n)))
	}
	if cropHeight <= 0 {
		return nil, utils.NewConfigValidationError("geometry",
			errors.Errorf("crop rows [%d, %.2f) of a %d row frame cannot hold %d slices", top, rawBottom, height, n))
	}
	sliceHeight := cropHeight / n

	rows := make([]float64, cropHeight)
	for i := range rows {
		rows[i] = float64(top + i)
	}
	cols := make([]float64, width)
	if width > 1 {
		floats.Span(cols, 0, float64(width-1))
	}

	return &FrameGeometry{
		Width:          width,
		Height:         height,
		TopCrop:        top,
		BottomCrop:     top + cropHeight,
		CropHeight:     cropHeight,
		NumSlices:      n,
		SliceHeight:    sliceHeight,
		MinRidableArea: float64(sliceHeight) * float64(width) * cfg.MinRidableFraction,
		XOffset:        float64(width) / 2,
		YOffset:        float64(height - 1),
		RowIndex:       mat.NewDense(n, sliceHeight, rows),
		ColIndex:       cols,
		config:         cfg,
	}, nil
}

// Config returns the config the geometry was built from.
func (g *FrameGeometry) Config() GeometryConfig {
	return g.config
}

// Matches reports whether the geometry was built for a frame of this size.
func (g *FrameGeometry) Matches(width, height int) bool {
	return g.Width == width && g.Height == height
}

// SliceBounds returns the image rectangle covered by slice i.
func (g *FrameGeometry) SliceBounds(i int) image.Rectangle {
	y0 := g.TopCrop + i*g.SliceHeight
	return image.Rect(0, y0, g.Width, y0+g.SliceHeight)
}

// Origin returns the vehicle's position in image coordinates.
func (g *FrameGeometry) Origin() (x, y float64) {
	return g.XOffset, g.YOffset
}

func (g *FrameGeometry) String() string {
	return fmt.Sprintf("%dx%d crop [%d,%d) %d slices of %d rows, min ridable area %.1f px",
		g.Width, g.Height, g.TopCrop, g.BottomCrop, g.NumSlices, g.SliceHeight, g.MinRidableArea)
}
