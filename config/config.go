// Package config defines the configuration of a pathsteer run and reads it from
// JSON files.
package config

import (
	"math"
	"time"

	"go.uber.org/multierr"

	"github.com/whizz-mobility/pathsteer/control"
	"github.com/whizz-mobility/pathsteer/logging"
	"github.com/whizz-mobility/pathsteer/rimage/calibration"
	"github.com/whizz-mobility/pathsteer/utils"
	"github.com/whizz-mobility/pathsteer/vision/pathing"
)

// DefaultRateHz is the nominal frame rate of the source video.
const DefaultRateHz = 24

// Config describes one vehicle's steering pipeline.
type Config struct {
	ConfigFilePath string `json:"-"`

	// RidableClassID is the mask class the vehicle may drive on. It must be set
	// explicitly since class numbering differs between models.
	RidableClassID *int    `json:"ridable_class_id" jsonschema:"required"`
	RateHz         float64 `json:"rate_hz,omitempty"`

	Geometry    pathing.GeometryConfig `json:"geometry"`
	Calibration calibration.Config     `json:"calibration"`
	PID         control.PIDConfig      `json:"pid"`
	Segmenter   SegmenterConfig        `json:"segmenter"`
	Log         logging.Config         `json:"log,omitempty"`
}

// Default returns a complete config for a Cityscapes model whose sidewalk class
// is ridable.
func Default() *Config {
	ridable := 1
	lower, upper := -30.0, 30.0
	return &Config{
		RidableClassID: &ridable,
		RateHz:         DefaultRateHz,
		Geometry:       pathing.DefaultGeometryConfig(),
		Calibration:    calibration.Config{Coefficients: calibration.Identity().Coefficients()},
		PID: control.PIDConfig{
			Kp:         1,
			LowerLimit: &lower,
			UpperLimit: &upper,
		},
		Segmenter: SegmenterConfig{Type: LabelImageSegmenter},
	}
}

// RidableClass returns the ridable class id, or -1 if unset.
func (c *Config) RidableClass() int {
	if c.RidableClassID == nil {
		return -1
	}
	return *c.RidableClassID
}

// Interval returns the time between two frames.
func (c *Config) Interval() time.Duration {
	rate := c.RateHz
	if rate <= 0 {
		rate = DefaultRateHz
	}
	return time.Duration(float64(time.Second) / rate)
}

// Validate returns every problem with the config.
func (c *Config) Validate() error {
	var err error
	switch {
	case c.RidableClassID == nil:
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("", "ridable_class_id"))
	case *c.RidableClassID < 0:
		err = multierr.Append(err, utils.NewConfigValidationRangeError("", "ridable_class_id", *c.RidableClassID, "non-negative"))
	}
	if c.RateHz < 0 || math.IsNaN(c.RateHz) || math.IsInf(c.RateHz, 0) {
		err = multierr.Append(err, utils.NewConfigValidationRangeError("", "rate_hz", c.RateHz, "positive"))
	}
	return multierr.Combine(
		err,
		c.Geometry.Validate("geometry"),
		c.Calibration.Validate("calibration"),
		c.PID.Validate("pid"),
		c.Segmenter.Validate("segmenter"),
		c.Log.Validate("log"),
	)
}
