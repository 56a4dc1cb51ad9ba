// Package steering turns frames into steering commands. A FrameLoop runs the
// per-frame pipeline and a Driver paces it against a frame source.
package steering

import (
	"context"
	"image"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/whizz-mobility/pathsteer/config"
	"github.com/whizz-mobility/pathsteer/control"
	"github.com/whizz-mobility/pathsteer/rimage/calibration"
	"github.com/whizz-mobility/pathsteer/vision/pathing"
	"github.com/whizz-mobility/pathsteer/vision/segmentation"
)

// ErrNoPathDetected is reported for frames without enough ridable pixels to fit a
// heading. It is expected and does not stop the loop.
var ErrNoPathDetected = errors.New("no path detected")

// Result is the outcome of one frame.
type Result struct {
	// NoPath is set when no heading could be fitted. Command then holds the
	// controller's previous output, if HasCommand.
	NoPath     bool
	Command    float64
	HasCommand bool

	ImageBearing float64
	RealBearing  float64
	Gradient     float64
	Waypoints    pathing.Waypoints
	Geometry     *pathing.FrameGeometry
}

// Err returns ErrNoPathDetected for NoPath results.
func (r Result) Err() error {
	if r.NoPath {
		return ErrNoPathDetected
	}
	return nil
}

// LoopConfig holds the parts of a FrameLoop that can change between frames.
type LoopConfig struct {
	RidableClassID int
	Geometry       pathing.GeometryConfig
	Calibration    calibration.Polynomial
}

// A FrameLoop runs one frame at a time through segmentation, waypoint
// extraction, heading fit, calibration and the controller. It is not safe for
// concurrent use.
type FrameLoop struct {
	segmenter  segmentation.Segmenter
	controller *control.PID
	cfg        LoopConfig
	geometry   *pathing.FrameGeometry
	logger     golog.Logger

	// inspect, when set, sees every mask before it is dropped.
	inspect func(*segmentation.Mask)
}

// NewFrameLoop returns a FrameLoop feeding controller.
func NewFrameLoop(cfg LoopConfig, segmenter segmentation.Segmenter, controller *control.PID, logger golog.Logger) (*FrameLoop, error) {
	if segmenter == nil {
		return nil, errors.New("frame loop needs a segmenter")
	}
	if controller == nil {
		return nil, errors.New("frame loop needs a controller")
	}
	if err := cfg.Geometry.Validate("geometry"); err != nil {
		return nil, err
	}
	if cfg.Calibration.Degree() < 0 {
		cfg.Calibration = calibration.Identity()
	}
	return &FrameLoop{
		segmenter:  segmenter,
		controller: controller,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// NewFrameLoopFromConfig builds the segmenter, calibration and controller
// described by cfg.
func NewFrameLoopFromConfig(cfg *config.Config, clk clock.Clock, logger golog.Logger) (*FrameLoop, error) {
	loopCfg, seg, err := loopConfigFrom(cfg)
	if err != nil {
		return nil, err
	}
	pid, err := control.NewPID(cfg.PID, clk, logger.Named("pid"))
	if err != nil {
		return nil, err
	}
	return NewFrameLoop(loopCfg, seg, pid, logger)
}

func loopConfigFrom(cfg *config.Config) (LoopConfig, segmentation.Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return LoopConfig{}, nil, err
	}
	poly, err := calibration.NewPolynomial(cfg.Calibration.Coefficients)
	if err != nil {
		return LoopConfig{}, nil, err
	}
	seg, err := cfg.Segmenter.Build()
	if err != nil {
		return LoopConfig{}, nil, err
	}
	return LoopConfig{
		RidableClassID: cfg.RidableClass(),
		Geometry:       cfg.Geometry,
		Calibration:    poly,
	}, seg, nil
}

// Controller returns the controller the loop feeds.
func (fl *FrameLoop) Controller() *control.PID {
	return fl.controller
}

// Geometry returns the geometry of the last frame, or nil before the first one.
func (fl *FrameLoop) Geometry() *pathing.FrameGeometry {
	return fl.geometry
}

// SetMaskInspector registers f to be called with every mask produced.
func (fl *FrameLoop) SetMaskInspector(f func(*segmentation.Mask)) {
	fl.inspect = f
}

// Reconfigure swaps in a new config and, if non-nil, a new segmenter. The
// geometry is rebuilt on the next frame.
func (fl *FrameLoop) Reconfigure(cfg LoopConfig, segmenter segmentation.Segmenter) error {
	if err := cfg.Geometry.Validate("geometry"); err != nil {
		return err
	}
	if cfg.Calibration.Degree() < 0 {
		cfg.Calibration = calibration.Identity()
	}
	fl.cfg = cfg
	fl.geometry = nil
	if segmenter != nil {
		fl.segmenter = segmenter
	}
	return nil
}

// ApplyConfig reconfigures the loop and its controller from cfg.
func (fl *FrameLoop) ApplyConfig(cfg *config.Config) error {
	loopCfg, seg, err := loopConfigFrom(cfg)
	if err != nil {
		return err
	}
	if err := fl.controller.Reconfigure(cfg.PID); err != nil {
		return err
	}
	return fl.Reconfigure(loopCfg, seg)
}

func (fl *FrameLoop) geometryFor(width, height int) (*pathing.FrameGeometry, error) {
	if fl.geometry != nil && fl.geometry.Matches(width, height) {
		return fl.geometry, nil
	}
	geo, err := pathing.NewFrameGeometry(width, height, fl.cfg.Geometry)
	if err != nil {
		return nil, err
	}
	fl.logger.Infow("frame geometry", "geometry", geo.String())
	fl.geometry = geo
	return geo, nil
}

// Tick processes one frame. Frames without a path give a NoPath result and a
// nil error; the controller is left untouched for them.
func (fl *FrameLoop) Tick(ctx context.Context, frame image.Image) (Result, error) {
	mask, err := fl.segmenter(ctx, frame)
	if err != nil {
		return Result{}, errors.Wrap(err, "segmentation failed")
	}
	if fl.inspect != nil {
		fl.inspect(mask)
	}

	geo, err := fl.geometryFor(mask.Width, mask.Height)
	if err != nil {
		return Result{}, err
	}
	wps, err := pathing.ExtractWaypoints(mask, geo, fl.cfg.RidableClassID)
	if err != nil {
		return Result{}, err
	}

	res := Result{Waypoints: wps, Geometry: geo}
	gradient, ok := 0.0, false
	if wps.AnyValid() {
		gradient, ok = pathing.FitHeading(wps, geo.XOffset, geo.YOffset)
	}
	if !ok {
		res.NoPath = true
		res.Command, res.HasCommand = fl.controller.LastOutput()
		fl.logger.Debug("No waypoints detected. No steer output.")
		return res, nil
	}

	res.Gradient = gradient
	res.ImageBearing = pathing.ImageBearing(gradient)
	res.RealBearing = fl.cfg.Calibration.Map(res.ImageBearing)
	res.Command = fl.controller.Update(res.RealBearing)
	res.HasCommand = true
	fl.logger.Debugw("suggested steer",
		"degrees_to_vertical", res.ImageBearing,
		"real_bearing", res.RealBearing,
		"command", res.Command,
		"waypoints", wps.ValidCount(),
	)
	return res, nil
}
