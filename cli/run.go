package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/whizz-mobility/pathsteer/config"
	"github.com/whizz-mobility/pathsteer/logging"
	"github.com/whizz-mobility/pathsteer/rimage"
	"github.com/whizz-mobility/pathsteer/steering"
	"github.com/whizz-mobility/pathsteer/vision/segmentation"
)

func (a *pathsteerApp) runAction(c *cli.Context) (err error) {
	cfg, err := a.loadConfig(c, true)
	if err != nil {
		return err
	}
	if c.IsSet(runFlagRate) {
		cfg.RateHz = c.Float64(runFlagRate)
	}
	if c.Bool(runFlagManual) {
		cfg.PID.StartManual = true
		warningf(c.App.ErrWriter, "controller starts in manual mode and holds its output until switched to auto")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.FromConfig("pathsteer", cfg.Log, c.Bool(generalFlagDebug))
	if err != nil {
		return err
	}
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	loop, err := steering.NewFrameLoopFromConfig(cfg, nil, logger)
	if err != nil {
		return err
	}
	src, err := rimage.NewDirectorySource(c.String(runFlagFrames), c.Bool(runFlagLoop))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, src.Close())
	}()

	driverCfg := steering.DriverConfig{
		Source:   src,
		Loop:     loop,
		Interval: cfg.Interval(),
	}
	if c.Bool(runFlagPrintCommands) {
		driverCfg.Actuator = &printingActuator{w: c.App.Writer}
	}
	if dir := c.String(runFlagOverlayDir); dir != "" {
		ow, err := newOverlayWriter(dir, &cfg.Segmenter)
		if err != nil {
			return err
		}
		loop.SetMaskInspector(ow.inspect)
		driverCfg.OnResult = ow.write
	}
	if c.Bool(runFlagWatch) {
		w, watchErr := config.NewWatcher(c.Context, cfg.ConfigFilePath, logger.Named("watcher"))
		if watchErr != nil {
			return watchErr
		}
		defer func() {
			err = multierr.Combine(err, w.Close())
		}()
		driverCfg.Reloads = w.Configs()
	}

	driver, err := steering.NewDriver(driverCfg, logger.Named("driver"))
	if err != nil {
		return err
	}
	logger.Infow("starting", "frames", c.String(runFlagFrames), "count", src.Len(), "interval", driverCfg.Interval)
	if err := driver.Run(c.Context); err != nil {
		return err
	}
	printf(c.App.Writer, "%s", driver.Stats().Summary())
	if fn := c.String(runFlagPlot); fn != "" {
		if err := driver.Stats().SavePlot(fn); err != nil {
			warningf(c.App.ErrWriter, "%v", err)
		}
	}
	return nil
}

// printingActuator writes every command instead of moving anything.
type printingActuator struct {
	w io.Writer
}

func (pa *printingActuator) SetSteering(ctx context.Context, command float64) error {
	printf(pa.w, "steer %.2f", command)
	return nil
}

// overlayWriter saves one diagnostic image per frame.
type overlayWriter struct {
	dir      string
	palette  segmentation.Palette
	lastMask *segmentation.Mask
}

func newOverlayWriter(dir string, sc *config.SegmenterConfig) (*overlayWriter, error) {
	pal, err := sc.DisplayPalette()
	if err != nil {
		return nil, err
	}
	return &overlayWriter{dir: dir, palette: pal}, nil
}

func (ow *overlayWriter) inspect(mask *segmentation.Mask) {
	ow.lastMask = mask
}

func (ow *overlayWriter) write(ctx context.Context, index int, frame image.Image, res steering.Result) error {
	if ow.lastMask == nil {
		return errors.New("no mask to draw")
	}
	img := rimage.DrawPathOverlay(frame, overlayFor(ow.lastMask, ow.palette, res))
	return rimage.WriteImageToFile(filepath.Join(ow.dir, fmt.Sprintf("frame_%06d.png", index)), img)
}

func overlayFor(mask *segmentation.Mask, pal segmentation.Palette, res steering.Result) rimage.PathOverlay {
	ov := rimage.PathOverlay{
		Size:     image.Pt(mask.Width, mask.Height),
		Mask:     pal.Colorize(mask),
		Gradient: res.Gradient,
		Fitted:   !res.NoPath,
	}
	if geo := res.Geometry; geo != nil {
		ov.Crop = image.Rect(0, geo.TopCrop, geo.Width, geo.TopCrop+geo.CropHeight)
	}
	for i, ok := range res.Waypoints.Valid {
		if ok {
			ov.Waypoints = append(ov.Waypoints, r2.Vec{X: res.Waypoints.X[i], Y: res.Waypoints.Y[i]})
		}
	}
	switch {
	case !res.NoPath:
		ov.Text = fmt.Sprintf("bearing %.1f deg, steer %.1f", res.RealBearing, res.Command)
	case res.HasCommand:
		ov.Text = fmt.Sprintf("no path, holding %.1f", res.Command)
	default:
		ov.Text = "no path"
	}
	return ov
}
