package steering

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/whizz-mobility/pathsteer/config"
	"github.com/whizz-mobility/pathsteer/rimage"
)

// An Actuator applies steering commands to the vehicle.
type Actuator interface {
	SetSteering(ctx context.Context, command float64) error
}

// ResultFunc is called with every processed frame before the frame is released.
type ResultFunc func(ctx context.Context, index int, frame image.Image, res Result) error

// DriverConfig configures a Driver. Only Source and Loop are required.
type DriverConfig struct {
	Source rimage.FrameSource
	Loop   *FrameLoop
	// Interval is the pause between finishing one frame and starting the next.
	Interval time.Duration
	Actuator Actuator
	OnResult ResultFunc
	// Reloads delivers new configs, which are applied between frames.
	Reloads <-chan *config.Config
	Clock   clock.Clock
}

// A Driver pulls frames from a source and runs them through a FrameLoop, one at a
// time. The next frame is only requested once the current one is done and the
// interval has passed, so slow frames delay the schedule rather than queue up.
type Driver struct {
	cfg    DriverConfig
	clock  clock.Clock
	stats  *RunStats
	logger golog.Logger
}

// NewDriver returns a Driver for cfg.
func NewDriver(cfg DriverConfig, logger golog.Logger) (*Driver, error) {
	if cfg.Source == nil {
		return nil, errors.New("driver needs a frame source")
	}
	if cfg.Loop == nil {
		return nil, errors.New("driver needs a frame loop")
	}
	if cfg.Interval < 0 {
		return nil, errors.Errorf("interval must not be negative, got %s", cfg.Interval)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Driver{cfg: cfg, clock: clk, stats: &RunStats{}, logger: logger}, nil
}

// Stats returns the statistics gathered so far.
func (d *Driver) Stats() *RunStats {
	return d.stats
}

// Run processes frames until the source is exhausted or ctx is done. Neither
// counts as a failure. Per-frame errors are logged and skipped.
func (d *Driver) Run(ctx context.Context) error {
	for index := 0; ; index++ {
		if ctx.Err() != nil {
			return nil
		}
		done, err := d.step(ctx, index)
		if err != nil {
			return err
		}
		if done {
			d.logger.Infow("frame source ended", "frames", index)
			return nil
		}
		if !d.wait(ctx) {
			return nil
		}
	}
}

func (d *Driver) step(ctx context.Context, index int) (bool, error) {
	start := d.clock.Now()
	frame, release, err := d.cfg.Source.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return true, nil
	case err != nil && ctx.Err() != nil:
		return true, nil
	case err != nil:
		d.stats.record(Result{}, err, d.clock.Since(start))
		d.logger.Warnw("failed to get frame", "frame", index, "error", err)
		return false, nil
	}
	defer release()

	res, err := d.cfg.Loop.Tick(ctx, frame)
	d.stats.record(res, err, d.clock.Since(start))
	if err != nil {
		d.logger.Warnw("frame failed", "frame", index, "error", err)
		return false, nil
	}
	if !res.NoPath && d.cfg.Actuator != nil {
		if err := d.cfg.Actuator.SetSteering(ctx, res.Command); err != nil {
			d.logger.Warnw("failed to set steering", "frame", index, "command", res.Command, "error", err)
		}
	}
	if d.cfg.OnResult != nil {
		if err := d.cfg.OnResult(ctx, index, frame, res); err != nil {
			d.logger.Warnw("result handler failed", "frame", index, "error", err)
		}
	}
	return false, nil
}

// wait sleeps for the interval, applying any config that arrives meanwhile. It
// returns false if ctx is done first.
func (d *Driver) wait(ctx context.Context) bool {
	timer := d.clock.Timer(d.cfg.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case cfg, ok := <-d.cfg.Reloads:
			if !ok {
				d.cfg.Reloads = nil
				continue
			}
			d.apply(cfg)
		}
	}
}

func (d *Driver) apply(cfg *config.Config) {
	if err := d.cfg.Loop.ApplyConfig(cfg); err != nil {
		d.logger.Warnw("not applying new config", "error", err)
		return
	}
	d.cfg.Interval = cfg.Interval()
	d.logger.Infow("applied new config", "path", cfg.ConfigFilePath, "interval", d.cfg.Interval)
}
