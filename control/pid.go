package control

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/whizz-mobility/pathsteer/utils"
)

// minStep stands in for a zero interval between two updates so the derivative
// term stays finite.
const minStep = time.Nanosecond

// PIDConfig configures a PID controller. Nil limits leave that side unclamped.
type PIDConfig struct {
	Kp         float64  `json:"kp"`
	Ki         float64  `json:"ki"`
	Kd         float64  `json:"kd"`
	SetPoint   float64  `json:"set_point"`
	UpperLimit *float64 `json:"upper_limit,omitempty"`
	LowerLimit *float64 `json:"lower_limit,omitempty"`
	// StartManual creates the controller in manual mode.
	StartManual bool `json:"start_manual,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *PIDConfig) Validate(path string) error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"kp", c.Kp},
		{"ki", c.Ki},
		{"kd", c.Kd},
		{"set_point", c.SetPoint},
	} {
		if !utils.IsFinite(f.value) {
			return utils.NewConfigValidationRangeError(path, f.name, f.value, "finite")
		}
	}
	if c.UpperLimit != nil && !utils.IsFinite(*c.UpperLimit) {
		return utils.NewConfigValidationRangeError(path, "upper_limit", *c.UpperLimit, "finite")
	}
	if c.LowerLimit != nil && !utils.IsFinite(*c.LowerLimit) {
		return utils.NewConfigValidationRangeError(path, "lower_limit", *c.LowerLimit, "finite")
	}
	if c.UpperLimit != nil && c.LowerLimit != nil && *c.LowerLimit > *c.UpperLimit {
		return utils.NewConfigValidationError(path,
			errors.Errorf("lower_limit (%v) is above upper_limit (%v)", *c.LowerLimit, *c.UpperLimit))
	}
	return nil
}

// PID is a PID controller with a clamped integral term and a manual mode. In
// manual mode Update holds the last output so an operator can take over without
// disturbing the controller's state.
type PID struct {
	mu     sync.Mutex
	clock  clock.Clock
	logger golog.Logger

	kp, ki, kd float64
	setPoint   float64
	upper      *float64
	lower      *float64

	p, i, d float64

	lastTime     time.Time
	hasLastTime  bool
	lastFeedback float64
	hasFeedback  bool
	lastOutput   float64
	hasOutput    bool

	autoMode bool
}

// NewPID returns a PID controller reading time from clk. A nil clk uses the wall
// clock.
func NewPID(cfg PIDConfig, clk clock.Clock, logger golog.Logger) (*PID, error) {
	if err := cfg.Validate("pid"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	pid := &PID{clock: clk, logger: logger, autoMode: !cfg.StartManual}
	pid.configure(cfg)
	return pid, nil
}

func (pid *PID) configure(cfg PIDConfig) {
	pid.kp, pid.ki, pid.kd = cfg.Kp, cfg.Ki, cfg.Kd
	pid.setPoint = cfg.SetPoint
	pid.upper = copyLimit(cfg.UpperLimit)
	pid.lower = copyLimit(cfg.LowerLimit)
}

func copyLimit(l *float64) *float64 {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}

// Reconfigure applies new gains, set point and limits while keeping the
// accumulated state. The integral is re-clamped to the new limits.
func (pid *PID) Reconfigure(cfg PIDConfig) error {
	if err := cfg.Validate("pid"); err != nil {
		return err
	}
	pid.mu.Lock()
	defer pid.mu.Unlock()
	pid.configure(cfg)
	pid.i = pid.clamp(pid.i)
	return nil
}

// SetTunings changes the gains.
func (pid *PID) SetTunings(kp, ki, kd float64) error {
	if !utils.IsFinite(kp) || !utils.IsFinite(ki) || !utils.IsFinite(kd) {
		return errors.Errorf("gains must be finite, got kp=%v ki=%v kd=%v", kp, ki, kd)
	}
	pid.mu.Lock()
	defer pid.mu.Unlock()
	pid.kp, pid.ki, pid.kd = kp, ki, kd
	return nil
}

func (pid *PID) clamp(v float64) float64 {
	return utils.ClampOptional(v, pid.lower, pid.upper)
}

// Update computes a new output from feedback. In manual mode it returns the last
// output unchanged, or 0 if there has never been one.
func (pid *PID) Update(feedback float64) float64 {
	pid.mu.Lock()
	defer pid.mu.Unlock()

	if !pid.autoMode {
		if !pid.hasOutput {
			pid.logger.Warnw("PID updated in manual mode before any output was produced, returning 0", "feedback", feedback)
			return 0
		}
		return pid.lastOutput
	}

	now := pid.clock.Now()
	dt := math.Inf(1)
	if pid.hasLastTime {
		step := now.Sub(pid.lastTime)
		if step <= 0 {
			step = minStep
		}
		dt = step.Seconds()
	}

	dFeedback := feedback
	if pid.hasFeedback {
		dFeedback = feedback - pid.lastFeedback
	}

	err := pid.setPoint - feedback
	pid.p = pid.kp * err
	// no interval has been measured yet, so neither the integral nor the
	// derivative can move
	if math.IsInf(dt, 1) {
		pid.d = 0
	} else {
		pid.i = pid.clamp(pid.i + pid.ki*err*dt)
		pid.d = -pid.kd * dFeedback / dt
	}

	output := pid.clamp(pid.p + pid.i + pid.d)

	pid.lastFeedback, pid.hasFeedback = feedback, true
	pid.lastTime, pid.hasLastTime = now, true
	pid.lastOutput, pid.hasOutput = output, true
	return output
}

// AutoMode reports whether the controller is computing outputs.
func (pid *PID) AutoMode() bool {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	return pid.autoMode
}

// ToggleAutoMode switches between auto and manual mode. Re-entering auto mode
// clears the controller's history and seeds the integral with the last output so
// the output resumes without a jump.
func (pid *PID) ToggleAutoMode() {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	pid.setAutoMode(!pid.autoMode)
}

// SetAutoMode enables or disables auto mode. Enabling an already enabled
// controller does nothing.
func (pid *PID) SetAutoMode(enabled bool) {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	pid.setAutoMode(enabled)
}

func (pid *PID) setAutoMode(enabled bool) {
	if enabled && !pid.autoMode {
		pid.reset()
		if pid.hasOutput {
			pid.i = pid.clamp(pid.lastOutput)
		}
		pid.logger.Debugw("PID switched to auto mode", "integral", pid.i)
	} else if !enabled && pid.autoMode {
		pid.logger.Debug("PID switched to manual mode")
	}
	pid.autoMode = enabled
}

// reset clears the terms and the update history but keeps the last output.
func (pid *PID) reset() {
	pid.p, pid.i, pid.d = 0, 0, 0
	pid.lastTime, pid.hasLastTime = time.Time{}, false
	pid.lastFeedback, pid.hasFeedback = 0, false
}

// Reset returns the controller to its freshly constructed state, forgetting the
// last output as well.
func (pid *PID) Reset() {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	pid.reset()
	pid.lastOutput, pid.hasOutput = 0, false
}

// Components returns the proportional, integral and derivative terms of the most
// recent update.
func (pid *PID) Components() (p, i, d float64) {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	return pid.p, pid.i, pid.d
}

// LastOutput returns the most recent output, if any.
func (pid *PID) LastOutput() (float64, bool) {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	return pid.lastOutput, pid.hasOutput
}

// Limits returns the output limits, nil where unset.
func (pid *PID) Limits() (lower, upper *float64) {
	pid.mu.Lock()
	defer pid.mu.Unlock()
	return copyLimit(pid.lower), copyLimit(pid.upper)
}
