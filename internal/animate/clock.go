// Package animate maps wall time to orbital phase. Nothing is precomputed:
// any timestamp or frame index yields a phase, and renderers choose their
// own stepping. Frame state lives entirely in the caller's chosen phase.
package animate

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/luna/lunago/internal/metrics"
	"github.com/luna/lunago/internal/orbit"
)

// Reference animation driver: 100 frames per revolution, 100 ms apart.
const (
	DefaultSteps         = 100
	DefaultFrameInterval = 100 * time.Millisecond
)

// Clock converts wall time to orbital phase. One revolution spans
// steps × interval; phase wraps at 2π. Immutable after construction, safe
// for concurrent use.
type Clock struct {
	steps    int
	interval time.Duration
	epoch    time.Time
	logger   *slog.Logger
}

// NewClock creates a clock with the given frames-per-revolution and frame
// interval. The epoch is fixed at creation.
func NewClock(steps int, interval time.Duration, logger *slog.Logger) (*Clock, error) {
	if steps < 1 {
		return nil, errors.Wrapf(orbit.ErrInvalidParameter, "animation steps %d must be positive", steps)
	}
	if interval <= 0 {
		return nil, errors.Wrapf(orbit.ErrInvalidParameter, "frame interval %s must be positive", interval)
	}
	return &Clock{
		steps:    steps,
		interval: interval,
		epoch:    time.Now(),
		logger:   logger,
	}, nil
}

// Steps returns the frames per revolution.
func (c *Clock) Steps() int { return c.steps }

// FrameInterval returns the wall time between frames.
func (c *Clock) FrameInterval() time.Duration { return c.interval }

// Period returns the wall time of one full revolution.
func (c *Clock) Period() time.Duration {
	return time.Duration(c.steps) * c.interval
}

// PhaseAt returns the continuous phase in [0, 2π) at time t.
func (c *Clock) PhaseAt(t time.Time) float64 {
	period := c.Period().Seconds()
	elapsed := t.Sub(c.epoch).Seconds()
	frac := math.Mod(elapsed, period) / period
	if frac < 0 {
		frac++
	}
	return orbit.NormalizeAngle(2 * math.Pi * frac)
}

// StepPhase returns the phase of frame index i: 2π·i/steps, wrapped.
func (c *Clock) StepPhase(i int) float64 {
	return orbit.NormalizeAngle(2 * math.Pi * float64(i) / float64(c.steps))
}

// FrameIndexAt returns the frame index within the current revolution at t.
func (c *Clock) FrameIndexAt(t time.Time) int {
	return int(c.PhaseAt(t) / (2 * math.Pi) * float64(c.steps))
}

// Start publishes the current phase gauge every frame interval until ctx is
// cancelled. The clock itself needs no driving; this loop exists only for
// observability.
func (c *Clock) Start(ctx context.Context) {
	c.logger.Info("animation clock started",
		"steps", c.steps,
		"frame_interval_ms", c.interval.Milliseconds(),
		"period_seconds", c.Period().Seconds(),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("animation clock stopped")
			return
		case t := <-ticker.C:
			metrics.SetAnimationPhase(c.PhaseAt(t))
		}
	}
}
