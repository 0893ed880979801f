// Package host drives a Scheduler from the wall clock without a window.
package host

import (
	"context"
	"errors"
	"time"

	"github.com/oliverbestmann/cadence"
	"go.uber.org/zap"
)

// Clock provides the wall time to a host.
type Clock interface {
	Now() time.Time

	// Wait blocks for the given duration or until the context is done.
	Wait(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WallClock is the Clock backed by the system time.
var WallClock Clock = wallClock{}

type Options struct {
	// TickRate is the wall time between two ticks.
	TickRate time.Duration

	// Duration stops the host after the given amount of wall time. Zero runs until the context is done.
	Duration time.Duration

	Clock  Clock
	Logger *zap.Logger
}

// Run calls Scheduler.Tick with the measured wall delta once per TickRate and
// Scheduler.Draw whenever a frame is ready to be presented. Run returns nil if
// the context is cancelled or the duration elapsed.
func Run(ctx context.Context, scheduler *cadence.Scheduler, opts Options) error {
	if opts.TickRate <= 0 {
		opts.TickRate = time.Second / 60
	}

	if opts.Clock == nil {
		opts.Clock = WallClock
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	log := opts.Logger

	log.Info("Host started",
		zap.Duration("tickRate", opts.TickRate),
		zap.Duration("duration", opts.Duration),
	)

	start := opts.Clock.Now()
	previous := start

	var frames int

	for {
		err := opts.Clock.Wait(ctx, opts.TickRate)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Info("Host stopped", zap.Uint64("ticks", scheduler.TickCount()), zap.Int("frames", frames))
			return nil

		case err != nil:
			return err
		}

		now := opts.Clock.Now()

		scheduler.Tick(now.Sub(previous).Seconds())
		previous = now

		if scheduler.Draw() {
			frames++
		}

		if opts.Duration > 0 && now.Sub(start) >= opts.Duration {
			log.Info("Host finished", zap.Uint64("ticks", scheduler.TickCount()), zap.Int("frames", frames))
			return nil
		}
	}
}
