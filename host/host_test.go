package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oliverbestmann/cadence"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by the waited duration plus a fixed lag.
type fakeClock struct {
	now  time.Time
	lag  time.Duration
	fail error

	waits int
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.fail != nil {
		return c.fail
	}

	c.waits++
	c.now = c.now.Add(d + c.lag)
	return nil
}

func TestRun_Duration(t *testing.T) {
	scheduler := cadence.NewScheduler(cadence.SchedulerOptions{FixedStep: 0.25})

	var fixed, drawn int
	scheduler.OnFixed(func(float64) { fixed++ })
	scheduler.OnDraw(func(float64) { drawn++ })

	clock := &fakeClock{now: time.Unix(0, 0)}

	err := Run(context.Background(), scheduler, Options{
		TickRate: 250 * time.Millisecond,
		Duration: 2 * time.Second,
		Clock:    clock,
	})

	require.NoError(t, err)
	require.Equal(t, uint64(8), scheduler.TickCount())
	require.Equal(t, 8, fixed)
	require.Equal(t, 8, drawn)
	require.Equal(t, 2.0, scheduler.Elapsed())
}

func TestRun_Lagging(t *testing.T) {
	scheduler := cadence.NewScheduler(cadence.SchedulerOptions{FixedStep: 0.25})

	// every tick takes two steps worth of wall time
	clock := &fakeClock{now: time.Unix(0, 0), lag: 250 * time.Millisecond}

	err := Run(context.Background(), scheduler, Options{
		TickRate: 250 * time.Millisecond,
		Duration: 2 * time.Second,
		Clock:    clock,
	})

	require.NoError(t, err)
	require.Equal(t, uint64(4), scheduler.TickCount())
	require.Equal(t, 2.0, scheduler.Elapsed())
}

func TestRun_Cancel(t *testing.T) {
	scheduler := cadence.NewScheduler(cadence.SchedulerOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.OnEndOfTick(func(float64) {
		if scheduler.TickCount() == 3 {
			cancel()
		}
	})

	err := Run(ctx, scheduler, Options{Clock: &fakeClock{now: time.Unix(0, 0)}})
	require.NoError(t, err)
	require.Equal(t, uint64(3), scheduler.TickCount())
}

func TestRun_ClockError(t *testing.T) {
	scheduler := cadence.NewScheduler(cadence.SchedulerOptions{})

	failure := errors.New("clock failed")
	err := Run(context.Background(), scheduler, Options{Clock: &fakeClock{fail: failure}})

	require.ErrorIs(t, err, failure)
	require.Zero(t, scheduler.TickCount())
}
