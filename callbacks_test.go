package cadence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// tickRecorder returns a callback that records the tick it was invoked at.
func tickRecorder(s *Scheduler, ticks *[]uint64) func() {
	return func() {
		*ticks = append(*ticks, s.TickCount())
	}
}

func tickN(s *Scheduler, n int, dt float64) {
	for range n {
		s.Tick(dt)
	}
}

func TestCallbacks_CallRepeatFrame(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var fired []uint64
	id := c.CallRepeatFrame(tickRecorder(s, &fired), 2, 1)
	require.True(t, c.Scheduled(id))

	tickN(s, 6, 0)

	require.Equal(t, []uint64{2, 4}, fired)
	require.False(t, c.Scheduled(id))
	require.Equal(t, 0, c.Active())
}

func TestCallbacks_CallRepeatFrameForever(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var fired []uint64
	id := c.CallRepeatFrame(tickRecorder(s, &fired), 3, -1)

	tickN(s, 10, 0)

	require.Equal(t, []uint64{3, 6, 9}, fired)
	require.True(t, c.Scheduled(id))
}

func TestCallbacks_CallLaterFrame(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var later []uint64
	c.CallLaterFrame(tickRecorder(s, &later), 3)

	tickN(s, 5, 0)

	require.Equal(t, []uint64{3}, later)
}

func TestCallbacks_ScheduleDuringTick(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25})
	c := s.Callbacks()

	var next, endOfFrame, later []uint64

	var scheduled bool
	s.OnFixed(func(float64) {
		if scheduled {
			return
		}

		// the second tick is in progress
		if s.TickCount() == 1 {
			scheduled = true
			c.CallNextFrame(tickRecorder(s, &next))
			c.CallEndOfFrame(tickRecorder(s, &endOfFrame))
			c.CallLaterFrame(tickRecorder(s, &later), 2)
		}
	})

	tickN(s, 6, 0.25)

	require.Equal(t, []uint64{2}, endOfFrame)
	require.Equal(t, []uint64{3}, next)
	require.Equal(t, []uint64{4}, later)
}

func TestCallbacks_ScheduleBetweenTicks(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	s.Tick(0)

	var next, endOfFrame []uint64
	c.CallNextFrame(tickRecorder(s, &next))
	c.CallEndOfFrame(tickRecorder(s, &endOfFrame))

	tickN(s, 3, 0)

	// no tick is in progress, both run at the end of the next one
	require.Equal(t, []uint64{2}, next)
	require.Equal(t, []uint64{2}, endOfFrame)
}

func TestCallbacks_CallWhileCondition(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var polled []uint64
	condition := func() bool {
		polled = append(polled, s.TickCount())
		return s.TickCount() <= 2
	}

	var fired []uint64
	id := c.CallWhileCondition(tickRecorder(s, &fired), condition)

	tickN(s, 5, 0)

	require.Equal(t, []uint64{1, 2}, fired)
	require.Equal(t, []uint64{1, 2, 3}, polled)
	require.False(t, c.Scheduled(id))
}

func TestCallbacks_CallAfterCondition(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	condition := func() bool { return s.TickCount() >= 3 }

	var fired []uint64
	c.CallAfterCondition(tickRecorder(s, &fired), condition)

	tickN(s, 6, 0)

	require.Equal(t, []uint64{3}, fired)
	require.Equal(t, 0, c.Active())
}

func TestCallbacks_Seconds(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25})
	c := s.Callbacks()

	var later, repeated []uint64
	c.CallLaterSeconds(tickRecorder(s, &later), 0.5)
	c.CallRepeatSeconds(tickRecorder(s, &repeated), 0.5, 2)

	tickN(s, 10, 0.25)

	require.Equal(t, []uint64{2}, later)
	require.Equal(t, []uint64{2, 4, 6}, repeated)
}

func TestCallbacks_Cancel(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	require.False(t, c.Cancel(NoCallback))
	require.False(t, c.Cancel(makeCallbackId(99, 1)))

	var fired []uint64
	id := c.CallLaterFrame(tickRecorder(s, &fired), 1)

	require.True(t, c.Cancel(id))
	require.False(t, c.Cancel(id))

	tickN(s, 3, 0)
	require.Empty(t, fired)

	// the retired slot must not hold any subscription
	require.Equal(t, 0, s.Listeners(PhaseEndOfTick))
}

func TestCallbacks_SlotReuse(t *testing.T) {
	s := NewScheduler(SchedulerOptions{CallbackSlots: 1})
	c := s.Callbacks()

	var fired []uint64
	first := c.CallNextFrame(tickRecorder(s, &fired))
	s.Tick(0)

	require.Equal(t, []uint64{1}, fired)
	require.False(t, c.Scheduled(first))

	second := c.CallNextFrame(tickRecorder(s, &fired))
	require.Equal(t, first.Index(), second.Index())
	require.NotEqual(t, first.Generation(), second.Generation())

	// the stale id must not cancel the new callback
	require.False(t, c.Cancel(first))
	require.True(t, c.Scheduled(second))

	s.Tick(0)
	require.Equal(t, []uint64{1, 2}, fired)
	require.Equal(t, 1, c.Len())
}

func TestCallbacks_Grow(t *testing.T) {
	s := NewScheduler(SchedulerOptions{CallbackSlots: 2})
	c := s.Callbacks()
	require.Equal(t, 2, c.Len())

	var fired []uint64
	for range 3 {
		c.CallNextFrame(tickRecorder(s, &fired))
	}

	require.Equal(t, 3, c.Len())
	require.Equal(t, 3, c.Active())

	s.Tick(0)

	require.Len(t, fired, 3)
	require.Equal(t, 0, c.Active())

	// the pool never shrinks
	require.Equal(t, 3, c.Len())
}

func TestCallbacks_SelfCancel(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var calls int
	var id CallbackId
	id = c.CallRepeatFrame(func() {
		calls++
		c.Cancel(id)
	}, 1, -1)

	tickN(s, 3, 0)
	require.Equal(t, 1, calls)
}

func TestCallbacks_ScheduleFromCallback(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var inner []uint64
	c.CallNextFrame(func() {
		c.CallEndOfFrame(tickRecorder(s, &inner))
	})

	tickN(s, 3, 0)

	// the new callback is evaluated starting with the next broadcast
	require.Equal(t, []uint64{2}, inner)
}

func TestCallbacks_CancelAll(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	c := s.Callbacks()

	var fired []uint64
	c.CallNextFrame(tickRecorder(s, &fired))
	c.CallWhileCondition(tickRecorder(s, &fired), func() bool { return true })

	c.CancelAll()
	tickN(s, 2, 0)

	require.Empty(t, fired)
	require.Equal(t, 0, c.Active())
}
