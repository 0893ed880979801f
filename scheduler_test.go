package cadence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type phaseRecorder struct {
	phases []Phase
	deltas []float64
}

func (r *phaseRecorder) listen(s *Scheduler, phases ...Phase) {
	for _, phase := range phases {
		s.Subscribe(phase, func(dt float64) {
			r.phases = append(r.phases, phase)
			r.deltas = append(r.deltas, dt)
		})
	}
}

func (r *phaseRecorder) count(phase Phase) int {
	var count int
	for _, p := range r.phases {
		if p == phase {
			count++
		}
	}

	return count
}

func TestScheduler_OneFixedStepPerFrame(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 1.0 / 60.0})

	var fixedPerTick []int

	var fixed int
	s.OnFixed(func(dt float64) {
		require.Equal(t, 1.0/60.0, dt)
		fixed++
	})

	s.OnEndOfTick(func(float64) {
		fixedPerTick = append(fixedPerTick, fixed)
		fixed = 0
	})

	for range 3 {
		s.Tick(1.0 / 60.0)
	}

	require.Equal(t, []int{1, 1, 1}, fixedPerTick)
	require.Equal(t, uint64(3), s.TickCount())
	require.InDelta(t, 3.0/60.0, s.Elapsed(), 1e-12)
}

func TestScheduler_RunawayGuard(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 1.0 / 60.0})

	var rec phaseRecorder
	rec.listen(s, PhaseVariable, PhaseFixed, PhaseLateFixed, PhaseEndOfTick)

	s.Tick(1.0)

	require.Equal(t, 0, rec.count(PhaseFixed))
	require.Equal(t, 0, rec.count(PhaseLateFixed))
	require.Equal(t, 0, rec.count(PhaseVariable))
	require.Equal(t, 1, rec.count(PhaseEndOfTick))

	require.Zero(t, s.Accumulator())
	require.False(t, s.PresentReady())

	// counters still advance
	require.Equal(t, uint64(1), s.TickCount())
	require.Equal(t, 1.0, s.Elapsed())

	count, dropped := s.Runaways()
	require.Equal(t, 1, count)
	require.Equal(t, 1.0, dropped)

	// the next regular tick simulates again
	s.Tick(1.0 / 60.0)
	require.Equal(t, 1, rec.count(PhaseFixed))
}

func TestScheduler_PhaseOrder(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25})

	var rec phaseRecorder
	rec.listen(s, PhaseEndOfTick, PhaseLateFixed, PhaseFixed, PhaseVariable)

	s.Tick(0.5)

	require.Equal(t, []Phase{
		PhaseVariable,
		PhaseFixed, PhaseLateFixed,
		PhaseFixed, PhaseLateFixed,
		PhaseEndOfTick,
	}, rec.phases)

	require.Equal(t, []float64{0.5, 0.25, 0.25, 0.25, 0.25, 0.5}, rec.deltas)
}

func TestScheduler_AccumulatesRemainder(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25})

	var fixed int
	s.OnFixed(func(float64) { fixed++ })

	s.Tick(0.125)
	require.Equal(t, 0, fixed)
	require.Equal(t, 0.125, s.Accumulator())

	s.Tick(0.125)
	require.Equal(t, 1, fixed)
	require.Zero(t, s.Accumulator())
}

func TestScheduler_SubscriptionSnapshot(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})

	var calls []string

	var second *Subscription
	s.OnEndOfTick(func(float64) {
		calls = append(calls, "first")

		// removing the second listener takes effect at the next broadcast
		second.Cancel()

		// same for adding a new listener
		s.OnEndOfTick(func(float64) { calls = append(calls, "added") })
	})

	second = s.OnEndOfTick(func(float64) { calls = append(calls, "second") })

	s.Tick(0)
	require.Equal(t, []string{"first", "second"}, calls)

	calls = nil

	s.Tick(0)
	require.Equal(t, []string{"first", "added"}, calls)
}

func TestSubscription_Cancel(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})

	var calls int
	sub := s.OnVariable(func(float64) { calls++ })
	require.True(t, sub.Active())
	require.Equal(t, 1, s.Listeners(PhaseVariable))

	require.True(t, sub.Cancel())
	require.False(t, sub.Cancel())
	require.False(t, sub.Active())
	require.Equal(t, 0, s.Listeners(PhaseVariable))

	s.Tick(0)
	require.Equal(t, 0, calls)

	var nilSub *Subscription
	require.False(t, nilSub.Cancel())
}

func TestScheduler_Draw(t *testing.T) {
	t.Run("every tick", func(t *testing.T) {
		s := NewScheduler(SchedulerOptions{FixedStep: 0.25})

		var remainder []float64
		s.OnDraw(func(dt float64) { remainder = append(remainder, dt) })

		require.False(t, s.Draw())

		s.Tick(0.375)
		require.True(t, s.PresentReady())
		require.True(t, s.Draw())
		require.False(t, s.PresentReady())

		// only once per tick
		require.False(t, s.Draw())

		require.Equal(t, []float64{0.125}, remainder)
	})

	t.Run("fixed draw", func(t *testing.T) {
		s := NewScheduler(SchedulerOptions{FixedStep: 0.25, FixedDraw: true, DrawStep: 0.5})

		var ready []bool
		for range 4 {
			s.Tick(0.25)
			ready = append(ready, s.Draw())
		}

		require.Equal(t, []bool{false, true, false, true}, ready)
	})
}

func TestScheduler_Reentrancy(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25})

	s.OnFixed(func(float64) { s.Tick(0.25) })
	require.Panics(t, func() { s.Tick(0.25) })

	other := NewScheduler(SchedulerOptions{})
	other.OnDraw(func(float64) { other.Draw() })
	other.Tick(0)
	require.Panics(t, func() { other.Draw() })
}

func TestScheduler_InvalidInput(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25})
	require.Panics(t, func() { s.Tick(-1) })
	require.Panics(t, func() { s.Tick(math.NaN()) })
	require.Panics(t, func() { s.Tick(math.Inf(1)) })

	// rejected deltas leave the scheduler untouched
	require.Equal(t, uint64(0), s.TickCount())
	require.Zero(t, s.Accumulator())

	var steps int
	s.OnFixed(func(float64) { steps++ })
	tickN(s, 4, 0.25)
	require.Equal(t, 4, steps)

	require.Panics(t, func() { NewScheduler(SchedulerOptions{FixedStep: -1}) })
	require.Panics(t, func() { NewScheduler(SchedulerOptions{FixedStep: math.NaN()}) })
	require.Panics(t, func() { NewScheduler(SchedulerOptions{RunawayFactor: 0.5}) })
}

func TestScheduler_TimingStats(t *testing.T) {
	var stats TimingStats
	s := NewScheduler(SchedulerOptions{FixedStep: 0.25, Stats: &stats})

	s.Tick(0.5)
	s.Tick(10)

	require.Equal(t, 1, stats.Runaway)
	require.Equal(t, 2, stats.Phase(PhaseFixed).Count)
	require.Equal(t, 2, stats.Phase(PhaseEndOfTick).Count)
}
