package cadence

import (
	"time"
)

type Timings struct {
	Count         int
	Latest        time.Duration
	MovingAverage time.Duration
	Min, Max      time.Duration
}

func (t Timings) Add(d time.Duration) Timings {
	t.Latest = d

	if t.Count == 0 {
		t.Min = d
		t.Max = d
	} else {
		t.Min = min(t.Min, d)
		t.Max = max(t.Max, d)
	}

	t.MovingAverage = (95*t.MovingAverage + 5*d) / 100

	t.Count += 1

	return t
}

// TimingStats collects how long the broadcasts of each phase take.
// Pass it to a Scheduler using SchedulerOptions.Stats.
type TimingStats struct {
	ByPhase [phaseCount]Timings

	// Runaway counts the ticks where the runaway guard dropped time.
	Runaway int
}

func (t *TimingStats) MeasurePhase(phase Phase) TimingStopwatch {
	startTime := time.Now()

	return TimingStopwatch{
		Stop: func() {
			t.ByPhase[phase] = t.ByPhase[phase].Add(time.Since(startTime))
		},
	}
}

// Phase returns the timings of the given phase.
func (t *TimingStats) Phase(phase Phase) Timings {
	return t.ByPhase[phase]
}

type TimingStopwatch struct {
	Stop func()
}
