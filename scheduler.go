package cadence

import (
	"github.com/oliverbestmann/cadence/internal/assert"
	"go.uber.org/zap"
)

const (
	// DefaultFixedStep simulates at 60 steps per second.
	DefaultFixedStep = 1.0 / 60.0

	// DefaultRunawayFactor is the number of fixed steps the accumulator may
	// reach before unsimulated time is dropped.
	DefaultRunawayFactor = 4.0

	// DefaultCallbackSlots is the number of delayed callback slots created up front.
	DefaultCallbackSlots = 10
)

type SchedulerOptions struct {
	// FixedStep is the length of one simulation step in seconds.
	FixedStep float64

	// RunawayFactor times FixedStep is the accumulator value at which the
	// scheduler gives up catching up and drops the accumulated time.
	RunawayFactor float64

	// FixedDraw limits presentation to one frame per DrawStep.
	// If disabled, every tick is ready to be presented.
	FixedDraw bool
	DrawStep  float64

	CallbackSlots int

	Logger *zap.Logger
	Stats  *TimingStats
}

func (o SchedulerOptions) withDefaults() SchedulerOptions {
	if o.FixedStep == 0 {
		o.FixedStep = DefaultFixedStep
	}

	if o.RunawayFactor == 0 {
		o.RunawayFactor = DefaultRunawayFactor
	}

	if o.DrawStep == 0 {
		o.DrawStep = o.FixedStep
	}

	if o.CallbackSlots == 0 {
		o.CallbackSlots = DefaultCallbackSlots
	}

	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return o
}

// Scheduler is the central clock of a simulation. A host calls Tick once per
// frame with the elapsed wall time. The scheduler turns these irregular deltas
// into a deterministic sequence of fixed simulation steps and notifies the
// listeners of each Phase.
//
// If the accumulated time reaches RunawayFactor fixed steps, the scheduler drops it
// instead of simulating it. Simulations that need strict determinism over wall time
// must keep their ticks short enough to never trigger this guard.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	fixedStep        float64
	runawayThreshold float64
	fixedDraw        bool
	drawStep         float64

	accumulator     float64
	drawAccumulator float64

	tickCount    uint64
	elapsed      float64
	presentReady bool

	runaways       int
	droppedSeconds float64

	phases    [phaseCount]listeners
	callbacks *Callbacks

	running bool

	// true during a tick until its counter is advanced
	ticking bool

	log   *zap.Logger
	stats *TimingStats
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	opts = opts.withDefaults()

	assert.Positive("fixed step", opts.FixedStep)
	assert.Positive("draw step", opts.DrawStep)
	assert.That(opts.RunawayFactor >= 1, "runaway factor must be at least 1, got %v", opts.RunawayFactor)
	assert.NonNegative("callback slots", opts.CallbackSlots)

	s := &Scheduler{
		fixedStep:        opts.FixedStep,
		runawayThreshold: opts.RunawayFactor * opts.FixedStep,
		fixedDraw:        opts.FixedDraw,
		drawStep:         opts.DrawStep,
		log:              opts.Logger,
		stats:            opts.Stats,
	}

	s.callbacks = newCallbacks(s, opts.CallbackSlots)

	return s
}

// Tick advances the scheduler by dt seconds of wall time.
func (s *Scheduler) Tick(dt float64) {
	assert.NonNegative("tick delta", dt)
	assert.Finite("tick delta", dt)
	s.enter()
	defer s.leave()

	s.ticking = true
	s.accumulator += dt

	if s.accumulator >= s.runawayThreshold {
		s.dropAccumulatedTime()
	} else {
		s.broadcast(PhaseVariable, dt)

		for s.accumulator >= s.fixedStep {
			s.accumulator -= s.fixedStep

			s.broadcast(PhaseFixed, s.fixedStep)
			s.broadcast(PhaseLateFixed, s.fixedStep)
		}

		s.updatePresentReady(dt)
	}

	s.ticking = false
	s.tickCount += 1
	s.elapsed += dt

	s.broadcast(PhaseEndOfTick, dt)
}

// Draw broadcasts PhaseDraw if the last tick marked a frame as ready to be presented.
// The listeners receive the not yet simulated remainder of the accumulator in seconds,
// which can be used to interpolate between fixed steps.
func (s *Scheduler) Draw() bool {
	s.enter()
	defer s.leave()

	if !s.presentReady {
		return false
	}

	s.presentReady = false
	s.broadcast(PhaseDraw, s.accumulator)

	return true
}

func (s *Scheduler) dropAccumulatedTime() {
	dropped := s.accumulator

	s.accumulator = 0
	s.drawAccumulator = 0
	s.presentReady = false

	s.runaways += 1
	s.droppedSeconds += dropped

	if s.stats != nil {
		s.stats.Runaway += 1
	}

	s.log.Warn("Dropping unsimulated time",
		zap.Float64("dropped", dropped),
		zap.Float64("threshold", s.runawayThreshold),
		zap.Uint64("tick", s.tickCount),
	)
}

func (s *Scheduler) updatePresentReady(dt float64) {
	if !s.fixedDraw {
		s.presentReady = true
		return
	}

	s.drawAccumulator += dt
	if s.drawAccumulator >= s.drawStep {
		s.drawAccumulator -= s.drawStep
		s.presentReady = true
	}
}

func (s *Scheduler) broadcast(phase Phase, dt float64) {
	if s.stats != nil {
		defer s.stats.MeasurePhase(phase).Stop()
	}

	s.phases[phase].Broadcast(dt)
}

func (s *Scheduler) enter() {
	if s.running {
		panic("scheduler is already running a tick or draw")
	}

	s.running = true
}

func (s *Scheduler) leave() {
	s.running = false
	s.ticking = false
}

// currentTick returns the number of the tick in progress, or the number of the
// last completed tick if the counters were already advanced.
func (s *Scheduler) currentTick() uint64 {
	if s.ticking {
		return s.tickCount + 1
	}

	return s.tickCount
}

// Subscribe registers a listener for the given phase. Listeners are notified
// in registration order.
func (s *Scheduler) Subscribe(phase Phase, fn PhaseFunc) *Subscription {
	assert.That(phase < phaseCount, "unknown phase %s", phase)
	return s.phases[phase].Add(fn)
}

// OnVariable is notified once per tick with the raw wall delta.
func (s *Scheduler) OnVariable(fn PhaseFunc) *Subscription {
	return s.Subscribe(PhaseVariable, fn)
}

// OnFixed is notified once per simulation step with the fixed step.
func (s *Scheduler) OnFixed(fn PhaseFunc) *Subscription {
	return s.Subscribe(PhaseFixed, fn)
}

// OnLateFixed is notified after all PhaseFixed listeners of the same simulation step.
func (s *Scheduler) OnLateFixed(fn PhaseFunc) *Subscription {
	return s.Subscribe(PhaseLateFixed, fn)
}

// OnEndOfTick is notified at the end of every tick, after the counters were advanced.
func (s *Scheduler) OnEndOfTick(fn PhaseFunc) *Subscription {
	return s.Subscribe(PhaseEndOfTick, fn)
}

// OnDraw is notified by Draw.
func (s *Scheduler) OnDraw(fn PhaseFunc) *Subscription {
	return s.Subscribe(PhaseDraw, fn)
}

// Listeners returns the number of listeners registered for the phase.
func (s *Scheduler) Listeners(phase Phase) int {
	return s.phases[phase].Len()
}

// Callbacks returns the delayed callback pool driven by this scheduler.
func (s *Scheduler) Callbacks() *Callbacks {
	return s.callbacks
}

// TickCount returns the number of completed ticks.
func (s *Scheduler) TickCount() uint64 {
	return s.tickCount
}

// Elapsed returns the sum of all tick deltas in seconds.
func (s *Scheduler) Elapsed() float64 {
	return s.elapsed
}

func (s *Scheduler) FixedStep() float64 {
	return s.fixedStep
}

// Accumulator returns the wall time in seconds that was not yet simulated.
func (s *Scheduler) Accumulator() float64 {
	return s.accumulator
}

func (s *Scheduler) PresentReady() bool {
	return s.presentReady
}

// Runaways returns how often the runaway guard dropped time and how many seconds were dropped in total.
func (s *Scheduler) Runaways() (count int, seconds float64) {
	return s.runaways, s.droppedSeconds
}
