package cadence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type position struct{ X, Y float64 }

type orderA struct{}

func (orderA) Initialize(*World) {}
func (orderA) Retire()           {}

type orderB struct{}

func (orderB) Initialize(*World) {}
func (orderB) Retire()           {}

type orderC struct{}

func (orderC) Initialize(*World) {}
func (orderC) Retire()           {}

func newObservedWorld() (*World, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)

	pool := NewEntityPool(PoolOptions{Initial: 4, Logger: zap.New(core)})
	world := pool.NewWorld("main", NewScheduler(SchedulerOptions{FixedStep: 0.25}))

	return world, logs
}

func TestStage_Order(t *testing.T) {
	runTest := func(t *testing.T, register func(w *World, record func(string) PhaseFunc), expected []string) {
		world, _ := newObservedWorld()

		var calls []string
		record := func(name string) PhaseFunc {
			return func(float64) { calls = append(calls, name) }
		}

		register(world, record)
		world.Scheduler().Tick(0.25)

		require.Equal(t, expected, calls)
	}

	t.Run("registration order", func(t *testing.T) {
		runTest(t, func(w *World, record func(string) PhaseFunc) {
			w.On(PhaseFixed, orderA{}, record("a"))
			w.On(PhaseFixed, orderB{}, record("b"))
			w.On(PhaseFixed, nil, record("anonymous"))
		}, []string{"a", "b", "anonymous"})
	})

	t.Run("after", func(t *testing.T) {
		runTest(t, func(w *World, record func(string) PhaseFunc) {
			w.On(PhaseFixed, orderA{}, record("a"), After[orderB]())
			w.On(PhaseFixed, orderB{}, record("b"))
		}, []string{"b", "a"})
	})

	t.Run("before", func(t *testing.T) {
		runTest(t, func(w *World, record func(string) PhaseFunc) {
			w.On(PhaseFixed, orderA{}, record("a"))
			w.On(PhaseFixed, orderB{}, record("b"))
			w.On(PhaseFixed, nil, record("anonymous"), Before[orderA]())
		}, []string{"anonymous", "a", "b"})
	})

	t.Run("c, a, b", func(t *testing.T) {
		runTest(t, func(w *World, record func(string) PhaseFunc) {
			w.On(PhaseFixed, orderA{}, record("a"), Before[orderB]())
			w.On(PhaseFixed, orderB{}, record("b"))
			w.On(PhaseFixed, orderC{}, record("c"), Before[orderA]())
		}, []string{"c", "a", "b"})
	})

	t.Run("phases are independent", func(t *testing.T) {
		runTest(t, func(w *World, record func(string) PhaseFunc) {
			w.On(PhaseLateFixed, orderA{}, record("late a"))
			w.On(PhaseFixed, orderB{}, record("b"), After[orderA]())
		}, []string{"b", "late a"})
	})
}

func TestStage_Cycle(t *testing.T) {
	world, _ := newObservedWorld()

	var calls []string
	world.On(PhaseFixed, orderA{}, func(float64) { calls = append(calls, "a") }, Before[orderB]())

	func() {
		defer func() {
			err, ok := recover().(*OrderingError)
			require.True(t, ok, "expected panic with *OrderingError")
			require.Equal(t, PhaseFixed, err.Phase)
			require.Len(t, err.Owners, 2)
		}()

		world.On(PhaseFixed, orderB{}, func(float64) { calls = append(calls, "b") }, Before[orderA]())
	}()

	// the rejected listener is not registered
	world.Scheduler().Tick(0.25)
	require.Equal(t, []string{"a"}, calls)
}

func TestStage_Cancel(t *testing.T) {
	world, _ := newObservedWorld()

	var calls int
	sub := world.On(PhaseFixed, nil, func(float64) { calls++ })

	world.Scheduler().Tick(0.25)
	require.True(t, sub.Cancel())
	world.Scheduler().Tick(0.25)

	require.Equal(t, 1, calls)
}

func TestStage_AccessConflicts(t *testing.T) {
	noop := func(float64) {}

	t.Run("unordered writers", func(t *testing.T) {
		world, logs := newObservedWorld()

		world.On(PhaseFixed, orderA{}, noop, Writes[position]())
		world.On(PhaseFixed, orderB{}, noop, Reads[position]())

		require.Equal(t, 1, logs.FilterMessage("Unordered listeners access the same component").Len())
	})

	t.Run("ordered writers", func(t *testing.T) {
		world, logs := newObservedWorld()

		world.On(PhaseFixed, orderA{}, noop, Writes[position]())
		world.On(PhaseFixed, orderC{}, noop)
		world.On(PhaseFixed, orderB{}, noop, Writes[position](), After[orderC]())
		world.On(PhaseFixed, orderC{}, noop, After[orderA]())

		require.Equal(t, 1, logs.Len(), "only the registration before the ordering was complete warns")
	})

	t.Run("readers only", func(t *testing.T) {
		world, logs := newObservedWorld()

		world.On(PhaseFixed, orderA{}, noop, Reads[position]())
		world.On(PhaseFixed, orderB{}, noop, Reads[position]())

		require.Equal(t, 0, logs.Len())
	})
}
