package motion

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/cadence"
	"github.com/oliverbestmann/cadence/components"
	"github.com/oliverbestmann/cadence/spoke"
	"github.com/stretchr/testify/require"
)

func newWorld() *cadence.World {
	pool := cadence.NewEntityPool(cadence.PoolOptions{Initial: 8})
	return pool.NewWorld("motion", cadence.NewScheduler(cadence.SchedulerOptions{FixedStep: 0.25}))
}

func requireVectorInDelta(t *testing.T, expected, actual cp.Vector) {
	t.Helper()
	require.InDelta(t, expected.X, actual.X, 1e-9)
	require.InDelta(t, expected.Y, actual.Y, 1e-9)
}

func TestLinearSystem(t *testing.T) {
	world := newWorld()
	AddSystems(world)

	entities := world.RequestEntities(2)
	m := world.Components()

	spoke.Attach(m, entities[0], components.TransformAt(cp.Vector{}))
	spoke.Attach(m, entities[0], components.ConstantMotion(cp.Vector{X: 4}))

	// an entity without velocity is left alone
	spoke.Attach(m, entities[1], components.TransformAt(cp.Vector{X: 1, Y: 1}))

	world.Scheduler().Tick(0.5)

	requireVectorInDelta(t, cp.Vector{X: 2}, spoke.Get[components.Transform](m, entities[0]).Position)
	requireVectorInDelta(t, cp.Vector{X: 1, Y: 1}, spoke.Get[components.Transform](m, entities[1]).Position)
}

func TestLinearSystem_Acceleration(t *testing.T) {
	world := newWorld()
	cadence.AddSystem[LinearSystem](world)

	entity := world.RequestEntities(1)[0]
	m := world.Components()

	spoke.Attach(m, entity, components.TransformAt(cp.Vector{}))
	spoke.Attach(m, entity, components.MotionVelocity{Acceleration: cp.Vector{Y: 4}})

	world.Scheduler().Tick(0.5)

	// speed 1 during the first step, 2 during the second one
	requireVectorInDelta(t, cp.Vector{Y: 0.75}, spoke.Get[components.Transform](m, entity).Position)
	requireVectorInDelta(t, cp.Vector{Y: 2}, spoke.Get[components.MotionVelocity](m, entity).Speed)
}

func TestAngularSystem(t *testing.T) {
	world := newWorld()
	AddSystems(world)

	entity := world.RequestEntities(1)[0]
	m := world.Components()

	spoke.Attach(m, entity, components.TransformAt(cp.Vector{}))
	spoke.Attach(m, entity, components.AngularVelocity{Speed: math.Pi})

	world.Scheduler().Tick(0.5)

	require.InDelta(t, math.Pi/2, spoke.Get[components.Transform](m, entity).Rotation, 1e-9)
}

func TestOrbitalSystem(t *testing.T) {
	world := newWorld()
	AddSystems(world)

	entity := world.RequestEntities(1)[0]
	m := world.Components()

	spoke.Attach(m, entity, components.TransformAt(cp.Vector{X: 2, Y: 1}))
	spoke.Attach(m, entity, components.OrbitalVelocity{Center: cp.Vector{X: 1, Y: 1}, Speed: math.Pi})

	// a quarter turn counter clockwise
	world.Scheduler().Tick(0.5)
	requireVectorInDelta(t, cp.Vector{X: 1, Y: 2}, spoke.Get[components.Transform](m, entity).Position)
}

func TestSystems_Retire(t *testing.T) {
	world := newWorld()
	AddSystems(world)

	entity := world.RequestEntities(1)[0]
	m := world.Components()

	spoke.Attach(m, entity, components.TransformAt(cp.Vector{}))
	spoke.Attach(m, entity, components.ConstantMotion(cp.Vector{X: 1}))

	require.True(t, cadence.RemoveSystem[LinearSystem](world))

	world.Scheduler().Tick(0.5)
	requireVectorInDelta(t, cp.Vector{}, spoke.Get[components.Transform](m, entity).Position)
}
