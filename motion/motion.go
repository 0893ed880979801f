// Package motion integrates the velocity components into the Transform of an entity.
package motion

import (
	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/cadence"
	"github.com/oliverbestmann/cadence/components"
	"github.com/oliverbestmann/cadence/spoke"
)

// LinearSystem applies MotionVelocity to the Transform of an entity on every fixed step.
type LinearSystem struct {
	world *cadence.World
}

func (s *LinearSystem) Initialize(world *cadence.World) {
	s.world = world

	world.On(cadence.PhaseFixed, s, s.step,
		cadence.Writes[components.Transform](),
		cadence.Writes[components.MotionVelocity](),
	)
}

func (s *LinearSystem) Retire() {
	s.world = nil
}

func (s *LinearSystem) step(dt float64) {
	m := s.world.Components()

	for _, entity := range m.Entities(spoke.TypeIdOf[components.Transform](), spoke.TypeIdOf[components.MotionVelocity]()) {
		velocity := spoke.Ref[components.MotionVelocity](m, entity)
		velocity.Speed = velocity.Speed.Add(velocity.Acceleration.Mult(dt))

		transform := spoke.Ref[components.Transform](m, entity)
		transform.Position = transform.Position.Add(velocity.Speed.Mult(dt))
	}
}

// AngularSystem applies AngularVelocity to the rotation of an entity on every fixed step.
type AngularSystem struct {
	world *cadence.World
}

func (s *AngularSystem) Initialize(world *cadence.World) {
	s.world = world

	world.On(cadence.PhaseFixed, s, s.step,
		cadence.Writes[components.Transform](),
		cadence.Writes[components.AngularVelocity](),
		cadence.After[LinearSystem](),
	)
}

func (s *AngularSystem) Retire() {
	s.world = nil
}

func (s *AngularSystem) step(dt float64) {
	m := s.world.Components()

	for _, entity := range m.Entities(spoke.TypeIdOf[components.Transform](), spoke.TypeIdOf[components.AngularVelocity]()) {
		velocity := spoke.Ref[components.AngularVelocity](m, entity)
		velocity.Speed += velocity.Acceleration * dt

		transform := spoke.Ref[components.Transform](m, entity)
		transform.Rotation += velocity.Speed * dt
	}
}

// OrbitalSystem rotates the position of an entity around the center of its OrbitalVelocity.
type OrbitalSystem struct {
	world *cadence.World
}

func (s *OrbitalSystem) Initialize(world *cadence.World) {
	s.world = world

	world.On(cadence.PhaseFixed, s, s.step,
		cadence.Writes[components.Transform](),
		cadence.Writes[components.OrbitalVelocity](),
		cadence.After[LinearSystem](),
		cadence.After[AngularSystem](),
	)
}

func (s *OrbitalSystem) Retire() {
	s.world = nil
}

func (s *OrbitalSystem) step(dt float64) {
	m := s.world.Components()

	for _, entity := range m.Entities(spoke.TypeIdOf[components.Transform](), spoke.TypeIdOf[components.OrbitalVelocity]()) {
		orbit := spoke.Ref[components.OrbitalVelocity](m, entity)
		orbit.Speed += orbit.Acceleration * dt

		transform := spoke.Ref[components.Transform](m, entity)

		offset := transform.Position.Sub(orbit.Center)
		transform.Position = orbit.Center.Add(offset.Rotate(cp.ForAngle(orbit.Speed * dt)))
	}
}

// AddSystems activates all motion systems in the world.
func AddSystems(world *cadence.World) {
	cadence.AddSystem[LinearSystem](world)
	cadence.AddSystem[AngularSystem](world)
	cadence.AddSystem[OrbitalSystem](world)
}
