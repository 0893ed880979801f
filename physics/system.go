// Package physics simulates rigid bodies using chipmunk. Bodies are stepped in
// the fixed phase of the world after the motion systems.
package physics

import (
	"maps"
	"slices"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/cadence"
	"github.com/oliverbestmann/cadence/components"
	"github.com/oliverbestmann/cadence/motion"
	"github.com/oliverbestmann/cadence/spoke"
	"go.uber.org/zap"
)

var DefaultGravity = cp.Vector{Y: -10}

type indexedBody struct {
	kind  BodyKind
	body  *cp.Body
	shape *cp.Shape
}

// System keeps a cp.Space in sync with the Body and Collider components of a world.
type System struct {
	world *cadence.World
	space *cp.Space
	log   *zap.Logger

	// reverse mapping so bodies can be removed once their components are gone
	index map[spoke.EntityId]indexedBody

	started []ContactStarted
	ended   []ContactEnded
}

func (s *System) Initialize(world *cadence.World) {
	s.world = world
	s.log = world.Logger().Named("physics")
	s.index = map[spoke.EntityId]indexedBody{}

	s.space = cp.NewSpace()
	s.space.SetGravity(DefaultGravity)

	handler := s.space.NewCollisionHandler(0, 0)
	handler.BeginFunc = s.contactBegin
	handler.SeparateFunc = s.contactSeparate

	world.On(cadence.PhaseFixed, s, s.step,
		cadence.After[motion.OrbitalSystem](),
		cadence.Reads[Body](),
		cadence.Reads[Collider](),
		cadence.Writes[components.Transform](),
		cadence.Writes[Velocity](),
	)
}

func (s *System) Retire() {
	for _, entity := range s.indexed() {
		s.removeBody(entity)
	}

	s.started = nil
	s.ended = nil
	s.space = nil
	s.world = nil
}

// Space returns the underlying chipmunk space.
func (s *System) Space() *cp.Space {
	return s.space
}

func (s *System) SetGravity(gravity cp.Vector) {
	s.space.SetGravity(gravity)
}

func (s *System) SetDamping(damping float64) {
	s.space.SetDamping(damping)
}

// Bodies returns the number of entities simulated by the space.
func (s *System) Bodies() int {
	return len(s.index)
}

// ContactsStarted returns the contacts that started during the last fixed step.
func (s *System) ContactsStarted() []ContactStarted {
	return slices.Clone(s.started)
}

// ContactsEnded returns the contacts that ended during the last fixed step.
func (s *System) ContactsEnded() []ContactEnded {
	return slices.Clone(s.ended)
}

func (s *System) step(dt float64) {
	s.started = s.started[:0]
	s.ended = s.ended[:0]

	s.removeBodies()
	s.makeBodies()
	s.preStepSync()

	s.space.Step(dt)

	s.postStepSync()
}

func (s *System) makeBodies() {
	m := s.world.Components()

	entities := m.Entities(
		spoke.TypeIdOf[Body](),
		spoke.TypeIdOf[Collider](),
		spoke.TypeIdOf[components.Transform](),
	)

	for _, entity := range entities {
		if _, ok := s.index[entity]; ok {
			continue
		}

		kind := spoke.Get[Body](m, entity).Kind
		collider := spoke.Get[Collider](m, entity)
		transform := spoke.Get[components.Transform](m, entity)

		var body *cp.Body
		switch kind {
		case Static:
			body = cp.NewStaticBody()
		case Kinematic:
			body = cp.NewKinematicBody()
		default:
			mass := valueOr(m, entity, Mass{Value: 1}).Value
			body = cp.NewBody(mass, collider.Shape.Moment(mass))
		}

		// add user data so we can identify the body later
		body.UserData = entity
		body.SetPosition(transform.Position)
		body.SetAngle(transform.Rotation)

		if velocity, ok := spoke.Lookup[Velocity](m, entity); ok {
			body.SetVelocityVector(velocity.Linear)
			body.SetAngularVelocity(velocity.Angular)
		}

		shape := collider.Shape.MakeShape(body)
		shape.UserData = entity
		shape.SetElasticity(valueOr(m, entity, ColliderElasticity{}).Value)
		shape.SetFriction(valueOr(m, entity, ColliderFriction{Value: 0.5}).Value)
		shape.SetSensor(spoke.Has[Sensor](m, entity))

		filter := valueOr(m, entity, defaultShapeFilter)
		shape.SetFilter(cp.ShapeFilter{Group: filter.Group, Categories: filter.Categories, Mask: filter.Mask})

		s.space.AddBody(body)
		s.space.AddShape(shape)

		s.index[entity] = indexedBody{kind: kind, body: body, shape: shape}
	}
}

// removeBodies removes the bodies of entities that lost their Body or Collider or left the world.
func (s *System) removeBodies() {
	m := s.world.Components()

	for _, entity := range s.indexed() {
		if !s.world.Owns(entity) || !spoke.Has[Body](m, entity) || !spoke.Has[Collider](m, entity) {
			s.removeBody(entity)
		}
	}
}

// indexed returns the simulated entities in ascending order.
func (s *System) indexed() []spoke.EntityId {
	return slices.Sorted(maps.Keys(s.index))
}

func (s *System) removeBody(entity spoke.EntityId) {
	indexed := s.index[entity]
	delete(s.index, entity)

	if s.space != nil {
		s.space.RemoveShape(indexed.shape)
		s.space.RemoveBody(indexed.body)
	}
}

func (s *System) preStepSync() {
	m := s.world.Components()

	for _, entity := range s.indexed() {
		indexed := s.index[entity]
		body := indexed.body

		switch indexed.kind {
		case Dynamic:
			if forces, ok := spoke.Lookup[ExternalForces](m, entity); ok {
				body.SetForce(forces.Linear)
				body.SetTorque(forces.Torque)
			}

		case Kinematic:
			if velocity, ok := spoke.Lookup[Velocity](m, entity); ok {
				body.SetVelocityVector(velocity.Linear)
				body.SetAngularVelocity(velocity.Angular)
			}

		case Static:
			transform := spoke.Get[components.Transform](m, entity)
			if transform.Position != body.Position() || transform.Rotation != body.Angle() {
				body.SetPosition(transform.Position)
				body.SetAngle(transform.Rotation)
				s.space.ReindexShapesForBody(body)
			}
		}
	}
}

func (s *System) postStepSync() {
	m := s.world.Components()

	for _, entity := range s.indexed() {
		indexed := s.index[entity]
		if indexed.kind == Static {
			continue
		}

		body := indexed.body

		transform := spoke.Ref[components.Transform](m, entity)
		transform.Position = body.Position()
		transform.Rotation = body.Angle()

		if velocity, ok := spoke.Lookup[Velocity](m, entity); ok && indexed.kind == Dynamic {
			velocity.Linear = body.Velocity()
			velocity.Angular = body.AngularVelocity()
			spoke.Set(m, entity, velocity)
		}
	}
}

func (s *System) contactBegin(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	a, b := arb.Shapes()

	contacts := arb.ContactPointSet()

	event := ContactStarted{
		A:      a.UserData.(spoke.EntityId),
		B:      b.UserData.(spoke.EntityId),
		Normal: contacts.Normal,
	}

	if contacts.Count > 0 {
		event.Position = contacts.Points[0].PointA
	}

	s.started = append(s.started, event)

	return true
}

func (s *System) contactSeparate(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
	a, b := arb.Shapes()

	s.ended = append(s.ended, ContactEnded{
		A: a.UserData.(spoke.EntityId),
		B: b.UserData.(spoke.EntityId),
	})
}

func valueOr[C any](m *spoke.Manager, entity spoke.EntityId, fallback C) C {
	if value, ok := spoke.Lookup[C](m, entity); ok {
		return value
	}

	return fallback
}
