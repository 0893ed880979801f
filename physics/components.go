package physics

import (
	"math"

	"github.com/jakecoffman/cp/v2"
)

type BodyKind uint8

const (
	Dynamic BodyKind = iota
	Static
	Kinematic
)

// Body marks an entity as a rigid body. The entity also needs a Collider
// and a components.Transform to be simulated.
type Body struct {
	Kind BodyKind
}

var RigidBodyDynamic = Body{Kind: Dynamic}
var RigidBodyStatic = Body{Kind: Static}
var RigidBodyKinematic = Body{Kind: Kinematic}

// Velocity of a rigid body. Dynamic bodies write their velocity back after each step,
// kinematic bodies are moved by it.
type Velocity struct {
	Linear  cp.Vector
	Angular float64
}

// Mass of a dynamic body. Defaults to 1 if the entity has no Mass component.
type Mass struct {
	Value float64
}

type ExternalForces struct {
	Linear cp.Vector
	Torque float64
}

type Collider struct {
	Shape ToShape
}

type ColliderElasticity struct {
	Value float64
}

// ColliderFriction defaults to 0.5 if the entity has no ColliderFriction component.
type ColliderFriction struct {
	Value float64
}

type ShapeFilter struct {
	// Two objects with the same non-zero group value do not collide.
	// This is generally used to group objects in a composite object together to disable self collisions.
	Group uint
	// A bitmask of user definable categories that this object belongs to.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Categories uint
	// A bitmask of user definable category types that this object object collides with.
	// The category/mask combinations of both objects in a collision must agree for a collision to occur.
	Mask uint
}

var defaultShapeFilter = ShapeFilter{
	Mask:       math.MaxUint,
	Categories: 1,
}

type Sensor struct{}
