// Package components provides the component types shared by the systems of a simulation.
//
// Components are plain values. Vectors use cp.Vector so that they can be handed to
// the physics system without conversion.
package components

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp/v2"
)

// DefaultEntityName is the name every entity receives when it joins a world.
const DefaultEntityName = "(unnamed)"

// EntityName assigns a non unique name to an entity. Every entity
// in a world has one, which makes it the baseline component for queries.
type EntityName struct {
	Name string
}

// Named creates a new EntityName. Blank names are replaced by DefaultEntityName.
func Named(name string) EntityName {
	if strings.TrimSpace(name) == "" {
		return EntityName{Name: DefaultEntityName}
	}

	return EntityName{Name: name}
}

func (n EntityName) String() string {
	return n.Name
}

// Transform places an entity in 2d space. Rotation is in radians.
type Transform struct {
	Position cp.Vector
	Rotation float64
	Scale    cp.Vector
}

// TransformAt returns a transform with unit scale and no rotation.
func TransformAt(position cp.Vector) Transform {
	return Transform{Position: position, Scale: cp.Vector{X: 1, Y: 1}}
}

func (t Transform) String() string {
	return fmt.Sprintf("Transform(position=%v, rotation=%v, scale=%v)", t.Position, t.Rotation, t.Scale)
}

// MotionVelocity moves an entity in units per second.
// Acceleration changes Speed in units per second squared.
type MotionVelocity struct {
	Speed        cp.Vector
	Acceleration cp.Vector
}

// ConstantMotion returns a MotionVelocity without acceleration.
func ConstantMotion(speed cp.Vector) MotionVelocity {
	return MotionVelocity{Speed: speed}
}

// AngularVelocity rotates an entity in radians per second.
type AngularVelocity struct {
	Speed        float64
	Acceleration float64
}

// OrbitalVelocity moves an entity on a circle around Center. The radius is the distance
// of the entity to Center. Positive speeds orbit counter clockwise.
type OrbitalVelocity struct {
	Center       cp.Vector
	Speed        float64
	Acceleration float64
}

type PlayerTag struct{}

type MainCameraTag struct{}
