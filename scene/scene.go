// Package scene loads yaml manifests describing groups of entities and spawns them into a world.
package scene

import (
	"fmt"
	"os"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/cadence"
	"github.com/oliverbestmann/cadence/components"
	"github.com/oliverbestmann/cadence/physics"
	"github.com/oliverbestmann/cadence/spoke"
	"gopkg.in/yaml.v3"
)

type Scene struct {
	Name   string  `yaml:"name"`
	Groups []Group `yaml:"groups"`
}

// Group describes count entities sharing the same components. The position of
// the n-th entity of the group is Transform.Position + n * Spacing.
type Group struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`

	Player bool `yaml:"player"`
	Camera bool `yaml:"camera"`

	Transform *Transform `yaml:"transform"`
	Spacing   Vec        `yaml:"spacing"`

	Motion  *Motion  `yaml:"motion"`
	Angular *Angular `yaml:"angular"`
	Orbit   *Orbit   `yaml:"orbit"`

	Body     string    `yaml:"body"` // "dynamic", "static" or "kinematic"
	Mass     float64   `yaml:"mass"`
	Collider *Collider `yaml:"collider"`
}

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec) cp() cp.Vector {
	return cp.Vector{X: v.X, Y: v.Y}
}

type Transform struct {
	Position Vec     `yaml:"position"`
	Rotation float64 `yaml:"rotation"`
	Scale    *Vec    `yaml:"scale"`
}

type Motion struct {
	Speed        Vec `yaml:"speed"`
	Acceleration Vec `yaml:"acceleration"`
}

type Angular struct {
	Speed        float64 `yaml:"speed"`
	Acceleration float64 `yaml:"acceleration"`
}

type Orbit struct {
	Center       Vec     `yaml:"center"`
	Speed        float64 `yaml:"speed"`
	Acceleration float64 `yaml:"acceleration"`
}

type Collider struct {
	Shape  string  `yaml:"shape"` // "circle" or "box"
	Radius float64 `yaml:"radius"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Friction   *float64 `yaml:"friction"`
	Elasticity float64  `yaml:"elasticity"`
	Sensor     bool     `yaml:"sensor"`
}

func Load(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}

	scene, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}

	return scene, nil
}

func Parse(raw []byte) (*Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(raw, &scene); err != nil {
		return nil, err
	}

	if err := scene.validate(); err != nil {
		return nil, err
	}

	return &scene, nil
}

func (s *Scene) validate() error {
	for idx, group := range s.Groups {
		if group.Count < 0 {
			return fmt.Errorf("group %d (%s): count must not be negative", idx, group.Name)
		}

		switch group.Body {
		case "", "dynamic", "static", "kinematic":
		default:
			return fmt.Errorf("group %d (%s): unknown body %q", idx, group.Name, group.Body)
		}

		if group.Body != "" && group.Collider == nil {
			return fmt.Errorf("group %d (%s): body requires a collider", idx, group.Name)
		}

		if group.Collider != nil {
			switch group.Collider.Shape {
			case "circle", "box":
			default:
				return fmt.Errorf("group %d (%s): unknown collider shape %q", idx, group.Name, group.Collider.Shape)
			}
		}
	}

	return nil
}

// Spawn requests the entities of all groups from the world and attaches their
// components. The spawned entities are returned per group, in the order of the groups.
func (s *Scene) Spawn(world *cadence.World) [][]spoke.EntityId {
	spawned := make([][]spoke.EntityId, 0, len(s.Groups))

	for _, group := range s.Groups {
		spawned = append(spawned, group.spawn(world))
	}

	return spawned
}

func (g *Group) spawn(world *cadence.World) []spoke.EntityId {
	entities := world.RequestEntities(g.Count)
	m := world.Components()

	if g.Name != "" {
		spoke.SetPairs(m, pairsOf(entities, func(int) components.EntityName {
			return components.Named(g.Name)
		}))
	}

	if g.Player {
		spoke.AttachRange(m, entities, components.PlayerTag{})
	}

	if g.Camera {
		spoke.AttachRange(m, entities, components.MainCameraTag{})
	}

	if g.Transform != nil || g.Body != "" {
		spoke.AttachPairs(m, pairsOf(entities, g.transformOf))
	}

	if g.Motion != nil {
		spoke.AttachRange(m, entities, components.MotionVelocity{
			Speed:        g.Motion.Speed.cp(),
			Acceleration: g.Motion.Acceleration.cp(),
		})
	}

	if g.Angular != nil {
		spoke.AttachRange(m, entities, components.AngularVelocity{
			Speed:        g.Angular.Speed,
			Acceleration: g.Angular.Acceleration,
		})
	}

	if g.Orbit != nil {
		spoke.AttachRange(m, entities, components.OrbitalVelocity{
			Center:       g.Orbit.Center.cp(),
			Speed:        g.Orbit.Speed,
			Acceleration: g.Orbit.Acceleration,
		})
	}

	if g.Body != "" {
		g.attachPhysics(m, entities)
	}

	return entities
}

func (g *Group) transformOf(idx int) components.Transform {
	var transform components.Transform
	if g.Transform != nil {
		transform = components.Transform{
			Position: g.Transform.Position.cp(),
			Rotation: g.Transform.Rotation,
			Scale:    cp.Vector{X: 1, Y: 1},
		}

		if g.Transform.Scale != nil {
			transform.Scale = g.Transform.Scale.cp()
		}
	} else {
		transform = components.TransformAt(cp.Vector{})
	}

	transform.Position = transform.Position.Add(g.Spacing.cp().Mult(float64(idx)))
	return transform
}

func (g *Group) attachPhysics(m *spoke.Manager, entities []spoke.EntityId) {
	switch g.Body {
	case "static":
		spoke.AttachRange(m, entities, physics.RigidBodyStatic)
	case "kinematic":
		spoke.AttachRange(m, entities, physics.RigidBodyKinematic)
	default:
		spoke.AttachRange(m, entities, physics.RigidBodyDynamic)
	}

	spoke.AttachRange(m, entities, physics.Velocity{})

	if g.Mass > 0 {
		spoke.AttachRange(m, entities, physics.Mass{Value: g.Mass})
	}

	collider := g.Collider

	var shape physics.ToShape
	switch collider.Shape {
	case "box":
		shape = physics.BoxShape{Width: collider.Width, Height: collider.Height, Radius: collider.Radius}
	default:
		shape = physics.CircleShape{Radius: collider.Radius}
	}

	spoke.AttachRange(m, entities, physics.Collider{Shape: shape})
	spoke.AttachRange(m, entities, physics.ColliderElasticity{Value: collider.Elasticity})

	if collider.Friction != nil {
		spoke.AttachRange(m, entities, physics.ColliderFriction{Value: *collider.Friction})
	}

	if collider.Sensor {
		spoke.AttachRange(m, entities, physics.Sensor{})
	}
}

func pairsOf[C any](entities []spoke.EntityId, valueOf func(idx int) C) map[spoke.EntityId]C {
	pairs := make(map[spoke.EntityId]C, len(entities))
	for idx, entity := range entities {
		pairs[entity] = valueOf(idx)
	}

	return pairs
}
