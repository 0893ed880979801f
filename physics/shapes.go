package physics

import (
	"github.com/jakecoffman/cp/v2"
)

type ToShape interface {
	MakeShape(body *cp.Body) *cp.Shape

	// Moment returns the moment of inertia of the shape for the given mass.
	Moment(mass float64) float64
}

type CircleShape struct {
	Radius float64
}

func (s CircleShape) MakeShape(body *cp.Body) *cp.Shape {
	return cp.NewCircle(body, s.Radius, cp.Vector{})
}

func (s CircleShape) Moment(mass float64) float64 {
	return cp.MomentForCircle(mass, 0, s.Radius, cp.Vector{})
}

type SegmentShape struct {
	A, B   cp.Vector
	Radius float64
}

func (s SegmentShape) MakeShape(body *cp.Body) *cp.Shape {
	return cp.NewSegment(body, s.A, s.B, s.Radius)
}

func (s SegmentShape) Moment(mass float64) float64 {
	return cp.MomentForSegment(mass, s.A, s.B, s.Radius)
}

type BoxShape struct {
	Width, Height float64
	Radius        float64
}

func (s BoxShape) MakeShape(body *cp.Body) *cp.Shape {
	return cp.NewBox(body, s.Width, s.Height, s.Radius)
}

func (s BoxShape) Moment(mass float64) float64 {
	return cp.MomentForBox(mass, s.Width, s.Height)
}
