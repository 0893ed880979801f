package physics

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp/v2"
)

// DebugDraw draws the outlines of all shapes of the space onto the target.
// The transform maps world coordinates to screen coordinates.
func (s *System) DebugDraw(target *ebiten.Image, transform ebiten.GeoM) {
	if s.space == nil {
		return
	}

	cp.DrawSpace(s.space, debugImage{Image: target, Transform: transform})
}

type debugImage struct {
	Image     *ebiten.Image
	Transform ebiten.GeoM
}

func (d debugImage) apply(v cp.Vector) (float32, float32) {
	x, y := d.Transform.Apply(v.X, v.Y)
	return float32(x), float32(y)
}

func (d debugImage) draw(p vector.Path, outline cp.FColor, fill cp.FColor) {
	dpo := &vector.DrawPathOptions{}
	dpo.ColorScale.Scale(fill.R*fill.A, fill.G*fill.A, fill.B*fill.A, fill.A)
	vector.FillPath(d.Image, &p, &vector.FillOptions{}, dpo)

	*dpo = vector.DrawPathOptions{}
	dpo.ColorScale.Scale(outline.R*outline.A, outline.G*outline.A, outline.B*outline.A, outline.A)
	vector.StrokePath(d.Image, &p, &vector.StrokeOptions{Width: 1}, dpo)
}

func (d debugImage) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	x, y := d.apply(pos)
	rx, ry := d.apply(pos.Add(cp.Vector{X: radius}))
	screenRadius := float32(math.Hypot(float64(rx-x), float64(ry-y)))

	var p vector.Path
	p.Arc(x, y, screenRadius, 0, math.Pi*2, vector.Clockwise)
	p.MoveTo(x, y)
	p.LineTo(d.apply(pos.Add(cp.ForAngle(angle).Mult(radius))))

	d.draw(p, outline, fill)
}

func (d debugImage) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	var p vector.Path
	p.MoveTo(d.apply(a))
	p.LineTo(d.apply(b))
	d.draw(p, fill, cp.FColor{})
}

func (d debugImage) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.DrawSegment(a, b, fill, data)
}

func (d debugImage) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if count == 0 {
		return
	}

	var p vector.Path
	p.MoveTo(d.apply(verts[0]))
	for _, vert := range verts[1:count] {
		p.LineTo(d.apply(vert))
	}

	p.Close()

	d.draw(p, outline, fill)
}

func (d debugImage) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	d.DrawCircle(pos, 0, size/2, fill, fill, data)
}

func (d debugImage) Flags() uint {
	return 0
}

func (d debugImage) OutlineColor() cp.FColor {
	return cp.FColor{R: 1, G: 1, B: 1, A: 1}
}

func (d debugImage) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	return cp.FColor{G: 1, A: 1}
}

func (d debugImage) ConstraintColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.75, A: 1}
}

func (d debugImage) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1, A: 1}
}

func (d debugImage) Data() interface{} {
	return nil
}
