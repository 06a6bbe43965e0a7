package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physworld/internal/dynamics"
)

// Composition is a collision model made of one or more bodies.
type Composition struct {
	Bodies []Body `yaml:"bodies"`
}

func (c *Composition) AddBody(b Body) {
	c.Bodies = append(c.Bodies, b)
}

// RemoveBody removes the body at index. An out-of-range index is logged and
// ignored.
func (c *Composition) RemoveBody(index int) {
	if index < 0 || index >= len(c.Bodies) {
		zap.L().Named("collision").Warn("remove body: index out of range",
			zap.Int("index", index), zap.Int("bodies", len(c.Bodies)))
		return
	}
	c.Bodies = append(c.Bodies[:index], c.Bodies[index+1:]...)
}

// CenterOfMass is the average of the body positions, or zero without bodies.
func (c *Composition) CenterOfMass() mgl64.Vec3 {
	if len(c.Bodies) == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for _, b := range c.Bodies {
		sum = sum.Add(b.Position)
	}
	return sum.Mul(1 / float64(len(c.Bodies)))
}

func (c *Composition) IsConvex() bool {
	for i := range c.Bodies {
		if !c.Bodies[i].IsConvex() {
			return false
		}
	}
	return true
}

// NativeShape builds the dynamics shape of the model with every body shifted
// by the scaled center of mass, so the shape's origin is the center of mass.
// A single unrotated body is returned as is instead of a one-child compound.
// Returns nil when no body produces a shape.
func (c *Composition) NativeShape(scale mgl64.Vec3) dynamics.Shape {
	com := mulVec(c.CenterOfMass(), scale)

	compound := dynamics.NewCompoundShape()
	for i := range c.Bodies {
		b := &c.Bodies[i]
		shape := b.NativeShape(scale)
		if shape == nil {
			continue
		}
		local := b.LocalTransform()
		local.Origin = mulVec(b.Position, scale).Sub(com)
		compound.AddChild(local, shape)
	}

	switch len(compound.Children) {
	case 0:
		return nil
	case 1:
		child := compound.Children[0]
		if child.Transform.Origin.Len() < 1e-9 && child.Transform.Basis.ApproxEqual(mgl64.QuatIdent()) {
			return child.Shape
		}
	}
	return compound
}

// Geometry triangulates the model in the frame of NativeShape.
func (c *Composition) Geometry(scale mgl64.Vec3) ([]mgl64.Vec3, []int32) {
	com := mulVec(c.CenterOfMass(), scale)

	var vertices []mgl64.Vec3
	var indices []int32
	for i := range c.Bodies {
		b := &c.Bodies[i]
		verts, idx := b.Geometry(scale)
		if len(verts) == 0 || len(idx) == 0 {
			continue
		}
		local := b.LocalTransform()
		local.Origin = mulVec(b.Position, scale).Sub(com)
		base := int32(len(vertices))
		for _, v := range verts {
			vertices = append(vertices, local.Apply(v))
		}
		for _, j := range idx {
			indices = append(indices, base+j)
		}
	}
	return vertices, indices
}

// Clone returns a deep copy, so a watcher reload cannot alias bodies in use.
func (c *Composition) Clone() *Composition {
	out := &Composition{Bodies: make([]Body, len(c.Bodies))}
	for i, b := range c.Bodies {
		b.Spheres = append([]Sphere(nil), b.Spheres...)
		b.Vertices = append([]mgl64.Vec3(nil), b.Vertices...)
		b.Indices = append([]int32(nil), b.Indices...)
		out.Bodies[i] = b
	}
	return out
}
