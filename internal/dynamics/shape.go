package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind tags the concrete shape behind a Shape.
type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapeCapsule
	ShapeCylinder
	ShapeCone
	ShapeMultiSphere
	ShapeConvexHull
	ShapeTriangle
	ShapeTriangleMesh
	ShapeCompound
	ShapeStaticPlane
)

var shapeKindNames = [...]string{
	"sphere", "box", "capsule", "cylinder", "cone", "multi-sphere",
	"convex-hull", "triangle", "triangle-mesh", "compound", "static-plane",
}

func (k ShapeKind) String() string {
	if int(k) < len(shapeKindNames) {
		return shapeKindNames[k]
	}
	return "unknown"
}

// Shape is a collision shape in its local frame.
type Shape interface {
	Kind() ShapeKind
	LocalAABB() AABB
	Margin() float64
	SetMargin(m float64)
}

// ConvexShape can report its furthest point along a direction.
type ConvexShape interface {
	Shape
	LocalSupport(dir mgl64.Vec3) mgl64.Vec3
}

// IsConvex reports whether s implements ConvexShape.
func IsConvex(s Shape) bool {
	_, ok := s.(ConvexShape)
	return ok
}

type shapeBase struct {
	margin float64
}

func (s *shapeBase) Margin() float64     { return s.margin }
func (s *shapeBase) SetMargin(m float64) { s.margin = m }

// inflate pushes a support point outwards by the margin.
func (s *shapeBase) inflate(p, dir mgl64.Vec3) mgl64.Vec3 {
	if s.margin == 0 {
		return p
	}
	return p.Add(safeNormalize(dir, mgl64.Vec3{0, 1, 0}).Mul(s.margin))
}

func supportAABB(s ConvexShape) AABB {
	var box AABB
	for i := 0; i < 3; i++ {
		var d mgl64.Vec3
		d[i] = 1
		box.Max[i] = s.LocalSupport(d)[i]
		d[i] = -1
		box.Min[i] = s.LocalSupport(d)[i]
	}
	return box
}

type SphereShape struct {
	shapeBase
	Radius float64
}

func NewSphereShape(radius float64) *SphereShape {
	return &SphereShape{Radius: radius}
}

func (s *SphereShape) Kind() ShapeKind { return ShapeSphere }

func (s *SphereShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	return safeNormalize(dir, mgl64.Vec3{0, 1, 0}).Mul(s.Radius + s.margin)
}

func (s *SphereShape) LocalAABB() AABB {
	r := s.Radius + s.margin
	return AABB{Min: mgl64.Vec3{-r, -r, -r}, Max: mgl64.Vec3{r, r, r}}
}

type BoxShape struct {
	shapeBase
	HalfExtents mgl64.Vec3
}

func NewBoxShape(halfExtents mgl64.Vec3) *BoxShape {
	return &BoxShape{HalfExtents: halfExtents}
}

func (s *BoxShape) Kind() ShapeKind { return ShapeBox }

func (s *BoxShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		if dir[i] >= 0 {
			p[i] = s.HalfExtents[i]
		} else {
			p[i] = -s.HalfExtents[i]
		}
	}
	return s.inflate(p, dir)
}

func (s *BoxShape) LocalAABB() AABB {
	m := mgl64.Vec3{s.margin, s.margin, s.margin}
	return AABB{Min: s.HalfExtents.Mul(-1).Sub(m), Max: s.HalfExtents.Add(m)}
}

// axisFrame remaps vectors so that the shape's main axis becomes Y.
type axisFrame int

func (a axisFrame) toCanonical(v mgl64.Vec3) mgl64.Vec3 {
	i := int(a)
	return mgl64.Vec3{v[(i+1)%3], v[i], v[(i+2)%3]}
}

func (a axisFrame) fromCanonical(c mgl64.Vec3) mgl64.Vec3 {
	i := int(a)
	var v mgl64.Vec3
	v[i] = c[1]
	v[(i+1)%3] = c[0]
	v[(i+2)%3] = c[2]
	return v
}

// CapsuleShape is a segment of length 2*HalfHeight along Axis swept by Radius.
type CapsuleShape struct {
	shapeBase
	Radius     float64
	HalfHeight float64
	Axis       int
}

func NewCapsuleShape(radius, height float64, axis int) *CapsuleShape {
	return &CapsuleShape{Radius: radius, HalfHeight: height / 2, Axis: axis}
}

func (s *CapsuleShape) Kind() ShapeKind { return ShapeCapsule }

func (s *CapsuleShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	f := axisFrame(s.Axis)
	c := f.toCanonical(dir)
	y := s.HalfHeight
	if c[1] < 0 {
		y = -y
	}
	p := f.fromCanonical(mgl64.Vec3{0, y, 0})
	return p.Add(safeNormalize(dir, mgl64.Vec3{0, 1, 0}).Mul(s.Radius + s.margin))
}

func (s *CapsuleShape) LocalAABB() AABB { return supportAABB(s) }

// CylinderShape is aligned with Axis and centered at the origin.
type CylinderShape struct {
	shapeBase
	Radius     float64
	HalfHeight float64
	Axis       int
}

func NewCylinderShape(radius, height float64, axis int) *CylinderShape {
	return &CylinderShape{Radius: radius, HalfHeight: height / 2, Axis: axis}
}

func (s *CylinderShape) Kind() ShapeKind { return ShapeCylinder }

func (s *CylinderShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	f := axisFrame(s.Axis)
	c := f.toCanonical(dir)
	var p mgl64.Vec3
	radial := math.Hypot(c[0], c[2])
	if radial > 1e-12 {
		p[0] = c[0] / radial * s.Radius
		p[2] = c[2] / radial * s.Radius
	}
	p[1] = s.HalfHeight
	if c[1] < 0 {
		p[1] = -s.HalfHeight
	}
	return s.inflate(f.fromCanonical(p), dir)
}

func (s *CylinderShape) LocalAABB() AABB { return supportAABB(s) }

// ConeShape has its apex at +Height/2 along Axis and its base disc at -Height/2.
type ConeShape struct {
	shapeBase
	Radius float64
	Height float64
	Axis   int
}

func NewConeShape(radius, height float64, axis int) *ConeShape {
	return &ConeShape{Radius: radius, Height: height, Axis: axis}
}

func (s *ConeShape) Kind() ShapeKind { return ShapeCone }

func (s *ConeShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	f := axisFrame(s.Axis)
	c := f.toCanonical(dir)
	half := s.Height / 2
	sinAngle := s.Radius / math.Hypot(s.Radius, s.Height)
	var p mgl64.Vec3
	if c[1] > c.Len()*sinAngle {
		p = mgl64.Vec3{0, half, 0}
	} else {
		radial := math.Hypot(c[0], c[2])
		p = mgl64.Vec3{0, -half, 0}
		if radial > 1e-12 {
			p[0] = c[0] / radial * s.Radius
			p[2] = c[2] / radial * s.Radius
		}
	}
	return s.inflate(f.fromCanonical(p), dir)
}

func (s *ConeShape) LocalAABB() AABB { return supportAABB(s) }

// MultiSphereShape is the convex hull of a set of spheres.
type MultiSphereShape struct {
	shapeBase
	Centers []mgl64.Vec3
	Radii   []float64
}

func NewMultiSphereShape(centers []mgl64.Vec3, radii []float64) *MultiSphereShape {
	return &MultiSphereShape{Centers: centers, Radii: radii}
}

func (s *MultiSphereShape) Kind() ShapeKind { return ShapeMultiSphere }

func (s *MultiSphereShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	n := safeNormalize(dir, mgl64.Vec3{0, 1, 0})
	best := math.Inf(-1)
	var out mgl64.Vec3
	for i, c := range s.Centers {
		p := c.Add(n.Mul(s.Radii[i] + s.margin))
		if d := p.Dot(n); d > best {
			best = d
			out = p
		}
	}
	return out
}

func (s *MultiSphereShape) LocalAABB() AABB { return supportAABB(s) }

// ConvexHullShape is the convex hull of a point cloud.
type ConvexHullShape struct {
	shapeBase
	Points []mgl64.Vec3
}

func NewConvexHullShape(points []mgl64.Vec3) *ConvexHullShape {
	return &ConvexHullShape{Points: points}
}

func (s *ConvexHullShape) Kind() ShapeKind { return ShapeConvexHull }

func (s *ConvexHullShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	best := math.Inf(-1)
	var out mgl64.Vec3
	for _, p := range s.Points {
		if d := p.Dot(dir); d > best {
			best = d
			out = p
		}
	}
	return s.inflate(out, dir)
}

func (s *ConvexHullShape) LocalAABB() AABB { return supportAABB(s) }

// TriangleShape is a single triangle, used internally for mesh narrowphase.
type TriangleShape struct {
	shapeBase
	V [3]mgl64.Vec3
}

func (s *TriangleShape) Kind() ShapeKind { return ShapeTriangle }

func (s *TriangleShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 {
	best := 0
	bestDot := s.V[0].Dot(dir)
	for i := 1; i < 3; i++ {
		if d := s.V[i].Dot(dir); d > bestDot {
			best, bestDot = i, d
		}
	}
	return s.inflate(s.V[best], dir)
}

func (s *TriangleShape) LocalAABB() AABB {
	box := EmptyAABB()
	for _, v := range s.V {
		box = box.AddPoint(v)
	}
	return box.Expand(s.margin)
}

// Normal returns the unit geometric normal (counter-clockwise winding).
func (s *TriangleShape) Normal() mgl64.Vec3 {
	return safeNormalize(s.V[1].Sub(s.V[0]).Cross(s.V[2].Sub(s.V[0])), mgl64.Vec3{0, 1, 0})
}

// StaticPlaneShape is the half space below dot(n, p) = Constant.
type StaticPlaneShape struct {
	shapeBase
	Normal   mgl64.Vec3
	Constant float64
}

func NewStaticPlaneShape(normal mgl64.Vec3, constant float64) *StaticPlaneShape {
	return &StaticPlaneShape{Normal: safeNormalize(normal, mgl64.Vec3{0, 1, 0}), Constant: constant}
}

func (s *StaticPlaneShape) Kind() ShapeKind { return ShapeStaticPlane }

const planeExtent = 1e6

func (s *StaticPlaneShape) LocalAABB() AABB {
	return AABB{
		Min: mgl64.Vec3{-planeExtent, -planeExtent, -planeExtent},
		Max: mgl64.Vec3{planeExtent, planeExtent, planeExtent},
	}
}

// CompoundChild is one shape placed inside a CompoundShape.
type CompoundChild struct {
	Transform Transform
	Shape     Shape
}

type CompoundShape struct {
	shapeBase
	Children []CompoundChild
}

func NewCompoundShape() *CompoundShape {
	return &CompoundShape{}
}

func (s *CompoundShape) Kind() ShapeKind { return ShapeCompound }

func (s *CompoundShape) AddChild(t Transform, child Shape) {
	s.Children = append(s.Children, CompoundChild{Transform: t, Shape: child})
}

func (s *CompoundShape) LocalAABB() AABB {
	box := EmptyAABB()
	for _, c := range s.Children {
		box = box.Merge(TransformAABB(c.Shape.LocalAABB(), c.Transform))
	}
	return box
}

// ShapeAABB returns the world bounds of shape under t.
func ShapeAABB(shape Shape, t Transform) AABB {
	if shape.Kind() == ShapeStaticPlane {
		return shape.LocalAABB()
	}
	return TransformAABB(shape.LocalAABB(), t)
}
