// Package collision converts declarative collision bodies into dynamics
// shapes and loads them from descriptor files.
package collision

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"physworld/internal/dynamics"
	"physworld/internal/mathutil"
)

// BodyKind selects which fields of a Body are meaningful.
type BodyKind int

const (
	KindSphere BodyKind = iota
	KindBox
	KindCylinder
	KindCone
	KindCapsule
	KindMultiSphere
	KindConvexHull
	KindTriangleSoupBVH
)

var bodyKindNames = [...]string{
	"sphere", "box", "cylinder", "cone", "capsule", "multi_sphere", "convex_hull", "triangle_soup",
}

func (k BodyKind) String() string {
	if k >= 0 && int(k) < len(bodyKindNames) {
		return bodyKindNames[k]
	}
	return fmt.Sprintf("BodyKind(%d)", int(k))
}

func ParseBodyKind(s string) (BodyKind, error) {
	for i, name := range bodyKindNames {
		if strings.EqualFold(s, name) {
			return BodyKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown body kind %q", s)
}

func (k BodyKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

func (k *BodyKind) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseBodyKind(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

// Axis is the main axis of capsules, cylinders and cones. The zero value is Y.
type Axis int

const (
	AxisY Axis = iota
	AxisX
	AxisZ
)

// index returns the vector component the axis runs along.
func (a Axis) index() int {
	switch a {
	case AxisX:
		return 0
	case AxisZ:
		return 2
	default:
		return 1
	}
}

func (a Axis) MarshalYAML() (any, error) {
	switch a {
	case AxisX:
		return "x", nil
	case AxisZ:
		return "z", nil
	default:
		return "y", nil
	}
}

func (a *Axis) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "x":
		*a = AxisX
	case "y", "":
		*a = AxisY
	case "z":
		*a = AxisZ
	default:
		return fmt.Errorf("line %d: unknown axis %q", value.Line, value.Value)
	}
	return nil
}

type Sphere struct {
	Center mgl64.Vec3 `yaml:"center"`
	Radius float64    `yaml:"radius"`
}

// Body is one primitive of a collision model, placed relative to the model
// origin.
type Body struct {
	Kind     BodyKind   `yaml:"kind"`
	Position mgl64.Vec3 `yaml:"position"`
	Rotation mgl64.Vec3 `yaml:"rotation"` // Euler angles in degrees
	Margin   float64    `yaml:"margin"`

	Radius      float64    `yaml:"radius,omitempty"`
	HalfExtents mgl64.Vec3 `yaml:"half_extents,omitempty"`
	Height      float64    `yaml:"height,omitempty"`
	Axis        Axis       `yaml:"axis,omitempty"`

	Spheres  []Sphere     `yaml:"spheres,omitempty"`
	Vertices []mgl64.Vec3 `yaml:"vertices,omitempty"`
	Indices  []int32      `yaml:"indices,omitempty"`
}

func (b *Body) IsConvex() bool {
	return b.Kind != KindTriangleSoupBVH
}

// LocalTransform places the body inside its model.
func (b *Body) LocalTransform() dynamics.Transform {
	return dynamics.NewTransform(b.Position, mathutil.EulerDegrees(b.Rotation))
}

// Validate reports content errors that would make the body unusable.
func (b *Body) Validate() error {
	if b.Kind < KindSphere || b.Kind > KindTriangleSoupBVH {
		return fmt.Errorf("unknown kind %d", int(b.Kind))
	}
	if b.Radius < 0 || b.Height < 0 || b.Margin < 0 {
		return fmt.Errorf("%s: negative dimension", b.Kind)
	}
	for i, s := range b.Spheres {
		if s.Radius < 0 {
			return fmt.Errorf("%s: sphere %d has negative radius", b.Kind, i)
		}
	}
	if b.Kind == KindTriangleSoupBVH || len(b.Indices) > 0 {
		if len(b.Indices)%3 != 0 {
			return fmt.Errorf("%s: index count %d is not a multiple of 3", b.Kind, len(b.Indices))
		}
		for _, idx := range b.Indices {
			if idx < 0 || int(idx) >= len(b.Vertices) {
				return fmt.Errorf("%s: index %d out of range", b.Kind, idx)
			}
		}
	}
	return nil
}

// NativeShape builds the dynamics shape for the body in its own frame, with
// dimensions multiplied by scale. Returns nil for empty subparts.
func (b *Body) NativeShape(scale mgl64.Vec3) dynamics.Shape {
	axis := b.Axis.index()
	var shape dynamics.Shape
	switch b.Kind {
	case KindSphere:
		shape = dynamics.NewSphereShape(b.Radius * maxComponent(scale))
	case KindBox:
		shape = dynamics.NewBoxShape(mulVec(b.HalfExtents, scale))
	case KindCylinder:
		shape = dynamics.NewCylinderShape(b.Radius*radialScale(scale, axis), b.Height*scale[axis], axis)
	case KindCone:
		shape = dynamics.NewConeShape(b.Radius*radialScale(scale, axis), b.Height*scale[axis], axis)
	case KindCapsule:
		shape = dynamics.NewCapsuleShape(b.Radius*radialScale(scale, axis), b.Height*scale[axis], axis)
	case KindMultiSphere:
		if len(b.Spheres) == 0 {
			return nil
		}
		centers := make([]mgl64.Vec3, len(b.Spheres))
		radii := make([]float64, len(b.Spheres))
		for i, s := range b.Spheres {
			centers[i] = mulVec(s.Center, scale)
			radii[i] = s.Radius * maxComponent(scale)
		}
		shape = dynamics.NewMultiSphereShape(centers, radii)
	case KindConvexHull:
		if len(b.Vertices) == 0 {
			return nil
		}
		shape = dynamics.NewConvexHullShape(scaleVertices(b.Vertices, scale))
	case KindTriangleSoupBVH:
		if len(b.Vertices) == 0 || len(b.Indices) < 3 {
			return nil
		}
		shape = dynamics.NewTriangleMeshShape(scaleVertices(b.Vertices, scale), b.Indices)
	default:
		return nil
	}
	shape.SetMargin(b.Margin)
	return shape
}

// Geometry triangulates the body in its own frame. Degenerate triangles are
// dropped.
func (b *Body) Geometry(scale mgl64.Vec3) ([]mgl64.Vec3, []int32) {
	axis := b.Axis.index()
	var m mesh
	switch b.Kind {
	case KindSphere:
		m.sphere(mgl64.Vec3{}, b.Radius*maxComponent(scale))
	case KindBox:
		m.box(mulVec(b.HalfExtents, scale))
	case KindCylinder:
		m.cylinder(b.Radius*radialScale(scale, axis), b.Height*scale[axis], b.Radius*radialScale(scale, axis), axis)
	case KindCone:
		m.cylinder(b.Radius*radialScale(scale, axis), b.Height*scale[axis], 0, axis)
	case KindCapsule:
		m.capsule(b.Radius*radialScale(scale, axis), b.Height*scale[axis], axis)
	case KindMultiSphere:
		for _, s := range b.Spheres {
			m.sphere(mulVec(s.Center, scale), s.Radius*maxComponent(scale))
		}
	case KindConvexHull:
		verts := scaleVertices(b.Vertices, scale)
		if len(b.Indices) > 0 {
			m.triangles(verts, b.Indices)
		} else {
			m.hull(verts)
		}
	case KindTriangleSoupBVH:
		m.triangles(scaleVertices(b.Vertices, scale), b.Indices)
	}
	return m.vertices, m.indices
}

func mulVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func maxComponent(v mgl64.Vec3) float64 {
	return max(v[0], v[1], v[2])
}

// radialScale is the largest scale across the plane perpendicular to axis.
func radialScale(scale mgl64.Vec3, axis int) float64 {
	return max(scale[(axis+1)%3], scale[(axis+2)%3])
}

func scaleVertices(verts []mgl64.Vec3, scale mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(verts))
	for i, v := range verts {
		out[i] = mulVec(v, scale)
	}
	return out
}
