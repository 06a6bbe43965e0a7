package engine

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
)

type Transform struct {
	Position rl.Vector3
	Rotation rl.Vector3 // Euler angles in degrees
	Scale    rl.Vector3
}

// RotationMatrix applies X, then Y, then Z, matching the renderer.
func (t Transform) RotationMatrix() rl.Matrix {
	return eulerMatrix(t.Rotation)
}

func eulerMatrix(deg rl.Vector3) rl.Matrix {
	rotX := rl.MatrixRotateX(float32(float64(deg.X) * math.Pi / 180))
	rotY := rl.MatrixRotateY(float32(float64(deg.Y) * math.Pi / 180))
	rotZ := rl.MatrixRotateZ(float32(float64(deg.Z) * math.Pi / 180))
	return rl.MatrixMultiply(rl.MatrixMultiply(rotX, rotY), rotZ)
}

// Actor is the scene-graph node that owns components. Contact and overlap
// events for the actor's bodies are delivered through Contacts.
type Actor struct {
	GUID       uuid.UUID
	Name       string
	Tags       []string
	Transform  Transform
	Active     bool
	Scene      *Scene
	Parent     *Actor
	Children   []*Actor
	Contacts   ContactDelegates
	OnDestroy  Event
	components []Component
	started    bool

	pendingKill bool
	refs        int
}

func NewActor(name string) *Actor {
	return &Actor{
		GUID:   uuid.New(),
		Name:   name,
		Active: true,
		Transform: Transform{
			Position: rl.Vector3{},
			Rotation: rl.Vector3{},
			Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
		},
		components: make([]Component, 0),
		Children:   make([]*Actor, 0),
	}
}

func (a *Actor) AddComponent(c Component) {
	c.SetActor(a)
	a.components = append(a.components, c)
	if a.started {
		c.Start()
	}
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](a *Actor) T {
	var zero T
	for _, c := range a.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (a *Actor) Start() {
	if a.started {
		return
	}
	a.started = true
	for _, c := range a.components {
		c.Start()
	}
}

func (a *Actor) Update(deltaTime float32) {
	if !a.Active || a.pendingKill {
		return
	}
	for _, c := range a.components {
		if !c.IsPendingKill() {
			c.Update(deltaTime)
		}
	}
}

func (a *Actor) Components() []Component {
	return a.components
}

func (a *Actor) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (a *Actor) AddChild(child *Actor) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = a
	a.Children = append(a.Children, child)
}

func (a *Actor) RemoveChild(child *Actor) {
	for i, c := range a.Children {
		if c == child {
			a.Children = append(a.Children[:i], a.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// Destroy marks the actor and its children for removal. The actor stays in
// the scene until the next ReapPendingKill.
func (a *Actor) Destroy() {
	a.pendingKill = true
	for _, child := range a.Children {
		child.Destroy()
	}
}

func (a *Actor) IsPendingKill() bool {
	return a.pendingKill
}

func (a *Actor) AddRef()       { a.refs++ }
func (a *Actor) RemoveRef()    { a.refs-- }
func (a *Actor) RefCount() int { return a.refs }

// reapComponents removes destroyed components and returns them.
func (a *Actor) reapComponents(all bool) []Component {
	var reaped []Component
	kept := a.components[:0]
	for _, c := range a.components {
		if all || c.IsPendingKill() {
			reaped = append(reaped, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(a.components); i++ {
		a.components[i] = nil
	}
	a.components = kept
	return reaped
}

func (a *Actor) WorldPosition() rl.Vector3 {
	if a.Parent == nil {
		return a.Transform.Position
	}
	parentPos := a.Parent.WorldPosition()
	parentScale := a.Parent.WorldScale()

	// Scale local position by parent's world scale
	scaled := rl.Vector3{
		X: a.Transform.Position.X * parentScale.X,
		Y: a.Transform.Position.Y * parentScale.Y,
		Z: a.Transform.Position.Z * parentScale.Z,
	}

	rotated := rl.Vector3Transform(scaled, eulerMatrix(a.Parent.WorldRotation()))
	return rl.Vector3Add(parentPos, rotated)
}

// SetWorldPosition moves the actor so WorldPosition returns p.
func (a *Actor) SetWorldPosition(p rl.Vector3) {
	if a.Parent == nil {
		a.Transform.Position = p
		return
	}
	local := rl.Vector3Subtract(p, a.Parent.WorldPosition())
	local = rl.Vector3Transform(local, rl.MatrixTranspose(eulerMatrix(a.Parent.WorldRotation())))
	ps := a.Parent.WorldScale()
	a.Transform.Position = rl.Vector3{X: safeDiv(local.X, ps.X), Y: safeDiv(local.Y, ps.Y), Z: safeDiv(local.Z, ps.Z)}
}

func safeDiv(v, s float32) float32 {
	if s == 0 {
		return 0
	}
	return v / s
}

func (a *Actor) WorldRotation() rl.Vector3 {
	if a.Parent == nil {
		return a.Transform.Rotation
	}
	return rl.Vector3Add(a.Parent.WorldRotation(), a.Transform.Rotation)
}

func (a *Actor) WorldScale() rl.Vector3 {
	if a.Parent == nil {
		return a.Transform.Scale
	}
	ps := a.Parent.WorldScale()
	return rl.Vector3{
		X: ps.X * a.Transform.Scale.X,
		Y: ps.Y * a.Transform.Scale.Y,
		Z: ps.Z * a.Transform.Scale.Z,
	}
}

// WorldRotationQuaternion is the actor's world rotation as a quaternion.
func (a *Actor) WorldRotationQuaternion() rl.Quaternion {
	return rl.QuaternionFromMatrix(eulerMatrix(a.WorldRotation()))
}
