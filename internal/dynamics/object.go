package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionFlags describe how an object takes part in the simulation.
type CollisionFlags int

const (
	FlagStaticObject CollisionFlags = 1 << iota
	FlagKinematicObject
	FlagNoContactResponse
	FlagCustomMaterialCallback
	FlagCharacterObject
)

// Default broadphase filter groups.
const (
	FilterDefault   = 1
	FilterStatic    = 2
	FilterKinematic = 4
	FilterDebris    = 8
	FilterSensor    = 16
	FilterCharacter = 32
	FilterAll       = -1
)

// Object is implemented by every concrete collision object kind.
type Object interface {
	Collision() *CollisionObject
}

// CollisionObject is the common part of rigid bodies and ghost objects.
type CollisionObject struct {
	worldTransform Transform
	shape          Shape
	flags          CollisionFlags
	userPointer    any
	friction       float64
	restitution    float64

	group int
	mask  int
	world *World
	uid   int
	aabb  AABB

	body  *RigidBody
	ghost *GhostObject
}

func newCollisionObject(shape Shape, t Transform) CollisionObject {
	return CollisionObject{
		worldTransform: t,
		shape:          shape,
		friction:       0.5,
		group:          FilterDefault,
		mask:           FilterAll,
	}
}

// NewCollisionObject creates a plain collision object that is neither
// simulated nor tracking overlaps.
func NewCollisionObject(shape Shape, t Transform) *CollisionObject {
	o := newCollisionObject(shape, t)
	return &o
}

func (o *CollisionObject) Collision() *CollisionObject { return o }

func (o *CollisionObject) WorldTransform() Transform     { return o.worldTransform }
func (o *CollisionObject) SetWorldTransform(t Transform) { o.worldTransform = t }
func (o *CollisionObject) Shape() Shape                  { return o.shape }
func (o *CollisionObject) SetShape(s Shape)              { o.shape = s }
func (o *CollisionObject) UserPointer() any              { return o.userPointer }
func (o *CollisionObject) SetUserPointer(p any)          { o.userPointer = p }
func (o *CollisionObject) Flags() CollisionFlags         { return o.flags }
func (o *CollisionObject) SetFlags(f CollisionFlags)     { o.flags = f }
func (o *CollisionObject) Friction() float64             { return o.friction }
func (o *CollisionObject) SetFriction(f float64)         { o.friction = f }
func (o *CollisionObject) Restitution() float64          { return o.restitution }
func (o *CollisionObject) SetRestitution(r float64)      { o.restitution = r }

// Group and Mask return the broadphase filter values the object was added with.
func (o *CollisionObject) Group() int { return o.group }
func (o *CollisionObject) Mask() int  { return o.mask }

// InWorld reports whether the object is currently part of a world.
func (o *CollisionObject) InWorld() bool { return o.world != nil }

// AABB returns the broadphase bounds computed at the last update.
func (o *CollisionObject) AABB() AABB { return o.aabb }

// Body returns the rigid body behind this object, or nil.
func (o *CollisionObject) Body() *RigidBody { return o.body }

// Ghost returns the ghost object behind this object, or nil.
func (o *CollisionObject) Ghost() *GhostObject { return o.ghost }

func (o *CollisionObject) IsStaticObject() bool {
	return o.flags&FlagStaticObject != 0
}

func (o *CollisionObject) IsKinematicObject() bool {
	return o.flags&FlagKinematicObject != 0
}

func (o *CollisionObject) IsStaticOrKinematicObject() bool {
	return o.flags&(FlagStaticObject|FlagKinematicObject) != 0
}

func (o *CollisionObject) HasContactResponse() bool {
	return o.flags&FlagNoContactResponse == 0
}

// RigidBody is a simulated body. A body with zero mass is static unless it is
// flagged kinematic.
type RigidBody struct {
	CollisionObject
	invMass        float64
	linearVelocity mgl64.Vec3
	gravity        mgl64.Vec3
	linearDamping  float64
	ownGravity     bool
	totalForce     mgl64.Vec3
}

func NewRigidBody(mass float64, shape Shape, t Transform) *RigidBody {
	b := &RigidBody{CollisionObject: newCollisionObject(shape, t)}
	b.body = b
	b.SetMass(mass)
	return b
}

// SetMass updates the inverse mass and the static flag.
func (b *RigidBody) SetMass(mass float64) {
	if mass <= 0 {
		b.invMass = 0
		if !b.IsKinematicObject() {
			b.flags |= FlagStaticObject
		}
		return
	}
	b.invMass = 1 / mass
	b.flags &^= FlagStaticObject
}

func (b *RigidBody) InvMass() float64 { return b.invMass }

func (b *RigidBody) Mass() float64 {
	if b.invMass == 0 {
		return 0
	}
	return 1 / b.invMass
}

// SetKinematic switches the body between kinematic and mass driven behavior.
func (b *RigidBody) SetKinematic(kinematic bool) {
	if kinematic {
		b.flags |= FlagKinematicObject
		b.flags &^= FlagStaticObject
		b.invMass = 0
		return
	}
	b.flags &^= FlagKinematicObject
	if b.invMass == 0 {
		b.flags |= FlagStaticObject
	}
}

func (b *RigidBody) IsDynamic() bool {
	return b.invMass > 0 && !b.IsStaticOrKinematicObject()
}

func (b *RigidBody) LinearVelocity() mgl64.Vec3     { return b.linearVelocity }
func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3) { b.linearVelocity = v }
func (b *RigidBody) LinearDamping() float64         { return b.linearDamping }

func (b *RigidBody) SetLinearDamping(d float64) {
	b.linearDamping = math.Max(0, math.Min(1, d))
}

// SetGravity overrides the world gravity for this body.
func (b *RigidBody) SetGravity(g mgl64.Vec3) {
	b.gravity = g
	b.ownGravity = true
}

func (b *RigidBody) Gravity() mgl64.Vec3 { return b.gravity }

func (b *RigidBody) ApplyCentralImpulse(impulse mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.invMass))
}

func (b *RigidBody) ApplyCentralForce(force mgl64.Vec3) {
	b.totalForce = b.totalForce.Add(force)
}

func (b *RigidBody) ClearForces() {
	b.totalForce = mgl64.Vec3{}
}

func (b *RigidBody) integrateVelocities(dt float64) {
	if !b.IsDynamic() {
		return
	}
	accel := b.gravity.Add(b.totalForce.Mul(b.invMass))
	b.linearVelocity = b.linearVelocity.Add(accel.Mul(dt))
	if b.linearDamping > 0 {
		b.linearVelocity = b.linearVelocity.Mul(math.Pow(1-b.linearDamping, dt))
	}
}

func (b *RigidBody) integrateTransform(dt float64) {
	if !b.IsDynamic() {
		return
	}
	b.worldTransform.Origin = b.worldTransform.Origin.Add(b.linearVelocity.Mul(dt))
}

// GhostObject tracks the objects its broadphase bounds overlap without taking
// part in the dynamics.
type GhostObject struct {
	CollisionObject
	overlapping []*CollisionObject
	manifolds   []*PersistentManifold
}

func NewGhostObject(shape Shape, t Transform) *GhostObject {
	g := &GhostObject{CollisionObject: newCollisionObject(shape, t)}
	g.flags = FlagNoContactResponse
	g.ghost = g
	return g
}

// OverlappingObjects returns the broadphase overlaps as of the last refresh.
func (g *GhostObject) OverlappingObjects() []*CollisionObject {
	return g.overlapping
}

func (g *GhostObject) addOverlap(o *CollisionObject) {
	for _, existing := range g.overlapping {
		if existing == o {
			return
		}
	}
	g.overlapping = append(g.overlapping, o)
}

func (g *GhostObject) removeOverlap(o *CollisionObject) {
	for i, existing := range g.overlapping {
		if existing == o {
			g.overlapping = append(g.overlapping[:i], g.overlapping[i+1:]...)
			return
		}
	}
}
