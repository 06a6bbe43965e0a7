package physics

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"physworld/internal/collision"
	"physworld/internal/dynamics"
	"physworld/internal/engine"
)

// Collision groups. A body collides with another when each body's group is
// in the other's mask.
const (
	CollisionGroupDefault   = dynamics.FilterDefault
	CollisionGroupStatic    = dynamics.FilterStatic
	CollisionGroupKinematic = dynamics.FilterKinematic
	CollisionGroupDebris    = dynamics.FilterDebris
	CollisionGroupTrigger   = dynamics.FilterSensor
	CollisionGroupCharacter = dynamics.FilterCharacter

	CollisionMaskAll = dynamics.FilterAll

	// CharacterCollisionMask is what character controllers sweep against.
	CharacterCollisionMask = CollisionGroupDefault | CollisionGroupStatic | CollisionGroupKinematic | CollisionGroupCharacter
)

var nextHitProxyID atomic.Uint64

// HitProxyOwner is the component a hit proxy reports contact events for.
type HitProxyOwner interface {
	engine.Component
	ContactEvents() *engine.ContactDelegates
}

// HitProxy binds one collision object in the dynamics world to the component
// that owns it.
type HitProxy struct {
	// Id increases with every proxy created and orders the two sides of a
	// contact pair.
	Id uint64

	CollisionGroup int
	CollisionMask  int

	Trigger               bool
	DispatchContactEvents bool
	DispatchOverlapEvents bool
	GenerateContactPoints bool

	// Model is the authored shape, used to draw the body and to harvest
	// static geometry. Optional.
	Model      *collision.Composition
	ModelScale mgl64.Vec3

	owner        HitProxyOwner
	object       dynamics.Object
	ignoreActors []*engine.Actor

	inWorld bool
	queued  bool
}

// NewHitProxy binds object to owner. The object's user pointer is set to the
// proxy so contacts can be traced back to the owner.
func NewHitProxy(owner HitProxyOwner, object dynamics.Object) *HitProxy {
	p := &HitProxy{
		Id:                    nextHitProxyID.Add(1),
		CollisionGroup:        CollisionGroupDefault,
		CollisionMask:         CollisionMaskAll,
		DispatchContactEvents: true,
		DispatchOverlapEvents: true,
		ModelScale:            mgl64.Vec3{1, 1, 1},
		owner:                 owner,
		object:                object,
	}
	if object != nil {
		object.Collision().SetUserPointer(p)
	}
	return p
}

func (p *HitProxy) Owner() HitProxyOwner    { return p.owner }
func (p *HitProxy) Object() dynamics.Object { return p.object }
func (p *HitProxy) InWorld() bool           { return p.inWorld }
func (p *HitProxy) IsQueued() bool          { return p.queued }

// CollisionObject returns nil when the proxy has no native object.
func (p *HitProxy) CollisionObject() *dynamics.CollisionObject {
	if p.object == nil {
		return nil
	}
	return p.object.Collision()
}

// Actor is the actor of the owning component, or nil.
func (p *HitProxy) Actor() *engine.Actor {
	if p.owner == nil {
		return nil
	}
	return p.owner.GetActor()
}

// AddToIgnoreList stops this proxy from colliding with a's bodies. The list
// holds a reference on a until it is removed or the proxy is released.
// Re-add the proxy to the world for the change to reach existing pairs.
func (p *HitProxy) AddToIgnoreList(a *engine.Actor) {
	if a == nil || p.IsIgnored(a) {
		return
	}
	a.AddRef()
	p.ignoreActors = append(p.ignoreActors, a)
}

func (p *HitProxy) RemoveFromIgnoreList(a *engine.Actor) {
	for i, ignored := range p.ignoreActors {
		if ignored == a {
			p.ignoreActors = append(p.ignoreActors[:i], p.ignoreActors[i+1:]...)
			a.RemoveRef()
			return
		}
	}
}

func (p *HitProxy) IsIgnored(a *engine.Actor) bool {
	for _, ignored := range p.ignoreActors {
		if ignored == a {
			return true
		}
	}
	return false
}

func (p *HitProxy) IgnoreList() []*engine.Actor {
	return p.ignoreActors
}

// Release drops the references held by the ignore list.
func (p *HitProxy) Release() {
	for _, a := range p.ignoreActors {
		a.RemoveRef()
	}
	p.ignoreActors = nil
}

// proxyOf recovers the proxy stored in an object's user pointer.
func proxyOf(o *dynamics.CollisionObject) *HitProxy {
	if o == nil {
		return nil
	}
	p, _ := o.UserPointer().(*HitProxy)
	return p
}
