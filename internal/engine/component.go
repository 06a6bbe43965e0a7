package engine

import "sync/atomic"

var nextComponentID atomic.Uint64

type Component interface {
	Start()
	Update(deltaTime float32)
	SetActor(a *Actor)
	GetActor() *Actor

	// ID is unique for the lifetime of the process and never reused.
	ID() uint64

	AddRef()
	RemoveRef()
	RefCount() int

	Destroy()
	IsPendingKill() bool
	OnDestroy()
}

// ContactListener is implemented by components that receive contact and
// overlap events from the physics world.
type ContactListener interface {
	Component
	ContactEvents() *ContactDelegates
}

// BaseComponent provides default implementation for Component interface
type BaseComponent struct {
	actor       *Actor
	id          uint64
	refs        int
	pendingKill bool
	contacts    ContactDelegates
}

func (b *BaseComponent) Start() {}

func (b *BaseComponent) Update(deltaTime float32) {}

func (b *BaseComponent) OnDestroy() {}

func (b *BaseComponent) SetActor(a *Actor) {
	b.actor = a
}

func (b *BaseComponent) GetActor() *Actor {
	return b.actor
}

func (b *BaseComponent) ID() uint64 {
	if b.id == 0 {
		b.id = nextComponentID.Add(1)
	}
	return b.id
}

func (b *BaseComponent) AddRef()       { b.refs++ }
func (b *BaseComponent) RemoveRef()    { b.refs-- }
func (b *BaseComponent) RefCount() int { return b.refs }

// Destroy marks the component for removal at the next reap.
func (b *BaseComponent) Destroy() {
	b.pendingKill = true
}

// IsPendingKill reports whether the component or its actor was destroyed.
func (b *BaseComponent) IsPendingKill() bool {
	return b.pendingKill || (b.actor != nil && b.actor.pendingKill)
}

func (b *BaseComponent) ContactEvents() *ContactDelegates {
	return &b.contacts
}
