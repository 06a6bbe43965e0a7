package engine

import rl "github.com/gen2brain/raylib-go/raylib"

// ContactPoint is reported relative to the listener: Position lies on the
// listener's own body and Normal points from the other body towards it.
type ContactPoint struct {
	Position      rl.Vector3
	OtherPosition rl.Vector3
	Normal        rl.Vector3
	Distance      float32
	Impulse       float32
}

type ContactEvent struct {
	SelfActor  *Actor
	OtherActor *Actor
	SelfBody   Component
	OtherBody  Component

	// Points is empty unless the body asked for contact points and the event
	// is a begin or update.
	Points []ContactPoint
}

type OverlapEvent struct {
	SelfActor  *Actor
	OtherActor *Actor
	SelfBody   Component
	OtherBody  Component
}

// ContactDelegates holds the contact and overlap events of an actor or a
// physical component.
type ContactDelegates struct {
	OnBeginContact  EventWithArg[ContactEvent]
	OnUpdateContact EventWithArg[ContactEvent]
	OnEndContact    EventWithArg[ContactEvent]

	OnBeginOverlap  EventWithArg[OverlapEvent]
	OnUpdateOverlap EventWithArg[OverlapEvent]
	OnEndOverlap    EventWithArg[OverlapEvent]
}

func (d *ContactDelegates) HasContactListeners() bool {
	return d.OnBeginContact.GetListenerCount() > 0 ||
		d.OnUpdateContact.GetListenerCount() > 0 ||
		d.OnEndContact.GetListenerCount() > 0
}

func (d *ContactDelegates) HasOverlapListeners() bool {
	return d.OnBeginOverlap.GetListenerCount() > 0 ||
		d.OnUpdateOverlap.GetListenerCount() > 0 ||
		d.OnEndOverlap.GetListenerCount() > 0
}

func (d *ContactDelegates) RemoveAllListeners() {
	d.OnBeginContact.RemoveAllListeners()
	d.OnUpdateContact.RemoveAllListeners()
	d.OnEndContact.RemoveAllListeners()
	d.OnBeginOverlap.RemoveAllListeners()
	d.OnUpdateOverlap.RemoveAllListeners()
	d.OnEndOverlap.RemoveAllListeners()
}
