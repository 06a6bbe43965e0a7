package engine

import "github.com/google/uuid"

// ActorRef is a serializable reference to an Actor by GUID.
// Use this in components that point at other actors from a scene file.
//
// Example:
//
//	type Door struct {
//	    engine.BaseComponent
//	    Trigger engine.ActorRef
//	}
//
//	func (d *Door) Start() {
//	    if t := d.Trigger.Get(d.GetActor().Scene); t != nil {
//	        // Use the trigger...
//	    }
//	}
type ActorRef struct {
	GUID uuid.UUID // uuid.Nil = none
}

// ParseActorRef parses a GUID string. An empty string is an empty reference.
func ParseActorRef(s string) (ActorRef, error) {
	if s == "" {
		return ActorRef{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return ActorRef{}, err
	}
	return ActorRef{GUID: id}, nil
}

// Get resolves the reference to the actual Actor.
// Returns nil if the reference is empty or the Actor isn't in the scene.
func (r ActorRef) Get(scene *Scene) *Actor {
	if r.GUID == uuid.Nil || scene == nil {
		return nil
	}
	return scene.FindByGUID(r.GUID)
}

// IsValid doesn't check that the Actor actually exists in a scene.
func (r ActorRef) IsValid() bool {
	return r.GUID != uuid.Nil
}

// Set points the reference at a. Pass nil to clear it.
func (r *ActorRef) Set(a *Actor) {
	if a == nil {
		r.GUID = uuid.Nil
	} else {
		r.GUID = a.GUID
	}
}

func (r *ActorRef) Clear() {
	r.GUID = uuid.Nil
}

func (r ActorRef) String() string {
	if r.GUID == uuid.Nil {
		return ""
	}
	return r.GUID.String()
}
