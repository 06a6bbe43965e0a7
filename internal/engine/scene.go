package engine

import "github.com/google/uuid"

type Scene struct {
	Name    string
	Actors  []*Actor
	World   WorldAccess
	guidMap map[uuid.UUID]*Actor
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:    name,
		Actors:  make([]*Actor, 0),
		guidMap: make(map[uuid.UUID]*Actor),
	}
}

func (s *Scene) AddActor(a *Actor) {
	if s.guidMap == nil {
		s.guidMap = make(map[uuid.UUID]*Actor)
	}
	a.Scene = s
	s.Actors = append(s.Actors, a)
	s.guidMap[a.GUID] = a
}

// RemoveActor removes a and its children from the scene without running
// their destroy hooks.
func (s *Scene) RemoveActor(a *Actor) {
	for _, child := range a.Children {
		s.RemoveActor(child)
	}
	for i, obj := range s.Actors {
		if obj == a {
			s.Actors = append(s.Actors[:i], s.Actors[i+1:]...)
			break
		}
	}
	delete(s.guidMap, a.GUID)
	if a.Scene == s {
		a.Scene = nil
	}
}

func (s *Scene) FindByName(name string) *Actor {
	for _, a := range s.Actors {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (s *Scene) FindByTag(tag string) []*Actor {
	var result []*Actor
	for _, a := range s.Actors {
		if a.HasTag(tag) {
			result = append(result, a)
		}
	}
	return result
}

func (s *Scene) FindByGUID(id uuid.UUID) *Actor {
	return s.guidMap[id]
}

func (s *Scene) Start() {
	for _, a := range s.Actors {
		a.Start()
	}
}

func (s *Scene) Update(deltaTime float32) {
	// Components may spawn actors while updating.
	actors := append([]*Actor(nil), s.Actors...)
	for _, a := range actors {
		a.Start()
		a.Update(deltaTime)
	}
}

// ReapPendingKill removes destroyed actors and destroyed components. Every
// removed component gets OnDestroy, and every removed actor fires its
// OnDestroy event. Returns the removed actors.
func (s *Scene) ReapPendingKill() []*Actor {
	var reaped []*Actor
	kept := s.Actors[:0]
	for _, a := range s.Actors {
		if a.pendingKill {
			reaped = append(reaped, a)
			continue
		}
		for _, c := range a.reapComponents(false) {
			c.OnDestroy()
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(s.Actors); i++ {
		s.Actors[i] = nil
	}
	s.Actors = kept

	for _, a := range reaped {
		for _, c := range a.reapComponents(true) {
			c.OnDestroy()
		}
		delete(s.guidMap, a.GUID)
		if a.Parent != nil && !a.Parent.pendingKill {
			a.Parent.RemoveChild(a)
		}
		a.OnDestroy.Invoke()
		a.Scene = nil
	}
	return reaped
}
