package physics

import (
	"go.uber.org/zap"

	"physworld/internal/dynamics"
	"physworld/internal/engine"
	"physworld/internal/mathutil"
)

// collisionContact is one colliding pair recorded during a sub-step. Side 0
// holds the proxy with the larger Id.
type collisionContact struct {
	manifold *dynamics.PersistentManifold
	actors   [2]*engine.Actor
	proxies  [2]*HitProxy
	bodies   [2]HitProxyOwner
	ids      [2]uint64

	// swapped is set when side 0 is the manifold's Body1.
	swapped bool

	actorContact [2]bool
	actorOverlap [2]bool
	bodyContact  [2]bool
	bodyOverlap  [2]bool
}

func (c *collisionContact) hasEvents() bool {
	for i := 0; i < 2; i++ {
		if c.actorContact[i] || c.actorOverlap[i] || c.bodyContact[i] || c.bodyOverlap[i] {
			return true
		}
	}
	return false
}

// alive reports whether every side of the pair may still receive events.
func (c *collisionContact) alive() bool {
	for i := 0; i < 2; i++ {
		if c.actors[i] != nil && c.actors[i].IsPendingKill() {
			return false
		}
		if c.bodies[i].IsPendingKill() {
			return false
		}
	}
	return true
}

func (c *collisionContact) addRefs() {
	for i := 0; i < 2; i++ {
		if c.actors[i] != nil {
			c.actors[i].AddRef()
		}
		c.bodies[i].AddRef()
	}
}

func (c *collisionContact) removeRefs() {
	for i := 0; i < 2; i++ {
		if c.actors[i] != nil {
			c.actors[i].RemoveRef()
		}
		c.bodies[i].RemoveRef()
	}
}

// pairHash combines two component ids independently of their order.
func pairHash(a, b uint64) uint32 {
	x := a ^ b
	return uint32(x)*0x9E3779B1 ^ uint32(x>>32)
}

// contactBuffer is the set of pairs recorded in one sub-step, indexed by
// pairHash.
type contactBuffer struct {
	contacts []collisionContact
	hash     map[uint32][]int
}

func (b *contactBuffer) init() {
	b.hash = make(map[uint32][]int)
}

func (b *contactBuffer) find(idA, idB uint64) int {
	for _, i := range b.hash[pairHash(idA, idB)] {
		c := &b.contacts[i]
		if c.ids[0] == idA && c.ids[1] == idB {
			return i
		}
	}
	return -1
}

func (b *contactBuffer) insert(c collisionContact) {
	b.contacts = append(b.contacts, c)
	h := pairHash(c.ids[0], c.ids[1])
	b.hash[h] = append(b.hash[h], len(b.contacts)-1)
}

// release drops the references of every record and empties the buffer.
func (b *contactBuffer) release() {
	for i := range b.contacts {
		b.contacts[i].removeRefs()
	}
	clear(b.contacts)
	b.contacts = b.contacts[:0]
	clear(b.hash)
}

// pointsMemo caches the points of the last (contact, side) generated, so a
// side whose actor and component both want points builds them once.
type pointsMemo struct {
	key    int
	points []engine.ContactPoint
}

func (m *pointsMemo) reset() {
	m.key = -1
	m.points = m.points[:0]
}

func (p *PhysicsWorld) currentBuffer() *contactBuffer {
	return &p.buffers[p.FixedTickNumber&1]
}

func (p *PhysicsWorld) previousBuffer() *contactBuffer {
	return &p.buffers[(p.FixedTickNumber+1)&1]
}

// generateContactEvents records this sub-step's colliding pairs and diffs
// them against the previous sub-step to dispatch begin, update and end
// events.
func (p *PhysicsWorld) generateContactEvents() {
	current := p.currentBuffer()
	previous := p.previousBuffer()

	current.release()

	dispatcher := p.world.Dispatcher()
	for i := 0; i < dispatcher.NumManifolds(); i++ {
		m := dispatcher.ManifoldByIndex(i)
		if m.NumContacts() == 0 {
			continue
		}
		c, ok := p.newContact(m)
		if !ok {
			continue
		}
		if current.find(c.ids[0], c.ids[1]) >= 0 {
			p.diag.Warn(DiagDuplicatePair, "duplicate contact pair in one sub-step",
				zap.Uint64("proxyA", c.proxies[0].Id), zap.Uint64("proxyB", c.proxies[1].Id))
			continue
		}
		c.addRefs()
		current.insert(c)
	}

	p.pointsMemo.reset()

	for i := range current.contacts {
		c := &current.contacts[i]
		begin := previous.find(c.ids[0], c.ids[1]) < 0
		for side := 0; side < 2; side++ {
			p.dispatchActor(c, i, side, begin)
			p.dispatchBody(c, i, side, begin)
		}
	}

	for i := range previous.contacts {
		c := &previous.contacts[i]
		if current.find(c.ids[0], c.ids[1]) >= 0 {
			continue
		}
		for side := 0; side < 2; side++ {
			p.dispatchEnd(c, side)
		}
	}

	p.FixedTickNumber++
}

// newContact resolves the pair behind m and works out which sides want which
// events. ok is false when the pair needs no tracking.
func (p *PhysicsWorld) newContact(m *dynamics.PersistentManifold) (collisionContact, bool) {
	a, b := proxyOf(m.Body0), proxyOf(m.Body1)
	if a == nil || b == nil || a.owner == nil || b.owner == nil {
		return collisionContact{}, false
	}
	c := collisionContact{manifold: m}
	if a.Id < b.Id {
		a, b = b, a
		c.swapped = true
	}
	c.proxies = [2]*HitProxy{a, b}
	c.bodies = [2]HitProxyOwner{a.owner, b.owner}
	c.actors = [2]*engine.Actor{a.Actor(), b.Actor()}
	c.ids = [2]uint64{a.owner.ID(), b.owner.ID()}
	if !c.alive() {
		return collisionContact{}, false
	}

	trigger := a.Trigger || b.Trigger
	for side, proxy := range c.proxies {
		actor := c.actors[side]
		events := c.bodies[side].ContactEvents()
		if trigger {
			if proxy.Trigger && proxy.DispatchOverlapEvents {
				c.actorOverlap[side] = actor != nil && actor.Contacts.HasOverlapListeners()
				c.bodyOverlap[side] = events.HasOverlapListeners()
			}
			continue
		}
		if proxy.DispatchContactEvents {
			c.actorContact[side] = actor != nil && actor.Contacts.HasContactListeners()
			c.bodyContact[side] = events.HasContactListeners()
		}
	}
	return c, c.hasEvents()
}

func (p *PhysicsWorld) dispatchActor(c *collisionContact, index, side int, begin bool) {
	if c.actors[side] == nil {
		return
	}
	delegates := &c.actors[side].Contacts
	switch {
	case c.actorContact[side]:
		ev := p.contactEvent(c, index, side)
		if begin {
			delegates.OnBeginContact.InvokeIf(ev, c.alive)
		} else {
			delegates.OnUpdateContact.InvokeIf(ev, c.alive)
		}
	case c.actorOverlap[side]:
		ev := overlapEvent(c, side)
		if begin {
			delegates.OnBeginOverlap.InvokeIf(ev, c.alive)
		} else {
			delegates.OnUpdateOverlap.InvokeIf(ev, c.alive)
		}
	}
}

func (p *PhysicsWorld) dispatchBody(c *collisionContact, index, side int, begin bool) {
	delegates := c.bodies[side].ContactEvents()
	switch {
	case c.bodyContact[side]:
		ev := p.contactEvent(c, index, side)
		if begin {
			delegates.OnBeginContact.InvokeIf(ev, c.alive)
		} else {
			delegates.OnUpdateContact.InvokeIf(ev, c.alive)
		}
	case c.bodyOverlap[side]:
		ev := overlapEvent(c, side)
		if begin {
			delegates.OnBeginOverlap.InvokeIf(ev, c.alive)
		} else {
			delegates.OnUpdateOverlap.InvokeIf(ev, c.alive)
		}
	}
}

// dispatchEnd uses the flags recorded when the pair was last seen.
func (p *PhysicsWorld) dispatchEnd(c *collisionContact, side int) {
	if c.actorContact[side] {
		c.actors[side].Contacts.OnEndContact.InvokeIf(contactEventBase(c, side), c.alive)
	} else if c.actorOverlap[side] {
		c.actors[side].Contacts.OnEndOverlap.InvokeIf(overlapEvent(c, side), c.alive)
	}
	if c.bodyContact[side] {
		c.bodies[side].ContactEvents().OnEndContact.InvokeIf(contactEventBase(c, side), c.alive)
	} else if c.bodyOverlap[side] {
		c.bodies[side].ContactEvents().OnEndOverlap.InvokeIf(overlapEvent(c, side), c.alive)
	}
}

func contactEventBase(c *collisionContact, side int) engine.ContactEvent {
	other := 1 - side
	return engine.ContactEvent{
		SelfActor:  c.actors[side],
		OtherActor: c.actors[other],
		SelfBody:   c.bodies[side],
		OtherBody:  c.bodies[other],
	}
}

func overlapEvent(c *collisionContact, side int) engine.OverlapEvent {
	other := 1 - side
	return engine.OverlapEvent{
		SelfActor:  c.actors[side],
		OtherActor: c.actors[other],
		SelfBody:   c.bodies[side],
		OtherBody:  c.bodies[other],
	}
}

func (p *PhysicsWorld) contactEvent(c *collisionContact, index, side int) engine.ContactEvent {
	ev := contactEventBase(c, side)
	if c.proxies[side].GenerateContactPoints {
		ev.Points = p.contactPoints(c, index, side)
	}
	return ev
}

// contactPoints returns the manifold's points seen from side: positions on
// that side's body and normals pointing towards it.
func (p *PhysicsWorld) contactPoints(c *collisionContact, index, side int) []engine.ContactPoint {
	key := index<<1 | side
	if p.pointsMemo.key == key {
		return p.pointsMemo.points
	}

	// Manifold normals point towards Body0.
	onBody1 := side == 1
	if c.swapped {
		onBody1 = !onBody1
	}

	m := c.manifold
	points := make([]engine.ContactPoint, 0, m.NumContacts())
	for i := 0; i < m.NumContacts(); i++ {
		mp := m.ContactPoint(i)
		self, other, normal := mp.PositionWorldOnA, mp.PositionWorldOnB, mp.NormalWorldOnB
		if onBody1 {
			self, other, normal = other, self, normal.Mul(-1)
		}
		points = append(points, engine.ContactPoint{
			Position:      mathutil.Vector3(self),
			OtherPosition: mathutil.Vector3(other),
			Normal:        mathutil.Vector3(normal),
			Distance:      float32(mp.Distance),
			Impulse:       float32(mp.AppliedImpulse),
		})
	}
	p.pointsMemo.key = key
	p.pointsMemo.points = points
	return points
}
