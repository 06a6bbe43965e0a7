package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physworld/internal/dynamics"
	"physworld/internal/engine"
)

func TestPairHashIsSymmetric(t *testing.T) {
	ids := [][2]uint64{{1, 2}, {7, 3}, {1 << 40, 5}, {12345, 1 << 33}, {9, 9}}
	for _, pair := range ids {
		assert.Equal(t, pairHash(pair[0], pair[1]), pairHash(pair[1], pair[0]), "pair %v", pair)
	}
}

func TestContactBufferFind(t *testing.T) {
	var b contactBuffer
	b.init()
	owners := [2]HitProxyOwner{&testBody{}, &testBody{}}
	b.insert(collisionContact{ids: [2]uint64{4, 9}, bodies: owners})
	b.insert(collisionContact{ids: [2]uint64{9, 4}, bodies: owners})
	for i := range b.contacts {
		b.contacts[i].addRefs()
	}

	assert.Equal(t, 0, b.find(4, 9))
	assert.Equal(t, 1, b.find(9, 4))
	assert.Equal(t, -1, b.find(4, 5))

	b.release()
	assert.Equal(t, -1, b.find(4, 9))
	assert.Empty(t, b.contacts)
	for _, owner := range owners {
		assert.Equal(t, 0, owner.RefCount())
	}
}

func TestContactLifecycle(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	b := addKinematicSphere(p, "b", 5)
	a.proxy.GenerateContactPoints = true

	var actorLog, bodyLog eventLog
	actorLog.contacts(&a.actor.Contacts)
	bodyLog.contacts(b.body.ContactEvents())

	var points []engine.ContactPoint
	a.actor.Contacts.OnBeginContact.AddListener(func(e engine.ContactEvent) {
		points = e.Points
		assert.Same(t, a.actor, e.SelfActor)
		assert.Same(t, b.actor, e.OtherActor)
	})

	p.Simulate(testStep)
	assert.Empty(t, actorLog.events)

	a.moveTo(4.2)
	p.Simulate(testStep)
	p.Simulate(testStep)
	a.moveTo(0)
	p.Simulate(testStep)
	p.Simulate(testStep)

	want := []string{"begin-contact", "update-contact", "end-contact"}
	assert.Equal(t, want, actorLog.events)
	assert.Equal(t, want, bodyLog.events)

	require.NotEmpty(t, points)
	// The normal points from b towards a.
	assert.Less(t, points[0].Normal.X, float32(0))
	assert.Less(t, points[0].Distance, float32(0))
}

func TestDynamicSpheresCollideAndSeparate(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	b := addKinematicSphere(p, "b", 2)
	for _, s := range []*testSphere{a, b} {
		s.rb.SetKinematic(false)
		s.rb.SetMass(1)
		s.rb.SetRestitution(1)
	}
	a.rb.SetLinearVelocity(mgl64.Vec3{3, 0, 0})

	var log eventLog
	log.contacts(&a.actor.Contacts)

	for i := 0; i < 120; i++ {
		p.Simulate(testStep)
	}

	require.GreaterOrEqual(t, len(log.events), 2, "events %v", log.events)
	assert.Equal(t, "begin-contact", log.events[0])
	assert.Equal(t, "end-contact", log.events[len(log.events)-1])
	for _, e := range log.events[1 : len(log.events)-1] {
		assert.Equal(t, "update-contact", e)
	}
	assert.Greater(t, b.rb.LinearVelocity().X(), a.rb.LinearVelocity().X())
	assert.Greater(t, b.rb.WorldTransform().Origin.X()-a.rb.WorldTransform().Origin.X(), 1.0)
}

// A manifold that keeps its broadphase pair but loses every point ends the
// contact; touching again begins a new one.
func TestEmptyManifoldEndsContact(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	b := addKinematicSphere(p, "b", 0.9)

	var log eventLog
	log.contacts(&a.actor.Contacts)

	p.Simulate(testStep)
	// Diagonal: the bounds still overlap but the spheres are 0.13 apart.
	b.rb.SetWorldTransform(dynamics.NewTransform(mgl64.Vec3{0.8, 0.8, 0}, mgl64.QuatIdent()))
	p.Simulate(testStep)
	require.Equal(t, 1, p.Dynamics().Dispatcher().NumManifolds())
	assert.Zero(t, p.Dynamics().Dispatcher().ManifoldByIndex(0).NumContacts())

	b.moveTo(0.9)
	p.Simulate(testStep)

	assert.Equal(t, []string{"begin-contact", "end-contact", "begin-contact"}, log.events)
}

func TestOwnersWithoutActorsGetBodyEvents(t *testing.T) {
	p := newTestWorld(t)
	var bodies [2]*testBody
	for i, x := range []float64{0, 0.9} {
		bodies[i] = &testBody{}
		rb := dynamics.NewRigidBody(0, dynamics.NewSphereShape(0.5), dynamics.NewTransform(mgl64.Vec3{x, 0, 0}, mgl64.QuatIdent()))
		rb.SetKinematic(true)
		p.AddHitProxy(NewHitProxy(bodies[i], rb))
	}

	var log eventLog
	log.contacts(bodies[0].ContactEvents())

	require.NotPanics(t, func() {
		p.Simulate(testStep)
		p.Simulate(testStep)
	})
	assert.Equal(t, []string{"begin-contact", "update-contact"}, log.events)
}

func TestFirstContactProducesBeginOnly(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	addKinematicSphere(p, "b", 0.9)

	var log eventLog
	log.contacts(&a.actor.Contacts)

	p.Simulate(testStep)
	assert.Equal(t, []string{"begin-contact"}, log.events)
}

func TestTriggerPairsOnlyOverlap(t *testing.T) {
	p := newTestWorld(t)
	trigger := addKinematicSphere(p, "trigger", 0)
	other := addKinematicSphere(p, "other", 0.9)
	trigger.proxy.Trigger = true

	var triggerLog, otherLog eventLog
	triggerLog.contacts(&trigger.actor.Contacts)
	triggerLog.overlaps(&trigger.actor.Contacts)
	otherLog.contacts(&other.actor.Contacts)
	otherLog.overlaps(&other.actor.Contacts)

	p.Simulate(testStep)
	p.Simulate(testStep)
	trigger.moveTo(-5)
	p.Simulate(testStep)

	assert.Equal(t, []string{"begin-overlap", "update-overlap", "end-overlap"}, triggerLog.events)
	assert.Empty(t, otherLog.events)
}

func TestNonTriggerPairsOnlyContact(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	addKinematicSphere(p, "b", 0.9)

	var log eventLog
	log.contacts(&a.actor.Contacts)
	log.overlaps(&a.actor.Contacts)

	p.Simulate(testStep)
	assert.Equal(t, []string{"begin-contact"}, log.events)
}

func TestPairsWithoutListenersAreNotTracked(t *testing.T) {
	p := newTestWorld(t)
	addKinematicSphere(p, "a", 0)
	addKinematicSphere(p, "b", 0.9)

	p.Simulate(testStep)

	assert.Equal(t, 1, p.Dynamics().Dispatcher().NumManifolds())
	assert.Empty(t, p.previousBuffer().contacts)
}

func TestDisabledDispatchSkipsSide(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	b := addKinematicSphere(p, "b", 0.9)
	a.proxy.DispatchContactEvents = false

	var aLog, bLog eventLog
	aLog.contacts(&a.actor.Contacts)
	bLog.contacts(&b.actor.Contacts)

	p.Simulate(testStep)
	assert.Empty(t, aLog.events)
	assert.Equal(t, []string{"begin-contact"}, bLog.events)
}

func TestDestroyedActorStopsDelivery(t *testing.T) {
	p := newTestWorld(t)
	// a is created last so it has the larger id and is dispatched first.
	b := addKinematicSphere(p, "b", 0.9)
	a := addKinematicSphere(p, "a", 0)

	var bLog eventLog
	a.actor.Contacts.OnBeginContact.AddListener(func(e engine.ContactEvent) {
		e.OtherActor.Destroy()
	})
	bLog.contacts(&b.actor.Contacts)

	p.Simulate(testStep)
	assert.Empty(t, bLog.events)

	// A pending kill pair is skipped, so it ends without a new record.
	p.Simulate(testStep)
	assert.Empty(t, bLog.events)
}

func TestContactReferencesAreReleased(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	b := addKinematicSphere(p, "b", 0.9)

	var log eventLog
	log.contacts(&a.actor.Contacts)

	for i := 0; i < 10; i++ {
		p.Simulate(testStep)
	}
	assert.Positive(t, a.actor.RefCount())
	assert.Positive(t, b.body.RefCount())

	p.Close()

	for _, s := range []*testSphere{a, b} {
		assert.Equal(t, 0, s.actor.RefCount(), s.actor.Name)
		assert.Equal(t, 0, s.body.RefCount(), s.actor.Name)
	}
}

func TestReferencesReleasedAfterSeparation(t *testing.T) {
	p := newTestWorld(t)
	a := addKinematicSphere(p, "a", 0)
	b := addKinematicSphere(p, "b", 0.9)

	var log eventLog
	log.contacts(&a.actor.Contacts)

	p.Simulate(testStep)
	b.moveTo(10)
	p.Simulate(testStep)
	p.Simulate(testStep)

	assert.Equal(t, []string{"begin-contact", "end-contact"}, log.events)
	assert.Equal(t, 0, a.actor.RefCount())
	assert.Equal(t, 0, b.actor.RefCount())
}

func TestFixedTickNumberAdvancesPerSubStep(t *testing.T) {
	p := newTestWorld(t)

	steps := p.Simulate(3.5 * testStep)

	assert.Equal(t, 3, steps)
	assert.Equal(t, uint64(3), p.FixedTickNumber)
}
