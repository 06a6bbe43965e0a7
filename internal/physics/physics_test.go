package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"

	"physworld/internal/dynamics"
	"physworld/internal/engine"
)

const testStep = 1.0 / 60

type testBody struct {
	engine.BaseComponent
}

type testSphere struct {
	actor *engine.Actor
	body  *testBody
	rb    *dynamics.RigidBody
	proxy *HitProxy
}

func (s *testSphere) moveTo(x float64) {
	s.rb.SetWorldTransform(dynamics.NewTransform(mgl64.Vec3{x, 0, 0}, mgl64.QuatIdent()))
}

func newTestWorld(t *testing.T) *PhysicsWorld {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Gravity = [3]float64{}
	p := New(cfg, zaptest.NewLogger(t))
	t.Cleanup(p.Close)
	return p
}

// addKinematicSphere adds a unit diameter sphere on the X axis that only
// moves when the test moves it.
func addKinematicSphere(p *PhysicsWorld, name string, x float64) *testSphere {
	s := &testSphere{actor: engine.NewActor(name), body: &testBody{}}
	s.actor.AddComponent(s.body)
	s.rb = dynamics.NewRigidBody(0, dynamics.NewSphereShape(0.5), dynamics.NewTransform(mgl64.Vec3{x, 0, 0}, mgl64.QuatIdent()))
	s.rb.SetKinematic(true)
	s.proxy = NewHitProxy(s.body, s.rb)
	p.AddHitProxy(s.proxy)
	return s
}

type eventLog struct {
	events []string
}

func (l *eventLog) contacts(d *engine.ContactDelegates) {
	d.OnBeginContact.AddListener(func(engine.ContactEvent) { l.events = append(l.events, "begin-contact") })
	d.OnUpdateContact.AddListener(func(engine.ContactEvent) { l.events = append(l.events, "update-contact") })
	d.OnEndContact.AddListener(func(engine.ContactEvent) { l.events = append(l.events, "end-contact") })
}

func (l *eventLog) overlaps(d *engine.ContactDelegates) {
	d.OnBeginOverlap.AddListener(func(engine.OverlapEvent) { l.events = append(l.events, "begin-overlap") })
	d.OnUpdateOverlap.AddListener(func(engine.OverlapEvent) { l.events = append(l.events, "update-overlap") })
	d.OnEndOverlap.AddListener(func(engine.OverlapEvent) { l.events = append(l.events, "end-overlap") })
}
