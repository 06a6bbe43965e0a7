package physics

import (
	"math"

	"go.uber.org/zap"

	"physworld/internal/dynamics"
	"physworld/internal/mathutil"
)

// TickListener is called around every fixed sub-step. PrePhysics runs after
// pending bodies are inserted; PostPhysics runs before contact events are
// dispatched.
type TickListener interface {
	PrePhysics(timeStep float64)
	PostPhysics(timeStep float64)
}

// PhysicsWorld owns a dynamics world and ties its objects to engine
// components through hit proxies.
type PhysicsWorld struct {
	cfg    Config
	logger *zap.Logger
	diag   *Diagnostics
	world  *dynamics.World

	pending   []*HitProxy
	listeners []TickListener

	// FixedTickNumber counts sub-steps. Its parity selects which buffer holds
	// the current contacts.
	FixedTickNumber uint64
	buffers         [2]contactBuffer
	pointsMemo      pointsMemo
}

func New(cfg Config, logger *zap.Logger) *PhysicsWorld {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("physics")
	p := &PhysicsWorld{
		cfg:    cfg,
		logger: logger,
		diag:   newDiagnostics(logger, cfg.Diagnostics),
		world:  dynamics.NewWorld(),
	}
	p.buffers[0].init()
	p.buffers[1].init()
	p.pointsMemo.reset()

	p.world.SetGravity(cfg.GravityVec())
	if cfg.ContactBreakingThreshold > 0 {
		p.world.SetContactBreakingThreshold(cfg.ContactBreakingThreshold)
	}
	p.world.SetOverlapFilter(p.needsBroadphaseCollision)
	p.world.SetContactAddedCallback(combineMaterials)
	p.world.SetInternalTickCallback(p.onPrePhysics, true)
	p.world.SetInternalTickCallback(p.onPostPhysics, false)
	return p
}

func (p *PhysicsWorld) Config() Config            { return p.cfg }
func (p *PhysicsWorld) Dynamics() *dynamics.World { return p.world }
func (p *PhysicsWorld) Diagnostics() *Diagnostics { return p.diag }
func (p *PhysicsWorld) Logger() *zap.Logger       { return p.logger }

func (p *PhysicsWorld) SetDebug(d DebugConfig) {
	p.cfg.Debug = d
}

func (p *PhysicsWorld) SetNoSimulation(noSimulation bool) {
	p.cfg.NoSimulation = noSimulation
}

// AddHitProxy queues proxy for insertion at the start of the next sub-step.
// A proxy already in the world is taken out first, so calling it again after
// changing the collision group or mask re-inserts the object with the new
// values. Queuing is idempotent.
func (p *PhysicsWorld) AddHitProxy(proxy *HitProxy) {
	if proxy == nil {
		return
	}
	if proxy.inWorld {
		p.world.RemoveCollisionObject(proxy.CollisionObject())
		proxy.inWorld = false
	}
	if proxy.queued || proxy.object == nil {
		return
	}
	proxy.queued = true
	p.pending = append(p.pending, proxy)
}

// RemoveHitProxy takes proxy out of the pending list and the world.
func (p *PhysicsWorld) RemoveHitProxy(proxy *HitProxy) {
	if proxy == nil {
		return
	}
	if proxy.queued {
		for i, queued := range p.pending {
			if queued == proxy {
				p.pending = append(p.pending[:i], p.pending[i+1:]...)
				break
			}
		}
		proxy.queued = false
	}
	if proxy.inWorld {
		p.world.RemoveCollisionObject(proxy.CollisionObject())
		proxy.inWorld = false
	}
}

// AddPendingBodies inserts every queued proxy into the dynamics world.
func (p *PhysicsWorld) AddPendingBodies() {
	for _, proxy := range p.pending {
		switch obj := proxy.object.(type) {
		case *dynamics.RigidBody:
			p.world.AddRigidBody(obj, proxy.CollisionGroup, proxy.CollisionMask)
		default:
			p.world.AddCollisionObject(obj.Collision(), proxy.CollisionGroup, proxy.CollisionMask)
		}
		proxy.inWorld = true
		proxy.queued = false
	}
	clear(p.pending)
	p.pending = p.pending[:0]
}

// PendingCount is the number of proxies waiting for insertion.
func (p *PhysicsWorld) PendingCount() int {
	return len(p.pending)
}

func (p *PhysicsWorld) AddTickListener(l TickListener) {
	for _, existing := range p.listeners {
		if existing == l {
			return
		}
	}
	p.listeners = append(p.listeners, l)
}

func (p *PhysicsWorld) RemoveTickListener(l TickListener) {
	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// Simulate advances the world by timeStep seconds in fixed sub-steps and
// returns how many sub-steps ran.
func (p *PhysicsWorld) Simulate(timeStep float64) int {
	if p.cfg.NoSimulation {
		return 0
	}
	steps := p.world.StepSimulation(timeStep, p.cfg.MaxSubSteps, p.cfg.FixedTimeStep())
	if p.cfg.MaxSubSteps > 0 {
		steps = min(steps, p.cfg.MaxSubSteps)
	}
	return steps
}

func (p *PhysicsWorld) onPrePhysics(_ *dynamics.World, timeStep float64) {
	p.AddPendingBodies()
	listeners := append([]TickListener(nil), p.listeners...)
	for _, l := range listeners {
		l.PrePhysics(timeStep)
	}
}

func (p *PhysicsWorld) onPostPhysics(_ *dynamics.World, timeStep float64) {
	listeners := append([]TickListener(nil), p.listeners...)
	for _, l := range listeners {
		l.PostPhysics(timeStep)
	}
	p.generateContactEvents()
}

// needsBroadphaseCollision is the dynamics overlap filter: group and mask in
// both directions, then each side's ignore list against the other's actor.
// Objects without a proxy or owner only go through the mask test.
func (p *PhysicsWorld) needsBroadphaseCollision(a, b *dynamics.CollisionObject) bool {
	if a.Group()&b.Mask() == 0 || b.Group()&a.Mask() == 0 {
		return false
	}
	pa, pb := proxyOf(a), proxyOf(b)
	if pa == nil || pb == nil {
		return true
	}
	if actor := pb.Actor(); actor != nil && pa.IsIgnored(actor) {
		return false
	}
	if actor := pa.Actor(); actor != nil && pb.IsIgnored(actor) {
		return false
	}
	return true
}

const maxCombinedFriction = 10

// combineMaterials runs for bodies flagged with a custom material callback:
// frictions multiply and the bouncier surface wins.
func combineMaterials(cp *dynamics.ManifoldPoint, obj0 *dynamics.CollisionObject, _, _ int, obj1 *dynamics.CollisionObject, _, _ int) {
	cp.CombinedFriction = mathutil.Clamp(obj0.Friction()*obj1.Friction(), 0, maxCombinedFriction)
	cp.CombinedRestitution = math.Max(obj0.Restitution(), obj1.Restitution())
}

// Close removes every object from the world and releases the references
// held by both contact buffers.
func (p *PhysicsWorld) Close() {
	for _, proxy := range p.pending {
		proxy.queued = false
	}
	p.pending = nil
	for _, o := range append([]*dynamics.CollisionObject(nil), p.world.CollisionObjects()...) {
		if proxy := proxyOf(o); proxy != nil {
			proxy.inWorld = false
		}
		p.world.RemoveCollisionObject(o)
	}
	for i := range p.buffers {
		p.buffers[i].release()
	}
	p.listeners = nil
}
