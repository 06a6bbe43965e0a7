// Package dynamics is a compact rigid body library: shapes, a sweep and prune
// broadphase, persistent contact manifolds, GJK/EPA narrowphase, a sequential
// impulse solver and ray, sweep and contact queries.
package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// TickCallback runs once per fixed sub-step.
type TickCallback func(w *World, timeStep float64)

// ContactAddedCallback is invoked when a new point enters a manifold and either
// body has FlagCustomMaterialCallback. It may adjust the combined friction and
// restitution of cp.
type ContactAddedCallback func(cp *ManifoldPoint, obj0 *CollisionObject, partID0, index0 int, obj1 *CollisionObject, partID1, index1 int)

type World struct {
	objects        []*CollisionObject
	sorted         []*CollisionObject
	pairs          map[pairKey]*overlapPair
	dispatcher     *Dispatcher
	solverContacts []solverContact

	gravity           mgl64.Vec3
	breakingThreshold float64
	filter            OverlapFilter
	contactAdded      ContactAddedCallback
	preTick           TickCallback
	postTick          TickCallback

	localTime float64
	nextUID   int
}

func NewWorld() *World {
	return &World{
		pairs:             make(map[pairKey]*overlapPair),
		dispatcher:        newDispatcher(DefaultContactBreakingThreshold),
		gravity:           mgl64.Vec3{0, -9.81, 0},
		breakingThreshold: DefaultContactBreakingThreshold,
	}
}

func (w *World) Dispatcher() *Dispatcher { return w.dispatcher }
func (w *World) Gravity() mgl64.Vec3     { return w.gravity }

func (w *World) SetOverlapFilter(f OverlapFilter) {
	w.filter = f
}

// SetGravity updates the world gravity and every body that does not override it.
func (w *World) SetGravity(g mgl64.Vec3) {
	w.gravity = g
	for _, o := range w.objects {
		if o.body != nil && !o.body.ownGravity {
			o.body.gravity = g
		}
	}
}

// SetContactBreakingThreshold applies to manifolds created afterwards.
func (w *World) SetContactBreakingThreshold(t float64) {
	w.breakingThreshold = t
	w.dispatcher.threshold = t
}

func (w *World) SetContactAddedCallback(cb ContactAddedCallback) {
	w.contactAdded = cb
}

// SetInternalTickCallback installs the pre or post sub-step callback.
func (w *World) SetInternalTickCallback(cb TickCallback, isPreTick bool) {
	if isPreTick {
		w.preTick = cb
	} else {
		w.postTick = cb
	}
}

func (w *World) CollisionObjects() []*CollisionObject { return w.objects }
func (w *World) NumCollisionObjects() int             { return len(w.objects) }

// AddCollisionObject inserts o with the given broadphase filter values.
// Adding an object that is already in this world is a no-op.
func (w *World) AddCollisionObject(o *CollisionObject, group, mask int) {
	if o.world == w {
		return
	}
	w.nextUID++
	o.uid = w.nextUID
	o.group = group
	o.mask = mask
	o.world = w
	w.updateObjectAABB(o)
	w.objects = append(w.objects, o)
}

func (w *World) AddRigidBody(b *RigidBody, group, mask int) {
	if !b.ownGravity {
		b.gravity = w.gravity
	}
	w.AddCollisionObject(&b.CollisionObject, group, mask)
}

func (w *World) RemoveCollisionObject(o *CollisionObject) {
	if o.world != w {
		return
	}
	w.removeObjectPairs(o)
	for i, existing := range w.objects {
		if existing == o {
			w.objects = append(w.objects[:i], w.objects[i+1:]...)
			break
		}
	}
	if o.ghost != nil {
		o.ghost.overlapping = nil
		o.ghost.manifolds = nil
	}
	o.world = nil
}

// StepSimulation advances the world by timeStep using fixed sub-steps and
// returns the number of sub-steps the accumulated time asked for. At most
// maxSubSteps are simulated. A maxSubSteps of zero runs one variable step.
func (w *World) StepSimulation(timeStep float64, maxSubSteps int, fixedTimeStep float64) int {
	numSubSteps := 0
	if maxSubSteps > 0 {
		w.localTime += timeStep
		if w.localTime >= fixedTimeStep {
			numSubSteps = int(w.localTime / fixedTimeStep)
			w.localTime -= float64(numSubSteps) * fixedTimeStep
		}
	} else if timeStep > 0 {
		fixedTimeStep = timeStep
		numSubSteps = 1
		maxSubSteps = 1
	}
	steps := numSubSteps
	if steps > maxSubSteps {
		steps = maxSubSteps
	}
	for i := 0; i < steps; i++ {
		w.singleStep(fixedTimeStep)
	}
	return numSubSteps
}

func (w *World) singleStep(dt float64) {
	if w.preTick != nil {
		w.preTick(w, dt)
	}
	for _, o := range w.objects {
		if o.body != nil {
			o.body.integrateVelocities(dt)
		}
	}
	w.PerformDiscreteCollisionDetection()
	w.solveContacts(dt)
	for _, o := range w.objects {
		if o.body != nil {
			o.body.integrateTransform(dt)
			o.body.ClearForces()
		}
	}
	w.correctPositions()
	w.UpdateAABBs()
	if w.postTick != nil {
		w.postTick(w, dt)
	}
}

// PerformDiscreteCollisionDetection refreshes bounds, pairs and manifolds.
func (w *World) PerformDiscreteCollisionDetection() {
	w.UpdateAABBs()
	w.updatePairs()
	for _, m := range w.dispatcher.manifolds {
		w.collideObjects(m, m.Body0, m.Body1)
	}
}

func (w *World) UpdateAABBs() {
	for _, o := range w.objects {
		w.updateObjectAABB(o)
	}
}

// UpdateSingleAABB recomputes the bounds of o and its broadphase pairs.
func (w *World) UpdateSingleAABB(o *CollisionObject) {
	if o.world != w {
		return
	}
	w.updateObjectAABB(o)
	w.refreshObjectPairs(o)
}

// DispatchGhostPairs runs the narrowphase between g and every object it
// overlaps. The returned manifolds have the ghost as Body0 and are rebuilt on
// each call.
func (w *World) DispatchGhostPairs(g *GhostObject) []*PersistentManifold {
	g.manifolds = g.manifolds[:0]
	for _, other := range g.overlapping {
		m := newManifold(&g.CollisionObject, other, w.breakingThreshold)
		sink := &manifoldSink{manifold: m, objA: &g.CollisionObject, objB: other}
		collideShapes(rootInstance(&g.CollisionObject), rootInstance(other), 0, sink)
		g.manifolds = append(g.manifolds, m)
	}
	return g.manifolds
}
