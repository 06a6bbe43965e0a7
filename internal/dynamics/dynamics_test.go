package dynamics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(x, y, z float64) Transform {
	return Transform{Origin: mgl64.Vec3{x, y, z}, Basis: mgl64.QuatIdent()}
}

type recordedContact struct {
	normalOnB mgl64.Vec3
	pointOnB  mgl64.Vec3
	distance  float64
}

type recordingSink struct {
	contacts []recordedContact
}

func (r *recordingSink) addContact(normalOnB, pointOnB mgl64.Vec3, distance float64, a, b shapeInstance) {
	r.contacts = append(r.contacts, recordedContact{normalOnB, pointOnB, distance})
}

func TestGJKDistanceBetweenSpheres(t *testing.T) {
	a := convexInstance{shape: NewSphereShape(1), transform: at(0, 0, 0)}
	b := convexInstance{shape: NewSphereShape(1), transform: at(3, 0, 0)}

	res := gjk(a, b)

	require.False(t, res.intersect)
	assert.InDelta(t, 1.0, res.distance, 1e-6)
	assert.InDelta(t, 1.0, res.pointA[0], 1e-6)
	assert.InDelta(t, 2.0, res.pointB[0], 1e-6)
}

func TestGJKDetectsOverlap(t *testing.T) {
	a := convexInstance{shape: NewCapsuleShape(0.5, 1, 1), transform: at(0, 0, 0)}
	b := convexInstance{shape: NewCylinderShape(0.5, 1, 1), transform: at(0.8, 0.2, 0)}

	assert.True(t, gjk(a, b).intersect)
}

func TestEPAPenetrationBetweenBoxes(t *testing.T) {
	half := mgl64.Vec3{0.5, 0.5, 0.5}
	a := shapeInstance{shape: NewBoxShape(half), transform: at(0, 0, 0), part: -1, index: -1}
	b := shapeInstance{shape: NewBoxShape(half), transform: at(0.8, 0, 0), part: -1, index: -1}
	sink := &recordingSink{}

	collideShapes(a, b, 0, sink)

	require.Len(t, sink.contacts, 1)
	c := sink.contacts[0]
	assert.InDelta(t, -0.2, c.distance, 1e-3)
	assert.InDelta(t, -1.0, c.normalOnB[0], 1e-3)
}

func TestSphereSphereContactOrientation(t *testing.T) {
	a := shapeInstance{shape: NewSphereShape(1), transform: at(0, 0, 0)}
	b := shapeInstance{shape: NewSphereShape(1), transform: at(1.5, 0, 0)}
	sink := &recordingSink{}

	collideShapes(a, b, 0, sink)

	require.Len(t, sink.contacts, 1)
	c := sink.contacts[0]
	assert.InDelta(t, -0.5, c.distance, 1e-9)
	assert.InDelta(t, -1.0, c.normalOnB[0], 1e-9)
	assert.InDelta(t, 0.5, c.pointOnB[0], 1e-9)
}

func TestCompoundChildrenReportPartIndex(t *testing.T) {
	compound := NewCompoundShape()
	compound.AddChild(at(-2, 0, 0), NewSphereShape(0.5))
	compound.AddChild(at(2, 0, 0), NewSphereShape(0.5))

	w := NewWorld()
	obj := NewCollisionObject(compound, at(0, 0, 0))
	w.AddCollisionObject(obj, FilterDefault, FilterAll)

	cb := &closestRay{}
	w.RayTest(mgl64.Vec3{2, 5, 0}, mgl64.Vec3{2, -5, 0}, cb)

	require.True(t, cb.hit)
	assert.Equal(t, 1, cb.result.ShapeInfo.PartID)
	assert.InDelta(t, 0.45, cb.result.HitFraction, 1e-6)
}

type closestRay struct {
	hit    bool
	result LocalRayResult
}

func (c *closestRay) NeedsCollision(o *CollisionObject) bool { return true }

func (c *closestRay) AddSingleResult(r LocalRayResult) float64 {
	c.hit = true
	c.result = r
	return r.HitFraction
}

type closestSweep struct {
	hit    bool
	result LocalConvexResult
}

func (c *closestSweep) NeedsCollision(o *CollisionObject) bool { return true }

func (c *closestSweep) AddSingleResult(r LocalConvexResult) float64 {
	if c.hit && r.HitFraction >= c.result.HitFraction {
		return c.result.HitFraction
	}
	c.hit = true
	c.result = r
	return r.HitFraction
}

func TestRayTestSphere(t *testing.T) {
	w := NewWorld()
	w.AddCollisionObject(NewCollisionObject(NewSphereShape(1), at(0, 0, 5)), FilterDefault, FilterAll)

	cb := &closestRay{}
	w.RayTest(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10}, cb)

	require.True(t, cb.hit)
	assert.InDelta(t, 0.4, cb.result.HitFraction, 1e-9)
	assert.InDelta(t, -1.0, cb.result.HitNormalWorld[2], 1e-9)
}

func TestRayTestBoxAndHull(t *testing.T) {
	w := NewWorld()
	w.AddCollisionObject(NewCollisionObject(NewBoxShape(mgl64.Vec3{1, 1, 1}), at(0, 0, 0)), FilterDefault, FilterAll)
	hull := NewConvexHullShape([]mgl64.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	})
	w.AddCollisionObject(NewCollisionObject(hull, at(10, 0, 0)), FilterDefault, FilterAll)

	box := &closestRay{}
	w.RayTest(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, box)
	require.True(t, box.hit)
	assert.InDelta(t, 0.4, box.result.HitFraction, 1e-9)
	assert.InDelta(t, -1.0, box.result.HitNormalWorld[0], 1e-9)

	convex := &closestRay{}
	w.RayTest(mgl64.Vec3{10, 5, 0}, mgl64.Vec3{10, -5, 0}, convex)
	require.True(t, convex.hit)
	assert.InDelta(t, 0.4, convex.result.HitFraction, 1e-3)
	assert.InDelta(t, 1.0, convex.result.HitNormalWorld[1], 1e-3)
}

func TestRayTestMeshNormalFacesRayOrigin(t *testing.T) {
	mesh := NewTriangleMeshShape(
		[]mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {0, 0, 1}},
		[]int32{0, 1, 2},
	)
	w := NewWorld()
	w.AddCollisionObject(NewCollisionObject(mesh, at(0, 0, 0)), FilterDefault, FilterAll)

	cb := &closestRay{}
	w.RayTest(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, cb)

	require.True(t, cb.hit)
	assert.InDelta(t, 0.5, cb.result.HitFraction, 1e-9)
	assert.InDelta(t, 1.0, cb.result.HitNormalWorld[1], 1e-9)
	assert.Equal(t, 0, cb.result.ShapeInfo.TriangleIndex)
}

func TestConvexSweepAgainstPlane(t *testing.T) {
	w := NewWorld()
	ground := NewRigidBody(0, NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0), IdentityTransform())
	w.AddRigidBody(ground, FilterStatic, FilterAll)

	cb := &closestSweep{}
	w.ConvexSweepTest(NewSphereShape(0.5), at(0, 5, 0), at(0, -5, 0), cb)

	require.True(t, cb.hit)
	assert.InDelta(t, 0.45, cb.result.HitFraction, 1e-3)
	assert.InDelta(t, 1.0, cb.result.HitNormalWorld[1], 1e-9)
}

func TestConvexSweepAgainstBox(t *testing.T) {
	w := NewWorld()
	w.AddCollisionObject(NewCollisionObject(NewBoxShape(mgl64.Vec3{1, 1, 1}), at(0, 0, 0)), FilterDefault, FilterAll)

	cb := &closestSweep{}
	w.ConvexSweepTest(NewSphereShape(0.5), at(-5, 0, 0), at(5, 0, 0), cb)

	require.True(t, cb.hit)
	// The sphere touches the face at x = -1 after travelling 3.5 of 10 units.
	assert.InDelta(t, 0.35, cb.result.HitFraction, 1e-3)
	assert.InDelta(t, -1.0, cb.result.HitNormalWorld[0], 1e-3)
}

func TestConvexSweepIgnoresSeparatingMotion(t *testing.T) {
	w := NewWorld()
	w.AddCollisionObject(NewCollisionObject(NewBoxShape(mgl64.Vec3{1, 1, 1}), at(0, 0, 0)), FilterDefault, FilterAll)

	cb := &closestSweep{}
	w.ConvexSweepTest(NewSphereShape(0.5), at(-1.5, 0, 0), at(-5, 0, 0), cb)

	assert.False(t, cb.hit)
}

func TestConvexSweepSlidesDownTouchingWall(t *testing.T) {
	w := NewWorld()
	w.AddCollisionObject(NewCollisionObject(NewBoxShape(mgl64.Vec3{0.5, 2, 5}), at(2, 2, 0)), FilterStatic, FilterAll)
	w.AddCollisionObject(NewCollisionObject(NewBoxShape(mgl64.Vec3{10, 0.5, 10}), at(0, -0.5, 0)), FilterStatic, FilterAll)

	// The capsule starts inside the cast gap of the wall face at x = 1.5.
	capsule := NewCapsuleShape(0.3, 1, 1)
	cb := &closestSweep{}
	w.ConvexSweepTest(capsule, at(1.1995, 2, 0), at(1.1995, -5, 0), cb)

	require.True(t, cb.hit)
	assert.InDelta(t, 1.0, cb.result.HitNormalWorld[1], 1e-3)
	assert.InDelta(t, 1.2/7, cb.result.HitFraction, 1e-3)
}

func TestStepSimulationSubSteps(t *testing.T) {
	w := NewWorld()
	pre, post := 0, 0
	w.SetInternalTickCallback(func(*World, float64) { pre++ }, true)
	w.SetInternalTickCallback(func(*World, float64) { post++ }, false)

	steps := w.StepSimulation(1.0/30.0, 5, 1.0/60.0)

	assert.Equal(t, 2, steps)
	assert.Equal(t, 2, pre)
	assert.Equal(t, 2, post)

	steps = w.StepSimulation(1.0/120.0, 5, 1.0/60.0)
	assert.Equal(t, 0, steps)
	assert.Equal(t, 2, pre)
}

func TestSphereRestsOnPlane(t *testing.T) {
	w := NewWorld()
	ground := NewRigidBody(0, NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0), IdentityTransform())
	w.AddRigidBody(ground, FilterStatic, FilterAll)
	ball := NewRigidBody(1, NewSphereShape(0.5), at(0, 2, 0))
	w.AddRigidBody(ball, FilterDefault, FilterAll)

	for i := 0; i < 180; i++ {
		w.StepSimulation(1.0/60.0, 1, 1.0/60.0)
	}

	assert.InDelta(t, 0.5, ball.WorldTransform().Origin[1], 0.06)
	assert.InDelta(t, 0.0, ball.LinearVelocity()[1], 0.2)
}

func TestOverlapFilterRejectsPair(t *testing.T) {
	w := NewWorld()
	a := NewRigidBody(0, NewSphereShape(1), at(0, 0, 0))
	a.SetKinematic(true)
	b := NewRigidBody(0, NewSphereShape(1), at(0.5, 0, 0))
	b.SetKinematic(true)
	w.AddRigidBody(a, 1, 2)
	w.AddRigidBody(b, 1, 2)

	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 0, w.Dispatcher().NumManifolds())

	w.SetOverlapFilter(func(a, b *CollisionObject) bool { return true })
	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, w.Dispatcher().NumManifolds())
	assert.Equal(t, 1, w.Dispatcher().ManifoldByIndex(0).NumContacts())
}

func TestContactAddedCallbackCombinesMaterials(t *testing.T) {
	w := NewWorld()
	calls := 0
	w.SetContactAddedCallback(func(cp *ManifoldPoint, obj0 *CollisionObject, p0, i0 int, obj1 *CollisionObject, p1, i1 int) {
		calls++
		cp.CombinedFriction = 0.3
	})
	a := NewRigidBody(0, NewSphereShape(1), at(0, 0, 0))
	a.SetKinematic(true)
	a.SetFlags(a.Flags() | FlagCustomMaterialCallback)
	b := NewRigidBody(0, NewSphereShape(1), at(0.5, 0, 0))
	b.SetKinematic(true)
	w.AddRigidBody(a, FilterDefault, FilterAll)
	w.AddRigidBody(b, FilterDefault, FilterAll)

	w.PerformDiscreteCollisionDetection()
	w.PerformDiscreteCollisionDetection()

	assert.Equal(t, 1, calls)
	m := w.Dispatcher().ManifoldByIndex(0)
	assert.Equal(t, 0.3, m.ContactPoint(0).CombinedFriction)
}

func TestManifoldForgetsSeparatedPoints(t *testing.T) {
	w := NewWorld()
	a := NewRigidBody(0, NewSphereShape(1), at(0, 0, 0))
	a.SetKinematic(true)
	b := NewRigidBody(0, NewSphereShape(1), at(1.9, 0, 0))
	b.SetKinematic(true)
	w.AddRigidBody(a, FilterDefault, FilterAll)
	w.AddRigidBody(b, FilterDefault, FilterAll)

	w.PerformDiscreteCollisionDetection()
	require.Equal(t, 1, w.Dispatcher().ManifoldByIndex(0).NumContacts())

	// Within the breaking threshold the cached point survives.
	b.SetWorldTransform(at(2.01, 0, 0))
	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 1, w.Dispatcher().ManifoldByIndex(0).NumContacts())

	b.SetWorldTransform(at(2.03, 0, 0))
	w.PerformDiscreteCollisionDetection()
	assert.Equal(t, 0, w.Dispatcher().ManifoldByIndex(0).NumContacts())
}

func TestGhostPairsAndDispatch(t *testing.T) {
	w := NewWorld()
	wall := NewRigidBody(0, NewBoxShape(mgl64.Vec3{1, 1, 1}), at(0, 0, 0))
	w.AddRigidBody(wall, FilterStatic, FilterAll)
	ghost := NewGhostObject(NewSphereShape(0.5), at(5, 0, 0))
	w.AddCollisionObject(&ghost.CollisionObject, FilterCharacter, FilterAll)

	w.UpdateSingleAABB(&ghost.CollisionObject)
	assert.Empty(t, ghost.OverlappingObjects())

	ghost.SetWorldTransform(at(1.3, 0, 0))
	w.UpdateSingleAABB(&ghost.CollisionObject)
	require.Len(t, ghost.OverlappingObjects(), 1)

	manifolds := w.DispatchGhostPairs(ghost)
	require.Len(t, manifolds, 1)
	m := manifolds[0]
	assert.Same(t, &ghost.CollisionObject, m.Body0)
	require.Equal(t, 1, m.NumContacts())
	cp := m.ContactPoint(0)
	assert.InDelta(t, -0.2, cp.Distance, 1e-9)
	assert.InDelta(t, 1.0, cp.NormalWorldOnB[0], 1e-9)

	w.RemoveCollisionObject(&ghost.CollisionObject)
	assert.Empty(t, ghost.OverlappingObjects())
	assert.False(t, ghost.InWorld())
}

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{Origin: mgl64.Vec3{1, 2, 3}, Basis: mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0})}
	p := mgl64.Vec3{0.3, -1, 4}

	back := tr.InvApply(tr.Apply(p))
	assert.True(t, back.ApproxEqualThreshold(p, 1e-9))

	inv := tr.Inverse()
	assert.True(t, inv.Apply(tr.Apply(p)).ApproxEqualThreshold(p, 1e-9))
}
