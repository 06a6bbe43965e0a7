package physics

import (
	"cmp"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"physworld/internal/collision"
	"physworld/internal/dynamics"
	"physworld/internal/engine"
	"physworld/internal/mathutil"
)

// CullMode selects which side of mesh triangles a query may hit.
type CullMode int

const (
	CullNone CullMode = iota
	// CullFront drops hits on the side the triangle normal points to.
	CullFront
	CullBack
)

// QueryFilter restricts which proxies a query can hit. The zero value hits
// everything.
type QueryFilter struct {
	IgnoreActors []*engine.Actor
	// IgnoreBodies is matched by component ID.
	IgnoreBodies []engine.Component
	// CollisionMask of 0 means CollisionMaskAll.
	CollisionMask  int
	CullMode       CullMode
	IgnoreTriggers bool
	SortByDistance bool
}

func (f *QueryFilter) mask() int {
	if f.CollisionMask == 0 {
		return CollisionMaskAll
	}
	return f.CollisionMask
}

// needsCollision is shared by every query.
func (f *QueryFilter) needsCollision(o *dynamics.CollisionObject) bool {
	if proxy := proxyOf(o); proxy != nil {
		if f.IgnoreTriggers && proxy.Trigger {
			return false
		}
		if actor := proxy.Actor(); actor != nil && slices.Contains(f.IgnoreActors, actor) {
			return false
		}
		if proxy.owner != nil {
			id := proxy.owner.ID()
			for _, c := range f.IgnoreBodies {
				if c != nil && c.ID() == id {
					return false
				}
			}
		}
	}
	return o.Group()&f.mask() != 0
}

// culled reports whether a hit on o should be dropped by the face culling
// policy.
func (f *QueryFilter) culled(o *dynamics.CollisionObject, info dynamics.LocalShapeInfo, hitNormal mgl64.Vec3) bool {
	if f.CullMode == CullNone || info.TriangleIndex < 0 {
		return false
	}
	shape := o.Shape()
	t := o.WorldTransform()
	if compound, ok := shape.(*dynamics.CompoundShape); ok {
		if info.PartID < 0 || info.PartID >= len(compound.Children) {
			return false
		}
		child := compound.Children[info.PartID]
		t = t.Mul(child.Transform)
		shape = child.Shape
	}
	mesh, ok := shape.(*dynamics.TriangleMeshShape)
	if !ok || info.TriangleIndex >= mesh.NumTriangles() {
		return false
	}
	tri := mesh.Triangle(info.TriangleIndex)
	a, b, c := t.Apply(tri[0]), t.Apply(tri[1]), t.Apply(tri[2])
	d := b.Sub(a).Cross(c.Sub(a)).Dot(hitNormal)
	if f.CullMode == CullFront {
		return d > 0
	}
	return d < 0
}

// TraceResult is one ray or sweep hit in world space.
type TraceResult struct {
	Proxy    *HitProxy
	Actor    *engine.Actor
	Position rl.Vector3
	Normal   rl.Vector3
	Fraction float32
	Distance float32
}

func newTraceResult(o *dynamics.CollisionObject, point, normal mgl64.Vec3, fraction, length float64) TraceResult {
	r := TraceResult{
		Proxy:    proxyOf(o),
		Position: mathutil.Vector3(point),
		Normal:   mathutil.Vector3(normal),
		Fraction: float32(fraction),
		Distance: float32(fraction * length),
	}
	if r.Proxy != nil {
		r.Actor = r.Proxy.Actor()
	}
	return r
}

type rayCallback struct {
	filter  *QueryFilter
	length  float64
	closest bool
	hits    []TraceResult
}

func (cb *rayCallback) NeedsCollision(o *dynamics.CollisionObject) bool {
	return cb.filter.needsCollision(o)
}

func (cb *rayCallback) AddSingleResult(r dynamics.LocalRayResult) float64 {
	if cb.filter.culled(r.Object, r.ShapeInfo, r.HitNormalWorld) {
		if cb.closest && len(cb.hits) > 0 {
			return float64(cb.hits[0].Fraction)
		}
		return 1
	}
	hit := newTraceResult(r.Object, r.HitPointWorld, r.HitNormalWorld, r.HitFraction, cb.length)
	if !cb.closest {
		cb.hits = append(cb.hits, hit)
		return 1
	}
	if len(cb.hits) == 0 {
		cb.hits = append(cb.hits, hit)
	} else if hit.Fraction < cb.hits[0].Fraction {
		cb.hits[0] = hit
	}
	return r.HitFraction
}

// Trace returns every hit along the segment start..end.
func (p *PhysicsWorld) Trace(start, end rl.Vector3, filter QueryFilter) []TraceResult {
	from, to := mathutil.Vec3(start), mathutil.Vec3(end)
	cb := &rayCallback{filter: &filter, length: to.Sub(from).Len()}
	p.world.RayTest(from, to, cb)
	if filter.SortByDistance {
		slices.SortStableFunc(cb.hits, func(a, b TraceResult) int {
			return cmp.Compare(a.Fraction, b.Fraction)
		})
	}
	return cb.hits
}

// TraceClosest returns the hit nearest to start.
func (p *PhysicsWorld) TraceClosest(start, end rl.Vector3, filter QueryFilter) (TraceResult, bool) {
	from, to := mathutil.Vec3(start), mathutil.Vec3(end)
	cb := &rayCallback{filter: &filter, length: to.Sub(from).Len(), closest: true}
	p.world.RayTest(from, to, cb)
	if len(cb.hits) == 0 {
		return TraceResult{}, false
	}
	return cb.hits[0], true
}

type sweepCallback struct {
	filter *QueryFilter
	length float64
	hit    TraceResult
	found  bool
}

func (cb *sweepCallback) NeedsCollision(o *dynamics.CollisionObject) bool {
	return cb.filter.needsCollision(o)
}

func (cb *sweepCallback) AddSingleResult(r dynamics.LocalConvexResult) float64 {
	if cb.filter.culled(r.Object, r.ShapeInfo, r.HitNormalWorld) {
		if cb.found {
			return float64(cb.hit.Fraction)
		}
		return 1
	}
	if !cb.found || float32(r.HitFraction) < cb.hit.Fraction {
		cb.hit = newTraceResult(r.Object, r.HitPointWorld, r.HitNormalWorld, r.HitFraction, cb.length)
		cb.found = true
	}
	return float64(cb.hit.Fraction)
}

func (p *PhysicsWorld) sweep(shape dynamics.ConvexShape, from, to dynamics.Transform, filter *QueryFilter) (TraceResult, bool) {
	shape.SetMargin(0)
	cb := &sweepCallback{filter: filter, length: to.Origin.Sub(from.Origin).Len()}
	p.world.ConvexSweepTest(shape, from, to, cb)
	return cb.hit, cb.found
}

// boxFrame splits mins/maxs into the box center offset and half extents.
func boxFrame(mins, maxs rl.Vector3) (offset, half mgl64.Vec3) {
	lo, hi := mathutil.Vec3(mins), mathutil.Vec3(maxs)
	return lo.Add(hi).Mul(0.5), hi.Sub(lo).Mul(0.5)
}

func translated(origin, offset mgl64.Vec3) dynamics.Transform {
	return dynamics.NewTransform(origin.Add(offset), mgl64.QuatIdent())
}

func (p *PhysicsWorld) TraceSphere(radius float32, start, end rl.Vector3, filter QueryFilter) (TraceResult, bool) {
	shape := dynamics.NewSphereShape(float64(radius))
	return p.sweep(shape, translated(mathutil.Vec3(start), mgl64.Vec3{}), translated(mathutil.Vec3(end), mgl64.Vec3{}), &filter)
}

// TraceBox sweeps the box mins..maxs, given relative to the trace points.
func (p *PhysicsWorld) TraceBox(mins, maxs, start, end rl.Vector3, filter QueryFilter) (TraceResult, bool) {
	offset, half := boxFrame(mins, maxs)
	shape := dynamics.NewBoxShape(half)
	return p.sweep(shape, translated(mathutil.Vec3(start), offset), translated(mathutil.Vec3(end), offset), &filter)
}

// upAxis is the vector component of Y, the main axis of trace cylinders and
// capsules.
const upAxis = 1

// TraceCylinder sweeps a Y-aligned cylinder inscribed in mins..maxs.
func (p *PhysicsWorld) TraceCylinder(mins, maxs, start, end rl.Vector3, filter QueryFilter) (TraceResult, bool) {
	offset, half := boxFrame(mins, maxs)
	shape := dynamics.NewCylinderShape(max(half[0], half[2]), half[1]*2, upAxis)
	return p.sweep(shape, translated(mathutil.Vec3(start), offset), translated(mathutil.Vec3(end), offset), &filter)
}

// TraceCapsule sweeps a Y-aligned capsule inscribed in mins..maxs. The
// capsule degenerates to a sphere when the box is wider than it is tall.
func (p *PhysicsWorld) TraceCapsule(mins, maxs, start, end rl.Vector3, filter QueryFilter) (TraceResult, bool) {
	offset, half := boxFrame(mins, maxs)
	radius := max(half[0], half[2])
	height := max(0, half[1]*2-radius*2)
	shape := dynamics.NewCapsuleShape(radius, height, upAxis)
	return p.sweep(shape, translated(mathutil.Vec3(start), offset), translated(mathutil.Vec3(end), offset), &filter)
}

// TraceConvex sweeps body, rotated by rotation, from start to end.
func (p *PhysicsWorld) TraceConvex(body *collision.Body, rotation rl.Quaternion, start, end rl.Vector3, filter QueryFilter) (TraceResult, bool) {
	if body == nil {
		p.diag.Warn(DiagContract, "trace with nil body")
		return TraceResult{}, false
	}
	shape, ok := body.NativeShape(mgl64.Vec3{1, 1, 1}).(dynamics.ConvexShape)
	if !ok || !body.IsConvex() {
		p.diag.Warn(DiagContract, "convex trace with non-convex body", zap.Stringer("kind", body.Kind))
		return TraceResult{}, false
	}
	rot := mathutil.Quat(rotation)
	local := body.LocalTransform()
	from := dynamics.NewTransform(mathutil.Vec3(start), rot).Mul(local)
	to := dynamics.NewTransform(mathutil.Vec3(end), rot).Mul(local)
	return p.sweep(shape, from, to, &filter)
}

// CollisionQueryResult is one proxy touched by an overlap query. Points are
// reported from the proxy's side.
type CollisionQueryResult struct {
	Proxy  *HitProxy
	Actor  *engine.Actor
	Points []engine.ContactPoint
}

type overlapCallback struct {
	filter  *QueryFilter
	results []CollisionQueryResult
	index   map[*dynamics.CollisionObject]int
}

func (cb *overlapCallback) NeedsCollision(o *dynamics.CollisionObject) bool {
	return proxyOf(o) != nil && cb.filter.needsCollision(o)
}

func (cb *overlapCallback) AddSingleResult(cp *dynamics.ManifoldPoint, _ *dynamics.CollisionObject, _, _ int, obj1 *dynamics.CollisionObject, _, _ int) {
	i, ok := cb.index[obj1]
	if !ok {
		proxy := proxyOf(obj1)
		i = len(cb.results)
		cb.index[obj1] = i
		cb.results = append(cb.results, CollisionQueryResult{Proxy: proxy, Actor: proxy.Actor()})
	}
	cb.results[i].Points = append(cb.results[i].Points, engine.ContactPoint{
		Position:      mathutil.Vector3(cp.PositionWorldOnB),
		OtherPosition: mathutil.Vector3(cp.PositionWorldOnA),
		Normal:        mathutil.Vector3(cp.NormalWorldOnB.Mul(-1)),
		Distance:      float32(cp.Distance),
		Impulse:       float32(cp.AppliedImpulse),
	})
}

// overlap puts a temporary static body with shape at t into the world,
// collects what it touches and takes it out again.
func (p *PhysicsWorld) overlap(shape dynamics.Shape, t dynamics.Transform, filter *QueryFilter) []CollisionQueryResult {
	shape.SetMargin(0)
	body := dynamics.NewRigidBody(0, shape, t)
	body.SetFlags(body.Flags() | dynamics.FlagNoContactResponse)
	p.world.AddRigidBody(body, CollisionGroupDefault, filter.mask())
	defer p.world.RemoveCollisionObject(body.Collision())

	cb := &overlapCallback{filter: filter, index: make(map[*dynamics.CollisionObject]int)}
	p.world.ContactTest(body.Collision(), cb)
	return cb.results
}

func sphereQuery(position rl.Vector3, radius float32) (dynamics.Shape, dynamics.Transform) {
	return dynamics.NewSphereShape(float64(radius)), translated(mathutil.Vec3(position), mgl64.Vec3{})
}

func boxQuery(position, halfExtents rl.Vector3, rotation rl.Quaternion) (dynamics.Shape, dynamics.Transform) {
	return dynamics.NewBoxShape(mathutil.Vec3(halfExtents)), dynamics.NewTransform(mathutil.Vec3(position), mathutil.Quat(rotation))
}

func (p *PhysicsWorld) QueryCollisionSphere(position rl.Vector3, radius float32, filter QueryFilter) []CollisionQueryResult {
	shape, t := sphereQuery(position, radius)
	return p.overlap(shape, t, &filter)
}

func (p *PhysicsWorld) QueryCollisionBox(position, halfExtents rl.Vector3, rotation rl.Quaternion, filter QueryFilter) []CollisionQueryResult {
	shape, t := boxQuery(position, halfExtents, rotation)
	return p.overlap(shape, t, &filter)
}

func (p *PhysicsWorld) QueryHitProxiesSphere(position rl.Vector3, radius float32, filter QueryFilter) []*HitProxy {
	return proxiesOf(p.QueryCollisionSphere(position, radius, filter))
}

func (p *PhysicsWorld) QueryHitProxiesBox(position, halfExtents rl.Vector3, rotation rl.Quaternion, filter QueryFilter) []*HitProxy {
	return proxiesOf(p.QueryCollisionBox(position, halfExtents, rotation, filter))
}

func (p *PhysicsWorld) QueryActorsSphere(position rl.Vector3, radius float32, filter QueryFilter) []*engine.Actor {
	return actorsOf(p.QueryHitProxiesSphere(position, radius, filter))
}

func (p *PhysicsWorld) QueryActorsBox(position, halfExtents rl.Vector3, rotation rl.Quaternion, filter QueryFilter) []*engine.Actor {
	return actorsOf(p.QueryHitProxiesBox(position, halfExtents, rotation, filter))
}

// QueryHitProxiesAABB returns the proxies whose bounds overlap mins..maxs.
// Only bounds are compared.
func (p *PhysicsWorld) QueryHitProxiesAABB(mins, maxs rl.Vector3, filter QueryFilter) []*HitProxy {
	var proxies []*HitProxy
	box := dynamics.AABB{Min: mathutil.Vec3(mins), Max: mathutil.Vec3(maxs)}
	p.world.AABBTest(box, func(o *dynamics.CollisionObject) bool {
		if proxy := proxyOf(o); proxy != nil && filter.needsCollision(o) {
			proxies = append(proxies, proxy)
		}
		return true
	})
	return proxies
}

func (p *PhysicsWorld) QueryActorsAABB(mins, maxs rl.Vector3, filter QueryFilter) []*engine.Actor {
	return actorsOf(p.QueryHitProxiesAABB(mins, maxs, filter))
}

func proxiesOf(results []CollisionQueryResult) []*HitProxy {
	proxies := make([]*HitProxy, 0, len(results))
	for _, r := range results {
		proxies = append(proxies, r.Proxy)
	}
	return proxies
}

// actorsOf returns the distinct actors of proxies in order of first
// appearance.
func actorsOf(proxies []*HitProxy) []*engine.Actor {
	var actors []*engine.Actor
	for _, proxy := range proxies {
		actor := proxy.Actor()
		if actor != nil && !slices.Contains(actors, actor) {
			actors = append(actors, actor)
		}
	}
	return actors
}
