package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// shapeInstance is a shape placed in the world together with the sub-shape
// identifiers reported in contact points.
type shapeInstance struct {
	shape     Shape
	transform Transform
	part      int
	index     int
}

// contactSink receives contacts oriented from B to A.
type contactSink interface {
	addContact(normalOnB, pointOnB mgl64.Vec3, distance float64, a, b shapeInstance)
}

// flipSink swaps A and B before forwarding to the wrapped sink.
type flipSink struct {
	inner contactSink
}

func (f flipSink) addContact(normalOnB, pointOnB mgl64.Vec3, distance float64, a, b shapeInstance) {
	pointOnA := pointOnB.Add(normalOnB.Mul(distance))
	f.inner.addContact(normalOnB.Mul(-1), pointOnA, distance, b, a)
}

// collideShapes emits the penetrating contacts between a and b.
func collideShapes(a, b shapeInstance, threshold float64, out contactSink) {
	switch {
	case a.shape.Kind() == ShapeCompound:
		c := a.shape.(*CompoundShape)
		for i, child := range c.Children {
			sub := shapeInstance{shape: child.Shape, transform: a.transform.Mul(child.Transform), part: i, index: a.index}
			collideShapes(sub, b, threshold, out)
		}
	case b.shape.Kind() == ShapeCompound:
		collideShapes(b, a, threshold, flipSink{out})
	case a.shape.Kind() == ShapeStaticPlane:
		if cb, ok := b.shape.(ConvexShape); ok {
			collidePlaneConvex(a, b, cb, threshold, flipSink{out})
		}
	case b.shape.Kind() == ShapeStaticPlane:
		if ca, ok := a.shape.(ConvexShape); ok {
			collidePlaneConvex(b, a, ca, threshold, out)
		}
	case a.shape.Kind() == ShapeTriangleMesh:
		if _, ok := b.shape.(ConvexShape); ok {
			collideMeshConvex(a, b, threshold, flipSink{out})
		}
	case b.shape.Kind() == ShapeTriangleMesh:
		if _, ok := a.shape.(ConvexShape); ok {
			collideMeshConvex(b, a, threshold, out)
		}
	default:
		collideConvex(a, b, threshold, out)
	}
}

func collideConvex(a, b shapeInstance, threshold float64, out contactSink) {
	if sa, ok := a.shape.(*SphereShape); ok {
		switch sb := b.shape.(type) {
		case *SphereShape:
			collideSphereSphere(a, sa, b, sb, threshold, out)
			return
		case *BoxShape:
			collideSphereBox(a, sa, b, sb, threshold, out)
			return
		}
	}
	if sb, ok := b.shape.(*SphereShape); ok {
		if ba, ok := a.shape.(*BoxShape); ok {
			collideSphereBox(b, sb, a, ba, threshold, flipSink{out})
			return
		}
	}
	ca, okA := a.shape.(ConvexShape)
	cb, okB := b.shape.(ConvexShape)
	if !okA || !okB {
		return
	}
	ia := convexInstance{shape: ca, transform: a.transform}
	ib := convexInstance{shape: cb, transform: b.transform}
	res := gjk(ia, ib)
	if !res.intersect {
		if res.distance <= threshold {
			n := res.separation()
			out.addContact(n, res.pointB, res.distance, a, b)
		}
		return
	}
	pen, ok := epa(ia, ib, res.simplex)
	if !ok {
		return
	}
	out.addContact(pen.normal.Mul(-1), pen.pointB, -pen.depth, a, b)
}

func collideSphereSphere(a shapeInstance, sa *SphereShape, b shapeInstance, sb *SphereShape, threshold float64, out contactSink) {
	ra := sa.Radius + sa.margin
	rb := sb.Radius + sb.margin
	delta := a.transform.Origin.Sub(b.transform.Origin)
	dist := delta.Len()
	d := dist - ra - rb
	if d > threshold {
		return
	}
	n := safeNormalize(delta, mgl64.Vec3{1, 0, 0})
	out.addContact(n, b.transform.Origin.Add(n.Mul(rb)), d, a, b)
}

func collideSphereBox(a shapeInstance, sa *SphereShape, b shapeInstance, sb *BoxShape, threshold float64, out contactSink) {
	r := sa.Radius + sa.margin
	half := sb.HalfExtents.Add(mgl64.Vec3{sb.margin, sb.margin, sb.margin})
	local := b.transform.InvApply(a.transform.Origin)

	closest := local
	inside := true
	for i := 0; i < 3; i++ {
		if closest[i] > half[i] {
			closest[i] = half[i]
			inside = false
		} else if closest[i] < -half[i] {
			closest[i] = -half[i]
			inside = false
		}
	}

	var normal, surface mgl64.Vec3
	var d float64
	if inside {
		axis := 0
		minPen := math.Inf(1)
		for i := 0; i < 3; i++ {
			if pen := half[i] - math.Abs(local[i]); pen < minPen {
				minPen = pen
				axis = i
			}
		}
		sign := 1.0
		if local[axis] < 0 {
			sign = -1
		}
		normal[axis] = sign
		surface = local
		surface[axis] = sign * half[axis]
		d = -(minPen + r)
	} else {
		diff := local.Sub(closest)
		dist := diff.Len()
		d = dist - r
		if d > threshold {
			return
		}
		normal = safeNormalize(diff, mgl64.Vec3{0, 1, 0})
		surface = closest
	}
	out.addContact(b.transform.ApplyVector(normal), b.transform.Apply(surface), d, a, b)
}

// collidePlaneConvex emits contacts of convex b against plane a, oriented from
// the plane towards b.
func collidePlaneConvex(a shapeInstance, b shapeInstance, cb ConvexShape, threshold float64, out contactSink) {
	plane := a.shape.(*StaticPlaneShape)
	n := a.transform.ApplyVector(plane.Normal)
	c := plane.Constant + n.Dot(a.transform.Origin)
	emit := func(p mgl64.Vec3) {
		d := n.Dot(p) - c
		if d > threshold {
			return
		}
		onPlane := p.Sub(n.Mul(d))
		out.addContact(n, onPlane, d, b, a)
	}
	if box, ok := cb.(*BoxShape); ok {
		h := box.HalfExtents
		for i := 0; i < 8; i++ {
			corner := mgl64.Vec3{h[0], h[1], h[2]}
			if i&1 != 0 {
				corner[0] = -corner[0]
			}
			if i&2 != 0 {
				corner[1] = -corner[1]
			}
			if i&4 != 0 {
				corner[2] = -corner[2]
			}
			emit(b.transform.Apply(corner).Sub(n.Mul(box.margin)))
		}
		return
	}
	inst := convexInstance{shape: cb, transform: b.transform}
	emit(inst.support(n.Mul(-1)))
}

// collideMeshConvex tests every triangle of mesh a near convex b and emits
// contacts oriented from the triangle towards b.
func collideMeshConvex(a shapeInstance, b shapeInstance, threshold float64, out contactSink) {
	mesh := a.shape.(*TriangleMeshShape)
	rel := a.transform.Inverse().Mul(b.transform)
	box := TransformAABB(b.shape.LocalAABB(), rel).Expand(threshold)
	tri := &TriangleShape{}
	tri.margin = mesh.margin
	mesh.ProcessTriangles(box, func(index int, v [3]mgl64.Vec3) bool {
		tri.V = v
		ti := shapeInstance{shape: tri, transform: a.transform, part: a.part, index: index}
		collideConvex(b, ti, threshold, out)
		return true
	})
}

// manifoldSink adds contacts to a persistent manifold whose Body0 is the
// object passed as a.
type manifoldSink struct {
	world    *World
	manifold *PersistentManifold
	objA     *CollisionObject
	objB     *CollisionObject
}

func (s *manifoldSink) addContact(normalOnB, pointOnB mgl64.Vec3, distance float64, a, b shapeInstance) {
	m := s.manifold
	pointOnA := pointOnB.Add(normalOnB.Mul(distance))
	pt := ManifoldPoint{
		PositionWorldOnA: pointOnA,
		PositionWorldOnB: pointOnB,
		NormalWorldOnB:   normalOnB,
		Distance:         distance,
		PartID0:          a.part,
		Index0:           a.index,
		PartID1:          b.part,
		Index1:           b.index,
	}
	// Contacts arrive in collide order; align them with the manifold bodies.
	if m.Body0 != s.objA {
		pt.PositionWorldOnA, pt.PositionWorldOnB = pointOnB, pointOnA
		pt.NormalWorldOnB = normalOnB.Mul(-1)
		pt.PartID0, pt.PartID1 = b.part, a.part
		pt.Index0, pt.Index1 = b.index, a.index
	}
	pt.LocalPointA = m.Body0.worldTransform.InvApply(pt.PositionWorldOnA)
	pt.LocalPointB = m.Body1.worldTransform.InvApply(pt.PositionWorldOnB)
	pt.CombinedFriction = m.Body0.friction * m.Body1.friction
	pt.CombinedRestitution = m.Body0.restitution * m.Body1.restitution

	idx, isNew := m.addPoint(pt)
	if isNew && s.world != nil && s.world.contactAdded != nil &&
		(m.Body0.flags|m.Body1.flags)&FlagCustomMaterialCallback != 0 {
		cp := m.ContactPoint(idx)
		s.world.contactAdded(cp, m.Body0, cp.PartID0, cp.Index0, m.Body1, cp.PartID1, cp.Index1)
	}
}

func rootInstance(o *CollisionObject) shapeInstance {
	return shapeInstance{shape: o.shape, transform: o.worldTransform, part: -1, index: -1}
}

// collideObjects runs the narrowphase for a pair and stores the result in m.
func (w *World) collideObjects(m *PersistentManifold, a, b *CollisionObject) {
	m.refreshContactPoints(m.Body0.worldTransform, m.Body1.worldTransform)
	sink := &manifoldSink{world: w, manifold: m, objA: a, objB: b}
	collideShapes(rootInstance(a), rootInstance(b), 0, sink)
}
