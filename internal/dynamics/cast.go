package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const castTolerance = 1e-4

// Closing speeds below these fractions of the motion length count as moving
// along the separating plane. A sweep that starts touching uses the looser one.
const (
	castParallel         = 1e-6
	castTouchingParallel = 1e-3
)

// castGap keeps swept shapes this far from what they hit so the next sweep
// does not start in contact.
const castGap = 1e-3

// pointShape is a convex shape with no extent, used to cast rays.
type pointShape struct {
	shapeBase
}

func (p *pointShape) Kind() ShapeKind                        { return ShapeSphere }
func (p *pointShape) LocalSupport(dir mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{} }
func (p *pointShape) LocalAABB() AABB                        { return AABB{} }

// castHit is a sweep or ray hit against one sub-shape.
type castHit struct {
	fraction float64
	normal   mgl64.Vec3
	point    mgl64.Vec3
	part     int
	index    int
}

// convexCast sweeps a along motion until it touches b. Hits that start in
// penetration are reported at fraction zero when the motion goes deeper, and
// ignored when rejectInitial is set.
func convexCast(a convexInstance, motion mgl64.Vec3, b convexInstance, gap float64, rejectInitial bool) (castHit, bool) {
	lambda := 0.0
	var normal, point mgl64.Vec3
	moving := a
	for i := 0; i < gjkMaxIterations; i++ {
		moving.transform.Origin = a.transform.Origin.Add(motion.Mul(lambda))
		res := gjk(moving, b)
		if res.intersect {
			if lambda > 0 {
				return castHit{fraction: lambda, normal: normal, point: point}, true
			}
			if rejectInitial {
				return castHit{}, false
			}
			pen, ok := epa(moving, b, res.simplex)
			if !ok {
				return castHit{}, false
			}
			n := pen.normal.Mul(-1)
			if motion.Dot(n) >= 0 {
				return castHit{}, false
			}
			return castHit{fraction: 0, normal: n, point: pen.pointB}, true
		}
		normal = res.separation()
		point = res.pointB
		closing := -motion.Dot(normal)
		speed := motion.Len()
		if closing <= castParallel*speed {
			return castHit{}, false
		}
		if res.distance <= gap+castTolerance {
			if lambda == 0 && closing <= castTouchingParallel*speed {
				return castHit{}, false
			}
			return castHit{fraction: lambda, normal: normal, point: point}, true
		}
		lambda += (res.distance - gap) / closing
		if lambda > 1 {
			return castHit{}, false
		}
	}
	return castHit{fraction: lambda, normal: normal, point: point}, true
}

// castAgainstShape sweeps a convex shape against any target shape and reports
// each sub-shape hit.
func castAgainstShape(a convexInstance, motion mgl64.Vec3, target shapeInstance, gap float64, report func(castHit)) {
	switch s := target.shape.(type) {
	case *CompoundShape:
		for i, child := range s.Children {
			sub := shapeInstance{shape: child.Shape, transform: target.transform.Mul(child.Transform), part: i, index: -1}
			castAgainstShape(a, motion, sub, gap, report)
		}
	case *StaticPlaneShape:
		n := target.transform.ApplyVector(s.Normal)
		c := s.Constant + n.Dot(target.transform.Origin)
		deepest := a.support(n.Mul(-1))
		d0 := n.Dot(deepest) - c
		speed := n.Dot(motion)
		if speed >= 0 {
			return
		}
		lambda := math.Max(0, (d0-gap)/-speed)
		if lambda > 1 {
			return
		}
		p := deepest.Add(motion.Mul(lambda))
		report(castHit{fraction: lambda, normal: n, point: p.Sub(n.Mul(n.Dot(p) - c)), part: target.part, index: -1})
	case *TriangleMeshShape:
		inv := target.transform.Inverse()
		start := TransformAABB(a.shape.LocalAABB(), inv.Mul(a.transform))
		box := start.Sweep(inv.ApplyVector(motion)).Expand(gap)
		tri := &TriangleShape{}
		tri.margin = s.margin
		s.ProcessTriangles(box, func(index int, v [3]mgl64.Vec3) bool {
			tri.V = v
			if hit, ok := convexCast(a, motion, convexInstance{shape: tri, transform: target.transform}, gap, false); ok {
				hit.part = target.part
				hit.index = index
				report(hit)
			}
			return true
		})
	case ConvexShape:
		if hit, ok := convexCast(a, motion, convexInstance{shape: s, transform: target.transform}, gap, false); ok {
			hit.part = target.part
			hit.index = target.index
			report(hit)
		}
	}
}

// rayAgainstShape intersects the segment from..to with a shape. Rays that
// start inside a convex shape do not hit it.
func rayAgainstShape(from, to mgl64.Vec3, target shapeInstance, report func(castHit)) {
	switch s := target.shape.(type) {
	case *CompoundShape:
		for i, child := range s.Children {
			sub := shapeInstance{shape: child.Shape, transform: target.transform.Mul(child.Transform), part: i, index: -1}
			rayAgainstShape(from, to, sub, report)
		}
	case *SphereShape:
		if t, n, ok := raySphere(from, to, target.transform.Origin, s.Radius+s.margin); ok {
			report(castHit{fraction: t, normal: n, point: lerp(from, to, t), part: target.part, index: -1})
		}
	case *BoxShape:
		lf := target.transform.InvApply(from)
		lt := target.transform.InvApply(to)
		half := s.HalfExtents.Add(mgl64.Vec3{s.margin, s.margin, s.margin})
		box := AABB{Min: half.Mul(-1), Max: half}
		if box.Contains(lf) {
			return
		}
		t, ok := box.RayIntersect(lf, lt)
		if !ok {
			return
		}
		hitLocal := lerp(lf, lt, t)
		var n mgl64.Vec3
		best := math.Inf(1)
		for i := 0; i < 3; i++ {
			if d := math.Abs(math.Abs(hitLocal[i]) - half[i]); d < best {
				best = d
				n = mgl64.Vec3{}
				n[i] = math.Copysign(1, hitLocal[i])
			}
		}
		report(castHit{fraction: t, normal: target.transform.ApplyVector(n), point: lerp(from, to, t), part: target.part, index: -1})
	case *StaticPlaneShape:
		n := target.transform.ApplyVector(s.Normal)
		c := s.Constant + n.Dot(target.transform.Origin)
		d0 := n.Dot(from) - c
		d1 := n.Dot(to) - c
		if d0 < 0 || d1 >= 0 {
			return
		}
		t := d0 / (d0 - d1)
		report(castHit{fraction: t, normal: n, point: lerp(from, to, t), part: target.part, index: -1})
	case *TriangleMeshShape:
		lf := target.transform.InvApply(from)
		lt := target.transform.InvApply(to)
		box := EmptyAABB().AddPoint(lf).AddPoint(lt)
		s.ProcessTriangles(box, func(index int, v [3]mgl64.Vec3) bool {
			t, ok := rayTriangle(lf, lt, v)
			if !ok {
				return true
			}
			n := safeNormalize(v[1].Sub(v[0]).Cross(v[2].Sub(v[0])), mgl64.Vec3{0, 1, 0})
			if n.Dot(lf.Sub(v[0])) < 0 {
				n = n.Mul(-1)
			}
			report(castHit{fraction: t, normal: target.transform.ApplyVector(n), point: lerp(from, to, t), part: target.part, index: index})
			return true
		})
	case ConvexShape:
		point := convexInstance{shape: &pointShape{}, transform: Transform{Origin: from, Basis: mgl64.QuatIdent()}}
		if hit, ok := convexCast(point, to.Sub(from), convexInstance{shape: s, transform: target.transform}, 0, true); ok {
			hit.point = lerp(from, to, hit.fraction)
			hit.part = target.part
			hit.index = target.index
			report(hit)
		}
	}
}

func raySphere(from, to, center mgl64.Vec3, radius float64) (float64, mgl64.Vec3, bool) {
	d := to.Sub(from)
	m := from.Sub(center)
	c := m.Dot(m) - radius*radius
	if c <= 0 {
		return 0, mgl64.Vec3{}, false
	}
	a := d.Dot(d)
	b := m.Dot(d)
	if b > 0 || a < 1e-18 {
		return 0, mgl64.Vec3{}, false
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, mgl64.Vec3{}, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return 0, mgl64.Vec3{}, false
	}
	hit := from.Add(d.Mul(t))
	return t, safeNormalize(hit.Sub(center), mgl64.Vec3{0, 1, 0}), true
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
