package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// LocalShapeInfo identifies the sub-shape that was hit: the compound child
// index and the triangle index, or -1 when not applicable.
type LocalShapeInfo struct {
	PartID        int
	TriangleIndex int
}

type LocalRayResult struct {
	Object         *CollisionObject
	ShapeInfo      LocalShapeInfo
	HitNormalWorld mgl64.Vec3
	HitPointWorld  mgl64.Vec3
	HitFraction    float64
}

type LocalConvexResult struct {
	Object         *CollisionObject
	ShapeInfo      LocalShapeInfo
	HitNormalWorld mgl64.Vec3
	HitPointWorld  mgl64.Vec3
	HitFraction    float64
}

// RayResultCallback receives every ray hit. AddSingleResult returns the
// closest fraction the callback still cares about; later hits beyond it are
// not reported.
type RayResultCallback interface {
	NeedsCollision(o *CollisionObject) bool
	AddSingleResult(r LocalRayResult) float64
}

type ConvexResultCallback interface {
	NeedsCollision(o *CollisionObject) bool
	AddSingleResult(r LocalConvexResult) float64
}

// ContactResultCallback receives the points found by ContactTest.
type ContactResultCallback interface {
	NeedsCollision(o *CollisionObject) bool
	AddSingleResult(cp *ManifoldPoint, obj0 *CollisionObject, partID0, index0 int, obj1 *CollisionObject, partID1, index1 int)
}

// RayTest reports every object hit by the segment from..to.
func (w *World) RayTest(from, to mgl64.Vec3, cb RayResultCallback) {
	closest := 1.0
	for _, o := range w.objects {
		if _, ok := o.aabb.RayIntersect(from, to); !ok {
			continue
		}
		if !cb.NeedsCollision(o) {
			continue
		}
		rayAgainstShape(from, to, rootInstance(o), func(h castHit) {
			if h.fraction > closest {
				return
			}
			closest = cb.AddSingleResult(LocalRayResult{
				Object:         o,
				ShapeInfo:      LocalShapeInfo{PartID: h.part, TriangleIndex: h.index},
				HitNormalWorld: h.normal,
				HitPointWorld:  h.point,
				HitFraction:    h.fraction,
			})
		})
	}
}

// ConvexSweepTest sweeps shape from one pose to another. Only the translation
// between the poses is swept; the rotation of from is kept.
func (w *World) ConvexSweepTest(shape ConvexShape, from, to Transform, cb ConvexResultCallback) {
	cast := convexInstance{shape: shape, transform: from}
	motion := to.Origin.Sub(from.Origin)
	swept := ShapeAABB(shape, from).Sweep(motion).Expand(castGap)
	closest := 1.0
	for _, o := range w.objects {
		if !o.aabb.Overlaps(swept) {
			continue
		}
		if !cb.NeedsCollision(o) {
			continue
		}
		castAgainstShape(cast, motion, rootInstance(o), castGap, func(h castHit) {
			if h.fraction > closest {
				return
			}
			closest = cb.AddSingleResult(LocalConvexResult{
				Object:         o,
				ShapeInfo:      LocalShapeInfo{PartID: h.part, TriangleIndex: h.index},
				HitNormalWorld: h.normal,
				HitPointWorld:  h.point,
				HitFraction:    h.fraction,
			})
		})
	}
}

// ContactTest reports the penetrating points between o and every other
// object in the world. o does not need to be part of the world.
func (w *World) ContactTest(o *CollisionObject, cb ContactResultCallback) {
	box := ShapeAABB(o.shape, o.worldTransform)
	for _, other := range w.objects {
		if other == o || !other.aabb.Overlaps(box) {
			continue
		}
		if !cb.NeedsCollision(other) {
			continue
		}
		m := newManifold(o, other, w.breakingThreshold)
		sink := &manifoldSink{manifold: m, objA: o, objB: other}
		collideShapes(rootInstance(o), rootInstance(other), 0, sink)
		for i := 0; i < m.count; i++ {
			cp := &m.points[i]
			cb.AddSingleResult(cp, o, cp.PartID0, cp.Index0, other, cp.PartID1, cp.Index1)
		}
	}
}

// AABBTest calls fn for every object whose bounds overlap box until fn
// returns false.
func (w *World) AABBTest(box AABB, fn func(o *CollisionObject) bool) {
	for _, o := range w.objects {
		if !o.aabb.Overlaps(box) {
			continue
		}
		if !fn(o) {
			return
		}
	}
}
