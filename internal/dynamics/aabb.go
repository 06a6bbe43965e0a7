package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any Merge will replace.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

func (a AABB) Overlaps(b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

func (a AABB) Contains(p mgl64.Vec3) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1] &&
		p[2] >= a.Min[2] && p[2] <= a.Max[2]
}

func (a AABB) Merge(b AABB) AABB {
	return AABB{Min: vecMin(a.Min, b.Min), Max: vecMax(a.Max, b.Max)}
}

func (a AABB) AddPoint(p mgl64.Vec3) AABB {
	return AABB{Min: vecMin(a.Min, p), Max: vecMax(a.Max, p)}
}

// Expand grows the box by d on every side.
func (a AABB) Expand(d float64) AABB {
	e := mgl64.Vec3{d, d, d}
	return AABB{Min: a.Min.Sub(e), Max: a.Max.Add(e)}
}

// Sweep extends the box to cover its translation by motion.
func (a AABB) Sweep(motion mgl64.Vec3) AABB {
	moved := AABB{Min: a.Min.Add(motion), Max: a.Max.Add(motion)}
	return a.Merge(moved)
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// TransformAABB returns the world box enclosing a local box under t.
func TransformAABB(local AABB, t Transform) AABB {
	center := t.Apply(local.Center())
	half := local.HalfExtents()
	m := t.Basis.Mat4()
	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		extent[i] = math.Abs(m.At(i, 0))*half[0] + math.Abs(m.At(i, 1))*half[1] + math.Abs(m.At(i, 2))*half[2]
	}
	return AABB{Min: center.Sub(extent), Max: center.Add(extent)}
}

// RayIntersect runs a slab test against the segment from..to and returns the
// entry fraction in [0,1].
func (a AABB) RayIntersect(from, to mgl64.Vec3) (float64, bool) {
	dir := to.Sub(from)
	tMin, tMax := 0.0, 1.0
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if from[i] < a.Min[i] || from[i] > a.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (a.Min[i] - from[i]) * inv
		t2 := (a.Max[i] - from[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
