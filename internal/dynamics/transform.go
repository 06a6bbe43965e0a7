package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid transform: rotation followed by translation.
type Transform struct {
	Origin mgl64.Vec3
	Basis  mgl64.Quat
}

// IdentityTransform returns a transform with no rotation or translation.
func IdentityTransform() Transform {
	return Transform{Basis: mgl64.QuatIdent()}
}

// NewTransform builds a transform from an origin and a rotation.
func NewTransform(origin mgl64.Vec3, basis mgl64.Quat) Transform {
	return Transform{Origin: origin, Basis: basis}
}

// Apply maps a point from local to world space.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Rotate(p).Add(t.Origin)
}

// ApplyVector rotates a direction from local to world space.
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Rotate(v)
}

// InvApply maps a point from world to local space.
func (t Transform) InvApply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Conjugate().Rotate(p.Sub(t.Origin))
}

// InvApplyVector rotates a direction from world to local space.
func (t Transform) InvApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Conjugate().Rotate(v)
}

// Mul composes t with a child transform expressed in t's local space.
func (t Transform) Mul(child Transform) Transform {
	return Transform{
		Origin: t.Apply(child.Origin),
		Basis:  t.Basis.Mul(child.Basis).Normalize(),
	}
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() Transform {
	inv := t.Basis.Conjugate()
	return Transform{Origin: inv.Rotate(t.Origin.Mul(-1)), Basis: inv}
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

func vecAbs(a mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(a[0]), math.Abs(a[1]), math.Abs(a[2])}
}

// safeNormalize returns v normalized, or fallback when v is too short.
func safeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return fallback
	}
	return v.Mul(1 / l)
}

// anyPerpendicular returns a unit vector perpendicular to n.
func anyPerpendicular(n mgl64.Vec3) mgl64.Vec3 {
	if math.Abs(n[0]) > 0.57 {
		return safeNormalize(mgl64.Vec3{n[1], -n[0], 0}, mgl64.Vec3{0, 1, 0})
	}
	return safeNormalize(mgl64.Vec3{0, n[2], -n[1]}, mgl64.Vec3{1, 0, 0})
}
