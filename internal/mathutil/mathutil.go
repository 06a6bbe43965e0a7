// Package mathutil holds small numeric helpers shared by the physics code.
package mathutil

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Vec3 converts an engine vector to the dynamics library's precision.
func Vec3(v rl.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

func Vector3(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

func Quat(q rl.Quaternion) mgl64.Quat {
	return mgl64.Quat{W: float64(q.W), V: mgl64.Vec3{float64(q.X), float64(q.Y), float64(q.Z)}}
}

func Quaternion(q mgl64.Quat) rl.Quaternion {
	return rl.Quaternion{X: float32(q.V[0]), Y: float32(q.V[1]), Z: float32(q.V[2]), W: float32(q.W)}
}

// EulerDegrees builds the rotation for Euler angles in degrees, applied X then
// Y then Z like engine transforms.
func EulerDegrees(deg mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(deg[0]), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(deg[1]), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(deg[2]), mgl64.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

// NearlyZero reports whether every component of v is within eps of zero.
func NearlyZero(v mgl64.Vec3, eps float64) bool {
	return math.Abs(v[0]) <= eps && math.Abs(v[1]) <= eps && math.Abs(v[2]) <= eps
}
