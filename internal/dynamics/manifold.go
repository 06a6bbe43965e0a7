package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MaxManifoldPoints is the number of contact points a manifold keeps.
const MaxManifoldPoints = 4

// DefaultContactBreakingThreshold is how far points may drift apart before a
// manifold forgets them.
const DefaultContactBreakingThreshold = 0.02

// ManifoldPoint is one contact between Body0 (A) and Body1 (B) of a manifold.
// NormalWorldOnB points from B towards A; Distance is negative when penetrating.
type ManifoldPoint struct {
	LocalPointA      mgl64.Vec3
	LocalPointB      mgl64.Vec3
	PositionWorldOnA mgl64.Vec3
	PositionWorldOnB mgl64.Vec3
	NormalWorldOnB   mgl64.Vec3
	Distance         float64

	CombinedFriction    float64
	CombinedRestitution float64
	AppliedImpulse      float64

	PartID0 int
	Index0  int
	PartID1 int
	Index1  int

	LifeTime int
}

// PersistentManifold caches the contact points of one pair across steps.
type PersistentManifold struct {
	Body0 *CollisionObject
	Body1 *CollisionObject

	points            [MaxManifoldPoints]ManifoldPoint
	count             int
	breakingThreshold float64
}

func newManifold(a, b *CollisionObject, threshold float64) *PersistentManifold {
	return &PersistentManifold{Body0: a, Body1: b, breakingThreshold: threshold}
}

func (m *PersistentManifold) NumContacts() int { return m.count }

// ContactPoint returns point i; the pointer is valid until the next step.
func (m *PersistentManifold) ContactPoint(i int) *ManifoldPoint {
	return &m.points[i]
}

func (m *PersistentManifold) ContactBreakingThreshold() float64 {
	return m.breakingThreshold
}

func (m *PersistentManifold) ClearManifold() {
	m.count = 0
}

func (m *PersistentManifold) removePoint(i int) {
	last := m.count - 1
	if i != last {
		m.points[i] = m.points[last]
	}
	m.count--
}

// cachedPointIndex finds an existing point close enough to pt to be the same.
func (m *PersistentManifold) cachedPointIndex(pt *ManifoldPoint) int {
	shortest := m.breakingThreshold * m.breakingThreshold
	nearest := -1
	for i := 0; i < m.count; i++ {
		d := m.points[i].LocalPointA.Sub(pt.LocalPointA).LenSqr()
		if d < shortest {
			shortest = d
			nearest = i
		}
	}
	return nearest
}

// addPoint stores pt and reports whether it is a new point rather than a
// refresh of a cached one.
func (m *PersistentManifold) addPoint(pt ManifoldPoint) (int, bool) {
	if idx := m.cachedPointIndex(&pt); idx >= 0 {
		prev := m.points[idx]
		pt.LifeTime = prev.LifeTime
		pt.AppliedImpulse = prev.AppliedImpulse
		pt.CombinedFriction = prev.CombinedFriction
		pt.CombinedRestitution = prev.CombinedRestitution
		m.points[idx] = pt
		return idx, false
	}
	if m.count < MaxManifoldPoints {
		m.points[m.count] = pt
		m.count++
		return m.count - 1, true
	}
	// Replace the shallowest point, keeping the deepest contacts.
	replace := 0
	for i := 1; i < m.count; i++ {
		if m.points[i].Distance > m.points[replace].Distance {
			replace = i
		}
	}
	m.points[replace] = pt
	return replace, true
}

// refreshContactPoints re-evaluates cached points against the current
// transforms and drops points that separated or slid too far.
func (m *PersistentManifold) refreshContactPoints(trA, trB Transform) {
	for i := m.count - 1; i >= 0; i-- {
		p := &m.points[i]
		p.PositionWorldOnA = trA.Apply(p.LocalPointA)
		p.PositionWorldOnB = trB.Apply(p.LocalPointB)
		p.Distance = p.PositionWorldOnA.Sub(p.PositionWorldOnB).Dot(p.NormalWorldOnB)
		p.LifeTime++
	}
	for i := m.count - 1; i >= 0; i-- {
		p := &m.points[i]
		if p.Distance > m.breakingThreshold {
			m.removePoint(i)
			continue
		}
		projected := p.PositionWorldOnA.Sub(p.NormalWorldOnB.Mul(p.Distance))
		drift := p.PositionWorldOnB.Sub(projected)
		if drift.LenSqr() > m.breakingThreshold*m.breakingThreshold {
			m.removePoint(i)
		}
	}
}
