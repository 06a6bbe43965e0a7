package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	solverIterations     = 10
	restitutionThreshold = 1.0
	penetrationSlop      = 0.005
	positionCorrection   = 0.2
)

type solverContact struct {
	point    *ManifoldPoint
	a, b     *RigidBody
	invA     float64
	invB     float64
	bounce   float64
	impulse  float64
	friction float64
}

func velocityOf(b *RigidBody) mgl64.Vec3 {
	if b == nil {
		return mgl64.Vec3{}
	}
	return b.linearVelocity
}

func effectiveInvMass(b *RigidBody) float64 {
	if b == nil || !b.IsDynamic() {
		return 0
	}
	return b.invMass
}

// solveContacts runs sequential impulses over every penetrating manifold
// point. Only linear velocity is resolved.
func (w *World) solveContacts(dt float64) {
	contacts := w.solverContacts[:0]
	for _, m := range w.dispatcher.manifolds {
		if !m.Body0.HasContactResponse() || !m.Body1.HasContactResponse() {
			continue
		}
		a, b := m.Body0.body, m.Body1.body
		invA, invB := effectiveInvMass(a), effectiveInvMass(b)
		if invA+invB == 0 {
			continue
		}
		for i := 0; i < m.count; i++ {
			p := &m.points[i]
			if p.Distance > 0 {
				continue
			}
			c := solverContact{point: p, a: a, b: b, invA: invA, invB: invB, friction: p.CombinedFriction}
			vn := velocityOf(a).Sub(velocityOf(b)).Dot(p.NormalWorldOnB)
			if vn < -restitutionThreshold {
				c.bounce = -p.CombinedRestitution * vn
			}
			p.AppliedImpulse = 0
			contacts = append(contacts, c)
		}
	}
	w.solverContacts = contacts

	for iter := 0; iter < solverIterations; iter++ {
		for i := range contacts {
			c := &contacts[i]
			n := c.point.NormalWorldOnB
			vr := velocityOf(c.a).Sub(velocityOf(c.b))
			vn := vr.Dot(n)
			lambda := (c.bounce - vn) / (c.invA + c.invB)
			next := math.Max(c.impulse+lambda, 0)
			lambda = next - c.impulse
			c.impulse = next
			applyPair(c, n.Mul(lambda))

			vr = velocityOf(c.a).Sub(velocityOf(c.b))
			tangent := vr.Sub(n.Mul(vr.Dot(n)))
			speed := tangent.Len()
			if speed < 1e-9 || c.friction == 0 {
				continue
			}
			jt := math.Min(speed/(c.invA+c.invB), c.friction*c.impulse)
			applyPair(c, tangent.Mul(-jt/speed))
		}
	}
	for i := range contacts {
		contacts[i].point.AppliedImpulse = contacts[i].impulse
	}
}

func applyPair(c *solverContact, impulse mgl64.Vec3) {
	if c.invA > 0 {
		c.a.linearVelocity = c.a.linearVelocity.Add(impulse.Mul(c.invA))
	}
	if c.invB > 0 {
		c.b.linearVelocity = c.b.linearVelocity.Sub(impulse.Mul(c.invB))
	}
}

// correctPositions pushes penetrating dynamic bodies apart along the contact
// normal, split by inverse mass.
func (w *World) correctPositions() {
	for _, c := range w.solverContacts {
		depth := -c.point.Distance - penetrationSlop
		if depth <= 0 {
			continue
		}
		correction := c.point.NormalWorldOnB.Mul(depth * positionCorrection / (c.invA + c.invB))
		if c.invA > 0 {
			c.a.worldTransform.Origin = c.a.worldTransform.Origin.Add(correction.Mul(c.invA))
		}
		if c.invB > 0 {
			c.b.worldTransform.Origin = c.b.worldTransform.Origin.Sub(correction.Mul(c.invB))
		}
	}
}
