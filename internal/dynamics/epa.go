package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type epaFace struct {
	idx    [3]int
	normal mgl64.Vec3
	dist   float64
}

type epaEdge struct {
	a, b int
}

// penetration is the result of the polytope expansion: moving A by
// -normal*depth separates the shapes. normal points from A into B.
type penetration struct {
	normal mgl64.Vec3
	depth  float64
	pointA mgl64.Vec3
	pointB mgl64.Vec3
}

// newEPAFace winds the face so its normal points away from interior, a point
// strictly inside the polytope. The origin may lie on the boundary.
func newEPAFace(verts []supportPoint, a, b, c int, interior mgl64.Vec3) (epaFace, bool) {
	n := verts[b].w.Sub(verts[a].w).Cross(verts[c].w.Sub(verts[a].w))
	l := n.Len()
	if l < 1e-14 {
		return epaFace{}, false
	}
	n = n.Mul(1 / l)
	idx := [3]int{a, b, c}
	if n.Dot(verts[a].w.Sub(interior)) < 0 {
		n = n.Mul(-1)
		idx = [3]int{a, c, b}
	}
	return epaFace{idx: idx, normal: n, dist: math.Max(0, n.Dot(verts[a].w))}, true
}

// epa expands the GJK tetrahedron towards the surface of the Minkowski
// difference to find the penetration depth and direction.
func epa(a, b convexInstance, s simplex) (penetration, bool) {
	if s.count < 4 && !completeSimplex(a, b, &s) {
		return penetration{}, false
	}
	verts := make([]supportPoint, 0, 32)
	verts = append(verts, s.points[:4]...)
	interior := verts[0].w.Add(verts[1].w).Add(verts[2].w).Add(verts[3].w).Mul(0.25)

	faces := make([]epaFace, 0, 32)
	for _, f := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		face, ok := newEPAFace(verts, f[0], f[1], f[2], interior)
		if !ok {
			return penetration{}, false
		}
		faces = append(faces, face)
	}

	for iter := 0; iter < epaMaxIterations; iter++ {
		closest := 0
		for i := 1; i < len(faces); i++ {
			if faces[i].dist < faces[closest].dist {
				closest = i
			}
		}
		face := faces[closest]
		sp := minkowskiSupport(a, b, face.normal)
		d := sp.w.Dot(face.normal)
		if d-face.dist < epaTolerance || iter == epaMaxIterations-1 {
			return penetrationFromFace(verts, face), true
		}

		verts = append(verts, sp)
		newIdx := len(verts) - 1
		var horizon []epaEdge
		kept := faces[:0]
		for _, f := range faces {
			if f.normal.Dot(sp.w.Sub(verts[f.idx[0]].w)) > 0 {
				for e := 0; e < 3; e++ {
					horizon = addHorizonEdge(horizon, epaEdge{f.idx[e], f.idx[(e+1)%3]})
				}
				continue
			}
			kept = append(kept, f)
		}
		faces = kept
		for _, e := range horizon {
			if f, ok := newEPAFace(verts, e.a, e.b, newIdx, interior); ok {
				faces = append(faces, f)
			}
		}
		if len(faces) == 0 {
			return penetration{}, false
		}
	}
	return penetration{}, false
}

// addHorizonEdge toggles e in the horizon: an edge shared by two removed faces
// appears twice with opposite winding and cancels out.
func addHorizonEdge(edges []epaEdge, e epaEdge) []epaEdge {
	for i, existing := range edges {
		if existing.a == e.b && existing.b == e.a {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, e)
}

func penetrationFromFace(verts []supportPoint, f epaFace) penetration {
	a, b, c := verts[f.idx[0]], verts[f.idx[1]], verts[f.idx[2]]
	p := f.normal.Mul(f.dist)
	u, v, w := barycentric(p, a.w, b.w, c.w)
	return penetration{
		normal: f.normal,
		depth:  f.dist,
		pointA: a.a.Mul(u).Add(b.a.Mul(v)).Add(c.a.Mul(w)),
		pointB: a.b.Mul(u).Add(b.b.Mul(v)).Add(c.b.Mul(w)),
	}
}

func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-18 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}
