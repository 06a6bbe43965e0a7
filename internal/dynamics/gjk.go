package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	gjkMaxIterations = 64
	gjkEpsilon       = 1e-10
	epaMaxIterations = 64
	epaTolerance     = 1e-6
)

// convexInstance is a convex shape placed in the world.
type convexInstance struct {
	shape     ConvexShape
	transform Transform
}

func (c convexInstance) support(dir mgl64.Vec3) mgl64.Vec3 {
	local := c.shape.LocalSupport(c.transform.InvApplyVector(dir))
	return c.transform.Apply(local)
}

// supportPoint is a vertex of the Minkowski difference A - B together with
// the witness points on each shape.
type supportPoint struct {
	w mgl64.Vec3
	a mgl64.Vec3
	b mgl64.Vec3
}

func minkowskiSupport(a, b convexInstance, dir mgl64.Vec3) supportPoint {
	pa := a.support(dir)
	pb := b.support(dir.Mul(-1))
	return supportPoint{w: pa.Sub(pb), a: pa, b: pb}
}

type simplex struct {
	points [4]supportPoint
	count  int
}

// gjkResult describes the closest features of two convex shapes.
type gjkResult struct {
	intersect bool
	distance  float64
	pointA    mgl64.Vec3
	pointB    mgl64.Vec3
	simplex   simplex
}

// separation returns the unit vector from B's witness to A's witness.
func (r gjkResult) separation() mgl64.Vec3 {
	return safeNormalize(r.pointA.Sub(r.pointB), mgl64.Vec3{0, 1, 0})
}

// gjk computes the distance between two convex shapes, or reports that they
// intersect. On intersection the simplex encloses (or touches) the origin.
func gjk(a, b convexInstance) gjkResult {
	dir := b.transform.Origin.Sub(a.transform.Origin)
	if dir.LenSqr() < 1e-12 {
		dir = mgl64.Vec3{1, 0, 0}
	}
	var s simplex
	s.points[0] = minkowskiSupport(a, b, dir)
	s.count = 1
	lambda := [4]float64{1}
	v := s.points[0].w

	for i := 0; i < gjkMaxIterations; i++ {
		vv := v.LenSqr()
		if vv < gjkEpsilon {
			return gjkResult{intersect: true, simplex: s}
		}
		sp := minkowskiSupport(a, b, v.Mul(-1))
		if vv-v.Dot(sp.w) <= 1e-9*vv+gjkEpsilon {
			return closestResult(s, lambda, v)
		}
		duplicate := false
		for j := 0; j < s.count; j++ {
			if s.points[j].w.Sub(sp.w).LenSqr() < gjkEpsilon {
				duplicate = true
				break
			}
		}
		if duplicate {
			return closestResult(s, lambda, v)
		}
		s.points[s.count] = sp
		s.count++

		var inside bool
		v, lambda, inside = closestOnSimplex(&s)
		if inside {
			return gjkResult{intersect: true, simplex: s}
		}
	}
	return closestResult(s, lambda, v)
}

func closestResult(s simplex, lambda [4]float64, v mgl64.Vec3) gjkResult {
	var pa, pb mgl64.Vec3
	for i := 0; i < s.count; i++ {
		pa = pa.Add(s.points[i].a.Mul(lambda[i]))
		pb = pb.Add(s.points[i].b.Mul(lambda[i]))
	}
	return gjkResult{distance: v.Len(), pointA: pa, pointB: pb, simplex: s}
}

// closestOnSimplex reduces s to the feature closest to the origin and returns
// that point with barycentric weights. inside is set when a tetrahedron
// contains the origin.
func closestOnSimplex(s *simplex) (mgl64.Vec3, [4]float64, bool) {
	switch s.count {
	case 1:
		return s.points[0].w, [4]float64{1}, false
	case 2:
		return closestOnSegment(s)
	case 3:
		return closestOnTriangle(s)
	default:
		return closestOnTetrahedron(s)
	}
}

func closestOnSegment(s *simplex) (mgl64.Vec3, [4]float64, bool) {
	a, b := s.points[0], s.points[1]
	ab := b.w.Sub(a.w)
	denom := ab.LenSqr()
	t := 0.0
	if denom > 0 {
		t = -a.w.Dot(ab) / denom
	}
	if t <= 0 {
		s.count = 1
		return a.w, [4]float64{1}, false
	}
	if t >= 1 {
		s.points[0] = b
		s.count = 1
		return b.w, [4]float64{1}, false
	}
	return a.w.Add(ab.Mul(t)), [4]float64{1 - t, t}, false
}

// triangleClosest finds the point of triangle abc closest to the origin.
// It returns the weights of a, b and c.
func triangleClosest(a, b, c mgl64.Vec3) (mgl64.Vec3, [3]float64) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, [3]float64{1, 0, 0}
	}
	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, [3]float64{0, 1, 0}
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), [3]float64{1 - v, v, 0}
	}
	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, [3]float64{0, 0, 1}
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), [3]float64{1 - w, 0, w}
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), [3]float64{0, 1 - w, w}
	}
	denom := va + vb + vc
	if math.Abs(denom) < 1e-300 {
		return a, [3]float64{1, 0, 0}
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), [3]float64{1 - v - w, v, w}
}

// compact keeps only the points with a positive weight.
func compact(s *simplex, weights []float64) [4]float64 {
	var out [4]float64
	n := 0
	for i, w := range weights {
		if w > 0 {
			s.points[n] = s.points[i]
			out[n] = w
			n++
		}
	}
	if n == 0 {
		n = 1
		out[0] = 1
	}
	s.count = n
	return out
}

func closestOnTriangle(s *simplex) (mgl64.Vec3, [4]float64, bool) {
	p, bary := triangleClosest(s.points[0].w, s.points[1].w, s.points[2].w)
	return p, compact(s, bary[:]), false
}

func closestOnTetrahedron(s *simplex) (mgl64.Vec3, [4]float64, bool) {
	faces := [4][4]int{{0, 1, 2, 3}, {0, 3, 1, 2}, {0, 2, 3, 1}, {1, 3, 2, 0}}
	best := math.Inf(1)
	var bestPoint mgl64.Vec3
	var bestWeights [4]float64
	var bestSimplex simplex
	outsideAny := false

	for _, f := range faces {
		a, b, c, d := s.points[f[0]].w, s.points[f[1]].w, s.points[f[2]].w, s.points[f[3]].w
		n := b.Sub(a).Cross(c.Sub(a))
		signOrigin := a.Mul(-1).Dot(n)
		signD := d.Sub(a).Dot(n)
		if signD*signD < 1e-20 {
			// Flat tetrahedron: treat every face as a candidate.
			signOrigin, signD = 1, -1
		}
		if signOrigin*signD >= 0 {
			continue
		}
		outsideAny = true
		p, bary := triangleClosest(a, b, c)
		if dist := p.LenSqr(); dist < best {
			best = dist
			bestPoint = p
			bestSimplex = simplex{points: [4]supportPoint{s.points[f[0]], s.points[f[1]], s.points[f[2]]}, count: 3}
			bestWeights = compact(&bestSimplex, bary[:])
		}
	}
	if !outsideAny {
		return mgl64.Vec3{}, [4]float64{0.25, 0.25, 0.25, 0.25}, true
	}
	*s = bestSimplex
	return bestPoint, bestWeights, false
}

var blowUpDirections = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
}

// completeSimplex grows a degenerate intersecting simplex into a tetrahedron
// so the polytope expansion has a volume to start from.
func completeSimplex(a, b convexInstance, s *simplex) bool {
	for s.count < 4 {
		added := false
		dirs := blowUpDirections[:]
		switch s.count {
		case 2:
			ab := s.points[1].w.Sub(s.points[0].w)
			p := anyPerpendicular(safeNormalize(ab, mgl64.Vec3{1, 0, 0}))
			q := ab.Cross(p)
			dirs = []mgl64.Vec3{p, p.Mul(-1), q, q.Mul(-1)}
		case 3:
			n := s.points[1].w.Sub(s.points[0].w).Cross(s.points[2].w.Sub(s.points[0].w))
			dirs = []mgl64.Vec3{n, n.Mul(-1)}
		}
		for _, d := range dirs {
			sp := minkowskiSupport(a, b, d)
			if !extendsSimplex(s, sp.w) {
				continue
			}
			s.points[s.count] = sp
			s.count++
			added = true
			break
		}
		if !added {
			return false
		}
	}
	return true
}

func extendsSimplex(s *simplex, w mgl64.Vec3) bool {
	const eps = 1e-10
	switch s.count {
	case 1:
		return w.Sub(s.points[0].w).LenSqr() > eps
	case 2:
		ab := s.points[1].w.Sub(s.points[0].w)
		return ab.Cross(w.Sub(s.points[0].w)).LenSqr() > eps
	case 3:
		n := s.points[1].w.Sub(s.points[0].w).Cross(s.points[2].w.Sub(s.points[0].w))
		return math.Abs(n.Dot(w.Sub(s.points[0].w))) > eps
	}
	return true
}
