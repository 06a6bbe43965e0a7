package collision

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/slices"
)

const (
	meshSegments = 12
	meshRings    = 6

	degenerateArea = 1e-12
	hullEpsilon    = 1e-6
)

// mesh accumulates triangles, dropping the ones with zero area.
type mesh struct {
	vertices []mgl64.Vec3
	indices  []int32
}

func (m *mesh) add(v mgl64.Vec3) int32 {
	m.vertices = append(m.vertices, v)
	return int32(len(m.vertices) - 1)
}

func (m *mesh) tri(a, b, c int32) {
	va, vb, vc := m.vertices[a], m.vertices[b], m.vertices[c]
	if vb.Sub(va).Cross(vc.Sub(va)).Len() <= degenerateArea {
		return
	}
	m.indices = append(m.indices, a, b, c)
}

func (m *mesh) quad(a, b, c, d int32) {
	m.tri(a, b, c)
	m.tri(a, c, d)
}

// triangles copies an indexed triangle list, skipping out-of-range and
// degenerate triangles.
func (m *mesh) triangles(verts []mgl64.Vec3, indices []int32) {
	if len(verts) == 0 {
		return
	}
	base := int32(len(m.vertices))
	m.vertices = append(m.vertices, verts...)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if a < 0 || b < 0 || c < 0 || int(a) >= len(verts) || int(b) >= len(verts) || int(c) >= len(verts) {
			continue
		}
		m.tri(base+a, base+b, base+c)
	}
}

func (m *mesh) box(h mgl64.Vec3) {
	var v [8]int32
	for i := range v {
		p := h
		if i&1 == 0 {
			p[0] = -p[0]
		}
		if i&2 == 0 {
			p[1] = -p[1]
		}
		if i&4 == 0 {
			p[2] = -p[2]
		}
		v[i] = m.add(p)
	}
	m.quad(v[0], v[2], v[3], v[1]) // -z
	m.quad(v[4], v[5], v[7], v[6]) // +z
	m.quad(v[0], v[4], v[6], v[2]) // -x
	m.quad(v[1], v[3], v[7], v[5]) // +x
	m.quad(v[0], v[1], v[5], v[4]) // -y
	m.quad(v[2], v[6], v[7], v[3]) // +y
}

// axisPoint places a point given in the Y-up frame onto axis.
func axisPoint(radial0, along, radial1 float64, axis int) mgl64.Vec3 {
	var p mgl64.Vec3
	p[axis] = along
	p[(axis+1)%3] = radial0
	p[(axis+2)%3] = radial1
	return p
}

func (m *mesh) ring(center float64, radius float64, axis int, offset mgl64.Vec3) []int32 {
	ring := make([]int32, meshSegments)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / meshSegments
		ring[i] = m.add(offset.Add(axisPoint(radius*math.Cos(a), center, radius*math.Sin(a), axis)))
	}
	return ring
}

func (m *mesh) bridge(lower, upper []int32) {
	for i := range lower {
		j := (i + 1) % len(lower)
		m.quad(lower[i], lower[j], upper[j], upper[i])
	}
}

func (m *mesh) cap(ring []int32, center int32, flip bool) {
	for i := range ring {
		j := (i + 1) % len(ring)
		if flip {
			m.tri(center, ring[j], ring[i])
		} else {
			m.tri(center, ring[i], ring[j])
		}
	}
}

// cylinder builds a frustum along axis: bottomRadius at -height/2 and
// topRadius at +height/2. A zero top radius makes a cone.
func (m *mesh) cylinder(bottomRadius, height, topRadius float64, axis int) {
	half := height / 2
	lower := m.ring(-half, bottomRadius, axis, mgl64.Vec3{})
	if topRadius == 0 {
		apex := m.add(axisPoint(0, half, 0, axis))
		m.cap(lower, apex, true)
	} else {
		upper := m.ring(half, topRadius, axis, mgl64.Vec3{})
		m.bridge(lower, upper)
		m.cap(upper, m.add(axisPoint(0, half, 0, axis)), true)
	}
	m.cap(lower, m.add(axisPoint(0, -half, 0, axis)), false)
}

// sphere builds a UV sphere around center.
func (m *mesh) sphere(center mgl64.Vec3, radius float64) {
	m.capsuleAlong(center, radius, 0, 1)
}

func (m *mesh) capsule(radius, height float64, axis int) {
	m.capsuleAlong(mgl64.Vec3{}, radius, height/2, axis)
}

// capsuleAlong builds two hemispheres separated by 2*halfHeight along axis.
func (m *mesh) capsuleAlong(center mgl64.Vec3, radius, halfHeight float64, axis int) {
	if radius <= 0 {
		return
	}
	bottom := m.add(center.Add(axisPoint(0, -halfHeight-radius, 0, axis)))
	top := m.add(center.Add(axisPoint(0, halfHeight+radius, 0, axis)))

	var rings [][]int32
	for r := 1; r < meshRings; r++ {
		phi := math.Pi * float64(r) / meshRings
		along := -radius * math.Cos(phi)
		if r < meshRings/2 {
			along -= halfHeight
		} else if r > meshRings/2 {
			along += halfHeight
		}
		ringRadius := radius * math.Sin(phi)
		if r == meshRings/2 && halfHeight > 0 {
			rings = append(rings, m.ring(-halfHeight, ringRadius, axis, center))
			rings = append(rings, m.ring(halfHeight, ringRadius, axis, center))
			continue
		}
		rings = append(rings, m.ring(along, ringRadius, axis, center))
	}
	m.cap(rings[0], bottom, false)
	for i := 0; i+1 < len(rings); i++ {
		m.bridge(rings[i], rings[i+1])
	}
	m.cap(rings[len(rings)-1], top, true)
}

// hull triangulates the convex hull of points by collecting every supporting
// plane and fanning its coplanar points. Meant for the small point clouds of
// authored hulls.
func (m *mesh) hull(points []mgl64.Vec3) {
	if len(points) < 4 {
		return
	}
	type plane struct {
		n mgl64.Vec3
		d float64
	}
	var planes []plane
	seen := func(p plane) bool {
		for _, q := range planes {
			if q.n.Dot(p.n) > 1-hullEpsilon && math.Abs(q.d-p.d) < hullEpsilon {
				return true
			}
		}
		return false
	}
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			for k := j + 1; k < len(points); k++ {
				n := points[j].Sub(points[i]).Cross(points[k].Sub(points[i]))
				if n.Len() <= degenerateArea {
					continue
				}
				n = n.Normalize()
				for _, sign := range [2]float64{1, -1} {
					p := plane{n: n.Mul(sign), d: n.Mul(sign).Dot(points[i])}
					if seen(p) || !supports(points, p.n, p.d) {
						continue
					}
					planes = append(planes, p)
				}
			}
		}
	}
	for _, p := range planes {
		m.face(points, p.n, p.d)
	}
}

func supports(points []mgl64.Vec3, n mgl64.Vec3, d float64) bool {
	for _, q := range points {
		if n.Dot(q)-d > hullEpsilon {
			return false
		}
	}
	return true
}

// face fans the points lying on plane (n, d), wound counter-clockwise around n.
func (m *mesh) face(points []mgl64.Vec3, n mgl64.Vec3, d float64) {
	var onPlane []mgl64.Vec3
	var centroid mgl64.Vec3
	for _, q := range points {
		if math.Abs(n.Dot(q)-d) <= hullEpsilon {
			onPlane = append(onPlane, q)
			centroid = centroid.Add(q)
		}
	}
	if len(onPlane) < 3 {
		return
	}
	centroid = centroid.Mul(1 / float64(len(onPlane)))
	u := onPlane[0].Sub(centroid)
	if u.Len() <= degenerateArea {
		u = onPlane[1].Sub(centroid)
	}
	u = u.Normalize()
	v := n.Cross(u)
	angle := func(q mgl64.Vec3) float64 {
		dq := q.Sub(centroid)
		return math.Atan2(dq.Dot(v), dq.Dot(u))
	}
	slices.SortFunc(onPlane, func(a, b mgl64.Vec3) int {
		return cmp.Compare(angle(a), angle(b))
	})
	first := m.add(onPlane[0])
	prev := m.add(onPlane[1])
	for _, q := range onPlane[2:] {
		next := m.add(q)
		m.tri(first, prev, next)
		prev = next
	}
}
