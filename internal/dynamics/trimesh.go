package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
)

type bvhNode struct {
	bounds    AABB
	left      *bvhNode
	right     *bvhNode
	triangles []int
}

// TriangleMeshShape is a static triangle soup with a bounding volume hierarchy.
type TriangleMeshShape struct {
	shapeBase
	Vertices []mgl64.Vec3
	Indices  []int32
	root     *bvhNode
	bounds   AABB
}

// NewTriangleMeshShape builds the BVH immediately. Indices are read in triples.
func NewTriangleMeshShape(vertices []mgl64.Vec3, indices []int32) *TriangleMeshShape {
	s := &TriangleMeshShape{Vertices: vertices, Indices: indices, bounds: EmptyAABB()}
	for _, v := range vertices {
		s.bounds = s.bounds.AddPoint(v)
	}
	n := s.NumTriangles()
	if n > 0 {
		tris := make([]int, n)
		for i := range tris {
			tris[i] = i
		}
		s.root = s.buildNode(tris, 0)
	}
	return s
}

func (s *TriangleMeshShape) Kind() ShapeKind { return ShapeTriangleMesh }

func (s *TriangleMeshShape) LocalAABB() AABB {
	if s.NumTriangles() == 0 {
		return AABB{}
	}
	return s.bounds.Expand(s.margin)
}

func (s *TriangleMeshShape) NumTriangles() int {
	return len(s.Indices) / 3
}

// Triangle returns the vertices of triangle i in local space.
func (s *TriangleMeshShape) Triangle(i int) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		s.Vertices[s.Indices[i*3]],
		s.Vertices[s.Indices[i*3+1]],
		s.Vertices[s.Indices[i*3+2]],
	}
}

func (s *TriangleMeshShape) triangleBounds(i int) AABB {
	box := EmptyAABB()
	for _, v := range s.Triangle(i) {
		box = box.AddPoint(v)
	}
	return box
}

func (s *TriangleMeshShape) buildNode(tris []int, depth int) *bvhNode {
	node := &bvhNode{bounds: EmptyAABB()}
	for _, t := range tris {
		node.bounds = node.bounds.Merge(s.triangleBounds(t))
	}
	if len(tris) <= 4 || depth > 20 {
		node.triangles = tris
		return node
	}

	size := node.bounds.Max.Sub(node.bounds.Min)
	axis := 0
	if size[1] > size[0] {
		axis = 1
	}
	if size[2] > size[axis] {
		axis = 2
	}

	mid := s.partition(tris, axis)
	if mid == 0 || mid == len(tris) {
		node.triangles = tris
		return node
	}
	node.left = s.buildNode(tris[:mid], depth+1)
	node.right = s.buildNode(tris[mid:], depth+1)
	return node
}

func (s *TriangleMeshShape) centroid(i int) mgl64.Vec3 {
	t := s.Triangle(i)
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3.0)
}

func (s *TriangleMeshShape) partition(tris []int, axis int) int {
	center := 0.0
	for _, t := range tris {
		center += s.centroid(t)[axis]
	}
	center /= float64(len(tris))

	left, right := 0, len(tris)-1
	for left <= right {
		if s.centroid(tris[left])[axis] < center {
			left++
		} else {
			tris[left], tris[right] = tris[right], tris[left]
			right--
		}
	}
	return left
}

// ProcessTriangles calls fn for every triangle whose bounds overlap box
// (local space). fn returns false to stop the walk.
func (s *TriangleMeshShape) ProcessTriangles(box AABB, fn func(index int, tri [3]mgl64.Vec3) bool) {
	if s.root == nil {
		return
	}
	s.walk(s.root, box, fn)
}

func (s *TriangleMeshShape) walk(node *bvhNode, box AABB, fn func(int, [3]mgl64.Vec3) bool) bool {
	if !node.bounds.Expand(s.margin).Overlaps(box) {
		return true
	}
	if node.triangles != nil {
		for _, t := range node.triangles {
			if !s.triangleBounds(t).Expand(s.margin).Overlaps(box) {
				continue
			}
			if !fn(t, s.Triangle(t)) {
				return false
			}
		}
		return true
	}
	if node.left != nil && !s.walk(node.left, box, fn) {
		return false
	}
	if node.right != nil && !s.walk(node.right, box, fn) {
		return false
	}
	return true
}

// rayTriangle is the Moller-Trumbore test for the segment from..to. Both faces hit.
func rayTriangle(from, to mgl64.Vec3, tri [3]mgl64.Vec3) (float64, bool) {
	dir := to.Sub(from)
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -1e-12 && det < 1e-12 {
		return 0, false
	}
	inv := 1 / det
	s := from.Sub(tri[0])
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
