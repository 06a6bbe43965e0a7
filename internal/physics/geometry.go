package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"physworld/internal/dynamics"
	"physworld/internal/mathutil"
)

// GatherStaticGeometry returns the world space triangles of every static
// body whose bounds overlap mins..maxs. Bodies with an authored model use it;
// triangle meshes without one contribute the triangles inside the region.
func (p *PhysicsWorld) GatherStaticGeometry(mins, maxs rl.Vector3) ([]rl.Vector3, []int32) {
	var (
		vertices []rl.Vector3
		indices  []int32
	)
	region := dynamics.AABB{Min: mathutil.Vec3(mins), Max: mathutil.Vec3(maxs)}
	p.world.AABBTest(region, func(o *dynamics.CollisionObject) bool {
		if !o.IsStaticObject() {
			return true
		}
		t := o.WorldTransform()
		base := int32(len(vertices))
		if proxy := proxyOf(o); proxy != nil && proxy.Model != nil {
			verts, idx := proxy.Model.Geometry(proxy.ModelScale)
			for _, v := range verts {
				vertices = append(vertices, mathutil.Vector3(t.Apply(v)))
			}
			for _, i := range idx {
				indices = append(indices, base+i)
			}
			return true
		}
		if mesh, ok := o.Shape().(*dynamics.TriangleMeshShape); ok {
			local := meshRegion(region, t)
			mesh.ProcessTriangles(local, func(_ int, tri [3]mgl64.Vec3) bool {
				for _, v := range tri {
					indices = append(indices, int32(len(vertices)))
					vertices = append(vertices, mathutil.Vector3(t.Apply(v)))
				}
				return true
			})
		}
		return true
	})
	return vertices, indices
}

// meshRegion expresses a world region in the local frame of t.
func meshRegion(region dynamics.AABB, t dynamics.Transform) dynamics.AABB {
	return dynamics.TransformAABB(region, t.Inverse())
}
