package components

import (
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"physworld/internal/collision"
)

// ModelCollision builds a collision model from the meshes of a raylib model,
// in model space. Convex models become one hull around every vertex; other
// models keep their triangles and can only be static.
func ModelCollision(model rl.Model, convex bool) *collision.Composition {
	var verts []mgl64.Vec3
	var indices []int32
	for _, mesh := range unsafe.Slice(model.Meshes, model.MeshCount) {
		base := int32(len(verts))
		floats := unsafe.Slice(mesh.Vertices, mesh.VertexCount*3)
		for i := int32(0); i < mesh.VertexCount; i++ {
			verts = append(verts, mgl64.Vec3{float64(floats[i*3]), float64(floats[i*3+1]), float64(floats[i*3+2])})
		}
		if convex {
			continue
		}
		if mesh.Indices != nil {
			for _, idx := range unsafe.Slice(mesh.Indices, mesh.TriangleCount*3) {
				indices = append(indices, base+int32(idx))
			}
		} else {
			// Unindexed meshes list every triangle's corners in order.
			for i := int32(0); i < mesh.VertexCount/3*3; i++ {
				indices = append(indices, base+i)
			}
		}
	}
	if len(verts) == 0 {
		return &collision.Composition{}
	}
	body := collision.Body{Kind: collision.KindTriangleSoupBVH, Vertices: verts, Indices: indices}
	if convex {
		body = collision.Body{Kind: collision.KindConvexHull, Vertices: verts}
	}
	return &collision.Composition{Bodies: []collision.Body{body}}
}
