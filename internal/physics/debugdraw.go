package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"physworld/internal/dynamics"
	"physworld/internal/mathutil"
)

// DebugRenderer receives the lines DrawDebug produces.
type DebugRenderer interface {
	DrawLine(from, to rl.Vector3, color rl.Color)
	DrawContactPoint(position, normal rl.Vector3, distance float32, color rl.Color)
}

const (
	debugNormalLength = 0.3
	debugCrossSize    = 0.15
)

// DrawDebug visits the world according to the Debug toggles of the config.
// It does not change any state.
func (p *PhysicsWorld) DrawDebug(r DebugRenderer) {
	d := p.cfg.Debug
	if r == nil || !(d.DrawCollisionShapes || d.DrawAABBs || d.DrawContactPoints || d.DrawCenterOfMass) {
		return
	}
	for _, o := range p.world.CollisionObjects() {
		color := debugColor(o)
		if d.DrawCollisionShapes {
			drawShape(r, o, color)
		}
		if d.DrawAABBs {
			drawAABB(r, o.AABB(), rl.Red)
		}
		if d.DrawCenterOfMass {
			drawCross(r, o.WorldTransform().Origin, rl.Magenta)
		}
	}
	if d.DrawContactPoints {
		dispatcher := p.world.Dispatcher()
		for i := 0; i < dispatcher.NumManifolds(); i++ {
			m := dispatcher.ManifoldByIndex(i)
			for j := 0; j < m.NumContacts(); j++ {
				cp := m.ContactPoint(j)
				r.DrawContactPoint(mathutil.Vector3(cp.PositionWorldOnB), mathutil.Vector3(cp.NormalWorldOnB), float32(cp.Distance), rl.Orange)
			}
		}
	}
}

func debugColor(o *dynamics.CollisionObject) rl.Color {
	switch {
	case !o.HasContactResponse():
		return rl.SkyBlue
	case o.IsStaticObject():
		return rl.Gray
	case o.IsKinematicObject():
		return rl.Yellow
	default:
		return rl.Green
	}
}

func drawShape(r DebugRenderer, o *dynamics.CollisionObject, color rl.Color) {
	t := o.WorldTransform()
	if proxy := proxyOf(o); proxy != nil && proxy.Model != nil {
		verts, indices := proxy.Model.Geometry(proxy.ModelScale)
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := t.Apply(verts[indices[i]]), t.Apply(verts[indices[i+1]]), t.Apply(verts[indices[i+2]])
			drawTriangle(r, a, b, c, color)
		}
		return
	}
	if mesh, ok := o.Shape().(*dynamics.TriangleMeshShape); ok {
		for i := 0; i < mesh.NumTriangles(); i++ {
			tri := mesh.Triangle(i)
			drawTriangle(r, t.Apply(tri[0]), t.Apply(tri[1]), t.Apply(tri[2]), color)
		}
		return
	}
	drawAABB(r, o.AABB(), color)
}

func drawTriangle(r DebugRenderer, a, b, c mgl64.Vec3, color rl.Color) {
	va, vb, vc := mathutil.Vector3(a), mathutil.Vector3(b), mathutil.Vector3(c)
	r.DrawLine(va, vb, color)
	r.DrawLine(vb, vc, color)
	r.DrawLine(vc, va, color)
}

func drawAABB(r DebugRenderer, box dynamics.AABB, color rl.Color) {
	var corners [8]rl.Vector3
	for i := range corners {
		c := box.Min
		if i&1 != 0 {
			c[0] = box.Max[0]
		}
		if i&2 != 0 {
			c[1] = box.Max[1]
		}
		if i&4 != 0 {
			c[2] = box.Max[2]
		}
		corners[i] = mathutil.Vector3(c)
	}
	// Corners differing in exactly one bit share an edge.
	for i := range corners {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				r.DrawLine(corners[i], corners[i|bit], color)
			}
		}
	}
}

func drawCross(r DebugRenderer, center mgl64.Vec3, color rl.Color) {
	for axis := 0; axis < 3; axis++ {
		var d mgl64.Vec3
		d[axis] = debugCrossSize
		r.DrawLine(mathutil.Vector3(center.Sub(d)), mathutil.Vector3(center.Add(d)), color)
	}
}

// RaylibDebugRenderer draws in the current raylib 3D mode.
type RaylibDebugRenderer struct{}

func (RaylibDebugRenderer) DrawLine(from, to rl.Vector3, color rl.Color) {
	rl.DrawLine3D(from, to, color)
}

func (RaylibDebugRenderer) DrawContactPoint(position, normal rl.Vector3, distance float32, color rl.Color) {
	rl.DrawSphere(position, 0.03, color)
	rl.DrawLine3D(position, rl.Vector3Add(position, rl.Vector3Scale(normal, debugNormalLength)), color)
}
