package components

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"

	"physworld/internal/collision"
	"physworld/internal/engine"
	"physworld/internal/physics"
)

const testStep = 1.0 / 60

// testWorld is the smallest WorldAccess that hands out a physics world.
type testWorld struct {
	scene   *engine.Scene
	physics *physics.PhysicsWorld
}

func (w *testWorld) Spawn(a *engine.Actor)          { w.scene.AddActor(a) }
func (w *testWorld) Destroy(a *engine.Actor)        { a.Destroy() }
func (w *testWorld) Physics() *physics.PhysicsWorld { return w.physics }

func (w *testWorld) Raycast(origin, direction rl.Vector3, maxDistance float32) (engine.RaycastResult, bool) {
	end := rl.Vector3Add(origin, rl.Vector3Scale(rl.Vector3Normalize(direction), maxDistance))
	hit, ok := w.physics.TraceClosest(origin, end, physics.QueryFilter{})
	if !ok {
		return engine.RaycastResult{}, false
	}
	return engine.RaycastResult{Actor: hit.Actor, Point: hit.Position, Normal: hit.Normal, Distance: hit.Distance}, true
}

func newTestScene(t *testing.T) (*engine.Scene, *physics.PhysicsWorld) {
	t.Helper()
	p := physics.New(physics.DefaultConfig(), zaptest.NewLogger(t))
	t.Cleanup(p.Close)
	scene := engine.NewScene("test")
	scene.World = &testWorld{scene: scene, physics: p}
	return scene, p
}

func boxModel(half mgl64.Vec3) *collision.Composition {
	return &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindBox, HalfExtents: half}}}
}

// addStaticBox adds a static box actor centered at pos.
func addStaticBox(scene *engine.Scene, name string, pos rl.Vector3, half mgl64.Vec3) *PhysicalBody {
	a := engine.NewActor(name)
	a.Transform.Position = pos
	b := NewPhysicalBody()
	b.CollisionModel = boxModel(half)
	a.AddComponent(b)
	scene.AddActor(a)
	return b
}

// addFloor adds a static floor whose top face is at y = 0.
func addFloor(scene *engine.Scene) *PhysicalBody {
	return addStaticBox(scene, "floor", rl.Vector3{Y: -0.5}, mgl64.Vec3{10, 0.5, 10})
}

func step(scene *engine.Scene, p *physics.PhysicsWorld, frames int) {
	for i := 0; i < frames; i++ {
		scene.Update(testStep)
		p.Simulate(testStep)
		scene.ReapPendingKill()
	}
}
