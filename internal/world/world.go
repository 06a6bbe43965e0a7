package world

import (
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"physworld/internal/collision"
	"physworld/internal/components"
	"physworld/internal/engine"
	"physworld/internal/physics"
)

// World owns a scene and the physics simulation its components use.
type World struct {
	Scene *engine.Scene

	cfg     Config
	logger  *zap.Logger
	physics *physics.PhysicsWorld
}

func New(cfg Config, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{
		Scene:   engine.NewScene("Main"),
		cfg:     cfg,
		logger:  logger.Named("world"),
		physics: physics.New(cfg.Physics, logger),
	}
	w.Scene.World = w
	return w
}

func (w *World) Physics() *physics.PhysicsWorld { return w.physics }
func (w *World) Config() Config                 { return w.cfg }

// Spawn adds a to the scene. It starts on the next Tick unless the caller
// starts it first.
func (w *World) Spawn(a *engine.Actor) {
	w.Scene.AddActor(a)
}

func (w *World) Destroy(a *engine.Actor) {
	a.Destroy()
}

// Tick updates the scene, advances the simulation by dt and removes destroyed
// actors. It returns the number of physics sub-steps taken.
func (w *World) Tick(dt float32) int {
	w.Scene.Update(dt)
	steps := w.physics.Simulate(float64(dt))
	for _, a := range w.Scene.ReapPendingKill() {
		w.logger.Debug("actor removed", zap.String("actor", a.Name), zap.Stringer("guid", a.GUID))
	}
	return steps
}

// Raycast returns the closest hit along direction, ignoring triggers.
func (w *World) Raycast(origin, direction rl.Vector3, maxDistance float32) (engine.RaycastResult, bool) {
	if rl.Vector3Length(direction) == 0 || maxDistance <= 0 {
		return engine.RaycastResult{}, false
	}
	end := rl.Vector3Add(origin, rl.Vector3Scale(rl.Vector3Normalize(direction), maxDistance))
	hit, ok := w.physics.TraceClosest(origin, end, physics.QueryFilter{IgnoreTriggers: true})
	if !ok {
		return engine.RaycastResult{}, false
	}
	res := engine.RaycastResult{
		Actor:    hit.Actor,
		Point:    hit.Position,
		Normal:   hit.Normal,
		Distance: hit.Distance,
	}
	if hit.Proxy != nil {
		res.Body = hit.Proxy.Owner()
	}
	return res, true
}

// ApplyReload rebuilds every body whose collision model came from the
// reloaded descriptor and returns how many were rebuilt.
func (w *World) ApplyReload(r collision.Reload) int {
	var n int
	for _, a := range w.Scene.Actors {
		body := engine.GetComponent[*components.PhysicalBody](a)
		if body == nil || body.Descriptor == "" || !samePath(body.Descriptor, r.Path) {
			continue
		}
		body.SetCollisionModel(r.Composition)
		n++
	}
	w.logger.Info("descriptor reloaded", zap.String("path", r.Path), zap.Int("bodies", n))
	return n
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Close destroys every actor and shuts the simulation down.
func (w *World) Close() {
	for _, a := range w.Scene.Actors {
		a.Destroy()
	}
	w.Scene.ReapPendingKill()
	w.physics.Close()
}
