package components

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"physworld/internal/collision"
	"physworld/internal/engine"
)

func init() {
	engine.RegisterComponent("Launcher", func(props map[string]any) engine.Component {
		l := NewLauncher()
		l.Cooldown = propFloat(props, "cooldown", l.Cooldown)
		l.Speed = propFloat(props, "speed", l.Speed)
		l.Radius = propFloat(props, "radius", l.Radius)
		l.Range = propFloat(props, "range", l.Range)
		return l
	}, func(c engine.Component) map[string]any {
		l, ok := c.(*Launcher)
		if !ok {
			return nil
		}
		return map[string]any{
			"cooldown": l.Cooldown,
			"speed":    l.Speed,
			"radius":   l.Radius,
			"range":    l.Range,
		}
	})
}

// Launcher fires dynamic spheres along the look direction of the actor's
// FPSController.
type Launcher struct {
	engine.BaseComponent
	Cooldown float32 // Seconds between shots
	Speed    float32
	Radius   float32
	Range    float32 // Reach of Target

	// Trigger is polled once per update. Nil reads the left mouse button.
	Trigger func() bool

	fps       *FPSController
	sinceShot float32
	shots     int
}

func NewLauncher() *Launcher {
	return &Launcher{Cooldown: 0.15, Speed: 30, Radius: 0.25, Range: 100}
}

func (l *Launcher) Start() {
	l.fps = engine.GetComponent[*FPSController](l.GetActor())
	l.sinceShot = l.Cooldown
}

func (l *Launcher) Update(deltaTime float32) {
	l.sinceShot += deltaTime
	trigger := l.Trigger
	if trigger == nil {
		trigger = func() bool { return rl.IsMouseButtonDown(rl.MouseLeftButton) }
	}
	if trigger() && l.sinceShot >= l.Cooldown {
		l.Fire()
		l.sinceShot = 0
	}
}

// Fire spawns one projectile and returns it, or nil when the launcher has no
// world to spawn into.
func (l *Launcher) Fire() *engine.Actor {
	a := l.GetActor()
	if l.fps == nil || a.Scene == nil || a.Scene.World == nil {
		return nil
	}
	l.shots++
	dir := l.fps.LookDirection()

	shot := engine.NewActor(fmt.Sprintf("Shot_%d", l.shots))
	shot.Tags = []string{"projectile"}
	shot.Transform.Position = rl.Vector3Add(l.fps.Eye(), rl.Vector3Scale(dir, 1+l.Radius))
	body := NewPhysicalBody()
	body.MotionBehavior = MotionDynamic
	body.Restitution = 0.6
	body.Friction = 0.1
	body.CollisionModel = &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindSphere, Radius: float64(l.Radius)}}}
	shot.AddComponent(body)

	a.Scene.World.Spawn(shot)
	shot.Start()
	body.SetLinearVelocity(rl.Vector3Scale(dir, l.Speed))
	// Shots leave through the shooter's own capsule.
	body.AddToIgnoreList(a)
	return shot
}

// Target is what the launcher is aimed at.
func (l *Launcher) Target() (engine.RaycastResult, bool) {
	a := l.GetActor()
	if l.fps == nil || a.Scene == nil || a.Scene.World == nil {
		return engine.RaycastResult{}, false
	}
	return a.Scene.World.Raycast(l.fps.Eye(), l.fps.LookDirection(), l.Range)
}
