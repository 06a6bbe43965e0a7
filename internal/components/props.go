package components

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"physworld/internal/engine"
	"physworld/internal/physics"
)

// physicsProvider is implemented by worlds that run a physics simulation.
type physicsProvider interface {
	Physics() *physics.PhysicsWorld
}

// physicsOf returns the physics world of the scene a belongs to, or nil.
func physicsOf(a *engine.Actor) *physics.PhysicsWorld {
	if a == nil || a.Scene == nil || a.Scene.World == nil {
		return nil
	}
	if p, ok := a.Scene.World.(physicsProvider); ok {
		return p.Physics()
	}
	return nil
}

// Scene files decode numbers as int or float64 depending on how they were
// written.
func toFloat(v any) (float32, bool) {
	switch v := v.(type) {
	case float64:
		return float32(v), true
	case float32:
		return v, true
	case int:
		return float32(v), true
	}
	return 0, false
}

func propFloat(props map[string]any, key string, def float32) float32 {
	if f, ok := toFloat(props[key]); ok {
		return f
	}
	return def
}

func propInt(props map[string]any, key string, def int) int {
	switch v := props[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func propBool(props map[string]any, key string, def bool) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return def
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

// propVector reads a three element list.
func propVector(props map[string]any, key string, def rl.Vector3) rl.Vector3 {
	var v [3]float32
	switch list := props[key].(type) {
	case []float32:
		if len(list) != 3 {
			return def
		}
		copy(v[:], list)
	case []any:
		if len(list) != 3 {
			return def
		}
		for i, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return def
			}
			v[i] = f
		}
	default:
		return def
	}
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}
