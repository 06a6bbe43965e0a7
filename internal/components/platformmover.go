package components

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"physworld/internal/engine"
)

func init() {
	engine.RegisterComponent("PlatformMover", func(props map[string]any) engine.Component {
		m := &PlatformMover{}
		m.Deserialize(props)
		return m
	}, func(c engine.Component) map[string]any {
		if m, ok := c.(*PlatformMover); ok {
			return m.Serialize()
		}
		return nil
	})
}

// PlatformMover swings its actor back and forth around the position it
// started at and spins it around Y. Paired with a kinematic PhysicalBody it
// makes a moving platform.
type PlatformMover struct {
	engine.BaseComponent
	Travel        rl.Vector3 // Offset at the far end of the swing
	Period        float32    // Seconds per full swing
	Phase         float32    // Radians
	RotationSpeed float32    // Degrees per second

	origin rl.Vector3
	time   float32
}

func (m *PlatformMover) Start() {
	m.origin = m.GetActor().Transform.Position
}

func (m *PlatformMover) Update(deltaTime float32) {
	a := m.GetActor()
	m.time += deltaTime
	if m.Period > 0 {
		s := float32(math.Sin(float64(2*math.Pi*m.time/m.Period + m.Phase)))
		a.Transform.Position = rl.Vector3Add(m.origin, rl.Vector3Scale(m.Travel, s))
	}
	if m.RotationSpeed != 0 {
		a.Transform.Rotation.Y = float32(math.Mod(float64(a.Transform.Rotation.Y+m.RotationSpeed*deltaTime), 360))
	}
}

func (m *PlatformMover) Serialize() map[string]any {
	return map[string]any{
		"travel":        []float32{m.Travel.X, m.Travel.Y, m.Travel.Z},
		"period":        m.Period,
		"phase":         m.Phase,
		"rotationSpeed": m.RotationSpeed,
	}
}

func (m *PlatformMover) Deserialize(props map[string]any) {
	m.Travel = propVector(props, "travel", m.Travel)
	m.Period = propFloat(props, "period", m.Period)
	m.Phase = propFloat(props, "phase", m.Phase)
	m.RotationSpeed = propFloat(props, "rotationSpeed", m.RotationSpeed)
}
