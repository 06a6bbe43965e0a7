package components

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"physworld/internal/engine"
)

func init() {
	engine.RegisterComponent("Camera", func(props map[string]any) engine.Component {
		c := NewCamera()
		c.FOV = propFloat(props, "fov", c.FOV)
		c.IsMain = propBool(props, "isMain", c.IsMain)
		return c
	}, func(c engine.Component) map[string]any {
		cam, ok := c.(*Camera)
		if !ok {
			return nil
		}
		return map[string]any{"fov": cam.FOV, "isMain": cam.IsMain}
	})
}

type Camera struct {
	engine.BaseComponent
	FOV    float32
	IsMain bool // The viewer renders through the main camera
}

func NewCamera() *Camera {
	return &Camera{FOV: 60}
}

// RaylibCamera looks through the actor's FPSController when it has one, and
// along the actor's yaw otherwise.
func (c *Camera) RaylibCamera() rl.Camera3D {
	a := c.GetActor()
	if a == nil {
		return rl.Camera3D{}
	}
	eye := a.WorldPosition()
	var dir rl.Vector3
	if fps := engine.GetComponent[*FPSController](a); fps != nil {
		eye = fps.Eye()
		dir = fps.LookDirection()
	} else {
		yaw := float64(a.WorldRotation().Y) * math.Pi / 180
		dir = rl.Vector3{X: -float32(math.Sin(yaw)), Z: -float32(math.Cos(yaw))}
	}
	return rl.Camera3D{
		Position:   eye,
		Target:     rl.Vector3Add(eye, dir),
		Up:         rl.Vector3{Y: 1},
		Fovy:       c.FOV,
		Projection: rl.CameraPerspective,
	}
}

// MainCamera returns the first main camera in the scene, or nil.
func MainCamera(scene *engine.Scene) *Camera {
	for _, a := range scene.Actors {
		if cam := engine.GetComponent[*Camera](a); cam != nil && cam.IsMain {
			return cam
		}
	}
	return nil
}
