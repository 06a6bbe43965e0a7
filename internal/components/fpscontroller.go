package components

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"physworld/internal/engine"
)

func init() {
	engine.RegisterComponent("FPSController", func(props map[string]any) engine.Component {
		f := NewFPSController()
		f.Yaw = propFloat(props, "yaw", f.Yaw)
		f.Pitch = propFloat(props, "pitch", f.Pitch)
		f.MoveSpeed = propFloat(props, "moveSpeed", f.MoveSpeed)
		f.LookSpeed = propFloat(props, "lookSpeed", f.LookSpeed)
		f.EyeHeight = propFloat(props, "eyeHeight", f.EyeHeight)
		return f
	}, func(c engine.Component) map[string]any {
		f, ok := c.(*FPSController)
		if !ok {
			return nil
		}
		return map[string]any{
			"yaw":       f.Yaw,
			"pitch":     f.Pitch,
			"moveSpeed": f.MoveSpeed,
			"lookSpeed": f.LookSpeed,
			"eyeHeight": f.EyeHeight,
		}
	})
}

// PlayerInput is one frame of movement input.
type PlayerInput struct {
	Forward   float32 // -1 back, 1 forward
	Right     float32 // -1 left, 1 right
	Jump      bool
	LookDelta rl.Vector2
}

// KeyboardInput reads WASD, space and mouse look from the raylib window.
func KeyboardInput() PlayerInput {
	var in PlayerInput
	if rl.IsKeyDown(rl.KeyW) {
		in.Forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		in.Forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		in.Right++
	}
	if rl.IsKeyDown(rl.KeyA) {
		in.Right--
	}
	in.Jump = rl.IsKeyPressed(rl.KeySpace)
	in.LookDelta = rl.GetMouseDelta()
	return in
}

// FPSController turns player input into moves for the CharacterController
// on the same actor.
type FPSController struct {
	engine.BaseComponent
	Yaw       float32
	Pitch     float32
	MoveSpeed float32
	LookSpeed float32
	EyeHeight float32 // Above the actor origin

	// Input is polled once per update. Nil reads the keyboard.
	Input func() PlayerInput

	character *CharacterController
}

func NewFPSController() *FPSController {
	return &FPSController{
		Yaw:       -135,
		Pitch:     -10,
		MoveSpeed: 6,
		LookSpeed: 0.1,
		EyeHeight: 0.7,
	}
}

func (f *FPSController) Start() {
	f.character = engine.GetComponent[*CharacterController](f.GetActor())
}

func (f *FPSController) Update(deltaTime float32) {
	if f.character == nil {
		return
	}
	poll := f.Input
	if poll == nil {
		poll = KeyboardInput
	}
	in := poll()

	f.Yaw += in.LookDelta.X * f.LookSpeed
	f.Pitch -= in.LookDelta.Y * f.LookSpeed
	f.Pitch = max(-89, min(89, f.Pitch))

	forward, right := f.directions()
	move := rl.Vector3Add(rl.Vector3Scale(forward, in.Forward), rl.Vector3Scale(right, in.Right))
	if rl.Vector3Length(move) > 1 {
		move = rl.Vector3Normalize(move)
	}
	f.character.SetMoveVelocity(rl.Vector3Scale(move, f.MoveSpeed))
	if in.Jump {
		f.character.Jump()
	}
}

// directions returns the horizontal forward and right vectors for the
// current yaw.
func (f *FPSController) directions() (forward, right rl.Vector3) {
	yaw := float64(f.Yaw) * math.Pi / 180
	forward = rl.Vector3{X: float32(math.Cos(yaw)), Z: float32(math.Sin(yaw))}
	right = rl.Vector3{X: -float32(math.Sin(yaw)), Z: float32(math.Cos(yaw))}
	return
}

func (f *FPSController) LookDirection() rl.Vector3 {
	yaw := float64(f.Yaw) * math.Pi / 180
	pitch := float64(f.Pitch) * math.Pi / 180
	return rl.Vector3{
		X: float32(math.Cos(yaw) * math.Cos(pitch)),
		Y: float32(math.Sin(pitch)),
		Z: float32(math.Sin(yaw) * math.Cos(pitch)),
	}
}

// Eye is the world position the player looks from.
func (f *FPSController) Eye() rl.Vector3 {
	a := f.GetActor()
	if a == nil {
		return rl.Vector3{}
	}
	eye := a.WorldPosition()
	eye.Y += f.EyeHeight
	return eye
}
