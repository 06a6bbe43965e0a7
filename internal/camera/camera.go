package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Input is one frame of spectator controls.
type Input struct {
	Forward   float32 // -1 back, 1 forward
	Right     float32 // -1 left, 1 right
	Up        float32 // -1 down, 1 up
	Fast      bool
	LookDelta rl.Vector2
}

// ReadInput polls WASD, Q/E, shift and the mouse from the raylib window.
func ReadInput() Input {
	var in Input
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
	if rl.IsKeyDown(rl.KeyE) {
		in.Up++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		in.Up--
	}
	in.Fast = rl.IsKeyDown(rl.KeyLeftShift)
	in.LookDelta = rl.GetMouseDelta()
	return in
}

// Spectator is a free-flying camera that ignores collision. The viewer
// switches to it to inspect the scene from outside the player.
type Spectator struct {
	Position  rl.Vector3
	Yaw       float32
	Pitch     float32
	MoveSpeed float32 // Units per second
	FastScale float32
	LookSpeed float32
	FOV       float32
}

func New(pos rl.Vector3) *Spectator {
	return &Spectator{
		Position:  pos,
		Yaw:       -135.0,
		Pitch:     -30.0,
		MoveSpeed: 8.0,
		FastScale: 4.0,
		LookSpeed: 0.1,
		FOV:       60,
	}
}

func (c *Spectator) Update(in Input, deltaTime float32) {
	c.Yaw += in.LookDelta.X * c.LookSpeed
	c.Pitch -= in.LookDelta.Y * c.LookSpeed
	c.Pitch = max(-89, min(89, c.Pitch))

	// Forward follows the full look direction so W flies where you look.
	forward := c.Forward()
	right := rl.Vector3Normalize(rl.Vector3CrossProduct(forward, rl.Vector3{Y: 1}))

	move := rl.Vector3Scale(forward, in.Forward)
	move = rl.Vector3Add(move, rl.Vector3Scale(right, in.Right))
	move.Y += in.Up
	if rl.Vector3Length(move) == 0 {
		return
	}
	speed := c.MoveSpeed
	if in.Fast {
		speed *= c.FastScale
	}
	move = rl.Vector3Scale(rl.Vector3Normalize(move), speed*deltaTime)
	c.Position = rl.Vector3Add(c.Position, move)
}

func (c *Spectator) Forward() rl.Vector3 {
	yawRad := float64(c.Yaw) * math.Pi / 180
	pitchRad := float64(c.Pitch) * math.Pi / 180
	return rl.Vector3{
		X: float32(math.Cos(yawRad) * math.Cos(pitchRad)),
		Y: float32(math.Sin(pitchRad)),
		Z: float32(math.Sin(yawRad) * math.Cos(pitchRad)),
	}
}

// LookAt points the camera at target without moving it.
func (c *Spectator) LookAt(target rl.Vector3) {
	dir := rl.Vector3Subtract(target, c.Position)
	if rl.Vector3Length(dir) == 0 {
		return
	}
	dir = rl.Vector3Normalize(dir)
	c.Yaw = float32(math.Atan2(float64(dir.Z), float64(dir.X)) * 180 / math.Pi)
	c.Pitch = float32(math.Asin(float64(dir.Y)) * 180 / math.Pi)
	c.Pitch = max(-89, min(89, c.Pitch))
}

func (c *Spectator) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   c.Position,
		Target:     rl.Vector3Add(c.Position, c.Forward()),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.FOV,
		Projection: rl.CameraPerspective,
	}
}
