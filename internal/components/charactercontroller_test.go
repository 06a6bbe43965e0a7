package components

import (
	"math"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physworld/internal/engine"
	"physworld/internal/physics"
)

// scriptedTracer replays hits in order and misses once they run out.
type scriptedTracer struct {
	hits  []CharacterControllerTrace
	calls int
}

func (s *scriptedTracer) TraceSelf(start, end rl.Vector3) CharacterControllerTrace {
	s.calls++
	if len(s.hits) == 0 {
		return CharacterControllerTrace{Position: end, Fraction: 1}
	}
	hit := s.hits[0]
	s.hits = s.hits[1:]
	return hit
}

func assertVec(t *testing.T, want, got rl.Vector3, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestClipVelocity(t *testing.T) {
	up := rl.Vector3{Y: 1}
	assertVec(t, rl.Vector3{X: 1}, ClipVelocity(rl.Vector3{X: 1, Y: -1}, up, 1), 1e-6)
	assertVec(t, rl.Vector3{X: 2, Z: 3}, ClipVelocity(rl.Vector3{X: 2, Z: 3}, up, 1), 1e-6)

	// Overbounce pushes the result slightly away from the plane.
	clipped := ClipVelocity(rl.Vector3{X: 1, Y: -1}, up, overbounce)
	assert.Greater(t, clipped.Y, float32(0))
}

func TestSlideMoveUnobstructed(t *testing.T) {
	tracer := &scriptedTracer{}
	start := rl.Vector3{X: 1, Y: 2, Z: 3}
	res := slideMove(tracer, start, rl.Vector3{X: 2, Z: -1}, 0.5)

	assertVec(t, rl.Vector3{X: 2, Y: 2, Z: 2.5}, res.FinalPos, 1e-6)
	assertVec(t, rl.Vector3{X: 2, Z: -1}, res.FinalVel, 1e-6)
	assert.False(t, res.Clipped)
	assert.Equal(t, 1, tracer.calls)
}

func TestSlideMoveAlongWall(t *testing.T) {
	wall := rl.Vector3{Z: -1}
	tracer := &scriptedTracer{hits: []CharacterControllerTrace{
		{Position: rl.Vector3{X: 0.5, Z: 0.5}, Normal: wall, Fraction: 0.5},
	}}
	res := slideMove(tracer, rl.Vector3{}, rl.Vector3{X: 1, Z: 1}, 1)

	assert.True(t, res.Clipped)
	assertVec(t, rl.Vector3{X: 1}, res.FinalVel, 1e-3)
	assertVec(t, rl.Vector3{X: 1, Z: 0.5}, res.FinalPos, 1e-3)
	assert.Equal(t, 2, tracer.calls)
}

func TestSlideMoveIntoCrease(t *testing.T) {
	s := float32(1 / math.Sqrt2)
	left := rl.Vector3{X: s, Z: -s}
	right := rl.Vector3{X: -s, Z: -s}
	tracer := &scriptedTracer{hits: []CharacterControllerTrace{
		{Position: rl.Vector3{Z: 0.5}, Normal: left, Fraction: 0.5},
		{Position: rl.Vector3{Z: 0.5}, Normal: right, Fraction: 0},
	}}
	res := slideMove(tracer, rl.Vector3{}, rl.Vector3{Y: 1, Z: 1}, 1)

	assert.True(t, res.Clipped)
	// Only the motion along the crease survives.
	assertVec(t, rl.Vector3{Y: 1}, res.FinalVel, 1e-3)
	assertVec(t, rl.Vector3{Y: 0.5, Z: 0.5}, res.FinalPos, 1e-3)
}

func TestSlideMoveHeadOnStops(t *testing.T) {
	tracer := &scriptedTracer{hits: []CharacterControllerTrace{
		{Normal: rl.Vector3{Z: -1}, Fraction: 0},
	}}
	res := slideMove(tracer, rl.Vector3{}, rl.Vector3{Z: 1}, 1)

	assert.True(t, res.Clipped)
	assert.Equal(t, rl.Vector3{}, res.FinalVel)
	assert.Equal(t, rl.Vector3{}, res.FinalPos)
}

func TestSlideMoveGivesUpAfterIterations(t *testing.T) {
	var hits []CharacterControllerTrace
	for i := 0; i < slideMoveIterations+2; i++ {
		hits = append(hits, CharacterControllerTrace{Normal: rl.Vector3{Y: 1}, Fraction: 0})
	}
	tracer := &scriptedTracer{hits: hits}
	slideMove(tracer, rl.Vector3{}, rl.Vector3{X: 1, Y: -1}, 1)

	assert.LessOrEqual(t, tracer.calls, slideMoveIterations)
}

func addCharacter(scene *engine.Scene, pos rl.Vector3) *CharacterController {
	a := engine.NewActor("player")
	a.Transform.Position = pos
	c := NewCharacterController()
	a.AddComponent(c)
	scene.AddActor(a)
	return c
}

func TestCharacterLandsOnFloor(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)
	c := addCharacter(scene, rl.Vector3{Y: 2})

	step(scene, p, 60)

	assert.True(t, c.IsGrounded())
	assert.InDelta(t, 0.9, c.GetActor().WorldPosition().Y, 0.02)
	assert.Equal(t, float32(0), c.Velocity().Y)
	assert.Equal(t, physics.CollisionGroupCharacter, c.HitProxy().CollisionGroup)
}

func TestCharacterBlockedByWall(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)
	addStaticBox(scene, "wall", rl.Vector3{X: 2, Y: 2}, mgl64.Vec3{0.5, 2, 5})
	c := addCharacter(scene, rl.Vector3{Y: 0.91})

	step(scene, p, 10)
	c.SetMoveVelocity(rl.Vector3{X: 3, Y: 5})
	step(scene, p, 60)

	pos := c.GetActor().WorldPosition()
	assert.InDelta(t, 1.1, pos.X, 0.02)
	assert.InDelta(t, 0.9, pos.Y, 0.02)
	assert.True(t, c.IsGrounded())
}

func TestCharacterJump(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)
	c := addCharacter(scene, rl.Vector3{Y: 0.91})
	step(scene, p, 10)
	require.True(t, c.IsGrounded())

	c.Jump()
	step(scene, p, 5)

	assert.False(t, c.IsGrounded())
	assert.Greater(t, c.GetActor().WorldPosition().Y, float32(1))
}

func TestCharacterIgnoresTriggers(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)
	zone := addStaticBox(scene, "zone", rl.Vector3{X: 2, Y: 1}, mgl64.Vec3{0.5, 1, 5})
	zone.Trigger = true
	c := addCharacter(scene, rl.Vector3{Y: 0.91})

	step(scene, p, 10)
	c.SetMoveVelocity(rl.Vector3{X: 3})
	step(scene, p, 60)

	assert.Greater(t, c.GetActor().WorldPosition().X, float32(2.5))
}

func TestRecoverFromPenetration(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)
	c := addCharacter(scene, rl.Vector3{Y: 0.7})
	c.UseGravity = false
	scene.Start()
	p.AddPendingBodies()
	require.True(t, c.HitProxy().InWorld())

	before := c.ghost.WorldTransform().Origin[1]
	// A few iterations only remove part of the overlap.
	assert.True(t, c.RecoverFromPenetration(2))
	after := c.ghost.WorldTransform().Origin[1]
	assert.Greater(t, after, before)

	for i := 0; i < 20; i++ {
		c.RecoverFromPenetration(4)
	}
	assert.InDelta(t, 0.9-float64(c.MaxPenetrationDepth), c.ghost.WorldTransform().Origin[1], 0.02)
}

func TestCharacterControllerDeserialize(t *testing.T) {
	c := engine.CreateComponent("CharacterController", map[string]any{
		"height":            2.0,
		"radius":            0.5,
		"useCylinder":       true,
		"recoverIterations": 8,
	}).(*CharacterController)

	assert.Equal(t, float32(2), c.Height)
	assert.Equal(t, float32(0.5), c.Radius)
	assert.True(t, c.UseCylinder)
	assert.Equal(t, 8, c.RecoverIterations)
	assert.Equal(t, float32(0.4), c.StepHeight)

	body := c.shapeBody()
	assert.Equal(t, 2.0, body.Height)

	c.UseCylinder = false
	assert.InDelta(t, 1.0, c.shapeBody().Height, 1e-6)
}
