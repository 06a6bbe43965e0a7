package components

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physworld/internal/collision"
	"physworld/internal/engine"
	"physworld/internal/physics"
)

func TestMotionBehaviorNames(t *testing.T) {
	for _, m := range []MotionBehavior{MotionStatic, MotionDynamic, MotionKinematic} {
		got, err := ParseMotionBehavior(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMotionBehavior("floating")
	assert.Error(t, err)
	assert.Equal(t, "MotionBehavior(7)", MotionBehavior(7).String())
}

func TestPhysicalBodyFallsOntoFloor(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)

	ball := engine.NewActor("ball")
	ball.Transform.Position = rl.Vector3{Y: 2}
	body := NewPhysicalBody()
	body.MotionBehavior = MotionDynamic
	body.CollisionModel = &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindSphere, Radius: 0.5}}}
	ball.AddComponent(body)
	scene.AddActor(ball)

	var begins int
	ball.Contacts.OnBeginContact.AddListener(func(engine.ContactEvent) { begins++ })

	step(scene, p, 180)

	assert.Equal(t, 1, begins)
	assert.InDelta(t, 0.5, ball.WorldPosition().Y, 0.05)
	assert.Equal(t, physics.CollisionGroupDefault, body.HitProxy().CollisionGroup)
}

func TestPhysicalBodyGroupFromMotion(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *PhysicalBody)
		want  int
	}{
		{"static", func(b *PhysicalBody) {}, physics.CollisionGroupStatic},
		{"dynamic", func(b *PhysicalBody) { b.MotionBehavior = MotionDynamic }, physics.CollisionGroupDefault},
		{"kinematic", func(b *PhysicalBody) { b.MotionBehavior = MotionKinematic }, physics.CollisionGroupKinematic},
		{"trigger", func(b *PhysicalBody) { b.Trigger = true }, physics.CollisionGroupTrigger},
		{"explicit", func(b *PhysicalBody) { b.CollisionGroup = physics.CollisionGroupDebris }, physics.CollisionGroupDebris},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewPhysicalBody()
			tt.setup(b)
			assert.Equal(t, tt.want, b.collisionGroup())
		})
	}
}

func TestKinematicBodyFollowsActor(t *testing.T) {
	scene, p := newTestScene(t)
	a := engine.NewActor("platform")
	body := NewPhysicalBody()
	body.MotionBehavior = MotionKinematic
	body.CollisionModel = boxModel([3]float64{1, 0.1, 1})
	a.AddComponent(body)
	scene.AddActor(a)

	step(scene, p, 1)
	a.Transform.Position = rl.Vector3{X: 1}
	p.Simulate(1.5 * testStep)

	origin := body.RigidBody().WorldTransform().Origin
	assert.InDelta(t, 1, origin[0], 1e-6)
	assert.Greater(t, body.LinearVelocity().X, float32(0))
}

func TestPhysicalBodyDestroyRemovesProxy(t *testing.T) {
	scene, p := newTestScene(t)
	floor := addFloor(scene)
	step(scene, p, 1)
	require.True(t, floor.HitProxy().InWorld())
	before := p.Dynamics().NumCollisionObjects()

	floor.GetActor().Destroy()
	scene.ReapPendingKill()

	assert.False(t, floor.HitProxy().InWorld())
	assert.Equal(t, before-1, p.Dynamics().NumCollisionObjects())
}

func TestPhysicalBodyWithoutModelStaysOut(t *testing.T) {
	scene, p := newTestScene(t)
	a := engine.NewActor("empty")
	body := NewPhysicalBody()
	a.AddComponent(body)
	scene.AddActor(a)

	step(scene, p, 1)

	assert.Nil(t, body.HitProxy())
	assert.Equal(t, 0, p.Dynamics().NumCollisionObjects())
}

func TestPhysicalBodyRegistryRoundTrip(t *testing.T) {
	props := map[string]any{
		"motion":         "dynamic",
		"mass":           2.5,
		"trigger":        true,
		"collisionGroup": 4,
		"collision": map[string]any{
			"bodies": []any{
				map[string]any{"kind": "sphere", "radius": 0.5},
			},
		},
	}
	c := engine.CreateComponent("PhysicalBody", props)
	body, ok := c.(*PhysicalBody)
	require.True(t, ok)
	assert.Equal(t, MotionDynamic, body.MotionBehavior)
	assert.Equal(t, float32(2.5), body.Mass)
	assert.True(t, body.Trigger)
	assert.Equal(t, 4, body.CollisionGroup)
	require.NotNil(t, body.CollisionModel)
	require.Len(t, body.CollisionModel.Bodies, 1)
	assert.Equal(t, collision.KindSphere, body.CollisionModel.Bodies[0].Kind)

	name, out, ok := engine.SerializeComponent(body)
	require.True(t, ok)
	assert.Equal(t, "PhysicalBody", name)
	assert.Equal(t, "dynamic", out["motion"])
	assert.Contains(t, out, "collision")

	again := engine.CreateComponent(name, out).(*PhysicalBody)
	assert.Equal(t, body.CollisionModel.Bodies[0].Radius, again.CollisionModel.Bodies[0].Radius)
}

func TestPhysicalBodyBadCollisionKeepsDefaults(t *testing.T) {
	c := engine.CreateComponent("PhysicalBody", map[string]any{
		"collision": map[string]any{"bodies": []any{map[string]any{"kind": "teapot"}}},
	})
	body := c.(*PhysicalBody)
	assert.Nil(t, body.CollisionModel)
	assert.Equal(t, MotionStatic, body.MotionBehavior)
}

func TestSetCollisionModelRebuildsBody(t *testing.T) {
	scene, p := newTestScene(t)
	addFloor(scene)

	ball := engine.NewActor("ball")
	ball.Transform.Position = rl.Vector3{Y: 2}
	body := NewPhysicalBody()
	body.MotionBehavior = MotionDynamic
	body.CollisionModel = &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindSphere, Radius: 0.5}}}
	ball.AddComponent(body)
	scene.AddActor(ball)
	step(scene, p, 120)
	require.InDelta(t, 0.5, ball.WorldPosition().Y, 0.05)

	other := engine.NewActor("other")
	body.AddToIgnoreList(other)
	old := body.HitProxy()

	ball.SetWorldPosition(rl.Vector3{Y: 2})
	body.SetCollisionModel(&collision.Composition{Bodies: []collision.Body{{Kind: collision.KindSphere, Radius: 1}}})
	require.NotSame(t, old, body.HitProxy())
	assert.True(t, body.HitProxy().IsIgnored(other))
	step(scene, p, 120)

	assert.InDelta(t, 1, ball.WorldPosition().Y, 0.05)
	assert.Equal(t, 2, p.Dynamics().NumCollisionObjects())
}

func TestSetCollisionModelBeforeStart(t *testing.T) {
	body := NewPhysicalBody()
	model := boxModel([3]float64{1, 1, 1})
	body.SetCollisionModel(model)
	assert.Same(t, model, body.CollisionModel)
	assert.Nil(t, body.HitProxy())
}
