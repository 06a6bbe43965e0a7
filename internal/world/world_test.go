package world

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"physworld/internal/collision"
	"physworld/internal/components"
	"physworld/internal/engine"
	"physworld/internal/physics"
)

const testStep = 1.0 / 60

const testScene = `
actors:
  - name: floor
    guid: 6f1c2a4e-3b7d-4c1e-9a55-0d2f6b8e7c11
    position: [0, -0.5, 0]
    components:
      - type: PhysicalBody
        props:
          collision:
            bodies:
              - kind: box
                half_extents: [10, 0.5, 10]
  - name: ball
    tags: [dynamic]
    position: [0, 2, 0]
    components:
      - type: PhysicalBody
        props:
          motion: dynamic
          mass: 2
          collision:
            bodies:
              - kind: sphere
                radius: 0.5
      - type: Teapot
  - name: zone
    position: [0, 5, 0]
    components:
      - type: PhysicalBody
        props:
          trigger: true
          collision:
            bodies:
              - kind: box
                half_extents: [1, 1, 1]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w := New(DefaultConfig(), zaptest.NewLogger(t))
	t.Cleanup(w.Close)
	return w
}

func loadTestScene(t *testing.T) *World {
	t.Helper()
	w := newTestWorld(t)
	require.NoError(t, w.LoadScene(writeFile(t, "scene.yaml", testScene)))
	return w
}

func tick(w *World, frames int) {
	for i := 0; i < frames; i++ {
		w.Tick(testStep)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "world.toml", `
scene = "scenes/demo.yaml"
descriptor-dirs = ["assets/collision"]

[physics]
tick-rate = 120

[physics.debug]
draw-contact-points = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "scenes/demo.yaml", cfg.Scene)
	assert.Equal(t, []string{"assets/collision"}, cfg.DescriptorDirs)
	assert.Equal(t, 120.0, cfg.Physics.TickRate)
	assert.True(t, cfg.Physics.Debug.DrawContactPoints)
	assert.Equal(t, physics.DefaultConfig().Gravity, cfg.Physics.Gravity)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "world.toml", "scene = \"a\"\nfps = 30\n"))
	var unknown physics.ErrUnknownConfig
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, physics.ErrUnknownConfig{"fps"}, unknown)

	_, err = LoadConfig(writeFile(t, "world.toml", "[physics]\ntick-rate = 0\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSceneSimulates(t *testing.T) {
	w := loadTestScene(t)
	require.Len(t, w.Scene.Actors, 3)

	ball := w.Scene.FindByName("ball")
	require.NotNil(t, ball)
	assert.Equal(t, []string{"dynamic"}, ball.Tags)
	assert.Len(t, ball.Components(), 1)
	body := engine.GetComponent[*components.PhysicalBody](ball)
	require.NotNil(t, body)
	assert.Equal(t, components.MotionDynamic, body.MotionBehavior)

	var begins int
	ball.Contacts.OnBeginContact.AddListener(func(engine.ContactEvent) { begins++ })
	tick(w, 180)

	assert.Equal(t, 1, begins)
	assert.InDelta(t, 0.5, ball.WorldPosition().Y, 0.05)
}

func TestLoadSceneErrors(t *testing.T) {
	w := newTestWorld(t)
	assert.Error(t, w.LoadScene(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, w.LoadScene(writeFile(t, "bad.yaml", "actors:\n  - name: a\n    colour: red\n")))
	assert.Error(t, w.LoadScene(writeFile(t, "guid.yaml", "actors:\n  - name: a\n    guid: nope\n")))
	assert.Empty(t, w.Scene.Actors)
}

func TestSaveSceneRoundTrip(t *testing.T) {
	w := loadTestScene(t)
	floor := w.Scene.FindByName("floor")
	child := engine.NewActor("lamp")
	child.Transform.Position = rl.Vector3{Y: 3}
	floor.AddChild(child)
	w.Spawn(child)
	shot := engine.NewActor("Shot_1")
	shot.Tags = []string{"projectile"}
	w.Spawn(shot)

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, w.SaveScene(path))

	again := newTestWorld(t)
	require.NoError(t, again.LoadScene(path))
	assert.Len(t, again.Scene.Actors, 4)
	assert.Nil(t, again.Scene.FindByName("Shot_1"))

	loadedFloor := again.Scene.FindByGUID(floor.GUID)
	require.NotNil(t, loadedFloor)
	require.Len(t, loadedFloor.Children, 1)
	assert.Equal(t, "lamp", loadedFloor.Children[0].Name)

	ball := again.Scene.FindByName("ball")
	body := engine.GetComponent[*components.PhysicalBody](ball)
	require.NotNil(t, body)
	assert.Equal(t, float32(2), body.Mass)
	require.NotNil(t, body.CollisionModel)
	assert.Equal(t, 0.5, body.CollisionModel.Bodies[0].Radius)
}

func TestRaycast(t *testing.T) {
	w := loadTestScene(t)
	tick(w, 1)

	// Straight down through the trigger zone onto the floor, left of the ball.
	hit, ok := w.Raycast(rl.Vector3{X: 0.75, Y: 10}, rl.Vector3{Y: -3}, 100)
	require.True(t, ok)
	assert.Equal(t, "floor", hit.Actor.Name)
	assert.InDelta(t, 0, hit.Point.Y, 1e-3)
	assert.InDelta(t, 10, hit.Distance, 1e-3)
	assert.InDelta(t, 1, hit.Normal.Y, 1e-3)
	_, isBody := hit.Body.(*components.PhysicalBody)
	assert.True(t, isBody)

	_, ok = w.Raycast(rl.Vector3{X: 0.75, Y: 10}, rl.Vector3{Y: -1}, 5)
	assert.False(t, ok)
	_, ok = w.Raycast(rl.Vector3{}, rl.Vector3{}, 100)
	assert.False(t, ok)
}

func TestDestroyRemovesActorAndBody(t *testing.T) {
	w := loadTestScene(t)
	tick(w, 1)
	objects := w.Physics().Dynamics().NumCollisionObjects()

	ball := w.Scene.FindByName("ball")
	w.Destroy(ball)
	tick(w, 1)

	assert.Nil(t, w.Scene.FindByName("ball"))
	assert.Equal(t, objects-1, w.Physics().Dynamics().NumCollisionObjects())
}

func TestCloseEmptiesWorld(t *testing.T) {
	w := New(DefaultConfig(), nil)
	require.NoError(t, w.LoadScene(writeFile(t, "scene.yaml", testScene)))
	tick(w, 1)

	w.Close()

	assert.Empty(t, w.Scene.Actors)
	assert.Zero(t, w.Physics().Dynamics().NumCollisionObjects())
}

func TestApplyReload(t *testing.T) {
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "crate.yaml")
	require.NoError(t, os.WriteFile(descriptor, []byte("bodies:\n  - kind: box\n    half_extents: [0.5, 0.5, 0.5]\n"), 0o644))
	scene := writeFile(t, "scene.yaml", `
actors:
  - name: crate
    components:
      - type: PhysicalBody
        props:
          descriptor: `+descriptor+`
  - name: other
    components:
      - type: PhysicalBody
        props:
          collision:
            bodies:
              - kind: sphere
                radius: 1
`)
	w := newTestWorld(t)
	require.NoError(t, w.LoadScene(scene))
	tick(w, 1)

	crate := engine.GetComponent[*components.PhysicalBody](w.Scene.FindByName("crate"))
	require.NotNil(t, crate)
	before := crate.HitProxy()

	bigger := &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindBox, HalfExtents: [3]float64{2, 2, 2}}}}
	assert.Equal(t, 1, w.ApplyReload(collision.Reload{Path: descriptor, Composition: bigger}))
	assert.Same(t, bigger, crate.CollisionModel)
	assert.NotSame(t, before, crate.HitProxy())

	assert.Zero(t, w.ApplyReload(collision.Reload{Path: filepath.Join(dir, "other.yaml"), Composition: bigger}))
}

func TestDemoSceneLoads(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir("../.."))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := LoadConfig("assets/world.toml")
	require.NoError(t, err)
	w := New(cfg, zaptest.NewLogger(t))
	t.Cleanup(w.Close)
	require.NoError(t, w.LoadScene(cfg.Scene))
	tick(w, 60)

	var bodies int
	for _, a := range w.Scene.Actors {
		body := engine.GetComponent[*components.PhysicalBody](a)
		if body == nil {
			continue
		}
		bodies++
		require.NotNil(t, body.HitProxy(), a.Name)
		assert.True(t, body.HitProxy().InWorld(), a.Name)
	}
	assert.Equal(t, 14, bodies)

	stairs := w.Scene.FindByName("step_3")
	require.NotNil(t, stairs)
	assert.InDelta(t, 0.75, stairs.WorldPosition().Y, 1e-5)
	assert.InDelta(t, -6, stairs.WorldPosition().Z, 1e-5)
}
