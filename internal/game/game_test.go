package game

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"physworld/internal/camera"
	"physworld/internal/components"
	"physworld/internal/engine"
	"physworld/internal/world"
)

const testStep = 1.0 / 60

const testScene = `
actors:
  - name: floor
    position: [0, -0.5, 0]
    components:
      - type: PhysicalBody
        props:
          collision:
            bodies:
              - kind: box
                half_extents: [20, 0.5, 20]
  - name: PlayerStart
    position: [3, 1, -2]
  - name: crate
    position: [0, 0.5, 5]
    components:
      - type: PhysicalBody
        props:
          descriptor: %s
`

const crateDescriptor = "bodies:\n  - kind: box\n    half_extents: [0.5, 0.5, 0.5]\n"

// newTestGame writes a scene and a crate descriptor to a temp dir and builds
// a game over them with hot reload watching that dir.
func newTestGame(t *testing.T) (*Game, string) {
	t.Helper()
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "crate.yaml")
	require.NoError(t, os.WriteFile(descriptor, []byte(crateDescriptor), 0o644))
	scene := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scene, []byte(fmt.Sprintf(testScene, descriptor)), 0o644))

	cfg := world.DefaultConfig()
	cfg.DescriptorDirs = []string{dir}
	g, err := New(Options{Config: cfg, ScenePath: scene, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g, descriptor
}

func TestNewSpawnsPlayerAtStart(t *testing.T) {
	g, _ := newTestGame(t)

	require.NotNil(t, g.Player)
	assert.True(t, g.Player.HasTag("Player"))
	assert.Equal(t, rl.Vector3{X: 3, Y: 1, Z: -2}, g.Player.WorldPosition())
	assert.NotNil(t, engine.GetComponent[*components.CharacterController](g.Player))
	assert.NotNil(t, engine.GetComponent[*components.FPSController](g.Player))
	assert.NotNil(t, engine.GetComponent[*components.Launcher](g.Player))
	assert.Same(t, engine.GetComponent[*components.Camera](g.Player), components.MainCamera(g.World.Scene))
}

func TestNewFailsOnBadScene(t *testing.T) {
	_, err := New(Options{Config: world.DefaultConfig(), ScenePath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestStepMovesPlayerWithInput(t *testing.T) {
	g, _ := newTestGame(t)
	for i := 0; i < 30; i++ {
		g.Step(testStep)
	}
	require.True(t, g.Stats().Grounded)
	start := g.Player.WorldPosition()

	g.PlayerInput = func() components.PlayerInput { return components.PlayerInput{Right: 1} }
	for i := 0; i < 30; i++ {
		g.Step(testStep)
	}
	assert.Greater(t, rl.Vector3Distance(start, g.Player.WorldPosition()), float32(1))
}

func TestSpectatorFreezesPlayer(t *testing.T) {
	g, _ := newTestGame(t)
	for i := 0; i < 30; i++ {
		g.Step(testStep)
	}
	before := g.Camera()

	g.ToggleSpectator()
	require.True(t, g.UseSpectator)
	assert.Equal(t, before.Position, g.Camera().Position)

	g.PlayerInput = func() components.PlayerInput { return components.PlayerInput{Forward: 1} }
	g.FireInput = func() bool { return true }
	g.SpectatorInput = func() camera.Input { return camera.Input{Up: 1} }
	start := g.Player.WorldPosition()
	for i := 0; i < 30; i++ {
		g.Step(testStep)
	}

	assert.InDelta(t, start.X, g.Player.WorldPosition().X, 1e-3)
	assert.InDelta(t, start.Z, g.Player.WorldPosition().Z, 1e-3)
	assert.Zero(t, g.Stats().Projectiles)
	assert.Greater(t, g.Camera().Position.Y, before.Position.Y+1)

	g.ToggleSpectator()
	assert.Equal(t, g.Player.WorldPosition().X, g.Camera().Position.X)
}

func TestFireSpawnsProjectiles(t *testing.T) {
	g, _ := newTestGame(t)
	g.FireInput = func() bool { return true }
	for i := 0; i < 10; i++ {
		g.Step(testStep)
	}
	assert.Positive(t, g.Stats().Projectiles)
}

func TestDescriptorHotReload(t *testing.T) {
	g, descriptor := newTestGame(t)
	g.Step(testStep)
	crate := engine.GetComponent[*components.PhysicalBody](g.World.Scene.FindByName("crate"))
	require.NotNil(t, crate)
	before := crate.CollisionModel

	require.NoError(t, os.WriteFile(descriptor, []byte("bodies:\n  - kind: sphere\n    radius: 0.75\n"), 0o644))

	require.Eventually(t, func() bool { return g.drainReloads() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.NotSame(t, before, crate.CollisionModel)
	assert.Equal(t, 0.75, crate.CollisionModel.Bodies[0].Radius)
}

func TestPrefsRoundTrip(t *testing.T) {
	g, _ := newTestGame(t)
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	g.Spectator.Position = rl.Vector3{X: 1, Y: 2, Z: 3}
	g.Spectator.MoveSpeed = 12
	g.UseSpectator = true
	g.ShowPanel = false
	debug := g.World.Physics().Config().Debug
	debug.DrawAABBs = true
	g.World.Physics().SetDebug(debug)
	require.NoError(t, SavePrefs(path, g.capturePrefs()))

	prefs, err := LoadPrefs(path)
	require.NoError(t, err)
	other, _ := newTestGame(t)
	other.applyPrefs(prefs)

	assert.Equal(t, rl.Vector3{X: 1, Y: 2, Z: 3}, other.Spectator.Position)
	assert.Equal(t, float32(12), other.Spectator.MoveSpeed)
	assert.True(t, other.UseSpectator)
	assert.False(t, other.ShowPanel)
	assert.True(t, other.World.Physics().Config().Debug.DrawAABBs)
}

func TestLoadPrefsMissingAndBad(t *testing.T) {
	prefs, err := LoadPrefs(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefs(), prefs)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("window-width: [1, 2]\n"), 0o644))
	prefs, err = LoadPrefs(bad)
	assert.Error(t, err)
	assert.Equal(t, DefaultPrefs(), prefs)
}
