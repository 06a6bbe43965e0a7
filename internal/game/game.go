package game

import (
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"physworld/internal/camera"
	"physworld/internal/collision"
	"physworld/internal/components"
	"physworld/internal/engine"
	"physworld/internal/physics"
	"physworld/internal/world"
)

// Options configure a viewer session.
type Options struct {
	Config      world.Config
	ScenePath   string // Overrides Config.Scene when set
	ModelPath   string // Optional model added as static level geometry
	ConvexModel bool
	PrefsPath   string
	Logger      *zap.Logger
}

// The player spawns at the actor with this name when the scene has one.
const playerStartName = "PlayerStart"

type Game struct {
	World     *world.World
	Player    *engine.Actor
	Spectator *camera.Spectator

	UseSpectator bool
	ShowPanel    bool

	// Input sources. Run swaps these for raylib polling.
	PlayerInput    func() components.PlayerInput
	SpectatorInput func() camera.Input
	FireInput      func() bool

	opts     Options
	logger   *zap.Logger
	watcher  *collision.Watcher
	prefs    Prefs
	launcher *components.Launcher
	models   []levelModel

	// Debug timing (ms)
	updateMs float64
	drawMs   float64
	subSteps int
}

type levelModel struct {
	model rl.Model
	actor *engine.Actor
}

// New builds the world, loads the scene and spawns the player. It does not
// open a window, so everything up to Run works headless.
func New(opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Game{
		World:          world.New(opts.Config, logger),
		ShowPanel:      true,
		PlayerInput:    func() components.PlayerInput { return components.PlayerInput{} },
		SpectatorInput: func() camera.Input { return camera.Input{} },
		FireInput:      func() bool { return false },
		opts:           opts,
		logger:         logger.Named("game"),
		prefs:          DefaultPrefs(),
	}

	scene := opts.ScenePath
	if scene == "" {
		scene = opts.Config.Scene
	}
	if scene != "" {
		if err := g.World.LoadScene(scene); err != nil {
			g.World.Close()
			return nil, err
		}
	}

	g.createPlayer()
	g.Spectator = camera.New(rl.Vector3Add(g.Player.WorldPosition(), rl.Vector3{X: 8, Y: 6, Z: 8}))
	g.Spectator.LookAt(g.Player.WorldPosition())

	if len(opts.Config.DescriptorDirs) > 0 {
		w, err := collision.NewWatcher(logger, opts.Config.DescriptorDirs...)
		if err != nil {
			g.logger.Warn("descriptor hot reload disabled", zap.Error(err))
		} else {
			g.watcher = w
		}
	}

	if opts.PrefsPath != "" {
		prefs, err := LoadPrefs(opts.PrefsPath)
		if err != nil {
			g.logger.Warn("prefs ignored", zap.Error(err))
		}
		g.applyPrefs(prefs)
	}
	return g, nil
}

func (g *Game) createPlayer() {
	spawn := rl.Vector3{Y: 2}
	if start := g.World.Scene.FindByName(playerStartName); start != nil {
		spawn = start.WorldPosition()
	}

	g.Player = engine.NewActor("Player")
	g.Player.Tags = []string{"Player"}
	g.Player.Transform.Position = spawn

	g.Player.AddComponent(components.NewCharacterController())

	fps := components.NewFPSController()
	fps.Input = g.playerInput
	g.Player.AddComponent(fps)

	cam := components.NewCamera()
	cam.IsMain = true
	g.Player.AddComponent(cam)

	g.launcher = components.NewLauncher()
	g.launcher.Trigger = g.fire
	g.Player.AddComponent(g.launcher)

	g.World.Spawn(g.Player)
}

// playerInput freezes the player while the spectator camera is flying.
func (g *Game) playerInput() components.PlayerInput {
	if g.UseSpectator {
		return components.PlayerInput{}
	}
	return g.PlayerInput()
}

func (g *Game) fire() bool {
	return !g.UseSpectator && g.FireInput()
}

func (g *Game) Run() {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable)
	rl.InitWindow(int32(g.prefs.WindowWidth), int32(g.prefs.WindowHeight), "physworld viewer")
	defer rl.CloseWindow()
	if g.prefs.WindowX != 0 || g.prefs.WindowY != 0 {
		rl.SetWindowPosition(g.prefs.WindowX, g.prefs.WindowY)
	}

	rl.SetTargetFPS(120)
	rl.DisableCursor()
	initStyle()
	defer g.unloadModels()

	// Mouse input belongs to the panel while the cursor is visible.
	g.PlayerInput = func() components.PlayerInput {
		in := components.KeyboardInput()
		if !rl.IsCursorHidden() {
			in.LookDelta = rl.Vector2{}
		}
		return in
	}
	g.SpectatorInput = func() camera.Input {
		in := camera.ReadInput()
		if !rl.IsCursorHidden() {
			in.LookDelta = rl.Vector2{}
		}
		return in
	}
	g.FireInput = func() bool {
		return rl.IsCursorHidden() && rl.IsMouseButtonDown(rl.MouseLeftButton)
	}

	if g.opts.ModelPath != "" {
		g.loadModel(g.opts.ModelPath, g.opts.ConvexModel)
	}

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
	g.savePrefs()
}

// loadModel adds a raylib model to the scene as static level geometry. It
// needs an open window.
func (g *Game) loadModel(path string, convex bool) {
	model := rl.LoadModel(path)
	if model.MeshCount == 0 {
		g.logger.Warn("model has no meshes", zap.String("path", path))
		rl.UnloadModel(model)
		return
	}
	a := engine.NewActor(filepath.Base(path))
	body := components.NewPhysicalBody()
	body.CollisionModel = components.ModelCollision(model, convex)
	a.AddComponent(body)
	g.World.Spawn(a)
	g.models = append(g.models, levelModel{model: model, actor: a})
	g.logger.Info("model loaded",
		zap.String("path", path),
		zap.Int32("meshes", model.MeshCount),
		zap.Bool("convex", convex))
}

func (g *Game) savePrefs() {
	if g.opts.PrefsPath == "" {
		return
	}
	prefs := g.capturePrefs()
	prefs.WindowWidth = rl.GetScreenWidth()
	prefs.WindowHeight = rl.GetScreenHeight()
	prefs.WindowX = int(rl.GetWindowPosition().X)
	prefs.WindowY = int(rl.GetWindowPosition().Y)
	if err := SavePrefs(g.opts.PrefsPath, prefs); err != nil {
		g.logger.Warn("prefs not saved", zap.Error(err))
	}
}

func (g *Game) Update() {
	if rl.IsKeyPressed(rl.KeyF1) {
		g.ShowPanel = !g.ShowPanel
	}
	if rl.IsKeyPressed(rl.KeyF2) {
		g.ToggleSpectator()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		if rl.IsCursorHidden() {
			rl.EnableCursor()
		} else {
			rl.DisableCursor()
		}
	}
	g.Step(rl.GetFrameTime())
}

// Step advances the viewer by dt without touching the window.
func (g *Game) Step(dt float32) {
	start := time.Now()
	g.drainReloads()
	if g.UseSpectator {
		g.Spectator.Update(g.SpectatorInput(), dt)
	}
	g.subSteps = g.World.Tick(dt)
	g.updateMs = float64(time.Since(start).Microseconds()) / 1000.0
}

// drainReloads applies every descriptor change the watcher has queued and
// returns how many it applied.
func (g *Game) drainReloads() int {
	if g.watcher == nil {
		return 0
	}
	var n int
	for {
		select {
		case r, ok := <-g.watcher.Events:
			if !ok {
				return n
			}
			g.World.ApplyReload(r)
			n++
		case err, ok := <-g.watcher.Errors:
			if !ok {
				return n
			}
			g.logger.Warn("descriptor reload failed", zap.Error(err))
		default:
			return n
		}
	}
}

// ToggleSpectator switches between the player camera and the free camera.
// The free camera starts where the player is looking from.
func (g *Game) ToggleSpectator() {
	if !g.UseSpectator {
		view := g.Camera()
		g.Spectator.Position = view.Position
		g.Spectator.LookAt(view.Target)
	}
	g.UseSpectator = !g.UseSpectator
}

func (g *Game) Camera() rl.Camera3D {
	if !g.UseSpectator {
		if cam := components.MainCamera(g.World.Scene); cam != nil {
			return cam.RaylibCamera()
		}
	}
	return g.Spectator.GetRaylibCamera()
}

func (g *Game) Draw() {
	drawStart := time.Now()
	view := g.Camera()

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(20, 20, 30, 255))

	rl.BeginMode3D(view)
	rl.DrawGrid(40, 1)
	for _, m := range g.models {
		rl.DrawModel(m.model, m.actor.WorldPosition(), 1, rl.LightGray)
	}
	g.World.Physics().DrawDebug(physics.RaylibDebugRenderer{})
	if g.UseSpectator {
		g.drawPlayer()
	} else if hit, ok := g.launcher.Target(); ok {
		rl.DrawSphere(hit.Point, 0.05, rl.Red)
	}
	rl.EndMode3D()

	if !g.UseSpectator {
		rl.DrawCircle(int32(rl.GetScreenWidth()/2), int32(rl.GetScreenHeight()/2), 3, rl.White)
	}
	g.drawMs = float64(time.Since(drawStart).Microseconds()) / 1000.0

	g.DrawUI()
	rl.EndDrawing()
}

// drawPlayer outlines the player capsule for the spectator camera.
func (g *Game) drawPlayer() {
	c := engine.GetComponent[*components.CharacterController](g.Player)
	if c == nil {
		return
	}
	pos := g.Player.WorldPosition()
	half := c.Height/2 - c.Radius
	bottom := rl.Vector3{X: pos.X, Y: pos.Y - half, Z: pos.Z}
	top := rl.Vector3{X: pos.X, Y: pos.Y + half, Z: pos.Z}
	color := rl.SkyBlue
	if c.IsGrounded() {
		color = rl.Lime
	}
	rl.DrawCapsuleWires(bottom, top, c.Radius, 8, 4, color)
}

func (g *Game) Close() {
	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil {
			g.logger.Warn("watcher close", zap.Error(err))
		}
		g.watcher = nil
	}
	g.World.Close()
}

// unloadModels frees model GPU data. It must run before the window closes.
// The level actors stay in the world.
func (g *Game) unloadModels() {
	for _, m := range g.models {
		rl.UnloadModel(m.model)
	}
	g.models = nil
}
