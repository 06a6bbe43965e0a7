package game

import (
	"errors"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"physworld/internal/physics"
)

// Prefs holds viewer state saved between sessions.
type Prefs struct {
	WindowWidth  int `yaml:"window-width"`
	WindowHeight int `yaml:"window-height"`
	WindowX      int `yaml:"window-x"`
	WindowY      int `yaml:"window-y"`

	SpectatorPosition [3]float32 `yaml:"spectator-position"`
	SpectatorYaw      float32    `yaml:"spectator-yaw"`
	SpectatorPitch    float32    `yaml:"spectator-pitch"`
	SpectatorSpeed    float32    `yaml:"spectator-speed"`
	UseSpectator      bool       `yaml:"use-spectator"`

	ShowPanel bool `yaml:"show-panel"`
	// Debug overrides the config's debug toggles when set.
	Debug *physics.DebugConfig `yaml:"debug,omitempty"`
}

func DefaultPrefs() Prefs {
	return Prefs{
		WindowWidth:  1280,
		WindowHeight: 720,
		ShowPanel:    true,
	}
}

// LoadPrefs reads prefs from path. A missing file yields DefaultPrefs.
func LoadPrefs(path string) (Prefs, error) {
	prefs := DefaultPrefs()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("game: load prefs %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return DefaultPrefs(), fmt.Errorf("game: unmarshal %s: %w", path, err)
	}
	return prefs, nil
}

func SavePrefs(path string, prefs Prefs) error {
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("game: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("game: write %s: %w", path, err)
	}
	return nil
}

// capturePrefs records the current viewer state. Window geometry is left to
// the caller since it needs an open window.
func (g *Game) capturePrefs() Prefs {
	p := g.prefs
	pos := g.Spectator.Position
	p.SpectatorPosition = [3]float32{pos.X, pos.Y, pos.Z}
	p.SpectatorYaw = g.Spectator.Yaw
	p.SpectatorPitch = g.Spectator.Pitch
	p.SpectatorSpeed = g.Spectator.MoveSpeed
	p.UseSpectator = g.UseSpectator
	p.ShowPanel = g.ShowPanel
	debug := g.World.Physics().Config().Debug
	p.Debug = &debug
	return p
}

func (g *Game) applyPrefs(p Prefs) {
	g.prefs = p
	if p.SpectatorSpeed > 0 {
		g.Spectator.Position = rl.Vector3{X: p.SpectatorPosition[0], Y: p.SpectatorPosition[1], Z: p.SpectatorPosition[2]}
		g.Spectator.Yaw = p.SpectatorYaw
		g.Spectator.Pitch = p.SpectatorPitch
		g.Spectator.MoveSpeed = p.SpectatorSpeed
	}
	g.UseSpectator = p.UseSpectator
	g.ShowPanel = p.ShowPanel
	if p.Debug != nil {
		g.World.Physics().SetDebug(*p.Debug)
	}
}
