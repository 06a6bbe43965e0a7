package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"physworld/internal/components"
	"physworld/internal/engine"
)

// Dark theme with an indigo accent
var (
	colorBgDark    = rl.NewColor(10, 10, 15, 255)
	colorBgElement = rl.NewColor(28, 28, 38, 255)
	colorBgHover   = rl.NewColor(38, 38, 52, 255)
	colorAccent    = rl.NewColor(108, 99, 255, 255)

	colorTextPrimary   = rl.NewColor(255, 255, 255, 255)
	colorTextSecondary = rl.NewColor(200, 200, 208, 255)
	colorTextMuted     = rl.NewColor(119, 119, 119, 255)
)

const panelWidth = 230

func initStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(colorBgDark))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(colorBgElement))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(colorBgHover))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(colorAccent))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(colorTextSecondary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(colorTextPrimary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(colorTextPrimary))

	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(50, 50, 65, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(colorAccent))
	gui.SetStyle(gui.DEFAULT, gui.LINE_COLOR, gui.NewColorPropertyValue(rl.NewColor(40, 40, 55, 255)))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}

// Stats is a snapshot of what the panel shows.
type Stats struct {
	Actors      int
	Bodies      int
	Pending     int
	Projectiles int
	SubSteps    int
	Grounded    bool
	Score       float32
}

func (g *Game) Stats() Stats {
	p := g.World.Physics()
	s := Stats{
		Actors:      len(g.World.Scene.Actors),
		Bodies:      p.Dynamics().NumCollisionObjects(),
		Pending:     p.PendingCount(),
		Projectiles: len(g.World.Scene.FindByTag("projectile")),
		SubSteps:    g.subSteps,
	}
	if c := engine.GetComponent[*components.CharacterController](g.Player); c != nil {
		s.Grounded = c.IsGrounded()
	}
	for _, a := range g.World.Scene.Actors {
		if score := engine.GetComponent[*components.Score](a); score != nil {
			s.Score += score.Total
		}
	}
	return s
}

func (g *Game) DrawUI() {
	rl.DrawText("WASD move, Space jump, Mouse look, LMB shoot", 10, 10, 20, colorTextMuted)
	rl.DrawText("F1 panel, F2 spectator, Tab cursor", 10, 35, 20, colorTextMuted)
	rl.DrawFPS(10, 60)

	if !g.ShowPanel {
		return
	}

	x := float32(rl.GetScreenWidth()) - panelWidth - 10
	gui.GroupBox(rl.Rectangle{X: x, Y: 10, Width: panelWidth, Height: 330}, "Physics")

	y := float32(24)
	check := func(text string, value bool) bool {
		v := gui.CheckBox(rl.Rectangle{X: x + 10, Y: y, Width: 16, Height: 16}, text, value)
		y += 24
		return v
	}

	p := g.World.Physics()
	debug := p.Config().Debug
	debug.DrawCollisionShapes = check("Collision shapes", debug.DrawCollisionShapes)
	debug.DrawAABBs = check("Bounding boxes", debug.DrawAABBs)
	debug.DrawContactPoints = check("Contact points", debug.DrawContactPoints)
	debug.DrawCenterOfMass = check("Centers of mass", debug.DrawCenterOfMass)
	p.SetDebug(debug)
	p.SetNoSimulation(check("Pause simulation", p.Config().NoSimulation))

	speed := g.Spectator.MoveSpeed
	g.Spectator.MoveSpeed = gui.Slider(rl.Rectangle{X: x + 60, Y: y, Width: panelWidth - 110, Height: 16},
		"Fly", fmt.Sprintf("%.0f", speed), speed, 1, 50)
	y += 30

	s := g.Stats()
	lines := []string{
		fmt.Sprintf("Actors:      %d", s.Actors),
		fmt.Sprintf("Bodies:      %d (%d pending)", s.Bodies, s.Pending),
		fmt.Sprintf("Projectiles: %d", s.Projectiles),
		fmt.Sprintf("Sub-steps:   %d", s.SubSteps),
		fmt.Sprintf("Grounded:    %v", s.Grounded),
		fmt.Sprintf("Score:       %.0f", s.Score),
		fmt.Sprintf("Update:      %.2f ms", g.updateMs),
		fmt.Sprintf("Draw:        %.2f ms", g.drawMs),
	}
	for _, line := range lines {
		rl.DrawText(line, int32(x+10), int32(y), 16, colorTextSecondary)
		y += 18
	}
}
