// Stress test for the physics world: drops a growing number of dynamic bodies
// onto a floor and reports tick times and contact event counts.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physworld/internal/collision"
	"physworld/internal/components"
	"physworld/internal/engine"
	"physworld/internal/world"
)

var (
	isDebug    = flag.Bool("debug", false, "Enable debug log output")
	configPath = flag.String("config", "", "World config file, defaults when empty")
	counts     = flag.String("counts", "100,250,500,1000", "Comma separated body counts")
	seconds    = flag.Float64("seconds", 5, "Simulated seconds per run")
	frameRate  = flag.Float64("fps", 60, "Frames per simulated second")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	if *isDebug {
		logger = unwrap(zap.NewDevelopment())
	} else {
		logger = unwrap(zap.NewProduction())
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)
	defer zap.ReplaceGlobals(logger)()

	cfg := world.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = world.LoadConfig(*configPath); err != nil {
			logger.Error("Read config fail", zap.Error(err))
			return
		}
	}

	runs, err := parseCounts(*counts)
	if err != nil {
		logger.Error("Bad -counts", zap.Error(err))
		return
	}

	for _, n := range runs {
		r := run(cfg, logger, n)
		fmt.Printf("%5d bodies: %8v/frame (max %8v) | %6d sub-steps | %6d begin | %6d end | %5d resting\n",
			n, r.avg.Round(time.Microsecond), r.max.Round(time.Microsecond),
			r.subSteps, r.begins, r.ends, r.resting)
	}
}

type result struct {
	avg, max     time.Duration
	subSteps     int
	begins, ends int
	resting      int
}

// run drops n bodies, half spheres and half boxes, into a walled pit and
// simulates them for the configured time.
func run(cfg world.Config, logger *zap.Logger, n int) result {
	w := world.New(cfg, logger)
	defer w.Close()

	addBox(w, "floor", rl.Vector3{Y: -0.5}, mgl64.Vec3{30, 0.5, 30})
	for i, wall := range []struct {
		pos  rl.Vector3
		half mgl64.Vec3
	}{
		{rl.Vector3{X: 15, Y: 5}, mgl64.Vec3{0.5, 5, 15}},
		{rl.Vector3{X: -15, Y: 5}, mgl64.Vec3{0.5, 5, 15}},
		{rl.Vector3{Y: 5, Z: 15}, mgl64.Vec3{15, 5, 0.5}},
		{rl.Vector3{Y: 5, Z: -15}, mgl64.Vec3{15, 5, 0.5}},
	} {
		addBox(w, fmt.Sprintf("wall_%d", i), wall.pos, wall.half)
	}

	var res result
	rng := rand.New(rand.NewSource(42))
	bodies := make([]*components.PhysicalBody, 0, n)
	for i := 0; i < n; i++ {
		a := engine.NewActor(fmt.Sprintf("body_%d", i))
		a.Transform.Position = rl.Vector3{
			X: rng.Float32()*26 - 13,
			Y: 1 + float32(i)*0.05 + rng.Float32()*4,
			Z: rng.Float32()*26 - 13,
		}
		b := components.NewPhysicalBody()
		b.MotionBehavior = components.MotionDynamic
		b.Restitution = 0.2
		size := 0.3 + rng.Float64()*0.3
		if i%2 == 0 {
			b.CollisionModel = &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindSphere, Radius: size}}}
		} else {
			b.CollisionModel = &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindBox, HalfExtents: mgl64.Vec3{size, size, size}}}}
		}
		a.AddComponent(b)
		a.Contacts.OnBeginContact.AddListener(func(engine.ContactEvent) { res.begins++ })
		a.Contacts.OnEndContact.AddListener(func(engine.ContactEvent) { res.ends++ })
		w.Spawn(a)
		bodies = append(bodies, b)
	}

	dt := float32(1 / *frameRate)
	frames := int(*seconds * *frameRate)
	var total time.Duration
	for f := 0; f < frames; f++ {
		start := time.Now()
		res.subSteps += w.Tick(dt)
		elapsed := time.Since(start)
		total += elapsed
		res.max = max(res.max, elapsed)
	}
	if frames > 0 {
		res.avg = total / time.Duration(frames)
	}

	for _, b := range bodies {
		if rl.Vector3Length(b.LinearVelocity()) < 0.05 {
			res.resting++
		}
	}
	logger.Debug("run done",
		zap.Int("bodies", n),
		zap.Int("objects", w.Physics().Dynamics().NumCollisionObjects()),
		zap.Duration("total", total))
	return res
}

func addBox(w *world.World, name string, pos rl.Vector3, half mgl64.Vec3) {
	a := engine.NewActor(name)
	a.Transform.Position = pos
	b := components.NewPhysicalBody()
	b.CollisionModel = &collision.Composition{Bodies: []collision.Body{{Kind: collision.KindBox, HalfExtents: half}}}
	a.AddComponent(b)
	w.Spawn(a)
}

func parseCounts(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("count %d must be positive", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
