// physicsviewer opens a scene in a window, walks it as a character and shows
// the physics debug overlay.
package main

import (
	"flag"
	"runtime/debug"

	"go.uber.org/zap"

	"physworld/internal/game"
	"physworld/internal/world"
)

var (
	isDebug    = flag.Bool("debug", false, "Enable debug log output")
	configPath = flag.String("config", "assets/world.toml", "World config file")
	scenePath  = flag.String("scene", "", "Scene file, overrides the config")
	modelPath  = flag.String("model", "", "Model to add as static level geometry")
	convex     = flag.Bool("convex", false, "Collide with the model's convex hull instead of its triangles")
	prefsPath  = flag.String("prefs", ".physicsviewer.yaml", "Viewer preferences file")
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
	// Components log through the global logger.
	defer zap.ReplaceGlobals(logger)()

	logger.Info("Viewer start")
	printBuildInfo(logger)
	defer logger.Info("Viewer exit")

	cfg, err := world.LoadConfig(*configPath)
	if err != nil {
		logger.Error("Read config fail", zap.Error(err))
		return
	}

	g, err := game.New(game.Options{
		Config:      cfg,
		ScenePath:   *scenePath,
		ModelPath:   *modelPath,
		ConvexModel: *convex,
		PrefsPath:   *prefsPath,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("Load scene fail", zap.Error(err))
		return
	}
	defer g.Close()

	g.Run()
}

func printBuildInfo(logger *zap.Logger) {
	binaryInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string)
	for _, v := range binaryInfo.Settings {
		settings[v.Key] = v.Value
	}
	logger.Debug("Build info", zap.Any("settings", settings))
}

func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
