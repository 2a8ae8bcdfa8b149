// Command hearth runs the grid-world agent simulation: it loads
// config/hearth.yaml, opens (and optionally initializes) the SQLite
// world, and either serves the host API (ticking only when its tick or
// run commands arrive) or runs a fixed number of ticks
// non-interactively. Grounded on
// cmd/tarsy/main.go's flag/env/bootstrap shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/hearth/internal/api"
	"github.com/codeready-toolchain/hearth/internal/config"
	"github.com/codeready-toolchain/hearth/internal/engine"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	dataDir := flag.String("data", "data", "data directory (sqlite db, audit log, agent home dirs)")
	configPath := flag.String("config", "config/hearth.yaml", "path to hearth.yaml")
	recipesPath := flag.String("recipes", "config/recipes.yaml", "path to the crafting recipe book")
	initFlag := flag.Bool("init", false, "seed a fresh world from the configured agent roster, then exit")
	runTicks := flag.Int("run", 0, "run N ticks non-interactively, then exit (0 = serve the host API instead)")
	statusFlag := flag.Bool("status", false, "print current tick/weather and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	addr := flag.String("addr", "", "http listen address (overrides hearth.yaml's http_addr)")
	flag.Parse()

	if err := godotenv.Load(filepath.Join(*dataDir, ".env")); err != nil {
		slog.Debug("no .env file loaded", "dir", *dataDir, "error", err)
	}

	logger := newLogger(*debug)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Error("create data dir", "error", err)
		return 1
	}
	cfg.ResolvePaths(*dataDir, *recipesPath)
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	ctx := context.Background()

	st, err := storage.Open(ctx, cfg.DBPath, cfg.AuditLogPath, cfg.World.Width, cfg.World.Height, logger)
	if err != nil {
		logger.Error("open storage", "error", err)
		return 1
	}
	defer st.Close()

	eng, err := engine.New(st, cfg.RecipesPath, cfg.World.VisionRadius, nil, logger)
	if err != nil {
		logger.Error("build engine", "error", err)
		return 1
	}

	if *initFlag {
		if err := initWorld(ctx, eng, cfg, *dataDir); err != nil {
			logger.Error("init world", "error", err)
			return 1
		}
		logger.Info("world initialized", "agents", len(cfg.Agents))
		return 0
	}

	if *statusFlag {
		return printStatus(ctx, eng)
	}

	if *runTicks > 0 {
		return runNonInteractive(ctx, eng, *runTicks, logger)
	}

	return serve(ctx, eng, cfg, logger)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	var handler slog.Handler
	if debug {
		level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// initWorld seeds the configured agent roster into a freshly-migrated
// (but otherwise empty) world. Terrain needs no generation step: storage
// already synthesizes default terrain for any cell never written.
func initWorld(ctx context.Context, eng *engine.Engine, cfg *config.Config, dataDir string) error {
	agentsRoot := filepath.Join(dataDir, "agents")
	_, err := eng.Agents.InitializeAgents(ctx, cfg.Seeds(), agentsRoot)
	return err
}

func printStatus(ctx context.Context, eng *engine.Engine) int {
	tick, err := eng.World.CurrentTick(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read tick:", err)
		return 1
	}
	weather, err := eng.World.CurrentWeather(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read weather:", err)
		return 1
	}
	fmt.Printf("tick=%d weather=%s\n", tick, weather)
	return 0
}

func runNonInteractive(ctx context.Context, eng *engine.Engine, n int, logger *slog.Logger) int {
	for i := 0; i < n; i++ {
		if _, err := eng.Tick(ctx); err != nil {
			logger.Error("tick failed", "tick_index", i, "error", err)
			return 1
		}
	}
	return 0
}

func serve(ctx context.Context, eng *engine.Engine, cfg *config.Config, logger *slog.Logger) int {
	runner := engine.NewRunner(eng, logger)
	runner.Start(ctx)
	defer runner.Shutdown()

	server := api.NewServer(eng, runner, logger)
	logger.Info("serving host API", "addr", cfg.HTTPAddr)
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Error("http server", "error", err)
		return 1
	}
	return 0
}
