package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/equilibrium/config"
	"github.com/pthm-cable/equilibrium/game"
	"github.com/pthm-cable/equilibrium/observer"
	"github.com/pthm-cable/equilibrium/persist"
	"github.com/pthm-cable/equilibrium/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	seed := flag.String("seed", "", "Run seed (empty = stored seed, else random)")
	modeName := flag.String("mode", "", "Victory mode: balance or domination")
	dbPath := flag.String("db", "", "SQLite file for seed, best scores and run history (empty = in memory)")
	logStats := flag.Bool("log-stats", false, "Output window stats and bookmarks via slog")
	logText := flag.Bool("log-text", false, "Log as text instead of JSON")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, event journal and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	script := flag.String("script", "", `Scheduled abilities, e.g. "1.5:2 3:5@640,360"`)
	autoRestart := flag.Bool("auto-restart", false, "Start a fresh-seed run whenever one ends")
	maxRuns := flag.Int("max-runs", 0, "Stop after N ended runs (0 = unlimited)")
	observerAddr := flag.String("observer", "", "Serve the WebSocket observer on this address, e.g. :8080")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if *logText {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	if err := run(options{
		configPath:     *configPath,
		headless:       *headless,
		seed:           *seed,
		mode:           *modeName,
		db:             *dbPath,
		logStats:       *logStats,
		statsWindow:    *statsWindow,
		outputDir:      *outputDir,
		maxTicks:       *maxTicks,
		stepsPerUpdate: *stepsPerUpdate,
		script:         *script,
		autoRestart:    *autoRestart,
		maxRuns:        *maxRuns,
		observer:       *observerAddr,
	}); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath     string
	headless       bool
	seed           string
	mode           string
	db             string
	logStats       bool
	statsWindow    float64
	outputDir      string
	maxTicks       int
	stepsPerUpdate int
	script         string
	autoRestart    bool
	maxRuns        int
	observer       string
}

func run(o options) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	env, err := config.ParseEnv()
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return err
	}

	// Flags override the environment.
	seed, modeName, dbPath := firstSet(o.seed, env.Seed), firstSet(o.mode, env.Mode), firstSet(o.db, env.DB)
	mode, err := game.ParseMode(modeName)
	if err != nil {
		return err
	}
	schedule, err := game.ParseScript(o.script)
	if err != nil {
		return err
	}

	var (
		store persist.Store
		runs  persist.RunLog
	)
	if dbPath != "" {
		db, err := persist.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store, runs = db, db
	} else {
		mem := persist.NewMemory()
		store, runs = mem, mem
	}

	gctx, err := game.NewContext(cfg, store, runs, seed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.RunnerOptions{
		Mode:           mode,
		LogStats:       o.logStats,
		StatsWindow:    o.statsWindow,
		OutputDir:      o.outputDir,
		StepsPerUpdate: o.stepsPerUpdate,
		Script:         schedule,
		AutoRestart:    o.autoRestart,
		MaxRuns:        o.maxRuns,
	}

	runner, err := game.NewRunner(gctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			slog.Error("failed to close outputs", "error", err)
		}
	}()

	if o.observer != "" {
		obs, err := observer.NewServer(runner.Controls())
		if err != nil {
			return err
		}
		runner.SetPublisher(obs)
		srv := serveObserver(o.observer, obs)
		defer func() {
			obs.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("starting simulation",
		"headless", o.headless,
		"config", o.configPath,
		"db", dbPath,
		"max_ticks", o.maxTicks,
		"steps_per_update", o.stepsPerUpdate,
		"scripted", len(schedule),
	)

	if o.headless {
		return runner.Run(ctx, o.maxTicks)
	}
	return viewer.New(runner, viewer.Options{MaxTicks: o.maxTicks}).Run(ctx)
}

func serveObserver(addr string, obs *observer.Server) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", obs.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("observer listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observer stopped", "error", err)
		}
	}()
	return srv
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
