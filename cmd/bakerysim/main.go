// Command bakerysim runs the cookie bakery simulation.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/talgya/bakerysim/internal/api"
	"github.com/talgya/bakerysim/internal/config"
	"github.com/talgya/bakerysim/internal/engine"
	"github.com/talgya/bakerysim/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Bakery Simulation — cookies, orders, contracts, markets")

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Simulation ────────────────────────────────────────────────────
	now := time.Now()
	sim := engine.NewSimulation(cfg.Seed, cfg.JITCooking, now)

	if err := db.LoadGame(sim); err != nil {
		slog.Error("failed to load save", "error", err)
		os.Exit(1)
	}

	var startTick uint64
	if tickStr, err := db.GetMeta("last_tick"); err == nil {
		if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
			startTick = t
		}
	}
	sim.LastTick = startTick

	login := sim.CheckLogin(now)
	switch {
	case login.First:
		slog.Info("welcome to the bakery", "bonus", login.Bonus)
	case login.StreakBroke:
		slog.Info("login streak broken", "bonus", login.Bonus)
	case login.StreakKept:
		slog.Info("login streak continues", "streak", login.Streak, "bonus", login.Bonus)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Tick = startTick
	eng.SetSpeed(cfg.Speed)
	eng.Interval = time.Duration(cfg.TickMillis) * time.Millisecond

	autosaveEvery := time.Duration(cfg.AutosaveSeconds) * time.Second
	lastSave := time.Now()
	var lastSavedEventTick uint64

	eng.OnTick = func(tick uint64, now time.Time) {
		sim.TickSecond(tick, now)

		if time.Since(lastSave) >= autosaveEvery && sim.Dirty() {
			if err := db.SaveGame(sim); err != nil {
				slog.Error("autosave failed", "error", err)
			} else {
				lastSavedEventTick = flushEvents(db, sim, lastSavedEventTick)
				lastSave = time.Now()
			}
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("admin key not set — admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     cfg.APIPort,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nThe ovens are warm. Bakery level %d, %.0f cookies banked.\n",
		sim.Progress.Level, sim.Ledger.Currency)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d\n", startTick)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveGame(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}
	flushEvents(db, sim, lastSavedEventTick)

	fmt.Println("Simulation stopped. Bakery state saved.")
}

// flushEvents persists events newer than sinceTick and returns the highest
// tick written, so repeated flushes never duplicate rows.
func flushEvents(db *persistence.DB, sim *engine.Simulation, sinceTick uint64) uint64 {
	recent := sim.RecentEvents(0)
	var fresh []engine.Event
	last := sinceTick
	for _, e := range recent {
		if e.Tick > sinceTick {
			fresh = append(fresh, e)
			if e.Tick > last {
				last = e.Tick
			}
		}
	}
	if err := db.SaveEvents(fresh); err != nil {
		slog.Error("event save failed", "error", err)
		return sinceTick
	}
	return last
}
