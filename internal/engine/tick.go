// Package engine provides the tick-based simulation loop and the
// Simulation facade that wires every bakery system together.
package engine

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval (default 1 second)

	// OnTick runs every tick with the wall-clock time of the step.
	OnTick func(tick uint64, now time.Time)

	// speed holds Float64bits; the admin API changes it mid-run.
	speed   atomic.Uint64
	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{Interval: time.Second}
	e.SetSpeed(1.0)
	return e
}

// Speed returns the tick-rate multiplier. 1.0 = real-time, 0 = paused.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed changes the tick-rate multiplier.
func (e *Engine) SetSpeed(v float64) { e.speed.Store(math.Float64bits(v)) }

// Running reports whether the loop is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Tick++
		if e.OnTick != nil {
			e.OnTick(e.Tick, start)
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}
