// Package engine contains the tick loop and simulation systems.
// This is the heartbeat of the plant.
//
// ARCHITECTURAL RULE: nothing outside Tick mutates grid or economy state.
// The presentation layer only enqueues requests and reads snapshots.
package engine

import (
	"context"
	"time"

	"github.com/dvaldano/heatworks/server/internal/platform/logger"
	"github.com/dvaldano/heatworks/server/internal/platform/metrics"
)

// Ticker drives the engine at a fixed rate. It knows nothing about heat or
// money, only time progression.
type Ticker struct {
	engine   *Engine
	logger   *logger.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewTicker creates a fixed-rate driver for the engine.
func NewTicker(e *Engine, log *logger.Logger, interval time.Duration) *Ticker {
	return &Ticker{
		engine:   e,
		logger:   log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the tick loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Simulation ticker started.")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Simulation ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Simulation ticker stopped manually.")
			return
		case <-ticker.C:
			report := t.engine.Tick()
			metrics.Get().RecordTick(report.Duration)

			snap := t.engine.Snapshot()
			metrics.Get().SetPlantGauges(snap.TotalHeat, report.Power.PowerProduced, snap.Money)
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}
