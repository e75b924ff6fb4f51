package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/dvaldano/heatworks/server/internal/domain/economy"
	"github.com/dvaldano/heatworks/server/internal/domain/grid"
	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
	"github.com/dvaldano/heatworks/server/internal/platform/tuning"
)

// Engine is the central orchestrator: it owns the grid and economy, consumes
// the request queue, and advances the simulation one atomic tick at a time.
// There is exactly one mutator of shared state (the tick executor), so no
// locking is needed beyond the queue discipline and the tick mutex.
type Engine struct {
	tuning   tuning.Tuning
	catalog  *structure.Catalog
	eventLog *events.EventLog
	logger   *logger.Logger

	// Sub-systems
	controller *BuildController
	diffusion  *DiffusionSystem
	power      *PowerSystem

	// State, guarded by mu for the duration of a tick or reset.
	mu   sync.Mutex
	grid *grid.Grid
	eco  *economy.Economy
	tick uint64

	snapMu   sync.RWMutex
	snapshot Snapshot
}

// TickPayload is the data attached to each TIME_TICK event.
type TickPayload struct {
	Tick      uint64      `json:"tick"`
	Money     int64       `json:"money"`
	Tier      int         `json:"tier"`
	TotalHeat float64     `json:"total_heat"`
	Power     PowerReport `json:"power"`
	Settled   int         `json:"settled_requests"`
}

// TickReport is returned to the driver of Tick (the ticker, or a test).
type TickReport struct {
	Tick     uint64
	Results  []Result
	Power    PowerReport
	Duration time.Duration
}

// NewEngine initializes the simulation state and sub-systems.
func NewEngine(t tuning.Tuning, eventLog *events.EventLog, log *logger.Logger) *Engine {
	catalog := structure.NewCatalog(t)
	e := &Engine{
		tuning:   t,
		catalog:  catalog,
		eventLog: eventLog,
		logger:   log,

		controller: NewBuildController(catalog, eventLog, log),
		diffusion:  NewDiffusionSystem(catalog, t.Heat),
		power:      NewPowerSystem(catalog),

		grid: grid.New(t.GridSize),
		eco:  economy.New(t.Economy.StartingMoney, t.Economy.TierThresholds),
	}
	e.publishSnapshot(PowerReport{})
	return e
}

// Catalog exposes the price table for the presentation layer.
func (e *Engine) Catalog() *structure.Catalog {
	return e.catalog
}

// EnqueueBuild buffers a build request for the next tick boundary and
// returns its request ID. The outcome is reported in the tick's results and
// as a STRUCTURE_BUILT or REQUEST_REJECTED event carrying this ID.
func (e *Engine) EnqueueBuild(x, y int, t structure.Type, actorID string) string {
	id := events.GenerateEventID()
	e.controller.Enqueue(Request{ID: id, Kind: RequestBuild, X: x, Y: y, Structure: t, ActorID: actorID})
	return id
}

// EnqueueDemolish buffers a demolish request for the next tick boundary.
func (e *Engine) EnqueueDemolish(x, y int, actorID string) string {
	id := events.GenerateEventID()
	e.controller.Enqueue(Request{ID: id, Kind: RequestDemolish, X: x, Y: y, ActorID: actorID})
	return id
}

// Tick advances the simulation by exactly one logical step:
// settle queue → heat phases → power settlement → snapshot.
// Skipped wall-clock intervals are irrelevant; simulation time advances in
// fixed logical steps only.
func (e *Engine) Tick() TickReport {
	start := time.Now()

	e.mu.Lock()
	e.tick++
	tick := e.tick

	results := e.controller.Settle(e.grid, e.eco, tick)
	e.diffusion.Run(e.grid)
	power := e.power.Run(e.grid, e.eco)

	if power.TierAdvanced {
		e.logger.Event("TIER_ADVANCED", "ENGINE", fmt.Sprintf("Plant reached tier %d", e.eco.Tier()))
		e.eventLog.Append(events.PlantEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeTierAdvanced,
			ActorID:   "ENGINE",
			Tick:      tick,
			Payload:   map[string]int{"tier": e.eco.Tier()},
		})
	}

	payload := TickPayload{
		Tick:      tick,
		Money:     e.eco.Money(),
		Tier:      e.eco.Tier(),
		TotalHeat: e.grid.TotalHeat(),
		Power:     power,
		Settled:   len(results),
	}
	e.publishSnapshot(power)
	e.mu.Unlock()

	e.eventLog.Append(events.PlantEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeTimeTick,
		ActorID:   "ENGINE",
		Tick:      tick,
		Payload:   payload,
	})

	return TickReport{
		Tick:     tick,
		Results:  results,
		Power:    power,
		Duration: time.Since(start),
	}
}

// Reset tears the session down between ticks: drains the queue and
// reinitializes grid and economy.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.controller.Drain()
	e.grid = grid.New(e.tuning.GridSize)
	e.eco = economy.New(e.tuning.Economy.StartingMoney, e.tuning.Economy.TierThresholds)
	e.tick = 0
	e.publishSnapshot(PowerReport{})
	e.mu.Unlock()

	e.logger.Warn("Plant state reset")
	e.eventLog.Append(events.PlantEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypePlantReset,
		ActorID:   "ENGINE",
	})
}

// Snapshot returns the read-only state as of the last completed tick. Safe
// to call from any goroutine at any time.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot
}

// publishSnapshot rebuilds the public view. Caller holds e.mu.
func (e *Engine) publishSnapshot(power PowerReport) {
	snap := Snapshot{
		Tick:      e.tick,
		GridSize:  e.grid.Size(),
		Money:     e.eco.Money(),
		Tier:      e.eco.Tier(),
		TotalHeat: e.grid.TotalHeat(),
		PowerStats: PowerStats{
			PowerProduced:    e.eco.PowerProduced(),
			PowerSold:        e.eco.PowerSold(),
			LifetimeEarnings: e.eco.LifetimeEarnings(),
			LastTick:         power,
		},
	}
	// Only cells that carry information; empty cold cells are implicit.
	e.grid.EachCell(func(c *grid.Cell) {
		if c.Occupant == nil && c.Heat == 0 {
			return
		}
		cs := CellSnapshot{X: c.X, Y: c.Y, Heat: c.Heat}
		if c.Occupant != nil {
			cs.Type = c.Occupant.Type
		}
		snap.Cells = append(snap.Cells, cs)
	})

	e.snapMu.Lock()
	e.snapshot = snap
	e.snapMu.Unlock()
}
