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
)

// RequestKind discriminates queued grid mutations.
type RequestKind string

const (
	RequestBuild    RequestKind = "BUILD"
	RequestDemolish RequestKind = "DEMOLISH"
)

// Request is a buffered build/demolish intent. Requests arrive asynchronously
// from the presentation layer and are settled only at tick boundaries, so the
// diffusion and generation phases always see a stable grid.
type Request struct {
	ID        string
	Kind      RequestKind
	X, Y      int
	Structure structure.Type
	ActorID   string
}

// Result is the settlement outcome of one request.
type Result struct {
	Request  Request
	Accepted bool
	Reason   string // empty when accepted
	Cost     int64  // debited on build
	Refund   int64  // credited on demolish
}

// BuildPayload is attached to STRUCTURE_BUILT events.
type BuildPayload struct {
	RequestID string         `json:"request_id"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Structure structure.Type `json:"structure"`
	Cost      int64          `json:"cost"`
	Tier      int            `json:"tier"`
}

// DemolishPayload is attached to STRUCTURE_DEMOLISHED events.
type DemolishPayload struct {
	RequestID string         `json:"request_id"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Structure structure.Type `json:"structure"`
	Refund    int64          `json:"refund"`
}

// RejectPayload is attached to REQUEST_REJECTED events.
type RejectPayload struct {
	RequestID string      `json:"request_id"`
	Kind      RequestKind `json:"kind"`
	X         int         `json:"x"`
	Y         int         `json:"y"`
	Reason    string      `json:"reason"`
}

// BuildController validates and applies placement/removal requests against
// money and grid state. It is the only writer of grid shape and the only
// spender of money.
type BuildController struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	catalog  *structure.Catalog

	mu    sync.Mutex
	queue []Request
}

// NewBuildController creates the request queue and settlement logic.
func NewBuildController(catalog *structure.Catalog, eventLog *events.EventLog, log *logger.Logger) *BuildController {
	return &BuildController{
		eventLog: eventLog,
		logger:   log,
		catalog:  catalog,
	}
}

// Enqueue buffers a request for the next tick boundary.
func (bc *BuildController) Enqueue(req Request) {
	bc.mu.Lock()
	bc.queue = append(bc.queue, req)
	bc.mu.Unlock()
}

// Drain discards all pending requests. Used by Reset.
func (bc *BuildController) Drain() {
	bc.mu.Lock()
	bc.queue = nil
	bc.mu.Unlock()
}

// Pending returns the number of buffered requests.
func (bc *BuildController) Pending() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.queue)
}

// Settle applies every queued request in FIFO order. A rejected request
// leaves grid and economy exactly as they were; acceptance debits/credits
// money atomically with the grid change.
func (bc *BuildController) Settle(g *grid.Grid, eco *economy.Economy, tick uint64) []Result {
	bc.mu.Lock()
	batch := bc.queue
	bc.queue = nil
	bc.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	results := make([]Result, 0, len(batch))
	for _, req := range batch {
		var res Result
		switch req.Kind {
		case RequestBuild:
			res = bc.applyBuild(g, eco, req)
		case RequestDemolish:
			res = bc.applyDemolish(g, eco, req)
		default:
			res = Result{Request: req, Reason: "unknown request kind"}
		}
		bc.emit(res, eco, tick)
		results = append(results, res)
	}
	return results
}

func (bc *BuildController) applyBuild(g *grid.Grid, eco *economy.Economy, req Request) Result {
	if !req.Structure.IsValid() {
		return Result{Request: req, Reason: "unknown structure type"}
	}
	cell, err := g.CellAt(req.X, req.Y)
	if err != nil {
		return Result{Request: req, Reason: err.Error()}
	}
	if cell.Occupant != nil {
		return Result{Request: req, Reason: grid.ErrCellOccupied.Error()}
	}

	cost := bc.catalog.BuildCost(req.Structure, eco.Tier())
	if err := eco.Debit(cost); err != nil {
		return Result{Request: req, Reason: err.Error()}
	}

	// Occupancy was checked above and nothing runs between; a failure here
	// is a programming error, so refund and report rather than panic.
	if err := g.Place(req.X, req.Y, &structure.Structure{Type: req.Structure, PaidCost: cost}); err != nil {
		eco.Credit(cost)
		return Result{Request: req, Reason: err.Error()}
	}
	return Result{Request: req, Accepted: true, Cost: cost}
}

func (bc *BuildController) applyDemolish(g *grid.Grid, eco *economy.Economy, req Request) Result {
	removed, err := g.Remove(req.X, req.Y)
	if err != nil {
		return Result{Request: req, Reason: err.Error()}
	}
	refund := bc.catalog.Refund(removed)
	eco.Credit(refund)
	// Report what was torn down, not what the request guessed.
	req.Structure = removed.Type
	return Result{Request: req, Accepted: true, Refund: refund}
}

func (bc *BuildController) emit(res Result, eco *economy.Economy, tick uint64) {
	req := res.Request
	if !res.Accepted {
		bc.logger.Warn(fmt.Sprintf("Request %s rejected at (%d,%d): %s", req.Kind, req.X, req.Y, res.Reason))
		bc.eventLog.Append(events.PlantEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeRequestRejected,
			ActorID:   req.ActorID,
			Tick:      tick,
			Payload: RejectPayload{
				RequestID: req.ID,
				Kind:      req.Kind,
				X:         req.X,
				Y:         req.Y,
				Reason:    res.Reason,
			},
		})
		return
	}

	switch req.Kind {
	case RequestBuild:
		bc.logger.Event("STRUCTURE_BUILT", req.ActorID,
			fmt.Sprintf("%s at (%d,%d) for %d", req.Structure, req.X, req.Y, res.Cost))
		bc.eventLog.Append(events.PlantEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeStructureBuilt,
			ActorID:   req.ActorID,
			Tick:      tick,
			Payload: BuildPayload{
				RequestID: req.ID,
				X:         req.X,
				Y:         req.Y,
				Structure: req.Structure,
				Cost:      res.Cost,
				Tier:      eco.Tier(),
			},
		})
	case RequestDemolish:
		bc.logger.Event("STRUCTURE_DEMOLISHED", req.ActorID,
			fmt.Sprintf("(%d,%d) refunded %d", req.X, req.Y, res.Refund))
		bc.eventLog.Append(events.PlantEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeStructureDemolished,
			ActorID:   req.ActorID,
			Tick:      tick,
			Payload: DemolishPayload{
				RequestID: req.ID,
				X:         req.X,
				Y:         req.Y,
				Structure: req.Structure,
				Refund:    res.Refund,
			},
		})
	}
}
