// Package events provides the append-only event log of the simulation.
// Every state transition the engine commits is recorded here; the replay API
// and the journal read from this log, the simulation never does.
package events

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// EventType defines the category of a plant event.
type EventType string

const (
	EventTypeTimeTick            EventType = "TIME_TICK"
	EventTypeStructureBuilt      EventType = "STRUCTURE_BUILT"
	EventTypeStructureDemolished EventType = "STRUCTURE_DEMOLISHED"
	EventTypeRequestRejected     EventType = "REQUEST_REJECTED"
	EventTypeTierAdvanced        EventType = "TIER_ADVANCED"
	EventTypePlantReset          EventType = "PLANT_RESET"
)

// PlantEvent represents an immutable record of a committed transition.
type PlantEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"` // client that requested it, or "ENGINE"
	Payload   interface{} `json:"payload"`
	Tick      uint64      `json:"tick"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event PlantEvent) error
}

// EventLog is the in-memory append-only log, optionally write-through to a
// persister.
type EventLog struct {
	mu        sync.RWMutex
	events    []PlantEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]PlantEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event PlantEvent) {
	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	if el.persister != nil {
		// Write through off the tick path.
		go func(e PlantEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// Replay returns the full history of events.
func (el *EventLog) Replay() []PlantEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// Since returns events appended after index n, plus the new length. The
// websocket hub polls with this to push increments.
func (el *EventLog) Since(n int) ([]PlantEvent, int) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if n >= len(el.events) {
		return nil, len(el.events)
	}
	return el.events[n:], len(el.events)
}

// GetByType returns all events of one category.
func (el *EventLog) GetByType(t EventType) []PlantEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []PlantEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetByTick returns all events committed during one tick.
func (el *EventLog) GetByTick(tick uint64) []PlantEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []PlantEvent
	for _, e := range el.events {
		if e.Tick == tick {
			result = append(result, e)
		}
	}
	return result
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return time.Now().Format("20060102150405") + "-" + fmt.Sprintf("%06x", rand.Intn(1<<24))
}
