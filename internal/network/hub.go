package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dvaldano/heatworks/server/internal/engine"
	"github.com/dvaldano/heatworks/server/internal/events"
	"github.com/dvaldano/heatworks/server/internal/platform/logger"
	"github.com/dvaldano/heatworks/server/internal/platform/metrics"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	engine     *engine.Engine
	logger     *logger.Logger
}

// Message is the envelope pushed to clients.
type Message struct {
	Type      string      `json:"type"` // "EVENT" or "SNAPSHOT"
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewHub initializes a new WebSocket Hub.
func NewHub(eng *engine.Engine, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		engine:     eng,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected: " + client.operatorID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected: " + client.operatorID)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast serializes a message envelope and sends it to all clients.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to serialize message for WebSocket broadcast: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- payload
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes new
// events to connected clients. The hub runs independently from the tick loop
// while picking up the same events.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(100 * time.Millisecond)
		defer pollInterval.Stop()

		cursor := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				newEvents, next := eventLog.Since(cursor)
				for _, event := range newEvents {
					h.Broadcast(Message{
						Type:      "EVENT",
						Timestamp: time.Now().Unix(),
						Payload:   event,
					})
				}
				cursor = next
			}
		}
	}()
}

// StartSnapshotPush spawns a goroutine that pushes the latest grid snapshot
// at a fixed cadence, so late-joining clients converge without replaying.
func (h *Hub) StartSnapshotPush(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastTick uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := h.engine.Snapshot()
				if snap.Tick == lastTick {
					continue
				}
				lastTick = snap.Tick
				h.Broadcast(Message{
					Type:      "SNAPSHOT",
					Timestamp: time.Now().Unix(),
					Payload:   snap,
				})
			}
		}
	}()
}
