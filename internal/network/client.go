package network

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dvaldano/heatworks/server/internal/domain/structure"
	"github.com/dvaldano/heatworks/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Minimum spacing between accepted actions from one client.
	actionCooldown = 100 * time.Millisecond
)

// OperatorAction represents an incoming command from the frontend.
type OperatorAction struct {
	Type      string `json:"type"` // "BUILD" or "DEMOLISH"
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Structure string `json:"structure"` // build only
}

// ActionAck tells the sender its request entered the queue. Settlement is
// reported later through the broadcast event stream.
type ActionAck struct {
	Type      string `json:"type"` // "ACK"
	RequestID string `json:"request_id"`
}

// Client holds one WebSocket connection and its rate-limit state.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	operatorID     string
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn, operatorID string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		operatorID: operatorID,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection into the engine's
// request queue.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action OperatorAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse OperatorAction from WebSocket: " + err.Error())
			continue
		}

		c.handleOperatorAction(action)
	}
}

func (c *Client) handleOperatorAction(action OperatorAction) {
	// Rate limiting check; the engine would only reject the spam anyway,
	// this keeps the queue from flooding.
	if time.Since(c.lastActionTime) < actionCooldown {
		c.hub.logger.Warn("Rate limit exceeded for client " + c.operatorID)
		return
	}
	c.lastActionTime = time.Now()

	var requestID string
	switch action.Type {
	case "BUILD":
		requestID = c.hub.engine.EnqueueBuild(action.X, action.Y, structure.Type(action.Structure), c.operatorID)
	case "DEMOLISH":
		requestID = c.hub.engine.EnqueueDemolish(action.X, action.Y, c.operatorID)
	default:
		c.hub.logger.Warn("Unknown OperatorAction type: " + action.Type)
		return
	}

	ack, err := json.Marshal(ActionAck{Type: "ACK", RequestID: requestID})
	if err != nil {
		return
	}
	select {
	case c.send <- ack:
		metrics.Get().RecordWSMessage(false)
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
