package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"netsim/internal/timeseries"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunFunc drives one annual (or sliced) time-series run, reporting progress
// to observer as each hour completes.
type RunFunc func(startHour, endHour int, observer timeseries.Observer) *timeseries.Results

// Handler upgrades incoming requests to WebSocket connections and launches
// a run against RunFunc whenever a client sends run:start, streaming
// progress back over the hub.
type Handler struct {
	hub    *Hub
	bridge *Bridge
	run    RunFunc

	mu      sync.Mutex
	running bool
}

func NewHandler(hub *Hub, bridge *Bridge, run RunFunc) *Handler {
	return &Handler{hub: hub, bridge: bridge, run: run}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 256)}
	h.hub.Register(client)
	go client.writePump()

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			return
		}
		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("ws: invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeRunStart:
		var p RunStartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("ws: invalid run:start payload: %v", err)
			return
		}
		h.startRun(p.StartHour, p.EndHour)
	default:
		log.Printf("ws: unknown message type: %s", env.Type)
	}
}

// startRun launches the run in a goroutine, refusing a second concurrent
// run rather than interleaving two drivers against the same network.
func (h *Handler) startRun(startHour, endHour int) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		h.broadcastError("a run is already in progress")
		return
	}
	h.running = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
		}()

		h.bridge.BroadcastRunStarted(startHour, endHour)
		res := h.run(startHour, endHour, h.bridge)
		h.bridge.BroadcastRunFinished(endHour-startHour, len(res.Failed))
	}()
}

func (h *Handler) broadcastError(message string) {
	msg, err := NewEnvelope(TypeError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.hub.Broadcast(msg)
}
