package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/scrypster/lineage/pkg/types"
)

// WebSocketHub fans graph update events out to connected viewers so they
// can redraw after loads and expansions without polling.
type WebSocketHub struct {
	clients    map[*wsClient]bool
	broadcast  chan types.Event
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebSocketHub creates a new hub.
func NewWebSocketHub() *WebSocketHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan types.Event, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Broadcast queues an event for delivery to all clients. Events are
// dropped rather than blocking the mutating goroutine when the hub is
// saturated.
func (h *WebSocketHub) Broadcast(ev types.Event) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// Run processes register/unregister/broadcast until Stop is called.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*wsClient]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("websocket: client connected (total: %d)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("websocket: client disconnected (total: %d)", count)

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("websocket: failed to marshal event: %v", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Slow client; drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts down the hub and disconnects all clients.
func (h *WebSocketHub) Stop() {
	h.cancel()
}

// ServeWS upgrades the request and streams events to the client.
func (h *WebSocketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Same-origin policy is handled upstream.
	})
	if err != nil {
		log.Printf("websocket: accept failed: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}

	defer func() {
		// Run may already have exited after Stop; never block on it.
		select {
		case h.unregister <- client:
		case <-h.ctx.Done():
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	for data := range client.send {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			return
		}
	}
}
