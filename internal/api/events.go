package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is one message pushed to the websocket feed.
type Event struct {
	Type          string `json:"type"`
	Digest        string `json:"digest,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Hub fans out Events to every connected websocket client, generalizing
// vms/avm/index's indexed-tx-count metric (a single counter) into a
// live per-event push (spec EXPANSION B.9).
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

// NewHub constructs an empty Hub. Clients register by hitting
// ServeWS.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[*websocket.Conn]chan Event),
	}
}

// Publish broadcasts ev to every connected client. Never blocks on a
// slow client: a client whose buffer is full is dropped instead.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, conn)
			close(ch)
			conn.Close()
		}
	}
}

// ServeWS upgrades r into a websocket connection and streams Events to
// it until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ch := make(chan Event, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// The feed is write-only; reading is how a client disconnect is
	// noticed while no event is pending.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

// ClientCount reports the number of currently connected feed clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
