package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// ClientCounter is told the number of connected viewers whenever it changes.
type ClientCounter interface {
	SetWebSocketClients(n int)
}

// Hub maintains the set of connected viewers and fans store events out to
// all of them.
type Hub struct {
	clients map[*Client]struct{}

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	// mu protects clients
	mu sync.RWMutex

	counter ClientCounter
	logger  *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub. counter may be nil.
func NewHub(counter ClientCounter, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		counter:    counter,
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for every viewer. It never blocks the store: when
// the queue is full the event is dropped, and viewers catch up on the next one
// since events carry the collection version.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"version", event.Version,
		)
	}
	return nil
}

// Run starts the hub's event loop until ctx is done. It must run in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Join registers client. It reports false once the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client. It is a no-op once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.reportCount(total)
	h.logger.Info("client registered",
		"client_id", client.ID,
		"total_connections", total,
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	total := len(h.clients)
	h.mu.Unlock()

	client.CloseSend()
	h.reportCount(total)
	h.logger.Info("client unregistered",
		"client_id", client.ID,
		"total_connections", total,
	)
}

// broadcastEvent sends an event to every client. Clients whose buffer is full
// are dropped.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"version", event.Version,
		"client_count", len(clients),
	)

	for _, client := range clients {
		if !client.trySend(event) {
			h.logger.Warn("client send buffer full, unregistering", "client_id", client.ID)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for client := range clients {
		client.CloseSend()
	}
	h.reportCount(0)
}

func (h *Hub) reportCount(n int) {
	if h.counter != nil {
		h.counter.SetWebSocketClients(n)
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
