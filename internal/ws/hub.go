// Package ws wraps the gorilla/websocket transport: a hub of connected
// clients keyed by session id and the per-connection read/write pumps.
// Framing and dispatch live elsewhere; this package moves opaque text
// payloads.
package ws

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients by session ID
	clients map[string]*Client

	// Mutex for clients map
	mu sync.RWMutex

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A reconnect with the same session id supersedes the old
			// connection.
			if existing, ok := h.clients[client.SessionID]; ok {
				existing.Close()
			}
			h.clients[client.SessionID] = client
			h.mu.Unlock()
			log.Printf("ws: client registered: %s", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[client.SessionID]; ok {
				// Only unregister if it's the same client instance
				if existing == client {
					delete(h.clients, client.SessionID)
					log.Printf("ws: client unregistered: %s", client.SessionID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// GetClient returns a client by session ID
func (h *Hub) GetClient(sessionID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[sessionID]
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
