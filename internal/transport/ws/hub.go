package ws

import (
	"fmt"
	"sync"
)

// Hub tracks the live connections by id and turns the router's
// fire-and-forget unicast into a write on the right connection.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

// Add registers the connection. If a client resumed with an id that is
// still mapped, the stale connection is closed and replaced.
func (h *Hub) Add(c *Conn) {
	h.mu.Lock()
	prev := h.conns[c.id]
	h.conns[c.id] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		_ = prev.Close()
	}
}

// Remove unmaps the connection and reports whether it was still the
// mapped one. A connection already replaced by a resumed session is
// left alone so the replacement keeps its registration.
func (h *Hub) Remove(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[c.id] == c {
		delete(h.conns, c.id)
		return true
	}
	return false
}

func (h *Hub) Get(id string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Unicast implements the router's Sender.
func (h *Hub) Unicast(connID string, event string, payload any) error {
	c, ok := h.Get(connID)
	if !ok {
		return fmt.Errorf("unicast %s: connection %s not found", event, connID)
	}
	return c.Send(Message{Event: event, Payload: payload})
}
