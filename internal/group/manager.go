package group

import (
	"log/slog"
	"sync"
)

type group struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

// Manager owns group membership: named sets of connection ids keyed by
// room name. The outer lock guards the group map only; each group has
// its own lock so join/leave on unrelated rooms stay concurrent.
type Manager struct {
	mu     sync.RWMutex
	groups map[string]*group
}

func NewManager() *Manager {
	return &Manager{groups: make(map[string]*group)}
}

func (m *Manager) get(room string, create bool) *group {
	m.mu.RLock()
	g, ok := m.groups[room]
	m.mu.RUnlock()
	if ok || !create {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok = m.groups[room]; ok {
		return g
	}
	g = &group{members: make(map[string]struct{})}
	m.groups[room] = g
	return g
}

// Join adds the connection to the group, creating it lazily. Re-join is
// a no-op.
func (m *Manager) Join(connID, room string) {
	g := m.get(room, true)
	g.mu.Lock()
	g.members[connID] = struct{}{}
	g.mu.Unlock()
}

// Leave removes the connection from the group. Leaving a group the
// connection never joined is logged and ignored.
func (m *Manager) Leave(connID, room string) {
	g := m.get(room, false)
	if g == nil {
		slog.Debug("leave on unknown group", "room", room, "conn", connID)
		return
	}

	g.mu.Lock()
	if _, ok := g.members[connID]; !ok {
		g.mu.Unlock()
		slog.Debug("leave without membership", "room", room, "conn", connID)
		return
	}
	delete(g.members, connID)
	g.mu.Unlock()
}

func (m *Manager) Contains(room, connID string) bool {
	g := m.get(room, false)
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.members[connID]
	return ok
}

func (m *Manager) Members(room string) []string {
	g := m.get(room, false)
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.members))
	for id := range g.members {
		out = append(out, id)
	}
	return out
}

// RoomsOf reports every group the connection is currently a member of.
func (m *Manager) RoomsOf(connID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for room, g := range m.groups {
		g.mu.RLock()
		if _, ok := g.members[connID]; ok {
			out = append(out, room)
		}
		g.mu.RUnlock()
	}
	return out
}

// DropConn sweeps the connection out of every group it is a member of
// and returns the affected rooms. Used on disconnect to reconcile
// membership with connection churn.
func (m *Manager) DropConn(connID string) []string {
	rooms := m.RoomsOf(connID)
	for _, room := range rooms {
		m.Leave(connID, room)
	}
	return rooms
}
