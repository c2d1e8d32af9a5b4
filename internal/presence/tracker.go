package presence

import (
	"sort"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/group"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/registry"
)

// OpenRoom is one entry of the open-rooms snapshot.
type OpenRoom struct {
	Room   string `json:"room"`
	ConnID string `json:"conn_id"`
}

// Tracker derives room state from the registry and group membership.
// A room is open iff a live Room-kind connection with that name is a
// member of its own group; a Room connection without the join is
// registered but not open.
type Tracker struct {
	reg    *registry.Registry
	groups *group.Manager
}

func NewTracker(reg *registry.Registry, groups *group.Manager) *Tracker {
	return &Tracker{reg: reg, groups: groups}
}

func (t *Tracker) IsOpen(room string) bool {
	for _, id := range t.reg.Find(domain.KindRoom, room) {
		if t.groups.Contains(room, id) {
			return true
		}
	}
	return false
}

func (t *Tracker) OpenRooms() []OpenRoom {
	var out []OpenRoom
	for _, conn := range t.reg.ListAll() {
		if conn.Kind != domain.KindRoom {
			continue
		}
		if t.groups.Contains(conn.Name, conn.ID) {
			out = append(out, OpenRoom{Room: conn.Name, ConnID: conn.ID})
		}
	}
	return out
}

// Occupancy counts the Visitor connections currently inside the room's
// group. 0 if the room is not open.
func (t *Tracker) Occupancy(room string) int {
	if !t.IsOpen(room) {
		return 0
	}
	n := 0
	for _, id := range t.groups.Members(room) {
		if conn, ok := t.reg.Get(id); ok && conn.Kind == domain.KindVisitor {
			n++
		}
	}
	return n
}

// AvailableRooms lists the names of registered Room identities, open or
// not, deduplicated and sorted.
func (t *Tracker) AvailableRooms() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, conn := range t.reg.ListAll() {
		if conn.Kind != domain.KindRoom {
			continue
		}
		if _, ok := seen[conn.Name]; ok {
			continue
		}
		seen[conn.Name] = struct{}{}
		out = append(out, conn.Name)
	}
	sort.Strings(out)
	return out
}

// Visitors lists the names of connected Visitor identities, deduplicated
// and sorted.
func (t *Tracker) Visitors() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, conn := range t.reg.ListAll() {
		if conn.Kind != domain.KindVisitor {
			continue
		}
		if _, ok := seen[conn.Name]; ok {
			continue
		}
		seen[conn.Name] = struct{}{}
		out = append(out, conn.Name)
	}
	sort.Strings(out)
	return out
}

// VisitorRooms maps each connected visitor to the rooms their
// connections have entered.
func (t *Tracker) VisitorRooms() map[string][]string {
	out := make(map[string][]string)
	for _, conn := range t.reg.ListAll() {
		if conn.Kind != domain.KindVisitor {
			continue
		}
		rooms := t.groups.RoomsOf(conn.ID)
		sort.Strings(rooms)
		out[conn.Name] = append(out[conn.Name], rooms...)
	}
	return out
}
