package router

import (
	"log/slog"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/group"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/pending"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/presence"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/registry"
)

// Sender is the outbound-delivery capability the router needs from the
// transport. Sends are fire-and-forget; the router never waits on them.
type Sender interface {
	Unicast(connID string, event string, payload any) error
}

// Router is the protocol state machine. It holds no mutable state of
// its own: every decision reads the registry, group membership and
// pending cache, which are each internally synchronized.
type Router struct {
	reg      *registry.Registry
	groups   *group.Manager
	presence *presence.Tracker
	pending  *pending.Cache
	sender   Sender
}

func New(reg *registry.Registry, groups *group.Manager, tracker *presence.Tracker, cache *pending.Cache, sender Sender) *Router {
	return &Router{
		reg:      reg,
		groups:   groups,
		presence: tracker,
		pending:  cache,
		sender:   sender,
	}
}

// Connect registers the connection and runs a reconciliation pass so
// anything queued for an identity that just became reachable is
// delivered in enqueue order.
func (r *Router) Connect(id string, kind domain.IdentityKind, name string) (domain.Connection, error) {
	conn, err := r.reg.Register(id, kind, name)
	if err != nil {
		return domain.Connection{}, err
	}
	slog.Info("client connected", "conn", id, "kind", kind, "name", name)

	r.Reconcile()
	return conn, nil
}

// Disconnect deregisters the connection and sweeps its stale group
// membership, rebroadcasting occupancy for rooms it occupied.
func (r *Router) Disconnect(id string) {
	conn, known := r.reg.Get(id)
	r.reg.Deregister(id)

	rooms := r.groups.DropConn(id)
	for _, room := range rooms {
		if r.presence.IsOpen(room) {
			r.broadcastOccupancy(room)
		}
	}

	if known {
		slog.Info("client disconnected", "conn", id, "kind", conn.Kind, "name", conn.Name, "rooms", len(rooms))
	}
}

// OpenRoom joins the room connection to its own group, which makes the
// room reachable, then flushes anything queued for it.
func (r *Router) OpenRoom(connID string, p domain.OpenRoomPayload) (domain.AckResult, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	conn, ok := r.reg.Get(connID)
	if !ok || conn.Kind != domain.KindRoom || conn.Name != p.Room {
		return "", domain.ErrUnknownConnection
	}

	r.groups.Join(connID, p.Room)
	slog.Info("room opened", "room", p.Room, "conn", connID)

	for _, e := range r.pending.Drain(pending.RoomKey(p.Room)) {
		r.broadcast(p.Room, domain.EventNotifyRoom, e.Payload)
	}
	// a room opening can also unblock keys queued under another
	// connection's identity; the full pass catches those
	r.Reconcile()

	return domain.ResultOpened, nil
}

func (r *Router) CloseRoom(connID string, p domain.CloseRoomPayload) (domain.AckResult, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	r.groups.Leave(connID, p.Room)
	slog.Info("room closed", "room", p.Room, "conn", connID)
	return domain.ResultClosed, nil
}

// EnterRoom joins a visitor connection to an open room's group and
// announces the check-in. Entering a room that is not open is rejected:
// a same-named Room connection may exist without having joined its own
// group yet.
func (r *Router) EnterRoom(connID string, p domain.EnterRoomPayload) (domain.AckResult, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if !r.presence.IsOpen(p.Room.Room) {
		return "", domain.ErrRoomNotOpen
	}

	r.groups.Join(connID, p.Room.Room)
	r.broadcast(p.Room.Room, domain.EventCheckIn, domain.CheckEventPayload{
		Room:     p.Room.Room,
		Visitor:  p.Visitor,
		SentTime: p.SentTime,
	})
	r.broadcastOccupancy(p.Room.Room)

	return domain.ResultEntered, nil
}

func (r *Router) LeaveRoom(connID string, p domain.LeaveRoomPayload) (domain.AckResult, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	r.groups.Leave(connID, p.Room.Room)
	r.broadcast(p.Room.Room, domain.EventCheckOut, domain.CheckEventPayload{
		Room:     p.Room.Room,
		Visitor:  p.Visitor,
		SentTime: p.SentTime,
		Message:  p.Message,
	})
	r.broadcastOccupancy(p.Room.Room)

	return domain.ResultLeft, nil
}

// ExposureWarning fans one warning out per room in the payload: open
// rooms are notified now, closed rooms get a queued entry flushed on
// their next open. The per-room outcomes are returned for the ack.
func (r *Router) ExposureWarning(p domain.ExposureWarningPayload) (domain.AckResult, map[string]domain.AckResult, error) {
	if err := p.Validate(); err != nil {
		return "", nil, err
	}

	results := make(map[string]domain.AckResult, len(p.Warnings))
	overall := domain.ResultWarned
	for room, dates := range p.Warnings {
		payload := domain.NotifyRoomPayload{
			Room:          room,
			Reason:        "exposure",
			ExposureDates: dates,
			Visitor:       p.Visitor,
		}
		if r.presence.IsOpen(room) {
			r.broadcast(room, domain.EventNotifyRoom, payload)
			results[room] = domain.ResultWarned
			continue
		}
		r.pending.Enqueue(pending.RoomKey(room), pending.RoomWarning, payload)
		results[room] = domain.ResultPending
		overall = domain.ResultPending
		slog.Info("warning deferred", "room", room, "visitor", p.Visitor)
	}

	return overall, results, nil
}

// AlertVisitor notifies every connection of the visitor, or queues the
// alert until the visitor's next connect.
func (r *Router) AlertVisitor(p domain.AlertVisitorPayload) (domain.AckResult, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	payload := domain.ExposureAlertPayload{Visitor: p.Visitor, Message: p.Message}
	ids := r.reg.Find(domain.KindVisitor, p.Visitor)
	if len(ids) == 0 {
		r.pending.Enqueue(pending.VisitorKey(p.Visitor), pending.VisitorAlert, payload)
		slog.Info("alert deferred", "visitor", p.Visitor)
		return domain.ResultPending, nil
	}

	for _, id := range ids {
		r.unicast(id, domain.EventExposureAlert, payload)
	}
	return domain.ResultAlerted, nil
}

// Reconcile drains every pending key whose target is currently
// reachable and delivers the batches. One uniform pass covers both
// room warnings (reachable when the room is open) and visitor alerts
// (reachable when any connection claims the visitor identity), so
// reachability changes not tied to the key that reconnected are picked
// up too. Returns the number of delivered entries.
func (r *Router) Reconcile() int {
	drained := r.pending.DrainMatching(r.reachable)
	delivered := 0
	for key, entries := range drained {
		ns, name := pending.SplitKey(key)
		for _, e := range entries {
			switch domain.IdentityKind(ns) {
			case domain.KindRoom:
				r.broadcast(name, domain.EventNotifyRoom, e.Payload)
			case domain.KindVisitor:
				for _, id := range r.reg.Find(domain.KindVisitor, name) {
					r.unicast(id, domain.EventExposureAlert, e.Payload)
				}
			}
			delivered++
		}
	}
	if delivered > 0 {
		slog.Info("pending entries delivered", "count", delivered)
	}
	return delivered
}

func (r *Router) reachable(key string) bool {
	ns, name := pending.SplitKey(key)
	switch domain.IdentityKind(ns) {
	case domain.KindRoom:
		return r.presence.IsOpen(name)
	case domain.KindVisitor:
		return len(r.reg.Find(domain.KindVisitor, name)) > 0
	}
	return false
}

func (r *Router) broadcast(room, event string, payload any) {
	for _, id := range r.groups.Members(room) {
		r.unicast(id, event, payload)
	}
}

func (r *Router) unicast(connID, event string, payload any) {
	if err := r.sender.Unicast(connID, event, payload); err != nil {
		// best-effort: a racing disconnect is not an error here
		slog.Debug("unicast failed", "conn", connID, "event", event, "err", err)
	}
}

func (r *Router) broadcastOccupancy(room string) {
	r.broadcast(room, domain.EventUpdatedOccupancy, domain.UpdatedOccupancyPayload{
		Room:      room,
		Occupancy: r.presence.Occupancy(room),
	})
}
