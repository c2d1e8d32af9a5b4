package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/pending"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/presence"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/registry"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/router"
)

var errAdminOnly = errors.New("admin identity required")

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	router   *router.Router

	// read-only views for the admin query events
	reg     *registry.Registry
	tracker *presence.Tracker
	cache   *pending.Cache

	pingEvery time.Duration
	readLimit int64
}

func NewServer(hub *Hub, rt *router.Router, reg *registry.Registry, tracker *presence.Tracker, cache *pending.Cache) *Server {
	return &Server{
		hub:     hub,
		router:  rt,
		reg:     reg,
		tracker: tracker,
		cache:   cache,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
		readLimit: 1 << 20,
	}
}

func (s *Server) SetPingEvery(d time.Duration) {
	if d > 0 {
		s.pingEvery = d
	}
}

// WS endpoint: GET /ws?room=...|visitor=...|admin=...&id=<resume token>
// The identity claim rides on the upgrade query; exactly one of the
// room/visitor/admin parameters must be present. A client resuming a
// prior session passes its known id, otherwise a fresh one is issued.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	kind, name, err := identityClaim(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		id = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newConn(id, kind, name, conn)
	s.hub.Add(c)
	go c.writePump(s.pingEvery)

	if _, err := s.router.Connect(id, kind, name); err != nil {
		slog.Warn("ws connect rejected", "conn", id, "err", err)
		_ = c.Send(Message{Event: EventAck, Payload: AckPayload{Event: "connect", Error: err.Error()}})
		s.hub.Remove(c)
		_ = c.Close()
		return
	}

	s.readLoop(c)

	// a session resumed on a new connection keeps the registration;
	// only the still-mapped connection tears it down
	if s.hub.Remove(c) {
		s.router.Disconnect(id)
	}
	_ = c.Close()
}

func identityClaim(r *http.Request) (domain.IdentityKind, string, error) {
	q := r.URL.Query()
	claims := map[domain.IdentityKind]string{
		domain.KindRoom:    strings.TrimSpace(q.Get("room")),
		domain.KindVisitor: strings.TrimSpace(q.Get("visitor")),
		domain.KindAdmin:   strings.TrimSpace(q.Get("admin")),
	}

	var (
		kind domain.IdentityKind
		name string
		n    int
	)
	for k, v := range claims {
		if v != "" {
			kind, name = k, v
			n++
		}
	}
	if n != 1 {
		return "", "", fmt.Errorf("exactly one of room, visitor or admin is required")
	}
	return kind, name, nil
}

func (s *Server) readLoop(c *Conn) {
	c.ws.SetReadLimit(s.readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read error", "conn", c.id, "err", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("ws malformed frame", "conn", c.id, "err", err)
			continue
		}
		s.dispatch(c, frame)
	}
}

// dispatch decodes the payload for the named event, runs the routing
// decision and, when the client asked for one, returns the outcome as
// an ack frame. A payload that fails to decode or validate is rejected
// without side effect.
func (s *Server) dispatch(c *Conn, f Frame) {
	var (
		result  domain.AckResult
		results map[string]domain.AckResult
		err     error
	)

	switch f.Event {
	case domain.EventOpenRoom:
		var p domain.OpenRoomPayload
		if err = decode(f.Payload, &p); err == nil {
			result, err = s.router.OpenRoom(c.id, p)
		}
	case domain.EventCloseRoom:
		var p domain.CloseRoomPayload
		if err = decode(f.Payload, &p); err == nil {
			result, err = s.router.CloseRoom(c.id, p)
		}
	case domain.EventEnterRoom:
		var p domain.EnterRoomPayload
		if err = decode(f.Payload, &p); err == nil {
			result, err = s.router.EnterRoom(c.id, p)
		}
	case domain.EventLeaveRoom:
		var p domain.LeaveRoomPayload
		if err = decode(f.Payload, &p); err == nil {
			result, err = s.router.LeaveRoom(c.id, p)
		}
	case domain.EventExposureWarning:
		var p domain.ExposureWarningPayload
		if err = decode(f.Payload, &p); err == nil {
			result, results, err = s.router.ExposureWarning(p)
		}
	case domain.EventAlertVisitor:
		var p domain.AlertVisitorPayload
		if err = decode(f.Payload, &p); err == nil {
			result, err = s.router.AlertVisitor(p)
		}
	case domain.EventExposeAllConnections,
		domain.EventExposeOpenRooms,
		domain.EventExposeAvailableRooms,
		domain.EventExposeVisitorsRooms,
		domain.EventExposePendingWarnings:
		err = s.handleAdminQuery(c, f)
		if err == nil {
			return // the exposed event is the response
		}
	default:
		slog.Warn("ws unknown event", "conn", c.id, "event", f.Event)
		err = domain.ErrInvalidPayload
	}

	if err != nil {
		slog.Debug("event rejected", "conn", c.id, "event", f.Event, "err", err)
	}
	if f.AckID == "" {
		return
	}

	ack := AckPayload{Event: f.Event, Result: result, Results: results}
	if err != nil {
		ack.Result = ""
		ack.Results = nil
		ack.Error = err.Error()
	}
	if sendErr := c.Send(Message{Event: EventAck, AckID: f.AckID, Payload: ack}); sendErr != nil {
		slog.Debug("ack dropped", "conn", c.id, "event", f.Event, "err", sendErr)
	}
}

func (s *Server) handleAdminQuery(c *Conn, f Frame) error {
	if c.kind != domain.KindAdmin {
		slog.Warn("admin query from non-admin", "conn", c.id, "event", f.Event)
		return errAdminOnly
	}

	var reply Message
	switch f.Event {
	case domain.EventExposeAllConnections:
		reply = Message{Event: domain.EventAllConnectionsExposed, Payload: s.reg.ListAll()}
	case domain.EventExposeOpenRooms:
		reply = Message{Event: domain.EventOpenRoomsExposed, Payload: s.tracker.OpenRooms()}
	case domain.EventExposeAvailableRooms:
		reply = Message{Event: domain.EventAvailableRoomsExposed, Payload: s.tracker.AvailableRooms()}
	case domain.EventExposeVisitorsRooms:
		reply = Message{Event: domain.EventVisitorsRoomsExposed, Payload: s.tracker.VisitorRooms()}
	case domain.EventExposePendingWarnings:
		reply = Message{Event: domain.EventPendingWarningsExposed, Payload: s.cache.Snapshot()}
	}
	reply.AckID = f.AckID
	return c.Send(reply)
}

func decode(raw json.RawMessage, dst interface {
	Validate() error
}) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}
	return dst.Validate()
}
