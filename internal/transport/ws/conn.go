package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
)

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 256
)

var errSendQueueFull = errors.New("send queue full")

// Conn wraps one websocket channel with its identity claim and a
// buffered outbound queue drained by the write pump. Send never blocks
// on the socket.
type Conn struct {
	id   string
	kind domain.IdentityKind
	name string

	ws        *websocket.Conn
	send      chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newConn(id string, kind domain.IdentityKind, name string, ws *websocket.Conn) *Conn {
	return &Conn{
		id:     id,
		kind:   kind,
		name:   name,
		ws:     ws,
		send:   make(chan Message, sendQueueSize),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ID() string                { return c.id }
func (c *Conn) Kind() domain.IdentityKind { return c.kind }
func (c *Conn) Name() string              { return c.name }

func (c *Conn) Send(msg Message) error {
	select {
	case <-c.closed:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errSendQueueFull
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.ws.Close()
}

func (c *Conn) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
