package ws

import (
	"encoding/json"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
)

const EventAck = "ack"

// Frame is one inbound client message. Payload stays raw until the
// event name selects its concrete type.
type Frame struct {
	Event   string          `json:"event"`
	AckID   string          `json:"ackId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is one outbound server message.
type Message struct {
	Event   string `json:"event"`
	AckID   string `json:"ackId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// AckPayload reports the outcome of an inbound event back to its
// sender. Results carries the per-room outcomes of a multi-room
// exposure warning.
type AckPayload struct {
	Event   string                      `json:"event"`
	Result  domain.AckResult            `json:"result,omitempty"`
	Results map[string]domain.AckResult `json:"results,omitempty"`
	Error   string                      `json:"error,omitempty"`
}
