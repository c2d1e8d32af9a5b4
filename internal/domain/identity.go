package domain

import "time"

type IdentityKind string

const (
	KindRoom    IdentityKind = "room"
	KindVisitor IdentityKind = "visitor"
	KindAdmin   IdentityKind = "admin"
)

// Connection is one live transport channel and the identity claim it
// presented at connect time. Identity is immutable for the lifetime of
// the connection.
type Connection struct {
	ID          string       `json:"id"`
	Kind        IdentityKind `json:"kind"`
	Name        string       `json:"name"`
	ConnectedAt time.Time    `json:"connected_at"`
}
