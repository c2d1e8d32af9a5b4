package registry

import (
	"sync"
	"time"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
)

type nameKey struct {
	kind domain.IdentityKind
	name string
}

// Registry owns the live Connection records, keyed by connection id.
// Multiple connections may share an identity name (e.g. one visitor
// across several tabs) unless the uniqueness policy is enabled.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*domain.Connection
	order  []string // insertion order, for ListAll snapshots
	byName map[nameKey]map[string]struct{}

	unique bool
	clock  func() time.Time
}

type Option func(*Registry)

// WithUniqueIdentities makes Register fail with ErrDuplicateIdentity
// when a live connection already claims the same kind and name.
func WithUniqueIdentities() Option {
	return func(r *Registry) { r.unique = true }
}

func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		conns:  make(map[string]*domain.Connection),
		byName: make(map[nameKey]map[string]struct{}),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Register(id string, kind domain.IdentityKind, name string) (domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := nameKey{kind: kind, name: name}
	if r.unique {
		if ids := r.byName[key]; len(ids) > 0 {
			if _, same := ids[id]; !same {
				return domain.Connection{}, domain.ErrDuplicateIdentity
			}
		}
	}

	if prev, ok := r.conns[id]; ok {
		// re-register with the same id is a no-op for the record itself
		return *prev, nil
	}

	conn := &domain.Connection{
		ID:          id,
		Kind:        kind,
		Name:        name,
		ConnectedAt: r.clock(),
	}
	r.conns[id] = conn
	r.order = append(r.order, id)

	ids, ok := r.byName[key]
	if !ok {
		ids = make(map[string]struct{})
		r.byName[key] = ids
	}
	ids[id] = struct{}{}

	return *conn, nil
}

// Deregister removes the record. Idempotent: absent ids are ignored.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return
	}
	delete(r.conns, id)

	key := nameKey{kind: conn.Kind, name: conn.Name}
	if ids, ok := r.byName[key]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byName, key)
		}
	}

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Find reports the connection ids currently claiming the identity; an
// empty result means the identity is unreachable.
func (r *Registry) Find(kind domain.IdentityKind, name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byName[nameKey{kind: kind, name: name}]
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Get(id string) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, false
	}
	return *conn, true
}

// ListAll returns a snapshot of every live connection in insertion order.
func (r *Registry) ListAll() []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Connection, 0, len(r.order))
	for _, id := range r.order {
		if conn, ok := r.conns[id]; ok {
			out = append(out, *conn)
		}
	}
	return out
}
