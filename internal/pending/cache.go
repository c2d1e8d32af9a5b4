package pending

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Kind tags what a queued entry carries.
type Kind string

const (
	RoomWarning  Kind = "roomWarning"
	VisitorAlert Kind = "visitorAlert"
)

// RoomKey and VisitorKey namespace target keys so a room and a visitor
// sharing a name never share a queue.
func RoomKey(room string) string       { return "room:" + room }
func VisitorKey(visitor string) string { return "visitor:" + visitor }

// SplitKey returns the kind namespace and the bare identity name.
func SplitKey(key string) (ns, name string) {
	ns, name, _ = strings.Cut(key, ":")
	return ns, name
}

// Entry is one queued message awaiting an unreachable target.
type Entry struct {
	Target     string    `json:"target"`
	Kind       Kind      `json:"kind"`
	Payload    any       `json:"payload"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type queue struct {
	mu      sync.Mutex
	entries []Entry
}

// Cache maps target keys to FIFO queues of entries. Queues grow without
// bound until drained; there is no expiry. Drains are atomic per key:
// an entry enqueued during a drain is either part of the batch or stays
// for the next one, never lost.
type Cache struct {
	mu     sync.RWMutex
	queues map[string]*queue
	clock  func() time.Time
}

type Option func(*Cache)

func WithClock(clock func() time.Time) Option {
	return func(c *Cache) { c.clock = clock }
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		queues: make(map[string]*queue),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) get(key string, create bool) *queue {
	c.mu.RLock()
	q, ok := c.queues[key]
	c.mu.RUnlock()
	if ok || !create {
		return q
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok = c.queues[key]; ok {
		return q
	}
	q = &queue{}
	c.queues[key] = q
	return q
}

func (c *Cache) Enqueue(target string, kind Kind, payload any) {
	q := c.get(target, true)
	q.mu.Lock()
	q.entries = append(q.entries, Entry{
		Target:     target,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: c.clock(),
	})
	q.mu.Unlock()
}

func (c *Cache) HasPending(target string) bool {
	q := c.get(target, false)
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) > 0
}

// Drain atomically removes and returns all entries for the target, in
// enqueue order.
func (c *Cache) Drain(target string) []Entry {
	q := c.get(target, false)
	if q == nil {
		return nil
	}
	q.mu.Lock()
	out := q.entries
	q.entries = nil
	q.mu.Unlock()
	return out
}

// DrainMatching drains every key the predicate accepts. This is the
// reconciliation primitive: the caller passes a reachability check and
// gets back only the queues whose target can be delivered to now. Keys
// the predicate rejects are untouched, so their FIFO order is
// preserved even if something is enqueued mid-pass.
func (c *Cache) DrainMatching(pred func(target string) bool) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, key := range c.Keys() {
		if !pred(key) {
			continue
		}
		if entries := c.Drain(key); len(entries) > 0 {
			out[key] = entries
		}
	}
	return out
}

// DrainAll removes and returns everything.
func (c *Cache) DrainAll() map[string][]Entry {
	return c.DrainMatching(func(string) bool { return true })
}

// Snapshot returns a non-destructive copy of all queues, for
// diagnostics only.
func (c *Cache) Snapshot() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, key := range c.Keys() {
		q := c.get(key, false)
		if q == nil {
			continue
		}
		q.mu.Lock()
		if len(q.entries) > 0 {
			out[key] = append([]Entry(nil), q.entries...)
		}
		q.mu.Unlock()
	}
	return out
}

func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.queues))
	for key := range c.queues {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
