package pending

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_EnqueueDrainFIFO(t *testing.T) {
	c := NewCache()
	key := RoomKey("Cafe1")

	c.Enqueue(key, RoomWarning, "first")
	c.Enqueue(key, RoomWarning, "second")
	c.Enqueue(key, RoomWarning, "third")
	require.True(t, c.HasPending(key))

	got := c.Drain(key)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Payload)
	assert.Equal(t, "second", got[1].Payload)
	assert.Equal(t, "third", got[2].Payload)

	assert.False(t, c.HasPending(key))
	assert.Empty(t, c.Drain(key), "second drain finds nothing")
}

func TestCache_DrainUnknownKey(t *testing.T) {
	c := NewCache()
	assert.Empty(t, c.Drain(VisitorKey("nobody")))
	assert.False(t, c.HasPending(VisitorKey("nobody")))
}

func TestCache_KeyNamespaces(t *testing.T) {
	c := NewCache()

	// a room and a visitor sharing a name must not share a queue
	c.Enqueue(RoomKey("Ann"), RoomWarning, "warning")
	c.Enqueue(VisitorKey("Ann"), VisitorAlert, "alert")

	room := c.Drain(RoomKey("Ann"))
	require.Len(t, room, 1)
	assert.Equal(t, "warning", room[0].Payload)
	require.True(t, c.HasPending(VisitorKey("Ann")))

	ns, name := SplitKey(VisitorKey("Ann"))
	assert.Equal(t, "visitor", ns)
	assert.Equal(t, "Ann", name)
}

func TestCache_EnqueuedAtUsesClock(t *testing.T) {
	now := time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Enqueue(RoomKey("Cafe1"), RoomWarning, "w")
	got := c.Drain(RoomKey("Cafe1"))
	require.Len(t, got, 1)
	assert.Equal(t, now, got[0].EnqueuedAt)
	assert.Equal(t, RoomWarning, got[0].Kind)
}

func TestCache_DrainMatching(t *testing.T) {
	c := NewCache()
	c.Enqueue(RoomKey("Cafe1"), RoomWarning, "a")
	c.Enqueue(RoomKey("Cafe2"), RoomWarning, "b")
	c.Enqueue(VisitorKey("Bob"), VisitorAlert, "c")

	got := c.DrainMatching(func(key string) bool { return key == RoomKey("Cafe2") })
	require.Len(t, got, 1)
	require.Len(t, got[RoomKey("Cafe2")], 1)

	assert.True(t, c.HasPending(RoomKey("Cafe1")), "rejected keys untouched")
	assert.True(t, c.HasPending(VisitorKey("Bob")))
}

func TestCache_SnapshotNonDestructive(t *testing.T) {
	c := NewCache()
	c.Enqueue(RoomKey("Cafe1"), RoomWarning, "a")
	c.Enqueue(RoomKey("Cafe1"), RoomWarning, "b")

	snap := c.Snapshot()
	require.Len(t, snap[RoomKey("Cafe1")], 2)
	assert.True(t, c.HasPending(RoomKey("Cafe1")))

	snap[RoomKey("Cafe1")][0].Payload = "mutated"
	assert.Equal(t, "a", c.Drain(RoomKey("Cafe1"))[0].Payload, "snapshot is a copy")
}

func TestCache_ConcurrentEnqueueThenDrain(t *testing.T) {
	c := NewCache()
	key := VisitorKey("Bob")
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Enqueue(key, VisitorAlert, fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	got := c.Drain(key)
	assert.Len(t, got, n, "no loss or duplication")
}

func TestCache_EnqueueDuringDrainNeverLoses(t *testing.T) {
	c := NewCache()
	key := RoomKey("Cafe1")
	const n = 500

	var wg sync.WaitGroup
	var mu sync.Mutex
	collected := 0

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			c.Enqueue(key, RoomWarning, i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			batch := c.Drain(key)
			mu.Lock()
			collected += len(batch)
			mu.Unlock()
		}
	}()
	wg.Wait()

	collected += len(c.Drain(key))
	assert.Equal(t, n, collected, "an entry enqueued during a drain is in some batch or the final drain")
}
