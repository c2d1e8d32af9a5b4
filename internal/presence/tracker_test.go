package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/group"
	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/registry"
)

func newFixture(t *testing.T) (*registry.Registry, *group.Manager, *Tracker) {
	t.Helper()
	reg := registry.New()
	groups := group.NewManager()
	return reg, groups, NewTracker(reg, groups)
}

func TestTracker_IsOpen(t *testing.T) {
	reg, groups, tr := newFixture(t)

	assert.False(t, tr.IsOpen("Cafe1"), "no connection at all")

	_, err := reg.Register("room1", domain.KindRoom, "Cafe1")
	require.NoError(t, err)
	assert.False(t, tr.IsOpen("Cafe1"), "registered but not joined to own group")

	groups.Join("room1", "Cafe1")
	assert.True(t, tr.IsOpen("Cafe1"))

	reg.Deregister("room1")
	assert.False(t, tr.IsOpen("Cafe1"), "false immediately after disconnect, stale membership notwithstanding")
}

func TestTracker_VisitorGroupDoesNotOpenRoom(t *testing.T) {
	reg, groups, tr := newFixture(t)

	// a visitor named like the room joining the group must not open it
	_, err := reg.Register("v1", domain.KindVisitor, "Cafe1")
	require.NoError(t, err)
	groups.Join("v1", "Cafe1")

	assert.False(t, tr.IsOpen("Cafe1"))
}

func TestTracker_Occupancy(t *testing.T) {
	reg, groups, tr := newFixture(t)

	_, err := reg.Register("room1", domain.KindRoom, "Cafe1")
	require.NoError(t, err)
	_, err = reg.Register("v1", domain.KindVisitor, "Ann")
	require.NoError(t, err)
	_, err = reg.Register("v2", domain.KindVisitor, "Bob")
	require.NoError(t, err)

	assert.Equal(t, 0, tr.Occupancy("Cafe1"), "room not open")

	groups.Join("room1", "Cafe1")
	assert.Equal(t, 0, tr.Occupancy("Cafe1"), "own connection does not count")

	groups.Join("v1", "Cafe1")
	groups.Join("v2", "Cafe1")
	assert.Equal(t, 2, tr.Occupancy("Cafe1"))

	groups.Leave("v2", "Cafe1")
	assert.Equal(t, 1, tr.Occupancy("Cafe1"))

	// a disconnected visitor with stale membership is not counted
	groups.Join("v2", "Cafe1")
	reg.Deregister("v2")
	assert.Equal(t, 1, tr.Occupancy("Cafe1"))
}

func TestTracker_OpenRoomsSnapshot(t *testing.T) {
	reg, groups, tr := newFixture(t)

	_, err := reg.Register("r1", domain.KindRoom, "Cafe1")
	require.NoError(t, err)
	_, err = reg.Register("r2", domain.KindRoom, "Cafe2")
	require.NoError(t, err)
	groups.Join("r1", "Cafe1")

	open := tr.OpenRooms()
	require.Len(t, open, 1)
	assert.Equal(t, OpenRoom{Room: "Cafe1", ConnID: "r1"}, open[0])
}

func TestTracker_AvailableRoomsAndVisitors(t *testing.T) {
	reg, groups, tr := newFixture(t)

	_, err := reg.Register("r1", domain.KindRoom, "Cafe2")
	require.NoError(t, err)
	_, err = reg.Register("r2", domain.KindRoom, "Cafe1")
	require.NoError(t, err)
	_, err = reg.Register("v1", domain.KindVisitor, "Ann")
	require.NoError(t, err)
	_, err = reg.Register("v2", domain.KindVisitor, "Ann")
	require.NoError(t, err)
	groups.Join("r1", "Cafe2")

	assert.Equal(t, []string{"Cafe1", "Cafe2"}, tr.AvailableRooms(), "open or not, sorted")
	assert.Equal(t, []string{"Ann"}, tr.Visitors(), "deduplicated")
}

func TestTracker_VisitorRooms(t *testing.T) {
	reg, groups, tr := newFixture(t)

	_, err := reg.Register("v1", domain.KindVisitor, "Ann")
	require.NoError(t, err)
	groups.Join("v1", "Cafe1")
	groups.Join("v1", "Cafe2")

	got := tr.VisitorRooms()
	assert.Equal(t, []string{"Cafe1", "Cafe2"}, got["Ann"])
}
