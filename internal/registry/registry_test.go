package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imago-UoM-Student-Software-Company/socket.io.server/internal/domain"
)

func TestRegistry_RegisterFind(t *testing.T) {
	r := New()

	_, err := r.Register("c1", domain.KindRoom, "Cafe1")
	require.NoError(t, err)
	_, err = r.Register("c2", domain.KindVisitor, "Ann")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"c1"}, r.Find(domain.KindRoom, "Cafe1"))
	assert.ElementsMatch(t, []string{"c2"}, r.Find(domain.KindVisitor, "Ann"))
	assert.Empty(t, r.Find(domain.KindVisitor, "Cafe1"), "names are scoped by kind")
}

func TestRegistry_SharedNameAcrossConnections(t *testing.T) {
	r := New()

	// same visitor across two tabs is allowed by default
	_, err := r.Register("tab1", domain.KindVisitor, "Ann")
	require.NoError(t, err)
	_, err = r.Register("tab2", domain.KindVisitor, "Ann")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"tab1", "tab2"}, r.Find(domain.KindVisitor, "Ann"))
}

func TestRegistry_UniqueIdentitiesPolicy(t *testing.T) {
	r := New(WithUniqueIdentities())

	_, err := r.Register("c1", domain.KindRoom, "Cafe1")
	require.NoError(t, err)

	_, err = r.Register("c2", domain.KindRoom, "Cafe1")
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	// same connection re-registering is not a duplicate
	_, err = r.Register("c1", domain.KindRoom, "Cafe1")
	assert.NoError(t, err)

	r.Deregister("c1")
	_, err = r.Register("c2", domain.KindRoom, "Cafe1")
	assert.NoError(t, err)
}

func TestRegistry_DeregisterIdempotent(t *testing.T) {
	r := New()

	_, err := r.Register("c1", domain.KindVisitor, "Bob")
	require.NoError(t, err)

	r.Deregister("c1")
	r.Deregister("c1")
	r.Deregister("never-registered")

	assert.Empty(t, r.Find(domain.KindVisitor, "Bob"))
	_, ok := r.Get("c1")
	assert.False(t, ok)
}

func TestRegistry_ListAllInsertionOrder(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New(WithClock(func() time.Time { return now }))

	for _, id := range []string{"a", "b", "c"} {
		_, err := r.Register(id, domain.KindVisitor, "v-"+id)
		require.NoError(t, err)
	}
	r.Deregister("b")

	all := r.ListAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)
	assert.Equal(t, now, all[0].ConnectedAt)
}
