package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApproval(id, itemID, principal string) *Approval {
	return &Approval{
		ID:     id,
		ItemID: itemID,
		Owner:  Identity{PrincipalID: principal},
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry(0)
	a := newApproval("a1", "item-1", "alice")
	r.Push(a)

	got, ok := r.Pop(a.Owner, "item-1")
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = r.Pop(a.Owner, "item-1")
	assert.False(t, ok, "second pop for the same key must miss")
}

func TestRegistryPopMissIsNormal(t *testing.T) {
	r := NewRegistry(0)
	_, ok := r.Pop(Identity{PrincipalID: "alice"}, "never-pushed")
	assert.False(t, ok)
}

func TestRegistryOwnerSeparation(t *testing.T) {
	// Same item id pushed by two different principals.
	r := NewRegistry(0)
	a := newApproval("a1", "item-1", "alice")
	b := newApproval("b1", "item-1", "bob")
	r.Push(a)
	r.Push(b)

	got, ok := r.Pop(Identity{PrincipalID: "alice"}, "item-1")
	require.True(t, ok)
	assert.Equal(t, "a1", got.ID)

	got, ok = r.Pop(Identity{PrincipalID: "bob"}, "item-1")
	require.True(t, ok)
	assert.Equal(t, "b1", got.ID)
}

func TestRegistryOffTheRecordEquivalence(t *testing.T) {
	// An approval pushed off the record belongs to the same principal.
	r := NewRegistry(0)
	r.Push(&Approval{
		ID:     "a1",
		ItemID: "item-1",
		Owner:  Identity{PrincipalID: "alice", OffTheRecord: true},
	})

	got, ok := r.Pop(Identity{PrincipalID: "alice"}, "item-1")
	require.True(t, ok)
	assert.Equal(t, "a1", got.ID)
}

func TestRegistryDuplicatesPopInInsertionOrder(t *testing.T) {
	r := NewRegistry(0)
	r.Push(newApproval("first", "item-1", "alice"))
	r.Push(newApproval("second", "item-1", "alice"))
	assert.Equal(t, 2, r.Len())

	got, ok := r.Pop(Identity{PrincipalID: "alice"}, "item-1")
	require.True(t, ok)
	assert.Equal(t, "first", got.ID)

	got, ok = r.Pop(Identity{PrincipalID: "alice"}, "item-1")
	require.True(t, ok)
	assert.Equal(t, "second", got.ID)
}

func TestRegistryExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewRegistry(time.Minute)
	r.now = func() time.Time { return now }

	r.Push(newApproval("old", "item-1", "alice"))

	now = now.Add(30 * time.Second)
	r.Push(newApproval("fresh", "item-2", "alice"))
	assert.Equal(t, 2, r.Len())

	// The first entry ages out, the second survives.
	now = now.Add(45 * time.Second)
	_, ok := r.Pop(Identity{PrincipalID: "alice"}, "item-1")
	assert.False(t, ok)

	got, ok := r.Pop(Identity{PrincipalID: "alice"}, "item-2")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.ID)
}

func TestRegistryZeroTTLNeverExpires(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewRegistry(0)
	r.now = func() time.Time { return now }

	r.Push(newApproval("a1", "item-1", "alice"))
	now = now.Add(1000 * time.Hour)

	_, ok := r.Pop(Identity{PrincipalID: "alice"}, "item-1")
	assert.True(t, ok)
}
