package workshop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore(1800)
	first := store.GetOrCreate("AB12CD")
	second := store.GetOrCreate("AB12CD")

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, PhaseWaiting, first.Phase())
	assert.Equal(t, 1800, first.Snapshot().TimeRemaining)
}

func TestStoreConcurrentCreateYieldsSingleRoom(t *testing.T) {
	t.Parallel()

	store := NewStore(1800)
	const goroutines = 32

	rooms := make([]*Room, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = store.GetOrCreate("AB12CD")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.Count())
	for i := 1; i < goroutines; i++ {
		assert.Same(t, rooms[0], rooms[i])
	}
}

func TestStoreRoomsAreIsolated(t *testing.T) {
	t.Parallel()

	store := NewStore(1800)
	a := store.GetOrCreate("AAAAAA")
	b := store.GetOrCreate("BBBBBB")
	require.NotSame(t, a, b)

	a.mu.Lock()
	a.participants[RoleDesigner] = "Ann"
	a.state.Wishlist = []int{1, 2}
	a.mu.Unlock()

	snap := b.Snapshot()
	assert.Empty(t, snap.Players)
	assert.Empty(t, snap.Wishlist)
	assert.Equal(t, 2, store.Count())
}

func TestStoreGetDoesNotCreate(t *testing.T) {
	t.Parallel()

	store := NewStore(1800)
	_, ok := store.Get("MISSING")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())
}

func TestStoreReset(t *testing.T) {
	t.Parallel()

	store := NewStore(300)
	room := store.GetOrCreate("AB12CD")

	room.mu.Lock()
	room.participants[RoleDesigner] = "Ann"
	room.state.Phase = PhaseDecision
	room.state.Wishlist = []int{1, 3}
	room.state.TimeRemaining = 42
	room.mu.Unlock()

	store.Reset("AB12CD")

	snap := room.Snapshot()
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Empty(t, snap.Players)
	assert.Empty(t, snap.Wishlist)
	assert.Equal(t, 300, snap.TimeRemaining)

	// Resetting an unknown code must not panic or create the room.
	store.Reset("MISSING")
	assert.Equal(t, 1, store.Count())
}
