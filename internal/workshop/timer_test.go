package workshop

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTimerRouter(t *testing.T, budgetSeconds int) (*Router, *Store, *recordingBroadcaster, *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := NewStore(budgetSeconds)
	rec := &recordingBroadcaster{}
	clock := clockwork.NewFakeClock()
	rt := NewRouter(ctx, RouterConfig{Store: store, Broadcaster: rec, Clock: clock})
	return rt, store, rec, clock
}

func fillSeats(t *testing.T, rt *Router, roomCode string) {
	t.Helper()
	join(t, rt, roomCode, RoleDesigner, "Ann")
	join(t, rt, roomCode, RoleCoder, "Cal")
	join(t, rt, roomCode, RolePM, "Pat")
}

func remaining(room *Room) func() int {
	return func() int { return room.Snapshot().TimeRemaining }
}

func TestCountdownStartsOnDesignTransition(t *testing.T) {
	t.Parallel()

	rt, store, _, _ := newTimerRouter(t, 1800)

	join(t, rt, "AB12CD", RoleDesigner, "Ann")
	room, ok := store.Get("AB12CD")
	require.True(t, ok)
	assert.False(t, room.TimerRunning())

	join(t, rt, "AB12CD", RoleCoder, "Cal")
	join(t, rt, "AB12CD", RolePM, "Pat")
	assert.True(t, room.TimerRunning())

	// A seat overwrite during design must not spawn a second driver.
	join(t, rt, "AB12CD", RoleDesigner, "Bea")
	assert.True(t, room.TimerRunning())
	assert.Equal(t, PhaseDesign, room.Phase())
}

func TestCountdownTicksDown(t *testing.T) {
	t.Parallel()

	rt, store, _, clock := newTimerRouter(t, 1800)
	fillSeats(t, rt, "AB12CD")
	room, ok := store.Get("AB12CD")
	require.True(t, ok)

	clock.BlockUntil(1)
	clock.Advance(tickPeriod)
	require.Eventually(t, func() bool { return remaining(room)() == 1799 },
		2*time.Second, 10*time.Millisecond)

	clock.Advance(tickPeriod)
	require.Eventually(t, func() bool { return remaining(room)() == 1798 },
		2*time.Second, 10*time.Millisecond)

	assert.Equal(t, PhaseDesign, room.Phase())
	assert.True(t, room.TimerRunning())
}

func TestCountdownExpiryForcesSummary(t *testing.T) {
	t.Parallel()

	rt, store, rec, clock := newTimerRouter(t, 2)
	fillSeats(t, rt, "AB12CD")
	room, ok := store.Get("AB12CD")
	require.True(t, ok)

	clock.BlockUntil(1)
	clock.Advance(tickPeriod)
	require.Eventually(t, func() bool { return remaining(room)() == 1 },
		2*time.Second, 10*time.Millisecond)

	clock.Advance(tickPeriod)
	require.Eventually(t, func() bool { return room.Phase() == PhaseSummary },
		2*time.Second, 10*time.Millisecond)

	snap := room.Snapshot()
	assert.Equal(t, 0, snap.TimeRemaining)
	assert.False(t, room.TimerRunning())

	// The expiry broadcast itself carries the forced summary phase.
	last := rec.last(t)
	assert.Equal(t, PhaseSummary, last.Phase)
	assert.Equal(t, 0, last.TimeRemaining)

	// Further ticks change nothing once the driver has exited.
	clock.Advance(tickPeriod)
	assert.Never(t, func() bool {
		return room.Snapshot().TimeRemaining != 0 || room.Phase() != PhaseSummary
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestFinalVotesStopCountdown(t *testing.T) {
	t.Parallel()

	rt, store, _, clock := newTimerRouter(t, 1800)
	fillSeats(t, rt, "AB12CD")
	room, ok := store.Get("AB12CD")
	require.True(t, ok)
	clock.BlockUntil(1)

	require.NoError(t, rt.HandleEvent(uuid.New(), newEvent(t, EventSubmitFinalVotes,
		SubmitFinalVotesPayload{RoomCode: "AB12CD", Votes: map[int]bool{1: true}})))
	assert.False(t, room.TimerRunning())
	frozen := room.Snapshot().TimeRemaining

	clock.Advance(tickPeriod)
	assert.Never(t, func() bool {
		return room.Snapshot().TimeRemaining != frozen
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestRestartStopsCountdownAndRearms(t *testing.T) {
	t.Parallel()

	rt, store, _, clock := newTimerRouter(t, 1800)
	fillSeats(t, rt, "AB12CD")
	room, ok := store.Get("AB12CD")
	require.True(t, ok)
	clock.BlockUntil(1)

	require.NoError(t, rt.HandleEvent(uuid.New(), newEvent(t, EventRestartWorkshop,
		RestartWorkshopPayload{RoomCode: "AB12CD"})))
	assert.False(t, room.TimerRunning())
	assert.Equal(t, PhaseWaiting, room.Phase())
	assert.Equal(t, 1800, room.Snapshot().TimeRemaining)

	clock.Advance(tickPeriod)
	assert.Never(t, func() bool {
		return room.Snapshot().TimeRemaining != 1800
	}, 200*time.Millisecond, 20*time.Millisecond)

	// Refilling the seats after a restart arms a fresh countdown.
	fillSeats(t, rt, "AB12CD")
	assert.True(t, room.TimerRunning())
	assert.Equal(t, PhaseDesign, room.Phase())
}
