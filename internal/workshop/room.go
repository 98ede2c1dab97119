package workshop

import "sync"

// Room is one isolated workshop session keyed by a short code. All mutation
// of a room happens with mu held, so concurrent events for the same room
// apply one at a time while independent rooms proceed in parallel. Rooms are
// created lazily on first reference and retained for the process lifetime;
// restart resets them in place without changing identity.
type Room struct {
	Code string

	mu           sync.Mutex
	participants map[Role]string
	state        GameState
	timer        *countdown
}

func newRoom(code string, budgetSeconds int) *Room {
	return &Room{
		Code:         code,
		participants: make(map[Role]string),
		state:        NewGameState(budgetSeconds),
	}
}

// Snapshot returns a deep copy of the room's current state plus players.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Phase returns the room's current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Phase
}

// TimerRunning reports whether a countdown driver is active for the room.
func (r *Room) TimerRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}

// snapshotLocked deep-copies state so broadcasts never alias live maps.
// Callers must hold mu.
func (r *Room) snapshotLocked() Snapshot {
	snap := Snapshot{
		GameState: GameState{
			Phase:         r.state.Phase,
			Wishlist:      make([]int, len(r.state.Wishlist)),
			CoderFeedback: make(map[int]CoderAssessment, len(r.state.CoderFeedback)),
			PMDecisions:   make(map[int]PMDecision, len(r.state.PMDecisions)),
			FinalScope: FinalScope{
				Kept: make([]int, len(r.state.FinalScope.Kept)),
				Cut:  make([]int, len(r.state.FinalScope.Cut)),
			},
			TimeRemaining: r.state.TimeRemaining,
		},
		Players: make(map[Role]string, len(r.participants)),
	}
	copy(snap.Wishlist, r.state.Wishlist)
	copy(snap.FinalScope.Kept, r.state.FinalScope.Kept)
	copy(snap.FinalScope.Cut, r.state.FinalScope.Cut)
	for id, fb := range r.state.CoderFeedback {
		snap.CoderFeedback[id] = fb
	}
	for id, d := range r.state.PMDecisions {
		snap.PMDecisions[id] = d
	}
	for role, name := range r.participants {
		snap.Players[role] = name
	}
	return snap
}

// resetLocked reinitializes state and participants without touching the
// room's identity. Callers must hold mu and stop the timer first.
func (r *Room) resetLocked(budgetSeconds int) {
	r.state = NewGameState(budgetSeconds)
	r.participants = make(map[Role]string)
}

// stopTimerLocked cancels the countdown driver if one is running. Safe to
// call when no driver is active; expiry, restart and shutdown all race
// through here. Callers must hold mu.
func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.stop()
		r.timer = nil
	}
}
