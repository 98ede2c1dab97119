package workshop

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// tickPeriod is the fixed countdown resolution.
const tickPeriod = time.Second

// countdown owns the cancellation of one room's driver goroutine. Stopping
// an already-stopped countdown is a no-op; expiry, restart and process
// shutdown are all competing cancellation triggers.
type countdown struct {
	cancel context.CancelFunc
}

func (c *countdown) stop() {
	c.cancel()
}

// startCountdownLocked launches the per-room countdown driver. Callers must
// hold room.mu and guarantee no driver is already running; the driver is
// started exactly once per session, on the waiting-to-design transition.
func (rt *Router) startCountdownLocked(room *Room) {
	ctx, cancel := context.WithCancel(rt.baseCtx)
	c := &countdown{cancel: cancel}
	room.timer = c
	go rt.runCountdown(ctx, room, c)

	log.Info().
		Str("room_code", room.Code).
		Int("budget_sec", room.state.TimeRemaining).
		Msg("countdown started")
}

// runCountdown decrements the room's remaining time once per second and
// broadcasts the snapshot after every tick. At zero it forces the phase to
// summary regardless of workflow progress and stops itself.
func (rt *Router) runCountdown(ctx context.Context, room *Room, c *countdown) {
	ticker := rt.clock.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.Chan():
			room.mu.Lock()
			if room.timer != c {
				// Cancelled, or replaced by a restart, between the tick
				// firing and the lock.
				room.mu.Unlock()
				return
			}

			if room.state.TimeRemaining > 0 {
				room.state.TimeRemaining--
			}
			expired := room.state.TimeRemaining <= 0
			if expired {
				room.state.TimeRemaining = 0
				room.state.Phase = PhaseSummary
				room.stopTimerLocked()
			}
			snap := room.snapshotLocked()
			rt.broadcaster.Broadcast(room.Code, snap)
			room.mu.Unlock()

			if expired {
				log.Info().
					Str("room_code", room.Code).
					Msg("countdown expired, workshop forced to summary")
				rt.publishLifecycle(room.Code, LifecycleCompleted, snap)
				rt.archiveSummary(room.Code, snap)
				return
			}
		}
	}
}
