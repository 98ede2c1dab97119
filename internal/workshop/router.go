package workshop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/scopesprint/scopesprint/internal/catalog"
)

// Lifecycle event names published to the message bus when one is configured.
const (
	LifecycleStarted      = "started"
	LifecyclePhaseChanged = "phase_changed"
	LifecycleCompleted    = "completed"
	LifecycleRestarted    = "restarted"
)

// Broadcaster delivers snapshots to every connection bound to a room. Both
// methods must be non-blocking: the router may call them while holding a
// room's lock, and a slow consumer must never stall state mutation.
type Broadcaster interface {
	Broadcast(roomCode string, snap Snapshot)
	SendError(connID uuid.UUID, message string)
}

// Publisher emits workshop lifecycle events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, roomCode string, event string, snap Snapshot) error
}

// Archive is a write-only observability sink for reflections and completed
// workshop summaries. Room state itself never touches storage.
type Archive interface {
	SaveReflection(ctx context.Context, role Role, reflection string) error
	SaveSummary(ctx context.Context, roomCode string, snap Snapshot) error
}

// Router applies inbound client events to rooms and triggers broadcasts.
// Guard evaluation, state mutation and snapshot capture happen under the
// target room's lock, giving each room a single serialization point that the
// countdown driver competes for as well.
type Router struct {
	store       *Store
	broadcaster Broadcaster
	clock       clockwork.Clock
	publisher   Publisher
	archive     Archive
	baseCtx     context.Context
}

// RouterConfig wires a Router's collaborators. Publisher and Archive are
// optional.
type RouterConfig struct {
	Store       *Store
	Broadcaster Broadcaster
	Clock       clockwork.Clock
	Publisher   Publisher
	Archive     Archive
}

// NewRouter creates an event router. ctx bounds the lifetime of every
// countdown driver the router starts.
func NewRouter(ctx context.Context, cfg RouterConfig) *Router {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Router{
		store:       cfg.Store,
		broadcaster: cfg.Broadcaster,
		clock:       clock,
		publisher:   cfg.Publisher,
		archive:     cfg.Archive,
		baseCtx:     ctx,
	}
}

// HandleEvent decodes and applies one inbound event. Malformed payloads are
// reported back to the originating connection only; events referencing an
// unknown room are absorbed as no-ops, since clients may race ahead of room
// creation. Every mutating event results in exactly one broadcast.
func (rt *Router) HandleEvent(connID uuid.UUID, ev Event) error {
	payload, err := ParseEventPayload(ev)
	if err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", connID.String()).
			Str("event_type", string(ev.Type)).
			Msg("rejected malformed event")
		rt.broadcaster.SendError(connID, "invalid payload")
		return err
	}

	switch p := payload.(type) {
	case JoinRoomPayload:
		return rt.handleJoinRoom(connID, p)
	case SubmitWishlistPayload:
		rt.handleSubmitWishlist(p)
	case SubmitCoderFeedbackPayload:
		rt.handleSubmitCoderFeedback(p)
	case SubmitPMDecisionsPayload:
		rt.handleSubmitPMDecisions(p)
	case SubmitFinalVotesPayload:
		rt.handleSubmitFinalVotes(p)
	case SubmitReflectionPayload:
		rt.handleSubmitReflection(p)
	case RestartWorkshopPayload:
		rt.handleRestartWorkshop(p)
	}
	return nil
}

func (rt *Router) handleJoinRoom(connID uuid.UUID, p JoinRoomPayload) error {
	if !p.Role.Valid() {
		rt.broadcaster.SendError(connID, fmt.Sprintf("unknown role %q", p.Role))
		return fmt.Errorf("unknown role %q", p.Role)
	}

	room := rt.store.GetOrCreate(p.RoomCode)

	room.mu.Lock()
	if prev, taken := room.participants[p.Role]; taken && prev != p.Name {
		// Last join wins; the prior occupant's connection stays subscribed
		// and keeps receiving snapshots.
		log.Warn().
			Str("room_code", room.Code).
			Str("role", string(p.Role)).
			Str("evicted", prev).
			Str("claimed_by", p.Name).
			Msg("role seat overwritten")
	}
	room.participants[p.Role] = p.Name

	started := false
	if room.state.Phase == PhaseWaiting &&
		advance(room.state.Phase, room.state, room.participants) == PhaseDesign {
		room.state.Phase = PhaseDesign
		if room.timer == nil {
			rt.startCountdownLocked(room)
			started = true
		}
	}
	snap := room.snapshotLocked()
	rt.broadcaster.Broadcast(room.Code, snap)
	room.mu.Unlock()

	log.Info().
		Str("room_code", room.Code).
		Str("role", string(p.Role)).
		Str("name", p.Name).
		Str("phase", string(snap.Phase)).
		Msg("participant joined")

	if started {
		rt.publishLifecycle(room.Code, LifecycleStarted, snap)
	}
	return nil
}

func (rt *Router) handleSubmitWishlist(p SubmitWishlistPayload) {
	room, ok := rt.store.Get(p.RoomCode)
	if !ok {
		rt.logUnknownRoom(EventSubmitWishlist, p.RoomCode)
		return
	}

	for _, id := range p.Wishlist {
		if _, ok := catalog.ByID(id); !ok {
			log.Debug().Int("feature_id", id).Str("room_code", p.RoomCode).
				Msg("wishlist references id outside the catalog")
		}
	}

	room.mu.Lock()
	wishlist := make([]int, len(p.Wishlist))
	copy(wishlist, p.Wishlist)
	room.state.Wishlist = wishlist

	// A write landing after the phase already moved past design is a late
	// overwrite: the list updates, the phase stays where it is.
	prev := room.state.Phase
	room.state.Phase = advance(prev, room.state, room.participants)
	snap := room.snapshotLocked()
	rt.broadcaster.Broadcast(room.Code, snap)
	room.mu.Unlock()

	log.Info().
		Str("room_code", room.Code).
		Int("features", len(wishlist)).
		Str("phase", string(snap.Phase)).
		Msg("wishlist submitted")

	if snap.Phase != prev {
		rt.publishLifecycle(room.Code, LifecyclePhaseChanged, snap)
	}
}

func (rt *Router) handleSubmitCoderFeedback(p SubmitCoderFeedbackPayload) {
	room, ok := rt.store.Get(p.RoomCode)
	if !ok {
		rt.logUnknownRoom(EventSubmitCoderFeedback, p.RoomCode)
		return
	}

	feedback := make(map[int]CoderAssessment, len(p.Feedback))
	for id, fb := range p.Feedback {
		if !catalog.ValidEffort(fb.Effort) {
			log.Debug().Int("feature_id", id).Str("effort", fb.Effort).
				Msg("effort value outside the known vocabulary")
		}
		feedback[id] = fb
	}

	room.mu.Lock()
	room.state.CoderFeedback = feedback
	prev := room.state.Phase
	room.state.Phase = advance(prev, room.state, room.participants)
	snap := room.snapshotLocked()
	rt.broadcaster.Broadcast(room.Code, snap)
	room.mu.Unlock()

	log.Info().
		Str("room_code", room.Code).
		Int("assessed", len(feedback)).
		Str("phase", string(snap.Phase)).
		Msg("coder feedback submitted")

	if snap.Phase != prev {
		rt.publishLifecycle(room.Code, LifecyclePhaseChanged, snap)
	}
}

func (rt *Router) handleSubmitPMDecisions(p SubmitPMDecisionsPayload) {
	room, ok := rt.store.Get(p.RoomCode)
	if !ok {
		rt.logUnknownRoom(EventSubmitPMDecisions, p.RoomCode)
		return
	}

	decisions := make(map[int]PMDecision, len(p.Decisions))
	for id, d := range p.Decisions {
		if !catalog.ValidPriority(d.Priority) {
			log.Debug().Int("feature_id", id).Str("priority", d.Priority).
				Msg("priority value outside the known vocabulary")
		}
		decisions[id] = d
	}

	room.mu.Lock()
	room.state.PMDecisions = decisions
	prev := room.state.Phase
	room.state.Phase = advance(prev, room.state, room.participants)
	snap := room.snapshotLocked()
	rt.broadcaster.Broadcast(room.Code, snap)
	room.mu.Unlock()

	log.Info().
		Str("room_code", room.Code).
		Int("decided", len(decisions)).
		Str("phase", string(snap.Phase)).
		Msg("pm decisions submitted")

	if snap.Phase != prev {
		rt.publishLifecycle(room.Code, LifecyclePhaseChanged, snap)
	}
}

func (rt *Router) handleSubmitFinalVotes(p SubmitFinalVotesPayload) {
	room, ok := rt.store.Get(p.RoomCode)
	if !ok {
		rt.logUnknownRoom(EventSubmitFinalVotes, p.RoomCode)
		return
	}

	room.mu.Lock()
	room.state.FinalScope = partitionVotes(p.Votes)
	prev := room.state.Phase
	room.state.Phase = PhaseSummary
	room.stopTimerLocked()
	snap := room.snapshotLocked()
	rt.broadcaster.Broadcast(room.Code, snap)
	room.mu.Unlock()

	log.Info().
		Str("room_code", room.Code).
		Int("kept", len(snap.FinalScope.Kept)).
		Int("cut", len(snap.FinalScope.Cut)).
		Msg("final votes submitted")

	if prev != PhaseSummary {
		rt.publishLifecycle(room.Code, LifecycleCompleted, snap)
		rt.archiveSummary(room.Code, snap)
	}
}

func (rt *Router) handleSubmitReflection(p SubmitReflectionPayload) {
	// Observability only: no state mutation, no broadcast.
	log.Info().
		Str("role", string(p.Role)).
		Int("length", len(p.Reflection)).
		Msg("reflection submitted")

	if rt.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.archive.SaveReflection(ctx, p.Role, p.Reflection); err != nil {
			log.Error().Err(err).Str("role", string(p.Role)).Msg("failed to archive reflection")
		}
	}()
}

func (rt *Router) handleRestartWorkshop(p RestartWorkshopPayload) {
	room, ok := rt.store.Get(p.RoomCode)
	if !ok {
		rt.logUnknownRoom(EventRestartWorkshop, p.RoomCode)
		return
	}

	room.mu.Lock()
	room.stopTimerLocked()
	room.resetLocked(rt.store.budgetSeconds)
	snap := room.snapshotLocked()
	rt.broadcaster.Broadcast(room.Code, snap)
	room.mu.Unlock()

	log.Info().Str("room_code", room.Code).Msg("workshop restarted")
	rt.publishLifecycle(room.Code, LifecycleRestarted, snap)
}

func (rt *Router) logUnknownRoom(ev EventType, code string) {
	log.Debug().
		Str("room_code", code).
		Str("event_type", string(ev)).
		Msg("event for unknown room ignored")
}

func (rt *Router) publishLifecycle(roomCode, event string, snap Snapshot) {
	if rt.publisher == nil {
		return
	}
	if err := rt.publisher.Publish(rt.baseCtx, roomCode, event, snap); err != nil {
		log.Error().
			Err(err).
			Str("room_code", roomCode).
			Str("event", event).
			Msg("failed to publish lifecycle event")
	}
}

func (rt *Router) archiveSummary(roomCode string, snap Snapshot) {
	if rt.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.archive.SaveSummary(ctx, roomCode, snap); err != nil {
			log.Error().Err(err).Str("room_code", roomCode).Msg("failed to archive summary")
		}
	}()
}
