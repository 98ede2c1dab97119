package workshop

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store is the process-wide room registry. It is the only piece of global
// mutable state; all access goes through GetOrCreate/Get/Reset so that
// concurrent first joins for an unseen code can never produce two distinct
// Room instances.
type Store struct {
	mu            sync.RWMutex
	rooms         map[string]*Room
	budgetSeconds int
}

// NewStore returns an empty registry. budgetSeconds is the session countdown
// each fresh or reset room starts from.
func NewStore(budgetSeconds int) *Store {
	return &Store{
		rooms:         make(map[string]*Room),
		budgetSeconds: budgetSeconds,
	}
}

// GetOrCreate returns the room for code, registering a fresh one in the
// waiting phase if the code has never been seen.
func (s *Store) GetOrCreate(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[code]; ok {
		return room
	}

	room := newRoom(code, s.budgetSeconds)
	s.rooms[code] = room
	log.Info().Str("room_code", code).Msg("room created")
	return room
}

// Get returns the room for code if it exists.
func (s *Store) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

// Reset reinitializes a room's state and participants in place, cancelling
// any running countdown. Unknown codes are a no-op.
func (s *Store) Reset(code string) {
	room, ok := s.Get(code)
	if !ok {
		return
	}
	room.mu.Lock()
	room.stopTimerLocked()
	room.resetLocked(s.budgetSeconds)
	room.mu.Unlock()
	log.Info().Str("room_code", code).Msg("room reset")
}

// Count returns the number of registered rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
