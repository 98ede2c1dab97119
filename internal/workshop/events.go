package workshop

import (
	"encoding/json"
	"fmt"
)

// EventType tags an inbound client event.
type EventType string

const (
	EventJoinRoom            EventType = "joinRoom"
	EventSubmitWishlist      EventType = "submitWishlist"
	EventSubmitCoderFeedback EventType = "submitCoderFeedback"
	EventSubmitPMDecisions   EventType = "submitPMDecisions"
	EventSubmitFinalVotes    EventType = "submitFinalVotes"
	EventSubmitReflection    EventType = "submitReflection"
	EventRestartWorkshop     EventType = "restartWorkshop"
)

// Event is the envelope every client message arrives in.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinRoomPayload binds a connection to a room and claims a role seat.
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
}

// SubmitWishlistPayload carries the designer's selected feature ids.
type SubmitWishlistPayload struct {
	RoomCode string `json:"roomCode"`
	Wishlist []int  `json:"wishlist"`
}

// SubmitCoderFeedbackPayload replaces the coder feedback map wholesale.
type SubmitCoderFeedbackPayload struct {
	RoomCode string                  `json:"roomCode"`
	Feedback map[int]CoderAssessment `json:"feedback"`
}

// SubmitPMDecisionsPayload replaces the PM decision map wholesale.
type SubmitPMDecisionsPayload struct {
	RoomCode  string             `json:"roomCode"`
	Decisions map[int]PMDecision `json:"decisions"`
}

// SubmitFinalVotesPayload carries the keep/cut votes to partition.
type SubmitFinalVotesPayload struct {
	RoomCode string       `json:"roomCode"`
	Votes    map[int]bool `json:"votes"`
}

// SubmitReflectionPayload is recorded for observability only.
type SubmitReflectionPayload struct {
	Role       Role   `json:"role"`
	Reflection string `json:"reflection"`
}

// RestartWorkshopPayload resets a room back to waiting.
type RestartWorkshopPayload struct {
	RoomCode string `json:"roomCode"`
}

// ParseEventPayload decodes the event data into the payload struct for its
// type. Unknown event types return an error; the router treats them as
// recoverable.
func ParseEventPayload(ev Event) (any, error) {
	switch ev.Type {
	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	case EventSubmitWishlist:
		var p SubmitWishlistPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	case EventSubmitCoderFeedback:
		var p SubmitCoderFeedbackPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	case EventSubmitPMDecisions:
		var p SubmitPMDecisionsPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	case EventSubmitFinalVotes:
		var p SubmitFinalVotesPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	case EventSubmitReflection:
		var p SubmitReflectionPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	case EventRestartWorkshop:
		var p RestartWorkshopPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
}
