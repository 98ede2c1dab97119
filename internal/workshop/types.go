package workshop

// Phase is the current stage of the scoping workflow.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseDesign   Phase = "design"
	PhaseReview   Phase = "review"
	PhaseDecision Phase = "decision"
	PhaseSummary  Phase = "summary"
)

// Role identifies one of the three participant seats in a workshop.
type Role string

const (
	RoleDesigner Role = "designer"
	RoleCoder    Role = "coder"
	RolePM       Role = "pm"
)

// Valid reports whether r is one of the three recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDesigner, RoleCoder, RolePM:
		return true
	}
	return false
}

// CoderAssessment is the coder's feasibility call for a single feature.
type CoderAssessment struct {
	Feasible bool   `json:"feasible"`
	Effort   string `json:"effort"`
	Notes    string `json:"notes"`
}

// PMDecision is the PM's inclusion call for a single feature.
type PMDecision struct {
	Include  bool   `json:"include"`
	Priority string `json:"priority"`
	Notes    string `json:"notes"`
}

// FinalScope partitions the voted feature ids. Kept and Cut are disjoint;
// their union is exactly the key set of the final-vote submission.
type FinalScope struct {
	Kept []int `json:"kept"`
	Cut  []int `json:"cut"`
}

// GameState is the shared state of one workshop session. Integer map keys
// marshal as JSON strings, matching the original wire format for
// object-keyed feedback and decision maps.
type GameState struct {
	Phase         Phase                   `json:"phase"`
	Wishlist      []int                   `json:"wishlist"`
	CoderFeedback map[int]CoderAssessment `json:"coderFeedback"`
	PMDecisions   map[int]PMDecision      `json:"pmDecisions"`
	FinalScope    FinalScope              `json:"finalScope"`
	TimeRemaining int                     `json:"timeRemaining"`
}

// NewGameState returns the initial state for a fresh or restarted room.
// Collections are allocated so snapshots serialize as [] and {}, never null.
func NewGameState(budgetSeconds int) GameState {
	return GameState{
		Phase:         PhaseWaiting,
		Wishlist:      []int{},
		CoderFeedback: make(map[int]CoderAssessment),
		PMDecisions:   make(map[int]PMDecision),
		FinalScope:    FinalScope{Kept: []int{}, Cut: []int{}},
		TimeRemaining: budgetSeconds,
	}
}

// Snapshot is the full outbound game state, broadcast wholesale to every
// connection in a room on each state change. Clients that miss one simply
// converge on the next.
type Snapshot struct {
	GameState
	Players map[Role]string `json:"players"`
}
