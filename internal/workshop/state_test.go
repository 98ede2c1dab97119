package workshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	t.Parallel()

	fullCrew := map[Role]string{RoleDesigner: "Ann", RoleCoder: "Cal", RolePM: "Pat"}
	partialCrew := map[Role]string{RoleDesigner: "Ann", RoleCoder: "Cal"}

	tests := []struct {
		name         string
		cur          Phase
		state        GameState
		participants map[Role]string
		want         Phase
	}{
		{
			name:         "waiting stays while seats open",
			cur:          PhaseWaiting,
			state:        NewGameState(1800),
			participants: partialCrew,
			want:         PhaseWaiting,
		},
		{
			name:         "waiting advances when all seats filled",
			cur:          PhaseWaiting,
			state:        NewGameState(1800),
			participants: fullCrew,
			want:         PhaseDesign,
		},
		{
			name:         "design stays on empty wishlist",
			cur:          PhaseDesign,
			state:        GameState{Wishlist: []int{}},
			participants: fullCrew,
			want:         PhaseDesign,
		},
		{
			name:         "design advances on non-empty wishlist",
			cur:          PhaseDesign,
			state:        GameState{Wishlist: []int{1, 3, 5}},
			participants: fullCrew,
			want:         PhaseReview,
		},
		{
			name: "review holds with only coder feedback",
			cur:  PhaseReview,
			state: GameState{
				CoderFeedback: map[int]CoderAssessment{1: {Feasible: true}},
				PMDecisions:   map[int]PMDecision{},
			},
			participants: fullCrew,
			want:         PhaseReview,
		},
		{
			name: "review holds with only pm decisions",
			cur:  PhaseReview,
			state: GameState{
				CoderFeedback: map[int]CoderAssessment{},
				PMDecisions:   map[int]PMDecision{1: {Include: true}},
			},
			participants: fullCrew,
			want:         PhaseReview,
		},
		{
			name: "review completes when both sides present",
			cur:  PhaseReview,
			state: GameState{
				CoderFeedback: map[int]CoderAssessment{1: {Feasible: true}},
				PMDecisions:   map[int]PMDecision{1: {Include: true}},
			},
			participants: fullCrew,
			want:         PhaseDecision,
		},
		{
			name: "summary is terminal",
			cur:  PhaseSummary,
			state: GameState{
				Wishlist:      []int{1},
				CoderFeedback: map[int]CoderAssessment{1: {}},
				PMDecisions:   map[int]PMDecision{1: {}},
			},
			participants: fullCrew,
			want:         PhaseSummary,
		},
		{
			name:         "decision does not move without votes",
			cur:          PhaseDecision,
			state:        GameState{},
			participants: fullCrew,
			want:         PhaseDecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, advance(tt.cur, tt.state, tt.participants))
		})
	}
}

func TestAdvanceIsIdempotent(t *testing.T) {
	t.Parallel()

	state := GameState{
		CoderFeedback: map[int]CoderAssessment{1: {Feasible: true}},
		PMDecisions:   map[int]PMDecision{1: {Include: true}},
	}
	crew := map[Role]string{RoleDesigner: "Ann", RoleCoder: "Cal", RolePM: "Pat"}

	next := advance(PhaseReview, state, crew)
	assert.Equal(t, PhaseDecision, next)

	// Re-applying the same contents from the advanced phase is a no-op.
	assert.Equal(t, PhaseDecision, advance(next, state, crew))
}

func TestPartitionVotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		votes    map[int]bool
		wantKept []int
		wantCut  []int
	}{
		{
			name:     "empty votes",
			votes:    map[int]bool{},
			wantKept: []int{},
			wantCut:  []int{},
		},
		{
			name:     "mixed votes sorted",
			votes:    map[int]bool{5: true, 1: true, 3: false, 2: false},
			wantKept: []int{1, 5},
			wantCut:  []int{2, 3},
		},
		{
			name:     "all kept",
			votes:    map[int]bool{7: true, 2: true},
			wantKept: []int{2, 7},
			wantCut:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scope := partitionVotes(tt.votes)
			assert.Equal(t, tt.wantKept, scope.Kept)
			assert.Equal(t, tt.wantCut, scope.Cut)

			// Kept and cut are disjoint and their union is the vote key set.
			seen := make(map[int]bool)
			for _, id := range append(append([]int{}, scope.Kept...), scope.Cut...) {
				assert.False(t, seen[id], "id %d appears in both partitions", id)
				seen[id] = true
			}
			assert.Len(t, seen, len(tt.votes))
		})
	}
}
