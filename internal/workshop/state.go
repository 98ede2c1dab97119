package workshop

import "sort"

// The phase is derived from the presence of state contents rather than
// tracked independently, which keeps transitions idempotent under duplicate
// or replayed submissions: re-submitting an already-complete map recomputes
// the same phase.

// allRolesFilled reports whether every seat has been claimed.
func allRolesFilled(participants map[Role]string) bool {
	return participants[RoleDesigner] != "" &&
		participants[RoleCoder] != "" &&
		participants[RolePM] != ""
}

// advance returns the phase a room belongs in after its state contents
// changed. It moves at most one step and never backward; summary is terminal
// until an explicit restart resets the room.
//
// The review guard checks only that both maps are non-empty, not that they
// cover every wishlist id. Partial feedback for a single feature therefore
// completes the review.
func advance(cur Phase, state GameState, participants map[Role]string) Phase {
	switch cur {
	case PhaseWaiting:
		if allRolesFilled(participants) {
			return PhaseDesign
		}
	case PhaseDesign:
		if len(state.Wishlist) > 0 {
			return PhaseReview
		}
	case PhaseReview:
		if len(state.CoderFeedback) > 0 && len(state.PMDecisions) > 0 {
			return PhaseDecision
		}
	}
	return cur
}

// partitionVotes splits a vote map into kept (true) and cut (false) id sets.
// Ids that were never voted appear in neither. Both slices are sorted so
// snapshots are deterministic.
func partitionVotes(votes map[int]bool) FinalScope {
	scope := FinalScope{Kept: []int{}, Cut: []int{}}
	for id, include := range votes {
		if include {
			scope.Kept = append(scope.Kept, id)
		} else {
			scope.Cut = append(scope.Cut, id)
		}
	}
	sort.Ints(scope.Kept)
	sort.Ints(scope.Cut)
	return scope
}
