package payment

// State is the single enumerated state of one payment attempt. Every
// terminal branch of the flow maps to exactly one of these; there are no
// free-floating flags.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateFound       State = "found"
	StateNotFound    State = "not_found"
	StateNotApproved State = "not_approved"
	StateError       State = "error"
	StateAlreadyPaid State = "already_paid"
	StatePaying      State = "paying"
	StateVerifying   State = "verifying"
	StateSuccess     State = "success"
	StateFailed      State = "failed"
)

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateFetching
	case StateFetching:
		return to == StateFound || to == StateNotFound || to == StateNotApproved || to == StateError || to == StateAlreadyPaid
	case StateFound:
		return to == StatePaying
	case StatePaying:
		// Back to found when order creation fails; the attempt stays
		// retryable.
		return to == StateVerifying || to == StateFound
	case StateVerifying:
		return to == StateSuccess || to == StateFailed
	default:
		return false
	}
}

// Terminal reports whether the attempt can make no further progress. A
// failed or errored attempt is restarted by a fresh lookup, never resumed.
func (s State) Terminal() bool {
	switch s {
	case StateNotFound, StateNotApproved, StateError, StateAlreadyPaid, StateSuccess, StateFailed:
		return true
	default:
		return false
	}
}
