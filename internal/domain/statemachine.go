package domain

// The status state machine. All lifecycle changes go through CheckTransition;
// nothing writes an arbitrary status value directly.
//
//	draft → submitted → under_review → approved → funded
//	                                 ↘ rejected
//	any non-terminal → closed
//
// funded and closed are terminal.

var transitions = map[Status][]Status{
	StatusDraft:       {StatusSubmitted, StatusClosed},
	StatusSubmitted:   {StatusUnderReview, StatusClosed},
	StatusUnderReview: {StatusApproved, StatusRejected, StatusClosed},
	StatusApproved:    {StatusFunded, StatusClosed},
	StatusRejected:    {StatusClosed},
	StatusFunded:      {},
	StatusClosed:      {},
}

// CanTransition reports whether from → to is an allowed edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from the given one.
func AllowedTransitions(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
