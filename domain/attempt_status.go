package domain

// AttemptStatus tracks a single payment attempt through its lifecycle.
type AttemptStatus string

const (
	AttemptStatusIdle       AttemptStatus = "IDLE"
	AttemptStatusSubmitting AttemptStatus = "SUBMITTING"
	AttemptStatusSucceeded  AttemptStatus = "SUCCEEDED"
	AttemptStatusFailed     AttemptStatus = "FAILED"
	AttemptStatusAbandoned  AttemptStatus = "ABANDONED"
)

// validAttemptTransitions lists every legal edge of the attempt state machine.
// ABANDONED and FAILED are retryable: the session may start a fresh attempt,
// which begins again at IDLE.
var validAttemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptStatusIdle:       {AttemptStatusSubmitting},
	AttemptStatusSubmitting: {AttemptStatusSucceeded, AttemptStatusFailed, AttemptStatusAbandoned},
}

// CanTransitionTo reports whether moving from one attempt status to another is legal.
func CanTransitionTo(from, to AttemptStatus) bool {
	for _, next := range validAttemptTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has reached a final outcome.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSucceeded || s == AttemptStatusFailed || s == AttemptStatusAbandoned
}

// String representation (for logging)
func (s AttemptStatus) String() string {
	return string(s)
}
