package registry

// StateMachine enforces project verification-status transitions.
//
// Verified can only move to Monitoring (the automatic health trigger);
// Rejected and Expired are terminal.
type StateMachine struct {
	allowedTransitions map[VerificationStatus][]VerificationStatus
}

// NewStateMachine creates the state machine with the allowed transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[VerificationStatus][]VerificationStatus{
			StatusPending:       {StatusAwaitingAudit, StatusUnderReview, StatusVerified, StatusRejected, StatusExpired},
			StatusAwaitingAudit: {StatusVerified, StatusRejected, StatusExpired},
			StatusUnderReview:   {StatusVerified, StatusRejected, StatusExpired},
			StatusVerified:      {StatusMonitoring},
			StatusMonitoring:    {},
			StatusRejected:      {},
			StatusExpired:       {},
		},
	}
}

// CanTransition checks if a status transition is allowed.
func (sm *StateMachine) CanTransition(from, to VerificationStatus) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for a given status.
func (sm *StateMachine) AllowedTransitions(from VerificationStatus) []VerificationStatus {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []VerificationStatus{}
	}
	return allowed
}

// IsTerminal reports whether no further transition exists from the status.
func (sm *StateMachine) IsTerminal(status VerificationStatus) bool {
	return len(sm.allowedTransitions[status]) == 0
}
