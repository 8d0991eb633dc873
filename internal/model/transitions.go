package model

// Transition action constants
const (
	ActionMarkPaid  = "mark_paid"
	ActionCancel    = "cancel"
	ActionSetStatus = "set_status"
)

// transitionMap lists the ticket statuses each guarded action may start from.
// Terminal statuses (paid, cancelled) never appear as a source: once reached,
// the ticket is frozen.
var transitionMap = map[string][]string{
	ActionMarkPaid: {StatusOpen, StatusInService, StatusAwaitingPayment},
	ActionCancel:   {StatusOpen, StatusInService, StatusAwaitingPayment},
	// set_status is the manual workflow tag: an actor may move a ticket
	// between non-terminal statuses freely; reaching paid goes through
	// mark_paid, which carries the balance precondition.
	ActionSetStatus: {StatusOpen, StatusInService, StatusAwaitingPayment},
}

// manualTargets are the statuses set_status may land on.
var manualTargets = map[string]bool{
	StatusOpen:            true,
	StatusInService:       true,
	StatusAwaitingPayment: true,
}

// ValidTransition reports whether action may be applied to a ticket currently
// in fromStatus.
func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// ValidManualStatus reports whether toStatus is a legal target for the
// unguarded set_status action.
func ValidManualStatus(toStatus string) bool {
	return manualTargets[toStatus]
}

// ValidStatus reports whether s is any known ticket status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInService, StatusAwaitingPayment, StatusPaid, StatusCancelled:
		return true
	}
	return false
}
