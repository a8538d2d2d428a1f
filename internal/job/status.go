package job

// Status is a job lifecycle state.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusInBet         Status = "in_bet"
	StatusAssigned      Status = "assigned"
	StatusEnRoute       Status = "en_route"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusPaid          Status = "paid"
	StatusClosed        Status = "closed"
	StatusCancelled     Status = "cancelled"
)

// Urgency determines the required bidding window duration.
const (
	UrgencyUrgent = "urgent"
	UrgencyNormal = "normal"
)

// transitions is the full lifecycle graph. Terminal states map to nil.
// Cancellation is a first-class transition reachable from every
// non-terminal state except paid.
var transitions = map[Status][]Status{
	StatusPendingReview: {StatusInBet, StatusCancelled},
	StatusInBet:         {StatusAssigned, StatusCancelled},
	StatusAssigned:      {StatusEnRoute, StatusCancelled},
	StatusEnRoute:       {StatusInProgress, StatusCancelled},
	StatusInProgress:    {StatusCompleted, StatusCancelled},
	StatusCompleted:     {StatusPaid, StatusCancelled},
	StatusPaid:          {StatusClosed},
	StatusClosed:        nil,
	StatusCancelled:     nil,
}

// CanTransition reports whether from -> to is an edge of the lifecycle
// graph. Unknown states and self-transitions are always false.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the states reachable from the given state in one
// step. Empty for terminal or unknown states.
func NextStates(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether the state has no outgoing transitions.
func IsTerminal(s Status) bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

// ParseStatus validates a raw string against the known states.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := transitions[s]
	return s, ok
}
