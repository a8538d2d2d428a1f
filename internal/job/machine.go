package job

import (
	"fmt"
	"time"

	"fixbet/internal/clock"
)

// InvalidTransitionError reports an attempted edge that is not in the
// lifecycle graph.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// TransitionRecord is the result of a legal transition attempt. The
// caller persists it (append to job_transitions, CAS the job status);
// the machine itself mutates nothing.
type TransitionRecord struct {
	From     Status
	To       Status
	At       time.Time
	Metadata map[string]any
}

// Attempt checks from -> to against the graph and returns a timestamped
// record, or an *InvalidTransitionError. It has no memory of prior
// calls: retrying a committed transition fails only because the stored
// status has already moved on.
func Attempt(from, to Status, metadata map[string]any, clk clock.Clock) (TransitionRecord, error) {
	if !CanTransition(from, to) {
		return TransitionRecord{}, &InvalidTransitionError{From: from, To: to}
	}
	return TransitionRecord{
		From:     from,
		To:       to,
		At:       clk.Now(),
		Metadata: metadata,
	}, nil
}
