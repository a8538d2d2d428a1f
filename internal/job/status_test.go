package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{
	StatusPendingReview, StatusInBet, StatusAssigned, StatusEnRoute,
	StatusInProgress, StatusCompleted, StatusPaid, StatusClosed,
	StatusCancelled,
}

func TestCanTransition_Graph(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPendingReview: {StatusInBet, StatusCancelled},
		StatusInBet:         {StatusAssigned, StatusCancelled},
		StatusAssigned:      {StatusEnRoute, StatusCancelled},
		StatusEnRoute:       {StatusInProgress, StatusCancelled},
		StatusInProgress:    {StatusCompleted, StatusCancelled},
		StatusCompleted:     {StatusPaid, StatusCancelled},
		StatusPaid:          {StatusClosed},
	}

	// Every pair not in the table must be rejected, including
	// self-transitions and edges out of terminal states.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_SelfAndUnknown(t *testing.T) {
	for _, s := range allStatuses {
		assert.False(t, CanTransition(s, s), "self-transition %s", s)
	}
	assert.False(t, CanTransition("bogus", StatusInBet))
	assert.False(t, CanTransition(StatusPendingReview, "bogus"))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusClosed))
	assert.True(t, IsTerminal(StatusCancelled))
	for _, s := range allStatuses {
		if s == StatusClosed || s == StatusCancelled {
			continue
		}
		assert.False(t, IsTerminal(s), "%s", s)
	}
	assert.False(t, IsTerminal("bogus"), "unknown states are not terminal")
}

func TestNextStates(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusInBet, StatusCancelled}, NextStates(StatusPendingReview))
	assert.ElementsMatch(t, []Status{StatusClosed}, NextStates(StatusPaid))
	assert.Empty(t, NextStates(StatusClosed))
	assert.Empty(t, NextStates(StatusCancelled))
	assert.Empty(t, NextStates("bogus"))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("in_bet")
	assert.True(t, ok)
	assert.Equal(t, StatusInBet, s)

	_, ok = ParseStatus("in-bet")
	assert.False(t, ok)
}
