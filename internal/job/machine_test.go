package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixbet/internal/clock"
)

func TestAttempt_LegalEdge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.At(now)

	rec, err := Attempt(StatusPendingReview, StatusCancelled, map[string]any{"reason": "duplicate"}, clk)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, rec.From)
	assert.Equal(t, StatusCancelled, rec.To)
	assert.Equal(t, now, rec.At)
	assert.Equal(t, "duplicate", rec.Metadata["reason"])
}

func TestAttempt_IllegalEdge(t *testing.T) {
	clk := clock.At(time.Now())

	_, err := Attempt(StatusPendingReview, StatusPaid, nil, clk)
	require.Error(t, err)

	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, StatusPendingReview, ite.From)
	assert.Equal(t, StatusPaid, ite.To)
	assert.Contains(t, ite.Error(), "pending_review -> paid")
}

func TestAttempt_TerminalStatesAlwaysFail(t *testing.T) {
	clk := clock.At(time.Now())
	for _, from := range []Status{StatusClosed, StatusCancelled} {
		for _, to := range allStatuses {
			_, err := Attempt(from, to, nil, clk)
			assert.Error(t, err, "%s -> %s", from, to)
		}
	}
}
