package job

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixbet/internal/clock"
)

func ptr[T any](v T) *T { return &v }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestValidateState_PendingReview(t *testing.T) {
	clk := clock.At(testNow)

	j := &Job{Status: StatusPendingReview, ClientID: 7, Description: "leaking pipe", Address: "12 Rue de la Pompe"}
	res := ValidateState(j, clk)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	j = &Job{Status: StatusPendingReview}
	res = ValidateState(j, clk)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
}

func TestValidateState_InBet_StaleWindowIsWarning(t *testing.T) {
	clk := clock.At(testNow)
	start := testNow.Add(-3 * time.Hour)
	end := testNow.Add(-time.Hour)

	j := &Job{
		Status:          StatusInBet,
		Urgency:         UrgencyNormal,
		BiddingStartsAt: &start,
		BiddingEndsAt:   &end,
	}
	res := ValidateState(j, clk)
	assert.True(t, res.Valid, "stale window is not a data error")
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "closed")
}

func TestValidateState_EnRoute_MissingETAIsWarning(t *testing.T) {
	j := &Job{Status: StatusEnRoute, PlumberID: ptr(uint64(3))}
	res := ValidateState(j, clock.At(testNow))
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "ETA")
}

func TestValidateState_InProgress(t *testing.T) {
	j := &Job{Status: StatusInProgress, StartedAt: ptr(testNow)}
	res := ValidateState(j, clock.At(testNow))
	assert.True(t, res.Valid)
	assert.Len(t, res.Warnings, 1, "missing timer ref is a warning")

	j = &Job{Status: StatusInProgress}
	res = ValidateState(j, clock.At(testNow))
	assert.False(t, res.Valid)
}

func TestValidateState_Completed_Evidence(t *testing.T) {
	clk := clock.At(testNow)
	longDesc := strings.Repeat("replaced the trap and resealed the joints. ", 2)
	base := Job{
		Status:          StatusCompleted,
		CompletedAt:     ptr(testNow),
		InvoiceID:       ptr("inv-1"),
		WorkDescription: longDesc,
	}

	j := base
	j.FinalPhotos = []string{"a.jpg"}
	res := ValidateState(&j, clk)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "at least 2 final photos")

	j = base
	j.FinalPhotos = []string{"a.jpg", "b.jpg"}
	require.GreaterOrEqual(t, len(j.WorkDescription), 60)
	res = ValidateState(&j, clk)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateState_Completed_ShortDescription(t *testing.T) {
	j := &Job{
		Status:          StatusCompleted,
		CompletedAt:     ptr(testNow),
		InvoiceID:       ptr("inv-1"),
		FinalPhotos:     []string{"a.jpg", "b.jpg"},
		WorkDescription: "fixed it",
	}
	res := ValidateState(j, clock.At(testNow))
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "at least 50 characters")
}

func TestValidateState_Paid(t *testing.T) {
	j := &Job{Status: StatusPaid, PaymentID: ptr("pay-1"), PaidAt: ptr(testNow)}
	res := ValidateState(j, clock.At(testNow))
	assert.True(t, res.Valid)

	j = &Job{Status: StatusPaid}
	res = ValidateState(j, clock.At(testNow))
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}

func TestValidateState_Closed_MissingRatingIsWarning(t *testing.T) {
	j := &Job{Status: StatusClosed}
	res := ValidateState(j, clock.At(testNow))
	assert.True(t, res.Valid)
	assert.Len(t, res.Warnings, 1)

	j = &Job{Status: StatusClosed, Rating: ptr(5)}
	res = ValidateState(j, clock.At(testNow))
	assert.Empty(t, res.Warnings)
}
