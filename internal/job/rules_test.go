package job

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixbet/internal/clock"
)

func window(d time.Duration) (start, end *time.Time) {
	s := testNow
	e := testNow.Add(d)
	return &s, &e
}

func TestStartBidding_WindowDuration(t *testing.T) {
	clk := clock.At(testNow)

	tests := []struct {
		name    string
		urgency string
		window  time.Duration
		valid   bool
	}{
		{"urgent exact", UrgencyUrgent, 5 * time.Minute, true},
		{"urgent half second over", UrgencyUrgent, 5*time.Minute + 500*time.Millisecond, true},
		{"urgent 4m58s", UrgencyUrgent, 4*time.Minute + 58*time.Second, false},
		{"urgent 2s over", UrgencyUrgent, 5*time.Minute + 2*time.Second, false},
		{"normal exact", UrgencyNormal, 2 * time.Hour, true},
		{"normal 30s short", UrgencyNormal, 2*time.Hour - 30*time.Second, true},
		{"normal 2m short", UrgencyNormal, 2*time.Hour - 2*time.Minute, false},
		{"normal 2m over", UrgencyNormal, 2*time.Hour + 2*time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.window)
			j := &Job{Status: StatusPendingReview, Urgency: tt.urgency}
			res := EnforceBusinessRules(j, ActionStartBidding, ActionParams{
				BiddingStartsAt: start,
				BiddingEndsAt:   end,
			}, clk)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
		})
	}
}

func TestStartBidding_MissingWindow(t *testing.T) {
	j := &Job{Status: StatusPendingReview, Urgency: UrgencyNormal}
	res := EnforceBusinessRules(j, ActionStartBidding, ActionParams{}, clock.At(testNow))
	assert.False(t, res.Valid)
}

func TestSubmitBid_WindowClosed(t *testing.T) {
	end := testNow.Add(-time.Minute)
	j := &Job{Status: StatusInBet, Urgency: UrgencyNormal, BiddingEndsAt: &end}

	res := EnforceBusinessRules(j, ActionSubmitBid, ActionParams{}, clock.At(testNow))
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "closed")
}

func TestSubmitBid_UrgentDistance(t *testing.T) {
	clk := clock.At(testNow)
	end := testNow.Add(time.Minute)

	j := &Job{Status: StatusInBet, Urgency: UrgencyUrgent, BiddingEndsAt: &end}

	res := EnforceBusinessRules(j, ActionSubmitBid, ActionParams{DistanceKM: ptr(62.3)}, clk)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "62.3 km")

	res = EnforceBusinessRules(j, ActionSubmitBid, ActionParams{DistanceKM: ptr(49.9)}, clk)
	assert.True(t, res.Valid)

	// Distance never matters for normal jobs.
	j.Urgency = UrgencyNormal
	res = EnforceBusinessRules(j, ActionSubmitBid, ActionParams{DistanceKM: ptr(200.0)}, clk)
	assert.True(t, res.Valid)
}

func TestStartWork_Geofence(t *testing.T) {
	clk := clock.At(testNow)
	j := &Job{Status: StatusEnRoute}

	res := EnforceBusinessRules(j, ActionStartWork, ActionParams{DistanceMeters: ptr(250.0), DwellMet: true}, clk)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "within 100 m")

	res = EnforceBusinessRules(j, ActionStartWork, ActionParams{DistanceMeters: ptr(40.0), DwellMet: true}, clk)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
}

func TestStartWork_DwellNotMetIsWarning(t *testing.T) {
	j := &Job{Status: StatusEnRoute}
	res := EnforceBusinessRules(j, ActionStartWork, ActionParams{DistanceMeters: ptr(40.0), DwellMet: false}, clock.At(testNow))
	assert.True(t, res.Valid, "dwell is a warning, not a data error")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "dwell")
}

func TestCompleteWork_InvoiceVariance(t *testing.T) {
	clk := clock.At(testNow)
	desc := strings.Repeat("descaled the boiler heat exchanger and flushed it. ", 2)
	suggested := decimal.RequireFromString("200.00")

	tests := []struct {
		name    string
		invoice string
		valid   bool
	}{
		{"exact", "200.00", true},
		{"at +20%", "240.00", true},
		{"at -20%", "160.00", true},
		{"above +20%", "240.01", false},
		{"below -20%", "159.99", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := decimal.RequireFromString(tt.invoice)
			j := &Job{Status: StatusInProgress}
			res := EnforceBusinessRules(j, ActionCompleteWork, ActionParams{
				InvoiceAmount:   &inv,
				SuggestedAmount: &suggested,
				FinalPhotos:     2,
				WorkDescription: desc,
			}, clk)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
		})
	}
}

func TestCompleteWork_Evidence(t *testing.T) {
	clk := clock.At(testNow)
	inv := decimal.RequireFromString("100.00")

	j := &Job{Status: StatusInProgress}
	res := EnforceBusinessRules(j, ActionCompleteWork, ActionParams{
		InvoiceAmount:   &inv,
		SuggestedAmount: &inv,
		FinalPhotos:     1,
		WorkDescription: "too short",
	}, clk)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}

func TestProcessPayment_UrgentNonCardIsWarning(t *testing.T) {
	clk := clock.At(testNow)

	j := &Job{Status: StatusCompleted, Urgency: UrgencyUrgent}
	res := EnforceBusinessRules(j, ActionProcessPayment, ActionParams{PaymentMethod: "bank_transfer"}, clk)
	assert.True(t, res.Valid, "non-card is slower, not forbidden")
	require.Len(t, res.Warnings, 1)

	res = EnforceBusinessRules(j, ActionProcessPayment, ActionParams{PaymentMethod: "card"}, clk)
	assert.Empty(t, res.Warnings)

	j.Urgency = UrgencyNormal
	res = EnforceBusinessRules(j, ActionProcessPayment, ActionParams{PaymentMethod: "bank_transfer"}, clk)
	assert.Empty(t, res.Warnings)
}

func TestReleasePayment(t *testing.T) {
	clk := clock.At(testNow)

	paid10 := testNow.Add(-10 * 24 * time.Hour)
	paid31 := testNow.Add(-31 * 24 * time.Hour)

	t.Run("too early", func(t *testing.T) {
		j := &Job{Status: StatusPaid, PaidAt: &paid10}
		res := EnforceBusinessRules(j, ActionReleasePayment, ActionParams{}, clk)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0], "10/30 days")
	})

	t.Run("open claims block", func(t *testing.T) {
		j := &Job{Status: StatusPaid, PaidAt: &paid31}
		res := EnforceBusinessRules(j, ActionReleasePayment, ActionParams{OpenClaims: 2}, clk)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0], "open after-sales claims")
	})

	t.Run("non-compliance is a warning here", func(t *testing.T) {
		j := &Job{Status: StatusPaid, PaidAt: &paid31}
		res := EnforceBusinessRules(j, ActionReleasePayment, ActionParams{NonCompliant: true}, clk)
		assert.True(t, res.Valid, "the split engine layers the stricter check")
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "penalty")
	})

	t.Run("clean release", func(t *testing.T) {
		j := &Job{Status: StatusPaid, PaidAt: &paid31}
		res := EnforceBusinessRules(j, ActionReleasePayment, ActionParams{}, clk)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
		assert.Empty(t, res.Warnings)
	})
}
