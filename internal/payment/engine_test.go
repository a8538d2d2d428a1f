package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixbet/internal/compliance"
)

var checkNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		total     string
		immediate string
		held      string
	}{
		{"500.00", "375.00", "125.00"},
		{"287.44", "215.58", "71.86"},
		{"100.00", "75.00", "25.00"},
		{"0.01", "0.01", "0.00"},
		// Independent rounding: parts sum to 100.03, one cent over.
		{"100.02", "75.02", "25.01"},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			s := CalculateSplit(decimal.RequireFromString(tt.total))
			assert.True(t, s.Immediate.Equal(decimal.RequireFromString(tt.immediate)),
				"immediate: want %s, got %s", tt.immediate, s.Immediate)
			assert.True(t, s.Held.Equal(decimal.RequireFromString(tt.held)),
				"held: want %s, got %s", tt.held, s.Held)
		})
	}
}

func TestCalculateCompliancePenalty(t *testing.T) {
	got := CalculateCompliancePenalty(decimal.RequireFromString("125.00"))
	assert.True(t, got.Equal(decimal.RequireFromString("12.50")), "got %s", got)

	got = CalculateCompliancePenalty(decimal.RequireFromString("71.86"))
	assert.True(t, got.Equal(decimal.RequireFromString("7.19")), "half-up: got %s", got)
}

func cleanSplit(completedDaysAgo int) *PaymentSplit {
	completed := checkNow.Add(-time.Duration(completedDaysAgo) * 24 * time.Hour)
	return &PaymentSplit{
		InvoiceID:        "inv-1",
		HeldStatus:       PortionHeld,
		JobCompletedAt:   completed,
		HeldReleaseAt:    completed.Add(HoldDays * 24 * time.Hour),
		ComplianceStatus: compliance.Compliant,
	}
}

func TestCheckRelease_Eligible(t *testing.T) {
	d := CheckRelease(cleanSplit(31), checkNow)
	assert.True(t, d.CanRelease)
	assert.Empty(t, d.Reasons)
	assert.Equal(t, Blockers{}, d.Blockers)
	assert.Nil(t, d.EstimatedReleaseAt)
}

func TestCheckRelease_TimeNotElapsed(t *testing.T) {
	ps := cleanSplit(10)
	d := CheckRelease(ps, checkNow)
	assert.False(t, d.CanRelease)
	require.Len(t, d.Reasons, 1)
	assert.Contains(t, d.Reasons[0], "10/30 days")
	assert.True(t, d.Blockers.TimeNotElapsed)

	// Time is the only blocker, so the release date is predictable.
	require.NotNil(t, d.EstimatedReleaseAt)
	assert.Equal(t, ps.HeldReleaseAt, *d.EstimatedReleaseAt)
}

func TestCheckRelease_ClaimHoldOverridesTime(t *testing.T) {
	// Even a long-eligible payment stays frozen while a claim is open.
	for _, daysAgo := range []int{10, 31, 400} {
		ps := cleanSplit(daysAgo)
		ps.AfterSalesHoldActive = true

		d := CheckRelease(ps, checkNow)
		assert.False(t, d.CanRelease, "%d days ago", daysAgo)
		assert.Contains(t, d.Reasons, "active after-sales claim")
		assert.True(t, d.Blockers.AfterSalesHold)
		assert.Nil(t, d.EstimatedReleaseAt, "claim has no fixed resolution date")
	}
}

func TestCheckRelease_NonCompliant(t *testing.T) {
	ps := cleanSplit(31)
	ps.ComplianceStatus = compliance.NonCompliant

	d := CheckRelease(ps, checkNow)
	assert.False(t, d.CanRelease)
	assert.True(t, d.Blockers.ComplianceIssue)
	assert.Nil(t, d.EstimatedReleaseAt)
}

func TestCheckRelease_GracePeriodDoesNotBlock(t *testing.T) {
	ps := cleanSplit(31)
	ps.ComplianceStatus = compliance.GracePeriod

	d := CheckRelease(ps, checkNow)
	assert.True(t, d.CanRelease)
}

func TestCheckRelease_ExpiredDocuments(t *testing.T) {
	ps := cleanSplit(31)
	ps.ComplianceStatus = compliance.GracePeriod
	ps.ComplianceDocuments = []compliance.Document{
		{Type: compliance.TypeBusinessLicense, Status: compliance.DocValid},
		{Type: compliance.TypeLiabilityInsurance, Status: compliance.DocExpired},
		{Type: compliance.TypeTaxComplianceCert, Status: compliance.DocExpired},
	}

	d := CheckRelease(ps, checkNow)
	assert.False(t, d.CanRelease)
	assert.True(t, d.Blockers.ComplianceIssue)
	assert.Equal(t, []string{compliance.TypeLiabilityInsurance, compliance.TypeTaxComplianceCert}, d.Blockers.PendingDocuments)
	assert.Len(t, d.Reasons, 2)
}

func TestCheckRelease_AccumulatesAllReasons(t *testing.T) {
	// Both "wait 20 more days" and "renew the insurance" and "resolve
	// the claim" are reported at once; nothing short-circuits.
	ps := cleanSplit(10)
	ps.AfterSalesHoldActive = true
	ps.ComplianceStatus = compliance.NonCompliant
	ps.ComplianceDocuments = []compliance.Document{
		{Type: compliance.TypeLiabilityInsurance, Status: compliance.DocExpired},
	}

	d := CheckRelease(ps, checkNow)
	assert.False(t, d.CanRelease)
	assert.Len(t, d.Reasons, 4)
	assert.True(t, d.Blockers.TimeNotElapsed)
	assert.True(t, d.Blockers.AfterSalesHold)
	assert.True(t, d.Blockers.ComplianceIssue)
	assert.Nil(t, d.EstimatedReleaseAt)
}

func TestCheckRelease_Idempotent(t *testing.T) {
	ps := cleanSplit(10)
	first := CheckRelease(ps, checkNow)
	second := CheckRelease(ps, checkNow)
	assert.Equal(t, first, second)
}

func TestCheckRelease_ExactBoundary(t *testing.T) {
	d := CheckRelease(cleanSplit(30), checkNow)
	assert.True(t, d.CanRelease, "day 30 is eligible")

	ps := cleanSplit(30)
	ps.JobCompletedAt = ps.JobCompletedAt.Add(time.Second)
	d = CheckRelease(ps, checkNow)
	assert.False(t, d.CanRelease, "one second short of 30 days")
	assert.Contains(t, d.Reasons[0], "29/30 days")
}
