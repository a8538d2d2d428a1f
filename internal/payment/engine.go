package payment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fixbet/internal/compliance"
)

// Split ratios and hold constants.
const (
	HoldDays    = 30
	penaltyRate = "0.10"
)

var (
	immediateRate = decimal.RequireFromString("0.75")
	heldRate      = decimal.RequireFromString("0.25")
)

// Split is the two-part division of an invoice total.
type Split struct {
	Immediate decimal.Decimal `json:"immediate"`
	Held      decimal.Decimal `json:"held"`
}

// CalculateSplit divides a total 75/25. Each part is rounded to two
// decimals independently (half-up), so for some totals the parts are
// off by one cent from the total. Kept deliberately; reconciliation
// tooling expects these exact figures.
func CalculateSplit(total decimal.Decimal) Split {
	return Split{
		Immediate: total.Mul(immediateRate).Round(2),
		Held:      total.Mul(heldRate).Round(2),
	}
}

// CalculateCompliancePenalty is 10% of the held amount, rounded to two
// decimals.
func CalculateCompliancePenalty(held decimal.Decimal) decimal.Decimal {
	return held.Mul(decimal.RequireFromString(penaltyRate)).Round(2)
}

// Blockers is the structured view of why a held payment cannot be
// released yet.
type Blockers struct {
	TimeNotElapsed   bool     `json:"time_not_elapsed"`
	AfterSalesHold   bool     `json:"after_sales_hold"`
	ComplianceIssue  bool     `json:"compliance_issue"`
	PendingDocuments []string `json:"pending_documents,omitempty"`
}

// ReleaseDecision reports release eligibility with every applicable
// reason, so both the plumber and an administrator see the full
// picture at once.
type ReleaseDecision struct {
	CanRelease         bool       `json:"can_release"`
	Reasons            []string   `json:"reasons"`
	Blockers           Blockers   `json:"blockers"`
	EstimatedReleaseAt *time.Time `json:"estimated_release_at,omitempty"`
}

// CheckRelease is the authoritative release gate. It is pure and
// idempotent: same split, same now, same answer. Gates are evaluated
// in order without short-circuiting, accumulating all reasons:
// elapsed time, after-sales hold, aggregate compliance, expired
// documents. An estimated release date is only set when elapsed time
// is the sole blocker, since the others have no fixed resolution date.
func CheckRelease(s *PaymentSplit, now time.Time) ReleaseDecision {
	d := ReleaseDecision{Reasons: []string{}}

	days := int(now.Sub(s.JobCompletedAt).Hours() / 24)
	if days < HoldDays {
		d.Reasons = append(d.Reasons, fmt.Sprintf("holding period not elapsed (%d/%d days)", days, HoldDays))
		d.Blockers.TimeNotElapsed = true
	}

	if s.AfterSalesHoldActive {
		d.Reasons = append(d.Reasons, "active after-sales claim")
		d.Blockers.AfterSalesHold = true
	}

	if s.ComplianceStatus == compliance.NonCompliant {
		d.Reasons = append(d.Reasons, "plumber is non-compliant")
		d.Blockers.ComplianceIssue = true
	}

	for _, doc := range s.ComplianceDocuments {
		if doc.Status == compliance.DocExpired {
			d.Reasons = append(d.Reasons, fmt.Sprintf("compliance document expired: %s", doc.Type))
			d.Blockers.PendingDocuments = append(d.Blockers.PendingDocuments, doc.Type)
			d.Blockers.ComplianceIssue = true
		}
	}

	d.CanRelease = len(d.Reasons) == 0

	if d.Blockers.TimeNotElapsed && !d.Blockers.AfterSalesHold && !d.Blockers.ComplianceIssue {
		at := s.HeldReleaseAt
		d.EstimatedReleaseAt = &at
	}

	return d
}
