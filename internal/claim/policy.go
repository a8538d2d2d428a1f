package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

// holdRate is the share of the invoice total frozen by a claim.
var holdRate = decimal.RequireFromString("0.25")

// ResponseWindow is how long the plumber has to accept or dispute a
// claim of the given priority before it escalates to administrator
// arbitration.
func ResponseWindow(priority string) time.Duration {
	switch priority {
	case PriorityUrgent:
		return time.Hour
	case PriorityImportant:
		return 48 * time.Hour
	default: // aesthetic
		return 7 * 24 * time.Hour
	}
}

// HoldAmount is 25% of the invoice total, fixed at submission time.
func HoldAmount(invoiceTotal decimal.Decimal) decimal.Decimal {
	return invoiceTotal.Mul(holdRate).Round(2)
}

// IsOpen reports whether the claim still freezes its payment split.
func IsOpen(status string) bool {
	return status != StatusResolved && status != StatusClosed
}

// CanRespond reports whether the plumber may still accept or dispute.
func CanRespond(status string) bool {
	return status == StatusSubmitted
}

// CanResolve reports whether the claim may move to resolved or closed.
// Submitted claims must first be accepted, disputed or escalated.
func CanResolve(status string) bool {
	switch status {
	case StatusAccepted, StatusDisputed, StatusEscalated:
		return true
	}
	return false
}

// Overdue reports whether an unanswered claim has passed its response
// deadline and must escalate.
func Overdue(c *Claim, now time.Time) bool {
	return c.Status == StatusSubmitted && now.After(c.RespondBy)
}
