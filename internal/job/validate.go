package job

import (
	"fmt"

	"fixbet/internal/clock"
)

// Completion evidence requirements.
const (
	MinFinalPhotos       = 2
	MinWorkDescriptionLn = 50
)

// CheckResult carries structural errors (block, Valid=false) and
// advisory warnings (notable, never block) from a validation pass.
type CheckResult struct {
	Valid    bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *CheckResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *CheckResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateState checks the per-status field invariants of a job at
// rest. Errors mean the stored record is structurally broken for its
// status; warnings flag stale or missing-but-tolerable data.
func ValidateState(j *Job, clk clock.Clock) CheckResult {
	res := CheckResult{Valid: true, Errors: []string{}, Warnings: []string{}}

	switch j.Status {
	case StatusPendingReview:
		if j.ClientID == 0 {
			res.addError("pending_review job missing client id")
		}
		if j.Description == "" {
			res.addError("pending_review job missing description")
		}
		if j.Address == "" {
			res.addError("pending_review job missing address")
		}

	case StatusInBet:
		if j.BiddingStartsAt == nil || j.BiddingEndsAt == nil {
			res.addError("in_bet job missing bidding window times")
		}
		if j.Urgency != UrgencyUrgent && j.Urgency != UrgencyNormal {
			res.addError("in_bet job missing urgency")
		}
		if j.BiddingEndsAt != nil && j.BiddingEndsAt.Before(clk.Now()) {
			res.addWarning("bidding window already closed")
		}

	case StatusAssigned:
		if j.PlumberID == nil {
			res.addError("assigned job missing plumber id")
		}
		if j.WinnerBidID == nil {
			res.addError("assigned job missing winning bid id")
		}
		if j.WinningBid == nil {
			res.addError("assigned job missing winning bid amount")
		}

	case StatusEnRoute:
		if j.PlumberID == nil {
			res.addError("en_route job missing plumber id")
		}
		if j.ETA == nil {
			res.addWarning("en_route job has no ETA")
		}

	case StatusInProgress:
		if j.StartedAt == nil {
			res.addError("in_progress job missing start time")
		}
		if j.TimerRef == nil {
			res.addWarning("in_progress job has no timer reference")
		}

	case StatusCompleted:
		if j.CompletedAt == nil {
			res.addError("completed job missing completion time")
		}
		if j.InvoiceID == nil {
			res.addError("completed job missing invoice reference")
		}
		if len(j.FinalPhotos) < MinFinalPhotos {
			res.addError("completed job requires at least %d final photos, got %d", MinFinalPhotos, len(j.FinalPhotos))
		}
		if len(j.WorkDescription) < MinWorkDescriptionLn {
			res.addError("work description must be at least %d characters, got %d", MinWorkDescriptionLn, len(j.WorkDescription))
		}

	case StatusPaid:
		if j.PaymentID == nil {
			res.addError("paid job missing payment id")
		}
		if j.PaidAt == nil {
			res.addError("paid job missing paid timestamp")
		}

	case StatusClosed:
		if j.Rating == nil {
			res.addWarning("closed job has no rating")
		}
	}

	return res
}
