package job

import (
	"time"

	"github.com/shopspring/decimal"

	"fixbet/internal/clock"
)

// Action is a state-changing operation guarded by quantitative or
// temporal business rules beyond the plain transition check.
type Action string

const (
	ActionStartBidding   Action = "start_bidding"
	ActionSubmitBid      Action = "submit_bid"
	ActionStartWork      Action = "start_work"
	ActionCompleteWork   Action = "complete_work"
	ActionProcessPayment Action = "process_payment"
	ActionReleasePayment Action = "release_payment"
)

// Business rule constants.
const (
	UrgentBiddingWindow   = 5 * time.Minute
	NormalBiddingWindow   = 2 * time.Hour
	UrgentWindowTolerance = time.Second
	NormalWindowTolerance = time.Minute

	UrgentBidMaxDistanceKM = 50.0
	GeofenceRadiusMeters   = 100.0

	InvoiceVariance = 0.20

	ReleaseHoldDays = 30
)

// ActionParams carries measurements and proposals that are not stored
// on the job itself (geofence distance, proposed bidding window, the
// invoice being submitted).
type ActionParams struct {
	BiddingStartsAt *time.Time
	BiddingEndsAt   *time.Time

	DistanceKM     *float64 // bidder's distance to the site
	DistanceMeters *float64 // measured geofence distance at start_work
	DwellMet       bool     // minimum on-site dwell time reached

	InvoiceAmount   *decimal.Decimal
	SuggestedAmount *decimal.Decimal
	FinalPhotos     int
	WorkDescription string

	PaymentMethod string

	OpenClaims   int
	NonCompliant bool
}

// EnforceBusinessRules validates one action against the job at the
// moment it is attempted. Structural state validation is ValidateState;
// this guards the quantitative and temporal rules of the action itself.
func EnforceBusinessRules(j *Job, action Action, p ActionParams, clk clock.Clock) CheckResult {
	res := CheckResult{Valid: true, Errors: []string{}, Warnings: []string{}}
	now := clk.Now()

	switch action {
	case ActionStartBidding:
		start, end := p.BiddingStartsAt, p.BiddingEndsAt
		if start == nil {
			start = j.BiddingStartsAt
		}
		if end == nil {
			end = j.BiddingEndsAt
		}
		if start == nil || end == nil {
			res.addError("bidding window times required")
			break
		}
		want, tolerance := NormalBiddingWindow, NormalWindowTolerance
		if j.Urgency == UrgencyUrgent {
			want, tolerance = UrgentBiddingWindow, UrgentWindowTolerance
		}
		window := end.Sub(*start)
		if diff := window - want; diff > tolerance || diff < -tolerance {
			res.addError("%s jobs require a bidding window of %s, got %s", j.Urgency, want, window)
		}

	case ActionSubmitBid:
		if j.BiddingEndsAt == nil {
			res.addError("job has no bidding window")
			break
		}
		if now.After(*j.BiddingEndsAt) {
			res.addError("bidding window closed")
		}
		if j.Urgency == UrgencyUrgent {
			if p.DistanceKM == nil {
				res.addError("bidder distance required for urgent jobs")
			} else if *p.DistanceKM > UrgentBidMaxDistanceKM {
				res.addError("bidder is %.1f km from site, urgent jobs require at most %.0f km", *p.DistanceKM, UrgentBidMaxDistanceKM)
			}
		}

	case ActionStartWork:
		if p.DistanceMeters == nil {
			res.addError("geofence distance required")
		} else if *p.DistanceMeters > GeofenceRadiusMeters {
			res.addError("plumber is %.0f m from site, must be within %.0f m to start work", *p.DistanceMeters, GeofenceRadiusMeters)
		}
		if !p.DwellMet {
			res.addWarning("minimum on-site dwell time not met, timer start blocked")
		}

	case ActionCompleteWork:
		if p.FinalPhotos < MinFinalPhotos {
			res.addError("completion requires at least %d final photos, got %d", MinFinalPhotos, p.FinalPhotos)
		}
		if len(p.WorkDescription) < MinWorkDescriptionLn {
			res.addError("work description must be at least %d characters, got %d", MinWorkDescriptionLn, len(p.WorkDescription))
		}
		if p.InvoiceAmount == nil || p.SuggestedAmount == nil || p.SuggestedAmount.IsZero() {
			res.addError("invoice and suggested amounts required")
		} else {
			limit := p.SuggestedAmount.Mul(decimal.NewFromFloat(InvoiceVariance)).Abs()
			if p.InvoiceAmount.Sub(*p.SuggestedAmount).Abs().GreaterThan(limit) {
				res.addError("invoice %s deviates more than %.0f%% from suggested amount %s", p.InvoiceAmount, InvoiceVariance*100, p.SuggestedAmount)
			}
		}

	case ActionProcessPayment:
		if j.Urgency == UrgencyUrgent && p.PaymentMethod != "card" {
			res.addWarning("non-card payment on an urgent job settles slower")
		}

	case ActionReleasePayment:
		if j.PaidAt == nil {
			res.addError("job has not been paid")
			break
		}
		if days := int(now.Sub(*j.PaidAt).Hours() / 24); days < ReleaseHoldDays {
			res.addError("holding period not elapsed (%d/%d days)", days, ReleaseHoldDays)
		}
		if p.OpenClaims > 0 {
			res.addError("job has %d open after-sales claims", p.OpenClaims)
		}
		if p.NonCompliant {
			res.addWarning("plumber is non-compliant, release will carry a penalty")
		}

	default:
		res.addError("unknown action %q", action)
	}

	return res
}
