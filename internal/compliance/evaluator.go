package compliance

import "time"

// Evaluator derives per-document and aggregate compliance from a
// plumber's documents. Pure; all temporal checks go through now.
type Evaluator struct {
	// GraceDays is how long after a required document expires the
	// plumber stays in GRACE_PERIOD instead of NON_COMPLIANT.
	GraceDays int
	// ReminderDays is the renewal-reminder window before expiry.
	// Informational only; never blocks release.
	ReminderDays int
}

// NewEvaluator returns an evaluator with the default 7-day grace period
// and 30-day renewal reminder window.
func NewEvaluator() Evaluator {
	return Evaluator{GraceDays: 7, ReminderDays: 30}
}

// DocumentState derives the effective state of one document at now.
func (e Evaluator) DocumentState(doc Document, now time.Time) string {
	if doc.Status == DocPending {
		return StatePending
	}
	if !doc.ExpiresAt.After(now) {
		return StateExpired
	}
	if doc.ExpiresAt.Sub(now) <= time.Duration(e.ReminderDays)*24*time.Hour {
		return StateExpiringSoon
	}
	return StateValid
}

// Aggregate derives the plumber-level status from all documents at now.
// Optional document types are ignored. A required document expired for
// longer than the grace period makes the plumber NON_COMPLIANT; expired
// within the grace period, GRACE_PERIOD; never uploaded or still
// pending verification, PENDING_VERIFICATION. NON_COMPLIANT wins over
// GRACE_PERIOD, which wins over PENDING_VERIFICATION.
func (e Evaluator) Aggregate(docs []Document, now time.Time) string {
	grace := time.Duration(e.GraceDays) * 24 * time.Hour

	byType := make(map[string]Document, len(docs))
	for _, d := range docs {
		if !IsRequired(d.Type) {
			continue
		}
		// Keep the freshest document per type: a re-upload with a later
		// expiry supersedes the expired one.
		if cur, ok := byType[d.Type]; !ok || d.ExpiresAt.After(cur.ExpiresAt) {
			byType[d.Type] = d
		}
	}

	var inGrace, pending bool
	for _, required := range RequiredTypes {
		d, ok := byType[required]
		if !ok {
			pending = true
			continue
		}
		switch e.DocumentState(d, now) {
		case StateExpired:
			if now.Sub(d.ExpiresAt) > grace {
				return NonCompliant
			}
			inGrace = true
		case StatePending:
			pending = true
		}
	}

	switch {
	case inGrace:
		return GracePeriod
	case pending:
		return PendingVerification
	default:
		return Compliant
	}
}

// HasExpired reports whether any document in the set is marked expired.
// Works on snapshots where Status was stamped at check time.
func HasExpired(docs []Document) bool {
	for _, d := range docs {
		if d.Status == DocExpired {
			return true
		}
	}
	return false
}

// Snapshot stamps each document's effective state into its Status field
// for freezing onto a payment split at check time.
func (e Evaluator) Snapshot(docs []Document, now time.Time) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		switch e.DocumentState(d, now) {
		case StateExpired:
			d.Status = DocExpired
		case StatePending:
			d.Status = DocPending
		default:
			d.Status = DocValid
		}
		out[i] = d
	}
	return out
}
