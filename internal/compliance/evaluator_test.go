package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

// fullSet returns one valid document of every required type, expiring
// a year out.
func fullSet() []Document {
	out := make([]Document, 0, len(RequiredTypes))
	for _, typ := range RequiredTypes {
		out = append(out, Document{
			Type:      typ,
			Status:    DocValid,
			ExpiresAt: evalNow.Add(days(365)),
		})
	}
	return out
}

func TestDocumentState(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"valid", Document{Status: DocValid, ExpiresAt: evalNow.Add(days(90))}, StateValid},
		{"expiring soon", Document{Status: DocValid, ExpiresAt: evalNow.Add(days(15))}, StateExpiringSoon},
		{"expiring at window edge", Document{Status: DocValid, ExpiresAt: evalNow.Add(days(30))}, StateExpiringSoon},
		{"expired", Document{Status: DocValid, ExpiresAt: evalNow.Add(-days(1))}, StateExpired},
		{"expires this instant", Document{Status: DocValid, ExpiresAt: evalNow}, StateExpired},
		{"pending verification", Document{Status: DocPending, ExpiresAt: evalNow.Add(days(90))}, StatePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.DocumentState(tt.doc, evalNow))
		})
	}
}

func TestAggregate_Compliant(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, Compliant, e.Aggregate(fullSet(), evalNow))
}

func TestAggregate_ExpiredWithinGrace(t *testing.T) {
	e := NewEvaluator()
	docs := fullSet()
	docs[0].ExpiresAt = evalNow.Add(-days(3))
	assert.Equal(t, GracePeriod, e.Aggregate(docs, evalNow))
}

func TestAggregate_ExpiredPastGrace(t *testing.T) {
	e := NewEvaluator()
	docs := fullSet()
	docs[0].ExpiresAt = evalNow.Add(-days(8))
	assert.Equal(t, NonCompliant, e.Aggregate(docs, evalNow))
}

func TestAggregate_NonComplianceWinsOverGrace(t *testing.T) {
	e := NewEvaluator()
	docs := fullSet()
	docs[0].ExpiresAt = evalNow.Add(-days(3))  // in grace
	docs[1].ExpiresAt = evalNow.Add(-days(30)) // hard expired
	assert.Equal(t, NonCompliant, e.Aggregate(docs, evalNow))
}

func TestAggregate_MissingRequiredDocument(t *testing.T) {
	e := NewEvaluator()
	docs := fullSet()[1:] // drop the business license
	assert.Equal(t, PendingVerification, e.Aggregate(docs, evalNow))
}

func TestAggregate_PendingDocument(t *testing.T) {
	e := NewEvaluator()
	docs := fullSet()
	docs[2].Status = DocPending
	assert.Equal(t, PendingVerification, e.Aggregate(docs, evalNow))
}

func TestAggregate_OptionalTypeIgnored(t *testing.T) {
	e := NewEvaluator()
	docs := append(fullSet(), Document{
		Type:      TypeUnionCert,
		Status:    DocValid,
		ExpiresAt: evalNow.Add(-days(90)), // long expired
	})
	assert.Equal(t, Compliant, e.Aggregate(docs, evalNow))
}

func TestAggregate_RenewalSupersedesExpired(t *testing.T) {
	e := NewEvaluator()
	docs := fullSet()
	// Old, long-expired license plus its renewal: the renewal wins.
	docs = append(docs, Document{
		Type:      TypeBusinessLicense,
		Status:    DocValid,
		ExpiresAt: evalNow.Add(-days(60)),
	})
	assert.Equal(t, Compliant, e.Aggregate(docs, evalNow))
}

func TestAggregate_NoDocuments(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, PendingVerification, e.Aggregate(nil, evalNow))
}

func TestSnapshot_StampsEffectiveStates(t *testing.T) {
	e := NewEvaluator()
	docs := []Document{
		{Type: TypeBusinessLicense, Status: DocValid, ExpiresAt: evalNow.Add(days(90))},
		{Type: TypeLiabilityInsurance, Status: DocValid, ExpiresAt: evalNow.Add(-days(2))},
		{Type: TypeTaxComplianceCert, Status: DocPending, ExpiresAt: evalNow.Add(days(90))},
	}

	snap := e.Snapshot(docs, evalNow)
	assert.Equal(t, DocValid, snap[0].Status)
	assert.Equal(t, DocExpired, snap[1].Status)
	assert.Equal(t, DocPending, snap[2].Status)

	// Input untouched.
	assert.Equal(t, DocValid, docs[1].Status)
	assert.True(t, HasExpired(snap))
	assert.False(t, HasExpired(docs[:1]))
}
