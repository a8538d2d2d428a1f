package compliance

import "time"

// Document types a plumber can hold. Union certificate is optional and
// never affects the aggregate status.
const (
	TypeBusinessLicense    = "business_license"
	TypeLaborStandardsCert = "labor_standards_certificate"
	TypeUnionCert          = "union_certificate"
	TypeTaxComplianceCert  = "tax_compliance_certificate"
	TypeLiabilityInsurance = "liability_insurance"
)

// RequiredTypes must all be present and unexpired for a plumber to be
// COMPLIANT.
var RequiredTypes = []string{
	TypeBusinessLicense,
	TypeLaborStandardsCert,
	TypeTaxComplianceCert,
	TypeLiabilityInsurance,
}

// Stored per-document status. Expiry-derived states (expiring soon,
// expired) are computed against the clock, not stored.
const (
	DocValid   = "valid"
	DocExpired = "expired"
	DocPending = "pending"
)

// Derived per-document states.
const (
	StateValid        = "valid"
	StateExpiringSoon = "expiring_soon"
	StateExpired      = "expired"
	StatePending      = "pending"
)

// Aggregate plumber compliance.
const (
	Compliant           = "COMPLIANT"
	NonCompliant        = "NON_COMPLIANT"
	GracePeriod         = "GRACE_PERIOD"
	PendingVerification = "PENDING_VERIFICATION"
)

// Document is a regulatory credential uploaded by a plumber. Renewal
// happens out-of-band; the payment engine only reads these.
type Document struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	PlumberID      uint64     `gorm:"index;not null" json:"plumber_id"`
	Type           string     `gorm:"index;not null" json:"type"`
	DocumentNumber string     `gorm:"not null" json:"document_number"`
	Status         string     `gorm:"not null;default:'pending'" json:"status"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	LastVerifiedAt *time.Time `gorm:"type:timestamptz" json:"last_verified_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "compliance_documents" }

// IsRequired reports whether the document type affects the aggregate.
func IsRequired(docType string) bool {
	for _, t := range RequiredTypes {
		if t == docType {
			return true
		}
	}
	return false
}
