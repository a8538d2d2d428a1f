package payment

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"fixbet/internal/compliance"
)

// Portion statuses. The immediate 75% moves pending -> authorized ->
// captured -> released; the held 25% stays held until the engine
// releases or refunds it.
const (
	PortionPending    = "pending"
	PortionAuthorized = "authorized"
	PortionCaptured   = "captured"
	PortionReleased   = "released"
	PortionHeld       = "held"
	PortionRefunded   = "refunded"
)

// PaymentSplit is materialized exactly once, when a job reaches
// completed. Afterwards only the held portion's status, the compliance
// snapshot and the after-sales hold fields change, driven by
// re-evaluation.
type PaymentSplit struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	InvoiceID string `gorm:"uniqueIndex;not null" json:"invoice_id"`
	JobID     uint64 `gorm:"uniqueIndex;not null" json:"job_id"`
	PlumberID uint64 `gorm:"index;not null" json:"plumber_id"`
	ClientID  uint64 `gorm:"index;not null" json:"client_id"`

	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	ImmediateAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"immediate_amount"`
	HeldAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"held_amount"`

	ImmediateStatus string `gorm:"not null;default:'pending'" json:"immediate_status"`
	HeldStatus      string `gorm:"not null;default:'held'" json:"held_status"`

	JobCompletedAt time.Time  `gorm:"type:timestamptz;not null" json:"job_completed_at"`
	HeldReleaseAt  time.Time  `gorm:"index;type:timestamptz;not null" json:"held_release_at"`
	ReleasedAt     *time.Time `gorm:"type:timestamptz" json:"released_at,omitempty"`

	// Compliance snapshot, stamped at each check.
	ComplianceStatus    string                `gorm:"not null;default:'PENDING_VERIFICATION'" json:"compliance_status"`
	ComplianceDocuments []compliance.Document `gorm:"serializer:json" json:"compliance_documents"`
	ComplianceCheckedAt *time.Time            `gorm:"type:timestamptz" json:"compliance_checked_at,omitempty"`

	PenaltyApplied bool            `gorm:"not null;default:false" json:"compliance_penalty_applied"`
	PenaltyAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"penalty_amount"`
	PenaltyReason  string          `gorm:"type:text;not null;default:''" json:"penalty_reason,omitempty"`

	AfterSalesHoldActive bool            `gorm:"not null;default:false" json:"after_sales_hold_active"`
	AfterSalesHoldAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"after_sales_hold_amount"`
	AfterSalesClaimIDs   pq.StringArray  `gorm:"type:text[];not null;default:'{}'" json:"after_sales_claim_ids"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PaymentSplit) TableName() string { return "payment_splits" }
