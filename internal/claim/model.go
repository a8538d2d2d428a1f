package claim

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Claim types.
const (
	TypeWarranty        = "warranty"
	TypeDamage          = "damage"
	TypeDissatisfaction = "dissatisfaction"
)

// Priorities, each with its own contractor response deadline.
const (
	PriorityUrgent    = "urgent"
	PriorityImportant = "important"
	PriorityAesthetic = "aesthetic"
)

// Claim statuses. A claim is open (and freezes its payment split) in
// every status except resolved and closed.
const (
	StatusSubmitted = "submitted"
	StatusAccepted  = "accepted"
	StatusDisputed  = "disputed"
	StatusEscalated = "escalated"
	StatusResolved  = "resolved"
	StatusClosed    = "closed"
)

// Claim is a client dispute about completed work. HoldAmount is fixed
// at 25% of the invoice total at submission and never recomputed.
type Claim struct {
	ID        string `gorm:"primaryKey" json:"id"`
	InvoiceID string `gorm:"index;not null" json:"invoice_id"`
	JobID     uint64 `gorm:"index;not null" json:"job_id"`
	ClientID  uint64 `gorm:"index;not null" json:"client_id"`
	PlumberID uint64 `gorm:"index;not null" json:"plumber_id"`

	Type        string         `gorm:"not null" json:"type"`
	Priority    string         `gorm:"not null" json:"priority"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Photos      pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"photos"`

	Status     string          `gorm:"index;not null;default:'submitted'" json:"status"`
	HoldAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"hold_amount"`
	Resolution string          `gorm:"type:text;not null;default:''" json:"resolution,omitempty"`

	RespondBy   time.Time  `gorm:"index;type:timestamptz;not null" json:"respond_by"`
	RespondedAt *time.Time `gorm:"type:timestamptz" json:"responded_at,omitempty"`
	ResolvedAt  *time.Time `gorm:"type:timestamptz" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Claim) TableName() string { return "after_sales_claims" }
