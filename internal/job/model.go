package job

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Job is a service request moving through the lifecycle graph. Status
// is only ever changed through Service.Apply, which appends a
// Transition row in the same database transaction.
type Job struct {
	ID        uint64  `gorm:"primaryKey" json:"id"`
	ClientID  uint64  `gorm:"index;not null" json:"client_id"`
	PlumberID *uint64 `gorm:"index" json:"plumber_id,omitempty"`

	Description string `gorm:"type:text;not null" json:"description"`
	Address     string `gorm:"type:text;not null" json:"address"`
	Urgency     string `gorm:"not null;default:'normal'" json:"urgency"`
	Status      Status `gorm:"index;not null;default:'pending_review'" json:"status"`

	// Bidding window.
	BiddingStartsAt *time.Time `gorm:"type:timestamptz" json:"bidding_starts_at,omitempty"`
	BiddingEndsAt   *time.Time `gorm:"type:timestamptz" json:"bidding_ends_at,omitempty"`

	// Assignment.
	WinnerBidID *uint64          `gorm:"index" json:"winner_bid_id,omitempty"`
	WinningBid  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"winning_bid,omitempty"`
	AssignedAt  *time.Time       `gorm:"type:timestamptz" json:"assigned_at,omitempty"`

	// Travel and on-site work.
	EnRouteAt *time.Time `gorm:"type:timestamptz" json:"en_route_at,omitempty"`
	ETA       *time.Time `gorm:"type:timestamptz" json:"eta,omitempty"`
	StartedAt *time.Time `gorm:"type:timestamptz" json:"started_at,omitempty"`
	TimerRef  *string    `gorm:"type:text" json:"timer_ref,omitempty"`

	// Completion evidence.
	CompletedAt     *time.Time       `gorm:"type:timestamptz" json:"completed_at,omitempty"`
	InvoiceID       *string          `gorm:"index" json:"invoice_id,omitempty"`
	InvoiceAmount   *decimal.Decimal `gorm:"type:numeric(12,2)" json:"invoice_amount,omitempty"`
	SuggestedAmount *decimal.Decimal `gorm:"type:numeric(12,2)" json:"suggested_amount,omitempty"`
	FinalPhotos     pq.StringArray   `gorm:"type:text[];not null;default:'{}'" json:"final_photos"`
	WorkDescription string           `gorm:"type:text;not null;default:''" json:"work_description"`

	// Settlement.
	PaymentID   *string    `gorm:"type:text" json:"payment_id,omitempty"`
	PaidAt      *time.Time `gorm:"type:timestamptz" json:"paid_at,omitempty"`
	ClosedAt    *time.Time `gorm:"type:timestamptz" json:"closed_at,omitempty"`
	CancelledAt *time.Time `gorm:"type:timestamptz" json:"cancelled_at,omitempty"`
	Rating      *int       `json:"rating,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

// Transition is one append-only state-history row. Rows are only ever
// inserted; the latest row's ToStatus always equals the job's Status.
type Transition struct {
	ID         uint64          `gorm:"primaryKey" json:"id"`
	JobID      uint64          `gorm:"index;not null" json:"job_id"`
	FromStatus Status          `gorm:"not null" json:"from"`
	ToStatus   Status          `gorm:"not null" json:"to"`
	ActorID    uint64          `gorm:"index;not null" json:"actor_id"`
	Metadata   json.RawMessage `gorm:"type:jsonb;not null;default:'{}'::jsonb" json:"metadata"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`
}

func (Transition) TableName() string { return "job_transitions" }

// Bid is one plumber's offer during the bidding window.
type Bid struct {
	ID         uint64          `gorm:"primaryKey" json:"id"`
	JobID      uint64          `gorm:"index;not null" json:"job_id"`
	PlumberID  uint64          `gorm:"index;not null" json:"plumber_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DistanceKM *float64        `json:"distance_km,omitempty"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`
}
