package claim

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fixbet/internal/clock"
	"fixbet/internal/payment"
)

var (
	ErrNotFound      = errors.New("claim not found")
	ErrNoPhotos      = errors.New("claim requires at least one photo")
	ErrBadTransition = errors.New("claim status does not allow this action")
)

// Service drives the claim lifecycle. Submission and resolution update
// the referenced payment split in the same database transaction, so
// the after-sales hold flag can never disagree with the set of open
// claims.
type Service struct {
	DB    *gorm.DB
	Clock clock.Clock
}

type SubmitInput struct {
	InvoiceID   string
	ClientID    uint64
	Type        string
	Priority    string
	Description string
	Photos      []string
}

// Submit opens a claim against a paid-out invoice. The hold amount is
// fixed here, at 25% of the invoice total, and the split is frozen
// immediately.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Claim, error) {
	if len(in.Photos) == 0 {
		return nil, ErrNoPhotos
	}

	now := s.Clock.Now()
	c := &Claim{
		ID:          uuid.NewString(),
		InvoiceID:   in.InvoiceID,
		ClientID:    in.ClientID,
		Type:        in.Type,
		Priority:    in.Priority,
		Description: in.Description,
		Photos:      in.Photos,
		Status:      StatusSubmitted,
		RespondBy:   now.Add(ResponseWindow(in.Priority)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ps payment.PaymentSplit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("invoice_id = ?", in.InvoiceID).
			First(&ps).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return payment.ErrNotFound
			}
			return err
		}

		c.JobID = ps.JobID
		c.PlumberID = ps.PlumberID
		c.HoldAmount = HoldAmount(ps.TotalAmount)

		if err := tx.Create(c).Error; err != nil {
			return err
		}

		ps.AfterSalesHoldActive = true
		ps.AfterSalesHoldAmount = c.HoldAmount
		ps.AfterSalesClaimIDs = append(ps.AfterSalesClaimIDs, c.ID)
		ps.UpdatedAt = now
		return tx.Save(&ps).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Respond records the plumber's answer: accept or dispute. Only
// submitted claims can be answered.
func (s *Service) Respond(ctx context.Context, claimID string, accept bool) (*Claim, error) {
	next := StatusDisputed
	if accept {
		next = StatusAccepted
	}
	return s.advance(ctx, claimID, next, "", CanRespond)
}

// EscalateIfOverdue moves an unanswered claim past its response
// deadline into administrator arbitration. A no-op for claims that
// were answered in time.
func (s *Service) EscalateIfOverdue(ctx context.Context, claimID string) (*Claim, error) {
	var c Claim
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", claimID).
			First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		now := s.Clock.Now()
		if !Overdue(&c, now) {
			return nil
		}
		c.Status = StatusEscalated
		c.UpdatedAt = now
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolve closes out an answered or escalated claim. When the last
// open claim on a split resolves, the after-sales hold clears.
func (s *Service) Resolve(ctx context.Context, claimID, resolution string) (*Claim, error) {
	return s.advance(ctx, claimID, StatusResolved, resolution, CanResolve)
}

func (s *Service) advance(ctx context.Context, claimID, next, resolution string, allowed func(string) bool) (*Claim, error) {
	var c Claim
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", claimID).
			First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !allowed(c.Status) {
			return ErrBadTransition
		}

		now := s.Clock.Now()
		c.Status = next
		c.UpdatedAt = now
		switch next {
		case StatusAccepted, StatusDisputed:
			c.RespondedAt = &now
		case StatusResolved, StatusClosed:
			c.Resolution = resolution
			c.ResolvedAt = &now
		}
		if err := tx.Save(&c).Error; err != nil {
			return err
		}

		if !IsOpen(c.Status) {
			return s.clearHoldIfLast(tx, &c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// clearHoldIfLast drops the split's after-sales hold when no open
// claim remains for its invoice.
func (s *Service) clearHoldIfLast(tx *gorm.DB, c *Claim) error {
	var open int64
	if err := tx.Model(&Claim{}).
		Where("invoice_id = ? AND status NOT IN ?", c.InvoiceID, []string{StatusResolved, StatusClosed}).
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return nil
	}
	return tx.Model(&payment.PaymentSplit{}).
		Where("invoice_id = ?", c.InvoiceID).
		Updates(map[string]any{
			"after_sales_hold_active": false,
			"updated_at":              s.Clock.Now(),
		}).Error
}

// OpenCount returns the number of open claims against an invoice.
func (s *Service) OpenCount(ctx context.Context, invoiceID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Claim{}).
		Where("invoice_id = ? AND status NOT IN ?", invoiceID, []string{StatusResolved, StatusClosed}).
		Count(&n).Error
	return n, err
}

// Get loads a claim by id.
func (s *Service) Get(ctx context.Context, claimID string) (*Claim, error) {
	var c Claim
	if err := s.DB.WithContext(ctx).Where("id = ?", claimID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
