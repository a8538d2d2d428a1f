package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fixbet/internal/clock"
	"fixbet/internal/compliance"
	"fixbet/internal/metrics"
)

var (
	ErrNotFound = errors.New("payment split not found")
	ErrExists   = errors.New("payment split already materialized for job")
)

// Service owns the payment split lifecycle: materialization at job
// completion, compliance snapshot refreshes with the one-time penalty,
// and releasing the held portion once CheckRelease allows it.
type Service struct {
	DB        *gorm.DB
	Clock     clock.Clock
	Evaluator compliance.Evaluator
}

// MaterializeInput is everything the engine needs from a freshly
// completed job.
type MaterializeInput struct {
	JobID       uint64
	InvoiceID   string
	PlumberID   uint64
	ClientID    uint64
	TotalAmount decimal.Decimal
	CompletedAt time.Time
}

// Materialize creates the split record for a completed job: 75%
// immediate, 25% held for 30 days, with the plumber's compliance
// snapshot stamped in.
func (s *Service) Materialize(ctx context.Context, in MaterializeInput) (*PaymentSplit, error) {
	split := CalculateSplit(in.TotalAmount)
	now := s.Clock.Now()

	ps := &PaymentSplit{
		InvoiceID:       in.InvoiceID,
		JobID:           in.JobID,
		PlumberID:       in.PlumberID,
		ClientID:        in.ClientID,
		TotalAmount:     in.TotalAmount,
		ImmediateAmount: split.Immediate,
		HeldAmount:      split.Held,
		ImmediateStatus: PortionPending,
		HeldStatus:      PortionHeld,
		JobCompletedAt:  in.CompletedAt,
		HeldReleaseAt:   in.CompletedAt.Add(HoldDays * 24 * time.Hour),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing PaymentSplit
		err := tx.Where("job_id = ?", in.JobID).First(&existing).Error
		if err == nil {
			return ErrExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.refreshCompliance(tx, ps, now); err != nil {
			return err
		}
		return tx.Create(ps).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.SplitsMaterializedTotal.Inc()
	return ps, nil
}

// refreshCompliance re-reads the plumber's documents, stamps the
// snapshot onto the split and applies the 10% penalty the first time
// the plumber is seen non-compliant.
func (s *Service) refreshCompliance(tx *gorm.DB, ps *PaymentSplit, now time.Time) error {
	var docs []compliance.Document
	if err := tx.Where("plumber_id = ?", ps.PlumberID).Find(&docs).Error; err != nil {
		return err
	}

	ps.ComplianceStatus = s.Evaluator.Aggregate(docs, now)
	ps.ComplianceDocuments = s.Evaluator.Snapshot(docs, now)
	ps.ComplianceCheckedAt = &now

	if ps.ComplianceStatus == compliance.NonCompliant && !ps.PenaltyApplied {
		ps.PenaltyApplied = true
		ps.PenaltyAmount = CalculateCompliancePenalty(ps.HeldAmount)
		ps.PenaltyReason = fmt.Sprintf("plumber non-compliant at check on %s", now.Format(time.RFC3339))
		metrics.CompliancePenaltiesTotal.Inc()
	}
	return nil
}

// SettleImmediate moves the immediate 75% portion to released when the
// client's payment is processed.
func (s *Service) SettleImmediate(ctx context.Context, jobID uint64) error {
	res := s.DB.WithContext(ctx).Model(&PaymentSplit{}).
		Where("job_id = ?", jobID).
		Updates(map[string]any{
			"immediate_status": PortionReleased,
			"updated_at":       s.Clock.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Reevaluate refreshes the compliance snapshot, runs the release gate
// and releases the held portion when eligible. Safe to call any number
// of times; an already-released split is returned untouched.
func (s *Service) Reevaluate(ctx context.Context, splitID uint64) (ReleaseDecision, *PaymentSplit, error) {
	var ps PaymentSplit
	var decision ReleaseDecision

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ps, splitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := s.Clock.Now()
		if ps.HeldStatus != PortionHeld {
			decision = CheckRelease(&ps, now)
			return nil
		}

		if err := s.refreshCompliance(tx, &ps, now); err != nil {
			return err
		}

		decision = CheckRelease(&ps, now)
		if decision.CanRelease {
			ps.HeldStatus = PortionReleased
			ps.ReleasedAt = &now
		}
		ps.UpdatedAt = now
		return tx.Save(&ps).Error
	})
	if err != nil {
		return ReleaseDecision{}, nil, err
	}
	return decision, &ps, nil
}

// Get loads a split by id.
func (s *Service) Get(ctx context.Context, id uint64) (*PaymentSplit, error) {
	var ps PaymentSplit
	if err := s.DB.WithContext(ctx).First(&ps, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ps, nil
}

// GetByJob loads the split for a job.
func (s *Service) GetByJob(ctx context.Context, jobID uint64) (*PaymentSplit, error) {
	var ps PaymentSplit
	if err := s.DB.WithContext(ctx).Where("job_id = ?", jobID).First(&ps).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ps, nil
}
