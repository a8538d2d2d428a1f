package job

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fixbet/internal/clock"
	"fixbet/internal/metrics"
)

var ErrNotFound = errors.New("job not found")

// Service commits lifecycle transitions. Each Apply runs in one
// database transaction: the job row is locked FOR UPDATE, the edge is
// re-checked against the stored status, the per-state timestamp is
// stamped and an append-only history row is written. A concurrent
// retry of the same transition loses the lock race and fails the edge
// re-check because the stored status has already moved.
type Service struct {
	DB    *gorm.DB
	Clock clock.Clock
}

// ApplyInput describes one transition attempt. Patch, when set, updates
// job fields (winning bid, completion evidence, payment reference)
// atomically with the status change.
type ApplyInput struct {
	JobID    uint64
	ActorID  uint64
	To       Status
	Metadata map[string]any
	Patch    func(*Job)
}

func (s *Service) Apply(ctx context.Context, in ApplyInput) (*Job, error) {
	var j Job

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&j, in.JobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		rec, err := Attempt(j.Status, in.To, in.Metadata, s.Clock)
		if err != nil {
			return err
		}

		if in.Patch != nil {
			in.Patch(&j)
		}
		j.Status = rec.To
		j.UpdatedAt = rec.At

		switch rec.To {
		case StatusAssigned:
			j.AssignedAt = &rec.At
		case StatusEnRoute:
			j.EnRouteAt = &rec.At
		case StatusInProgress:
			j.StartedAt = &rec.At
		case StatusCompleted:
			j.CompletedAt = &rec.At
		case StatusPaid:
			j.PaidAt = &rec.At
		case StatusClosed:
			j.ClosedAt = &rec.At
		case StatusCancelled:
			j.CancelledAt = &rec.At
		}

		if err := tx.Save(&j).Error; err != nil {
			return err
		}

		payload, err := json.Marshal(rec.Metadata)
		if err != nil {
			return err
		}
		if rec.Metadata == nil {
			payload = []byte(`{}`)
		}
		return tx.Create(&Transition{
			JobID:      j.ID,
			FromStatus: rec.From,
			ToStatus:   rec.To,
			ActorID:    in.ActorID,
			Metadata:   payload,
			CreatedAt:  rec.At,
		}).Error
	})
	if err != nil {
		var ite *InvalidTransitionError
		if errors.As(err, &ite) {
			metrics.TransitionsRejectedTotal.Inc()
		}
		return nil, err
	}
	metrics.TransitionsTotal.WithLabelValues(string(in.To)).Inc()
	return &j, nil
}

// Get loads a job by id.
func (s *Service) Get(ctx context.Context, id uint64) (*Job, error) {
	var j Job
	if err := s.DB.WithContext(ctx).First(&j, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// History returns the append-only transition log for a job, oldest
// first.
func (s *Service) History(ctx context.Context, jobID uint64) ([]Transition, error) {
	var recs []Transition
	err := s.DB.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("id asc").
		Find(&recs).Error
	return recs, err
}
