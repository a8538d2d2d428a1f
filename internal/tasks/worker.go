package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"fixbet/internal/claim"
	"fixbet/internal/clock"
	"fixbet/internal/metrics"
	"fixbet/internal/payment"
)

// recheckInterval is how long a release check waits before retrying a
// split blocked by something other than elapsed time (open claim,
// compliance issue). Those blockers have no fixed resolution date.
const recheckInterval = 24 * time.Hour

// Worker drains the task queue: release checks at the 30-day mark and
// claim escalations at response deadlines.
type Worker struct {
	ID       string
	Repo     *Repo
	Payments *payment.Service
	Claims   *claim.Service
	Clock    clock.Clock
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task, err := w.Repo.Claim(w.ID)
			if err != nil {
				slog.Error("worker claim failed", "worker", w.ID, "err", err)
				continue
			}
			if task == nil {
				continue
			}
			w.handle(ctx, task)
		}
	}
}

func (w *Worker) handle(ctx context.Context, task *Task) {
	switch task.Type {
	case TypeReleaseCheck:
		w.handleReleaseCheck(ctx, task)
	case TypeClaimEscalation:
		w.handleClaimEscalation(ctx, task)
	default:
		_ = w.Repo.MarkFailed(task.ID, "unknown task type")
	}
}

func (w *Worker) handleReleaseCheck(ctx context.Context, task *Task) {
	type taskPayload struct {
		SplitID uint64 `json:"split_id"`
	}
	var p taskPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(task.ID, "bad payload")
		return
	}

	decision, ps, err := w.Payments.Reevaluate(ctx, p.SplitID)
	if err != nil {
		if err == payment.ErrNotFound {
			_ = w.Repo.MarkDone(task.ID)
			return
		}
		w.retry(task, "release check error: "+err.Error())
		return
	}

	if ps.HeldStatus == payment.PortionReleased {
		slog.Info("held payment released",
			"split", ps.ID, "invoice", ps.InvoiceID, "amount", ps.HeldAmount)
		metrics.HeldReleasesTotal.Inc()
		_ = w.Repo.MarkDone(task.ID)
		return
	}

	// Still blocked. Wake up at the release date when time is the only
	// blocker, otherwise poll daily until claims resolve or documents
	// are renewed.
	next := w.Clock.Now().Add(recheckInterval)
	if decision.EstimatedReleaseAt != nil {
		next = *decision.EstimatedReleaseAt
	}
	slog.Info("held payment still blocked",
		"split", ps.ID, "reasons", decision.Reasons, "next_check", next)
	_ = w.Repo.Reschedule(task.ID, next)
}

func (w *Worker) handleClaimEscalation(ctx context.Context, task *Task) {
	type taskPayload struct {
		ClaimID string `json:"claim_id"`
	}
	var p taskPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(task.ID, "bad payload")
		return
	}

	c, err := w.Claims.EscalateIfOverdue(ctx, p.ClaimID)
	if err != nil {
		if err == claim.ErrNotFound {
			_ = w.Repo.MarkDone(task.ID)
			return
		}
		w.retry(task, "claim escalation error: "+err.Error())
		return
	}

	if c.Status == claim.StatusEscalated {
		slog.Warn("claim escalated to arbitration", "claim", c.ID, "priority", c.Priority)
		metrics.ClaimsEscalatedTotal.Inc()
	}
	_ = w.Repo.MarkDone(task.ID)
}

func (w *Worker) retry(task *Task, errMsg string) {
	attempts := task.Attempts + 1
	if attempts >= task.MaxAttempts {
		_ = w.Repo.MarkFailed(task.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := w.Clock.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(task.ID, attempts, next, errMsg)
}
