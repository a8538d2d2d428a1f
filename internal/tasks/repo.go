package tasks

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

// EnqueueReleaseCheck schedules a release re-evaluation for a payment
// split, due at the split's release date.
func (r *Repo) EnqueueReleaseCheck(splitID uint64, runAt time.Time) error {
	return r.enqueue(TypeReleaseCheck, map[string]any{"split_id": splitID}, runAt)
}

// EnqueueClaimEscalation schedules an escalation check for a claim,
// due at its response deadline.
func (r *Repo) EnqueueClaimEscalation(claimID string, runAt time.Time) error {
	return r.enqueue(TypeClaimEscalation, map[string]any{"claim_id": claimID}, runAt)
}

func (r *Repo) enqueue(typ string, payload map[string]any, runAt time.Time) error {
	b, _ := json.Marshal(payload)
	t := Task{
		Type:    typ,
		Payload: b,
		RunAt:   runAt,
		Status:  StatusPending,
	}
	return r.DB.Create(&t).Error
}

// Claim one due task atomically using SKIP LOCKED.
// Works on Postgres.
func (r *Repo) Claim(workerID string) (*Task, error) {
	var task Task
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		// requeue stuck RUNNING tasks (optional safety)
		tx.Exec(`
update tasks
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`)

		// claim
		// FOR UPDATE SKIP LOCKED ensures no double-claim
		q := tx.Raw(`
with cte as (
  select id
  from tasks
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update tasks
set status='RUNNING', locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID)

		return q.Scan(&task).Error
	})
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, nil
	}
	return &task, nil
}

func (r *Repo) MarkDone(id uint64) error {
	return r.DB.Exec(`update tasks set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(id uint64, errMsg string) error {
	return r.DB.Exec(`update tasks set status='FAILED', last_error=?, updated_at=now() where id=?`, errMsg, id).Error
}

// Reschedule puts a healthy task back in the queue for a later run
// without counting it as a failed attempt. Used when a release check
// runs before the split is eligible.
func (r *Repo) Reschedule(id uint64, runAt time.Time) error {
	return r.DB.Exec(`
update tasks
set status='PENDING',
    run_at=?,
    locked_by=null,
    locked_at=null,
    updated_at=now()
where id=?`, runAt, id).Error
}

func (r *Repo) RetryLater(id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.Exec(`
update tasks
set status='PENDING',
    attempts=?,
    run_at=?,
    locked_by=null,
    locked_at=null,
    last_error=?,
    updated_at=now()
where id=?`, attempts, runAt, errMsg, id).Error
}
