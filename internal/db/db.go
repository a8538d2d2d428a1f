package db

import (
	"fmt"

	"fixbet/internal/auth"
	"fixbet/internal/claim"
	"fixbet/internal/compliance"
	"fixbet/internal/job"
	"fixbet/internal/payment"
	"fixbet/internal/tasks"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&job.Job{},
		&job.Transition{},
		&job.Bid{},
		&payment.PaymentSplit{},
		&compliance.Document{},
		&claim.Claim{},
		&tasks.Task{},
	); err != nil {
		return err
	}

	// One transition log per job, ordered by insertion.
	if err := gdb.Exec(`create index if not exists idx_transitions_job on job_transitions(job_id, id);`).Error; err != nil {
		return err
	}

	// One current document per plumber and type.
	if err := gdb.Exec(`create index if not exists idx_docs_plumber_type on compliance_documents(plumber_id, type, expires_at desc);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_bids_job_amount on bids(job_id, amount asc);`,
		`create index if not exists idx_splits_release_due on payment_splits(held_status, held_release_at);`,
		`create index if not exists idx_claims_open on after_sales_claims(invoice_id) where status not in ('resolved', 'closed');`,
		`create index if not exists idx_claims_deadline on after_sales_claims(status, respond_by);`,
		`create index if not exists idx_tasks_due on tasks(status, run_at);`,
		`create index if not exists idx_tasks_lock on tasks(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
