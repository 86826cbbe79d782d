package audit

import (
	"context"
	"database/sql"

	"geladeira/api/internal/payment"
	"geladeira/api/internal/repository"
)

// SQLiteSink mirrors audit records into the audit_records table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink creates a sink over an already migrated database.
func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Write(ctx context.Context, rec payment.AuditRecord) error {
	return repository.InsertAuditRecord(ctx, s.db, rec)
}

// Recent returns the newest records first.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]payment.AuditRecord, error) {
	return repository.ListAuditRecords(ctx, s.db, limit)
}
