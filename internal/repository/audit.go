package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"geladeira/api/internal/payment"
)

// recordedAtLayout is fixed width so text order matches time order.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertAuditRecord appends one audit record. Rows are never updated.
func InsertAuditRecord(ctx context.Context, db *sql.DB, rec payment.AuditRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_records (id, recorded_at, payment_id, external_reference, payment_status, lock_status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(recordedAtLayout),
		rec.PaymentID,
		rec.ExternalReference,
		rec.PaymentStatus.String(),
		rec.LockStatus.String(),
	)
	return err
}

// ListAuditRecords returns the most recent records, newest first.
func ListAuditRecords(ctx context.Context, db *sql.DB, limit int) ([]payment.AuditRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, recorded_at, payment_id, external_reference, payment_status, lock_status
		 FROM audit_records ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []payment.AuditRecord
	for rows.Next() {
		var (
			rec                    payment.AuditRecord
			recordedAt, ps, lockSt string
		)
		if err := rows.Scan(&rec.ID, &recordedAt, &rec.PaymentID, &rec.ExternalReference, &ps, &lockSt); err != nil {
			return nil, err
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recordedAt, err)
		}
		rec.PaymentStatus = payment.ParseStatus(ps)
		if err := rec.LockStatus.UnmarshalText([]byte(lockSt)); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
