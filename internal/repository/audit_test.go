package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"geladeira/api/internal/db"
	"geladeira/api/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecords_InsertAndList(t *testing.T) {
	sqlite, err := db.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer sqlite.Close()
	require.NoError(t, db.Migrate(sqlite))

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []payment.AuditRecord{
		{ID: "a", Timestamp: base, PaymentID: "1", ExternalReference: "ref-1", PaymentStatus: payment.StatusRejected, LockStatus: payment.LockLocked},
		{ID: "b", Timestamp: base.Add(time.Minute), PaymentID: "2", PaymentStatus: payment.StatusApproved, LockStatus: payment.LockUnlocked},
		{ID: "c", Timestamp: base.Add(2 * time.Minute), PaymentID: "2", PaymentStatus: payment.StatusApproved, LockStatus: payment.LockUnlockFailed},
	}
	for _, rec := range records {
		require.NoError(t, InsertAuditRecord(ctx, sqlite, rec))
	}

	got, err := ListAuditRecords(ctx, sqlite, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[2], got[0])
	assert.Equal(t, records[1], got[1])

	// ids are unique; a second insert of the same record is rejected
	assert.Error(t, InsertAuditRecord(ctx, sqlite, records[0]))
}

func TestListAuditRecords_SubSecondOrder(t *testing.T) {
	sqlite, err := db.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer sqlite.Close()
	require.NoError(t, db.Migrate(sqlite))

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	later := payment.AuditRecord{ID: "later", Timestamp: base.Add(500 * time.Millisecond), PaymentID: "1", PaymentStatus: payment.StatusApproved, LockStatus: payment.LockUnlocked}
	earlier := payment.AuditRecord{ID: "earlier", Timestamp: base, PaymentID: "2", PaymentStatus: payment.StatusRejected, LockStatus: payment.LockLocked}
	require.NoError(t, InsertAuditRecord(ctx, sqlite, later))
	require.NoError(t, InsertAuditRecord(ctx, sqlite, earlier))

	got, err := ListAuditRecords(ctx, sqlite, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "later", got[0].ID)
	assert.Equal(t, "earlier", got[1].ID)
	assert.Equal(t, later.Timestamp, got[0].Timestamp)
}
