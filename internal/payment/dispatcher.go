package payment

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Unlocker opens the fridge lock.
type Unlocker interface {
	Unlock(ctx context.Context) error
}

// Auditor appends audit records. Implementations must not fail the caller.
type Auditor interface {
	Append(ctx context.Context, rec AuditRecord)
}

// Outcome describes what Dispatch did for a payment.
type Outcome struct {
	LockStatus LockStatus
	Recorded   bool
	Record     AuditRecord
}

// LockStatusFor is the dispatch table. The second return value reports
// whether the status produces an audit record at all.
func LockStatusFor(status Status, unlocked bool) (LockStatus, bool) {
	switch status {
	case StatusApproved:
		if unlocked {
			return LockUnlocked, true
		}
		return LockUnlockFailed, true
	case StatusRejected, StatusPending:
		return LockLocked, true
	default:
		return LockLocked, false
	}
}

// Dispatcher turns a resolved payment into its side effect and audit entry.
type Dispatcher struct {
	unlocker Unlocker
	auditor  Auditor
	now      func() time.Time
	newID    func() string
}

// NewDispatcher creates a dispatcher that unlocks through u and records to a.
func NewDispatcher(u Unlocker, a Auditor) *Dispatcher {
	return &Dispatcher{
		unlocker: u,
		auditor:  a,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Dispatch runs the side effect for rec. Unlock failures are recorded as
// unlock_failed and never returned; unknown statuses are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, rec Record) Outcome {
	log.Printf("payment: processing %s - status: %s", rec.ID, rec.Status)

	unlocked := false
	if rec.Status == StatusApproved {
		log.Printf("payment: %s approved, unlocking", rec.ID)
		if err := d.unlocker.Unlock(ctx); err != nil {
			log.Printf("payment: unlock for %s failed: %v", rec.ID, err)
		} else {
			unlocked = true
		}
	}

	lock, recorded := LockStatusFor(rec.Status, unlocked)
	if !recorded {
		log.Printf("payment: %s has unhandled status, ignoring", rec.ID)
		return Outcome{LockStatus: lock}
	}

	entry := AuditRecord{
		ID:                d.newID(),
		Timestamp:         d.now().UTC(),
		PaymentID:         string(rec.ID),
		ExternalReference: rec.ExternalReference,
		PaymentStatus:     rec.Status,
		LockStatus:        lock,
	}
	d.auditor.Append(ctx, entry)
	return Outcome{LockStatus: lock, Recorded: true, Record: entry}
}
