// Package payment holds the payment record as returned by the gateway and
// the status-driven dispatch that decides whether the fridge is unlocked.
package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the gateway-side payment status.
type Status int

const (
	StatusUnknown Status = iota
	StatusApproved
	StatusRejected
	StatusPending
)

// ParseStatus maps a gateway status string. Anything other than
// approved, rejected or pending is StatusUnknown.
func ParseStatus(s string) Status {
	switch s {
	case "approved":
		return StatusApproved
	case "rejected":
		return StatusRejected
	case "pending":
		return StatusPending
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// LockStatus is the state the fridge lock was left in after a notification.
type LockStatus int

const (
	LockLocked LockStatus = iota
	LockUnlocked
	LockUnlockFailed
)

func (l LockStatus) String() string {
	switch l {
	case LockUnlocked:
		return "unlocked"
	case LockUnlockFailed:
		return "unlock_failed"
	default:
		return "locked"
	}
}

func (l LockStatus) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LockStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unlocked":
		*l = LockUnlocked
	case "unlock_failed":
		*l = LockUnlockFailed
	case "locked":
		*l = LockLocked
	default:
		return fmt.Errorf("unknown lock status %q", b)
	}
	return nil
}

// FlexibleID decodes an identifier sent either as a JSON string or number.
// The gateway returns numeric payment ids; webhook bodies send strings.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// Record is the authoritative payment as fetched from the gateway.
// It is the only input allowed to authorize an unlock.
type Record struct {
	ID                FlexibleID `json:"id"`
	Status            Status     `json:"status"`
	ExternalReference string     `json:"external_reference"`
}

// AuditRecord is one line of the append-only transaction log.
type AuditRecord struct {
	ID                string     `json:"id"`
	Timestamp         time.Time  `json:"timestamp"`
	PaymentID         string     `json:"payment_id"`
	ExternalReference string     `json:"external_reference"`
	PaymentStatus     Status     `json:"payment_status"`
	LockStatus        LockStatus `json:"lock_status"`
}
