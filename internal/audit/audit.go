// Package audit persists the outcome of every processed payment
// notification. Writes are best effort: a failing sink is logged and
// skipped, never reported to the webhook caller.
package audit

import (
	"context"
	"log"

	"geladeira/api/internal/payment"
)

// Sink stores audit records.
type Sink interface {
	Write(ctx context.Context, rec payment.AuditRecord) error
	Name() string
}

// Logger fans a record out to every sink.
type Logger struct {
	sinks []Sink
}

// NewLogger creates a logger writing to sinks in order.
func NewLogger(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks}
}

// Append writes rec to every sink, logging and swallowing failures.
func (l *Logger) Append(ctx context.Context, rec payment.AuditRecord) {
	saved := 0
	for _, s := range l.sinks {
		if err := s.Write(ctx, rec); err != nil {
			log.Printf("audit: %s write for payment %s failed: %v", s.Name(), rec.PaymentID, err)
			continue
		}
		saved++
	}
	if saved > 0 {
		log.Printf("audit: saved %s payment=%s status=%s lock=%s", rec.ID, rec.PaymentID, rec.PaymentStatus, rec.LockStatus)
	}
}
