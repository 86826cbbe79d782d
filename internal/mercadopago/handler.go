package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"geladeira/api/internal/payment"
)

const maxBodyBytes = 65536

// PaymentResolver fetches the authoritative payment record.
type PaymentResolver interface {
	GetPayment(ctx context.Context, paymentID string) (*payment.Record, error)
}

// ActionDispatcher runs the side effect of a resolved payment.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, rec payment.Record) payment.Outcome
}

// Handler serves the Mercado Pago webhook endpoint.
type Handler struct {
	verifier   Verifier
	resolver   PaymentResolver
	dispatcher ActionDispatcher
}

// NewHandler creates a webhook handler.
func NewHandler(verifier Verifier, resolver PaymentResolver, dispatcher ActionDispatcher) *Handler {
	return &Handler{verifier: verifier, resolver: resolver, dispatcher: dispatcher}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondOK(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleWebhook handles POST /api/webhook/mercadopago
//
// Answers 401 only when the signature is rejected and 500 when the body
// cannot be read. Every other outcome, including gateway and device
// failures, answers 200 so Mercado Pago does not keep redelivering.
// Redeliveries are not deduplicated: an approved payment notified twice
// unlocks twice.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Printf("mercadopago: read webhook body: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	query := r.URL.Query()
	requestID := r.Header.Get("x-request-id")
	if err := h.verifier.Check(r.Header.Get("x-signature"), requestID, query.Get("data.id")); err != nil {
		log.Printf("mercadopago: webhook signature error (request-id: %s): %v", requestID, err)
		respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	paymentID := ExtractPaymentID(body, query)
	if paymentID == "" {
		log.Printf("mercadopago: notification without payment id, ignoring (request-id: %s)", requestID)
		respondOK(w)
		return
	}

	// The gateway may hang up before the unlock completes; only the
	// per-call timeouts bound the downstream work.
	ctx := context.WithoutCancel(r.Context())

	rec, err := h.resolver.GetPayment(ctx, paymentID)
	if err != nil {
		var gwErr *GatewayError
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			log.Printf("mercadopago: payment %s not found", paymentID)
		case errors.As(err, &gwErr):
			log.Printf("mercadopago: lookup of payment %s failed with status %d", paymentID, gwErr.StatusCode)
		default:
			log.Printf("mercadopago: lookup of payment %s failed: %v", paymentID, err)
		}
		respondOK(w)
		return
	}

	out := h.dispatcher.Dispatch(ctx, *rec)
	log.Printf("mercadopago: payment %s processed (lock: %s, recorded: %v)", paymentID, out.LockStatus, out.Recorded)
	respondOK(w)
}
