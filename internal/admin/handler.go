// Package admin serves the operator endpoints: health status, a manual
// unlock trigger and a read-only view of the transaction log.
package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"geladeira/api/internal/auth"
	"geladeira/api/internal/config"
	"geladeira/api/internal/middleware"
	"geladeira/api/internal/payment"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	tokenTTL         = 12 * time.Hour
)

// RecordReader returns the most recent audit records, newest first.
type RecordReader interface {
	Recent(ctx context.Context, limit int) ([]payment.AuditRecord, error)
}

// Handler provides the operator HTTP handlers.
type Handler struct {
	unlocker payment.Unlocker
	records  RecordReader
	cfg      *config.Config
	now      func() time.Time
}

// NewHandler creates an admin handler.
func NewHandler(unlocker payment.Unlocker, records RecordReader, cfg *config.Config) *Handler {
	return &Handler{unlocker: unlocker, records: records, cfg: cfg, now: time.Now}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "online",
		"timestamp":  h.now().UTC().Format(time.RFC3339),
		"configured": h.cfg.Configured(),
	})
}

// TestUnlock handles POST /api/test-esp
// Sends one unlock command to the controller, bypassing payments.
func (h *Handler) TestUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	log.Printf("admin: manual unlock requested by %q", middleware.Subject(r.Context()))

	if err := h.unlocker.Unlock(context.WithoutCancel(r.Context())); err != nil {
		log.Printf("admin: manual unlock failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "failed to send unlock command",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "unlock command sent",
	})
}

// IssueToken handles POST /api/admin/token
// Exchanges the admin password for a bearer token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.cfg.AdminPasswordHash == "" {
		respondError(w, http.StatusNotFound, "admin login disabled")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !auth.CheckPassword(h.cfg.AdminPasswordHash, req.Password) {
		log.Printf("admin: rejected login for %q", req.Username)
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	subject := req.Username
	if subject == "" {
		subject = "admin"
	}
	token, err := auth.NewToken(subject, auth.RoleAdmin, h.cfg.JWTSecret, tokenTTL)
	if err != nil {
		log.Printf("admin: sign token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresIn": int(tokenTTL.Seconds()),
	})
}

// ListTransactions handles GET /api/transactions?limit=N
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	recs, err := h.records.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("admin: list transactions: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recs == nil {
		recs = []payment.AuditRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": recs,
		"count":        len(recs),
	})
}
