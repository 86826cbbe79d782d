package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geladeira/api/internal/admin"
	"geladeira/api/internal/audit"
	"geladeira/api/internal/auth"
	"geladeira/api/internal/config"
	"geladeira/api/internal/db"
	"geladeira/api/internal/device"
	"geladeira/api/internal/mercadopago"
	"geladeira/api/internal/middleware"
	"geladeira/api/internal/payment"
)

func main() {
	config.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.WebhookInsecure {
		log.Println("WARNING: WEBHOOK_INSECURE is set, unsigned webhooks will be accepted")
	}

	var sqlite *sql.DB
	if cfg.AuditDBPath != "" {
		var err error
		sqlite, err = db.OpenSQLite(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("open audit db: %v", err)
		}
		defer sqlite.Close()
		if err := db.Migrate(sqlite); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg, sqlite),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	log.Printf("relay listening on %s (device %s:%d)", addr, cfg.DeviceHost, cfg.DevicePort)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
	log.Println("server stopped")
}

// newRouter wires every component. sqlite may be nil, in which case the
// flat file is the only audit sink.
func newRouter(cfg *config.Config, sqlite *sql.DB) http.Handler {
	unlocker := device.NewUnlocker(cfg.DeviceHost, cfg.DevicePort)

	fileSink := audit.NewFileSink(cfg.AuditLogPath)
	sinks := []audit.Sink{fileSink}
	var reader admin.RecordReader = fileSink
	if sqlite != nil {
		sqliteSink := audit.NewSQLiteSink(sqlite)
		sinks = append(sinks, sqliteSink)
		reader = sqliteSink
	}
	dispatcher := payment.NewDispatcher(unlocker, audit.NewLogger(sinks...))

	mux := http.NewServeMux()

	adminHandler := admin.NewHandler(unlocker, reader, cfg)
	mux.HandleFunc("/api/status", adminHandler.GetStatus)
	mux.HandleFunc("/api/admin/token", adminHandler.IssueToken)
	mux.HandleFunc("/api/test-esp", middleware.RequireRole(auth.RoleAdmin, adminHandler.TestUnlock))
	mux.HandleFunc("/api/transactions", middleware.RequireRole(auth.RoleAdmin, adminHandler.ListTransactions))

	// Webhook endpoint (only registered when MERCADOPAGO_ACCESS_TOKEN is set)
	if cfg.Configured() {
		client := mercadopago.NewClient(cfg.AccessToken, cfg.APIBase, cfg.GatewayTimeout)
		verifier := mercadopago.Verifier{Secret: cfg.WebhookSecret, Insecure: cfg.WebhookInsecure}
		webhookHandler := mercadopago.NewHandler(verifier, client, dispatcher)
		mux.HandleFunc("/api/webhook/mercadopago", webhookHandler.HandleWebhook)
		log.Println("Mercado Pago webhook registered")
	} else {
		log.Println("MERCADOPAGO_ACCESS_TOKEN not set, webhook disabled")
	}

	return middleware.Recover(middleware.CORS(cfg.CORSOrigins)(middleware.Auth(cfg.JWTSecret)(mux)))
}
