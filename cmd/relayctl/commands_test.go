package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"geladeira/api/internal/audit"
	"geladeira/api/internal/auth"
	"geladeira/api/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "", "hash-password", "geladeira")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(strings.TrimSpace(out), "geladeira"))

	out, err = run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(strings.TrimSpace(out), "from-stdin"))

	_, err = run(t, "\n", "hash-password")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	out, err := run(t, "", "token", "--subject", "op", "--ttl", "1m")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), ".")))

	t.Setenv("JWT_SECRET", "")
	_, err = run(t, "", "token")
	assert.Error(t, err)
}

func TestUnlock(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	t.Setenv("DEVICE_HOST", host)
	t.Setenv("DEVICE_PORT", port)

	out, err := run(t, "", "unlock")
	require.NoError(t, err)
	assert.Contains(t, out, "unlock command sent")
	assert.Equal(t, 1, calls)
}

func TestMigrateAndTail(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUDIT_DB_PATH", filepath.Join(dir, "audit.db"))
	logPath := filepath.Join(dir, "transactions.log")
	t.Setenv("AUDIT_LOG_PATH", logPath)

	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")

	sink := audit.NewFileSink(logPath)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, sink.Write(context.Background(), payment.AuditRecord{
			ID: id, Timestamp: base.Add(time.Duration(i) * time.Minute), PaymentID: id,
			PaymentStatus: payment.StatusPending, LockStatus: payment.LockLocked,
		}))
	}

	out, err = run(t, "", "tail", "-n", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"b"`)
	assert.Contains(t, lines[1], `"id":"c"`)
}
