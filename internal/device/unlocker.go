// Package device talks to the ESP8266 lock controller on the fridge.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	// UnlockDuration is how long the controller keeps the lock open before
	// relocking on its own.
	UnlockDuration = 60
	// Timeout bounds a single unlock command.
	Timeout = 10 * time.Second
)

// ErrDeviceUnreachable wraps transport failures and timeouts.
var ErrDeviceUnreachable = errors.New("device unreachable")

// StatusError is returned when the controller answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device responded with status %d: %s", e.StatusCode, e.Body)
}

type unlockCommand struct {
	Command  string `json:"command"`
	Duration int    `json:"duration"`
}

// Unlocker sends unlock commands to a single controller.
type Unlocker struct {
	URL        string
	httpClient *http.Client
}

// NewUnlocker creates an unlocker for the controller at host:port.
func NewUnlocker(host string, port int) *Unlocker {
	return &Unlocker{
		URL:        "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/unlock",
		httpClient: &http.Client{Timeout: Timeout},
	}
}

// Unlock sends one unlock command. Any transport error, timeout or non-200
// response is an error; there is no retry.
func (u *Unlocker) Unlock(ctx context.Context) error {
	b, err := json.Marshal(unlockCommand{Command: "unlock", Duration: UnlockDuration})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
