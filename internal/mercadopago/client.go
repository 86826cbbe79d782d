// Package mercadopago receives Mercado Pago webhooks and looks payments up
// through the Mercado Pago REST API. No external SDK dependency.
package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"geladeira/api/internal/payment"
)

// DefaultAPIBase is the production REST endpoint.
const DefaultAPIBase = "https://api.mercadopago.com"

// ErrPaymentNotFound is returned when the gateway has no such payment.
var ErrPaymentNotFound = errors.New("payment not found")

// GatewayError is a non-success answer from the payments API.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("mercadopago error (%d): %s", e.StatusCode, e.Body)
}

// Client wraps the Mercado Pago API calls the relay needs.
type Client struct {
	AccessToken string
	APIBase     string
	httpClient  *http.Client
}

// NewClient creates a Mercado Pago client. Panics if accessToken is empty.
func NewClient(accessToken, apiBase string, timeout time.Duration) *Client {
	if accessToken == "" {
		panic("MERCADOPAGO_ACCESS_TOKEN environment variable is required")
	}
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		AccessToken: accessToken,
		APIBase:     strings.TrimRight(apiBase, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// doRequest makes an authenticated JSON request and decodes the response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.APIBase+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrPaymentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// GetPayment fetches the authoritative payment record. One attempt, no retry:
// the gateway redelivers the webhook if the relay never saw the payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*payment.Record, error) {
	var rec payment.Record
	if err := c.doRequest(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), &rec); err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	if rec.ID == "" {
		rec.ID = payment.FlexibleID(paymentID)
	}
	return &rec, nil
}
