package mercadopago

import (
	"bytes"
	"encoding/json"
	"net/url"

	"geladeira/api/internal/payment"
)

// Notification is the JSON body Mercado Pago posts to the webhook.
// Only Type and Data.ID are used: the status is always re-fetched.
type Notification struct {
	ID     payment.FlexibleID `json:"id"`
	Type   string             `json:"type"`
	Action string             `json:"action"`
	Data   struct {
		ID payment.FlexibleID `json:"id"`
	} `json:"data"`
}

// ExtractPaymentID returns the payment id a notification refers to, or ""
// when it is not a payment notification.
//
// A JSON object with at least one field is authoritative. The query string
// ("type" and "data.id") is only consulted when the body is empty, null, {}
// or not a JSON object.
func ExtractPaymentID(body []byte, query url.Values) string {
	if len(bytes.TrimSpace(body)) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
			var n Notification
			if err := json.Unmarshal(body, &n); err == nil && n.Type == "payment" {
				return string(n.Data.ID)
			}
			return ""
		}
	}
	if query.Get("type") == "payment" {
		return query.Get("data.id")
	}
	return ""
}
