package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
)

var (
	// ErrSignatureMissing is returned when x-signature is absent and
	// insecure mode is off.
	ErrSignatureMissing = errors.New("signature header missing")
	// ErrSignatureInvalid is returned when the signature does not match.
	ErrSignatureInvalid = errors.New("signature verification failed")
)

// VerifySignature checks an x-signature header ("ts=<ts>,v1=<hex>").
//
// Mercado Pago signs the manifest "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
// with HMAC-SHA256. Returns false when ts or v1 is missing or the digest
// does not match.
func VerifySignature(signatureHeader, requestID, dataID, secret string) bool {
	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "ts="):
			ts = strings.TrimPrefix(part, "ts=")
		case strings.HasPrefix(part, "v1="):
			v1 = strings.TrimPrefix(part, "v1=")
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest(dataID, requestID, ts)))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(v1))
}

func manifest(dataID, requestID, ts string) string {
	return "id:" + dataID + ";request-id:" + requestID + ";ts:" + ts + ";"
}

// Verifier applies the signature policy for incoming webhooks.
type Verifier struct {
	Secret string
	// Insecure skips verification when the header or the secret is missing.
	// Meant for local development only.
	Insecure bool
}

// Check returns nil when the request may be processed.
func (v Verifier) Check(signatureHeader, requestID, dataID string) error {
	if v.Insecure && (signatureHeader == "" || v.Secret == "") {
		log.Printf("mercadopago: insecure mode, skipping signature verification (request-id: %s)", requestID)
		return nil
	}
	if signatureHeader == "" {
		return ErrSignatureMissing
	}
	if v.Secret == "" || !VerifySignature(signatureHeader, requestID, dataID, v.Secret) {
		return ErrSignatureInvalid
	}
	return nil
}
