package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Webhook signatures older than this are replays and rejected even when the
// hash matches.
const webhookSignatureTolerance = 300 * time.Second

var webhookSignaturePattern = regexp.MustCompile(`^t=(\d+),v1=([0-9a-f]+)$`)

// WebhookSignatureVerifier validates the HMAC-SHA256 signature the gateway
// attaches to webhook deliveries: hex(hmac(secret, "{timestamp}.{payload}"))
// in a header of the form t=<unix seconds>,v1=<hex>.
type WebhookSignatureVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewWebhookSignatureVerifier creates a verifier for the shared secret.
// A nil now falls back to time.Now.
func NewWebhookSignatureVerifier(secret string, now func() time.Time) *WebhookSignatureVerifier {
	if now == nil {
		now = time.Now
	}
	return &WebhookSignatureVerifier{secret: []byte(secret), now: now}
}

// Verify reports whether the signature header authenticates the payload and is
// fresh enough to not be a replay.
func (v *WebhookSignatureVerifier) Verify(payload []byte, signatureHeader string) error {
	match := webhookSignaturePattern.FindStringSubmatch(signatureHeader)
	if match == nil {
		return fmt.Errorf("malformed webhook signature header")
	}

	ts, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook signature timestamp")
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age > webhookSignatureTolerance {
		return fmt.Errorf("webhook signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s.", match[1])
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(match[2])) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}
