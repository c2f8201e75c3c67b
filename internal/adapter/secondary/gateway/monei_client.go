package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopfront/monei-gateway/internal/port/output"
)

const (
	moneiAPIBaseURL      = "https://api.monei.com/v1"
	defaultRetryAttempts = 2
	defaultRetryDelay    = 500 * time.Millisecond
)

// moneiErrorResponse is the error body shape the MONEI API returns
type moneiErrorResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	RequestID  string `json:"requestId"`
	Message    string `json:"message"`
}

// MoneiClient is a secondary adapter that implements the GatewayClient output port
type MoneiClient struct {
	httpClient *http.Client
	apiBaseURL string // overridable for tests
	apiKey     string
	signSecret string
}

// NewMoneiClient creates a gateway client. signSecret verifies callback
// signatures; it is the account's API key in the gateway's signing scheme.
func NewMoneiClient(client *http.Client, apiKey, signSecret string) *MoneiClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &MoneiClient{
		httpClient: client,
		apiBaseURL: moneiAPIBaseURL,
		apiKey:     apiKey,
		signSecret: signSecret,
	}
}

// SetBaseURL overrides the API base URL. Intended for tests.
func (c *MoneiClient) SetBaseURL(baseURL string) {
	c.apiBaseURL = strings.TrimRight(baseURL, "/")
}

// GetPayment fetches the authoritative current state of a payment
func (c *MoneiClient) GetPayment(ctx context.Context, paymentID string) (map[string]any, error) {
	body, err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	var payment map[string]any
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("monei: failed to decode payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// CancelPayment voids an authorized payment before capture
func (c *MoneiClient) CancelPayment(ctx context.Context, paymentID string) error {
	_, err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/cancel", map[string]any{
		"cancellationReason": "requested_by_customer",
	})
	return err
}

// CapturePayment settles an authorized payment, fully or partially
func (c *MoneiClient) CapturePayment(ctx context.Context, paymentID string, amount int64) error {
	_, err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/capture", map[string]any{
		"amount": amount,
	})
	return err
}

// ConfirmPayment confirms a payment that requires merchant confirmation
func (c *MoneiClient) ConfirmPayment(ctx context.Context, paymentID string) error {
	_, err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/confirm", nil)
	return err
}

// VerifySignature validates a raw callback body against its signature header
// and returns the decoded payment payload. The header carries comma separated
// key=value pairs: t=<unix seconds>,v1=<hex hmac-sha256 of "t.body">.
func (c *MoneiClient) VerifySignature(body []byte, signatureHeader string) (map[string]any, error) {
	parts := map[string]string{}
	for _, pair := range strings.Split(signatureHeader, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed signature header: %w", output.ErrInvalidSignature)
		}
		parts[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	ts, v1 := parts["t"], parts["v1"]
	if ts == "" || v1 == "" {
		return nil, fmt.Errorf("signature header missing t or v1: %w", output.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(c.signSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return nil, output.ErrInvalidSignature
	}

	var payment map[string]any
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("monei: verified body is not valid JSON: %w", err)
	}
	return payment, nil
}

// do performs one API call with a bounded retry on 429/5xx responses
func (c *MoneiClient) do(ctx context.Context, method, path string, payload map[string]any) ([]byte, error) {
	var requestBody []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("monei: failed to encode request: %w", err)
		}
		requestBody = encoded
	}

	var lastErr error
	for attempt := 0; attempt <= defaultRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(defaultRetryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, bytes.NewReader(requestBody))
		if err != nil {
			return nil, fmt.Errorf("monei: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("monei: http error on attempt %d: %w", attempt+1, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("monei: failed to read response: %w", readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("monei: HTTP %d on attempt %d: %s", resp.StatusCode, attempt+1, string(body))
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}
		return nil, c.apiError(resp.StatusCode, body)
	}
	return nil, lastErr
}

// apiError maps gateway error bodies to typed errors where callers depend on
// the classification (duplicate capture races).
func (c *MoneiClient) apiError(statusCode int, body []byte) error {
	var apiErr moneiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(msg, "already captured"), strings.Contains(msg, "already been captured"),
			strings.Contains(msg, "already paid"):
			return fmt.Errorf("monei: %s: %w", apiErr.Message, output.ErrAlreadyCaptured)
		case strings.Contains(msg, "duplicated operation"), strings.Contains(msg, "duplicate"):
			return fmt.Errorf("monei: %s: %w", apiErr.Message, output.ErrDuplicateOperation)
		}
		return fmt.Errorf("monei: HTTP %d: %s", statusCode, apiErr.Message)
	}
	return fmt.Errorf("monei: HTTP %d: %s", statusCode, string(body))
}
