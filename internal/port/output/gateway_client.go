package output

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when an inbound notification fails verification
var ErrInvalidSignature = errors.New("invalid signature")

// GatewayClient is an output port for the payment gateway API
type GatewayClient interface {
	// GetPayment fetches the authoritative current state of a payment
	GetPayment(ctx context.Context, paymentID string) (map[string]any, error)

	// CancelPayment voids an authorized payment before capture
	CancelPayment(ctx context.Context, paymentID string) error

	// CapturePayment settles an authorized payment, fully or partially
	CapturePayment(ctx context.Context, paymentID string, amount int64) error

	// ConfirmPayment confirms a payment that requires merchant confirmation
	ConfirmPayment(ctx context.Context, paymentID string) error

	// VerifySignature validates a raw callback body against its signature header
	// and returns the decoded payment payload. ErrInvalidSignature on mismatch.
	VerifySignature(body []byte, signatureHeader string) (map[string]any, error)
}
