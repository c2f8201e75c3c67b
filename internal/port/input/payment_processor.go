package input

import (
	"context"
	"time"

	"github.com/shopfront/monei-gateway/internal/core"
)

// PaymentProcessor is an input port (primary port) for payment reconciliation.
// Primary adapters (webhook/callback/redirect handlers) will use this.
type PaymentProcessor interface {
	// Process reconciles a payment notification against its order and applies the
	// corresponding order transition. The only component allowed to mutate order
	// state; serialized per order through the lock manager.
	Process(ctx context.Context, orderID, paymentID string, raw map[string]any) core.ProcessingResult

	// IsProcessing reports whether the order-level or payment-level lock is held
	IsProcessing(ctx context.Context, orderID, paymentID string) bool

	// WaitForProcessing polls the order-level lock until free or timeout.
	// A timeout is advisory: the caller proceeds and relies on the lock.
	WaitForProcessing(ctx context.Context, orderID, paymentID string, timeout time.Duration) bool

	// ValidatePaymentData is a cheap pre-flight gate: true only when the payload
	// carries both an id and a status
	ValidatePaymentData(raw map[string]any) bool

	// GetPaymentStatus fetches the current payment state directly from the gateway
	GetPaymentStatus(ctx context.Context, paymentID string) (map[string]any, error)
}
