package output

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is the observer notification dispatched after a webhook is handled
type PaymentEvent struct {
	EventID   uuid.UUID       `json:"event_id"`
	Type      string          `json:"type"`
	PaymentID string          `json:"payment_id"`
	OrderID   string          `json:"order_id"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// PaymentEventPublisher is an output port for dispatching payment events to
// observers. Publish failures are logged by callers, never fatal.
type PaymentEventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
	Close() error
}

// NotificationLogRepository records every observed payment event for audit
type NotificationLogRepository interface {
	Record(ctx context.Context, event PaymentEvent) error
}
