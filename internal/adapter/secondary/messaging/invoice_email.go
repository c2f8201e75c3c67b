package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// InvoiceEmailEventType routes invoice email requests to the platform mailer
const InvoiceEmailEventType = "payment.invoiced"

// AmqpInvoiceEmailSender implements the InvoiceEmailSender output port by
// publishing an event for the platform mailer. The gateway module never talks
// SMTP itself.
type AmqpInvoiceEmailSender struct {
	events output.PaymentEventPublisher
}

// NewAmqpInvoiceEmailSender creates an email sender backed by the event bus
func NewAmqpInvoiceEmailSender(events output.PaymentEventPublisher) *AmqpInvoiceEmailSender {
	return &AmqpInvoiceEmailSender{events: events}
}

// SendInvoiceEmail publishes the invoice email request
func (s *AmqpInvoiceEmailSender) SendInvoiceEmail(ctx context.Context, order *core.Order, invoice *core.Invoice) error {
	raw, err := json.Marshal(map[string]any{
		"invoice_id":     invoice.ID.String(),
		"transaction_id": invoice.TransactionID,
		"amount":         invoice.Amount,
		"currency":       invoice.Currency,
		"partial":        invoice.Partial,
	})
	if err != nil {
		return fmt.Errorf("marshal invoice email payload: %w", err)
	}

	return s.events.PublishPaymentEvent(ctx, output.PaymentEvent{
		EventID:   uuid.New(),
		Type:      InvoiceEmailEventType,
		PaymentID: invoice.TransactionID,
		OrderID:   order.IncrementID,
		Timestamp: time.Now().UTC(),
		Raw:       raw,
	})
}
