package output

import (
	"context"
	"errors"

	"github.com/shopfront/monei-gateway/internal/core"
)

// Benign-race signals from the persistence layer. Two notification channels can
// attempt to invoice the same order; the loser surfaces one of these instead of a
// string-matched platform exception.
var (
	// ErrDuplicateOperation indicates the same capture was already recorded
	ErrDuplicateOperation = errors.New("duplicated operation")

	// ErrAlreadyCaptured indicates the payment was already captured by another path
	ErrAlreadyCaptured = errors.New("payment already captured")
)

// InvoiceRepository is an output port for invoice persistence
type InvoiceRepository interface {
	// SaveWithOrder persists the invoice and the updated order in one transaction
	SaveWithOrder(ctx context.Context, invoice *core.Invoice, order *core.Order) error

	// GetByOrder lists the invoices recorded for an order
	GetByOrder(ctx context.Context, orderEntityID uint64) ([]*core.Invoice, error)

	// HasPartialCapture reports whether a partial capture exists for the order
	HasPartialCapture(ctx context.Context, orderEntityID uint64) (bool, error)
}

// InvoiceEmailSender notifies the customer about a created invoice. Failure to
// send is never fatal to the invoice itself.
type InvoiceEmailSender interface {
	SendInvoiceEmail(ctx context.Context, order *core.Order, invoice *core.Invoice) error
}
