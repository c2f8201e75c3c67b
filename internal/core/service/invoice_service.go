package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// ErrPartialCaptureExists rejects a second partial capture: the gateway supports
// at most one partial capture per payment.
var ErrPartialCaptureExists = errors.New("a partial capture already exists for this order")

// InvoiceService creates, captures and voids invoices under a payment-scoped
// lock, idempotently. A nil invoice with a nil error means the order could not
// accept an invoice (already invoiced); callers rely on that contract.
type InvoiceService struct {
	locks    *LockManager
	invoices output.InvoiceRepository
	gateway  output.GatewayClient
	email    output.InvoiceEmailSender
	logger   output.Logger
	cfg      core.Config
}

// NewInvoiceService creates an invoice service. email may be nil when the
// platform sends no invoice emails.
func NewInvoiceService(
	locks *LockManager,
	invoices output.InvoiceRepository,
	gateway output.GatewayClient,
	email output.InvoiceEmailSender,
	logger output.Logger,
	cfg core.Config,
) *InvoiceService {
	return &InvoiceService{
		locks:    locks,
		invoices: invoices,
		gateway:  gateway,
		email:    email,
		logger:   logger,
		cfg:      cfg,
	}
}

// ProcessInvoice creates a capture-online invoice for the order's full amount,
// links the transaction id, and persists invoice and order in one transaction.
// Returns nil when the order cannot currently accept an invoice.
func (s *InvoiceService) ProcessInvoice(ctx context.Context, order *core.Order, transactionID string) (*core.Invoice, error) {
	var invoice *core.Invoice

	err := s.locks.ExecuteWithPaymentLock(ctx, order.IncrementID, order.LockDiscriminator(transactionID), func(ctx context.Context) error {
		if !order.CanInvoice() {
			s.logger.Debug("order cannot be invoiced, skipping", output.Fields{
				"order_id": order.IncrementID,
				"state":    string(order.State),
			})
			return nil
		}

		txn := transactionID
		if txn == "" {
			txn = order.Payment.LastTransID
		}

		if txn != "" && !order.Payment.Captured {
			if err := s.gateway.CapturePayment(ctx, txn, order.GrandTotal); err != nil {
				if !s.absorbBenignRace(order, txn, err) {
					return fmt.Errorf("capture payment %s: %w", txn, err)
				}
			}
		}

		created := core.NewInvoice(order, core.CaptureOnline, txn)
		order.Payment.LastTransID = txn
		order.Payment.Captured = true
		order.FullyInvoiced = true

		if err := s.invoices.SaveWithOrder(ctx, created, order); err != nil {
			if s.absorbBenignRace(order, txn, err) {
				return nil
			}
			return fmt.Errorf("save invoice for order %s: %w", order.IncrementID, err)
		}
		invoice = created

		s.logger.Info("invoice created", output.Fields{
			"order_id":       order.IncrementID,
			"invoice_id":     created.ID.String(),
			"transaction_id": txn,
		})
		s.sendEmail(ctx, order, created)
		return nil
	})

	return invoice, err
}

// CreatePendingInvoice records a capture-offline invoice for an authorized but
// not yet captured payment. Same locking and idempotency discipline.
func (s *InvoiceService) CreatePendingInvoice(ctx context.Context, order *core.Order, paymentID string) (*core.Invoice, error) {
	var invoice *core.Invoice

	err := s.locks.ExecuteWithPaymentLock(ctx, order.IncrementID, order.LockDiscriminator(paymentID), func(ctx context.Context) error {
		if !order.CanInvoice() {
			s.logger.Debug("order cannot be invoiced, skipping pending invoice", output.Fields{
				"order_id": order.IncrementID,
				"state":    string(order.State),
			})
			return nil
		}

		created := core.NewInvoice(order, core.CaptureOffline, paymentID)
		order.Payment.GatewayPaymentID = paymentID
		order.Payment.LastTransID = paymentID
		order.FullyInvoiced = true

		if err := s.invoices.SaveWithOrder(ctx, created, order); err != nil {
			if s.absorbBenignRace(order, paymentID, err) {
				return nil
			}
			return fmt.Errorf("save pending invoice for order %s: %w", order.IncrementID, err)
		}
		invoice = created

		s.logger.Info("pending invoice created", output.Fields{
			"order_id":   order.IncrementID,
			"invoice_id": created.ID.String(),
			"payment_id": paymentID,
		})
		return nil
	})

	return invoice, err
}

// ProcessPartialInvoice captures part of an authorized payment and invoices the
// given item quantities. At most one partial capture may exist per order; the
// guard runs inside the lock scope so concurrent callers cannot both pass it.
func (s *InvoiceService) ProcessPartialInvoice(ctx context.Context, order *core.Order, qtys map[string]int, transactionID string) (*core.Invoice, error) {
	var invoice *core.Invoice
	err := s.locks.ExecuteWithPaymentLock(ctx, order.IncrementID, order.LockDiscriminator(transactionID), func(ctx context.Context) error {
		if order.HasPartialCapture {
			return ErrPartialCaptureExists
		}
		exists, err := s.invoices.HasPartialCapture(ctx, order.EntityID)
		if err != nil {
			return fmt.Errorf("check partial captures for order %s: %w", order.IncrementID, err)
		}
		if exists {
			return ErrPartialCaptureExists
		}

		txn := transactionID
		if txn == "" {
			txn = order.Payment.LastTransID
		}

		created := core.NewPartialInvoice(order, qtys, txn)
		created.Amount = order.PartialAmount(qtys)

		if txn != "" && !order.Payment.Captured {
			if err := s.gateway.CapturePayment(ctx, txn, created.Amount); err != nil {
				if !s.absorbBenignRace(order, txn, err) {
					return fmt.Errorf("partial capture payment %s: %w", txn, err)
				}
			}
		}

		order.Payment.CaptureID = txn
		order.Payment.Captured = true
		order.HasPartialCapture = true

		if err := s.invoices.SaveWithOrder(ctx, created, order); err != nil {
			if s.absorbBenignRace(order, txn, err) {
				return nil
			}
			return fmt.Errorf("save partial invoice for order %s: %w", order.IncrementID, err)
		}
		invoice = created

		s.logger.Info("partial invoice created", output.Fields{
			"order_id":       order.IncrementID,
			"invoice_id":     created.ID.String(),
			"transaction_id": txn,
			"amount":         created.Amount,
		})
		s.sendEmail(ctx, order, created)
		return nil
	})

	return invoice, err
}

// absorbBenignRace classifies persistence and gateway duplicates as races that
// already produced the desired outcome on another channel.
func (s *InvoiceService) absorbBenignRace(order *core.Order, transactionID string, err error) bool {
	if errors.Is(err, output.ErrAlreadyCaptured) || errors.Is(err, output.ErrDuplicateOperation) {
		s.logger.Info("invoice operation already applied by a concurrent channel", output.Fields{
			"order_id":       order.IncrementID,
			"transaction_id": transactionID,
			"reason":         err.Error(),
		})
		return true
	}
	return false
}

func (s *InvoiceService) sendEmail(ctx context.Context, order *core.Order, invoice *core.Invoice) {
	if !s.cfg.SendInvoiceEmail || s.email == nil {
		return
	}
	if err := s.email.SendInvoiceEmail(ctx, order, invoice); err != nil {
		s.logger.Warning("invoice email failed", output.Fields{
			"order_id":   order.IncrementID,
			"invoice_id": invoice.ID.String(),
			"error":      err.Error(),
		})
	}
}
