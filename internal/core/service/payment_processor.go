package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/monitor"
	"github.com/shopfront/monei-gateway/internal/port/input"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// invoiceCreator is the slice of the invoice service the processor consumes
type invoiceCreator interface {
	ProcessInvoice(ctx context.Context, order *core.Order, transactionID string) (*core.Invoice, error)
	CreatePendingInvoice(ctx context.Context, order *core.Order, paymentID string) (*core.Invoice, error)
}

// PaymentProcessor is the reconciliation state machine. Webhook, callback and
// browser-redirect notifications all converge here; it is the only component
// that mutates order state, serialized per order through the lock manager.
type PaymentProcessor struct {
	locks    *LockManager
	orders   output.OrderRepository
	invoices invoiceCreator
	gateway  output.GatewayClient
	logger   output.Logger
	cfg      core.Config
}

var _ input.PaymentProcessor = (*PaymentProcessor)(nil)

// NewPaymentProcessor creates the reconciliation processor
func NewPaymentProcessor(
	locks *LockManager,
	orders output.OrderRepository,
	invoices invoiceCreator,
	gateway output.GatewayClient,
	logger output.Logger,
	cfg core.Config,
) *PaymentProcessor {
	return &PaymentProcessor{
		locks:    locks,
		orders:   orders,
		invoices: invoices,
		gateway:  gateway,
		logger:   logger,
		cfg:      cfg,
	}
}

// Process reconciles one payment notification. Repeated delivery of the same
// notification is a safe no-op: the order lock serializes execution and every
// terminal branch checks whether the order is already in its target state.
func (p *PaymentProcessor) Process(ctx context.Context, orderID, paymentID string, raw map[string]any) core.ProcessingResult {
	if orderID == "" {
		p.logger.Error("payment notification without an order id", output.Fields{"payment_id": paymentID})
		return core.ErrorResult(orderID, paymentID, http.StatusUnprocessableEntity, "order id is missing")
	}

	if !p.locks.LockOrder(ctx, orderID) {
		monitor.RecordLockContention()
		p.logger.Warning("order is locked by another processing attempt", output.Fields{
			"order_id":   orderID,
			"payment_id": paymentID,
		})
		return core.ErrorResult(orderID, paymentID, http.StatusUnprocessableEntity, "payment processing already in progress")
	}
	defer p.locks.UnlockOrder(ctx, orderID)

	order, err := p.resolveOrder(ctx, orderID)
	if err != nil {
		p.logger.Error("order lookup failed", output.Fields{
			"order_id":   orderID,
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return core.ErrorResult(orderID, paymentID, http.StatusUnprocessableEntity, fmt.Sprintf("order %s not found", orderID))
	}

	payment, err := core.NewPaymentFromRaw(raw)
	if err != nil {
		p.logger.Error("invalid payment data", output.Fields{
			"order_id":   orderID,
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return core.ErrorResult(orderID, paymentID, http.StatusUnprocessableEntity, err.Error())
	}

	result := p.dispatch(ctx, order, payment)
	monitor.RecordProcessed(string(payment.Status), result.Success)
	return result
}

// dispatch applies the order transition for the observed payment status.
// Errors never escape: every failure is logged with order/payment context and
// converted into an error result.
func (p *PaymentProcessor) dispatch(ctx context.Context, order *core.Order, payment *core.Payment) core.ProcessingResult {
	logCtx := output.Fields{
		"order_id":   order.IncrementID,
		"payment_id": payment.ID,
		"status":     string(payment.Status),
	}

	switch payment.Status {
	case core.StatusSucceeded:
		if order.State == core.OrderStateProcessing {
			p.logger.Debug("order already processing, nothing to do", logCtx)
			return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)
		}
		if err := p.applySucceeded(ctx, order, payment); err != nil {
			return p.dispatchError(order, payment, err)
		}
		return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)

	case core.StatusAuthorized:
		if order.State == core.OrderStatePaymentReview {
			p.logger.Debug("order already in payment review, nothing to do", logCtx)
			return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)
		}
		if err := p.applyAuthorized(ctx, order, payment); err != nil {
			return p.dispatchError(order, payment, err)
		}
		return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)

	case core.StatusFailed, core.StatusCanceled, core.StatusExpired:
		if order.State == core.OrderStateCanceled {
			p.logger.Debug("order already canceled, nothing to do", logCtx)
			return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)
		}
		if err := p.applyCanceled(ctx, order, payment); err != nil {
			return p.dispatchError(order, payment, err)
		}
		return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)

	default:
		// PENDING and unknown statuses carry no conclusive outcome yet
		p.logger.Info("payment status requires no order transition", logCtx)
		return core.SuccessResult(order.IncrementID, payment.ID, payment.Status)
	}
}

func (p *PaymentProcessor) applySucceeded(ctx context.Context, order *core.Order, payment *core.Payment) error {
	order.Payment.GatewayPaymentID = payment.ID
	order.Payment.Captured = true
	if token := payment.Raw["paymentToken"]; token != nil {
		order.Payment.Tokenized = true
	}

	if _, err := p.invoices.ProcessInvoice(ctx, order, payment.ID); err != nil {
		return err
	}

	order.SetState(core.OrderStateProcessing, p.cfg.ConfirmedStatus)
	order.Payment.LastTransID = payment.ID
	if err := p.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("save order %s: %w", order.IncrementID, err)
	}

	p.logger.Info("order confirmed", output.Fields{
		"order_id":   order.IncrementID,
		"payment_id": payment.ID,
		"state":      string(order.State),
		"status":     order.Status,
	})
	return nil
}

func (p *PaymentProcessor) applyAuthorized(ctx context.Context, order *core.Order, payment *core.Payment) error {
	order.Payment.GatewayPaymentID = payment.ID

	if _, err := p.invoices.CreatePendingInvoice(ctx, order, payment.ID); err != nil {
		return err
	}

	order.SetState(core.OrderStatePaymentReview, p.cfg.PreAuthorizedStatus)
	order.Payment.LastTransID = payment.ID
	if err := p.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("save order %s: %w", order.IncrementID, err)
	}

	p.logger.Info("order moved to payment review", output.Fields{
		"order_id":   order.IncrementID,
		"payment_id": payment.ID,
		"status":     order.Status,
	})
	return nil
}

// applyCanceled cancels the order for failed, canceled and expired payments.
// Cancellation is best effort: an order already invoiced through another path
// stays as it is and the notification still succeeds.
func (p *PaymentProcessor) applyCanceled(ctx context.Context, order *core.Order, payment *core.Payment) error {
	if order.State == core.OrderStatePaymentReview && !order.Payment.Captured {
		// The only invoice on a payment-review order is the capture-offline one;
		// nothing was settled, so it no longer binds the order against cancellation.
		order.FullyInvoiced = false
	}

	if !order.CanCancel() {
		p.logger.Warning("order is not cancelable, leaving untouched", output.Fields{
			"order_id":   order.IncrementID,
			"payment_id": payment.ID,
			"state":      string(order.State),
			"status":     string(payment.Status),
		})
		return nil
	}

	if order.State == core.OrderStatePaymentReview {
		// Void the dangling authorization; the gateway may already have done so.
		if err := p.gateway.CancelPayment(ctx, payment.ID); err != nil {
			p.logger.Info("gateway cancel skipped", output.Fields{
				"order_id":   order.IncrementID,
				"payment_id": payment.ID,
				"error":      err.Error(),
			})
		} else {
			order.Payment.Voided = true
		}
	}

	order.Cancel()
	comment := fmt.Sprintf("MONEI payment %s reported status %s", payment.ID, payment.Status)
	if payment.StatusMessage != "" {
		comment += ": " + payment.StatusMessage
	}
	order.AddCommentToStatusHistory(comment)

	if err := p.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("save order %s: %w", order.IncrementID, err)
	}

	p.logger.Info("order canceled", output.Fields{
		"order_id":   order.IncrementID,
		"payment_id": payment.ID,
		"status":     string(payment.Status),
	})
	return nil
}

func (p *PaymentProcessor) dispatchError(order *core.Order, payment *core.Payment, err error) core.ProcessingResult {
	p.logger.Error("payment processing failed", output.Fields{
		"order_id":   order.IncrementID,
		"payment_id": payment.ID,
		"status":     string(payment.Status),
		"error":      err.Error(),
	})
	return core.ErrorResult(order.IncrementID, payment.ID, http.StatusUnprocessableEntity, err.Error())
}

// resolveOrder looks the order up by increment id, then by entity id, then by
// the increment id with leading zeros stripped: the channels do not agree on
// which identifier they send.
func (p *PaymentProcessor) resolveOrder(ctx context.Context, orderID string) (*core.Order, error) {
	order, err := p.orders.GetByIncrementID(ctx, orderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, output.ErrOrderNotFound) {
		return nil, err
	}

	if entityID, convErr := strconv.ParseUint(orderID, 10, 64); convErr == nil {
		if order, entityErr := p.orders.GetByEntityID(ctx, entityID); entityErr == nil {
			return order, nil
		}
	}

	if trimmed := strings.TrimLeft(orderID, "0"); trimmed != "" && trimmed != orderID {
		return p.orders.GetByIncrementID(ctx, trimmed)
	}

	return nil, err
}

// IsProcessing reports whether either lock for this order/payment pair is held
func (p *PaymentProcessor) IsProcessing(ctx context.Context, orderID, paymentID string) bool {
	return p.locks.IsOrderLocked(ctx, orderID) || p.locks.IsPaymentLocked(ctx, orderID, paymentID)
}

// WaitForProcessing polls the order-level lock until free or timeout. Used by
// the synchronous redirect path to avoid racing an in-flight notification.
func (p *PaymentProcessor) WaitForProcessing(ctx context.Context, orderID, paymentID string, timeout time.Duration) bool {
	return p.locks.WaitForOrderUnlock(ctx, orderID, timeout)
}

// ValidatePaymentData is the cheap pre-flight gate before full processing
func (p *PaymentProcessor) ValidatePaymentData(raw map[string]any) bool {
	var missing []string
	if raw == nil || rawValue(raw, "id") == "" {
		missing = append(missing, "id")
	}
	if raw == nil || rawValue(raw, "status") == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		p.logger.Debug("payment data failed validation", output.Fields{
			"missing": strings.Join(missing, ","),
		})
		return false
	}
	return true
}

// GetPaymentStatus fetches the current payment state directly from the
// gateway, bypassing local order state. Reads here may be stale relative to an
// in-flight lock holder.
func (p *PaymentProcessor) GetPaymentStatus(ctx context.Context, paymentID string) (map[string]any, error) {
	return p.gateway.GetPayment(ctx, paymentID)
}

func rawValue(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
