package core

import (
	"fmt"
	"time"
)

// OrderState represents the lifecycle state of a storefront order
type OrderState string

const (
	OrderStateNew            OrderState = "new"
	OrderStatePendingPayment OrderState = "pending_payment"
	OrderStateProcessing     OrderState = "processing"
	OrderStatePaymentReview  OrderState = "payment_review"
	OrderStateCanceled       OrderState = "canceled"
	OrderStateComplete       OrderState = "complete"
	OrderStateClosed         OrderState = "closed"
)

// OrderPayment holds the gateway metadata the reconciliation core writes on an order
type OrderPayment struct {
	Method           string
	LastTransID      string
	GatewayPaymentID string
	CaptureID        string
	Captured         bool
	Voided           bool
	Tokenized        bool
}

// OrderItem is one purchasable line of the order
type OrderItem struct {
	SKU        string
	Price      int64
	QtyOrdered int
}

// StatusHistoryEntry is one comment appended to the order's status history
type StatusHistoryEntry struct {
	ID        uint64
	Status    string
	Comment   string
	CreatedAt time.Time
}

// Order is the shared mutable resource owned by the surrounding platform.
// The reconciliation core reads state/status/payment and writes transitions,
// always inside a lock scope.
type Order struct {
	EntityID          uint64
	IncrementID       string
	State             OrderState
	Status            string
	GrandTotal        int64
	Currency          string
	Items             []OrderItem
	Payment           OrderPayment
	StatusHistory     []StatusHistoryEntry
	FullyInvoiced     bool
	HasPartialCapture bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanInvoice reports whether the order can currently accept an invoice
func (o *Order) CanInvoice() bool {
	if o.FullyInvoiced {
		return false
	}
	switch o.State {
	case OrderStateCanceled, OrderStateClosed:
		return false
	}
	return true
}

// CanCancel reports whether the order can still be canceled.
// An order that has been invoiced through another path is not cancelable.
func (o *Order) CanCancel() bool {
	if o.FullyInvoiced {
		return false
	}
	switch o.State {
	case OrderStateNew, OrderStatePendingPayment, OrderStatePaymentReview:
		return true
	}
	return false
}

// Cancel transitions the order into the canceled state
func (o *Order) Cancel() {
	o.State = OrderStateCanceled
	o.Status = string(OrderStateCanceled)
}

// SetState transitions the order to a new state with the given status label
func (o *Order) SetState(state OrderState, status string) {
	o.State = state
	o.Status = status
}

// AddCommentToStatusHistory appends an audit comment without changing the state
func (o *Order) AddCommentToStatusHistory(comment string) {
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:    o.Status,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
}

// PartialAmount computes the amount covered by the given item quantities
func (o *Order) PartialAmount(qtys map[string]int) int64 {
	var amount int64
	for _, item := range o.Items {
		if qty, ok := qtys[item.SKU]; ok && qty > 0 {
			if qty > item.QtyOrdered {
				qty = item.QtyOrdered
			}
			amount += item.Price * int64(qty)
		}
	}
	return amount
}

// LockDiscriminator returns the identifier used for payment-level locking when no
// transaction id is known yet.
func (o *Order) LockDiscriminator(transactionID string) string {
	if transactionID != "" {
		return transactionID
	}
	if o.Payment.LastTransID != "" {
		return o.Payment.LastTransID
	}
	return "order-payment"
}

func (o *Order) String() string {
	return fmt.Sprintf("order %s (state=%s status=%s)", o.IncrementID, o.State, o.Status)
}
