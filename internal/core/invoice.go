package core

import (
	"time"

	"github.com/google/uuid"
)

// CaptureType distinguishes how an invoice settles the payment
type CaptureType string

const (
	// CaptureOnline settles the payment at the gateway when the invoice is created
	CaptureOnline CaptureType = "online"
	// CaptureOffline records an authorized-but-not-captured payment
	CaptureOffline CaptureType = "offline"
)

// InvoiceState represents the platform state of an invoice
type InvoiceState string

const (
	InvoiceStateOpen InvoiceState = "open"
	InvoiceStatePaid InvoiceState = "paid"
)

// Invoice ties a capture (full or partial) to an order and a gateway transaction
type Invoice struct {
	ID            uuid.UUID
	OrderID       uint64
	TransactionID string
	CaptureType   CaptureType
	State         InvoiceState
	Amount        int64
	Currency      string
	Partial       bool
	Qtys          map[string]int
	CreatedAt     time.Time
}

// NewInvoice builds an invoice covering the order's full amount
func NewInvoice(order *Order, captureType CaptureType, transactionID string) *Invoice {
	state := InvoiceStatePaid
	if captureType == CaptureOffline {
		state = InvoiceStateOpen
	}
	return &Invoice{
		ID:            uuid.New(),
		OrderID:       order.EntityID,
		TransactionID: transactionID,
		CaptureType:   captureType,
		State:         state,
		Amount:        order.GrandTotal,
		Currency:      order.Currency,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewPartialInvoice builds an invoice covering a subset of the order items
func NewPartialInvoice(order *Order, qtys map[string]int, transactionID string) *Invoice {
	inv := NewInvoice(order, CaptureOnline, transactionID)
	inv.Partial = true
	inv.Qtys = qtys
	return inv
}
