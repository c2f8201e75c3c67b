package core

import (
	"fmt"
	"time"
)

// PaymentStatus represents the status of a gateway payment
type PaymentStatus string

const (
	StatusPending           PaymentStatus = "PENDING"
	StatusAuthorized        PaymentStatus = "AUTHORIZED"
	StatusSucceeded         PaymentStatus = "SUCCEEDED"
	StatusFailed            PaymentStatus = "FAILED"
	StatusCanceled          PaymentStatus = "CANCELED"
	StatusExpired           PaymentStatus = "EXPIRED"
	StatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	StatusRefunded          PaymentStatus = "REFUNDED"
)

// Payment method types the gateway reports on a payment
const (
	MethodCard       = "card"
	MethodBizum      = "bizum"
	MethodMBWay      = "mbway"
	MethodMultibanco = "multibanco"
)

// Payment is a normalized snapshot of a gateway payment at a point in time.
// Instances are built through NewPaymentFromRaw and never mutated afterwards.
type Payment struct {
	ID                string
	OrderID           string
	Status            PaymentStatus
	StatusCode        string
	StatusMessage     string
	Amount            int64
	Currency          string
	PaymentMethodType string
	UpdatedAt         time.Time
	Raw               map[string]any
}

// NewPaymentFromRaw builds a Payment from a raw gateway payload.
// A payload without an id or a status cannot be reconciled and is rejected.
func NewPaymentFromRaw(raw map[string]any) (*Payment, error) {
	if raw == nil {
		return nil, fmt.Errorf("payment data is empty")
	}

	id := rawString(raw, "id")
	if id == "" {
		return nil, fmt.Errorf("payment data is missing id")
	}
	status := rawString(raw, "status")
	if status == "" {
		return nil, fmt.Errorf("payment data is missing status")
	}

	p := &Payment{
		ID:            id,
		OrderID:       rawString(raw, "orderId"),
		Status:        PaymentStatus(status),
		StatusCode:    rawString(raw, "statusCode"),
		StatusMessage: rawString(raw, "statusMessage"),
		Currency:      rawString(raw, "currency"),
		Raw:           raw,
	}

	if method, ok := raw["paymentMethod"].(map[string]any); ok {
		p.PaymentMethodType = rawString(method, "type")
	} else {
		p.PaymentMethodType = rawString(raw, "paymentMethodType")
	}

	if amount, ok := rawNumber(raw, "amount"); ok {
		p.Amount = int64(amount)
	}
	if ts, ok := rawNumber(raw, "updatedAt"); ok {
		p.UpdatedAt = time.Unix(int64(ts), 0).UTC()
	}

	return p, nil
}

func rawString(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func rawNumber(raw map[string]any, key string) (float64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// IsSucceeded checks if the payment settled successfully
func (p *Payment) IsSucceeded() bool {
	return p.Status == StatusSucceeded
}

// IsAuthorized checks if the payment is authorized but not yet captured
func (p *Payment) IsAuthorized() bool {
	return p.Status == StatusAuthorized
}

// IsPending checks if the payment has no conclusive outcome yet
func (p *Payment) IsPending() bool {
	return p.Status == StatusPending
}

// IsFailed checks if the payment failed
func (p *Payment) IsFailed() bool {
	return p.Status == StatusFailed
}

// IsCanceled checks if the payment was canceled
func (p *Payment) IsCanceled() bool {
	return p.Status == StatusCanceled
}

// IsExpired checks if the payment expired before completion
func (p *Payment) IsExpired() bool {
	return p.Status == StatusExpired
}

// IsTerminal checks if the payment reached a state that triggers an order transition
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// IsMultibanco checks if the payment uses the Multibanco reference method
func (p *Payment) IsMultibanco() bool {
	return p.PaymentMethodType == MethodMultibanco
}

// IsMBWay checks if the payment uses the MB WAY mobile wallet
func (p *Payment) IsMBWay() bool {
	return p.PaymentMethodType == MethodMBWay
}

// IsPendingWallet reports whether the payment is a multi-step wallet flow that is
// still waiting for the customer to confirm on their device.
func (p *Payment) IsPendingWallet() bool {
	return p.IsPending() && (p.IsMBWay() || p.IsMultibanco())
}
