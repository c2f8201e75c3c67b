package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentFromRaw(t *testing.T) {
	raw := map[string]any{
		"id":            "pay_123",
		"orderId":       "000000045",
		"status":        "SUCCEEDED",
		"statusCode":    "E000",
		"statusMessage": "Transaction approved",
		"amount":        float64(1999),
		"currency":      "EUR",
		"paymentMethod": map[string]any{"type": "card"},
		"updatedAt":     float64(1700000000),
	}

	payment, err := NewPaymentFromRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, "pay_123", payment.ID)
	assert.Equal(t, "000000045", payment.OrderID)
	assert.Equal(t, StatusSucceeded, payment.Status)
	assert.Equal(t, int64(1999), payment.Amount)
	assert.Equal(t, "EUR", payment.Currency)
	assert.Equal(t, MethodCard, payment.PaymentMethodType)
	assert.True(t, payment.IsSucceeded())
	assert.True(t, payment.IsTerminal())
}

func TestNewPaymentFromRawFlatMethodType(t *testing.T) {
	payment, err := NewPaymentFromRaw(map[string]any{
		"id":                "pay_1",
		"status":            "PENDING",
		"paymentMethodType": "mbway",
	})
	require.NoError(t, err)
	assert.Equal(t, MethodMBWay, payment.PaymentMethodType)
}

func TestNewPaymentFromRawRejectsIncomplete(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
	}{
		{"nil payload", nil},
		{"missing id", map[string]any{"status": "SUCCEEDED"}},
		{"missing status", map[string]any{"id": "pay_1"}},
		{"empty id", map[string]any{"id": "", "status": "SUCCEEDED"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPaymentFromRaw(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestPaymentStatusPredicatesAreExclusive(t *testing.T) {
	statuses := []PaymentStatus{
		StatusPending, StatusAuthorized, StatusSucceeded,
		StatusFailed, StatusCanceled, StatusExpired,
	}
	for _, status := range statuses {
		p := &Payment{Status: status}
		matches := 0
		for _, predicate := range []func() bool{
			p.IsPending, p.IsAuthorized, p.IsSucceeded,
			p.IsFailed, p.IsCanceled, p.IsExpired,
		} {
			if predicate() {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "status %s must match exactly one predicate", status)
	}
}

func TestIsPendingWallet(t *testing.T) {
	pendingMBWay := &Payment{Status: StatusPending, PaymentMethodType: MethodMBWay}
	pendingMultibanco := &Payment{Status: StatusPending, PaymentMethodType: MethodMultibanco}
	pendingCard := &Payment{Status: StatusPending, PaymentMethodType: MethodCard}
	succeededMBWay := &Payment{Status: StatusSucceeded, PaymentMethodType: MethodMBWay}

	assert.True(t, pendingMBWay.IsPendingWallet())
	assert.True(t, pendingMultibanco.IsPendingWallet())
	assert.False(t, pendingCard.IsPendingWallet())
	assert.False(t, succeededMBWay.IsPendingWallet())
}

func TestIsTerminal(t *testing.T) {
	terminal := []PaymentStatus{StatusSucceeded, StatusFailed, StatusCanceled, StatusExpired}
	for _, status := range terminal {
		assert.True(t, (&Payment{Status: status}).IsTerminal(), "status %s", status)
	}
	open := []PaymentStatus{StatusPending, StatusAuthorized, StatusRefunded, StatusPartiallyRefunded}
	for _, status := range open {
		assert.False(t, (&Payment{Status: status}).IsTerminal(), "status %s", status)
	}
}
