package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

func newTestInvoiceService(invoices *MockInvoiceRepository, gw *MockGatewayClient, email *MockEmailSender) *InvoiceService {
	locks := newTestLockManager(newMemLockStore())
	cfg := core.DefaultConfig()
	var sender output.InvoiceEmailSender
	if email != nil {
		sender = email
	}
	return NewInvoiceService(locks, invoices, gw, sender, nopLogger{}, cfg)
}

func TestProcessInvoiceCapturesAndSaves(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	gw := &MockGatewayClient{}
	email := &MockEmailSender{}
	svc := newTestInvoiceService(invoices, gw, email)
	order := newTestOrder()

	invoice, err := svc.ProcessInvoice(ctx, order, "pay_1")
	require.NoError(t, err)
	require.NotNil(t, invoice)

	assert.Equal(t, 1, gw.CaptureCalls)
	assert.Equal(t, 1, invoices.SaveCalls)
	assert.Equal(t, 1, email.Calls)
	assert.Equal(t, core.CaptureOnline, invoice.CaptureType)
	assert.Equal(t, core.InvoiceStatePaid, invoice.State)
	assert.Equal(t, order.GrandTotal, invoice.Amount)
	assert.Equal(t, "pay_1", order.Payment.LastTransID)
	assert.True(t, order.Payment.Captured)
	assert.True(t, order.FullyInvoiced)
}

func TestProcessInvoiceSkipsCaptureWhenAlreadyCaptured(t *testing.T) {
	ctx := context.Background()
	gw := &MockGatewayClient{}
	svc := newTestInvoiceService(&MockInvoiceRepository{}, gw, nil)
	order := newTestOrder()
	order.Payment.Captured = true

	_, err := svc.ProcessInvoice(ctx, order, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, 0, gw.CaptureCalls)
}

func TestProcessInvoiceNoopWhenNotInvoiceable(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	gw := &MockGatewayClient{}
	svc := newTestInvoiceService(invoices, gw, nil)
	order := newTestOrder()
	order.FullyInvoiced = true

	invoice, err := svc.ProcessInvoice(ctx, order, "pay_1")
	assert.NoError(t, err)
	assert.Nil(t, invoice)
	assert.Equal(t, 0, gw.CaptureCalls)
	assert.Equal(t, 0, invoices.SaveCalls)
}

func TestProcessInvoiceAbsorbsBenignCaptureRace(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	gw := &MockGatewayClient{
		CapturePaymentFunc: func(ctx context.Context, paymentID string, amount int64) error {
			return output.ErrAlreadyCaptured
		},
	}
	svc := newTestInvoiceService(invoices, gw, nil)
	order := newTestOrder()

	// The concurrent channel already captured; the invoice is still recorded here
	invoice, err := svc.ProcessInvoice(ctx, order, "pay_1")
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Equal(t, 1, invoices.SaveCalls)
}

func TestProcessInvoiceAbsorbsDuplicateSave(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{
		SaveWithOrderFunc: func(ctx context.Context, invoice *core.Invoice, order *core.Order) error {
			return output.ErrDuplicateOperation
		},
	}
	svc := newTestInvoiceService(invoices, &MockGatewayClient{}, nil)
	order := newTestOrder()

	invoice, err := svc.ProcessInvoice(ctx, order, "pay_1")
	assert.NoError(t, err)
	assert.Nil(t, invoice)
}

func TestProcessInvoicePropagatesHardCaptureFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("card network unavailable")
	gw := &MockGatewayClient{
		CapturePaymentFunc: func(ctx context.Context, paymentID string, amount int64) error {
			return boom
		},
	}
	invoices := &MockInvoiceRepository{}
	svc := newTestInvoiceService(invoices, gw, nil)

	_, err := svc.ProcessInvoice(ctx, newTestOrder(), "pay_1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, invoices.SaveCalls)
}

func TestProcessInvoiceEmailFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	email := &MockEmailSender{
		SendFunc: func(ctx context.Context, order *core.Order, invoice *core.Invoice) error {
			return errors.New("smtp down")
		},
	}
	svc := newTestInvoiceService(&MockInvoiceRepository{}, &MockGatewayClient{}, email)

	invoice, err := svc.ProcessInvoice(ctx, newTestOrder(), "pay_1")
	assert.NoError(t, err)
	assert.NotNil(t, invoice)
	assert.Equal(t, 1, email.Calls)
}

func TestCreatePendingInvoiceNeverCaptures(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	gw := &MockGatewayClient{}
	svc := newTestInvoiceService(invoices, gw, nil)
	order := newTestOrder()

	invoice, err := svc.CreatePendingInvoice(ctx, order, "pay_1")
	require.NoError(t, err)
	require.NotNil(t, invoice)

	assert.Equal(t, 0, gw.CaptureCalls)
	assert.Equal(t, core.CaptureOffline, invoice.CaptureType)
	assert.Equal(t, core.InvoiceStateOpen, invoice.State)
	assert.Equal(t, "pay_1", order.Payment.GatewayPaymentID)
	assert.True(t, order.FullyInvoiced)
	assert.False(t, order.Payment.Captured)
}

func TestProcessPartialInvoice(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	gw := &MockGatewayClient{}
	svc := newTestInvoiceService(invoices, gw, nil)
	order := newTestOrder()
	order.Payment.LastTransID = "pay_1"

	invoice, err := svc.ProcessPartialInvoice(ctx, order, map[string]int{"sku-a": 1}, "")
	require.NoError(t, err)
	require.NotNil(t, invoice)

	assert.True(t, invoice.Partial)
	assert.Equal(t, int64(1000), invoice.Amount)
	assert.Equal(t, 1, gw.CaptureCalls)
	assert.Equal(t, "pay_1", order.Payment.CaptureID)
	assert.True(t, order.HasPartialCapture)
}

func TestProcessPartialInvoiceRejectsSecondPartial(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	svc := newTestInvoiceService(invoices, &MockGatewayClient{}, nil)
	order := newTestOrder()
	order.Payment.LastTransID = "pay_1"

	_, err := svc.ProcessPartialInvoice(ctx, order, map[string]int{"sku-a": 1}, "")
	require.NoError(t, err)

	_, err = svc.ProcessPartialInvoice(ctx, order, map[string]int{"sku-b": 1}, "")
	assert.ErrorIs(t, err, ErrPartialCaptureExists)
	assert.Equal(t, 1, invoices.SaveCalls)
}

func TestProcessPartialInvoiceConcurrentCallersCaptureOnce(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{}
	gw := &MockGatewayClient{}
	locks := NewLockManager(newMemLockStore(), nopLogger{}, time.Second)
	locks.pollInterval = time.Millisecond
	svc := NewInvoiceService(locks, invoices, gw, nil, nopLogger{}, core.DefaultConfig())
	order := newTestOrder()
	order.Payment.LastTransID = "pay_1"

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ProcessPartialInvoice(ctx, order, map[string]int{"sku-a": 1}, "")
		}(i)
	}
	wg.Wait()

	// The customer is charged at most once no matter how the callers interleave:
	// the loser is turned away by the lock or by the guard inside it.
	assert.Equal(t, 1, invoices.SaveCalls)
	assert.Equal(t, 1, gw.CaptureCalls)
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, errors.Is(err, ErrPartialCaptureExists) || errors.Is(err, ErrLockNotAcquired),
			"unexpected loser error: %v", err)
	}
	assert.Equal(t, 1, winners)
	assert.True(t, order.HasPartialCapture)
}

func TestProcessPartialInvoiceChecksRepository(t *testing.T) {
	ctx := context.Background()
	invoices := &MockInvoiceRepository{
		HasPartialCaptureFunc: func(ctx context.Context, orderEntityID uint64) (bool, error) {
			return true, nil
		},
	}
	svc := newTestInvoiceService(invoices, &MockGatewayClient{}, nil)

	// The in-memory flag is clean but another process already captured partially
	_, err := svc.ProcessPartialInvoice(ctx, newTestOrder(), map[string]int{"sku-a": 1}, "pay_1")
	assert.ErrorIs(t, err, ErrPartialCaptureExists)
}

func TestInvoiceOperationsSerializeOnPaymentLock(t *testing.T) {
	ctx := context.Background()
	store := newMemLockStore()
	locks := NewLockManager(store, nopLogger{}, time.Second)
	locks.pollInterval = time.Millisecond
	svc := NewInvoiceService(locks, &MockInvoiceRepository{}, &MockGatewayClient{}, nil, nopLogger{}, core.DefaultConfig())
	order := newTestOrder()

	store.hold("PAYMENT_LOCK_000000045_pay_1")
	_, err := svc.ProcessInvoice(ctx, order, "pay_1")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, order.FullyInvoiced)
}
