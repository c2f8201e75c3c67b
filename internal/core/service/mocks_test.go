package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// nopLogger satisfies the Logger output port without producing output
type nopLogger struct{}

func (nopLogger) Debug(string, output.Fields)    {}
func (nopLogger) Info(string, output.Fields)     {}
func (nopLogger) Warning(string, output.Fields)  {}
func (nopLogger) Error(string, output.Fields)    {}
func (nopLogger) Critical(string, output.Fields) {}

// memLockStore is an in-memory LockStore. Func fields override individual
// operations for failure injection.
type memLockStore struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, key string) (bool, error)
}

func newMemLockStore() *memLockStore {
	return &memLockStore{held: make(map[string]bool)}
}

func (s *memLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.AcquireFunc != nil {
		return s.AcquireFunc(ctx, key, ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *memLockStore) Release(ctx context.Context, key string) (bool, error) {
	if s.ReleaseFunc != nil {
		return s.ReleaseFunc(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	released := s.held[key]
	delete(s.held, key)
	return released, nil
}

func (s *memLockStore) IsLocked(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[key], nil
}

func (s *memLockStore) hold(key string) {
	s.mu.Lock()
	s.held[key] = true
	s.mu.Unlock()
}

// MockOrderRepository implements the OrderRepository output port
type MockOrderRepository struct {
	GetByIncrementIDFunc func(ctx context.Context, incrementID string) (*core.Order, error)
	GetByEntityIDFunc    func(ctx context.Context, entityID uint64) (*core.Order, error)
	SaveFunc             func(ctx context.Context, order *core.Order) error

	SaveCalls int
}

func (m *MockOrderRepository) GetByIncrementID(ctx context.Context, incrementID string) (*core.Order, error) {
	if m.GetByIncrementIDFunc != nil {
		return m.GetByIncrementIDFunc(ctx, incrementID)
	}
	return nil, output.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByEntityID(ctx context.Context, entityID uint64) (*core.Order, error) {
	if m.GetByEntityIDFunc != nil {
		return m.GetByEntityIDFunc(ctx, entityID)
	}
	return nil, output.ErrOrderNotFound
}

func (m *MockOrderRepository) Save(ctx context.Context, order *core.Order) error {
	m.SaveCalls++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	return nil
}

// MockInvoiceRepository implements the InvoiceRepository output port
type MockInvoiceRepository struct {
	SaveWithOrderFunc     func(ctx context.Context, invoice *core.Invoice, order *core.Order) error
	GetByOrderFunc        func(ctx context.Context, orderEntityID uint64) ([]*core.Invoice, error)
	HasPartialCaptureFunc func(ctx context.Context, orderEntityID uint64) (bool, error)

	SaveCalls int
	Saved     []*core.Invoice
}

func (m *MockInvoiceRepository) SaveWithOrder(ctx context.Context, invoice *core.Invoice, order *core.Order) error {
	m.SaveCalls++
	if m.SaveWithOrderFunc != nil {
		return m.SaveWithOrderFunc(ctx, invoice, order)
	}
	m.Saved = append(m.Saved, invoice)
	return nil
}

func (m *MockInvoiceRepository) GetByOrder(ctx context.Context, orderEntityID uint64) ([]*core.Invoice, error) {
	if m.GetByOrderFunc != nil {
		return m.GetByOrderFunc(ctx, orderEntityID)
	}
	return m.Saved, nil
}

func (m *MockInvoiceRepository) HasPartialCapture(ctx context.Context, orderEntityID uint64) (bool, error) {
	if m.HasPartialCaptureFunc != nil {
		return m.HasPartialCaptureFunc(ctx, orderEntityID)
	}
	return false, nil
}

// MockGatewayClient implements the GatewayClient output port
type MockGatewayClient struct {
	GetPaymentFunc      func(ctx context.Context, paymentID string) (map[string]any, error)
	CancelPaymentFunc   func(ctx context.Context, paymentID string) error
	CapturePaymentFunc  func(ctx context.Context, paymentID string, amount int64) error
	ConfirmPaymentFunc  func(ctx context.Context, paymentID string) error
	VerifySignatureFunc func(body []byte, signatureHeader string) (map[string]any, error)

	CaptureCalls int
	CancelCalls  int
}

func (m *MockGatewayClient) GetPayment(ctx context.Context, paymentID string) (map[string]any, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return map[string]any{"id": paymentID, "status": "PENDING"}, nil
}

func (m *MockGatewayClient) CancelPayment(ctx context.Context, paymentID string) error {
	m.CancelCalls++
	if m.CancelPaymentFunc != nil {
		return m.CancelPaymentFunc(ctx, paymentID)
	}
	return nil
}

func (m *MockGatewayClient) CapturePayment(ctx context.Context, paymentID string, amount int64) error {
	m.CaptureCalls++
	if m.CapturePaymentFunc != nil {
		return m.CapturePaymentFunc(ctx, paymentID, amount)
	}
	return nil
}

func (m *MockGatewayClient) ConfirmPayment(ctx context.Context, paymentID string) error {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, paymentID)
	}
	return nil
}

func (m *MockGatewayClient) VerifySignature(body []byte, signatureHeader string) (map[string]any, error) {
	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(body, signatureHeader)
	}
	return nil, output.ErrInvalidSignature
}

// MockInvoiceCreator stands in for the invoice service inside the processor
type MockInvoiceCreator struct {
	ProcessInvoiceFunc       func(ctx context.Context, order *core.Order, transactionID string) (*core.Invoice, error)
	CreatePendingInvoiceFunc func(ctx context.Context, order *core.Order, paymentID string) (*core.Invoice, error)

	ProcessCalls int
	PendingCalls int
}

func (m *MockInvoiceCreator) ProcessInvoice(ctx context.Context, order *core.Order, transactionID string) (*core.Invoice, error) {
	m.ProcessCalls++
	if m.ProcessInvoiceFunc != nil {
		return m.ProcessInvoiceFunc(ctx, order, transactionID)
	}
	return core.NewInvoice(order, core.CaptureOnline, transactionID), nil
}

func (m *MockInvoiceCreator) CreatePendingInvoice(ctx context.Context, order *core.Order, paymentID string) (*core.Invoice, error) {
	m.PendingCalls++
	if m.CreatePendingInvoiceFunc != nil {
		return m.CreatePendingInvoiceFunc(ctx, order, paymentID)
	}
	return core.NewInvoice(order, core.CaptureOffline, paymentID), nil
}

// MockEmailSender implements the InvoiceEmailSender output port
type MockEmailSender struct {
	SendFunc func(ctx context.Context, order *core.Order, invoice *core.Invoice) error
	Calls    int
}

func (m *MockEmailSender) SendInvoiceEmail(ctx context.Context, order *core.Order, invoice *core.Invoice) error {
	m.Calls++
	if m.SendFunc != nil {
		return m.SendFunc(ctx, order, invoice)
	}
	return nil
}

func newTestOrder() *core.Order {
	return &core.Order{
		EntityID:    45,
		IncrementID: "000000045",
		State:       core.OrderStateNew,
		Status:      "pending",
		GrandTotal:  1999,
		Currency:    "EUR",
		Items: []core.OrderItem{
			{SKU: "sku-a", Price: 1000, QtyOrdered: 1},
			{SKU: "sku-b", Price: 999, QtyOrdered: 1},
		},
	}
}
