package http

import (
	"context"
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

// MockProcessor implements the PaymentProcessor input port
type MockProcessor struct {
	ProcessFunc           func(ctx context.Context, orderID, paymentID string, raw map[string]any) core.ProcessingResult
	WaitForProcessingFunc func(ctx context.Context, orderID, paymentID string, timeout time.Duration) bool
	GetPaymentStatusFunc  func(ctx context.Context, paymentID string) (map[string]any, error)

	ProcessCalls int
	LastOrderID  string
	LastRaw      map[string]any
}

func (m *MockProcessor) Process(ctx context.Context, orderID, paymentID string, raw map[string]any) core.ProcessingResult {
	m.ProcessCalls++
	m.LastOrderID = orderID
	m.LastRaw = raw
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, orderID, paymentID, raw)
	}
	return core.SuccessResult(orderID, paymentID, core.StatusSucceeded)
}

func (m *MockProcessor) IsProcessing(ctx context.Context, orderID, paymentID string) bool {
	return false
}

func (m *MockProcessor) WaitForProcessing(ctx context.Context, orderID, paymentID string, timeout time.Duration) bool {
	if m.WaitForProcessingFunc != nil {
		return m.WaitForProcessingFunc(ctx, orderID, paymentID, timeout)
	}
	return true
}

func (m *MockProcessor) ValidatePaymentData(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	id, _ := raw["id"].(string)
	status, _ := raw["status"].(string)
	return id != "" && status != ""
}

func (m *MockProcessor) GetPaymentStatus(ctx context.Context, paymentID string) (map[string]any, error) {
	if m.GetPaymentStatusFunc != nil {
		return m.GetPaymentStatusFunc(ctx, paymentID)
	}
	return map[string]any{"id": paymentID, "status": "SUCCEEDED"}, nil
}

// MockGatewayClient implements the GatewayClient output port; handlers here
// only exercise signature verification.
type MockGatewayClient struct {
	VerifySignatureFunc func(body []byte, signatureHeader string) (map[string]any, error)
}

func (m *MockGatewayClient) GetPayment(ctx context.Context, paymentID string) (map[string]any, error) {
	return map[string]any{"id": paymentID, "status": "PENDING"}, nil
}

func (m *MockGatewayClient) CancelPayment(ctx context.Context, paymentID string) error { return nil }

func (m *MockGatewayClient) CapturePayment(ctx context.Context, paymentID string, amount int64) error {
	return nil
}

func (m *MockGatewayClient) ConfirmPayment(ctx context.Context, paymentID string) error { return nil }

func (m *MockGatewayClient) VerifySignature(body []byte, signatureHeader string) (map[string]any, error) {
	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(body, signatureHeader)
	}
	return nil, output.ErrInvalidSignature
}

// MockPublisher implements the PaymentEventPublisher output port
type MockPublisher struct {
	PublishFunc func(ctx context.Context, event output.PaymentEvent) error
	Published   []output.PaymentEvent
}

func (m *MockPublisher) PublishPaymentEvent(ctx context.Context, event output.PaymentEvent) error {
	m.Published = append(m.Published, event)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

func (m *MockPublisher) Close() error { return nil }
