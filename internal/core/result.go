package core

import "net/http"

// ProcessingResult is the outcome of one reconciliation attempt.
// Immutable once created; build through SuccessResult or ErrorResult.
type ProcessingResult struct {
	Success    bool
	Status     PaymentStatus
	OrderID    string
	PaymentID  string
	Message    string
	StatusCode int
}

// SuccessResult builds a successful (possibly no-op) result
func SuccessResult(orderID, paymentID string, status PaymentStatus) ProcessingResult {
	return ProcessingResult{
		Success:    true,
		Status:     status,
		OrderID:    orderID,
		PaymentID:  paymentID,
		StatusCode: http.StatusOK,
	}
}

// ErrorResult builds a failed result. A failure always carries a message.
func ErrorResult(orderID, paymentID string, statusCode int, message string) ProcessingResult {
	if message == "" {
		message = "unknown processing error"
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	return ProcessingResult{
		Success:    false,
		OrderID:    orderID,
		PaymentID:  paymentID,
		Message:    message,
		StatusCode: statusCode,
	}
}
