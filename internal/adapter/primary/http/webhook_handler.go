package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopfront/monei-gateway/internal/monitor"
	"github.com/shopfront/monei-gateway/internal/port/input"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// GenericEventType is published for every handled webhook; a status-specific
// event ("payment.succeeded" etc.) follows it.
const GenericEventType = "payment"

// WebhookHandler is a primary adapter for the gateway's webhook channel. The
// signature scheme differs from the callback channel and stays separate.
type WebhookHandler struct {
	verifier  *WebhookSignatureVerifier
	processor input.PaymentProcessor
	events    output.PaymentEventPublisher
	logger    output.Logger
}

// NewWebhookHandler creates a new webhook handler. events may be nil when no
// observer bus is configured.
func NewWebhookHandler(
	verifier *WebhookSignatureVerifier,
	processor input.PaymentProcessor,
	events output.PaymentEventPublisher,
	logger output.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		processor: processor,
		events:    events,
		logger:    logger,
	}
}

// Handle processes one webhook delivery and dispatches observer events
// regardless of the processing outcome.
func (h *WebhookHandler) Handle(c echo.Context) error {
	setNoCacheHeaders(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("webhook body read failed", output.Fields{"error": err.Error()})
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to read request"})
	}

	if err := h.verifier.Verify(body, c.Request().Header.Get(SignatureHeader)); err != nil {
		monitor.RecordNotificationRejected("webhook", "invalid_signature")
		h.logger.Warning("webhook signature verification failed", output.Fields{"error": err.Error()})
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
	}

	var payment map[string]any
	if err := json.Unmarshal(body, &payment); err != nil {
		monitor.RecordNotificationRejected("webhook", "malformed_payload")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Malformed payload"})
	}

	if !h.processor.ValidatePaymentData(payment) {
		monitor.RecordNotificationRejected("webhook", "missing_fields")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing id or status"})
	}

	paymentID, _ := payment["id"].(string)
	orderID, _ := payment["orderId"].(string)
	status, _ := payment["status"].(string)
	if orderID == "" {
		monitor.RecordNotificationRejected("webhook", "missing_fields")
		h.logger.Warning("webhook payload missing orderId", output.Fields{"payment_id": paymentID})
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing orderId"})
	}

	result := h.processor.Process(c.Request().Context(), orderID, paymentID, payment)

	h.dispatchEvents(c, body, paymentID, orderID, status)

	if !result.Success {
		return c.JSON(result.StatusCode, map[string]string{"error": result.Message})
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// dispatchEvents publishes the generic and the status-specific event.
// Publish failures are logged, never fatal to the webhook response.
func (h *WebhookHandler) dispatchEvents(c echo.Context, body []byte, paymentID, orderID, status string) {
	if h.events == nil {
		return
	}

	types := []string{GenericEventType}
	if status != "" {
		types = append(types, GenericEventType+"."+strings.ToLower(status))
	}
	for _, eventType := range types {
		event := output.PaymentEvent{
			EventID:   uuid.New(),
			Type:      eventType,
			PaymentID: paymentID,
			OrderID:   orderID,
			Status:    status,
			Timestamp: time.Now().UTC(),
			Raw:       json.RawMessage(body),
		}
		if err := h.events.PublishPaymentEvent(c.Request().Context(), event); err != nil {
			h.logger.Error("payment event dispatch failed", output.Fields{
				"event_type": eventType,
				"payment_id": paymentID,
				"order_id":   orderID,
				"error":      err.Error(),
			})
		}
	}
}
