package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopfront/monei-gateway/internal/monitor"
	"github.com/shopfront/monei-gateway/internal/port/input"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// SignatureHeader carries the callback signature
const SignatureHeader = "MONEI-Signature"

// CallbackHandler is a primary adapter for the gateway's callback channel.
// The raw body is verified against the signature header through the gateway
// client before any processing happens.
type CallbackHandler struct {
	processor input.PaymentProcessor
	gateway   output.GatewayClient
	logger    output.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(processor input.PaymentProcessor, gateway output.GatewayClient, logger output.Logger) *CallbackHandler {
	return &CallbackHandler{
		processor: processor,
		gateway:   gateway,
		logger:    logger,
	}
}

// Handle processes one callback delivery. The endpoint is idempotent: the
// gateway retries on any non-2xx response.
func (h *CallbackHandler) Handle(c echo.Context) error {
	setNoCacheHeaders(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("callback body read failed", output.Fields{"error": err.Error()})
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to read request"})
	}

	payment, err := h.gateway.VerifySignature(body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		monitor.RecordNotificationRejected("callback", "invalid_signature")
		h.logger.Warning("callback signature verification failed", output.Fields{"error": err.Error()})
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
	}

	paymentID, _ := payment["id"].(string)
	orderID, _ := payment["orderId"].(string)
	if paymentID == "" || orderID == "" {
		monitor.RecordNotificationRejected("callback", "missing_fields")
		h.logger.Warning("callback payload missing required fields", output.Fields{
			"payment_id": paymentID,
			"order_id":   orderID,
		})
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing id or orderId"})
	}

	result := h.processor.Process(c.Request().Context(), orderID, paymentID, payment)
	if !result.Success {
		return c.JSON(result.StatusCode, map[string]string{"error": result.Message})
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
