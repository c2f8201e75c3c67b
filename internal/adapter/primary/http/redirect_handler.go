package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/input"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// How long the synchronous path waits for an in-flight asynchronous
// notification before attempting its own processing.
const redirectWaitBudget = 5 * time.Second

// RedirectHandler is a primary adapter for the browser return from the
// gateway-hosted page. Query parameters are never trusted: the payment state
// is fetched from the gateway before anything else.
type RedirectHandler struct {
	processor input.PaymentProcessor
	logger    output.Logger
	cfg       core.Config
}

// NewRedirectHandler creates a new redirect handler
func NewRedirectHandler(processor input.PaymentProcessor, logger output.Logger, cfg core.Config) *RedirectHandler {
	return &RedirectHandler{
		processor: processor,
		logger:    logger,
		cfg:       cfg,
	}
}

// Handle completes the synchronous checkout path. Routing is driven strictly
// by the fetched payment's status predicates, not the processor result: the
// processor may report a soft failure while the payment itself is conclusively
// settled, and the customer must see ground truth.
func (h *RedirectHandler) Handle(c echo.Context) error {
	setNoCacheHeaders(c)

	paymentID := c.QueryParam("id")
	if paymentID == "" {
		paymentID = c.QueryParam("payment_id")
	}
	if paymentID == "" {
		h.logger.Warning("redirect without a payment id", nil)
		return c.Redirect(http.StatusFound, h.cfg.FailurePath)
	}

	ctx := c.Request().Context()
	raw, err := h.processor.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		h.logger.Error("payment fetch failed on redirect", output.Fields{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return c.Redirect(http.StatusFound, h.cfg.FailurePath)
	}

	payment, err := core.NewPaymentFromRaw(raw)
	if err != nil {
		h.logger.Error("gateway returned an invalid payment", output.Fields{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return c.Redirect(http.StatusFound, h.cfg.FailurePath)
	}

	if !h.processor.WaitForProcessing(ctx, payment.OrderID, payment.ID, redirectWaitBudget) {
		h.logger.Warning("proceeding while asynchronous processing may be in flight", output.Fields{
			"order_id":   payment.OrderID,
			"payment_id": payment.ID,
		})
	}

	result := h.processor.Process(ctx, payment.OrderID, payment.ID, raw)
	if !result.Success {
		h.logger.Info("redirect processing did not apply", output.Fields{
			"order_id":   payment.OrderID,
			"payment_id": payment.ID,
			"message":    result.Message,
		})
	}

	return c.Redirect(http.StatusFound, h.routeFor(payment))
}

func (h *RedirectHandler) routeFor(payment *core.Payment) string {
	switch {
	case payment.IsSucceeded(), payment.IsAuthorized():
		return h.cfg.SuccessPath
	case payment.IsPending():
		// Multi-step wallet flows (MB WAY, Multibanco) park the customer on an
		// interstitial page until the asynchronous outcome lands.
		return h.cfg.LoadingPath + "?" + url.Values{"payment_id": {payment.ID}}.Encode()
	default:
		return h.cfg.FailurePath
	}
}
