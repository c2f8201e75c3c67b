package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopfront/monei-gateway/internal/adapter/secondary/gateway"
	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// MethodsHandler exposes the payment methods available for the configured
// gateway account, intersected with the methods enabled in configuration.
type MethodsHandler struct {
	cache     *gateway.PaymentMethodsCache
	logger    output.Logger
	methods   core.MethodConfig
	accountID string
}

// NewMethodsHandler creates a new payment methods handler
func NewMethodsHandler(cache *gateway.PaymentMethodsCache, logger output.Logger, methods core.MethodConfig, accountID string) *MethodsHandler {
	return &MethodsHandler{
		cache:     cache,
		logger:    logger,
		methods:   methods,
		accountID: accountID,
	}
}

// Handle returns the account's payment methods that are also enabled locally
func (h *MethodsHandler) Handle(c echo.Context) error {
	available, err := h.cache.GetAvailableMethods(c.Request().Context(), h.accountID)
	if err != nil {
		h.logger.Error("payment methods fetch failed", output.Fields{
			"account_id": h.accountID,
			"error":      err.Error(),
		})
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Payment methods unavailable"})
	}

	enabled := make([]string, 0, len(available))
	for _, code := range available {
		if h.methods.IsEnabled(code) {
			enabled = append(enabled, code)
		}
	}
	return c.JSON(http.StatusOK, map[string][]string{"paymentMethods": enabled})
}
