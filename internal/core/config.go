package core

import (
	"strings"
	"time"
)

// Config carries the reconciliation settings the surrounding platform exposes
type Config struct {
	// Order status labels applied by the processor transitions
	ConfirmedStatus     string
	PreAuthorizedStatus string

	// Whether the customer invoice email is sent after a capture
	SendInvoiceEmail bool

	// Lock acquisition TTL in the shared lock store
	LockTimeout time.Duration

	// Shared secret for webhook signature verification
	WebhookSecret string

	// Storefront paths the redirect handler routes to
	SuccessPath string
	FailurePath string
	LoadingPath string

	Methods MethodConfig
}

// MethodConfig is the parametrized payment-method capability check: one component
// answering "is this method enabled" for any method code.
type MethodConfig struct {
	enabled map[string]bool
}

// NewMethodConfig builds a MethodConfig from a comma separated list of method codes
func NewMethodConfig(codes string) MethodConfig {
	enabled := make(map[string]bool)
	for _, code := range strings.Split(codes, ",") {
		code = strings.ToLower(strings.TrimSpace(code))
		if code != "" {
			enabled[code] = true
		}
	}
	return MethodConfig{enabled: enabled}
}

// IsEnabled reports whether the given payment method code is enabled
func (m MethodConfig) IsEnabled(code string) bool {
	return m.enabled[strings.ToLower(strings.TrimSpace(code))]
}

// EnabledCodes lists the enabled method codes
func (m MethodConfig) EnabledCodes() []string {
	codes := make([]string, 0, len(m.enabled))
	for code := range m.enabled {
		codes = append(codes, code)
	}
	return codes
}

// DefaultConfig returns the settings used when the platform provides none
func DefaultConfig() Config {
	return Config{
		ConfirmedStatus:     "monei_confirmed",
		PreAuthorizedStatus: "monei_pre_authorized",
		SendInvoiceEmail:    true,
		LockTimeout:         15 * time.Second,
		SuccessPath:         "/checkout/onepage/success",
		FailurePath:         "/checkout/cart",
		LoadingPath:         "/monei/payment/loading",
		Methods:             NewMethodConfig(MethodCard),
	}
}
