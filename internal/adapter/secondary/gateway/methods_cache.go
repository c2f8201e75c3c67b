package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"
)

const defaultMethodsTTL = 5 * time.Minute

// PaymentMethodsCache caches the gateway's payment-methods response per
// account id with a TTL. Time is injected so tests control expiry.
type PaymentMethodsCache struct {
	client *MoneiClient
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]methodsEntry
}

type methodsEntry struct {
	methods   []string
	expiresAt time.Time
}

// NewPaymentMethodsCache creates a cache over the gateway client. A zero ttl
// falls back to the default; a nil now falls back to time.Now.
func NewPaymentMethodsCache(client *MoneiClient, ttl time.Duration, now func() time.Time) *PaymentMethodsCache {
	if ttl <= 0 {
		ttl = defaultMethodsTTL
	}
	if now == nil {
		now = time.Now
	}
	return &PaymentMethodsCache{
		client:  client,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]methodsEntry),
	}
}

// GetAvailableMethods returns the payment methods the gateway account offers,
// serving from cache within the TTL.
func (c *PaymentMethodsCache) GetAvailableMethods(ctx context.Context, accountID string) ([]string, error) {
	c.mu.Lock()
	entry, ok := c.entries[accountID]
	if ok && c.now().Before(entry.expiresAt) {
		methods := entry.methods
		c.mu.Unlock()
		return methods, nil
	}
	c.mu.Unlock()

	body, err := c.client.do(ctx, "GET", "/payment-methods?accountId="+url.QueryEscape(accountID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch payment methods for account %s: %w", accountID, err)
	}

	var decoded struct {
		PaymentMethods []string `json:"paymentMethods"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode payment methods: %w", err)
	}

	c.mu.Lock()
	c.entries[accountID] = methodsEntry{
		methods:   decoded.PaymentMethods,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return decoded.PaymentMethods, nil
}

// Expire drops the cached entry for an account
func (c *PaymentMethodsCache) Expire(accountID string) {
	c.mu.Lock()
	delete(c.entries, accountID)
	c.mu.Unlock()
}
