package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopfront/monei-gateway/internal/port/output"
)

const (
	orderLockPrefix   = "ORDER_LOCK_"
	paymentLockPrefix = "PAYMENT_LOCK_"

	// Discriminator used for payment-level locking before a transaction id exists
	FallbackPaymentLockID = "order-payment"

	defaultLockTimeout  = 15 * time.Second
	defaultPollInterval = 500 * time.Millisecond
	unlockRetryDelay    = 100 * time.Millisecond
)

// ErrLockNotAcquired signals lock contention: the operation is safe to retry
// once the current holder releases.
var ErrLockNotAcquired = errors.New("lock could not be acquired")

// LockManager provides mutual exclusion over orders and payments, backed by a
// shared cross-process lock store.
type LockManager struct {
	store        output.LockStore
	logger       output.Logger
	timeout      time.Duration
	pollInterval time.Duration
}

// NewLockManager creates a lock manager with the given acquisition TTL.
// A zero timeout falls back to the default.
func NewLockManager(store output.LockStore, logger output.Logger, timeout time.Duration) *LockManager {
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &LockManager{
		store:        store,
		logger:       logger,
		timeout:      timeout,
		pollInterval: defaultPollInterval,
	}
}

func orderLockKey(orderID string) string {
	return orderLockPrefix + orderID
}

func paymentLockKey(orderID, paymentID string) string {
	if paymentID == "" {
		paymentID = FallbackPaymentLockID
	}
	return fmt.Sprintf("%s%s_%s", paymentLockPrefix, orderID, paymentID)
}

// LockOrder attempts a non-blocking acquisition of the order-level lock
func (m *LockManager) LockOrder(ctx context.Context, orderID string) bool {
	return m.acquire(ctx, orderLockKey(orderID))
}

// UnlockOrder releases the order-level lock. Idempotent.
func (m *LockManager) UnlockOrder(ctx context.Context, orderID string) bool {
	return m.release(ctx, orderLockKey(orderID))
}

// LockPayment attempts a non-blocking acquisition of the payment-level lock
func (m *LockManager) LockPayment(ctx context.Context, orderID, paymentID string) bool {
	return m.acquire(ctx, paymentLockKey(orderID, paymentID))
}

// UnlockPayment releases the payment-level lock. Idempotent.
func (m *LockManager) UnlockPayment(ctx context.Context, orderID, paymentID string) bool {
	return m.release(ctx, paymentLockKey(orderID, paymentID))
}

// IsOrderLocked is a non-mutating probe of the order-level lock
func (m *LockManager) IsOrderLocked(ctx context.Context, orderID string) bool {
	return m.probe(ctx, orderLockKey(orderID))
}

// IsPaymentLocked is a non-mutating probe of the payment-level lock
func (m *LockManager) IsPaymentLocked(ctx context.Context, orderID, paymentID string) bool {
	return m.probe(ctx, paymentLockKey(orderID, paymentID))
}

// WaitForPaymentUnlock polls until the payment lock is free or the timeout
// elapses. Returns true when the lock was observed free within budget. A false
// return is advisory: the caller proceeds and relies on the lock for correctness.
func (m *LockManager) WaitForPaymentUnlock(ctx context.Context, orderID, paymentID string, timeout time.Duration) bool {
	return m.waitForUnlock(ctx, paymentLockKey(orderID, paymentID), timeout)
}

// WaitForOrderUnlock polls until the order lock is free or the timeout elapses
func (m *LockManager) WaitForOrderUnlock(ctx context.Context, orderID string, timeout time.Duration) bool {
	return m.waitForUnlock(ctx, orderLockKey(orderID), timeout)
}

// ExecuteWithOrderLock acquires the order lock, invokes fn, and guarantees the
// lock is released on every exit path. The callback error is returned unchanged.
// Returns ErrLockNotAcquired without invoking fn when the lock is unavailable.
func (m *LockManager) ExecuteWithOrderLock(ctx context.Context, orderID string, fn func(ctx context.Context) error) error {
	return m.executeLocked(ctx, orderLockKey(orderID), fn)
}

// ExecuteWithPaymentLock is ExecuteWithOrderLock at payment granularity.
// paymentID may be empty: the fallback discriminator keeps invoice creation
// serialized before a transaction id exists.
func (m *LockManager) ExecuteWithPaymentLock(ctx context.Context, orderID, paymentID string, fn func(ctx context.Context) error) error {
	return m.executeLocked(ctx, paymentLockKey(orderID, paymentID), fn)
}

func (m *LockManager) executeLocked(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if !m.acquire(ctx, key) {
		return fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
	}
	defer m.release(ctx, key)
	return fn(ctx)
}

// acquire treats store errors as "acquisition failed": an unavailable lock
// backend must never let the caller proceed as if it held the lock.
func (m *LockManager) acquire(ctx context.Context, key string) bool {
	ok, err := m.store.Acquire(ctx, key, m.timeout)
	if err != nil {
		m.logger.Error("lock acquisition failed", output.Fields{"key": key, "error": err.Error()})
		return false
	}
	m.logger.Debug("lock acquire", output.Fields{"key": key, "acquired": ok})
	return ok
}

func (m *LockManager) release(ctx context.Context, key string) bool {
	ok, err := m.store.Release(ctx, key)
	if err != nil {
		// A release racing another holder's probe can fail transiently; retry once.
		time.Sleep(unlockRetryDelay)
		ok, err = m.store.Release(ctx, key)
		if err != nil {
			m.logger.Error("lock release failed", output.Fields{"key": key, "error": err.Error()})
			return false
		}
	}
	m.logger.Debug("lock release", output.Fields{"key": key, "released": ok})
	return true
}

func (m *LockManager) probe(ctx context.Context, key string) bool {
	locked, err := m.store.IsLocked(ctx, key)
	if err != nil {
		m.logger.Error("lock probe failed", output.Fields{"key": key, "error": err.Error()})
		return false
	}
	return locked
}

func (m *LockManager) waitForUnlock(ctx context.Context, key string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !m.probe(ctx, key) {
			return true
		}
		if time.Now().After(deadline) {
			m.logger.Warning("timed out waiting for lock release", output.Fields{
				"key":     key,
				"timeout": timeout.String(),
			})
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(m.pollInterval):
		}
	}
}
