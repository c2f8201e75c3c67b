package output

import (
	"context"
	"errors"

	"github.com/shopfront/monei-gateway/internal/core"
)

// ErrOrderNotFound is returned when no order matches the given identifier
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is an output port (secondary port) for order data access.
// Secondary adapters (database implementations) will implement this.
type OrderRepository interface {
	// GetByIncrementID retrieves an order by its human-readable increment id
	GetByIncrementID(ctx context.Context, incrementID string) (*core.Order, error)

	// GetByEntityID retrieves an order by its internal numeric entity id
	GetByEntityID(ctx context.Context, entityID uint64) (*core.Order, error)

	// Save persists the order state, status, payment metadata and status history
	Save(ctx context.Context, order *core.Order) error
}
