package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopfront/monei-gateway/internal/constant/model/db"
	"github.com/shopfront/monei-gateway/internal/core"
	"github.com/shopfront/monei-gateway/internal/port/output"
	"gorm.io/gorm"
)

// GormOrderRepository is a secondary adapter that implements the OrderRepository output port
type GormOrderRepository struct {
	gormDB *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository
func NewGormOrderRepository(gormDB *gorm.DB) output.OrderRepository {
	return &GormOrderRepository{gormDB: gormDB}
}

// orderToCore converts db.Order to core.Order
func orderToCore(o *db.Order) *core.Order {
	order := &core.Order{
		EntityID:    o.EntityID,
		IncrementID: o.IncrementID,
		State:       core.OrderState(o.State),
		Status:      o.Status,
		GrandTotal:  o.GrandTotal,
		Currency:    o.Currency,
		Payment: core.OrderPayment{
			Method:           o.Method,
			LastTransID:      o.LastTransID,
			GatewayPaymentID: o.GatewayPaymentID,
			CaptureID:        o.CaptureID,
			Captured:         o.Captured,
			Voided:           o.Voided,
			Tokenized:        o.Tokenized,
		},
		FullyInvoiced:     o.FullyInvoiced,
		HasPartialCapture: o.HasPartialCapture,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, core.OrderItem{
			SKU:        item.SKU,
			Price:      item.Price,
			QtyOrdered: item.QtyOrdered,
		})
	}
	for _, entry := range o.StatusHistory {
		order.StatusHistory = append(order.StatusHistory, core.StatusHistoryEntry{
			ID:        entry.ID,
			Status:    entry.Status,
			Comment:   entry.Comment,
			CreatedAt: entry.CreatedAt,
		})
	}
	return order
}

// orderFromCore converts core.Order to db.Order
func orderFromCore(o *core.Order) *db.Order {
	order := &db.Order{
		EntityID:          o.EntityID,
		IncrementID:       o.IncrementID,
		State:             string(o.State),
		Status:            o.Status,
		GrandTotal:        o.GrandTotal,
		Currency:          o.Currency,
		Method:            o.Payment.Method,
		LastTransID:       o.Payment.LastTransID,
		GatewayPaymentID:  o.Payment.GatewayPaymentID,
		CaptureID:         o.Payment.CaptureID,
		Captured:          o.Payment.Captured,
		Voided:            o.Payment.Voided,
		Tokenized:         o.Payment.Tokenized,
		FullyInvoiced:     o.FullyInvoiced,
		HasPartialCapture: o.HasPartialCapture,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, entry := range o.StatusHistory {
		order.StatusHistory = append(order.StatusHistory, db.OrderStatusHistory{
			ID:            entry.ID,
			OrderEntityID: o.EntityID,
			Status:        entry.Status,
			Comment:       entry.Comment,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return order
}

// GetByIncrementID retrieves an order by its human-readable increment id
func (r *GormOrderRepository) GetByIncrementID(ctx context.Context, incrementID string) (*core.Order, error) {
	var dbOrder db.Order
	err := r.gormDB.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("increment_id = ?", incrementID).
		First(&dbOrder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("increment id %s: %w", incrementID, output.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return orderToCore(&dbOrder), nil
}

// GetByEntityID retrieves an order by its internal numeric entity id
func (r *GormOrderRepository) GetByEntityID(ctx context.Context, entityID uint64) (*core.Order, error) {
	var dbOrder db.Order
	err := r.gormDB.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory").
		Where("entity_id = ?", entityID).
		First(&dbOrder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("entity id %d: %w", entityID, output.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return orderToCore(&dbOrder), nil
}

// Save persists the order state, payment metadata and any new status history
func (r *GormOrderRepository) Save(ctx context.Context, order *core.Order) error {
	dbOrder := orderFromCore(order)
	return r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "StatusHistory").Save(dbOrder).Error; err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		for i := range dbOrder.StatusHistory {
			entry := &dbOrder.StatusHistory[i]
			if entry.ID != 0 {
				continue
			}
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to save status history: %w", err)
			}
		}
		order.UpdatedAt = dbOrder.UpdatedAt
		return nil
	})
}
