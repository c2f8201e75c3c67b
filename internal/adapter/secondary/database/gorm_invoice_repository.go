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

// GormInvoiceRepository is a secondary adapter that implements the InvoiceRepository output port
type GormInvoiceRepository struct {
	gormDB *gorm.DB
}

// NewGormInvoiceRepository creates a new GORM invoice repository
func NewGormInvoiceRepository(gormDB *gorm.DB) output.InvoiceRepository {
	return &GormInvoiceRepository{gormDB: gormDB}
}

func invoiceToCore(i *db.Invoice) *core.Invoice {
	return &core.Invoice{
		ID:            i.ID,
		OrderID:       i.OrderEntityID,
		TransactionID: i.TransactionID,
		CaptureType:   core.CaptureType(i.CaptureType),
		State:         core.InvoiceState(i.State),
		Amount:        i.Amount,
		Currency:      i.Currency,
		Partial:       i.Partial,
		CreatedAt:     i.CreatedAt,
	}
}

func invoiceFromCore(i *core.Invoice) *db.Invoice {
	return &db.Invoice{
		ID:            i.ID,
		OrderEntityID: i.OrderID,
		TransactionID: i.TransactionID,
		CaptureType:   string(i.CaptureType),
		State:         string(i.State),
		Amount:        i.Amount,
		Currency:      i.Currency,
		Partial:       i.Partial,
		CreatedAt:     i.CreatedAt,
	}
}

// SaveWithOrder persists the invoice and the updated order in one transaction.
// A second capture for the same transaction id trips the unique index, which
// surfaces as the typed duplicate error the invoice service absorbs.
func (r *GormInvoiceRepository) SaveWithOrder(ctx context.Context, invoice *core.Invoice, order *core.Order) error {
	dbInvoice := invoiceFromCore(invoice)
	dbOrder := orderFromCore(order)

	return r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dbInvoice).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("invoice for transaction %s: %w", invoice.TransactionID, output.ErrDuplicateOperation)
			}
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		if err := tx.Omit("Items", "StatusHistory").Save(dbOrder).Error; err != nil {
			return fmt.Errorf("failed to save order with invoice: %w", err)
		}
		return nil
	})
}

// GetByOrder lists the invoices recorded for an order
func (r *GormInvoiceRepository) GetByOrder(ctx context.Context, orderEntityID uint64) ([]*core.Invoice, error) {
	var dbInvoices []db.Invoice
	err := r.gormDB.WithContext(ctx).
		Where("order_entity_id = ?", orderEntityID).
		Order("created_at asc").
		Find(&dbInvoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	invoices := make([]*core.Invoice, 0, len(dbInvoices))
	for i := range dbInvoices {
		invoices = append(invoices, invoiceToCore(&dbInvoices[i]))
	}
	return invoices, nil
}

// HasPartialCapture reports whether a partial capture exists for the order
func (r *GormInvoiceRepository) HasPartialCapture(ctx context.Context, orderEntityID uint64) (bool, error) {
	var count int64
	err := r.gormDB.WithContext(ctx).
		Model(&db.Invoice{}).
		Where("order_entity_id = ? AND partial = ?", orderEntityID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count partial captures: %w", err)
	}
	return count > 0, nil
}
