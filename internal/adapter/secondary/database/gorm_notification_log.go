package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopfront/monei-gateway/internal/constant/model/db"
	"github.com/shopfront/monei-gateway/internal/port/output"
	"gorm.io/gorm"
)

// GormNotificationLogRepository records payment events for audit
type GormNotificationLogRepository struct {
	gormDB *gorm.DB
}

// NewGormNotificationLogRepository creates a new GORM notification log repository
func NewGormNotificationLogRepository(gormDB *gorm.DB) output.NotificationLogRepository {
	return &GormNotificationLogRepository{gormDB: gormDB}
}

// Record persists one observed payment event. Redelivered events (same event
// id) are deduplicated through the unique index and reported as duplicates.
func (r *GormNotificationLogRepository) Record(ctx context.Context, event output.PaymentEvent) error {
	entry := db.NotificationLog{
		EventID:   event.EventID,
		EventType: event.Type,
		PaymentID: event.PaymentID,
		OrderID:   event.OrderID,
		Status:    event.Status,
		Payload:   event.Raw,
		CreatedAt: event.Timestamp,
	}
	if err := r.gormDB.WithContext(ctx).Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("event %s: %w", event.EventID, output.ErrDuplicateOperation)
		}
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}
