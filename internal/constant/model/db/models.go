package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order represents a storefront order row
type Order struct {
	EntityID          uint64    `gorm:"primaryKey;autoIncrement" json:"entity_id"`
	IncrementID       string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"increment_id"`
	State             string    `gorm:"type:varchar(32);not null" json:"state"`
	Status            string    `gorm:"type:varchar(32);not null" json:"status"`
	GrandTotal        int64     `gorm:"not null" json:"grand_total"`
	Currency          string    `gorm:"type:varchar(3);not null" json:"currency"`
	Method            string    `gorm:"type:varchar(32)" json:"method"`
	LastTransID       string    `gorm:"type:varchar(64)" json:"last_trans_id"`
	GatewayPaymentID  string    `gorm:"type:varchar(64);index" json:"gateway_payment_id"`
	CaptureID         string    `gorm:"type:varchar(64)" json:"capture_id"`
	Captured          bool      `gorm:"not null;default:false" json:"captured"`
	Voided            bool      `gorm:"not null;default:false" json:"voided"`
	Tokenized         bool      `gorm:"not null;default:false" json:"tokenized"`
	FullyInvoiced     bool      `gorm:"not null;default:false" json:"fully_invoiced"`
	HasPartialCapture bool      `gorm:"not null;default:false" json:"has_partial_capture"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items         []OrderItem          `gorm:"foreignKey:OrderEntityID" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderEntityID" json:"status_history"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "sales_orders"
}

// BeforeUpdate is a GORM hook that runs before updating a record
func (o *Order) BeforeUpdate(tx *gorm.DB) error {
	o.UpdatedAt = time.Now()
	return nil
}

// OrderItem represents one purchasable line of an order
type OrderItem struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderEntityID uint64 `gorm:"not null;index" json:"order_entity_id"`
	SKU           string `gorm:"type:varchar(64);not null" json:"sku"`
	Price         int64  `gorm:"not null" json:"price"`
	QtyOrdered    int    `gorm:"not null" json:"qty_ordered"`
}

// TableName specifies the table name for GORM
func (OrderItem) TableName() string {
	return "sales_order_items"
}

// OrderStatusHistory represents an audit comment on an order
type OrderStatusHistory struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderEntityID uint64    `gorm:"not null;index" json:"order_entity_id"`
	Status        string    `gorm:"type:varchar(32)" json:"status"`
	Comment       string    `gorm:"type:text" json:"comment"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GORM
func (OrderStatusHistory) TableName() string {
	return "sales_order_status_history"
}

// Invoice represents a capture recorded against an order
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderEntityID uint64    `gorm:"not null;index" json:"order_entity_id"`
	TransactionID string    `gorm:"type:varchar(64);index:idx_invoice_txn,unique,where:transaction_id <> ''" json:"transaction_id"`
	CaptureType   string    `gorm:"type:varchar(16);not null" json:"capture_type"`
	State         string    `gorm:"type:varchar(16);not null" json:"state"`
	Amount        int64     `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"type:varchar(3);not null" json:"currency"`
	Partial       bool      `gorm:"not null;default:false" json:"partial"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Invoice) TableName() string {
	return "sales_invoices"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	return nil
}

// ProcessingLock backs the cross-process lock store. A row is the lock.
type ProcessingLock struct {
	Key        string    `gorm:"type:varchar(191);primaryKey" json:"key"`
	AcquiredAt time.Time `gorm:"not null" json:"acquired_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for GORM
func (ProcessingLock) TableName() string {
	return "processing_locks"
}

// NotificationLog records every payment event observed on the message bus
type NotificationLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	EventType string    `gorm:"type:varchar(64);not null" json:"event_type"`
	PaymentID string    `gorm:"type:varchar(64);index" json:"payment_id"`
	OrderID   string    `gorm:"type:varchar(32);index" json:"order_id"`
	Status    string    `gorm:"type:varchar(32)" json:"status"`
	Payload   []byte    `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for GORM
func (NotificationLog) TableName() string {
	return "payment_notification_log"
}
