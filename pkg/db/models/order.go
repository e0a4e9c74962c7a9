package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pvalette/boutique-backend/pkg/enums"
)

// Order is the lifecycle aggregate. Lines are an immutable snapshot of the
// cart at checkout time; the total is always derived from them, never from
// the live catalog.
type Order struct {
	ID     uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status enums.OrderStatus `gorm:"column:status;not null;default:'created'"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	DeliveryID *uuid.UUID `gorm:"column:delivery_id;type:uuid"`
	InvoiceID  *uuid.UUID `gorm:"column:invoice_id;type:uuid"`
	PaymentID  *uuid.UUID `gorm:"column:payment_id;type:uuid"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	ValidatedAt *time.Time `gorm:"column:validated_at"`
	PaidAt      *time.Time `gorm:"column:paid_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	RefundedAt  *time.Time `gorm:"column:refunded_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalCents sums unit price times quantity over the snapshot lines.
func (o Order) TotalCents() int {
	total := 0
	for _, line := range o.Lines {
		total += line.UnitPriceCents * line.Qty
	}
	return total
}

// OrderLine captures product attributes at order-creation time so later
// catalog edits never alter a placed order.
type OrderLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
