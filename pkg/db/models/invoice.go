package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is an immutable billing snapshot. The unique index on order_id
// enforces at most one invoice per order; lines are kept redundant with the
// order snapshot so the invoice format can diverge later.
type Invoice struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID     `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_invoices_order"`
	UserID     uuid.UUID     `gorm:"column:user_id;type:uuid;not null"`
	Lines      []InvoiceLine `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	TotalCents int           `gorm:"column:total_cents;not null"`
	IssuedAt   time.Time     `gorm:"column:issued_at;not null"`
}

// InvoiceLine carries the per-line math of an invoice.
type InvoiceLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID      uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	LineTotalCents int       `gorm:"column:line_total_cents;not null"`
}
