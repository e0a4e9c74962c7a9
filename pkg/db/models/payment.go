package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment records a single charge attempt. Rows are append-only: a retried
// payment is a new row, never a mutation, and ProviderRef is set only when
// the authorizer approved.
type Payment struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	Provider    string    `gorm:"column:provider;not null"`
	ProviderRef *string   `gorm:"column:provider_ref"`
	Succeeded   bool      `gorm:"column:succeeded;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
