package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog listing. Stock mutates only through the ledger's
// guarded reserve/release; products are deactivated, never deleted.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null"`
	PriceCents  int       `gorm:"column:price_cents;not null"`
	StockQty    int       `gorm:"column:stock_qty;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
