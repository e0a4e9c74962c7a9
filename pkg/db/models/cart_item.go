package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart. The cart itself is the set of a
// user's rows; it exists lazily and is cleared only by the order lifecycle
// engine after a confirmed payment.
type CartItem struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Qty       int       `gorm:"column:qty;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
