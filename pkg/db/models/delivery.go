package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pvalette/boutique-backend/pkg/enums"
)

// Delivery is the shipment record for one order. TrackingNumber stays empty
// until the carrier hand-off.
type Delivery struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_deliveries_order"`
	Carrier        string               `gorm:"column:carrier;not null"`
	TrackingNumber *string              `gorm:"column:tracking_number"`
	Address        string               `gorm:"column:address;not null"`
	Status         enums.DeliveryStatus `gorm:"column:status;not null;default:'prepared'"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
