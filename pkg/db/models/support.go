package models

import (
	"time"

	"github.com/google/uuid"
)

// SupportThread is an append-only conversation owned by a user, optionally
// referencing an order. Closing is terminal.
type SupportThread struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID       `gorm:"column:order_id;type:uuid"`
	Subject   string           `gorm:"column:subject;not null"`
	Closed    bool             `gorm:"column:closed;not null;default:false"`
	Messages  []SupportMessage `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// SupportMessage is one entry in a thread. A nil AuthorUserID marks a support
// agent reply.
type SupportMessage struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ThreadID     uuid.UUID  `gorm:"column:thread_id;type:uuid;not null;index"`
	AuthorUserID *uuid.UUID `gorm:"column:author_user_id;type:uuid"`
	Body         string     `gorm:"column:body;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}
