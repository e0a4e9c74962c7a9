package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
)

// Repository defines persistence operations for cart rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	ClearUser(ctx context.Context, userID uuid.UUID) error
}
