package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, activeOnly bool, search string) ([]models.Product, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReserveStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error
}
