package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool, search string) ([]models.Product, error) {
	var products []models.Product
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReserveStock decrements stock atomically. The guard keeps the decrement and
// the availability check in one statement so concurrent reservations can never
// drive stock negative. Returns false when nothing matched the guard.
func (r *repository) ReserveStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("reserve qty must be positive, got %d", qty)
	}
	result := r.db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND is_active = ? AND stock_qty >= ?`,
		qty, productID, true, qty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseStock returns previously reserved units to the shelf.
func (r *repository) ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release qty must be positive, got %d", qty)
	}
	result := r.db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock_qty = stock_qty + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, productID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
