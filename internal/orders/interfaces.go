package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/internal/payments"
	"github.com/pvalette/boutique-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockLedger is the slice of the catalog the engine needs: product lookup
// for availability checks, guarded reservations and their reversal.
type stockLedger interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// cartGateway reads the raw cart rows and clears them after a confirmed
// payment.
type cartGateway interface {
	Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

// invoiceIssuer cuts the invoice inside the payment transaction.
type invoiceIssuer interface {
	Issue(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error)
}

// paymentRecorder appends charge attempts, settled or declined.
type paymentRecorder interface {
	WithTx(tx *gorm.DB) payments.Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}
