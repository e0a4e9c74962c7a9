package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

type productLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages the pending cart. The cart is scratch space: nothing here
// touches stock, and prices shown are always the live catalog prices.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, userID, productID uuid.UUID, qty int) error
	View(ctx context.Context, userID uuid.UUID) (*View, error)
	Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	products productLoader
}

// View is the priced rendering of a user's cart.
type View struct {
	Items      []LineView `json:"items"`
	TotalCents int        `json:"total_cents"`
}

// LineView is one cart row joined against the live catalog.
type LineView struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
	LineTotalCents int       `json:"line_total_cents"`
}

// NewService builds the cart service.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeProductInactive, "product is no longer sold")
	}

	item, err := s.repo.FindItem(ctx, userID, productID)
	switch {
	case err == nil:
		item.Qty += qty
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &models.CartItem{UserID: userID, ProductID: productID, Qty: qty}
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	// Soft check against live stock. Nothing is reserved here, so it can go
	// stale by checkout time; payment re-validates with authority.
	if item.Qty > product.StockQty {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock")
	}

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return nil
}

// Remove decrements a line by qty, dropping it once it reaches zero. A qty
// of zero or less removes the line outright. Removing an absent line is a
// no-op.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	item, err := s.repo.FindItem(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if qty > 0 && item.Qty > qty {
		item.Qty -= qty
		if err := s.repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return nil
	}

	if _, err := s.repo.DeleteItem(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

// Items returns the raw cart rows, unjoined and unpriced. The lifecycle
// engine consumes these so vanished products fail checkout instead of being
// skipped the way View does.
func (s *service) Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	return items, nil
}

// View prices the cart against the live catalog. Rows whose product has
// vanished or been deactivated since they were added are skipped, not
// surfaced as errors; checkout is where they get rejected.
func (s *service) View(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	view := &View{Items: []LineView{}}
	for _, item := range items {
		product, err := s.products.Get(ctx, item.ProductID)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			return nil, err
		}
		if !product.IsActive {
			continue
		}
		line := LineView{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Qty:            item.Qty,
			LineTotalCents: product.PriceCents * item.Qty,
		}
		view.Items = append(view.Items, line)
		view.TotalCents += line.LineTotalCents
	}
	return view, nil
}

// Clear wipes the cart inside the caller's transaction. Only the order
// lifecycle engine calls this, after a confirmed payment.
func (s *service) Clear(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.WithTx(tx).ClearUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
