package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/pkg/db"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

// Service issues and serves invoices. An invoice is cut exactly once per
// order, inside the same transaction that marks the order paid.
type Service interface {
	Issue(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error)
	Get(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	GetByOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the billing service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Issue snapshots the order lines into an invoice. The lines are copied, not
// referenced, so the invoice format can diverge from orders later.
func (s *service) Issue(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if len(order.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no lines to invoice")
	}

	invoice := &models.Invoice{
		ID:       uuid.New(),
		OrderID:  order.ID,
		UserID:   order.UserID,
		IssuedAt: s.now().UTC(),
	}
	for _, line := range order.Lines {
		lineTotal := line.UnitPriceCents * line.Qty
		invoice.Lines = append(invoice.Lines, models.InvoiceLine{
			ID:             uuid.New(),
			InvoiceID:      invoice.ID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			LineTotalCents: lineTotal,
		})
		invoice.TotalCents += lineTotal
	}

	created, err := s.repo.WithTx(tx).Create(ctx, invoice)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already invoiced")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func (s *service) GetByOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Invoice, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	invoice, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	invoices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return invoices, nil
}
