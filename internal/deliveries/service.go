package deliveries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/pvalette/boutique-backend/pkg/db"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	"github.com/pvalette/boutique-backend/pkg/enums"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// orderEngine is the slice of the lifecycle engine the delivery workflow
// drives: attaching the shipment and moving the order forward with it.
type orderEngine interface {
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	AttachDelivery(ctx context.Context, tx *gorm.DB, orderID, deliveryID uuid.UUID) error
	MarkShipped(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// Service runs the shipment workflow. The delivery record and its order
// always move in the same transaction.
type Service interface {
	Prepare(ctx context.Context, input PrepareInput) (*models.Delivery, error)
	Ship(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	MarkDelivered(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	Track(ctx context.Context, userID, orderID uuid.UUID) (*models.Delivery, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	orders orderEngine
}

// PrepareInput opens a shipment for a paid order owned by the caller.
type PrepareInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Carrier string
	Address string
}

// NewService builds the delivery workflow service.
func NewService(repo Repository, tx txRunner, orders orderEngine) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order engine required")
	}
	return &service{repo: repo, tx: tx, orders: orders}, nil
}

// Prepare opens the shipment record. The order must be paid; it stays paid
// until the carrier hand-off.
func (s *service) Prepare(ctx context.Context, input PrepareInput) (*models.Delivery, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	carrier := strings.TrimSpace(input.Carrier)
	if carrier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier required")
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}

	// Owner-scoped resolution: a foreign order reads as not found.
	if _, err := s.orders.Get(ctx, input.UserID, input.OrderID); err != nil {
		return nil, err
	}

	delivery := &models.Delivery{
		ID:      uuid.New(),
		OrderID: input.OrderID,
		Carrier: carrier,
		Address: address,
		Status:  enums.DeliveryStatusPrepared,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, delivery); err != nil {
			if pkgdb.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has a delivery")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
		}
		return s.orders.AttachDelivery(ctx, tx, input.OrderID, delivery.ID)
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// Ship hands the parcel to the carrier: the delivery gets its tracking number
// and the order turns shipped in the same transaction.
func (s *service) Ship(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.Status.CanTransitionTo(enums.DeliveryStatusInTransit) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("delivery in status %q cannot ship", delivery.Status))
	}

	tracking := newTrackingNumber()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":          enums.DeliveryStatusInTransit,
			"tracking_number": tracking,
		}
		if err := s.repo.WithTx(tx).Update(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery")
		}
		return s.orders.MarkShipped(ctx, tx, delivery.OrderID)
	})
	if err != nil {
		return nil, err
	}
	delivery.Status = enums.DeliveryStatusInTransit
	delivery.TrackingNumber = &tracking
	return delivery, nil
}

// MarkDelivered closes the shipment and the order together.
func (s *service) MarkDelivered(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.load(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.Status.CanTransitionTo(enums.DeliveryStatusDelivered) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("delivery in status %q cannot be delivered", delivery.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{"status": enums.DeliveryStatusDelivered}
		if err := s.repo.WithTx(tx).Update(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery")
		}
		return s.orders.MarkDelivered(ctx, tx, delivery.OrderID)
	})
	if err != nil {
		return nil, err
	}
	delivery.Status = enums.DeliveryStatusDelivered
	return delivery, nil
}

// Track returns the shipment for one of the caller's orders.
func (s *service) Track(ctx context.Context, userID, orderID uuid.UUID) (*models.Delivery, error) {
	if _, err := s.orders.Get(ctx, userID, orderID); err != nil {
		return nil, err
	}
	delivery, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no delivery for this order yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return delivery, nil
}

func (s *service) load(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	if deliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return delivery, nil
}

// newTrackingNumber mimics carrier references: TRK- plus 12 hex chars.
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRK-" + strings.ToUpper(raw[:12])
}
