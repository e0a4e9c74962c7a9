package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvalette/boutique-backend/internal/payments"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	"github.com/pvalette/boutique-backend/pkg/enums"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
	"github.com/pvalette/boutique-backend/pkg/logger"
)

// Service is the order lifecycle engine. Every status change flows through
// here and through the closed transition table; nothing else mutates orders.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	PayByCard(ctx context.Context, input PayByCardInput) (*PaymentOutcome, error)
	RequestCancellation(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Refund(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Payments(ctx context.Context, userID, orderID uuid.UUID) ([]models.Payment, error)

	// Transitions driven by the delivery workflow. Callers supply the
	// transaction so a shipment and its order move together.
	AttachDelivery(ctx context.Context, tx *gorm.DB, orderID, deliveryID uuid.UUID) error
	MarkShipped(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type service struct {
	repo          Repository
	tx            txRunner
	stock         stockLedger
	carts         cartGateway
	billing       invoiceIssuer
	payRepo       paymentRecorder
	gateway       payments.Gateway
	provider      string
	chargeTimeout time.Duration
	logg          *logger.Logger
	now           func() time.Time
}

// PayByCardInput carries a charge attempt for an order. Card fields arrive
// already format-validated at the API boundary.
type PayByCardInput struct {
	UserID     uuid.UUID
	OrderID    uuid.UUID
	CardNumber string
	CardHolder string
	ExpMonth   int
	ExpYear    int
	CVC        string
}

// PaymentOutcome bundles everything a confirmed payment produced.
type PaymentOutcome struct {
	Order   *models.Order
	Payment *models.Payment
	Invoice *models.Invoice
}

// DeclineDetails explains a declined charge to the caller.
type DeclineDetails struct {
	Reason string `json:"reason"`
}

// NewService builds the lifecycle engine with its collaborators.
func NewService(
	repo Repository,
	tx txRunner,
	stock stockLedger,
	carts cartGateway,
	billing invoiceIssuer,
	payRepo paymentRecorder,
	gateway payments.Gateway,
	provider string,
	chargeTimeout time.Duration,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if billing == nil {
		return nil, fmt.Errorf("invoice issuer required")
	}
	if payRepo == nil {
		return nil, fmt.Errorf("payment recorder required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if provider == "" {
		provider = "mock-cb"
	}
	if chargeTimeout <= 0 {
		chargeTimeout = 5 * time.Second
	}
	return &service{
		repo:          repo,
		tx:            tx,
		stock:         stock,
		carts:         carts,
		billing:       billing,
		payRepo:       payRepo,
		gateway:       gateway,
		provider:      provider,
		chargeTimeout: chargeTimeout,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// Checkout snapshots the cart into a new order. The cart survives untouched
// and no stock moves: both happen only once a payment settles.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	items, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Read-only availability pass. Unlike the cart's lenient view, a vanished
	// or inactive product fails checkout outright; nothing is reserved yet.
	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.OrderStatusCreated,
	}
	for _, item := range items {
		product, err := s.stock.Get(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeProductInactive,
				fmt.Sprintf("product %q is no longer sold", product.Name))
		}
		if product.StockQty < item.Qty {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("not enough stock for %q", product.Name))
		}
		order.Lines = append(order.Lines, models.OrderLine{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Qty:            item.Qty,
		})
	}

	if _, err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

// PayByCard runs the mock authorization and, on approval, settles the order:
// stock is reserved, the payment and invoice are recorded, the order turns
// paid and the cart is cleared, all in one transaction. Every attempt leaves
// a payment row behind.
func (s *service) PayByCard(ctx context.Context, input PayByCardInput) (*PaymentOutcome, error) {
	order, err := s.Get(ctx, input.UserID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Payable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot be paid", order.Status))
	}

	// Stock may have moved since checkout; availability is authoritative at
	// payment time. Failing here costs nothing, the charge has not happened.
	for _, line := range order.Lines {
		product, err := s.stock.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeProductInactive,
				fmt.Sprintf("product %q is no longer sold", product.Name))
		}
		if product.StockQty < line.Qty {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("not enough stock for %q", product.Name))
		}
	}

	amount := order.TotalCents()
	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, payments.ChargeRequest{
		AmountCents:    amount,
		CardNumber:     input.CardNumber,
		CardHolder:     input.CardHolder,
		ExpMonth:       input.ExpMonth,
		ExpYear:        input.ExpYear,
		CVC:            input.CVC,
		IdempotencyKey: order.ID.String(),
	})
	if err != nil {
		s.recordAttempt(ctx, nil, order, amount, nil, false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "card authorizer")
	}
	if !result.Approved {
		s.recordAttempt(ctx, nil, order, amount, nil, false)
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment declined").
			WithDetails(DeclineDetails{Reason: result.DeclineReason})
	}

	outcome := &PaymentOutcome{Order: order}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range order.Lines {
			if err := s.stock.Reserve(ctx, tx, line.ProductID, line.Qty); err != nil {
				return err
			}
		}

		payment, err := s.payRepo.WithTx(tx).Create(ctx, &models.Payment{
			ID:          uuid.New(),
			OrderID:     order.ID,
			UserID:      order.UserID,
			AmountCents: amount,
			Provider:    s.provider,
			ProviderRef: &result.ProviderRef,
			Succeeded:   true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		outcome.Payment = payment

		invoice, err := s.billing.Issue(ctx, tx, order)
		if err != nil {
			return err
		}
		outcome.Invoice = invoice

		extra := map[string]any{
			"payment_id": payment.ID,
			"invoice_id": invoice.ID,
		}
		if err := s.transition(ctx, tx, order, enums.OrderStatusPaid, extra); err != nil {
			return err
		}
		order.PaymentID = &payment.ID
		order.InvoiceID = &invoice.ID

		return s.carts.Clear(ctx, tx, order.UserID)
	})
	if err != nil {
		// The charge went through but settlement failed. Hand the money back
		// and keep the attempt on record before surfacing the cause.
		if refundErr := s.gateway.Refund(ctx, result.ProviderRef, amount); refundErr != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":     order.ID.String(),
				"provider_ref": result.ProviderRef,
				"amount_cents": amount,
			})
			s.logg.Error(logCtx, "compensating refund failed, charge left settled", refundErr)
		}
		s.recordAttempt(ctx, nil, order, amount, &result.ProviderRef, false)
		return nil, err
	}
	return outcome, nil
}

// RequestCancellation cancels an order that has not shipped. A paid order
// gets its money back and its reserved stock returned; an unpaid one never
// touched stock, so there is nothing to release.
func (s *service) RequestCancellation(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusShipped || order.Status == enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped")
	}
	if !order.Status.Cancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot be cancelled", order.Status))
	}

	wasPaid := order.Status == enums.OrderStatusPaid
	if wasPaid {
		if err := s.refundSettled(ctx, order); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if wasPaid {
			if err := s.releaseLines(ctx, tx, order); err != nil {
				return err
			}
		}
		return s.transition(ctx, tx, order, enums.OrderStatusCancelled, nil)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Refund reverses a settled order after the cancellation window: money goes
// back through the authorizer and the goods return to stock.
func (s *service) Refund(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(enums.OrderStatusRefunded) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot be refunded", order.Status))
	}

	if err := s.refundSettled(ctx, order); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.releaseLines(ctx, tx, order); err != nil {
			return err
		}
		return s.transition(ctx, tx, order, enums.OrderStatusRefunded, nil)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) Payments(ctx context.Context, userID, orderID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.Get(ctx, userID, orderID); err != nil {
		return nil, err
	}
	rows, err := s.payRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func (s *service) AttachDelivery(ctx context.Context, tx *gorm.DB, orderID, deliveryID uuid.UUID) error {
	order, err := s.loadForTransition(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot enter delivery", order.Status))
	}
	if err := s.repo.WithTx(tx).Update(ctx, orderID, map[string]any{"delivery_id": deliveryID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach delivery")
	}
	return nil
}

func (s *service) MarkShipped(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	order, err := s.loadForTransition(ctx, tx, orderID)
	if err != nil {
		return err
	}
	return s.transition(ctx, tx, order, enums.OrderStatusShipped, nil)
}

func (s *service) MarkDelivered(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	order, err := s.loadForTransition(ctx, tx, orderID)
	if err != nil {
		return err
	}
	return s.transition(ctx, tx, order, enums.OrderStatusDelivered, nil)
}

func (s *service) loadForTransition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// transition moves order to target, stamping the matching timestamp column.
// Illegal moves are conflicts, never silent no-ops.
func (s *service) transition(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus, extra map[string]any) error {
	if !order.Status.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("illegal transition %s -> %s", order.Status, target))
	}

	now := s.now().UTC()
	updates := map[string]any{"status": target}
	if column := timestampColumn(target); column != "" {
		updates[column] = now
	}
	for key, value := range extra {
		updates[key] = value
	}

	if err := s.repo.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = target
	switch target {
	case enums.OrderStatusValidated:
		order.ValidatedAt = &now
	case enums.OrderStatusPaid:
		order.PaidAt = &now
	case enums.OrderStatusShipped:
		order.ShippedAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	case enums.OrderStatusRefunded:
		order.RefundedAt = &now
	}
	return nil
}

func timestampColumn(target enums.OrderStatus) string {
	switch target {
	case enums.OrderStatusValidated:
		return "validated_at"
	case enums.OrderStatusPaid:
		return "paid_at"
	case enums.OrderStatusShipped:
		return "shipped_at"
	case enums.OrderStatusDelivered:
		return "delivered_at"
	case enums.OrderStatusCancelled:
		return "cancelled_at"
	case enums.OrderStatusRefunded:
		return "refunded_at"
	}
	return ""
}

// refundSettled pushes the settled amount back through the authorizer.
func (s *service) refundSettled(ctx context.Context, order *models.Order) error {
	rows, err := s.payRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	var settled *models.Payment
	for i := range rows {
		if rows[i].Succeeded {
			settled = &rows[i]
		}
	}
	if settled == nil || settled.ProviderRef == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "no settled payment on record")
	}
	if err := s.gateway.Refund(ctx, *settled.ProviderRef, settled.AmountCents); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund charge")
	}
	return nil
}

func (s *service) releaseLines(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, line := range order.Lines {
		if err := s.stock.Release(ctx, tx, line.ProductID, line.Qty); err != nil {
			return err
		}
	}
	return nil
}

// recordAttempt appends a payment row outside the settlement transaction so
// declined attempts survive.
func (s *service) recordAttempt(ctx context.Context, tx *gorm.DB, order *models.Order, amount int, providerRef *string, succeeded bool) {
	_, err := s.payRepo.WithTx(tx).Create(ctx, &models.Payment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		AmountCents: amount,
		Provider:    s.provider,
		ProviderRef: providerRef,
		Succeeded:   succeeded,
	})
	if err != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(logCtx, "payment attempt not recorded", err)
	}
}
