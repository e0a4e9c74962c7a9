package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pvalette/boutique-backend/api/responses"
	"github.com/pvalette/boutique-backend/api/validators"
	ordersvc "github.com/pvalette/boutique-backend/internal/orders"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
	"github.com/pvalette/boutique-backend/pkg/logger"
)

type payOrderRequest struct {
	CardNumber string `json:"card_number" validate:"required,card_number"`
	CardHolder string `json:"card_holder" validate:"required,max=200"`
	ExpMonth   int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear    int    `json:"exp_year" validate:"required,min=2000,max=2100"`
	CVC        string `json:"cvc" validate:"required"`
}

type orderLineResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
	LineTotalCents int       `json:"line_total_cents"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	Status      string              `json:"status"`
	Lines       []orderLineResponse `json:"lines"`
	TotalCents  int                 `json:"total_cents"`
	DeliveryID  *uuid.UUID          `json:"delivery_id,omitempty"`
	InvoiceID   *uuid.UUID          `json:"invoice_id,omitempty"`
	PaymentID   *uuid.UUID          `json:"payment_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ValidatedAt *time.Time          `json:"validated_at,omitempty"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
	ShippedAt   *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time          `json:"refunded_at,omitempty"`
}

type paymentResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	AmountCents int       `json:"amount_cents"`
	Provider    string    `json:"provider"`
	ProviderRef *string   `json:"provider_ref,omitempty"`
	Succeeded   bool      `json:"succeeded"`
	CreatedAt   time.Time `json:"created_at"`
}

type paymentOutcomeResponse struct {
	Order   orderResponse    `json:"order"`
	Payment paymentResponse  `json:"payment"`
	Invoice *invoiceResponse `json:"invoice,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			LineTotalCents: line.UnitPriceCents * line.Qty,
		})
	}
	return orderResponse{
		ID:          order.ID,
		Status:      string(order.Status),
		Lines:       lines,
		TotalCents:  order.TotalCents(),
		DeliveryID:  order.DeliveryID,
		InvoiceID:   order.InvoiceID,
		PaymentID:   order.PaymentID,
		CreatedAt:   order.CreatedAt,
		ValidatedAt: order.ValidatedAt,
		PaidAt:      order.PaidAt,
		ShippedAt:   order.ShippedAt,
		DeliveredAt: order.DeliveredAt,
		CancelledAt: order.CancelledAt,
		RefundedAt:  order.RefundedAt,
	}
}

func newPaymentResponse(payment *models.Payment) paymentResponse {
	return paymentResponse{
		ID:          payment.ID,
		OrderID:     payment.OrderID,
		AmountCents: payment.AmountCents,
		Provider:    payment.Provider,
		ProviderRef: payment.ProviderRef,
		Succeeded:   payment.Succeeded,
		CreatedAt:   payment.CreatedAt,
	}
}

// Checkout snapshots the cart into a new order.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// PayOrder charges the snapshot total. Card format is fully checked here so
// the engine only ever sees well-formed numbers.
func PayOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body payOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ValidateCardExpiry(body.ExpMonth, body.ExpYear, time.Now()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ValidateCVC(body.CVC); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.PayByCard(r.Context(), ordersvc.PayByCardInput{
			UserID:     userID,
			OrderID:    orderID,
			CardNumber: body.CardNumber,
			CardHolder: body.CardHolder,
			ExpMonth:   body.ExpMonth,
			ExpYear:    body.ExpYear,
			CVC:        body.CVC,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := paymentOutcomeResponse{
			Order:   newOrderResponse(outcome.Order),
			Payment: newPaymentResponse(outcome.Payment),
		}
		if outcome.Invoice != nil {
			invoice := newInvoiceResponse(outcome.Invoice)
			result.Invoice = &invoice
		}
		responses.WriteSuccess(w, result)
	}
}

func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RequestCancellation(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func RefundOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Refund(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(orders))
		for i := range orders {
			out = append(out, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderPayments lists every charge attempt against an order, oldest first.
func OrderPayments(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.Payments(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]paymentResponse, 0, len(payments))
		for i := range payments {
			out = append(out, newPaymentResponse(&payments[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
