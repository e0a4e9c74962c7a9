package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pvalette/boutique-backend/api/responses"
	billingsvc "github.com/pvalette/boutique-backend/internal/billing"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
	"github.com/pvalette/boutique-backend/pkg/logger"
)

type invoiceLineResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
	LineTotalCents int       `json:"line_total_cents"`
}

type invoiceResponse struct {
	ID         uuid.UUID             `json:"id"`
	OrderID    uuid.UUID             `json:"order_id"`
	Lines      []invoiceLineResponse `json:"lines"`
	TotalCents int                   `json:"total_cents"`
	IssuedAt   time.Time             `json:"issued_at"`
}

func newInvoiceResponse(invoice *models.Invoice) invoiceResponse {
	lines := make([]invoiceLineResponse, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		lines = append(lines, invoiceLineResponse{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return invoiceResponse{
		ID:         invoice.ID,
		OrderID:    invoice.OrderID,
		Lines:      lines,
		TotalCents: invoice.TotalCents,
		IssuedAt:   invoice.IssuedAt,
	}
}

func InvoiceList(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoices, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]invoiceResponse, 0, len(invoices))
		for i := range invoices {
			out = append(out, newInvoiceResponse(&invoices[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func InvoiceDetail(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), userID, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// OrderInvoice resolves the invoice attached to one order.
func OrderInvoice(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
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

		invoice, err := svc.GetByOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}
