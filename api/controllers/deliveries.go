package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pvalette/boutique-backend/api/responses"
	"github.com/pvalette/boutique-backend/api/validators"
	deliverysvc "github.com/pvalette/boutique-backend/internal/deliveries"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	pkgerrors "github.com/pvalette/boutique-backend/pkg/errors"
	"github.com/pvalette/boutique-backend/pkg/logger"
)

type prepareDeliveryRequest struct {
	Carrier string `json:"carrier" validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=500"`
}

type deliveryResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	Carrier        string    `json:"carrier"`
	TrackingNumber *string   `json:"tracking_number,omitempty"`
	Address        string    `json:"address"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newDeliveryResponse(d *models.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:             d.ID,
		OrderID:        d.OrderID,
		Carrier:        d.Carrier,
		TrackingNumber: d.TrackingNumber,
		Address:        d.Address,
		Status:         string(d.Status),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DeliveryPrepare opens a shipment for a paid order.
func DeliveryPrepare(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
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

		var body prepareDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.Prepare(r.Context(), deliverysvc.PrepareInput{
			UserID:  userID,
			OrderID: orderID,
			Carrier: body.Carrier,
			Address: body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newDeliveryResponse(delivery))
	}
}

// DeliveryShip hands the shipment to the carrier and assigns a tracking number.
func DeliveryShip(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
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

		delivery, err := svc.Track(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipped, err := svc.Ship(r.Context(), delivery.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDeliveryResponse(shipped))
	}
}

// DeliveryMarkDelivered closes out a shipment in transit.
func DeliveryMarkDelivered(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
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

		delivery, err := svc.Track(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivered, err := svc.MarkDelivered(r.Context(), delivery.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDeliveryResponse(delivered))
	}
}

// DeliveryTrack returns the shipment for one of the caller's orders.
func DeliveryTrack(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
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

		delivery, err := svc.Track(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDeliveryResponse(delivery))
	}
}
