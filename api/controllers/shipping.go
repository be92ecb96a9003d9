package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jasirilabs/lats-backend/api/middleware"
	"github.com/jasirilabs/lats-backend/api/responses"
	"github.com/jasirilabs/lats-backend/api/validators"
	shippingsvc "github.com/jasirilabs/lats-backend/internal/shipping"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

type createShipmentRequest struct {
	PurchaseOrderID uuid.UUID  `json:"purchaseOrderId" validate:"required"`
	Carrier         string     `json:"carrier" validate:"required"`
	TrackingNumber  *string    `json:"trackingNumber,omitempty"`
	ETA             *time.Time `json:"eta,omitempty"`
}

type updateShipmentStatusRequest struct {
	Status     string     `json:"status" validate:"required"`
	Location   *string    `json:"location,omitempty"`
	Note       *string    `json:"note,omitempty"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

func CreateShipment(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createShipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Create(r.Context(), shippingsvc.CreateShipmentInput{
			PurchaseOrderID: payload.PurchaseOrderID,
			Carrier:         payload.Carrier,
			TrackingNumber:  payload.TrackingNumber,
			ETA:             payload.ETA,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shipment)
	}
}

func GetShipment(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func ListOrderShipments(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipments, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipments)
	}
}

func UpdateShipmentStatus(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateShipmentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseShipmentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipment status"))
			return
		}

		shipment, err := svc.UpdateStatus(r.Context(), shippingsvc.UpdateStatusInput{
			ShipmentID:  id,
			Status:      status,
			Location:    payload.Location,
			Note:        payload.Note,
			OccurredAt:  payload.OccurredAt,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}
