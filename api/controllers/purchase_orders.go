package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jasirilabs/lats-backend/api/middleware"
	"github.com/jasirilabs/lats-backend/api/responses"
	"github.com/jasirilabs/lats-backend/api/validators"
	"github.com/jasirilabs/lats-backend/internal/purchase"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

type createDraftRequest struct {
	SupplierID       *uuid.UUID       `json:"supplierId,omitempty"`
	Currency         string           `json:"currency" validate:"required"`
	ExchangeRate     *decimal.Decimal `json:"exchangeRate,omitempty"`
	ExpectedDelivery *time.Time       `json:"expectedDelivery,omitempty"`
	PaymentTerms     *string          `json:"paymentTerms,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

type updateDraftRequest struct {
	SupplierID       *uuid.UUID       `json:"supplierId,omitempty"`
	Currency         *string          `json:"currency,omitempty"`
	ExchangeRate     *decimal.Decimal `json:"exchangeRate,omitempty"`
	ExpectedDelivery *time.Time       `json:"expectedDelivery,omitempty"`
	Discount         *decimal.Decimal `json:"discount,omitempty"`
	PaymentTerms     *string          `json:"paymentTerms,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

type applyActionsRequest struct {
	Actions []purchase.ActionInput `json:"actions" validate:"required,min=1,dive"`
	Confirm bool                   `json:"confirm"`
}

type receiveOrderRequest struct {
	Lines []purchase.ReceiveLine `json:"lines" validate:"required,min=1,dive"`
}

type cancelOrderRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func CreatePurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency"))
			return
		}

		rate := decimal.NewFromInt(1)
		if payload.ExchangeRate != nil {
			rate = *payload.ExchangeRate
		}
		order, err := svc.CreateDraft(r.Context(), purchase.DraftInput{
			SupplierID:       payload.SupplierID,
			Currency:         currency,
			ExchangeRate:     rate,
			ExpectedDelivery: payload.ExpectedDelivery,
			PaymentTerms:     payload.PaymentTerms,
			Notes:            payload.Notes,
			ActorUserID:      middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func UpdatePurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var currency *enums.Currency
		if payload.Currency != nil {
			parsed, err := enums.ParseCurrency(*payload.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency"))
				return
			}
			currency = &parsed
		}

		order, err := svc.UpdateDraft(r.Context(), purchase.DraftUpdateInput{
			OrderID:          orderID,
			SupplierID:       payload.SupplierID,
			Currency:         currency,
			ExchangeRate:     payload.ExchangeRate,
			ExpectedDelivery: payload.ExpectedDelivery,
			Discount:         payload.Discount,
			PaymentTerms:     payload.PaymentTerms,
			Notes:            payload.Notes,
			ActorUserID:      middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func GetPurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListPurchaseOrders(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters purchase.OrderFilters
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParsePurchaseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.SupplierID = supplierID

		list, err := svc.ListOrders(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ApplyPurchaseOrderActions runs cart mutations against a draft. A clear
// action wipes every line, so the payload must carry confirm=true for it.
func ApplyPurchaseOrderActions(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload applyActionsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, action := range payload.Actions {
			if action.Type == purchase.ActionClear && !payload.Confirm {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "clearing the cart requires confirm"))
				return
			}
		}

		order, err := svc.ApplyActions(r.Context(), purchase.ApplyActionsInput{
			OrderID:     orderID,
			Actions:     payload.Actions,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func SubmitPurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Submit(r.Context(), purchase.SubmitInput{
			OrderID:     orderID,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ConfirmPurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Confirm(r.Context(), purchase.ConfirmInput{
			OrderID:     orderID,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "confirmed"})
	}
}

func ReceivePurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload receiveOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Receive(r.Context(), purchase.ReceiveInput{
			OrderID:     orderID,
			Lines:       payload.Lines,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   string(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func CancelPurchaseOrder(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cancelOrderRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), purchase.CancelInput{
			OrderID:     orderID,
			Reason:      payload.Reason,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   string(middleware.RoleFromContext(r.Context())),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
