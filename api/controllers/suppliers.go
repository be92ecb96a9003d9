package controllers

import (
	"net/http"
	"strings"

	"github.com/jasirilabs/lats-backend/api/responses"
	"github.com/jasirilabs/lats-backend/api/validators"
	suppliersvc "github.com/jasirilabs/lats-backend/internal/suppliers"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

type createSupplierRequest struct {
	Name           string  `json:"name" validate:"required"`
	ContactPerson  *string `json:"contactPerson,omitempty"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string `json:"phone,omitempty"`
	WhatsAppNumber *string `json:"whatsappNumber,omitempty"`
	Country        *string `json:"country,omitempty"`
	Currency       string  `json:"currency" validate:"required"`
	PaymentTerms   *string `json:"paymentTerms,omitempty"`
	LeadTimeDays   int     `json:"leadTimeDays"`
	Notes          *string `json:"notes,omitempty"`
}

type updateSupplierRequest struct {
	Name           *string `json:"name,omitempty"`
	ContactPerson  *string `json:"contactPerson,omitempty"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string `json:"phone,omitempty"`
	WhatsAppNumber *string `json:"whatsappNumber,omitempty"`
	Country        *string `json:"country,omitempty"`
	Currency       *string `json:"currency,omitempty"`
	PaymentTerms   *string `json:"paymentTerms,omitempty"`
	LeadTimeDays   *int    `json:"leadTimeDays,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

func CreateSupplier(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSupplierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency").
					WithDetails(map[string]string{"currency": payload.Currency}))
			return
		}

		supplier, err := svc.Create(r.Context(), suppliersvc.CreateSupplierInput{
			Name:           payload.Name,
			ContactPerson:  payload.ContactPerson,
			Email:          payload.Email,
			Phone:          payload.Phone,
			WhatsAppNumber: payload.WhatsAppNumber,
			Country:        payload.Country,
			Currency:       currency,
			PaymentTerms:   payload.PaymentTerms,
			LeadTimeDays:   payload.LeadTimeDays,
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

func GetSupplier(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "supplierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func ListSuppliers(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), params,
			strings.TrimSpace(r.URL.Query().Get("search")),
			r.URL.Query().Get("active") == "true")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UpdateSupplier(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "supplierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSupplierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var currency *enums.Currency
		if payload.Currency != nil {
			parsed, err := enums.ParseCurrency(*payload.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency").
						WithDetails(map[string]string{"currency": *payload.Currency}))
				return
			}
			currency = &parsed
		}

		supplier, err := svc.Update(r.Context(), id, suppliersvc.UpdateSupplierInput{
			Name:           payload.Name,
			ContactPerson:  payload.ContactPerson,
			Email:          payload.Email,
			Phone:          payload.Phone,
			WhatsAppNumber: payload.WhatsAppNumber,
			Country:        payload.Country,
			Currency:       currency,
			PaymentTerms:   payload.PaymentTerms,
			LeadTimeDays:   payload.LeadTimeDays,
			Notes:          payload.Notes,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// DeleteSupplier removes a supplier outright when it has no purchase
// history and deactivates it otherwise.
func DeleteSupplier(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "supplierID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleted, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := "deleted"
		if !deleted {
			status = "deactivated"
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}
