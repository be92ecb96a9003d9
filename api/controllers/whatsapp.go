package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jasirilabs/lats-backend/api/responses"
	"github.com/jasirilabs/lats-backend/api/validators"
	whatsappsvc "github.com/jasirilabs/lats-backend/internal/whatsapp"
	"github.com/jasirilabs/lats-backend/pkg/enums"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/logger"
	"github.com/jasirilabs/lats-backend/pkg/types"
)

type createInstanceRequest struct {
	Name        string        `json:"name" validate:"required"`
	PhoneNumber string        `json:"phoneNumber" validate:"required"`
	APIToken    string        `json:"apiToken" validate:"required"`
	BaseURL     string        `json:"baseUrl" validate:"required"`
	Settings    types.JSONMap `json:"settings,omitempty"`
}

type updateInstanceRequest struct {
	Name     *string       `json:"name,omitempty"`
	APIToken *string       `json:"apiToken,omitempty"`
	BaseURL  *string       `json:"baseUrl,omitempty"`
	Settings types.JSONMap `json:"settings,omitempty"`
}

type enqueueMessageRequest struct {
	InstanceID uuid.UUID `json:"instanceId" validate:"required"`
	Recipient  string    `json:"recipient" validate:"required"`
	Body       string    `json:"body" validate:"required"`
}

func CreateWhatsAppInstance(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createInstanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		instance, err := svc.CreateInstance(r.Context(), whatsappsvc.CreateInstanceInput{
			Name:        payload.Name,
			PhoneNumber: payload.PhoneNumber,
			APIToken:    payload.APIToken,
			BaseURL:     payload.BaseURL,
			Settings:    payload.Settings,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, instance)
	}
}

func UpdateWhatsAppInstance(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "instanceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateInstanceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		instance, err := svc.UpdateInstance(r.Context(), id, whatsappsvc.UpdateInstanceInput{
			Name:     payload.Name,
			APIToken: payload.APIToken,
			BaseURL:  payload.BaseURL,
			Settings: payload.Settings,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, instance)
	}
}

func GetWhatsAppInstance(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "instanceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		instance, err := svc.GetInstance(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, instance)
	}
}

func ListWhatsAppInstances(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListInstances(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func DeleteWhatsAppInstance(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "instanceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteInstance(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// RefreshWhatsAppInstanceStatus asks the gateway for the instance's live
// connection state and persists the result.
func RefreshWhatsAppInstanceStatus(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "instanceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		instance, err := svc.RefreshInstanceStatus(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, instance)
	}
}

func EnqueueWhatsAppMessage(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload enqueueMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message, err := svc.EnqueueMessage(r.Context(), whatsappsvc.EnqueueMessageInput{
			InstanceID: payload.InstanceID,
			Recipient:  payload.Recipient,
			Body:       payload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

func GetWhatsAppMessage(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "messageID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message, err := svc.GetMessage(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message)
	}
}

func ListWhatsAppMessages(svc whatsappsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters whatsappsvc.MessageFilters
		instanceID, err := validators.ParseQueryUUID(r, "instanceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if instanceID != nil {
			filters.InstanceID = *instanceID
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseMessageStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message status"))
				return
			}
			filters.Status = status
		}

		list, err := svc.ListMessages(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
