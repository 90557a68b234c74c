package products

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/models"
)

type ProductMutator interface {
	Create(ctx context.Context, p Payload) (string, error)
	Update(ctx context.Context, p Payload) (string, error)
	Delete(ctx context.Context, id uint) (string, error)
}

type ProductHandler struct {
	service ProductMutator
}

func NewProductHandler(s ProductMutator) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	message, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	api.MessageResponse(w, http.StatusCreated, message)
}

func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := DecodePayload(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	if payload.ID != nil && *payload.ID != id {
		writeError(w, &models.ValidationError{Field: "id", Message: "Id does not match the product being edited"})
		return
	}
	payload.ID = &id

	message, err := h.service.Update(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	api.MessageResponse(w, http.StatusOK, message)
}

func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	message, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.MessageResponse(w, http.StatusOK, message)
}

// PathID reads the {id} path segment.
func PathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, &models.ValidationError{Field: "id", Message: "Id must be a number"}
	}
	return uint(id), nil
}

// writeError only echoes messages that were written for the caller.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var failure *Failure
	switch {
	case errors.As(err, &validationErr):
		api.ErrorResponse(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &failure):
		api.ErrorResponse(w, api.StatusFor(err), failure.Message)
	default:
		api.ErrorResponse(w, api.StatusFor(err), "Something went wrong")
	}
}
