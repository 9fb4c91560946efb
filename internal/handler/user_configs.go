package handler

import (
	"errors"
	"net/http"

	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/utils"
)

type userConfigResponse struct {
	Config *domain.UserConfig `json:"config"`
}

// GetUserConfig answers {config: null} both for unknown emails and when the store is down.
func (h *Handler) GetUserConfig(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "Email requis")
		return
	}

	cfg, err := h.store.UserConfig(r.Context(), email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logInternalServerError(r, err)
		}
		h.writeJSON(w, r, http.StatusOK, userConfigResponse{Config: nil})
		return
	}

	h.writeJSON(w, r, http.StatusOK, userConfigResponse{Config: cfg})
}

func (h *Handler) SaveUserConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.UserConfig
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Email == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "Email requis")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateAvailabilitySlots(&req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.store.UpsertUserConfig(r.Context(), &req); err != nil {
		switch {
		case errors.Is(err, domain.ErrStoreUnavailable):
			// the client keeps its own copy, so this is reported but not fatal
			h.logInternalServerError(r, err)
			h.errorResponse(w, r, http.StatusOK, "Stockage non configuré. La config est sauvegardée localement uniquement.")
		default:
			h.internalServerError(w, r, err, "Erreur lors de la sauvegarde")
		}
		return
	}

	h.successResponse(w, r)
}

func (h *Handler) DeleteUserConfig(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "Email requis")
		return
	}

	if err := h.store.DeleteUserConfig(r.Context(), email); err != nil {
		h.internalServerError(w, r, err, "Erreur suppression")
		return
	}

	h.successResponse(w, r)
}
