package handler

import (
	"errors"
	"net/http"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email" validate:"required,email"`
		Subject string `json:"subject" validate:"required"`
		Message string `json:"message" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	err := h.sender.Send(r.Context(), domain.MailMessage{
		Type: domain.MailTypeCustom,
		To:   req.Email,
		Data: domain.CustomMailData{Subject: req.Subject, Message: req.Message},
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMailUnconfigured):
			h.internalServerError(w, r, err, "Configuration SMTP manquante sur le serveur")
		default:
			h.internalServerError(w, r, err, "Erreur lors de l'envoi de l'email")
		}
		return
	}

	h.successResponse(w, r)
}
