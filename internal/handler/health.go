package handler

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
	Store  bool   `json:"store"`
	SMTP   bool   `json:"smtp"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, healthResponse{
		Status: "ok",
		Store:  h.store.Available(),
		SMTP:   h.config.SMTPConfigured() || h.config.RabbitMQ.DSN != "",
	})
}
