package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

type checkCoursesResponse struct {
	Success bool `json:"success"`
	*domain.RunSummary
}

type noCoursesResponse struct {
	Message   string    `json:"message"`
	RunID     string    `json:"runId"`
	Degraded  []string  `json:"degraded,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) CheckCourses(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.Run(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			h.errorResponse(w, r, http.StatusConflict, "Une vérification est déjà en cours")
		default:
			h.internalServerError(w, r, err, "Erreur lors de la vérification des cours")
		}
		return
	}

	if summary.TotalCourses == 0 {
		h.writeJSON(w, r, http.StatusOK, noCoursesResponse{
			Message:   "Aucun cours trouvé",
			RunID:     summary.RunID,
			Degraded:  summary.Degraded,
			Timestamp: summary.Timestamp,
		})
		return
	}

	h.writeJSON(w, r, http.StatusOK, checkCoursesResponse{Success: true, RunSummary: summary})
}
