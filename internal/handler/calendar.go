package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rdesitter/gym-tracker/internal/courses"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// GetCalendar serves the upcoming courses that fit a subscriber's availability as an iCalendar
// feed, whether or not the subscriber opted into notifications.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "Email requis")
		return
	}

	cfg, err := h.store.UserConfig(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, http.StatusNotFound, "Abonné introuvable")
		default:
			h.logInternalServerError(r, err)
			h.errorResponse(w, r, http.StatusServiceUnavailable, "Stockage indisponible")
		}
		return
	}

	result, err := h.courses.Fetch(r.Context())
	if err != nil {
		h.logInternalServerError(r, err)
		h.errorResponse(w, r, http.StatusBadGateway, "Horaire du gym indisponible")
		return
	}

	matched := courses.FilterMatchingCourses(result.Courses, cfg)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="gym-tracker.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(courses.Calendar(matched, h.location, time.Now()))); err != nil {
		h.logInternalServerError(r, err)
	}
}
