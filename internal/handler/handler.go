package handler

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/notifier"
	"github.com/rdesitter/gym-tracker/internal/source"
	"github.com/rdesitter/gym-tracker/internal/utils"
)

// Runner triggers one tracking pass.
type Runner interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

type CourseSource interface {
	Fetch(ctx context.Context) (source.Result, error)
}

// ConfigStore holds subscriber configurations.
type ConfigStore interface {
	Available() bool
	UserConfig(ctx context.Context, email string) (*domain.UserConfig, error)
	UpsertUserConfig(ctx context.Context, cfg *domain.UserConfig) error
	DeleteUserConfig(ctx context.Context, email string) error
}

type Handler struct {
	validate   *validator.Validate
	translator ut.Translator
	config     *config.Config
	tracker    Runner
	store      ConfigStore
	courses    CourseSource
	sender     notifier.Sender
	location   *time.Location

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, tracker Runner, store ConfigStore, courses CourseSource, sender notifier.Sender) (*Handler, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if cfg.Source.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Source.Timezone); err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
	}

	return &Handler{
		validate:   validate,
		translator: trans,
		config:     cfg,
		tracker:    tracker,
		store:      store,
		courses:    courses,
		sender:     sender,
		location:   loc,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Health)

	h.Mux.Route("/api", func(r chi.Router) {
		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.GetUserConfig)
			r.Post("/", h.SaveUserConfig)
			r.Delete("/", h.DeleteUserConfig)
		})
		r.Get("/calendar", h.GetCalendar)

		// endpoints that act on behalf of the service
		r.Group(func(r chi.Router) {
			r.Use(h.cronAuth)
			r.Get("/check-courses", h.CheckCourses)
			r.Post("/notify", h.Notify)
		})
	})
}

// newValidator reports errors in French with JSON field names.
func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("clock", utils.ValidateClock); err != nil {
		return nil, nil, err
	}

	locale := fr.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}

	custom := map[string]string{
		"clock":  "{0} doit être une heure au format HH:MM",
		"unique": "{0} ne doit pas contenir deux fois le même jour",
	}
	for tag, text := range custom {
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, text, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			},
		)
		if err != nil {
			return nil, nil, err
		}
	}

	return validate, trans, nil
}
