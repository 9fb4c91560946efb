package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/repository"
	"github.com/rdesitter/gym-tracker/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	summary *domain.RunSummary
	err     error
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context) (*domain.RunSummary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeSender struct {
	err  error
	sent []domain.MailMessage
}

func (f *fakeSender) Send(ctx context.Context, msg domain.MailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSource struct {
	courses []domain.Course
	err     error
}

func (f *fakeSource) Fetch(ctx context.Context) (source.Result, error) {
	return source.Result{Courses: f.courses, Origin: source.OriginPrimary}, f.err
}

type testServer struct {
	handler *Handler
	runner  *fakeRunner
	sender  *fakeSender
	source  *fakeSource
	repo    *repository.Repository
}

func newTestServer(t *testing.T, secret string, kv repository.KV) *testServer {
	t.Helper()
	cfg := &config.Config{CronSecret: secret}
	ts := &testServer{
		runner: &fakeRunner{},
		sender: &fakeSender{},
		source: &fakeSource{},
		repo:   repository.NewRepository(kv, 0),
	}

	h, err := NewHandler(cfg, ts.runner, ts.repo, ts.source, ts.sender)
	require.NoError(t, err)
	h.RegisterRoutes()
	ts.handler = h
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body any, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	ts.handler.Mux.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func validConfig(email string) map[string]any {
	return map[string]any{
		"email":             email,
		"notifyOnNewCourse": true,
		"availability": []map[string]any{
			{"day": 1, "slots": []map[string]string{{"start": "09:00", "end": "12:00"}}},
		},
	}
}

func TestCheckCoursesAuth(t *testing.T) {
	ts := newTestServer(t, "s3cret", repository.NewMemoryKV())
	ts.runner.summary = &domain.RunSummary{RunID: "r1", TotalCourses: 3}

	rec, body := ts.do(t, http.MethodGet, "/api/check-courses", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Non autorisé", body["error"])

	rec, _ = ts.do(t, http.MethodGet, "/api/check-courses", nil, bearer("wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, ts.runner.calls)

	rec, body = ts.do(t, http.MethodGet, "/api/check-courses", nil, bearer("s3cret"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["totalCourses"])
	assert.Equal(t, "r1", body["runId"])
	assert.Equal(t, 1, ts.runner.calls)
}

func TestCheckCoursesOpenWithoutSecret(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())
	ts.runner.summary = &domain.RunSummary{RunID: "r1", TotalCourses: 0, Timestamp: time.Now()}

	rec, body := ts.do(t, http.MethodGet, "/api/check-courses", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Aucun cours trouvé", body["message"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotContains(t, body, "success")
}

func TestCheckCoursesErrors(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())

	ts.runner.err = domain.ErrRunInProgress
	rec, _ := ts.do(t, http.MethodGet, "/api/check-courses", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	ts.runner.err = errors.New("boom")
	rec, body := ts.do(t, http.MethodGet, "/api/check-courses", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erreur lors de la vérification des cours", body["error"])
}

func TestUserConfigLifecycle(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())

	rec, body := ts.do(t, http.MethodGet, "/api/config?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["config"])

	rec, body = ts.do(t, http.MethodPost, "/api/config", validConfig("alice@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, true, body["success"])

	rec, body = ts.do(t, http.MethodGet, "/api/config?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	cfg, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", cfg["email"])
	assert.Equal(t, true, cfg["notifyOnNewCourse"])

	rec, body = ts.do(t, http.MethodDelete, "/api/config?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	_, body = ts.do(t, http.MethodGet, "/api/config?email=alice@example.com", nil, nil)
	assert.Nil(t, body["config"])
}

func TestUserConfigRequiresEmail(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())

	for _, tc := range []struct {
		method string
		target string
		body   any
	}{
		{http.MethodGet, "/api/config", nil},
		{http.MethodDelete, "/api/config", nil},
		{http.MethodPost, "/api/config", map[string]any{"notifyOnNewCourse": true}},
	} {
		rec, body := ts.do(t, tc.method, tc.target, tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.method)
		assert.Equal(t, "Email requis", body["error"], tc.method)
	}
}

func TestSaveUserConfigValidation(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())

	badTime := validConfig("alice@example.com")
	badTime["availability"] = []map[string]any{{"day": 1, "slots": []map[string]string{{"start": "9h", "end": "12:00"}}}}

	badDay := validConfig("alice@example.com")
	badDay["availability"] = []map[string]any{{"day": 7, "slots": []map[string]string{}}}

	dupDay := validConfig("alice@example.com")
	dupDay["availability"] = []map[string]any{{"day": 1}, {"day": 1}}

	inverted := validConfig("alice@example.com")
	inverted["availability"] = []map[string]any{{"day": 1, "slots": []map[string]string{{"start": "12:00", "end": "09:00"}}}}

	tests := map[string]any{
		"malformed json": "{",
		"bad email":      validConfig("not-an-email"),
		"bad time":       badTime,
		"bad day":        badDay,
		"duplicate day":  dupDay,
		"inverted slot":  inverted,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			rec, body := ts.do(t, http.MethodPost, "/api/config", payload, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}

	_, err := ts.repo.UserConfigs(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound, "nothing may be stored after rejected requests")
}

func TestUserConfigWithoutStore(t *testing.T) {
	ts := newTestServer(t, "", nil)

	rec, body := ts.do(t, http.MethodGet, "/api/config?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body["config"])

	rec, body = ts.do(t, http.MethodPost, "/api/config", validConfig("alice@example.com"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["error"], "Stockage non configuré")

	rec, body = ts.do(t, http.MethodDelete, "/api/config?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erreur suppression", body["error"])
}

func TestNotify(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())

	rec, body := ts.do(t, http.MethodPost, "/api/notify", map[string]string{
		"email": "alice@example.com", "subject": "Salut", "message": "ligne 1\nligne 2",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, true, body["success"])

	require.Len(t, ts.sender.sent, 1)
	assert.Equal(t, domain.MailMessage{
		Type: domain.MailTypeCustom,
		To:   "alice@example.com",
		Data: domain.CustomMailData{Subject: "Salut", Message: "ligne 1\nligne 2"},
	}, ts.sender.sent[0])
}

func TestNotifyErrors(t *testing.T) {
	ts := newTestServer(t, "s3cret", repository.NewMemoryKV())
	payload := map[string]string{"email": "alice@example.com", "subject": "s", "message": "m"}

	rec, _ := ts.do(t, http.MethodPost, "/api/notify", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/notify", map[string]string{"email": "alice@example.com"}, bearer("s3cret"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.sender.err = domain.ErrMailUnconfigured
	rec, body := ts.do(t, http.MethodPost, "/api/notify", payload, bearer("s3cret"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Configuration SMTP manquante sur le serveur", body["error"])

	ts.sender.err = domain.ErrDeliveryFailed
	rec, body = ts.do(t, http.MethodPost, "/api/notify", payload, bearer("s3cret"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erreur lors de l'envoi de l'email", body["error"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "", nil)
	rec, body := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["store"])
}

func TestRecovererTurnsPanicsInto500(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())
	ts.handler.Mux.Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	rec, body := ts.do(t, http.MethodGet, "/panic", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erreur interne du serveur", body["error"])
}

func TestCalendar(t *testing.T) {
	ts := newTestServer(t, "", repository.NewMemoryKV())
	ts.source.courses = []domain.Course{
		{ID: "course-1", Name: "Yoga", Date: "2024-01-08", StartTime: "10:00", EndTime: "11:00"},
		{ID: "course-2", Name: "Boxe", Date: "2024-01-08", StartTime: "18:00", EndTime: "19:00"},
	}

	rec, body := ts.do(t, http.MethodGet, "/api/calendar?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Abonné introuvable", body["error"])

	ts.do(t, http.MethodPost, "/api/config", validConfig("alice@example.com"), nil)

	rec, _ = ts.do(t, http.MethodGet, "/api/calendar?email=alice@example.com", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "SUMMARY:Yoga")
	assert.NotContains(t, rec.Body.String(), "SUMMARY:Boxe")

	ts.source.err = domain.ErrSourceUnavailable
	rec, _ = ts.do(t, http.MethodGet, "/api/calendar?email=alice@example.com", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
