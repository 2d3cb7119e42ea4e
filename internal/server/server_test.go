package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/config"
	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/reconcile"
	"github.com/runnerr0/guestbook/internal/storage"
	"github.com/runnerr0/guestbook/internal/visit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv   *Server
	svc   *guestbook.Service
	store storage.Store
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.GinMode = "test"
	cfg.Admin.TokenSecret = "test-secret"
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.Admin.PasswordHash = string(hash)

	store, err := storage.NewCSVStore(filepath.Join(t.TempDir(), "visits.csv"), cfg.VisitSchema())
	require.NoError(t, err)
	svc, err := guestbook.NewFromConfig(cfg, store)
	require.NoError(t, err)
	authn, err := auth.New(cfg.Admin)
	require.NoError(t, err)

	return &testEnv{srv: New(svc, authn, cfg), svc: svc, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/admin/login", obj{"username": "admin", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type obj = map[string]any

func (e *testEnv) submit(t *testing.T, gender, age, purpose string) visit.Event {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/visits", obj{"gender": gender, "age_bracket": age, "purpose": purpose}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ev visit.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	ts, err := visit.ParseTimestamp(ev.RawTimestamp)
	require.NoError(t, err)
	ev.Timestamp = ts
	return ev
}

func TestHealthAndRequestID(t *testing.T) {
	env := setupTestServer(t)
	w := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSchemaEndpoint(t *testing.T) {
	env := setupTestServer(t)
	w := env.do(t, http.MethodGet, "/api/schema", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var schema visit.Schema
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Equal(t, []string{"남성", "여성"}, schema.Genders)
	assert.Len(t, schema.AgeBrackets, 6)
}

func TestSubmitVisit(t *testing.T) {
	env := setupTestServer(t)
	ev := env.submit(t, "여성", "초등", "놀이")
	assert.NotEmpty(t, ev.ID)

	rows, err := env.store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ev.ID, rows[0].ID)
}

func TestSubmitVisitPartialIsRejected(t *testing.T) {
	env := setupTestServer(t)
	w := env.do(t, http.MethodPost, "/api/visits", obj{"gender": "여성"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "age_bracket")

	w = env.do(t, http.MethodPost, "/api/visits", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rows, err := env.store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAdminRequiresToken(t *testing.T) {
	env := setupTestServer(t)
	for _, path := range []string{"/api/admin/visits", "/api/admin/stats", "/api/admin/export"} {
		w := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = env.do(t, http.MethodGet, path, nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLoginFailures(t *testing.T) {
	env := setupTestServer(t)
	w := env.do(t, http.MethodPost, "/api/admin/login", obj{"username": "admin", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/admin/login", obj{"username": "admin"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	env := setupTestServer(t)
	w := env.do(t, http.MethodPost, "/api/admin/login", obj{"username": "admin", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "guestbook_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/visits", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	w := env.do(t, http.MethodPost, "/api/admin/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/visits", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListVisitsWithFilter(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	env.submit(t, "남성", "초등", "놀이")
	her := env.submit(t, "여성", "고등", "휴식")

	w := env.do(t, http.MethodGet, "/api/admin/visits?gender="+url.QueryEscape("여성"), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp visitsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, her.ID, resp.Rows[0].ID)
	assert.NotEmpty(t, resp.Filter.Start)
	assert.Equal(t, resp.Filter.Start, resp.Filter.End)

	w = env.do(t, http.MethodGet, "/api/admin/visits?gender=", nil, token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)

	w = env.do(t, http.MethodGet, "/api/admin/visits?start=2026-13-01", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/visits?start=2026-02-01&end=2026-01-01", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveVisits(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	a := env.submit(t, "남성", "초등", "놀이")
	env.submit(t, "여성", "고등", "휴식")

	edited := reconcile.RowFor(a)
	edited.Purpose = "식사"
	edited.Hour = "25"

	w := env.do(t, http.MethodPut, "/api/admin/visits", saveRequest{Rows: []reconcile.EditedRow{edited}}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res reconcile.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "hour", res.Issues[0].Field)

	rows, err := env.store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "식사", rows[0].Purpose)
	assert.Equal(t, a.Timestamp.Hour(), rows[0].Timestamp.Hour())
}

func TestSaveVisitsConflict(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	a := env.submit(t, "남성", "초등", "놀이")

	none := []string{}
	body := saveRequest{
		Filter: filterBody{Genders: &none},
		Rows:   []reconcile.EditedRow{reconcile.RowFor(a)},
	}
	w := env.do(t, http.MethodPut, "/api/admin/visits", body, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	env.submit(t, "남성", "초등", "놀이")
	env.submit(t, "여성", "초등", "놀이")

	w := env.do(t, http.MethodGet, "/api/admin/stats?age_bracket="+url.QueryEscape("초등"), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Report struct {
			Summary struct {
				Total      int    `json:"total"`
				TopPurpose string `json:"top_purpose"`
			} `json:"summary"`
			AgeBrackets []struct {
				Value string `json:"value"`
				Count int    `json:"count"`
			} `json:"age_brackets"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.Summary.Total)
	assert.Equal(t, "놀이", resp.Report.Summary.TopPurpose)
	assert.Len(t, resp.Report.AgeBrackets, 6)
}

func TestExportEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	env.submit(t, "남성", "초등", "놀이")

	for _, path := range []string{"/api/admin/export", "/api/admin/export?all=true"} {
		w := env.do(t, http.MethodGet, path, nil, token)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		// xlsx files are zip archives.
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	}
}

func TestCORS(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.GinMode = "test"
	cfg.Server.AllowOrigin = "http://kiosk.local"
	store, err := storage.NewCSVStore(filepath.Join(t.TempDir(), "visits.csv"), cfg.VisitSchema())
	require.NoError(t, err)
	svc, err := guestbook.NewFromConfig(cfg, store)
	require.NoError(t, err)
	authn, err := auth.New(cfg.Admin)
	require.NoError(t, err)
	srv := New(svc, authn, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/visits", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://kiosk.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	env := setupTestServer(t)
	env.srv.cfg.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
