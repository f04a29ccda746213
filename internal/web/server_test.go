package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/auth"
	"github.com/mmynk/compartilha/internal/middleware"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/storage"
	"github.com/mmynk/compartilha/internal/storage/sqlite"
)

const (
	jwtSecret     = "test-jwt-secret"
	sessionSecret = "0123456789abcdef0123"
)

// fakeProvider signs HS256 tokens for user-1 when the password is "secret".
type fakeProvider struct {
	mu       sync.Mutex
	signOuts int
}

func (p *fakeProvider) token() string {
	claims := auth.Claims{
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

func (p *fakeProvider) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	if password != "secret" {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.Session{AccessToken: p.token(), RefreshToken: "refresh-1"}, nil
}

func (p *fakeProvider) Refresh(_ context.Context, refreshToken string) (*auth.Session, error) {
	if refreshToken != "refresh-1" {
		return nil, auth.ErrSessionExpired
	}
	return &auth.Session{AccessToken: p.token(), RefreshToken: "refresh-1"}, nil
}

func (p *fakeProvider) SignOut(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	return nil
}

var _ auth.Provider = (*fakeProvider)(nil)

// newFakeAPI serves the few endpoints a create-then-resume flow needs.
func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	divisions := map[string]models.Division{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/criar-divisao", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		var req api.CreateDivisionRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		d := models.Division{ID: "divisao_1", Name: req.Name, Status: models.StatusOpen, FeePercent: 10}
		if d.Name == "" {
			d.Name = models.DefaultDivisionName
		}
		for i, name := range req.PeopleNames {
			d.People = append(d.People, models.Person{ID: "pessoa_" + strconv.Itoa(i+1), Name: name})
		}
		mu.Lock()
		divisions[d.ID] = d
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(d)
	})
	mux.HandleFunc("GET /api/divisao/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		d, ok := divisions[r.PathValue("id")]
		mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Divisão não encontrada"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(d)
	})
	mux.HandleFunc("GET /api/calcular-totais/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// memStore is a SessionStore on the test clock.
type memStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]models.WebSession
}

var _ storage.SessionStore = (*memStore)(nil)

func newMemStore(now func() time.Time) *memStore {
	return &memStore{now: now, sessions: map[string]models.WebSession{}}
}

func (m *memStore) CreateSession(_ context.Context, sess *models.WebSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess.ID = "session-" + strconv.Itoa(len(m.sessions)+1)
	sess.CreatedAt = m.now().Unix()
	sess.UpdatedAt = sess.CreatedAt
	m.sessions[sess.ID] = *sess
	return nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*models.WebSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &sess, nil
}

func (m *memStore) UpdateSession(_ context.Context, sess *models.WebSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.ID]; !ok {
		return storage.ErrNotFound
	}
	sess.UpdatedAt = m.now().Unix()
	m.sessions[sess.ID] = *sess
	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, before int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, sess := range m.sessions {
		if sess.UpdatedAt < before {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Close() error { return nil }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t        *testing.T
	now      func() time.Time
	server   *Server
	handler  http.Handler
	provider *fakeProvider
	store    storage.SessionStore
	apiURL   string
	registry *prometheus.Registry
	cookie   *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return newHarnessWith(t, store, nil)
}

// newHarnessWith runs the server on store, with now as its clock when set.
func newHarnessWith(t *testing.T, store storage.SessionStore, now func() time.Time) *harness {
	t.Helper()
	h := &harness{t: t, now: now, provider: &fakeProvider{}, store: store, apiURL: newFakeAPI(t).URL}
	h.start()
	return h
}

// start builds a fresh server on the harness store, as after a restart.
func (h *harness) start() {
	h.t.Helper()
	sealer, err := auth.NewSealer(sessionSecret)
	require.NoError(h.t, err)

	h.registry = prometheus.NewRegistry()
	metrics := middleware.NewMetrics(h.registry)
	s, err := New(Options{
		APIBaseURL:  h.apiURL,
		APITimeout:  5 * time.Second,
		ConfigDelay: 20 * time.Millisecond,
		Now:         h.now,
	}, Deps{
		Provider:  h.provider,
		Verifier:  auth.NewVerifier(jwtSecret),
		Sealer:    sealer,
		Store:     h.store,
		Transport: middleware.Chain(http.DefaultTransport, metrics.Transport),
		Metrics:   metrics,
		Gatherer:  h.registry,
	})
	require.NoError(h.t, err)
	h.t.Cleanup(s.Close)
	h.server = s
	h.handler = s.Handler()
}

func (h *harness) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Accept-Language", "pt-BR")
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			if c.MaxAge < 0 {
				h.cookie = nil
			} else {
				h.cookie = c
			}
		}
	}
	return rec
}

func (h *harness) login() {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}, "password": {"secret"}})
	require.Equal(h.t, http.StatusSeeOther, rec.Code)
	require.Equal(h.t, "/", rec.Header().Get("Location"))
	require.NotNil(h.t, h.cookie)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = h.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compartilha_web_requests_total")
}

func TestIndexRequiresSignIn(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = h.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@example.com", "the email is kept in the form")
	assert.Nil(t, h.cookie)
}

func TestLoginStoresSession(t *testing.T) {
	h := newHarness(t)
	h.login()

	assert.True(t, h.cookie.HttpOnly)
	stored, err := h.store.GetSession(context.Background(), h.cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, "ana@example.com", stored.Email)
	assert.NotEqual(t, "refresh-1", stored.RefreshToken, "refresh token is sealed at rest")
	assert.NotZero(t, stored.ExpiresAt)

	rec := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="upload"`)

	rec = h.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "signed-in users skip the login page")
}

func TestCreateDivisionAndResumeAfterRestart(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/manual", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, h.do(http.MethodGet, "/", nil).Body.String(), `id="people"`)

	rec = h.do(http.MethodPost, "/people", url.Values{
		"person":        {"Ana", "Bruno"},
		"division_name": {"Pizzaria"},
		"action":        {"submit"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := h.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, `id="distribution"`)
	assert.Contains(t, body, "Pizzaria")

	stored, err := h.store.GetSession(context.Background(), h.cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "divisao_1", stored.DivisionID)

	h.start()
	body = h.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, `id="distribution"`, "the division is reopened after a restart")
	assert.Contains(t, body, "Pizzaria")
}

func TestPeopleSlots(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.do(http.MethodPost, "/manual", url.Values{})

	h.do(http.MethodPost, "/people", url.Values{"person": {"Ana", "Bruno"}, "action": {"add"}})
	body := h.do(http.MethodGet, "/", nil).Body.String()
	assert.Equal(t, 3, strings.Count(body, `name="person"`))
	assert.Contains(t, body, `value="Bruno"`)

	h.do(http.MethodPost, "/people", url.Values{"person": {"Ana", "Bruno", ""}, "remove": {"0"}})
	body = h.do(http.MethodGet, "/", nil).Body.String()
	assert.Equal(t, 2, strings.Count(body, `name="person"`))
	assert.NotContains(t, body, `value="Ana"`)
}

func TestStaleActionShowsCurrentScreen(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodPost, "/finalize", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, h.do(http.MethodGet, "/", nil).Body.String(), `id="upload"`)
}

func TestShareRedirectsOutsideSummary(t *testing.T) {
	h := newHarness(t)
	h.login()

	rec := h.do(http.MethodGet, "/share?format=resumo", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()
	id := h.cookie.Value

	rec := h.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, h.cookie, "cookie is cleared")

	_, err := h.store.GetSession(context.Background(), id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.Equal(t, 1, h.provider.signOuts)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	h := newHarness(t)
	h.login()
	id := h.cookie.Value

	h.server.opts.Now = func() time.Time { return time.Now().Add(h.server.opts.SessionTTL + time.Hour) }
	require.NoError(t, h.server.Sweep(context.Background()))

	_, err := h.store.GetSession(context.Background(), id)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	rec := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore(clock.Now)
	h := newHarnessWith(t, store, clock.Now)
	h.login()
	id := h.cookie.Value
	ttl := h.server.opts.SessionTTL

	clock.Add(ttl - time.Hour)
	rec := h.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	renewed := sessionCookie(rec)
	require.NotNil(t, renewed, "activity re-issues the cookie")
	assert.Equal(t, id, renewed.Value)
	assert.Equal(t, int(ttl.Seconds()), renewed.MaxAge)

	rec = h.do(http.MethodGet, "/", nil)
	assert.Nil(t, sessionCookie(rec), "renewal is throttled")

	clock.Add(2 * time.Hour)
	require.NoError(t, h.server.Sweep(context.Background()))

	stored, err := store.GetSession(context.Background(), id)
	require.NoError(t, err, "a recently used session survives the sweep")
	assert.Equal(t, clock.Now().Add(-2*time.Hour).Unix(), stored.UpdatedAt)

	rec = h.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="upload"`)
}
