package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["email"] != "ana@example.com" || body["password"] != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
		case "refresh_token":
			if body["refresh_token"] != "r1" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{
			"access_token": "a2",
			"refresh_token": "r2",
			"expires_in": 3600,
			"expires_at": 1700000000,
			"user": {"id": "u1", "email": "ana@example.com", "user_metadata": {"full_name": "Ana"}}
		}`))
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer a2", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoTrueSignIn(t *testing.T) {
	srv := newProviderServer(t)
	g := NewGoTrue(srv.URL+"/", "anon", srv.Client())

	s, err := g.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a2", s.AccessToken)
	assert.Equal(t, "r2", s.RefreshToken)
	assert.Equal(t, time.Unix(1700000000, 0), s.ExpiresAt)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "Ana", s.User.Name)

	_, err = g.SignIn(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoTrueRefresh(t *testing.T) {
	srv := newProviderServer(t)
	g := NewGoTrue(srv.URL, "anon", srv.Client())

	s, err := g.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", s.AccessToken)

	_, err = g.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = g.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGoTrueSignOut(t *testing.T) {
	srv := newProviderServer(t)
	g := NewGoTrue(srv.URL, "anon", srv.Client())
	assert.NoError(t, g.SignOut(context.Background(), "a2"))
}

func TestGoTrueServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGoTrue(srv.URL, "", srv.Client())
	_, err := g.SignIn(context.Background(), "a", "b")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
