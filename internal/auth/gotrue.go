package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mmynk/compartilha/internal/models"
)

// GoTrue is a Provider backed by a GoTrue-compatible auth server
// (the "/auth/v1" API).
type GoTrue struct {
	baseURL string
	anonKey string
	http    *http.Client
	now     func() time.Time
}

var _ Provider = (*GoTrue)(nil)

// NewGoTrue creates a provider client. baseURL is the project URL without the
// "/auth/v1" suffix; anonKey is sent as the "apikey" header.
func NewGoTrue(baseURL, anonKey string, httpClient *http.Client) *GoTrue {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoTrue{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    httpClient,
		now:     time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
	} `json:"user"`
}

func (r tokenResponse) session(now time.Time) *Session {
	s := &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User: models.User{
			ID:    r.User.ID,
			Email: r.User.Email,
		},
	}
	for _, key := range []string{"name", "full_name"} {
		if name, ok := r.User.UserMetadata[key].(string); ok && name != "" {
			s.User.Name = name
			break
		}
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return s
}

// SignIn uses the password grant.
func (g *GoTrue) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := g.token(ctx, "password", body)
	if errors.Is(err, errRejected) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return resp.session(g.now()), nil
}

// Refresh uses the refresh_token grant.
func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrSessionExpired
	}
	resp, err := g.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if errors.Is(err, errRejected) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	return resp.session(g.now()), nil
}

// SignOut revokes the refresh tokens of the session.
func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to build logout request: %w", err)
	}
	g.headers(req)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("failed to sign out: status %d", resp.StatusCode)
	}
	return nil
}

// errRejected means the provider answered the grant with a 4xx.
var errRejected = errors.New("grant rejected")

// token calls the token endpoint.
func (g *GoTrue) token(ctx context.Context, grant string, body any) (*tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/auth/v1/token?grant_type="+grant, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	g.headers(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call identity provider: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		return nil, errRejected
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var out tokenResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, errors.New("identity provider returned no access token")
	}
	return &out, nil
}

func (g *GoTrue) headers(req *http.Request) {
	if g.anonKey != "" {
		req.Header.Set("apikey", g.anonKey)
	}
	req.Header.Set("Accept", "application/json")
}
