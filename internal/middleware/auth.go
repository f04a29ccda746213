package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/compartilha/internal/auth"
)

// TokenSource supplies the bearer token of one signed-in user.
type TokenSource interface {
	// AccessToken returns the current access token, or "" when signed out.
	AccessToken() string
	// Refresh exchanges the refresh token for a new access token.
	Refresh(ctx context.Context) error
	// SignOut forgets the tokens.
	SignOut(ctx context.Context)
}

// Bearer returns a transport decorator that authenticates API calls.
//
// Every request carries "Authorization: Bearer <token>" and, when apiKey is
// set, "X-API-Key". A 401 answer triggers one silent refresh. The request is
// not retried: the 401 is passed on if the refresh works, and the user is
// signed out with auth.ErrSessionExpired if it does not.
func Bearer(tokens TokenSource, apiKey string) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			req = req.Clone(req.Context())
			if token := tokens.AccessToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			if apiKey != "" {
				req.Header.Set("X-API-Key", apiKey)
			}

			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			slog.Warn("Access token rejected, refreshing", "operation", GetOperation(req.Context()))
			if rerr := tokens.Refresh(req.Context()); rerr != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				tokens.SignOut(req.Context())
				return nil, fmt.Errorf("failed to refresh session: %w: %w", auth.ErrSessionExpired, rerr)
			}
			return resp, nil
		})
	}
}
