package auth

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/compartilha/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)

// Session is what the identity provider hands out on sign-in or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         models.User
}

// Provider defines the interface of the external identity provider.
// This abstraction allows tests and other providers to replace the GoTrue client
// without changing the web layer.
type Provider interface {
	// SignIn exchanges an email and password for a session.
	// Returns ErrInvalidCredentials when the provider rejects them.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// Refresh exchanges a refresh token for a new session.
	// Returns ErrSessionExpired when the refresh token is no longer valid.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut revokes the session behind the access token.
	SignOut(ctx context.Context, accessToken string) error
}
