package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/compartilha/internal/models"
)

// Keeper holds the tokens of one signed-in browser session and refreshes them
// on demand. It is safe for concurrent use.
type Keeper struct {
	provider Provider

	mu        sync.Mutex
	session   Session
	signedIn  bool
	onChange  func(Session)
	onSignOut func()
}

// NewKeeper starts holding s.
func NewKeeper(provider Provider, s Session) *Keeper {
	return &Keeper{provider: provider, session: s, signedIn: s.AccessToken != ""}
}

// OnChange registers fn to be called with the new session after every refresh.
func (k *Keeper) OnChange(fn func(Session)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onChange = fn
}

// OnSignOut registers fn to be called once the tokens are dropped.
func (k *Keeper) OnSignOut(fn func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onSignOut = fn
}

// AccessToken returns the current access token, or "" when signed out.
func (k *Keeper) AccessToken() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.signedIn {
		return ""
	}
	return k.session.AccessToken
}

// User returns the signed-in user.
func (k *Keeper) User() models.User {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.session.User
}

// Session returns a copy of the held session.
func (k *Keeper) Session() Session {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.session
}

// SignedIn reports whether the keeper still holds tokens.
func (k *Keeper) SignedIn() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.signedIn
}

// Refresh exchanges the refresh token for a new session.
func (k *Keeper) Refresh(ctx context.Context) error {
	k.mu.Lock()
	if !k.signedIn {
		k.mu.Unlock()
		return ErrSessionExpired
	}
	refreshToken := k.session.RefreshToken
	k.mu.Unlock()

	next, err := k.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	k.mu.Lock()
	if next.User.ID == "" {
		next.User = k.session.User
	}
	k.session = *next
	fn := k.onChange
	k.mu.Unlock()

	slog.Debug("Session refreshed", "user_id", next.User.ID, "expires_at", next.ExpiresAt)
	if fn != nil {
		fn(*next)
	}
	return nil
}

// SignOut revokes the session with the provider and drops the tokens.
// Revocation failures are logged; the tokens are dropped regardless.
func (k *Keeper) SignOut(ctx context.Context) {
	k.mu.Lock()
	if !k.signedIn {
		k.mu.Unlock()
		return
	}
	token := k.session.AccessToken
	userID := k.session.User.ID
	k.signedIn = false
	k.session.AccessToken = ""
	k.session.RefreshToken = ""
	fn := k.onSignOut
	k.mu.Unlock()

	if err := k.provider.SignOut(ctx, token); err != nil {
		slog.Warn("Failed to revoke session", "user_id", userID, "error", err)
	}
	slog.Info("User signed out", "user_id", userID)
	if fn != nil {
		fn()
	}
}
