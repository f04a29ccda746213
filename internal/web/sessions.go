package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/auth"
	"github.com/mmynk/compartilha/internal/i18n"
	"github.com/mmynk/compartilha/internal/middleware"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/service"
	"github.com/mmynk/compartilha/internal/storage"
)

const persistTimeout = 5 * time.Second

// renewInterval throttles how often activity re-issues the cookie and bumps
// the stored session.
const renewInterval = time.Minute

// entry is one signed-in browser session.
type entry struct {
	id      string
	keeper  *auth.Keeper
	session *service.Session

	mu      sync.Mutex
	web     models.WebSession // RefreshToken is plaintext here, sealed in the store
	seen    time.Time
	renewed time.Time
}

// touch records activity and reports whether the cookie and the stored
// session are due for renewal.
func (e *entry) touch(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = now
	if now.Sub(e.renewed) < renewInterval {
		return false
	}
	e.renewed = now
	return true
}

func (e *entry) lastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seen
}

// newEntry wires the keeper, API client and session of one browser session.
func (s *Server) newEntry(web models.WebSession, tokens auth.Session) *entry {
	keeper := auth.NewKeeper(s.deps.Provider, tokens)
	client := api.New(s.opts.APIBaseURL, &http.Client{
		Timeout:   s.opts.APITimeout,
		Transport: middleware.Chain(s.deps.Transport, middleware.Bearer(keeper, s.opts.APIKey)),
	})
	sess := service.NewSession(client, service.Options{
		ConfigDelay: s.opts.ConfigDelay,
		SaveTimeout: s.opts.APITimeout,
		Now:         s.opts.Now,
		Logger:      slog.Default().With("component", "session", "user_id", web.UserID),
	})

	now := s.opts.Now()
	e := &entry{id: web.ID, keeper: keeper, session: sess, web: web, seen: now, renewed: now}

	keeper.OnChange(func(next auth.Session) {
		e.mu.Lock()
		e.web.AccessToken = next.AccessToken
		e.web.RefreshToken = next.RefreshToken
		e.web.ExpiresAt = next.ExpiresAt.Unix()
		e.mu.Unlock()
		s.persist(e)
	})
	keeper.OnSignOut(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.deps.Store.DeleteSession(ctx, e.id); err != nil {
			s.logger.Warn("Failed to delete session", "error", err)
		}
	})
	sess.OnDivisionChange(func(divisionID string) {
		e.mu.Lock()
		e.web.DivisionID = divisionID
		e.mu.Unlock()
		s.persist(e)
	})
	return e
}

// persist writes the entry's tokens and division to the store.
func (s *Server) persist(e *entry) {
	e.mu.Lock()
	web := e.web
	e.mu.Unlock()

	sealed, err := s.deps.Sealer.Seal(web.RefreshToken)
	if err != nil {
		s.logger.Error("Failed to seal refresh token", "error", err)
		return
	}
	web.RefreshToken = sealed

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err = s.deps.Store.UpdateSession(ctx, &web)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("Session gone before update", "user_id", web.UserID)
	case err != nil:
		s.logger.Warn("Failed to persist session", "user_id", web.UserID, "error", err)
	}
}

// lookup finds the session of the request's cookie, restoring it from the
// store after a restart.
func (s *Server) lookup(r *http.Request) *entry {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}

	s.mu.Lock()
	e := s.sessions[c.Value]
	s.mu.Unlock()
	if e != nil {
		return e
	}

	ctx := r.Context()
	web, err := s.deps.Store.GetSession(ctx, c.Value)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to load session", "error", err)
		}
		return nil
	}
	refresh, err := s.deps.Sealer.Open(web.RefreshToken)
	if err != nil {
		s.logger.Warn("Dropping unreadable session", "user_id", web.UserID, "error", err)
		_ = s.deps.Store.DeleteSession(ctx, web.ID)
		return nil
	}
	web.RefreshToken = refresh

	e = s.newEntry(*web, auth.Session{
		AccessToken:  web.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    time.Unix(web.ExpiresAt, 0),
		User:         models.User{ID: web.UserID, Email: web.Email},
	})
	// The first request after a restart renews the cookie and the row.
	e.renewed = time.Time{}

	s.mu.Lock()
	if existing := s.sessions[web.ID]; existing != nil {
		s.mu.Unlock()
		e.session.Close()
		return existing
	}
	s.sessions[web.ID] = e
	s.mu.Unlock()

	s.logger.Info("Session restored", "user_id", web.UserID, "division_id", web.DivisionID)
	e.session.Resume(ctx, web.DivisionID)
	return e
}

func (s *Server) drop(e *entry) {
	s.mu.Lock()
	delete(s.sessions, e.id)
	s.mu.Unlock()
	e.session.Close()
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, e *entry)

// authed resolves the browser session or sends the browser to the login page.
func (s *Server) authed(h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e := s.lookup(r)
		if e == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !e.keeper.SignedIn() {
			s.drop(e)
			s.clearCookie(w)
			http.Redirect(w, r, "/login?expired=1", http.StatusSeeOther)
			return
		}
		if e.touch(s.opts.Now()) {
			s.setCookie(w, e.id)
			s.persist(e)
		}

		ctx := middleware.WithUserID(r.Context(), e.keeper.User().ID)
		h(w, r.WithContext(ctx), e)
	})
}

// action runs a state change and redirects to the current screen.
func (s *Server) action(fn func(r *http.Request, sess *service.Session) error) http.Handler {
	return s.authed(func(w http.ResponseWriter, r *http.Request, e *entry) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "invalid form", http.StatusBadRequest)
				return
			}
		}
		if err := fn(r, e.session); err != nil {
			// A stale page can post an action for another screen; showing the
			// current screen is the answer.
			s.logger.Info("Action not applied", "path", r.URL.Path, "error", err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

func (s *Server) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// language picks the page language from ?lang, the lang cookie, then
// Accept-Language.
func language(w http.ResponseWriter, r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); i18n.Supported(lang) {
		http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 365 * 24 * 3600, SameSite: http.SameSiteLaxMode})
		return lang
	}
	if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
		return c.Value
	}
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if e := s.lookup(r); e != nil && e.keeper.SignedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.views.render(w, http.StatusOK, "login", page{
		Lang:    language(w, r),
		Expired: r.URL.Query().Get("expired") != "",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	lang := language(w, r)
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	fail := func(status int, code string) {
		s.views.render(w, status, "login", page{Lang: lang, Email: email, LoginError: code})
	}

	tokens, err := s.deps.Provider.SignIn(r.Context(), email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		fail(http.StatusUnauthorized, "invalid_login")
		return
	}
	if err != nil {
		s.logger.Error("Sign-in failed", "error", err)
		fail(http.StatusBadGateway, service.CodeGeneric)
		return
	}

	claims, err := s.deps.Verifier.Parse(tokens.AccessToken)
	if err != nil {
		s.logger.Warn("Provider returned an unusable token", "error", err)
		fail(http.StatusUnauthorized, "invalid_login")
		return
	}
	if tokens.User.ID == "" {
		tokens.User.ID = claims.UserID()
	}
	if tokens.User.Email == "" {
		tokens.User.Email = claims.Email
	}
	if tokens.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		tokens.ExpiresAt = claims.ExpiresAt.Time
	}

	sealed, err := s.deps.Sealer.Seal(tokens.RefreshToken)
	if err != nil {
		s.logger.Error("Failed to seal refresh token", "error", err)
		fail(http.StatusInternalServerError, service.CodeGeneric)
		return
	}
	web := models.WebSession{
		UserID:       tokens.User.ID,
		Email:        tokens.User.Email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: sealed,
		ExpiresAt:    tokens.ExpiresAt.Unix(),
	}
	if err := s.deps.Store.CreateSession(r.Context(), &web); err != nil {
		s.logger.Error("Failed to create session", "error", err)
		fail(http.StatusInternalServerError, service.CodeGeneric)
		return
	}
	web.RefreshToken = tokens.RefreshToken

	e := s.newEntry(web, *tokens)
	s.mu.Lock()
	s.sessions[web.ID] = e
	s.mu.Unlock()

	s.logger.Info("User signed in", "user_id", web.UserID)
	s.setCookie(w, web.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, e *entry) {
	e.keeper.SignOut(r.Context())
	s.drop(e)
	s.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
