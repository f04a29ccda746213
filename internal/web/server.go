// Package web serves the Compartilha screens to browsers.
//
// Every browser session owns a service.Session and an auth.Keeper. The
// tokens and the division on screen are persisted to a storage.SessionStore
// so that a restart does not sign anybody out.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/auth"
	"github.com/mmynk/compartilha/internal/middleware"
	"github.com/mmynk/compartilha/internal/service"
	"github.com/mmynk/compartilha/internal/storage"
)

// DefaultCookieName names the session cookie when Options leaves it empty.
const DefaultCookieName = "compartilha_session"

// Options tune the server. Zero values pick the defaults.
type Options struct {
	APIBaseURL   string
	APIKey       string
	APITimeout   time.Duration
	CookieName   string
	SecureCookie bool
	// SessionTTL is how long an idle session is kept.
	SessionTTL  time.Duration
	ConfigDelay time.Duration
	Now         func() time.Time
}

// Deps are the collaborators of the server.
type Deps struct {
	Provider auth.Provider
	Verifier *auth.Verifier
	Sealer   *auth.Sealer
	Store    storage.SessionStore
	// Transport is the shared base of every API client; bearer auth is
	// added per session. Nil means http.DefaultTransport.
	Transport http.RoundTripper
	Metrics   *middleware.Metrics
	Gatherer  prometheus.Gatherer
}

// Server is the web front end.
type Server struct {
	opts     Options
	deps     Deps
	views    *renderer
	mux      *http.ServeMux
	logger   *slog.Logger
	mu       sync.Mutex
	sessions map[string]*entry
}

// New creates a server. It fails only when the embedded templates do not parse.
func New(opts Options, deps Deps) (*Server, error) {
	if opts.APITimeout <= 0 {
		opts.APITimeout = api.DefaultTimeout
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.ConfigDelay <= 0 {
		opts.ConfigDelay = service.DefaultConfigDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Transport == nil {
		deps.Transport = http.DefaultTransport
	}

	views, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:     opts,
		deps:     deps,
		views:    views,
		mux:      http.NewServeMux(),
		logger:   slog.Default().With("component", "web"),
		sessions: make(map[string]*entry),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.deps.Gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.Handle("POST /logout", s.authed(s.handleLogout))

	s.mux.Handle("GET /{$}", s.authed(s.handleIndex))
	s.mux.Handle("GET /history", s.authed(s.handleHistory))
	s.mux.Handle("GET /share", s.authed(s.handleShare))
	s.mux.Handle("GET /share/whatsapp", s.authed(s.handleWhatsApp))

	s.mux.Handle("POST /scan", s.action(s.handleScan))
	s.mux.Handle("POST /manual", s.action(handleManual))
	s.mux.Handle("POST /people", s.action(handlePeople))
	s.mux.Handle("POST /back", s.action(handleBack))
	s.mux.Handle("POST /reset", s.action(handleReset))

	s.mux.Handle("POST /editor/open", s.action(handleEditorOpen))
	s.mux.Handle("POST /editor/adjust", s.action(handleEditorAdjust))
	s.mux.Handle("POST /editor/toggle", s.action(handleEditorToggle))
	s.mux.Handle("POST /editor/mode", s.action(handleEditorMode))
	s.mux.Handle("POST /editor/confirm", s.action(handleEditorConfirm))
	s.mux.Handle("POST /editor/close", s.action(handleEditorClose))

	s.mux.Handle("POST /items/form", s.action(handleItemForm))
	s.mux.Handle("POST /items/save", s.action(handleItemSave))
	s.mux.Handle("POST /items/close", s.action(handleItemClose))
	s.mux.Handle("POST /items/{id}/delete", s.action(handleItemDelete))

	s.mux.Handle("POST /people/add", s.action(handlePersonAdd))
	s.mux.Handle("POST /people/{id}/delete", s.action(handlePersonDelete))

	s.mux.Handle("POST /rename/start", s.action(handleRenameStart))
	s.mux.Handle("POST /rename", s.action(handleRename))
	s.mux.Handle("POST /rename/cancel", s.action(handleRenameCancel))

	s.mux.Handle("POST /config", s.action(handleConfig))
	s.mux.Handle("POST /finalize", s.action(handleFinalize))

	s.mux.Handle("POST /history/{id}/continue", s.action(handleContinue))
	s.mux.Handle("POST /history/{id}/duplicate", s.action(handleDuplicate))
	s.mux.Handle("POST /history/{id}/delete", s.action(handleDeleteDivision))
}

// Handler returns the root handler with request logging and metrics.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.deps.Metrics != nil {
		h = s.deps.Metrics.Handler(h)
	}
	return middleware.LogRequests(h)
}

// Sweep deletes sessions idle for longer than the TTL, both in memory and in
// the store.
func (s *Server) Sweep(ctx context.Context) error {
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	var idle []*entry
	for id, e := range s.sessions {
		if e.lastSeen().Before(cutoff) {
			idle = append(idle, e)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, e := range idle {
		e.session.Close()
	}

	removed, err := s.deps.Store.DeleteExpired(ctx, cutoff.Unix())
	if err != nil {
		return fmt.Errorf("failed to sweep sessions: %w", err)
	}
	if removed > 0 || len(idle) > 0 {
		s.logger.Info("Expired sessions removed", "stored", removed, "in_memory", len(idle))
	}
	return nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Warn("Session sweep failed", "error", err)
			}
		}
	}
}

// Close stops the background work of every session. Pending config saves
// are flushed first.
func (s *Server) Close() {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.sessions))
	for id, e := range s.sessions {
		entries = append(entries, e)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.session.FlushConfig()
		e.session.Close()
	}
}
