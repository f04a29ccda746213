package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/compartilha/internal/auth"
	"github.com/mmynk/compartilha/internal/config"
	"github.com/mmynk/compartilha/internal/middleware"
	"github.com/mmynk/compartilha/internal/storage/sqlite"
	"github.com/mmynk/compartilha/internal/web"
	"github.com/mmynk/compartilha/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.Setup(cfg.Log.Level)

	store, err := sqlite.New(cfg.Session.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Session.DBPath)

	sealer, err := auth.NewSealer(cfg.Session.Secret)
	if err != nil {
		return fmt.Errorf("failed to create token sealer: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	transport := middleware.Chain(http.DefaultTransport, middleware.Logging, metrics.Transport)
	provider := auth.NewGoTrue(cfg.Auth.URL, cfg.Auth.AnonKey, &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: transport,
	})
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("No JWT secret configured, access tokens are decoded without verification")
	}

	server, err := web.New(web.Options{
		APIBaseURL:   cfg.API.BaseURL,
		APIKey:       cfg.API.Key,
		APITimeout:   cfg.API.Timeout,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
		SessionTTL:   cfg.Session.TTL,
		ConfigDelay:  cfg.Debounce.ConfigDelay,
	}, web.Deps{
		Provider:  provider,
		Verifier:  auth.NewVerifier(cfg.Auth.JWTSecret),
		Sealer:    sealer,
		Store:     store,
		Transport: transport,
		Metrics:   metrics,
		Gatherer:  registry,
	})
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.RunSweeper(ctx, cfg.Session.CleanupInterval)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h2c.NewHandler(server.Handler(), &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Server.Addr, "api", cfg.API.BaseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	start := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	slog.Info("Server stopped", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
