// Package config loads the server configuration from flags and environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// EnvPrefix prefixes every environment variable, e.g. COMPARTILHA_API_URL.
const EnvPrefix = "COMPARTILHA"

// MinSecretLength is the shortest accepted session secret.
const MinSecretLength = 16

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Auth     AuthConfig
	Session  SessionConfig
	Debounce DebounceConfig
	Log      LogConfig
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// APIConfig configures the bill-splitting API client.
type APIConfig struct {
	BaseURL string
	// Key is sent as the X-API-Key header next to the bearer token.
	Key     string
	Timeout time.Duration
}

// AuthConfig configures the identity provider.
type AuthConfig struct {
	URL     string
	AnonKey string
	// JWTSecret verifies access token signatures. Empty skips verification.
	JWTSecret string
}

// SessionConfig configures the browser sessions.
type SessionConfig struct {
	DBPath          string
	Secret          string
	CookieName      string
	SecureCookie    bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DebounceConfig configures delayed saves.
type DebounceConfig struct {
	ConfigDelay time.Duration
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
}

// Load parses args and COMPARTILHA_* environment variables. The returned
// error carries the flag usage when parsing fails.
func Load(args []string) (*Config, error) {
	fs := ff.NewFlagSet("compartilha")
	var (
		addr            = fs.StringLong("addr", ":8080", "HTTP listen address")
		readTimeout     = fs.DurationLong("read-timeout", 15*time.Second, "HTTP read timeout")
		writeTimeout    = fs.DurationLong("write-timeout", 60*time.Second, "HTTP write timeout")
		shutdownTimeout = fs.DurationLong("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

		apiURL     = fs.StringLong("api-url", "http://localhost:8000", "Bill-splitting API base URL")
		apiKey     = fs.StringLong("api-key", "", "API key sent with every API call")
		apiTimeout = fs.DurationLong("api-timeout", 30*time.Second, "API request timeout")

		authURL   = fs.StringLong("auth-url", "", "Identity provider base URL (defaults to the API URL)")
		anonKey   = fs.StringLong("auth-anon-key", "", "Identity provider anonymous key")
		jwtSecret = fs.StringLong("jwt-secret", "", "Access token signing secret (optional)")

		dbPath       = fs.StringLong("db", "data/compartilha.db", "Session database file path")
		secret       = fs.StringLong("session-secret", "", "Secret sealing refresh tokens at rest")
		cookieName   = fs.StringLong("cookie-name", "compartilha_session", "Session cookie name")
		secureCookie = fs.BoolLong("secure-cookie", "Mark the session cookie Secure")
		sessionTTL   = fs.DurationLong("session-ttl", 30*24*time.Hour, "Idle time after which a session is deleted")
		cleanup      = fs.DurationLong("session-cleanup", time.Hour, "Interval between expired session sweeps")

		configDelay = fs.DurationLong("config-delay", time.Second, "Delay before fee and discount edits are saved")

		logLevel = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvPrefix)); err != nil {
		return nil, fmt.Errorf("%s\n%w", ffhelp.Flags(fs), err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            *addr,
			ReadTimeout:     *readTimeout,
			WriteTimeout:    *writeTimeout,
			ShutdownTimeout: *shutdownTimeout,
		},
		API:  APIConfig{BaseURL: *apiURL, Key: *apiKey, Timeout: *apiTimeout},
		Auth: AuthConfig{URL: *authURL, AnonKey: *anonKey, JWTSecret: *jwtSecret},
		Session: SessionConfig{
			DBPath:          *dbPath,
			Secret:          *secret,
			CookieName:      *cookieName,
			SecureCookie:    *secureCookie,
			TTL:             *sessionTTL,
			CleanupInterval: *cleanup,
		},
		Debounce: DebounceConfig{ConfigDelay: *configDelay},
		Log:      LogConfig{Level: *logLevel},
	}
	if cfg.Auth.URL == "" {
		cfg.Auth.URL = cfg.API.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api-url is required"))
	}
	if len(c.Session.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("session-secret must be at least %d characters", MinSecretLength))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session-ttl must be positive"))
	}
	if c.Debounce.ConfigDelay <= 0 {
		errs = append(errs, errors.New("config-delay must be positive"))
	}
	return errors.Join(errs...)
}
