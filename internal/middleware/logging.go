package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging returns a transport decorator that logs every outbound API call.
// It logs the operation, the signed-in user, method, path, status and duration.
func Logging(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		op := GetOperation(req.Context())
		userID := GetUserID(req.Context())

		resp, err := next.RoundTrip(req)

		duration := time.Since(start).Milliseconds()
		switch {
		case err != nil:
			slog.Error("API call failed",
				"operation", op,
				"user_id", userID,
				"method", req.Method,
				"path", req.URL.Path,
				"error", err,
				"duration_ms", duration,
			)
		case resp.StatusCode >= http.StatusBadRequest:
			slog.Warn("API call error",
				"operation", op,
				"user_id", userID,
				"method", req.Method,
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		default:
			slog.Info("API call ok",
				"operation", op,
				"user_id", userID,
				"method", req.Method,
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		}
		return resp, err
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// LogRequests logs all incoming web requests.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
