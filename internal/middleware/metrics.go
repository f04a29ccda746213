package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts API calls and web requests.
type Metrics struct {
	apiCalls    *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	webRequests *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compartilha",
			Name:      "api_calls_total",
			Help:      "Calls made to the bill-splitting API, by operation and status.",
		}, []string{"operation", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "compartilha",
			Name:      "api_call_duration_seconds",
			Help:      "Duration of calls to the bill-splitting API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		webRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compartilha",
			Name:      "web_requests_total",
			Help:      "Requests served by the web client, by method and status.",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.apiCalls, m.apiDuration, m.webRequests)
	return m
}

// Transport returns a transport decorator that records every API call.
// Transport errors are counted with status "error".
func (m *Metrics) Transport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		op := GetOperation(req.Context())

		resp, err := next.RoundTrip(req)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.apiCalls.WithLabelValues(op, status).Inc()
		m.apiDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		return resp, err
	})
}

// Handler counts the requests served by next.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.webRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
