package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CompletionCounter  *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		CompletionCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "completion_requests_total",
				Help: "Completion service calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		CompletionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "completion_request_duration_seconds",
				Help:    "Duration of completion service calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"provider"},
		),
	}

	m.Registry.MustRegister(m.RequestCounter, m.RequestDuration, m.CompletionCounter, m.CompletionDuration)
	return m
}

// ObserveCompletion records one completion call.
func (m *Metrics) ObserveCompletion(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CompletionCounter.WithLabelValues(provider, outcome).Inc()
	m.CompletionDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Middleware counts requests by chi route pattern, not raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
