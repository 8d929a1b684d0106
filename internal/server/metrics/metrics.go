// Package metrics exposes Prometheus collectors for the authentication flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by register and login counters.
const (
	OutcomeSuccess     = "success"
	OutcomeDuplicate   = "duplicate"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeBadRequest  = "bad_request"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Auth holds the collectors registered for one server instance.
type Auth struct {
	registry *prometheus.Registry

	RegistrationsTotal  *prometheus.CounterVec
	LoginsTotal         *prometheus.CounterVec
	GateRejectionsTotal *prometheus.CounterVec
	HashDuration        *prometheus.HistogramVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry. A nil registry
// gets a fresh one.
func New(registry *prometheus.Registry) *Auth {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Auth{
		registry: registry,
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		GateRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_auth_gate_rejections_total",
				Help: "Requests rejected by the auth gate",
			},
			[]string{"reason"},
		),
		HashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gallery_password_hash_duration_seconds",
				Help:    "Time spent hashing or verifying passwords",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gallery_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.GateRejectionsTotal,
		m.HashDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

func (m *Auth) Registration(outcome string) {
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Auth) Login(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Auth) GateRejection(reason string) {
	m.GateRejectionsTotal.WithLabelValues(reason).Inc()
}

// ObserveHash records how long a hash ("hash") or verify ("verify") took.
func (m *Auth) ObserveHash(op string, started time.Time) {
	m.HashDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveRequest records one served HTTP request. route is the matched
// route template, not the raw path.
func (m *Auth) ObserveRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Auth) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
