// Package metrics exposes the service's Prometheus metrics and a periodic
// reporter that logs a usage summary.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	authSuccess      atomic.Int64
	authFailure      atomic.Int64
	permissionDenied atomic.Int64
	httpRequests     atomic.Int64

	requestsByRoute *prometheus.CounterVec
}

// New registers the metrics with the given registerer. Counter values live in
// atomics so the reporter and tests can read them without gathering.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsByRoute: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdeck",
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by method, route and status.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.requestsByRoute)
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "taskdeck",
		Name:      "auth_success_total",
		Help:      "Successful authentications and registrations.",
	}, func() float64 { return float64(m.authSuccess.Load()) }))
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "taskdeck",
		Name:      "auth_failure_total",
		Help:      "Rejected authentication attempts.",
	}, func() float64 { return float64(m.authFailure.Load()) }))
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "taskdeck",
		Name:      "permission_denied_total",
		Help:      "Authorization checks that denied an operation.",
	}, func() float64 { return float64(m.permissionDenied.Load()) }))

	return m
}

func (m *Metrics) RecordAuthSuccess() { m.authSuccess.Add(1) }
func (m *Metrics) RecordAuthFailure() { m.authFailure.Add(1) }

func (m *Metrics) RecordPermissionDenied() { m.permissionDenied.Add(1) }

func (m *Metrics) RecordHTTPRequest(method, route, status string) {
	m.httpRequests.Add(1)
	m.requestsByRoute.WithLabelValues(method, route, status).Inc()
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		AuthSuccess:      m.authSuccess.Load(),
		AuthFailure:      m.authFailure.Load(),
		PermissionDenied: m.permissionDenied.Load(),
		HTTPRequests:     m.httpRequests.Load(),
	}
}

type Snapshot struct {
	AuthSuccess      int64
	AuthFailure      int64
	PermissionDenied int64
	HTTPRequests     int64
}
