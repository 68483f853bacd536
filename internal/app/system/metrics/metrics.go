// Package metrics registers the Prometheus collectors for the auth core
// on a private registry and serves them at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for Parley's auth core.
type Metrics struct {
	registry *prometheus.Registry

	LoginSuccessesTotal     prometheus.Counter
	LoginFailuresTotal      *prometheus.CounterVec
	SessionsRevokedTotal    *prometheus.CounterVec
	MaintenanceDenialsTotal prometheus.Counter
	SSOProvisionsTotal      prometheus.Counter
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		LoginSuccessesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_login_successes_total",
			Help: "Total number of successful logins.",
		}),

		LoginFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_login_failures_total",
			Help: "Total number of failed logins by reason.",
		}, []string{"reason"}),

		SessionsRevokedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_sessions_revoked_total",
			Help: "Total number of sessions revoked by cause.",
		}, []string{"cause"}),

		MaintenanceDenialsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_maintenance_denials_total",
			Help: "Total number of requests turned away by maintenance mode.",
		}),

		SSOProvisionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_sso_provisions_total",
			Help: "Total number of accounts auto-provisioned from sso assertions.",
		}),
	}

	reg.MustRegister(
		m.LoginSuccessesTotal,
		m.LoginFailuresTotal,
		m.SessionsRevokedTotal,
		m.MaintenanceDenialsTotal,
		m.SSOProvisionsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the HTTP handler serving the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
