// Package metrics holds Prometheus instruments that are used across the
// platform.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mosaic_active_tenants",
			Help: "Number of tenants currently loaded in memory.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mosaic_tenant_load_total",
			Help: "Cumulative number of tenants successfully loaded.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mosaic_tenant_load_errors_total",
			Help: "Cumulative number of tenant load errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mosaic_tenant_evict_total",
			Help: "Cumulative number of tenants evicted from the cache.",
		})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mosaic_http_requests_total",
			Help: "HTTP requests by method and status class.",
		}, []string{"method", "status"})

	HTTPRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mosaic_http_request_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"})

	SignInTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mosaic_signin_total",
			Help: "Sign-in attempts by outcome (ok, bad_credentials, locked_out, unknown_user).",
		}, []string{"outcome"})

	MigrationsAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mosaic_migrations_applied_total",
			Help: "Migrations applied by the runner since boot.",
		})

	MigrationsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mosaic_migrations_recovered_total",
			Help: "Migrations marked applied after an already-exists collision.",
		})

	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mosaic_assistant_requests_total",
			Help: "Assistant chat requests by (genai, mock, mock_fallback).",
		}, []string{"source"})

	SitesSuspendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mosaic_sites_suspended_total",
			Help: "Sites suspended by the billing sweep.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveTenants,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
		HTTPRequestsTotal,
		HTTPRequestSeconds,
		SignInTotal,
		MigrationsAppliedTotal,
		MigrationsRecoveredTotal,
		AssistantRequestsTotal,
		SitesSuspendedTotal,
	)
}
