package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Deployment metrics
	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versiongate_deployments_total",
			Help: "Total number of deployment attempts by outcome",
		},
		[]string{"outcome"},
	)

	DeploymentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "versiongate_deployment_duration_seconds",
			Help:    "End-to-end deployment pipeline duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	ActiveDeployments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "versiongate_active_deployments",
			Help: "Number of deployments currently in ACTIVE status",
		},
	)

	ProjectsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "versiongate_projects_total",
			Help: "Total number of registered projects",
		},
	)

	DeploymentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "versiongate_deployments_by_status",
			Help: "Number of deployments by status",
		},
		[]string{"status"},
	)

	// Rollback metrics
	RollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versiongate_rollbacks_total",
			Help: "Total number of rollback attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Watcher metrics
	WatcherTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "versiongate_watcher_ticks_total",
			Help: "Total number of container watcher sweeps",
		},
	)

	WatcherFailuresDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "versiongate_watcher_failures_detected_total",
			Help: "Total number of stopped containers detected by the watcher",
		},
	)

	// API metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versiongate_http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "versiongate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(DeploymentDuration)
	prometheus.MustRegister(ActiveDeployments)
	prometheus.MustRegister(ProjectsTotal)
	prometheus.MustRegister(DeploymentsByStatus)
	prometheus.MustRegister(RollbacksTotal)
	prometheus.MustRegister(WatcherTicks)
	prometheus.MustRegister(WatcherFailuresDetected)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
