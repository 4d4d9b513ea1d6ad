/*
Package metrics provides Prometheus metrics collection and exposition for VersionGate.

The metrics package defines and registers all VersionGate metrics using the
Prometheus client library, providing observability into deployment outcomes,
pipeline latency, watcher activity, and API traffic. Metrics are exposed via
HTTP endpoint for scraping by Prometheus servers. The package also carries the
component health registry backing the /health and /ready endpoints.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │          Prometheus Registry               │           │
	│  │  - Global DefaultRegistry                  │           │
	│  │  - MustRegister at package init            │           │
	│  │  - Automatic Go runtime metrics            │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Metric Sources                   │           │
	│  │                                            │           │
	│  │  Orchestrator: deploy counters, duration   │           │
	│  │  Rollback: rollback counters               │           │
	│  │  Watcher: tick and failure counters        │           │
	│  │  API middleware: request count, duration   │           │
	│  │  Collector: gauges refreshed from store    │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          HTTP Metrics Endpoint             │           │
	│  │  - Path: /metrics                          │           │
	│  │  - Format: Prometheus text exposition      │           │
	│  │  - Handler: promhttp.Handler()             │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Metrics Catalog

Deployment Metrics:

	versiongate_deployments_total{outcome}
	  - Counter of finished pipelines, outcome is success, failed or cancelled

	versiongate_deployment_duration_seconds
	  - Histogram of end-to-end pipeline duration, buckets sized for image builds

	versiongate_active_deployments
	  - Gauge of deployments currently in ACTIVE status

	versiongate_projects_total
	  - Gauge of registered projects

	versiongate_deployments_by_status{status}
	  - Gauge of deployment records per status

Rollback Metrics:

	versiongate_rollbacks_total{outcome}
	  - Counter of rollback attempts, outcome is success or failed

Watcher Metrics:

	versiongate_watcher_ticks_total
	  - Counter of watcher sweeps over ACTIVE deployments

	versiongate_watcher_failures_detected_total
	  - Counter of containers found stopped by the watcher

API Metrics:

	versiongate_http_requests_total{method, path, status}
	  - Counter of HTTP requests, path is the chi route pattern

	versiongate_http_request_duration_seconds{method, path}
	  - Histogram of request latency

Gauges are owned by the Collector, which refreshes them from the store every
15 seconds. Counters and histograms are incremented at the point of the event
by the orchestrator, watcher and API middleware. Keeping the two disjoint
avoids double accounting.

# Usage

Counting an outcome:

	metrics.DeploymentsTotal.WithLabelValues("success").Inc()

Timing an operation:

	timer := metrics.NewTimer()
	// ... run the pipeline ...
	timer.ObserveDuration(metrics.DeploymentDuration)

Timing with labels:

	timer := metrics.NewTimer()
	// ... handle request ...
	timer.ObserveDurationVec(metrics.HTTPRequestDuration, r.Method, pattern)

Running the collector:

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

# Health Registry

Components report liveness into a process-wide registry:

	metrics.RegisterComponent("store", true, "")
	metrics.UpdateComponent("docker", false, "daemon unreachable")

HealthHandler serves /health with every registered component. ReadyHandler
serves /ready and only gates on the critical components (store, docker), so a
failed nginx reload shows as unhealthy without flipping readiness.

# Design Patterns

Label Discipline:
  - Low cardinality labels only (outcome, status, method, route pattern)
  - Never label by project ID or deployment ID

Package Init Registration:
  - All metrics registered in init(), panics on duplicate registration
  - Importing the package is sufficient to define the catalog
*/
package metrics
