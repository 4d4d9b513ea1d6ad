/*
Package api implements the VersionGate REST control surface.

Every state-changing operation flows through this server: the dashboard,
the CLI, and git-host webhooks are all plain HTTP clients of the same
surface. The server owns no domain logic; handlers validate input, call
the store or the pipeline, and render results.

# Architecture

	┌──────────── CLIENT (dashboard / CLI / git host) ────────────┐
	│                         JSON over HTTP                      │
	└───────────────────────────┬─────────────────────────────────┘
	                            │ :9090
	┌───────────────────────────▼─────────────────────────────────┐
	│                     chi router (pkg/api)                    │
	│   recoverer → request metrics → request logging → handler   │
	└──────┬──────────┬──────────┬──────────┬──────────┬──────────┘
	       │          │          │          │          │
	       ▼          ▼          ▼          ▼          ▼
	    storage    deploy     container   traffic   webhook
	    (Bolt)   (pipeline)   (engine)    (nginx)  (dispatch)

# Surface

Root level, for infrastructure probes:

	GET  /health      liveness
	GET  /ready       readiness (store and engine reachable)
	GET  /metrics     prometheus exposition

Under /api/v1:

	POST   /projects                      register (auto basePort + secret)
	GET    /projects                      list
	GET    /projects/{id}                 fetch
	PATCH  /projects/{id}                 partial update, re-validated
	PATCH  /projects/{id}/env             replace env map
	DELETE /projects/{id}                 cascade delete + container teardown
	GET    /projects/{id}/status          project + active + inFlight + routedPort
	GET    /projects/{id}/logs?tail=100   active container logs
	GET    /projects/{id}/metrics         active container resource stats
	POST   /projects/{id}/rollback        restore the previous version
	POST   /projects/{id}/cancel-deploy   cancel the in-flight deploy
	POST   /deploy                        run the pipeline, body {projectId}
	GET    /deployments[?projectId=]      deployment history
	GET    /deployments/{id}              one deployment
	POST   /webhooks/{secret}             git-host push intake
	GET    /events?limit=50               recent lifecycle events
	POST   /system/reconcile              manual state repair pass

# Error Contract

Errors render as {"error": <class>, "message": <human>, "code": <detail?>}
with the status code of the error class (ValidationError 400, NotFoundError
404, ConflictError 409, DeploymentError 500, and the rollback family).
Unclassified errors are logged server-side and rendered as a generic 500
InternalError; internal detail never reaches the client.

# Long Requests

POST /deploy and POST /rollback are synchronous: the response is written
when the pipeline finishes, minutes after the request started. The server
therefore runs without a write timeout, and both operations are detached
from the request context so a dropped connection cannot abort a
half-finished deploy. Cancellation is only ever explicit, via
cancel-deploy.
*/
package api
