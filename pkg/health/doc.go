/*
Package health validates freshly started containers before traffic moves.

The package implements the gate between "container started" and "traffic
switched": an HTTP probe loop against the application's health endpoint on
the loopback interface. A deployment whose container never passes this
gate is failed and scrapped without the live version ever noticing.

# Architecture

	StartContainer ──► Validator.Validate ──► SwitchTo
	                        │
	                        │ per attempt:
	                        │  1. container still running?  (fail fast)
	                        │  2. GET http://127.0.0.1:<port><path>
	                        │  3. 2xx/3xx within latency budget → healthy
	                        │  4. otherwise wait RetryDelay, retry
	                        ▼
	                   health.Result

The probe targets the host port directly, bypassing the reverse proxy:
the slot under validation is exactly the one not yet receiving traffic.

# Policy

Validation behavior is a value, not configuration state:

	health.Policy{
		MaxRetries:   15,              // attempts before giving up
		ProbeTimeout: 5 * time.Second, // single probe round-trip bound
		RetryDelay:   2 * time.Second, // pause between attempts
		MaxLatency:   2 * time.Second, // slowest acceptable healthy response
	}

DefaultPolicy returns the values above, giving a slow-booting app roughly
thirty seconds to come up. MaxLatency rejects technically-200 responses
that arrive too slowly; a version that passes health checks at 4 seconds
per request is not one to route production traffic to.

# Results

Validate never returns an error; callers branch on Result.Healthy. The
Message is written verbatim to failed deployment records and surfaced by
the API, e.g.:

	health check failed after 15 attempts: request failed: ... connection refused
	container exited during validation

A container that dies mid-validation short-circuits the remaining
attempts, since a dead container will never come around.
*/
package health
