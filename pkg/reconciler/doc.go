/*
Package reconciler aligns deployment records with actual container state at boot.

VersionGate persists deployment records in BoltDB while containers live in the
container engine. A crash or host reboot can leave the two out of sync: a
record stuck in DEPLOYING whose pipeline died with the process, or an ACTIVE
record whose container did not survive the reboot. The reconciler runs exactly
once during startup, before the API begins accepting requests, and repairs the
records so that every status query reflects reality.

# Architecture

	┌──────────────────────────────────────────────────────┐
	│                 Boot Reconciliation                  │
	│                  (runs once, at boot)                │
	└──────────────┬───────────────────────────────────────┘
	               │
	    ┌──────────┴──────────┐
	    │                     │
	    ▼                     ▼
	┌──────────────────┐  ┌──────────────────────┐
	│ DEPLOYING records│  │ ACTIVE records       │
	└──────┬───────────┘  └──────┬───────────────┘
	       │                     │
	       ▼                     ▼
	   Fail them             Inspect container
	   unconditionally       via the engine
	       │                     │
	       ▼                     ▼
	   "Process crashed      Not running? Fail with
	    mid-deploy"          "Container not running
	                          at boot"

# Classification Rules

A DEPLOYING record is always orphaned at boot. Pipelines run inside the server
process; if the record still says DEPLOYING, the process that owned it is gone
and the deployment can never complete. No container inspection is needed.

An ACTIVE record is checked against the engine. If the container is not
running, the record is failed. If inspection itself errors (engine
unreachable), the record is left untouched: an inspection failure is not
evidence the container is gone, and invalidating a healthy deployment would
be worse than reporting stale state for one boot.

All other statuses (FAILED, ROLLED_BACK, PENDING) are terminal or inert and
are never touched.

# What the Reconciler Does Not Do

It never restarts containers, switches traffic, or triggers rollbacks.
Recovering a project after a reboot is an operator decision made through the
deploy or rollback operations. The reconciler only makes the database honest
so those decisions are based on real state.

# Usage

	rec := reconciler.NewReconciler(store, engine, broker)
	report, err := rec.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("boot reconciliation failed: %w", err)
	}
	// report.DeployingFixed, report.ActiveInvalidated

A reconcile.completed event is published after every pass, and the pass can
also be invoked on demand through POST /api/system/reconcile for operators
who want to re-check state without restarting the server.
*/
package reconciler
