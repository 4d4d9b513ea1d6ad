/*
Package watcher audits running containers in steady state.

The boot reconciler makes deployment records honest once. The watcher keeps
them honest afterwards: every interval (60s by default, WATCH_INTERVAL_SECONDS
to change it) it lists ACTIVE deployments, asks the container engine whether
each container is still running, and demotes records whose container has died
to FAILED with the error "Container stopped".

# Tick Model

	Start ──(one interval)──▶ tick ──(interval)──▶ tick ──▶ ...
	                            │
	                            ▼
	                   list ACTIVE deployments
	                            │
	              ┌─────────────┴─────────────┐
	              ▼                           ▼
	        container running          container gone
	              │                           │
	              ▼                           ▼
	          leave record              re-check status,
	          untouched                 mark FAILED, emit
	                                    watcher.container_stopped

The first tick fires one full interval after Start, not immediately; the
boot reconciler has just inspected every container.

Ticks never overlap. If an audit outlasts the interval (slow engine), the
next tick is skipped, not queued. A DB read failure aborts the whole tick;
the next tick retries from scratch. A failure inspecting one container is
isolated so the rest of the fleet is still audited.

# Interplay with Deploys

A deploy retires the previous container by stopping it and then writing
ROLLED_BACK. A watcher tick can observe the stopped container inside that
window and would classify it FAILED; the pipeline's ROLLED_BACK write lands
last and is the terminal state. In the other direction, the watcher
re-checks the record's status after inspecting and only demotes records
that are still ACTIVE, so it never overwrites a terminal status written
while the inspection was in flight.

# Usage

	w := watcher.NewWatcher(store, engine, broker, time.Duration(cfg.WatchInterval)*time.Second)
	w.Start()
	defer w.Stop()
*/
package watcher
