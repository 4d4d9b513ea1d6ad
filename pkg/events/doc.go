/*
Package events provides an in-memory event broker for VersionGate's pub/sub messaging.

The events package implements a lightweight event bus for broadcasting
deployment lifecycle events to interested subscribers, plus a bounded
in-memory ring that backs the GET /events endpoint. It enables loose
coupling between the orchestrator, watcher, reconciler and the API.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                          │
	│  Publishers                                              │
	│    Orchestrator: deploy.started|succeeded|failed|        │
	│                  cancelled, rollback.succeeded|failed    │
	│    Watcher:      watcher.container_stopped               │
	│    Reconciler:   reconcile.completed                     │
	│         │                                                │
	│         ▼                                                │
	│  Publish ──┬──► Ring buffer (256, newest first Recent)   │
	│            └──► Event Channel (buffer: 100)              │
	│                      │                                   │
	│                      ▼                                   │
	│              Broadcast Loop                              │
	│                      │                                   │
	│                      ▼                                   │
	│        Subscriber Channels (buffer: 50 each)             │
	└──────────────────────────────────────────────────────────┘

# Delivery Semantics

Publish never blocks on subscribers. Each subscriber has a buffered channel;
when the buffer is full the event is dropped for that subscriber. The ring
is written synchronously inside Publish, so Recent reflects an event as soon
as Publish returns even if the broadcast goroutine has not run yet.

History is best-effort observability, not an audit log. Durable state lives
in the store; losing ring entries on restart is acceptable.

# Usage

Publishing:

	broker.Publish(&events.Event{
		Type:         events.EventDeploySucceeded,
		ProjectID:    project.ID,
		DeploymentID: deployment.ID,
		Message:      "version 3 is live",
	})

Subscribing:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	for event := range sub {
		// handle event
	}

Reading history:

	recent := broker.Recent(50) // newest first
*/
package events
