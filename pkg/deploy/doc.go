/*
Package deploy implements the blue-green deployment pipeline for VersionGate.

The deploy package owns the core state machine: it takes a project from source
checkout to a validated, traffic-carrying container, alternating between the
BLUE and GREEN slots, and it restores previously retired versions on rollback.
One Orchestrator instance serves the whole process; per-project flights
serialize pipelines while letting different projects deploy in parallel.

# Architecture

	┌─────────────────── DEPLOY PIPELINE ───────────────────────┐
	│                                                           │
	│  Deploy(projectID)                                        │
	│        │                                                  │
	│        ▼                                                  │
	│  ┌───────────────┐  held by another flight                │
	│  │ flight table  │ ───────────────► ConflictError         │
	│  └──────┬────────┘                                        │
	│         ▼                                                 │
	│  1. prepare source (clone or fetch+reset)                 │
	│  2. ensure Dockerfile (synthesize if absent)              │
	│         ● checkpoint: cancel requested?                   │
	│  3. pick slot: opposite color, derived port,              │
	│     create DEPLOYING record                               │
	│  4. build image versiongate-<name>:<epoch-ms>             │
	│         ● checkpoint                                      │
	│  5. clear slot, start container                           │
	│         ● checkpoint                                      │
	│  6. validate health (no traffic moves until healthy)      │
	│  7. switch nginx upstream to the new port                 │
	│  8. mark new row ACTIVE                                   │
	│  9. retire old: stop container, then write ROLLED_BACK    │
	│                                                           │
	│  any failure past 3: teardown + FAILED(errorMessage)      │
	└───────────────────────────────────────────────────────────┘

# Slots

Each project owns exactly two host ports, basePort (BLUE) and basePort+1
(GREEN). A deployment's color is the opposite of the current ACTIVE one, BLUE
for the first. Container names are <project>-blue and <project>-green, so a
slot can always be cleared by name before reuse.

# Status Machine

	(nothing) ──create──► DEPLOYING ──success──► ACTIVE
	                          │                    │ superseded or
	                          └──failure──► FAILED │ rolled back
	                                               ▼
	                     ACTIVE ◄──rollback── ROLLED_BACK

ACTIVE, FAILED and ROLLED_BACK are terminal for the pipeline; only a rollback
revives a ROLLED_BACK row, and a FAILED row is never revived.

# Ordering Contract

The pipeline stops the outgoing container only after the new row is ACTIVE in
the database, and writes the outgoing row's ROLLED_BACK status only after the
stop. The watcher may observe the stopped container while the row still says
ACTIVE and flag it FAILED; the pipeline's ROLLED_BACK write is deliberately
the last writer and wins.

# Cancellation

Cancel(projectID) flags the flight and cancels the pipeline's context, which
kills any in-flight child process (git, docker build). The next checkpoint, or
the failure path of the interrupted step, converts the run into a FAILED
record with errorMessage "Cancelled by user". The flag is cleared with the
flight, never leaking into the next run. Cancelling with nothing in flight is
a validation error.

# Rollback

Rollback(projectID) shares the flight table with Deploy. It restarts the most
recent ROLLED_BACK version below the current ACTIVE one from its retained
image, validates it with the same policy as a deploy, and only then moves
traffic and swaps the two rows' statuses. A rollback that fails validation
tears down the restarted container and leaves the current deployment serving.

# Usage

	orch := deploy.NewOrchestrator(deploy.Config{
		Store:     store,
		Fetcher:   fetcher,
		Synth:     synth,
		Engine:    engine,
		Validator: validator,
		Traffic:   switcher,
		Broker:    broker,
		Network:   cfg.DockerNetwork,
	})

	deployment, err := orch.Deploy(ctx, projectID)
	result, err := orch.Rollback(ctx, projectID)
	err = orch.Cancel(projectID)
*/
package deploy
