/*
Package types defines the core data structures used throughout VersionGate.

This package contains the fundamental types of the domain model: projects,
deployments, the blue-green color pair, and the deployment status machine.
It has no dependencies on other VersionGate packages, which allows it to be
imported by all layers without circular dependencies.

# Architecture

The type system mirrors the two-table shape of the persistent state:

	Project (registration)
	    │
	    │ 1:N
	    ▼
	Deployment (versioned attempt)

A Project is the durable registration of an application: where its source
lives, which port the app listens on, and which pair of host ports its
containers bind. A Deployment is one versioned attempt to put that project
live. Every attempt, including failed ones, leaves a Deployment row behind;
history is never rewritten, only statuses move.

# Core Types

Project:
  - Name is unique across the engine and becomes part of container names
  - BasePort anchors the project's two host ports: BLUE binds BasePort,
    GREEN binds BasePort+1
  - WebhookSecret is the capability embedded in the project's webhook URL
  - Env is baked into containers at start, not injected at build time

Color:
  - The two-value slot identifier, BLUE and GREEN
  - Opposite() drives slot alternation between consecutive deploys
  - HostPort(basePort) and ContainerName(projectName) derive the slot's
    bindings, so port and naming rules live in exactly one place

Deployment:
  - Version is monotonic per project and counts failed attempts
  - ImageTag retains the exact image the version was built as, which is
    what makes rollback possible without rebuilding
  - CommitSHA records what was actually checked out, not what was asked for

# State Machine

Deployment statuses move strictly forward:

	DEPLOYING ──► ACTIVE ──────► ROLLED_BACK
	    │            │                │
	    │            │ (container     │ (rollback
	    ▼            ▼  died)         ▼  restores)
	 FAILED       FAILED            ACTIVE

DEPLOYING marks a pipeline in progress; at most one deployment per project
is ACTIVE; ROLLED_BACK records keep their image tag and are the candidates
a rollback restores from. FAILED is terminal. PENDING is reserved for
queued work and never written by the pipeline.

# Usage

Deriving slot bindings:

	color := types.ColorBlue
	if active != nil {
		color = active.Color.Opposite()
	}
	name := color.ContainerName(project.Name) // "web-blue"
	port := color.HostPort(project.BasePort)  // 3100

Building an image reference:

	tag := types.ImageTag(project.Name, time.Now()) // "versiongate-web:1756115701000"

# Thread Safety

Types in this package are plain data. Instances are not safe for
concurrent mutation; the storage layer hands out fresh copies per call and
all cross-goroutine coordination happens in the store's transactions.
*/
package types
