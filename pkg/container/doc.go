/*
Package container adapts the Docker daemon for the deployment engine.

The engine never links a Docker SDK. Every operation is one fixed-argv
invocation of the docker binary routed through the command runner,
which keeps the surface auditable and lets tests script the daemon
without a real Docker install.

# Architecture

	┌────────────────── CONTAINER ENGINE ───────────────────┐
	│                                                        │
	│  ┌──────────────────────────────────────────┐          │
	│  │               Engine                     │          │
	│  │  - wraps an exec.Commander               │          │
	│  │  - one docker invocation per method      │          │
	│  └──────────────────┬───────────────────────┘          │
	│                     │                                  │
	│   build ──→ docker build -t TAG DIR                    │
	│   start ──→ docker run -d --name N --restart           │
	│             unless-stopped --network NET -p H:A -e ... │
	│   stop  ──→ docker stop N                              │
	│   remove─→ docker rm -f N                              │
	│   state ──→ docker inspect -f {{.State.Running}} N     │
	│   logs  ──→ docker logs --tail T N                     │
	│   stats ──→ docker stats --no-stream --format json N   │
	│   evict ──→ docker ps --filter publish=PORT            │
	│   net   ──→ docker network inspect / create            │
	│                                                        │
	└────────────────────────────────────────────────────────┘

# Core Components

Engine:
  - Stateless adapter; safe for concurrent use
  - Per-operation timeouts: builds get 30 minutes, starts 2 minutes,
    stops 90 seconds, daemon round-trips 15 to 30 seconds

StartSpec:
  - Name, Image, Network, HostPort, AppPort, Env
  - Env flags are emitted in sorted key order so the argv is
    deterministic and test-assertable
  - Containers run detached with --restart unless-stopped so they
    survive daemon restarts

ContainerStats:
  - Point-in-time CPU, memory, network, and PID snapshot
  - Parsed from one row of docker stats --format '{{json .}}';
    byte quantities like "7.2MiB / 15.57GiB" go through
    humanize.ParseBytes

# Absence Semantics

Teardown paths treat a missing container as already gone:

  - StopContainer and RemoveContainer succeed when the daemon reports
    "No such container"
  - IsRunning returns (false, nil) for a missing container and a
    non-nil error only for daemon failures

This makes slot clearing idempotent. A deploy can always stop and
remove the target slot before starting into it, whether or not a
previous version ever ran there.

# Port Eviction

FreeHostPort lists containers publishing the target host port and
stops and removes each one. It catches strays that survived a crash or
were started outside the engine and would otherwise make docker run
fail with a port bind error.

# Usage

	engine := container.NewEngine(exec.NewRunner())
	if err := engine.BuildImage(ctx, tag, contextDir); err != nil {
		return err
	}
	id, err := engine.StartContainer(ctx, container.StartSpec{
		Name:     "web-blue",
		Image:    tag,
		Network:  "versiongate-net",
		HostPort: 3100,
		AppPort:  8080,
		Env:      project.Env,
	})
*/
package container
