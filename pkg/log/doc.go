/*
Package log provides structured logging for VersionGate using zerolog.

The log package wraps the zerolog library to provide JSON-structured
logging with component-scoped child loggers, configurable log levels, and
helper functions for common patterns. All logs carry timestamps and can be
filtered by severity for production debugging.

# Architecture

A single global logger is initialized once at process start and every
component derives a child from it:

	log.Init(cfg)            // once, in serve
	    │
	    ├── log.WithComponent("deploy")     // per package
	    ├── log.WithComponent("watcher")
	    ├── log.WithProject(projectID)      // per request scope
	    └── log.WithDeployment(deploymentID)

Child loggers are values; deriving one allocates nothing at log time and
the parent is never mutated. Field names are fixed by the helpers
(component, project_id, deployment_id), so log aggregation can rely on
them across the whole engine.

# Configuration

	log.Init(log.Config{
		Level:      log.InfoLevel, // debug, info, warn, error
		JSONOutput: true,          // false renders a human console format
		Output:     nil,           // nil means os.Stdout
	})

JSON output is one object per line, suitable for shipping as-is:

	{"level":"info","component":"deploy","project":"web","version":3,"time":"2026-08-25T12:04:11Z","message":"Deployment complete"}

Console output is for interactive runs and development.

# Usage

Packages hold a component logger in their structs:

	logger: log.WithComponent("traffic")

	s.logger.Info().Int("port", port).Msg("Traffic switched")
	s.logger.Warn().Err(err).Msg("Failed to stop previous container")

Top-level helpers (log.Info, log.Warn, log.Errorf, log.Fatal) exist for
call sites without a scoped logger, mainly process bootstrap.

An uninitialized Logger is a zero-value zerolog.Logger writing to a nil
writer, which discards everything. Tests rely on this: packages under
test log freely without any Init call and produce no output.

# Log Levels

  - debug: per-attempt detail (probe failures, stale container cleanup)
  - info: lifecycle milestones (deployment started, traffic switched)
  - warn: degraded but continuing (retire couldn't stop old container)
  - error: operation failed (pipeline failure, store write error)

Fatal logs and exits; it appears only in main-path bootstrap code.
*/
package log
