/*
Package client provides a Go client library for the VersionGate REST API.

The client package wraps the HTTP control surface with a convenient,
idiomatic Go interface. It handles request encoding, error decoding, and
per-call timeouts, and provides type-safe methods for every engine
operation the CLI needs.

# Architecture

The client is a thin layer over net/http:

	┌──────────────────── APPLICATION CODE ──────────────────────┐
	│                                                            │
	│  c := client.NewClient("http://127.0.0.1:9090")            │
	│  project, err := c.ResolveProject("web")                   │
	│  result, err := c.Deploy(project.ID)                       │
	│                                                            │
	└──────────────────┬─────────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/client ─────────────────────────┐
	│                                                            │
	│  Typed methods        CreateProject, Deploy, Rollback,     │
	│                       Status, Logs, Metrics, Events, ...   │
	│  Error decoding       non-2xx body -> *APIError            │
	│  Timeouts             10s per request, 30m for pipeline    │
	│                       operations that block on a build     │
	│                                                            │
	└──────────────────┬─────────────────────────────────────────┘
	                   │ HTTP + JSON (/api/v1)
	                   ▼
	           VersionGate API Server

# Blocking Operations

Deploy and Rollback are synchronous on the server side: the response
arrives only after the pipeline has finished (or failed). The client
gives these calls a 30 minute budget instead of the usual 10 seconds.
Cancellation is an explicit operation (CancelDeploy), not something that
happens when the caller goes away.

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status
and the server's error payload (kind, message, optional detail code).
APIError.Error() yields the server's message, so CLI commands can print
errors verbatim. IsNotFound recognizes 404s for create-or-update flows.

# Name Resolution

The REST API addresses projects by ID. ResolveProject accepts either a
project name or an ID and returns the full record, so commands like
"versiongate deploy web" work without the operator ever seeing an ID.

# Usage

	c := client.NewClient(client.DefaultServer)

	project, err := c.CreateProject(client.ProjectSpec{
		Name:    "web",
		RepoURL: "https://github.com/acme/web.git",
		Branch:  "main",
		AppPort: 8080,
	})
	if err != nil {
		return err
	}

	result, err := c.Deploy(project.ID)
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
*/
package client
