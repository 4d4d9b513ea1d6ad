/*
Package dockerfile detects a project's build flavor and synthesizes a
Dockerfile when the repository ships without one.

# Sentinel Contract

Generated files start with the sentinel line:

	# VersionGate:auto-generated

Only files carrying the sentinel on their first line are ever
rewritten. A hand-written Dockerfile anywhere in the search order wins
outright and is never modified. Generated files are re-rendered on
every deploy, so template fixes reach existing projects without manual
intervention.

# Detection Order

Ensure walks candidate roots until one holds a hand-written Dockerfile
or a recognizable project:

 1. the configured build context
 2. the repository root (when distinct)
 3. each immediate subdirectory of the root, sorted by name, skipping
    hidden directories and node_modules

The winning directory becomes the build context for the image build.
When no candidate matches, Ensure fails with a detection error naming
the marker files it looked for.

# Project Kinds

	marker              kind        base image
	package.json        node-*      node:20-alpine / oven/bun:1
	requirements.txt    python      python:3.12-slim
	go.mod              go          golang:1.25-alpine (multi-stage)

Node projects subdivide by package manager. A bun mention in the start
or build script forces bun; otherwise the lockfile decides, checked in
order: bun.lockb or bun.lock, yarn.lock, pnpm-lock.yaml, falling back
to npm. A build script in package.json adds a RUN build step before
the start command.

Python projects run app.py, or main.py when app.py is absent. Go
projects compile with CGO_ENABLED=0 in a build stage and run the
static binary on alpine.

All templates EXPOSE the project's configured application port.

# Usage

	synth := dockerfile.NewSynthesizer()
	buildDir, generated, err := synth.Ensure(contextDir, repoRoot, project.AppPort)
	if err != nil {
		return err // no Dockerfile and nothing recognizable
	}
	// buildDir now holds a usable Dockerfile; generated reports
	// whether this call wrote it
*/
package dockerfile
