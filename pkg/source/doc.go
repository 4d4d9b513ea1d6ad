/*
Package source materializes project git repositories into per-project
workspaces.

Each project owns one directory under the configured projects root,
keyed by project ID, so renaming a project never orphans its checkout.
All git operations run through the command runner as fixed-argv
invocations of the git binary.

# Fetch Strategy

Prepare brings the workspace to the tip of origin/<branch>:

  - first deploy: git clone --branch B --single-branch URL DIR
  - later deploys: git fetch origin, then git reset --hard origin/B

The hard reset means local edits inside a workspace do not survive a
deploy. Workspaces are build inputs, not working copies.

Prepare resolves HEAD after checkout and returns the commit SHA, which
the pipeline stamps onto the deployment record.

Only https:// repository URLs are accepted. SSH remotes would need key
material inside the engine host, which the engine does not manage.

# Build Context Resolution

ContextDir resolves the project's configured build context relative to
the workspace and rejects any path that escapes it, so a context of
"../../etc" can never reach outside the checkout.

# Usage

	fetcher := source.NewFetcher(runner, cfg.ProjectsRoot)
	workspace, sha, err := fetcher.Prepare(ctx, project)
	if err != nil {
		return err
	}
	dir, err := source.ContextDir(workspace, project.BuildContext)
*/
package source
