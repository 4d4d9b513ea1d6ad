package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/exec"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

const (
	cloneTimeout = 10 * time.Minute
	gitTimeout   = 2 * time.Minute
)

// Fetcher materializes project sources under a fixed workspace root,
// one directory per project ID
type Fetcher struct {
	runner exec.Commander
	root   string
	logger zerolog.Logger
}

func NewFetcher(runner exec.Commander, root string) *Fetcher {
	return &Fetcher{
		runner: runner,
		root:   root,
		logger: log.WithComponent("source"),
	}
}

// Prepare brings the project workspace to the tip of origin/<branch>
// and returns the workspace directory plus the checked-out commit SHA.
// First deploy clones, subsequent deploys fetch and hard-reset; local
// edits in the workspace do not survive.
func (f *Fetcher) Prepare(ctx context.Context, project *types.Project) (string, string, error) {
	if !strings.HasPrefix(project.RepoURL, "https://") {
		return "", "", fmt.Errorf("repository URL must be https, got %q", project.RepoURL)
	}

	dir := filepath.Join(f.root, project.ID)

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		f.logger.Info().Str("dir", dir).Str("branch", project.Branch).Msg("Updating existing workspace")

		if _, err := f.runner.Run(ctx, "git", []string{"fetch", "origin"}, exec.Options{Dir: dir, Timeout: cloneTimeout}); err != nil {
			return "", "", fmt.Errorf("failed to fetch origin: %w", err)
		}
		if _, err := f.runner.Run(ctx, "git", []string{"reset", "--hard", "origin/" + project.Branch}, exec.Options{Dir: dir, Timeout: gitTimeout}); err != nil {
			return "", "", fmt.Errorf("failed to reset to origin/%s: %w", project.Branch, err)
		}
	} else {
		if err := os.MkdirAll(f.root, 0o755); err != nil {
			return "", "", fmt.Errorf("failed to create projects root: %w", err)
		}

		f.logger.Info().Str("repo", project.RepoURL).Str("branch", project.Branch).Msg("Cloning repository")
		args := []string{"clone", "--branch", project.Branch, "--single-branch", project.RepoURL, dir}
		if _, err := f.runner.Run(ctx, "git", args, exec.Options{Timeout: cloneTimeout}); err != nil {
			return "", "", fmt.Errorf("failed to clone %s: %w", project.RepoURL, err)
		}
	}

	res, err := f.runner.Run(ctx, "git", []string{"rev-parse", "HEAD"}, exec.Options{Dir: dir, Timeout: gitTimeout})
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return dir, strings.TrimSpace(res.Stdout), nil
}

// ContextDir resolves a project's build context inside its workspace.
// The context must stay within the workspace.
func ContextDir(workspace, buildContext string) (string, error) {
	if buildContext == "" || buildContext == "." {
		return workspace, nil
	}

	dir := filepath.Clean(filepath.Join(workspace, buildContext))
	if dir != workspace && !strings.HasPrefix(dir, workspace+string(filepath.Separator)) {
		return "", fmt.Errorf("build context %q escapes the workspace", buildContext)
	}
	return dir, nil
}
