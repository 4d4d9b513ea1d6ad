package container

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/exec"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
)

const dockerBin = "docker"

// Per-operation timeouts. Builds get a long leash, everything else is
// a daemon round-trip.
const (
	buildTimeout   = 30 * time.Minute
	startTimeout   = 2 * time.Minute
	stopTimeout    = 90 * time.Second
	inspectTimeout = 15 * time.Second
	logsTimeout    = 30 * time.Second
	statsTimeout   = 30 * time.Second
)

// StartSpec describes a container to launch
type StartSpec struct {
	Name     string
	Image    string
	Network  string
	HostPort int
	AppPort  int
	Env      map[string]string
}

// Engine drives the Docker daemon through its CLI. Every operation is a
// single fixed-argv invocation routed through the command runner, never
// a shell line.
type Engine struct {
	runner exec.Commander
	logger zerolog.Logger
}

// NewEngine creates a Docker engine adapter on top of the given runner
func NewEngine(runner exec.Commander) *Engine {
	return &Engine{
		runner: runner,
		logger: log.WithComponent("container"),
	}
}

// BuildImage builds dir into an image tagged tag
func (e *Engine) BuildImage(ctx context.Context, tag, dir string) error {
	e.logger.Info().Str("image", tag).Str("dir", dir).Msg("Building image")

	_, err := e.runner.Run(ctx, dockerBin, []string{"build", "-t", tag, dir}, exec.Options{Timeout: buildTimeout})
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w", tag, err)
	}
	return nil
}

// StartContainer launches a detached container from the given StartSpec
// and returns the container ID reported by the daemon
func (e *Engine) StartContainer(ctx context.Context, spec StartSpec) (string, error) {
	args := []string{
		"run", "-d",
		"--name", spec.Name,
		"--restart", "unless-stopped",
	}
	if spec.Network != "" {
		args = append(args, "--network", spec.Network)
	}
	args = append(args, "-p", fmt.Sprintf("%d:%d", spec.HostPort, spec.AppPort))

	// Sorted so the argv is deterministic
	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+spec.Env[k])
	}
	args = append(args, spec.Image)

	e.logger.Info().Str("container", spec.Name).Str("image", spec.Image).
		Int("host_port", spec.HostPort).Msg("Starting container")

	res, err := e.runner.Run(ctx, dockerBin, args, exec.Options{Timeout: startTimeout})
	if err != nil {
		return "", fmt.Errorf("failed to start container %s: %w", spec.Name, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// StopContainer stops a container. A container that does not exist
// counts as stopped.
func (e *Engine) StopContainer(ctx context.Context, name string) error {
	_, err := e.runner.Run(ctx, dockerBin, []string{"stop", name}, exec.Options{Timeout: stopTimeout})
	if err != nil && !isNoSuchContainer(err) {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}
	return nil
}

// RemoveContainer force-removes a container. Absence counts as removed.
func (e *Engine) RemoveContainer(ctx context.Context, name string) error {
	_, err := e.runner.Run(ctx, dockerBin, []string{"rm", "-f", name}, exec.Options{Timeout: stopTimeout})
	if err != nil && !isNoSuchContainer(err) {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}
	return nil
}

// IsRunning reports whether the named container exists and is running
func (e *Engine) IsRunning(ctx context.Context, name string) (bool, error) {
	res, err := e.runner.Run(ctx, dockerBin,
		[]string{"inspect", "-f", "{{.State.Running}}", name},
		exec.Options{Timeout: inspectTimeout})
	if err != nil {
		if isNoSuchContainer(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	return strings.TrimSpace(res.Stdout) == "true", nil
}

// Logs returns the last tail lines of a container's output, stdout and
// stderr interleaved
func (e *Engine) Logs(ctx context.Context, name string, tail int) (string, error) {
	if tail <= 0 {
		tail = 100
	}
	res, err := e.runner.Run(ctx, dockerBin,
		[]string{"logs", "--tail", strconv.Itoa(tail), name},
		exec.Options{Timeout: logsTimeout})
	if err != nil {
		return "", fmt.Errorf("failed to read logs of %s: %w", name, err)
	}
	return res.Combined, nil
}

// FreeHostPort stops and removes any container currently publishing the
// given host port
func (e *Engine) FreeHostPort(ctx context.Context, port int) error {
	res, err := e.runner.Run(ctx, dockerBin,
		[]string{"ps", "--filter", fmt.Sprintf("publish=%d", port), "--format", "{{.ID}}"},
		exec.Options{Timeout: inspectTimeout})
	if err != nil {
		return fmt.Errorf("failed to list containers on port %d: %w", port, err)
	}

	for _, id := range strings.Fields(res.Stdout) {
		e.logger.Warn().Str("container_id", id).Int("port", port).Msg("Evicting container holding target port")
		if err := e.StopContainer(ctx, id); err != nil {
			return err
		}
		if err := e.RemoveContainer(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// EnsureNetwork creates the named bridge network if it does not exist
func (e *Engine) EnsureNetwork(ctx context.Context, name string) error {
	_, err := e.runner.Run(ctx, dockerBin, []string{"network", "inspect", name}, exec.Options{Timeout: inspectTimeout})
	if err == nil {
		return nil
	}

	e.logger.Info().Str("network", name).Msg("Creating docker network")
	if _, err := e.runner.Run(ctx, dockerBin, []string{"network", "create", name}, exec.Options{Timeout: inspectTimeout}); err != nil {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return nil
}

func isNoSuchContainer(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such container") || strings.Contains(msg, "no such object")
}
