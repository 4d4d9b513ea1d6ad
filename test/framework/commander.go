package framework

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/exec"
)

// DefaultCommitSHA is what the fake git reports for HEAD until a
// scenario moves the branch with SetCommitSHA
const DefaultCommitSHA = "8d7f3b2a9c1e5f4d6b0a8c7e2f1d3b5a4c6e8d0f"

const defaultStatsRow = `{"CPUPerc":"1.25%","MemUsage":"38.5MiB / 512MiB","MemPerc":"7.52%","NetIO":"648kB / 1.6MB","PIDs":"23"}`

// Call is one recorded command invocation
type Call struct {
	Command string
	Args    []string
	Dir     string
}

// Line renders the call the way a shell history would show it
func (c Call) Line() string {
	return c.Command + " " + strings.Join(c.Args, " ")
}

// FakeContainer is the commander's record of a launched container
type FakeContainer struct {
	ID       string
	Name     string
	Image    string
	HostPort int
	Running  bool
}

// Commander plays the host's docker, git, and nginx binaries in memory.
// It records every invocation, keeps a container table the way a daemon
// would, and lets scenarios script failures, block commands mid-flight,
// and kill containers under the engine's feet.
type Commander struct {
	mu         sync.Mutex
	calls      []Call
	containers map[string]*FakeContainer
	networks   map[string]bool
	logs       map[string]string
	statsRow   string
	sha        string
	reloads    int
	nextID     int
	failures   []scriptedFailure
	blocks     []scriptedBlock
}

type scriptedFailure struct {
	prefix string
	msg    string
}

type scriptedBlock struct {
	prefix  string
	release chan struct{}
}

// NewCommander creates a fake host with no containers and a clean call log
func NewCommander() *Commander {
	return &Commander{
		containers: make(map[string]*FakeContainer),
		networks:   make(map[string]bool),
		logs:       make(map[string]string),
		statsRow:   defaultStatsRow,
		sha:        DefaultCommitSHA,
	}
}

// Run implements exec.Commander
func (c *Commander) Run(ctx context.Context, command string, args []string, opts exec.Options) (exec.Result, error) {
	line := command + " " + strings.Join(args, " ")

	c.mu.Lock()
	c.calls = append(c.calls, Call{Command: command, Args: append([]string(nil), args...), Dir: opts.Dir})
	release := c.popBlock(line)
	c.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return exec.Result{}, &exec.ExecError{
				Command:  command,
				Args:     args,
				ExitCode: -1,
				TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
				Err:      ctx.Err(),
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg, ok := c.popFailure(line); ok {
		return commandFailed(command, args, msg)
	}

	switch command {
	case "git":
		return c.git(args)
	case "docker":
		return c.docker(args)
	case "nginx":
		c.reloads++
		return exec.Result{}, nil
	default:
		return commandFailed(command, args, command+": command not scripted")
	}
}

func (c *Commander) git(args []string) (exec.Result, error) {
	switch args[0] {
	case "clone":
		if err := materializeRepo(args[len(args)-1]); err != nil {
			return commandFailed("git", args, err.Error())
		}
		return exec.Result{}, nil
	case "fetch", "reset":
		return exec.Result{}, nil
	case "rev-parse":
		out := c.sha + "\n"
		return exec.Result{Stdout: out, Combined: out}, nil
	default:
		return commandFailed("git", args, "git "+args[0]+": not scripted")
	}
}

func (c *Commander) docker(args []string) (exec.Result, error) {
	switch args[0] {
	case "build":
		return exec.Result{Combined: "Successfully built\n"}, nil

	case "run":
		return c.dockerRun(args)

	case "stop":
		target := args[len(args)-1]
		cont := c.find(target)
		if cont == nil {
			return noSuchContainer(args, target)
		}
		cont.Running = false
		return exec.Result{Stdout: target + "\n"}, nil

	case "rm":
		target := args[len(args)-1]
		cont := c.find(target)
		if cont == nil {
			return noSuchContainer(args, target)
		}
		delete(c.containers, cont.Name)
		return exec.Result{Stdout: target + "\n"}, nil

	case "inspect":
		target := args[len(args)-1]
		cont := c.find(target)
		if cont == nil {
			return noSuchContainer(args, target)
		}
		out := strconv.FormatBool(cont.Running) + "\n"
		return exec.Result{Stdout: out, Combined: out}, nil

	case "ps":
		return c.dockerPS(args)

	case "logs":
		target := args[len(args)-1]
		if c.find(target) == nil {
			return noSuchContainer(args, target)
		}
		out := c.logs[target]
		return exec.Result{Stdout: out, Combined: out}, nil

	case "stats":
		target := args[len(args)-1]
		if c.find(target) == nil {
			return noSuchContainer(args, target)
		}
		out := c.statsRow + "\n"
		return exec.Result{Stdout: out, Combined: out}, nil

	case "network":
		name := args[len(args)-1]
		if args[1] == "create" {
			c.networks[name] = true
			return exec.Result{}, nil
		}
		if !c.networks[name] {
			return commandFailed("docker", args, "Error: No such network: "+name)
		}
		return exec.Result{}, nil

	default:
		return commandFailed("docker", args, "docker "+args[0]+": not scripted")
	}
}

func (c *Commander) dockerRun(args []string) (exec.Result, error) {
	cont := &FakeContainer{Running: true}
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "--name":
			cont.Name = args[i+1]
		case "-p":
			host, _, ok := strings.Cut(args[i+1], ":")
			if !ok {
				return commandFailed("docker", args, "invalid port mapping "+args[i+1])
			}
			cont.HostPort, _ = strconv.Atoi(host)
		}
	}
	cont.Image = args[len(args)-1]
	if cont.Name == "" {
		return commandFailed("docker", args, "container name is required")
	}
	if existing := c.containers[cont.Name]; existing != nil {
		msg := fmt.Sprintf("Error response from daemon: Conflict. The container name %q is already in use", cont.Name)
		return commandFailed("docker", args, msg)
	}

	c.nextID++
	cont.ID = fmt.Sprintf("%012x", c.nextID)
	c.containers[cont.Name] = cont
	return exec.Result{Stdout: cont.ID + "\n", Combined: cont.ID + "\n"}, nil
}

func (c *Commander) dockerPS(args []string) (exec.Result, error) {
	port := 0
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--filter" && strings.HasPrefix(args[i+1], "publish=") {
			port, _ = strconv.Atoi(strings.TrimPrefix(args[i+1], "publish="))
		}
	}

	var out strings.Builder
	for _, cont := range c.containers {
		if cont.Running && (port == 0 || cont.HostPort == port) {
			out.WriteString(cont.ID + "\n")
		}
	}
	return exec.Result{Stdout: out.String(), Combined: out.String()}, nil
}

// find resolves a container by name or ID
func (c *Commander) find(target string) *FakeContainer {
	if cont, ok := c.containers[target]; ok {
		return cont
	}
	for _, cont := range c.containers {
		if cont.ID == target {
			return cont
		}
	}
	return nil
}

// materializeRepo simulates a checkout: a .git marker plus a minimal
// Node project the Dockerfile synthesizer can detect
func materializeRepo(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		return err
	}
	pkg := "{\n  \"name\": \"app\",\n  \"scripts\": {\"start\": \"node server.js\"}\n}\n"
	return os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644)
}

// SetCommitSHA moves the fake branch head, as a push would
func (c *Commander) SetCommitSHA(sha string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sha = sha
}

// SetLogs scripts what docker logs returns for a container
func (c *Commander) SetLogs(name, logs string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs[name] = logs
}

// AddContainer registers a running container directly, for scenarios
// that model state left behind by a previous process
func (c *Commander) AddContainer(name string, hostPort int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.containers[name] = &FakeContainer{
		ID:       fmt.Sprintf("%012x", c.nextID),
		Name:     name,
		Image:    "seeded",
		HostPort: hostPort,
		Running:  true,
	}
}

// KillContainer flips a container to not-running, as a crash would.
// Reports whether the container existed.
func (c *Commander) KillContainer(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cont, ok := c.containers[name]
	if !ok {
		return false
	}
	cont.Running = false
	return true
}

// Container returns a copy of the named container's record
func (c *Commander) Container(name string) (FakeContainer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cont, ok := c.containers[name]
	if !ok {
		return FakeContainer{}, false
	}
	return *cont, true
}

// ContainerRunning reports whether the named container exists and runs
func (c *Commander) ContainerRunning(name string) bool {
	cont, ok := c.Container(name)
	return ok && cont.Running
}

// Reloads counts nginx reloads issued so far
func (c *Commander) Reloads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloads
}

// Calls returns the recorded invocations whose command line starts with
// prefix; an empty prefix returns everything
func (c *Commander) Calls(prefix string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Call
	for _, call := range c.calls {
		if prefix == "" || strings.HasPrefix(call.Line(), prefix) {
			out = append(out, call)
		}
	}
	return out
}

// CallLines returns every recorded command line in order
func (c *Commander) CallLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]string, len(c.calls))
	for i, call := range c.calls {
		lines[i] = call.Line()
	}
	return lines
}

// FailNext makes the next command whose line starts with prefix fail
// once with the given daemon message
func (c *Commander) FailNext(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, scriptedFailure{prefix: prefix, msg: msg})
}

// BlockNext makes the next command whose line starts with prefix hang
// until the returned release function is called
func (c *Commander) BlockNext(prefix string) (release func()) {
	ch := make(chan struct{})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, scriptedBlock{prefix: prefix, release: ch})

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (c *Commander) popFailure(line string) (string, bool) {
	for i, f := range c.failures {
		if strings.HasPrefix(line, f.prefix) {
			c.failures = append(c.failures[:i], c.failures[i+1:]...)
			return f.msg, true
		}
	}
	return "", false
}

func (c *Commander) popBlock(line string) chan struct{} {
	for i, b := range c.blocks {
		if strings.HasPrefix(line, b.prefix) {
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			return b.release
		}
	}
	return nil
}

func commandFailed(command string, args []string, msg string) (exec.Result, error) {
	res := exec.Result{Stderr: msg, Combined: msg, ExitCode: 1}
	return res, &exec.ExecError{
		Command:  command,
		Args:     args,
		Combined: msg,
		ExitCode: 1,
	}
}

func noSuchContainer(args []string, target string) (exec.Result, error) {
	return commandFailed("docker", args, "Error response from daemon: No such container: "+target)
}
