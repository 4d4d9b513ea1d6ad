package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultMaxOutputBytes caps the output retained per command run (50 MiB).
// Build logs beyond the cap are dropped, not buffered.
const DefaultMaxOutputBytes = 50 * 1024 * 1024

// Commander runs external commands. Production code uses Runner; tests
// substitute scripted fakes.
type Commander interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

// Options tunes a single command run
type Options struct {
	Timeout        time.Duration // zero means no timeout beyond ctx
	MaxOutputBytes int64         // zero means DefaultMaxOutputBytes
	Dir            string        // working directory, empty inherits the process cwd
}

// Result carries the streams of a finished command
type Result struct {
	Stdout   string
	Stderr   string
	Combined string // stdout and stderr interleaved in arrival order
	ExitCode int
}

// ExecError reports a command that exited non-zero, failed to start, or
// was killed. Combined output rides along so callers can persist build
// logs with the failure.
type ExecError struct {
	Command  string
	Args     []string
	Combined string
	ExitCode int
	TimedOut bool
	Err      error
}

func (e *ExecError) Error() string {
	argv := e.Command
	if len(e.Args) > 0 {
		argv += " " + strings.Join(e.Args, " ")
	}
	reason := fmt.Sprintf("exit %d", e.ExitCode)
	if e.TimedOut {
		reason = "timed out"
	}
	out := strings.TrimSpace(e.Combined)
	if out == "" {
		return fmt.Sprintf("command %q failed (%s)", argv, reason)
	}
	return fmt.Sprintf("command %q failed (%s): %s", argv, reason, out)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Runner executes commands directly through the OS. Argv is passed to
// the kernel as given; nothing is ever interpreted by a shell.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	limit := opts.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	stdout := newCappedBuffer(limit)
	stderr := newCappedBuffer(limit)
	combined := newCappedBuffer(limit)

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.Dir
	cmd.Stdout = io.MultiWriter(stdout, combined)
	cmd.Stderr = io.MultiWriter(stderr, combined)

	runErr := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
	}
	if runErr == nil {
		return res, nil
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}

	return res, &ExecError{
		Command:  command,
		Args:     args,
		Combined: res.Combined,
		ExitCode: res.ExitCode,
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Err:      runErr,
	}
}

// cappedBuffer retains at most limit bytes and silently drops the rest.
// exec writes stdout and stderr from separate goroutines, so every
// write is serialized here.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func newCappedBuffer(limit int64) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.limit - int64(b.buf.Len())
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return b.buf.String() + "\n[output truncated]"
	}
	return b.buf.String()
}
