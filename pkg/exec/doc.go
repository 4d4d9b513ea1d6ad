/*
Package exec runs external commands for the engine with fixed argument
vectors and bounded output.

Every binary the engine shells out to (docker, git, nginx) goes through
this package. Argv is handed to the kernel exactly as built by the
caller; no string is ever interpreted by a shell, so repository URLs,
branch names, and environment values cannot inject commands.

# Core Types

Commander:
  - Single-method interface: Run(ctx, command, args, opts)
  - Production code uses Runner; tests substitute scripted fakes
  - Everything above this package is testable without spawning processes

Options:
  - Timeout: per-run deadline layered onto the caller's context
  - MaxOutputBytes: retention cap, zero means DefaultMaxOutputBytes (50 MiB)
  - Dir: working directory for the child process

Result:
  - Stdout, Stderr, and Combined (both streams in arrival order)
  - Combined is what gets persisted as a build log

ExecError:
  - Returned for non-zero exit, failure to start, or a kill
  - Carries the argv, exit code, a TimedOut flag, and the combined output
  - Error() includes the trimmed output so the daemon's own message
    ("No such container", "pull access denied") survives into wrapped
    errors and API responses
  - Unwrap exposes the underlying os/exec error

# Execution Model

	caller ctx ──┐
	             ├─→ effective deadline (whichever fires first)
	Options.Timeout ─┘
	             │
	     exec.CommandContext
	             │
	   stdout ──→ capped buffer ──┐
	   stderr ──→ capped buffer ──┼─→ Result
	   both   ──→ capped buffer ──┘

A command that exceeds the deadline is killed and reported with
TimedOut set. Output beyond the cap is dropped, not buffered; a
truncated stream ends with an "[output truncated]" marker so readers
of persisted logs know bytes are missing.

# Usage

	runner := exec.NewRunner()
	res, err := runner.Run(ctx, "docker", []string{"build", "-t", tag, dir},
		exec.Options{Timeout: 30 * time.Minute})
	if err != nil {
		var execErr *exec.ExecError
		if errors.As(err, &execErr) && execErr.TimedOut {
			// deadline hit, res.Combined holds the partial build log
		}
	}
*/
package exec
