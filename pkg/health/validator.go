package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
)

// RunningChecker reports whether a container is still up. Implemented
// by the container engine.
type RunningChecker interface {
	IsRunning(ctx context.Context, name string) (bool, error)
}

// Validator decides whether a freshly started container is fit to
// receive traffic. It probes the app's health endpoint over loopback,
// retrying transient failures, and fails fast when the container itself
// dies during the window.
type Validator struct {
	engine RunningChecker
	policy Policy
	client *http.Client
	logger zerolog.Logger
}

func NewValidator(engine RunningChecker, policy Policy) *Validator {
	return &Validator{
		engine: engine,
		policy: policy,
		client: &http.Client{},
		logger: log.WithComponent("validator"),
	}
}

// Validate probes http://127.0.0.1:<port><healthPath> until it passes
// or the policy is exhausted. The result is never an error: callers
// branch on Result.Healthy.
func (v *Validator) Validate(ctx context.Context, containerName string, port int, healthPath string) Result {
	url := fmt.Sprintf("http://127.0.0.1:%d%s", port, healthPath)

	var lastFailure string
	for attempt := 1; attempt <= v.policy.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return Result{
				Healthy:   false,
				Message:   "validation cancelled",
				Attempts:  attempt,
				CheckedAt: time.Now().UTC(),
			}
		}

		// A dead container will never come around; skip the wait
		running, err := v.engine.IsRunning(ctx, containerName)
		if err == nil && !running {
			return Result{
				Healthy:   false,
				Message:   "container exited during validation",
				Attempts:  attempt,
				CheckedAt: time.Now().UTC(),
			}
		}

		ok, latency, msg := v.probe(ctx, url)
		if ok {
			return Result{
				Healthy:   true,
				Message:   msg,
				Attempts:  attempt,
				CheckedAt: time.Now().UTC(),
				Duration:  latency,
			}
		}
		lastFailure = msg
		v.logger.Debug().Str("url", url).Int("attempt", attempt).Str("reason", msg).Msg("Probe failed")

		if attempt < v.policy.MaxRetries {
			select {
			case <-ctx.Done():
			case <-time.After(v.policy.RetryDelay):
			}
		}
	}

	return Result{
		Healthy:   false,
		Message:   fmt.Sprintf("health check failed after %d attempts: %s", v.policy.MaxRetries, lastFailure),
		Attempts:  v.policy.MaxRetries,
		CheckedAt: time.Now().UTC(),
	}
}

// probe performs one GET against the health endpoint. Healthy means a
// 2xx/3xx status inside the latency budget.
func (v *Validator) probe(ctx context.Context, url string) (bool, time.Duration, string) {
	ctx, cancel := context.WithTimeout(ctx, v.policy.ProbeTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, 0, fmt.Sprintf("failed to create request: %v", err)
	}

	resp, err := v.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return false, latency, fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return false, latency, fmt.Sprintf("HTTP %d %s (expected 200-399)", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if latency > v.policy.MaxLatency {
		return false, latency, fmt.Sprintf("HTTP %d but took %s (budget %s)", resp.StatusCode, latency.Round(time.Millisecond), v.policy.MaxLatency)
	}

	return true, latency, fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
