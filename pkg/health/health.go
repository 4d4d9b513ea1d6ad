package health

import (
	"time"
)

// Policy controls how a new container is validated before traffic moves
type Policy struct {
	// MaxRetries is the number of probe attempts before giving up
	MaxRetries int

	// ProbeTimeout bounds a single HTTP probe round-trip
	ProbeTimeout time.Duration

	// RetryDelay is the pause between failed attempts
	RetryDelay time.Duration

	// MaxLatency is the slowest acceptable healthy response. A 200 that
	// arrives later than this counts as a failed attempt and is retried.
	MaxLatency time.Duration
}

// DefaultPolicy returns the policy deployments are validated with
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   15,
		ProbeTimeout: 5 * time.Second,
		RetryDelay:   2 * time.Second,
		MaxLatency:   2 * time.Second,
	}
}

// Result represents the outcome of a validation run
type Result struct {
	Healthy   bool
	Message   string
	Attempts  int
	CheckedAt time.Time
	Duration  time.Duration // round-trip of the final probe
}
