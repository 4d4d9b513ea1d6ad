package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// Waiter provides utilities for waiting on conditions with timeouts
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a new Waiter with the given timeout and polling interval
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter tuned for in-process conditions
// (10s timeout, 20ms interval)
func DefaultWaiter() *Waiter {
	return NewWaiter(10*time.Second, 20*time.Millisecond)
}

// WaitFor waits for a condition to become true
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// WaitForDeploymentStatus waits for a deployment row to reach a status
func (w *Waiter) WaitForDeploymentStatus(ctx context.Context, store storage.Store, deploymentID string, status types.DeploymentStatus) error {
	return w.WaitFor(ctx, func() bool {
		d, err := store.GetDeployment(deploymentID)
		if err != nil {
			return false
		}
		return d.Status == status
	}, fmt.Sprintf("deployment %s to reach status %s", deploymentID, status))
}

// WaitForFlight waits for a project to have a deployment in flight
func (w *Waiter) WaitForFlight(ctx context.Context, pipeline interface{ InFlight(string) bool }, projectID string) error {
	return w.WaitFor(ctx, func() bool {
		return pipeline.InFlight(projectID)
	}, fmt.Sprintf("project %s to have a deployment in flight", projectID))
}

// WaitForContainerGone waits for the fake host to drop a container
func (w *Waiter) WaitForContainerGone(ctx context.Context, commander *Commander, name string) error {
	return w.WaitFor(ctx, func() bool {
		_, ok := commander.Container(name)
		return !ok
	}, fmt.Sprintf("container %s to be removed", name))
}
