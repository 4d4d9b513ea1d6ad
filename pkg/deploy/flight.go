package deploy

import (
	"context"
	"sync"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
)

// flightTable serializes pipelines per project and carries cancel requests.
// One instance is owned by the Orchestrator.
type flightTable struct {
	mu        sync.Mutex
	inflight  map[string]context.CancelFunc
	cancelled map[string]bool
}

func newFlightTable() *flightTable {
	return &flightTable{
		inflight:  make(map[string]context.CancelFunc),
		cancelled: make(map[string]bool),
	}
}

// begin claims the project for a pipeline. The cancel func is invoked if a
// cancel request arrives while the pipeline runs.
func (f *flightTable) begin(projectID string, cancel context.CancelFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, held := f.inflight[projectID]; held {
		return errdefs.Conflict("Deployment already in progress")
	}
	f.inflight[projectID] = cancel
	return nil
}

// end releases the project. The cancel flag is cleared with the lock so a
// stale request can never leak into the next pipeline.
func (f *flightTable) end(projectID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inflight, projectID)
	delete(f.cancelled, projectID)
}

// requestCancel flags the in-flight pipeline and cancels its context.
func (f *flightTable) requestCancel(projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cancel, held := f.inflight[projectID]
	if !held {
		return errdefs.Validation("no deployment in progress for project %s", projectID)
	}

	f.cancelled[projectID] = true
	cancel()
	return nil
}

// cancelRequested reports whether a cancel request is pending.
func (f *flightTable) cancelRequested(projectID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled[projectID]
}

// held reports whether a pipeline is in flight for the project.
func (f *flightTable) held(projectID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, held := f.inflight[projectID]
	return held
}
