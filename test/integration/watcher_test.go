package integration

import (
	"context"
	"testing"
	"time"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
	"github.com/dinexh/ZeroShift-Engine-sub000/test/framework"
)

// TestWatcherFlagsStoppedContainer tests that the steady-state watcher
// notices a dead container and demotes its deployment
func TestWatcherFlagsStoppedContainer(t *testing.T) {
	h := framework.NewHarness(t)
	assert := framework.NewAssertions(t, h)

	project := h.CreateProject(t, "web")
	d := h.Deploy(t, project.ID)
	assert.DeploymentStatus(d.ID, types.StatusActive)

	h.StartWatcher(t, 25*time.Millisecond)

	t.Log("Killing the live container behind the watcher's back...")
	if !h.Commander.KillContainer("web-blue") {
		t.Fatal("Failed to kill container")
	}

	waiter := framework.DefaultWaiter()
	err := waiter.WaitForDeploymentStatus(context.Background(), h.Store, d.ID, types.StatusFailed)
	assert.NoError(err, "Wait for demotion")

	fresh, err := h.Store.GetDeployment(d.ID)
	assert.NoError(err, "Get deployment")
	assert.Equal("Container stopped", fresh.ErrorMessage, "error message")

	evts, err := h.Client.Events(50)
	assert.NoError(err, "List events")
	stopped := false
	for _, e := range evts {
		if e.Type == events.EventContainerStopped {
			stopped = true
		}
	}
	if !stopped {
		t.Error("Expected a watcher.container_stopped event")
	}
	t.Log("✓ Watcher demoted the deployment and published the event")
}
