package integration

import (
	"errors"
	"regexp"
	"testing"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/client"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
	"github.com/dinexh/ZeroShift-Engine-sub000/test/framework"
)

// TestFirstDeployTakesBlueSlot tests the full pipeline for a brand new
// project: fetch → build → run → validate → switch → promote
func TestFirstDeployTakesBlueSlot(t *testing.T) {
	h := framework.NewHarness(t)
	assert := framework.NewAssertions(t, h)

	project := h.CreateProject(t, "web")
	assert.Equal(3100, project.BasePort, "first project base port")

	t.Log("Deploying version 1...")
	d := h.Deploy(t, project.ID)

	assert.Equal(1, d.Version, "first deployment version")
	assert.Equal(types.ColorBlue, d.Color, "first deployment slot")
	assert.Equal("web-blue", d.ContainerName, "container name")
	assert.Equal(3100, d.Port, "host port")
	assert.Equal(framework.DefaultCommitSHA, d.CommitSHA, "commit SHA")
	if ok, _ := regexp.MatchString(`^versiongate-web:\d+$`, d.ImageTag); !ok {
		t.Errorf("Unexpected image tag format: %s", d.ImageTag)
	}

	assert.DeploymentStatus(d.ID, types.StatusActive)
	assert.ContainerRunning("web-blue")
	fc, _ := h.Commander.Container("web-blue")
	assert.Equal(d.ImageTag, fc.Image, "container image")

	assert.Routed(3100)
	assert.UpstreamFile(3100)
	assert.Equal(1, h.Commander.Reloads(), "nginx reloads")

	assert.CallOrder("git clone", "docker build", "docker run", "nginx -s reload")
	t.Logf("✓ Version 1 live on port %d", d.Port)
}

// TestSecondDeployAlternatesSlots tests that consecutive deploys bounce
// between the blue and green slots and retire the displaced container
func TestSecondDeployAlternatesSlots(t *testing.T) {
	h := framework.NewHarness(t)
	assert := framework.NewAssertions(t, h)

	project := h.CreateProject(t, "web")
	first := h.Deploy(t, project.ID)

	h.Commander.SetCommitSHA("4f2e8c1d7b9a3e5f0c6d8b2a4e1f7c3d9b5a0e8f")
	t.Log("Deploying version 2...")
	second := h.Deploy(t, project.ID)

	assert.Equal(2, second.Version, "second deployment version")
	assert.Equal(types.ColorGreen, second.Color, "second deployment slot")
	assert.Equal("web-green", second.ContainerName, "container name")
	assert.Equal(3101, second.Port, "host port")
	assert.Equal("4f2e8c1d7b9a3e5f0c6d8b2a4e1f7c3d9b5a0e8f", second.CommitSHA, "commit SHA")

	assert.DeploymentStatus(second.ID, types.StatusActive)
	assert.DeploymentStatus(first.ID, types.StatusRolledBack)
	assert.ContainerRunning("web-green")
	assert.ContainerGone("web-blue")
	assert.Routed(3101)
	assert.UpstreamFile(3101)
	t.Log("✓ Version 2 took the green slot, version 1 retired")

	t.Log("Deploying version 3...")
	third := h.Deploy(t, project.ID)

	assert.Equal(3, third.Version, "third deployment version")
	assert.Equal(types.ColorBlue, third.Color, "third deployment slot")
	assert.ContainerRunning("web-blue")
	assert.ContainerGone("web-green")
	assert.Routed(3100)
	t.Log("✓ Version 3 bounced back to the blue slot")
}

// TestFailedDeployKeepsActiveVersion tests that a deploy whose health
// validation fails leaves the previous version live and untouched
func TestFailedDeployKeepsActiveVersion(t *testing.T) {
	h := framework.NewHarness(t)
	assert := framework.NewAssertions(t, h)

	project := h.CreateProject(t, "web")
	first := h.Deploy(t, project.ID)

	h.Validator.FailNext("health check failed after 15 attempts: connection refused")
	t.Log("Deploying a version that never becomes healthy...")
	_, err := h.Client.Deploy(project.ID)
	if err == nil {
		t.Fatal("Expected deploy to fail")
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected an API error, got: %v", err)
	}
	assert.Equal(500, apiErr.Status, "error status")
	assert.Equal("DeploymentError", apiErr.Kind, "error kind")

	deployments, err := h.Client.Deployments(project.ID)
	assert.NoError(err, "List deployments")
	var failed *types.Deployment
	for _, d := range deployments {
		if d.Version == 2 {
			failed = d
		}
	}
	if failed == nil {
		t.Fatal("No deployment record for the failed attempt")
	}
	assert.DeploymentFailedWith(failed.ID, "health check failed after 15 attempts: connection refused")

	// The previous version never moved
	assert.DeploymentStatus(first.ID, types.StatusActive)
	assert.ContainerRunning("web-blue")
	assert.ContainerGone("web-green")
	assert.Routed(3100)
	assert.Equal(1, h.Commander.Reloads(), "nginx reloads after failed deploy")
	t.Log("✓ Version 1 still live, failed attempt recorded and scrapped")
}
