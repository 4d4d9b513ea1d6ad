package framework

import (
	"fmt"
	"os"
	"strings"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// TestingT is an interface matching testing.T
type TestingT interface {
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	FailNow()
	Failed() bool
	Name() string
	Helper()
}

// Assertions provides test assertion helpers over a harness
type Assertions struct {
	t TestingT
	h *Harness
}

// NewAssertions creates a new Assertions instance
func NewAssertions(t TestingT, h *Harness) *Assertions {
	return &Assertions{t: t, h: h}
}

// DeploymentStatus asserts that a deployment row holds the expected status
func (a *Assertions) DeploymentStatus(deploymentID string, expected types.DeploymentStatus) {
	a.t.Helper()

	d, err := a.h.Store.GetDeployment(deploymentID)
	if err != nil {
		a.t.Fatalf("Failed to get deployment %s: %v", deploymentID, err)
	}

	if d.Status != expected {
		a.t.Fatalf("Deployment %s has status %s, expected %s", deploymentID, d.Status, expected)
	}
}

// DeploymentFailedWith asserts that a deployment is FAILED with the exact
// error message
func (a *Assertions) DeploymentFailedWith(deploymentID, message string) {
	a.t.Helper()

	d, err := a.h.Store.GetDeployment(deploymentID)
	if err != nil {
		a.t.Fatalf("Failed to get deployment %s: %v", deploymentID, err)
	}

	if d.Status != types.StatusFailed {
		a.t.Fatalf("Deployment %s has status %s, expected %s", deploymentID, d.Status, types.StatusFailed)
	}

	if d.ErrorMessage != message {
		a.t.Fatalf("Deployment %s failed with %q, expected %q", deploymentID, d.ErrorMessage, message)
	}
}

// ContainerRunning asserts that a container exists on the fake host and
// is running
func (a *Assertions) ContainerRunning(name string) {
	a.t.Helper()

	fc, ok := a.h.Commander.Container(name)
	if !ok {
		a.t.Fatalf("Container %s does not exist", name)
	}

	if !fc.Running {
		a.t.Fatalf("Container %s exists but is not running", name)
	}
}

// ContainerGone asserts that no container by this name exists
func (a *Assertions) ContainerGone(name string) {
	a.t.Helper()

	if fc, ok := a.h.Commander.Container(name); ok {
		a.t.Fatalf("Container %s still exists (running: %v), expected it to be removed", name, fc.Running)
	}
}

// Routed asserts that live traffic points at the expected host port
func (a *Assertions) Routed(port int) {
	a.t.Helper()

	if current := a.h.RoutedPort(); current != port {
		a.t.Fatalf("Traffic routes to port %d, expected %d", current, port)
	}
}

// UpstreamFile asserts the nginx upstream config holds exactly the
// rendered block for the given port
func (a *Assertions) UpstreamFile(port int) {
	a.t.Helper()

	data, err := os.ReadFile(a.h.NginxConfig)
	if err != nil {
		a.t.Fatalf("Failed to read upstream config: %v", err)
	}

	want := fmt.Sprintf("upstream versiongate_backend {\n  server 127.0.0.1:%d;\n}\n", port)
	if string(data) != want {
		a.t.Fatalf("Upstream config mismatch:\ngot:\n%s\nwant:\n%s", data, want)
	}
}

// CallOrder asserts that commands matching the given prefixes were run in
// order. Other commands may be interleaved between them.
func (a *Assertions) CallOrder(prefixes ...string) {
	a.t.Helper()

	lines := a.h.Commander.CallLines()
	idx := 0
	for _, prefix := range prefixes {
		found := false
		for ; idx < len(lines); idx++ {
			if strings.HasPrefix(lines[idx], prefix) {
				found = true
				idx++
				break
			}
		}
		if !found {
			a.t.Fatalf("Command %q not found in order within recorded calls:\n  %s", prefix, strings.Join(lines, "\n  "))
		}
	}
}

// NoError asserts that the error is nil
func (a *Assertions) NoError(err error, msg string) {
	a.t.Helper()

	if err != nil {
		a.t.Fatalf("%s: %v", msg, err)
	}
}

// Equal asserts that two values are equal
func (a *Assertions) Equal(expected, actual interface{}, msg string) {
	a.t.Helper()

	if expected != actual {
		a.t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// Contains asserts that a string contains a substring
func (a *Assertions) Contains(haystack, needle, msg string) {
	a.t.Helper()

	if !strings.Contains(haystack, needle) {
		a.t.Fatalf("%s: expected %q to contain %q", msg, haystack, needle)
	}
}
