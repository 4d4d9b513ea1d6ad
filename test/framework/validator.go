package framework

import (
	"context"
	"sync"
	"time"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/health"
)

// ScriptedValidator stands in for the loopback health prober. The
// default verdict is healthy on the first attempt; FailNext queues
// one unhealthy verdict per call.
type ScriptedValidator struct {
	mu      sync.Mutex
	queue   []health.Result
	checked []string
}

func NewScriptedValidator() *ScriptedValidator {
	return &ScriptedValidator{}
}

// Validate implements the pipeline's validator interface
func (v *ScriptedValidator) Validate(ctx context.Context, containerName string, port int, healthPath string) health.Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.checked = append(v.checked, containerName)
	if len(v.queue) > 0 {
		result := v.queue[0]
		v.queue = v.queue[1:]
		return result
	}
	return health.Result{
		Healthy:   true,
		Message:   "HTTP 200 OK",
		Attempts:  1,
		CheckedAt: time.Now().UTC(),
		Duration:  3 * time.Millisecond,
	}
}

// FailNext queues one failing verdict with the given message
func (v *ScriptedValidator) FailNext(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = append(v.queue, health.Result{
		Healthy:   false,
		Message:   message,
		Attempts:  15,
		CheckedAt: time.Now().UTC(),
	})
}

// Checked lists the container names validated so far, in order
func (v *ScriptedValidator) Checked() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.checked...)
}
