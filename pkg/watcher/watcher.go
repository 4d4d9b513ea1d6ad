package watcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/metrics"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// stoppedMessage is written to records whose container died in steady
// state. The API surfaces it verbatim.
const stoppedMessage = "Container stopped"

// Engine is the container-engine surface the watcher needs.
type Engine interface {
	IsRunning(ctx context.Context, name string) (bool, error)
}

// Watcher periodically audits ACTIVE deployments against the container
// engine and demotes records whose container is no longer running. It is
// the steady-state counterpart of the boot reconciler.
type Watcher struct {
	store    storage.Store
	engine   Engine
	broker   *events.Broker
	interval time.Duration
	logger   zerolog.Logger

	// tickRunning guards against overlapping ticks when the engine is
	// slow. 1 while a tick is in progress.
	tickRunning atomic.Bool
	stopCh      chan struct{}
}

// NewWatcher creates a watcher that ticks at the given interval.
func NewWatcher(store storage.Store, engine Engine, broker *events.Broker, interval time.Duration) *Watcher {
	return &Watcher{
		store:    store,
		engine:   engine,
		broker:   broker,
		interval: interval,
		logger:   log.WithComponent("watcher"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the audit loop in a background goroutine. The first tick
// fires one full interval after Start, not immediately: the boot
// reconciler has just verified every container, so an immediate pass
// would only repeat its work.
func (w *Watcher) Start() {
	go w.run()
	w.logger.Info().Dur("interval", w.interval).Msg("Container watcher started")
}

// Stop terminates the audit loop. A tick already in progress finishes.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopCh:
			return
		}
	}
}

// tick audits every ACTIVE deployment once. Overlapping ticks are
// skipped rather than queued: if the engine is slow enough that one
// audit outlasts the interval, stacking more audits behind it only
// makes things worse.
func (w *Watcher) tick() {
	if !w.tickRunning.CompareAndSwap(false, true) {
		w.logger.Debug().Msg("Previous tick still running, skipping")
		return
	}
	defer w.tickRunning.Store(false)

	metrics.WatcherTicks.Inc()

	active, err := w.store.ListDeploymentsByStatus(types.StatusActive)
	if err != nil {
		// Abort the whole tick; the next one retries from scratch.
		w.logger.Warn().Err(err).Msg("Failed to list active deployments, skipping tick")
		return
	}

	for _, d := range active {
		w.audit(d)
	}
}

// audit checks a single deployment. Failures here are isolated so one
// bad container cannot shadow the rest of the fleet.
func (w *Watcher) audit(d *types.Deployment) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	running, err := w.engine.IsRunning(ctx, d.ContainerName)
	if err != nil {
		w.logger.Warn().Err(err).Str("container", d.ContainerName).Msg("Failed to inspect container")
		return
	}
	if running {
		return
	}

	// The watcher only demotes records that are still ACTIVE. A retire
	// that landed while we were inspecting has already written the
	// terminal status and wins.
	fresh, err := w.store.GetDeployment(d.ID)
	if err != nil || fresh.Status != types.StatusActive {
		return
	}

	if err := w.store.MarkDeploymentStatus(d.ID, types.StatusFailed, stoppedMessage); err != nil {
		w.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("Failed to mark stopped deployment")
		return
	}

	metrics.WatcherFailuresDetected.Inc()
	w.broker.Publish(&events.Event{
		Type:         events.EventContainerStopped,
		ProjectID:    d.ProjectID,
		DeploymentID: d.ID,
		Message:      fmt.Sprintf("container %s stopped, version %d marked failed", d.ContainerName, d.Version),
	})
	w.logger.Warn().
		Str("deployment_id", d.ID).
		Str("project_id", d.ProjectID).
		Str("container", d.ContainerName).
		Int("version", d.Version).
		Msg("Active container stopped, deployment marked failed")
}
