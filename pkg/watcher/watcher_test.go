package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/metrics"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// fakeEngine answers IsRunning from a scripted map. onInspect, when set,
// runs before the answer is returned; blockCh, when set, makes every
// inspect wait until the channel is closed.
type fakeEngine struct {
	mu        sync.Mutex
	running   map[string]bool
	errs      map[string]error
	asked     []string
	onInspect func(name string)
	blockCh   chan struct{}
}

func (e *fakeEngine) IsRunning(ctx context.Context, name string) (bool, error) {
	e.mu.Lock()
	e.asked = append(e.asked, name)
	onInspect, blockCh := e.onInspect, e.blockCh
	e.mu.Unlock()

	if blockCh != nil {
		<-blockCh
	}
	if onInspect != nil {
		onInspect(name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.errs != nil {
		if err := e.errs[name]; err != nil {
			return false, err
		}
	}
	return e.running[name], nil
}

func (e *fakeEngine) inspectCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.asked)
}

func newStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "watcher-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedProject(t *testing.T, store storage.Store, name string, basePort int) *types.Project {
	t.Helper()
	now := time.Now()
	p := &types.Project{
		ID:            uuid.New().String(),
		Name:          name,
		RepoURL:       "https://github.com/acme/" + name,
		Branch:        "main",
		BuildContext:  ".",
		AppPort:       3000,
		BasePort:      basePort,
		HealthPath:    "/health",
		WebhookSecret: uuid.New().String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.CreateProject(p))
	return p
}

func seedActive(t *testing.T, store storage.Store, p *types.Project, version int, color types.Color) *types.Deployment {
	t.Helper()
	now := time.Now()
	d := &types.Deployment{
		ID:            uuid.New().String(),
		ProjectID:     p.ID,
		Version:       version,
		Color:         color,
		ContainerName: color.ContainerName(p.Name),
		ImageTag:      types.ImageTag(p.Name, now),
		Port:          color.HostPort(p.BasePort),
		Status:        types.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.CreateDeployment(d))
	return d
}

func TestTickMarksStoppedContainer(t *testing.T) {
	store := newStore(t)
	p := seedProject(t, store, "web", 3100)
	d := seedActive(t, store, p, 2, types.ColorBlue)

	broker := events.NewBroker()
	engine := &fakeEngine{running: map[string]bool{"web-blue": false}}
	w := NewWatcher(store, engine, broker, time.Minute)

	ticksBefore := testutil.ToFloat64(metrics.WatcherTicks)
	failuresBefore := testutil.ToFloat64(metrics.WatcherFailuresDetected)

	w.tick()

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "Container stopped", got.ErrorMessage)

	assert.Equal(t, ticksBefore+1, testutil.ToFloat64(metrics.WatcherTicks))
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(metrics.WatcherFailuresDetected))

	recent := broker.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, events.EventContainerStopped, recent[0].Type)
	assert.Equal(t, p.ID, recent[0].ProjectID)
	assert.Equal(t, d.ID, recent[0].DeploymentID)
}

func TestTickKeepsRunningContainer(t *testing.T) {
	store := newStore(t)
	p := seedProject(t, store, "web", 3100)
	d := seedActive(t, store, p, 2, types.ColorGreen)

	engine := &fakeEngine{running: map[string]bool{"web-green": true}}
	w := NewWatcher(store, engine, events.NewBroker(), time.Minute)
	w.tick()

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestTickIsolatesContainerFailures(t *testing.T) {
	store := newStore(t)
	web := seedProject(t, store, "web", 3100)
	api := seedProject(t, store, "api", 3200)
	seedActive(t, store, web, 1, types.ColorBlue)
	dead := seedActive(t, store, api, 1, types.ColorBlue)

	engine := &fakeEngine{
		errs:    map[string]error{"web-blue": errors.New("inspect timed out")},
		running: map[string]bool{"api-blue": false},
	}
	w := NewWatcher(store, engine, events.NewBroker(), time.Minute)
	w.tick()

	// The inspect error on web-blue must not stop api-blue being audited.
	got, err := store.GetDeployment(dead.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, 2, engine.inspectCount())
}

func TestTickAbortsWhenStoreUnavailable(t *testing.T) {
	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "watcher-closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	engine := &fakeEngine{}
	w := NewWatcher(store, engine, events.NewBroker(), time.Minute)

	// Must not panic; the tick aborts and the next one retries.
	w.tick()
	assert.Equal(t, 0, engine.inspectCount())
}

func TestTickSkipsWhileBusy(t *testing.T) {
	store := newStore(t)
	p := seedProject(t, store, "web", 3100)
	seedActive(t, store, p, 1, types.ColorBlue)

	block := make(chan struct{})
	engine := &fakeEngine{blockCh: block, running: map[string]bool{"web-blue": true}}
	w := NewWatcher(store, engine, events.NewBroker(), time.Minute)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.tick()
	}()

	// Wait until the first tick is inside the engine call, then try again.
	require.Eventually(t, func() bool { return engine.inspectCount() == 1 }, time.Second, 5*time.Millisecond)
	w.tick()
	assert.Equal(t, 1, engine.inspectCount(), "second tick should be skipped, not queued")

	close(block)
	wg.Wait()
}

func TestTickLeavesRetiredRecordAlone(t *testing.T) {
	store := newStore(t)
	p := seedProject(t, store, "web", 3100)
	d := seedActive(t, store, p, 1, types.ColorBlue)

	// While the watcher is inspecting, a deploy pipeline retires the
	// record. The watcher must not overwrite the terminal status.
	engine := &fakeEngine{
		running: map[string]bool{"web-blue": false},
		onInspect: func(name string) {
			require.NoError(t, store.MarkDeploymentStatus(d.ID, types.StatusRolledBack, ""))
		},
	}
	w := NewWatcher(store, engine, events.NewBroker(), time.Minute)
	w.tick()

	got, err := store.GetDeployment(d.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusRolledBack, got.Status)
}

func TestStartStopLoop(t *testing.T) {
	store := newStore(t)
	p := seedProject(t, store, "web", 3100)
	d := seedActive(t, store, p, 1, types.ColorBlue)

	engine := &fakeEngine{running: map[string]bool{"web-blue": false}}
	w := NewWatcher(store, engine, events.NewBroker(), 25*time.Millisecond)
	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		got, err := store.GetDeployment(d.ID)
		return err == nil && got.Status == types.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}
