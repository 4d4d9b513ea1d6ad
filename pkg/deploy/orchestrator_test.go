package deploy

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/health"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

type fakeFetcher struct {
	workspace string
	sha       string
	err       error
}

func (f *fakeFetcher) Prepare(ctx context.Context, project *types.Project) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return f.workspace, f.sha, nil
}

type fakeSynth struct {
	generated bool
	err       error
}

func (f *fakeSynth) Ensure(contextDir, repoRoot string, appPort int) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	return contextDir, f.generated, nil
}

// fakeEngine records runtime calls in order and can be scripted to fail
// or block per method.
type fakeEngine struct {
	mu        sync.Mutex
	calls     []string
	lastStart container.StartSpec

	buildErr error
	startErr error
	buildFn  func(ctx context.Context) error
	onStop   func(name string)
}

func (e *fakeEngine) record(call string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
}

func (e *fakeEngine) recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) startSpec() container.StartSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastStart
}

func (e *fakeEngine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *fakeEngine) BuildImage(ctx context.Context, tag, dir string) error {
	e.record("build " + tag)
	if e.buildFn != nil {
		return e.buildFn(ctx)
	}
	return e.buildErr
}

func (e *fakeEngine) StartContainer(ctx context.Context, spec container.StartSpec) (string, error) {
	e.record("start " + spec.Name)
	e.mu.Lock()
	e.lastStart = spec
	e.mu.Unlock()
	if e.startErr != nil {
		return "", e.startErr
	}
	return "cid-" + spec.Name, nil
}

func (e *fakeEngine) StopContainer(ctx context.Context, name string) error {
	e.record("stop " + name)
	if e.onStop != nil {
		e.onStop(name)
	}
	return nil
}

func (e *fakeEngine) RemoveContainer(ctx context.Context, name string) error {
	e.record("rm " + name)
	return nil
}

func (e *fakeEngine) FreeHostPort(ctx context.Context, port int) error {
	e.record(fmt.Sprintf("free %d", port))
	return nil
}

// fakeValidator pops scripted results in order, defaulting to healthy
type fakeValidator struct {
	mu      sync.Mutex
	results []health.Result
}

func (v *fakeValidator) Validate(ctx context.Context, containerName string, port int, healthPath string) health.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.results) > 0 {
		r := v.results[0]
		v.results = v.results[1:]
		return r
	}
	return health.Result{Healthy: true, Attempts: 1, Duration: 5 * time.Millisecond}
}

type fakeSwitcher struct {
	mu    sync.Mutex
	ports []int
	err   error
}

func (s *fakeSwitcher) SwitchTo(ctx context.Context, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.ports = append(s.ports, port)
	return nil
}

func (s *fakeSwitcher) switched() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.ports...)
}

type testRig struct {
	store   storage.Store
	fetcher *fakeFetcher
	synth   *fakeSynth
	engine  *fakeEngine
	valid   *fakeValidator
	traffic *fakeSwitcher
	broker  *events.Broker
	orch    *Orchestrator
}

func newRig(t *testing.T) *testRig {
	t.Helper()

	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "deploy-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rig := &testRig{
		store:   store,
		fetcher: &fakeFetcher{workspace: t.TempDir(), sha: "abc123"},
		synth:   &fakeSynth{},
		engine:  &fakeEngine{},
		valid:   &fakeValidator{},
		traffic: &fakeSwitcher{},
		broker:  events.NewBroker(),
	}
	rig.orch = NewOrchestrator(Config{
		Store:     store,
		Fetcher:   rig.fetcher,
		Synth:     rig.synth,
		Engine:    rig.engine,
		Validator: rig.valid,
		Traffic:   rig.traffic,
		Broker:    rig.broker,
		Network:   "versiongate-net",
	})
	return rig
}

func (r *testRig) createProject(t *testing.T) *types.Project {
	t.Helper()

	now := time.Now()
	p := &types.Project{
		ID:            uuid.New().String(),
		Name:          "myapp",
		RepoURL:       "https://github.com/acme/myapp",
		Branch:        "main",
		BuildContext:  ".",
		AppPort:       3000,
		BasePort:      3100,
		HealthPath:    "/health",
		Env:           map[string]string{"NODE_ENV": "production"},
		WebhookSecret: "0123456789abcdef0123456789abcdef0123456789abcdef",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, r.store.CreateProject(p))
	return p
}

func indexOf(calls []string, want string) int {
	for i, c := range calls {
		if c == want {
			return i
		}
	}
	return -1
}

// indexOfAfter returns the index of the first occurrence of want strictly
// after pos. The slot clear issues stop/rm under the same name a later
// teardown uses, so teardown lookups must skip past the start.
func indexOfAfter(calls []string, pos int, want string) int {
	for i := pos + 1; i < len(calls); i++ {
		if calls[i] == want {
			return i
		}
	}
	return -1
}

func eventTypes(evts []*events.Event) []events.EventType {
	out := make([]events.EventType, 0, len(evts))
	for _, e := range evts {
		out = append(out, e.Type)
	}
	return out
}

func TestDeployFirstIsBlue(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	d, err := rig.orch.Deploy(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Version)
	assert.Equal(t, types.ColorBlue, d.Color)
	assert.Equal(t, 3100, d.Port)
	assert.Equal(t, "myapp-blue", d.ContainerName)
	assert.Regexp(t, regexp.MustCompile(`^versiongate-myapp:\d+$`), d.ImageTag)
	assert.Equal(t, types.StatusActive, d.Status)
	assert.Equal(t, "abc123", d.CommitSHA)

	active, err := rig.store.ActiveDeployment(p.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, d.ID, active.ID)

	assert.Equal(t, []int{3100}, rig.traffic.switched())

	spec := rig.engine.startSpec()
	assert.Equal(t, "myapp-blue", spec.Name)
	assert.Equal(t, d.ImageTag, spec.Image)
	assert.Equal(t, "versiongate-net", spec.Network)
	assert.Equal(t, 3100, spec.HostPort)
	assert.Equal(t, 3000, spec.AppPort)
	assert.Equal(t, map[string]string{"NODE_ENV": "production"}, spec.Env)

	// Build first, then the slot clear, then start
	calls := rig.engine.recorded()
	build := indexOf(calls, "build "+d.ImageTag)
	stop := indexOf(calls, "stop myapp-blue")
	free := indexOf(calls, "free 3100")
	start := indexOf(calls, "start myapp-blue")
	require.GreaterOrEqual(t, build, 0)
	assert.Less(t, build, stop)
	assert.Less(t, stop, free)
	assert.Less(t, free, start)

	got := eventTypes(rig.broker.Recent(0))
	assert.Contains(t, got, events.EventDeployStarted)
	assert.Contains(t, got, events.EventDeploySucceeded)
}

func TestDeploySecondAlternatesGreen(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	d1, err := rig.orch.Deploy(context.Background(), p.ID)
	require.NoError(t, err)

	// Record only the second deploy: the first one's slot-clear stop of
	// myapp-blue would otherwise shadow the retire stop measured below.
	rig.engine.reset()

	// Observe database state the moment the retire stop reaches the old
	// container: the new row must already be ACTIVE, and the old row must
	// still be ACTIVE because its ROLLED_BACK write lands after the stop.
	var v1AtStop, v2AtStop types.DeploymentStatus
	rig.engine.onStop = func(name string) {
		if name != "myapp-blue" {
			return
		}
		ds, err := rig.store.ListDeploymentsByProject(p.ID)
		if err != nil {
			return
		}
		for _, d := range ds {
			switch d.Version {
			case 1:
				v1AtStop = d.Status
			case 2:
				v2AtStop = d.Status
			}
		}
	}

	d2, err := rig.orch.Deploy(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, d2.Version)
	assert.Equal(t, types.ColorGreen, d2.Color)
	assert.Equal(t, 3101, d2.Port)
	assert.Equal(t, "myapp-green", d2.ContainerName)

	assert.Equal(t, types.StatusActive, v2AtStop, "new deployment must be ACTIVE before the old container stops")
	assert.Equal(t, types.StatusActive, v1AtStop, "old row flips to ROLLED_BACK only after its container stops")

	old, err := rig.store.GetDeployment(d1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusRolledBack, old.Status)

	assert.Equal(t, []int{3100, 3101}, rig.traffic.switched())

	calls := rig.engine.recorded()
	start := indexOf(calls, "start myapp-green")
	retire := indexOf(calls, "stop myapp-blue")
	assert.Less(t, start, retire, "previous container is stopped only after the new one is up")
}

func TestDeployConflictWhileInFlight(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	started := make(chan struct{})
	release := make(chan struct{})
	rig.engine.buildFn = func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := rig.orch.Deploy(context.Background(), p.ID)
		errCh <- err
	}()
	<-started

	assert.True(t, rig.orch.InFlight(p.ID))

	_, err := rig.orch.Deploy(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsConflict(err))
	var e *errdefs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Deployment already in progress", e.Message)

	close(release)
	require.NoError(t, <-errCh)
	assert.False(t, rig.orch.InFlight(p.ID))
}

func TestDeployBuildFailure(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	rig.engine.buildErr = fmt.Errorf("docker build exited with code 1, output:\nnpm ERR! missing script: build")

	_, err := rig.orch.Deploy(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsDeployment(err))

	ds, err := rig.store.ListDeploymentsByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, types.StatusFailed, ds[0].Status)
	assert.Contains(t, ds[0].ErrorMessage, "npm ERR! missing script")

	// Never started, never switched
	assert.Equal(t, -1, indexOf(rig.engine.recorded(), "start myapp-blue"))
	assert.Empty(t, rig.traffic.switched())

	active, err := rig.store.ActiveDeployment(p.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestDeployValidationFailureKeepsPreviousActive(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	d1, err := rig.orch.Deploy(context.Background(), p.ID)
	require.NoError(t, err)

	rig.engine.reset()
	rig.valid.results = []health.Result{
		{Healthy: false, Message: "health check failed after 15 attempts: HTTP 500", Attempts: 15},
	}

	_, err = rig.orch.Deploy(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsDeployment(err))

	ds, err := rig.store.ListDeploymentsByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, types.StatusFailed, ds[0].Status)
	assert.Contains(t, ds[0].ErrorMessage, "health check failed after 15 attempts")

	// The failed green container was torn down
	calls := rig.engine.recorded()
	start := indexOf(calls, "start myapp-green")
	stop := indexOfAfter(calls, start, "stop myapp-green")
	rm := indexOfAfter(calls, stop, "rm myapp-green")
	assert.Less(t, start, stop)
	assert.Less(t, stop, rm)

	// Blue keeps serving: no switch happened, record untouched
	assert.Equal(t, []int{3100}, rig.traffic.switched())
	active, err := rig.store.ActiveDeployment(p.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, d1.ID, active.ID)
	assert.Equal(t, -1, indexOf(calls, "stop myapp-blue"))
}

func TestDeploySwitchFailureKeepsPreviousActive(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	d1, err := rig.orch.Deploy(context.Background(), p.ID)
	require.NoError(t, err)

	rig.traffic.err = fmt.Errorf("failed to reload nginx: exit status 1")

	_, err = rig.orch.Deploy(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsDeployment(err))

	active, err := rig.store.ActiveDeployment(p.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, d1.ID, active.ID)

	ds, err := rig.store.ListDeploymentsByProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, ds[0].Status)
	assert.Contains(t, ds[0].ErrorMessage, "failed to reload nginx")
}

func TestDeployCancelDuringBuild(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	started := make(chan struct{})
	rig.engine.buildFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return fmt.Errorf("docker build killed: %w", ctx.Err())
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := rig.orch.Deploy(context.Background(), p.ID)
		errCh <- err
	}()
	<-started

	require.NoError(t, rig.orch.Cancel(p.ID))

	err := <-errCh
	require.Error(t, err)
	assert.True(t, errdefs.IsDeployment(err))
	var e *errdefs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Cancelled by user", e.Message)

	ds, err := rig.store.ListDeploymentsByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, types.StatusFailed, ds[0].Status)
	assert.Equal(t, "Cancelled by user", ds[0].ErrorMessage)

	// Flight is gone and the flag did not leak into the next run
	assert.False(t, rig.orch.InFlight(p.ID))
	err = rig.orch.Cancel(p.ID)
	assert.True(t, errdefs.IsValidation(err))

	got := eventTypes(rig.broker.Recent(0))
	assert.Contains(t, got, events.EventDeployCancelled)
}

func TestCancelWithoutFlight(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	err := rig.orch.Cancel(p.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestDeployUnknownProject(t *testing.T) {
	rig := newRig(t)

	_, err := rig.orch.Deploy(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestDeploySourceFailureLeavesNoRecord(t *testing.T) {
	rig := newRig(t)
	p := rig.createProject(t)

	rig.fetcher.err = fmt.Errorf("failed to clone https://github.com/acme/myapp: exit status 128")

	_, err := rig.orch.Deploy(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsDeployment(err))

	ds, err := rig.store.ListDeploymentsByProject(p.ID)
	require.NoError(t, err)
	assert.Empty(t, ds, "no record exists before the version is computed")
}
