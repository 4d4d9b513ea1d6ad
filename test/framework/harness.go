package framework

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/api"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/client"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/deploy"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/dockerfile"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/reconciler"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/source"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/traffic"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/watcher"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/webhook"
)

// TestNetwork is the docker network harness deployments join
const TestNetwork = "versiongate-net"

// Harness boots a complete in-process engine: real storage, pipeline,
// reconciler, and REST API, with docker, git, and nginx all played by
// the Commander. Scenarios drive it through the same HTTP client the
// CLI uses and then inspect the store and the fake host directly.
type Harness struct {
	Store     storage.Store
	Commander *Commander
	Validator *ScriptedValidator
	Broker    *events.Broker
	Engine    *container.Engine
	Switcher  *traffic.Switcher
	Pipeline  *deploy.Orchestrator
	Recon     *reconciler.Reconciler
	Client    *client.Client

	BaseURL      string
	ProjectsRoot string
	NginxConfig  string
}

// NewHarness assembles the engine against a temporary directory. All
// components are shut down via t.Cleanup.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	tmp := t.TempDir()

	store, err := storage.NewBoltStore(filepath.Join(tmp, "versiongate.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	commander := NewCommander()
	validator := NewScriptedValidator()

	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	engine := container.NewEngine(commander)
	projectsRoot := filepath.Join(tmp, "projects")
	nginxConfig := filepath.Join(tmp, "nginx", "upstream.conf")
	switcher := traffic.NewSwitcher(commander, nginxConfig)

	pipeline := deploy.NewOrchestrator(deploy.Config{
		Store:     store,
		Fetcher:   source.NewFetcher(commander, projectsRoot),
		Synth:     dockerfile.NewSynthesizer(),
		Engine:    engine,
		Validator: validator,
		Traffic:   switcher,
		Broker:    broker,
		Network:   TestNetwork,
	})

	recon := reconciler.NewReconciler(store, engine, broker)

	srv := httptest.NewServer(api.NewServer(api.Config{
		ProjectsRoot: projectsRoot,
		Store:        store,
		Pipeline:     pipeline,
		Engine:       engine,
		Traffic:      switcher,
		Reconciler:   recon,
		Hooks:        webhook.NewDispatcher(store, pipeline),
		Broker:       broker,
	}).Handler())
	t.Cleanup(srv.Close)

	return &Harness{
		Store:        store,
		Commander:    commander,
		Validator:    validator,
		Broker:       broker,
		Engine:       engine,
		Switcher:     switcher,
		Pipeline:     pipeline,
		Recon:        recon,
		Client:       client.NewClient(srv.URL),
		BaseURL:      srv.URL,
		ProjectsRoot: projectsRoot,
		NginxConfig:  nginxConfig,
	}
}

// CreateProject registers a project through the API with workable
// defaults: an https remote, branch main, app port 8080
func (h *Harness) CreateProject(t *testing.T, name string) *types.Project {
	t.Helper()
	project, err := h.Client.CreateProject(client.ProjectSpec{
		Name:    name,
		RepoURL: "https://git.example.com/acme/" + name + ".git",
		Branch:  "main",
		AppPort: 8080,
	})
	if err != nil {
		t.Fatalf("Failed to create project %s: %v", name, err)
	}
	return project
}

// Deploy runs a full deployment through the API, failing the test if
// the pipeline does
func (h *Harness) Deploy(t *testing.T, projectID string) *types.Deployment {
	t.Helper()
	result, err := h.Client.Deploy(projectID)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	return result.Deployment
}

// SeedDeployment writes a deployment row directly to the store, for
// scenarios that model state left behind by a previous process
func (h *Harness) SeedDeployment(t *testing.T, project *types.Project, version int, color types.Color, status types.DeploymentStatus) *types.Deployment {
	t.Helper()
	now := time.Now().UTC()
	deployment := &types.Deployment{
		ID:            uuid.New().String(),
		ProjectID:     project.ID,
		Version:       version,
		Color:         color,
		ContainerName: color.ContainerName(project.Name),
		ImageTag:      types.ImageTag(project.Name, now),
		Port:          color.HostPort(project.BasePort),
		Status:        status,
		CommitSHA:     DefaultCommitSHA,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Store.CreateDeployment(deployment); err != nil {
		t.Fatalf("Failed to seed deployment: %v", err)
	}
	return deployment
}

// StartWatcher runs a container watcher against the harness engine,
// stopped automatically at test end
func (h *Harness) StartWatcher(t *testing.T, interval time.Duration) *watcher.Watcher {
	t.Helper()
	w := watcher.NewWatcher(h.Store, h.Engine, h.Broker, interval)
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

// RoutedPort reads the port the live nginx config routes to, 0 when
// traffic was never switched
func (h *Harness) RoutedPort() int {
	return h.Switcher.Current()
}
