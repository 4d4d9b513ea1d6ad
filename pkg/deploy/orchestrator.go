package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/health"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/metrics"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/source"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// cancelledMessage is recorded on deployments cancelled by request
const cancelledMessage = "Cancelled by user"

// cleanupTimeout bounds container teardown after a failed pipeline
const cleanupTimeout = 2 * time.Minute

// SourceFetcher prepares a project workspace and reports the checked-out commit
type SourceFetcher interface {
	Prepare(ctx context.Context, project *types.Project) (workspace string, commitSHA string, err error)
}

// Synthesizer guarantees a Dockerfile exists somewhere buildable
type Synthesizer interface {
	Ensure(contextDir, repoRoot string, appPort int) (dir string, generated bool, err error)
}

// Engine is the slice of the container runtime the pipeline needs
type Engine interface {
	BuildImage(ctx context.Context, tag, dir string) error
	StartContainer(ctx context.Context, spec container.StartSpec) (string, error)
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	FreeHostPort(ctx context.Context, port int) error
}

// Validator probes a freshly started container until it is healthy
type Validator interface {
	Validate(ctx context.Context, containerName string, port int, healthPath string) health.Result
}

// Switcher points live traffic at a host port
type Switcher interface {
	SwitchTo(ctx context.Context, port int) error
}

// Config wires the orchestrator's collaborators
type Config struct {
	Store     storage.Store
	Fetcher   SourceFetcher
	Synth     Synthesizer
	Engine    Engine
	Validator Validator
	Traffic   Switcher
	Broker    *events.Broker
	Network   string
}

// Orchestrator runs the blue-green deployment pipeline, one flight per
// project at a time
type Orchestrator struct {
	store     storage.Store
	fetcher   SourceFetcher
	synth     Synthesizer
	engine    Engine
	validator Validator
	traffic   Switcher
	broker    *events.Broker
	network   string
	flights   *flightTable
	logger    zerolog.Logger
}

// NewOrchestrator creates a new deployment orchestrator
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		store:     cfg.Store,
		fetcher:   cfg.Fetcher,
		synth:     cfg.Synth,
		engine:    cfg.Engine,
		validator: cfg.Validator,
		traffic:   cfg.Traffic,
		broker:    cfg.Broker,
		network:   cfg.Network,
		flights:   newFlightTable(),
		logger:    log.WithComponent("deploy"),
	}
}

// Deploy runs the full pipeline for the project and returns the new ACTIVE
// deployment. A second call while one is in flight fails with a conflict.
func (o *Orchestrator) Deploy(ctx context.Context, projectID string) (*types.Deployment, error) {
	project, err := o.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := o.flights.begin(project.ID, cancel); err != nil {
		return nil, err
	}
	defer o.flights.end(project.ID)

	logger := o.logger.With().Str("project_id", project.ID).Str("project", project.Name).Logger()
	logger.Info().Str("repo", project.RepoURL).Str("branch", project.Branch).Msg("Starting deployment")

	o.broker.Publish(&events.Event{
		Type:      events.EventDeployStarted,
		ProjectID: project.ID,
		Message:   fmt.Sprintf("deploying %s from %s", project.Name, project.Branch),
	})

	timer := metrics.NewTimer()
	deployment, err := o.run(ctx, logger, project)
	if err != nil {
		outcome, eventType := "failed", events.EventDeployFailed
		if o.flights.cancelRequested(project.ID) {
			outcome, eventType = "cancelled", events.EventDeployCancelled
		}
		metrics.DeploymentsTotal.WithLabelValues(outcome).Inc()

		event := &events.Event{Type: eventType, ProjectID: project.ID, Message: failureMessage(err)}
		if deployment != nil {
			event.DeploymentID = deployment.ID
		}
		o.broker.Publish(event)

		logger.Error().Err(err).Msg("Deployment failed")
		return nil, err
	}

	timer.ObserveDuration(metrics.DeploymentDuration)
	metrics.DeploymentsTotal.WithLabelValues("success").Inc()

	o.broker.Publish(&events.Event{
		Type:         events.EventDeploySucceeded,
		ProjectID:    project.ID,
		DeploymentID: deployment.ID,
		Message:      fmt.Sprintf("version %d is live on port %d", deployment.Version, deployment.Port),
	})

	logger.Info().Int("version", deployment.Version).Int("port", deployment.Port).Msg("Deployment complete")
	return deployment, nil
}

// run executes the pipeline under an already-held flight. It returns the
// deployment record once one exists, even on failure, so the caller can
// reference it in events.
func (o *Orchestrator) run(ctx context.Context, logger zerolog.Logger, project *types.Project) (*types.Deployment, error) {
	// Source
	workspace, commitSHA, err := o.fetcher.Prepare(ctx, project)
	if err != nil {
		return nil, o.pipelineError(project.ID, err)
	}

	contextDir, err := source.ContextDir(workspace, project.BuildContext)
	if err != nil {
		return nil, o.pipelineError(project.ID, err)
	}

	buildDir, generated, err := o.synth.Ensure(contextDir, workspace, project.AppPort)
	if err != nil {
		return nil, o.pipelineError(project.ID, err)
	}
	if generated {
		logger.Info().Str("dir", buildDir).Msg("Generated Dockerfile")
	}

	// Checkpoint: source prepared
	if err := o.checkpoint(project.ID); err != nil {
		return nil, err
	}

	// Slot: opposite color of the current ACTIVE, BLUE when none
	active, err := o.store.ActiveDeployment(project.ID)
	if err != nil {
		return nil, o.pipelineError(project.ID, err)
	}
	color := types.ColorBlue
	if active != nil {
		color = active.Color.Opposite()
	}

	version, err := o.store.NextVersion(project.ID)
	if err != nil {
		return nil, o.pipelineError(project.ID, err)
	}

	now := time.Now()
	deployment := &types.Deployment{
		ID:            uuid.New().String(),
		ProjectID:     project.ID,
		Version:       version,
		Color:         color,
		ContainerName: color.ContainerName(project.Name),
		ImageTag:      types.ImageTag(project.Name, now),
		Port:          color.HostPort(project.BasePort),
		Status:        types.StatusDeploying,
		CommitSHA:     commitSHA,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.store.CreateDeployment(deployment); err != nil {
		return nil, o.pipelineError(project.ID, err)
	}

	logger = logger.With().
		Str("deployment_id", deployment.ID).
		Int("version", version).
		Str("color", string(color)).
		Logger()

	// Build
	logger.Info().Str("image", deployment.ImageTag).Str("dir", buildDir).Msg("Building image")
	if err := o.engine.BuildImage(ctx, deployment.ImageTag, buildDir); err != nil {
		return deployment, o.fail(logger, project.ID, deployment, false, err)
	}

	// Checkpoint: image built
	if err := o.checkpoint(project.ID); err != nil {
		return deployment, o.fail(logger, project.ID, deployment, false, err)
	}

	// Launch on a clean slot
	o.clearSlot(ctx, logger, deployment.ContainerName, deployment.Port)

	spec := container.StartSpec{
		Name:     deployment.ContainerName,
		Image:    deployment.ImageTag,
		Network:  o.network,
		HostPort: deployment.Port,
		AppPort:  project.AppPort,
		Env:      project.Env,
	}
	logger.Info().Str("container", deployment.ContainerName).Int("port", deployment.Port).Msg("Starting container")
	if _, err := o.engine.StartContainer(ctx, spec); err != nil {
		return deployment, o.fail(logger, project.ID, deployment, false, err)
	}

	// Checkpoint: container started
	if err := o.checkpoint(project.ID); err != nil {
		return deployment, o.fail(logger, project.ID, deployment, true, err)
	}

	// Validate before any traffic moves
	result := o.validator.Validate(ctx, deployment.ContainerName, deployment.Port, project.HealthPath)
	if !result.Healthy {
		return deployment, o.fail(logger, project.ID, deployment, true, errdefs.Deployment(result.Message, nil))
	}
	logger.Info().Int("attempts", result.Attempts).Dur("latency", result.Duration).Msg("Health validation passed")

	// Switch traffic
	if err := o.traffic.SwitchTo(ctx, deployment.Port); err != nil {
		return deployment, o.fail(logger, project.ID, deployment, true, err)
	}

	// Promote, then retire. The old container is stopped only after the
	// new row is ACTIVE in the database.
	if err := o.store.MarkDeploymentStatus(deployment.ID, types.StatusActive, ""); err != nil {
		return deployment, o.fail(logger, project.ID, deployment, true, err)
	}
	deployment.Status = types.StatusActive
	deployment.UpdatedAt = time.Now()

	if active != nil {
		o.retire(ctx, logger, active)
	}

	return deployment, nil
}

// Cancel requests cancellation of the project's in-flight pipeline. The
// pipeline context is cancelled immediately, killing any child process,
// and the next checkpoint converts the run into a FAILED record.
func (o *Orchestrator) Cancel(projectID string) error {
	if err := o.flights.requestCancel(projectID); err != nil {
		return err
	}
	o.logger.Info().Str("project_id", projectID).Msg("Cancellation requested")
	return nil
}

// InFlight reports whether a pipeline is currently running for the project
func (o *Orchestrator) InFlight(projectID string) bool {
	return o.flights.held(projectID)
}

// checkpoint fails the pipeline when a cancel request is pending
func (o *Orchestrator) checkpoint(projectID string) error {
	if o.flights.cancelRequested(projectID) {
		return errdefs.Deployment(cancelledMessage, nil)
	}
	return nil
}

// pipelineError classifies a step failure. A pending cancel request wins
// over whatever error the interrupted step produced.
func (o *Orchestrator) pipelineError(projectID string, err error) error {
	if o.flights.cancelRequested(projectID) {
		return errdefs.Deployment(cancelledMessage, err)
	}
	var e *errdefs.Error
	if errors.As(err, &e) {
		return err
	}
	return errdefs.Deployment(err.Error(), nil)
}

// fail tears down the half-deployed slot and marks the record FAILED
func (o *Orchestrator) fail(logger zerolog.Logger, projectID string, deployment *types.Deployment, containerStarted bool, err error) error {
	err = o.pipelineError(projectID, err)

	if containerStarted {
		o.scrapContainer(logger, deployment.ContainerName)
	}

	if markErr := o.store.MarkDeploymentStatus(deployment.ID, types.StatusFailed, failureMessage(err)); markErr != nil {
		logger.Error().Err(markErr).Msg("Failed to record deployment failure")
	}
	deployment.Status = types.StatusFailed

	return err
}

// retire stops the displaced ACTIVE deployment's container and demotes the
// record. The ROLLED_BACK write deliberately lands after the stop: a watcher
// tick in between may mark the row FAILED, but this write is the last one.
func (o *Orchestrator) retire(ctx context.Context, logger zerolog.Logger, previous *types.Deployment) {
	logger.Info().Str("container", previous.ContainerName).Int("version", previous.Version).Msg("Retiring previous deployment")

	if err := o.engine.StopContainer(ctx, previous.ContainerName); err != nil {
		logger.Warn().Err(err).Msg("Failed to stop previous container")
	}
	if err := o.engine.RemoveContainer(ctx, previous.ContainerName); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove previous container")
	}

	if err := o.store.MarkDeploymentStatus(previous.ID, types.StatusRolledBack, ""); err != nil {
		logger.Error().Err(err).Msg("Failed to mark previous deployment rolled back")
	}
}

// clearSlot removes whatever occupies the target slot. A failed earlier run
// can leave a stopped container holding the name, or an unrelated container
// can squat on the port.
func (o *Orchestrator) clearSlot(ctx context.Context, logger zerolog.Logger, name string, port int) {
	if err := o.engine.StopContainer(ctx, name); err != nil {
		logger.Debug().Err(err).Str("container", name).Msg("Stale container stop")
	}
	if err := o.engine.RemoveContainer(ctx, name); err != nil {
		logger.Debug().Err(err).Str("container", name).Msg("Stale container remove")
	}
	if err := o.engine.FreeHostPort(ctx, port); err != nil {
		logger.Warn().Err(err).Int("port", port).Msg("Failed to free host port")
	}
}

// scrapContainer stops and removes a container on a fresh context, since the
// pipeline's own context may already be cancelled
func (o *Orchestrator) scrapContainer(logger zerolog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := o.engine.StopContainer(ctx, name); err != nil {
		logger.Warn().Err(err).Str("container", name).Msg("Cleanup stop failed")
	}
	if err := o.engine.RemoveContainer(ctx, name); err != nil {
		logger.Warn().Err(err).Str("container", name).Msg("Cleanup remove failed")
	}
}

// failureMessage extracts the message stored on a FAILED record
func failureMessage(err error) string {
	var e *errdefs.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
