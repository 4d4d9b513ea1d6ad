package deploy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/metrics"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// RollbackResult reports which versions swapped during a rollback
type RollbackResult struct {
	RolledBackFrom int `json:"rolledBackFrom"`
	RestoredTo     int `json:"restoredTo"`
}

// Rollback restores the most recent ROLLED_BACK deployment below the current
// ACTIVE one, restarting its slot from the image built back then. It shares
// the per-project flight with Deploy, so the two cannot interleave.
func (o *Orchestrator) Rollback(ctx context.Context, projectID string) (*RollbackResult, error) {
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

	result, err := o.runRollback(ctx, logger, project)
	if err != nil {
		metrics.RollbacksTotal.WithLabelValues("failed").Inc()
		o.broker.Publish(&events.Event{
			Type:      events.EventRollbackFailed,
			ProjectID: project.ID,
			Message:   failureMessage(err),
		})
		logger.Error().Err(err).Msg("Rollback failed")
		return nil, err
	}

	metrics.RollbacksTotal.WithLabelValues("success").Inc()
	o.broker.Publish(&events.Event{
		Type:      events.EventRollbackSucceeded,
		ProjectID: project.ID,
		Message:   fmt.Sprintf("restored version %d, retired version %d", result.RestoredTo, result.RolledBackFrom),
	})

	logger.Info().Int("from", result.RolledBackFrom).Int("to", result.RestoredTo).Msg("Rollback complete")
	return result, nil
}

func (o *Orchestrator) runRollback(ctx context.Context, logger zerolog.Logger, project *types.Project) (*RollbackResult, error) {
	current, err := o.store.ActiveDeployment(project.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errdefs.NoActiveDeployment(project.ID)
	}

	previous, err := o.store.PreviousRolledBack(project.ID, current.Version)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, errdefs.NoPreviousDeployment(project.ID)
	}

	logger.Info().
		Int("from", current.Version).
		Int("to", previous.Version).
		Str("image", previous.ImageTag).
		Msg("Starting rollback")

	// Restart the previous slot from its retained image, with the
	// project's current env and app port
	o.clearSlot(ctx, logger, previous.ContainerName, previous.Port)

	spec := container.StartSpec{
		Name:     previous.ContainerName,
		Image:    previous.ImageTag,
		Network:  o.network,
		HostPort: previous.Port,
		AppPort:  project.AppPort,
		Env:      project.Env,
	}
	if _, err := o.engine.StartContainer(ctx, spec); err != nil {
		// The image may have been pruned since it was built; the current
		// deployment stays live either way
		return nil, errdefs.Deployment(fmt.Sprintf("failed to restart version %d: %v", previous.Version, err), err)
	}

	result := o.validator.Validate(ctx, previous.ContainerName, previous.Port, project.HealthPath)
	if !result.Healthy {
		o.scrapContainer(logger, previous.ContainerName)
		return nil, errdefs.RollbackValidationFailed(result.Message)
	}
	logger.Info().Int("attempts", result.Attempts).Msg("Restored container is healthy")

	if err := o.traffic.SwitchTo(ctx, previous.Port); err != nil {
		o.scrapContainer(logger, previous.ContainerName)
		return nil, errdefs.Deployment(err.Error(), nil)
	}

	// Stop the displaced container, then swap statuses. Writes happen
	// after the stop, same ordering as the deploy retire.
	if err := o.engine.StopContainer(ctx, current.ContainerName); err != nil {
		logger.Warn().Err(err).Msg("Failed to stop current container")
	}
	if err := o.engine.RemoveContainer(ctx, current.ContainerName); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove current container")
	}

	if err := o.store.MarkDeploymentStatus(previous.ID, types.StatusActive, ""); err != nil {
		return nil, fmt.Errorf("failed to promote previous deployment: %w", err)
	}
	if err := o.store.MarkDeploymentStatus(current.ID, types.StatusRolledBack, ""); err != nil {
		return nil, fmt.Errorf("failed to demote current deployment: %w", err)
	}

	return &RollbackResult{RolledBackFrom: current.Version, RestoredTo: previous.Version}, nil
}
