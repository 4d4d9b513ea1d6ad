package reconciler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// Failure messages written to reconciled records. The API surfaces these
// verbatim, so they are part of the observable contract.
const (
	crashedMessage    = "Process crashed mid-deploy"
	notRunningMessage = "Container not running at boot"
)

// Engine is the container-engine surface the reconciler needs.
type Engine interface {
	IsRunning(ctx context.Context, name string) (bool, error)
}

// Report summarizes one reconciliation pass.
type Report struct {
	DeployingFixed    int `json:"deployingFixed"`
	ActiveInvalidated int `json:"activeInvalidated"`
}

// Reconciler aligns deployment records with actual container state. It runs
// once at boot, before the API starts accepting requests, so that status
// queries never report state left behind by a crashed process.
type Reconciler struct {
	store  storage.Store
	engine Engine
	broker *events.Broker
	logger zerolog.Logger
}

// NewReconciler creates a reconciler over the given store and engine.
func NewReconciler(store storage.Store, engine Engine, broker *events.Broker) *Reconciler {
	return &Reconciler{
		store:  store,
		engine: engine,
		broker: broker,
		logger: log.WithComponent("reconciler"),
	}
}

// RunOnce performs a single reconciliation pass and reports what it fixed.
//
// Records stuck in DEPLOYING belong to a process that no longer exists, so
// they are failed unconditionally. ACTIVE records are checked against the
// engine; records whose container is gone are failed too. Nothing is
// restarted here: bringing a project back is an operator decision, made
// through deploy or rollback.
func (r *Reconciler) RunOnce(ctx context.Context) (*Report, error) {
	report := &Report{}

	deploying, err := r.store.ListDeploymentsByStatus(types.StatusDeploying)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-flight deployments: %w", err)
	}
	for _, d := range deploying {
		if err := r.store.MarkDeploymentStatus(d.ID, types.StatusFailed, crashedMessage); err != nil {
			r.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("Failed to mark orphaned deployment")
			continue
		}
		r.logger.Warn().
			Str("deployment_id", d.ID).
			Str("project_id", d.ProjectID).
			Int("version", d.Version).
			Msg("Failed orphaned in-flight deployment")
		report.DeployingFixed++
	}

	active, err := r.store.ListDeploymentsByStatus(types.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active deployments: %w", err)
	}
	for _, d := range active {
		running, err := r.engine.IsRunning(ctx, d.ContainerName)
		if err != nil {
			// Inspection failed, not the container. Leave the record alone
			// rather than invalidate a deployment that may be healthy.
			r.logger.Warn().Err(err).Str("container", d.ContainerName).Msg("Failed to inspect container")
			continue
		}
		if running {
			continue
		}
		if err := r.store.MarkDeploymentStatus(d.ID, types.StatusFailed, notRunningMessage); err != nil {
			r.logger.Error().Err(err).Str("deployment_id", d.ID).Msg("Failed to mark dead deployment")
			continue
		}
		r.logger.Warn().
			Str("deployment_id", d.ID).
			Str("project_id", d.ProjectID).
			Str("container", d.ContainerName).
			Msg("Invalidated active deployment with no running container")
		report.ActiveInvalidated++
	}

	r.broker.Publish(&events.Event{
		Type:    events.EventReconcileCompleted,
		Message: fmt.Sprintf("reconciled %d orphaned and %d dead deployments", report.DeployingFixed, report.ActiveInvalidated),
	})

	r.logger.Info().
		Int("deploying_fixed", report.DeployingFixed).
		Int("active_invalidated", report.ActiveInvalidated).
		Msg("Boot reconciliation complete")

	return report, nil
}
