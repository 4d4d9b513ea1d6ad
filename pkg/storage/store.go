package storage

import (
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// Store defines the interface for engine state persistence
type Store interface {
	// Projects
	CreateProject(project *types.Project) error
	GetProject(id string) (*types.Project, error)
	GetProjectByName(name string) (*types.Project, error)
	GetProjectByWebhookSecret(secret string) (*types.Project, error)
	ListProjects() ([]*types.Project, error)
	UpdateProject(project *types.Project) error
	DeleteProject(id string) error

	// Deployments
	CreateDeployment(deployment *types.Deployment) error
	GetDeployment(id string) (*types.Deployment, error)
	UpdateDeployment(deployment *types.Deployment) error
	MarkDeploymentStatus(id string, status types.DeploymentStatus, errorMessage string) error
	ListDeployments() ([]*types.Deployment, error)
	ListDeploymentsByProject(projectID string) ([]*types.Deployment, error)
	ListDeploymentsByStatus(status types.DeploymentStatus) ([]*types.Deployment, error)

	// ActiveDeployment returns the project's ACTIVE deployment, nil
	// when none
	ActiveDeployment(projectID string) (*types.Deployment, error)

	// DeployingDeployment returns the project's DEPLOYING deployment,
	// nil when none
	DeployingDeployment(projectID string) (*types.Deployment, error)

	// NextVersion returns max(version)+1 across every deployment of the
	// project, failed attempts included
	NextVersion(projectID string) (int, error)

	// PreviousRolledBack returns the highest-version ROLLED_BACK
	// deployment below beforeVersion, nil when none
	PreviousRolledBack(projectID string, beforeVersion int) (*types.Deployment, error)

	// Utility
	Close() error
}
