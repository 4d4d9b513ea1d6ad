package types

import (
	"fmt"
	"strings"
	"time"
)

// Project represents a deployable application registered with VersionGate
type Project struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`         // Unique, lowercase alphanumeric + hyphens
	RepoURL       string            `json:"repoUrl"`      // HTTPS git remote
	Branch        string            `json:"branch"`
	BuildContext  string            `json:"buildContext"` // Relative to repo root (default ".")
	LocalPath     string            `json:"localPath,omitempty"` // Checkout directory, <projectsRoot>/<id>
	AppPort       int               `json:"appPort"`      // Port the app listens on inside the container
	BasePort      int               `json:"basePort"`     // Host port anchor; BLUE binds BasePort, GREEN binds BasePort+1
	HealthPath    string            `json:"healthPath"`
	Env           map[string]string `json:"env"`
	WebhookSecret string            `json:"webhookSecret"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Color identifies which of the two host port slots a deployment occupies
type Color string

const (
	ColorBlue  Color = "BLUE"
	ColorGreen Color = "GREEN"
)

// Opposite returns the other slot color
func (c Color) Opposite() Color {
	if c == ColorBlue {
		return ColorGreen
	}
	return ColorBlue
}

// HostPort returns the host port this color binds for a given base port
func (c Color) HostPort(basePort int) int {
	if c == ColorGreen {
		return basePort + 1
	}
	return basePort
}

// ContainerName returns the canonical container name for a project slot
func (c Color) ContainerName(projectName string) string {
	return projectName + "-" + strings.ToLower(string(c))
}

// DeploymentStatus represents the lifecycle state of a deployment
type DeploymentStatus string

const (
	// StatusPending is reserved for queued work; the pipeline never writes it
	StatusPending DeploymentStatus = "PENDING"

	StatusDeploying  DeploymentStatus = "DEPLOYING"
	StatusActive     DeploymentStatus = "ACTIVE"
	StatusFailed     DeploymentStatus = "FAILED"
	StatusRolledBack DeploymentStatus = "ROLLED_BACK"
)

// Deployment records one versioned attempt to put a project version live
type Deployment struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"projectId"`
	Version       int              `json:"version"` // Monotonic per project, failed attempts included
	Color         Color            `json:"color"`
	ContainerName string           `json:"containerName"`
	ImageTag      string           `json:"imageTag"`
	Port          int              `json:"port"` // Host port actually bound
	Status        DeploymentStatus `json:"status"`
	CommitSHA     string           `json:"commitSha,omitempty"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ImageTag builds the image reference for a project build started at ts
func ImageTag(projectName string, ts time.Time) string {
	return fmt.Sprintf("versiongate-%s:%d", projectName, ts.UnixMilli())
}
