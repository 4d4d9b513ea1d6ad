package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/reconciler"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// DefaultServer is where a locally running engine listens
const DefaultServer = "http://127.0.0.1:9090"

const (
	requestTimeout = 10 * time.Second

	// Deploy and rollback hold the request open for the whole pipeline;
	// clone and image build times dominate
	pipelineTimeout = 30 * time.Minute
)

// Client wraps the VersionGate REST API for CLI usage
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given server address
func NewClient(server string) *Client {
	return &Client{
		baseURL: strings.TrimRight(server, "/"),
		http:    &http.Client{},
	}
}

// APIError is a non-2xx response decoded from the server's error payload
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ProjectSpec is the request body for registering a project. Zero-valued
// BuildContext and HealthPath pick up the server defaults
type ProjectSpec struct {
	Name         string            `json:"name"`
	RepoURL      string            `json:"repoUrl"`
	Branch       string            `json:"branch"`
	BuildContext string            `json:"buildContext,omitempty"`
	AppPort      int               `json:"appPort"`
	HealthPath   string            `json:"healthPath,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
}

// ProjectPatch updates a subset of project fields; nil fields keep their
// current value
type ProjectPatch struct {
	Name         *string `json:"name,omitempty"`
	RepoURL      *string `json:"repoUrl,omitempty"`
	Branch       *string `json:"branch,omitempty"`
	BuildContext *string `json:"buildContext,omitempty"`
	AppPort      *int    `json:"appPort,omitempty"`
	HealthPath   *string `json:"healthPath,omitempty"`
}

// DeployResult is the server's response to a deploy request
type DeployResult struct {
	Deployment *types.Deployment `json:"deployment"`
	Message    string            `json:"message"`
}

// RollbackResult reports which versions swapped during a rollback
type RollbackResult struct {
	RolledBackFrom int    `json:"rolledBackFrom"`
	RestoredTo     int    `json:"restoredTo"`
	Message        string `json:"message"`
}

// ProjectStatus is the aggregate view returned by the status endpoint
type ProjectStatus struct {
	Project          *types.Project    `json:"project"`
	ActiveDeployment *types.Deployment `json:"activeDeployment,omitempty"`
	InFlight         bool              `json:"inFlight"`
	RoutedPort       int               `json:"routedPort,omitempty"`
}

// ContainerLogs carries a log excerpt from the active container
type ContainerLogs struct {
	Container string `json:"container"`
	Logs      string `json:"logs"`
}

// CreateProject registers a new project
func (c *Client) CreateProject(spec ProjectSpec) (*types.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var project types.Project
	if err := c.do(ctx, http.MethodPost, "/api/v1/projects", spec, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects lists all registered projects
func (c *Client) ListProjects() ([]*types.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var projects []*types.Project
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a project by ID
func (c *Client) GetProject(id string) (*types.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var project types.Project
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects/"+id, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ResolveProject finds a project by name or ID, so CLI commands accept
// either form
func (c *Client) ResolveProject(nameOrID string) (*types.Project, error) {
	projects, err := c.ListProjects()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Name == nameOrID || p.ID == nameOrID {
			return p, nil
		}
	}
	return nil, &APIError{
		Status:  http.StatusNotFound,
		Kind:    "NotFoundError",
		Message: fmt.Sprintf("project %q not found", nameOrID),
	}
}

// UpdateProject patches project settings
func (c *Client) UpdateProject(id string, patch ProjectPatch) (*types.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var project types.Project
	if err := c.do(ctx, http.MethodPatch, "/api/v1/projects/"+id, patch, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ReplaceEnv swaps the project's environment map. The new map takes effect
// on the next deploy
func (c *Client) ReplaceEnv(id string, env map[string]string) (*types.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	body := struct {
		Env map[string]string `json:"env"`
	}{Env: env}

	var project types.Project
	if err := c.do(ctx, http.MethodPatch, "/api/v1/projects/"+id+"/env", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project and tears down its containers
func (c *Client) DeleteProject(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	return c.do(ctx, http.MethodDelete, "/api/v1/projects/"+id, nil, nil)
}

// Deploy runs the full pipeline for a project and blocks until it finishes
func (c *Client) Deploy(projectID string) (*DeployResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	body := struct {
		ProjectID string `json:"projectId"`
	}{ProjectID: projectID}

	var result DeployResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/deploy", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelDeploy requests cancellation of the project's in-flight deploy
func (c *Client) CancelDeploy(projectID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	return c.do(ctx, http.MethodPost, "/api/v1/projects/"+projectID+"/cancel-deploy", nil, nil)
}

// Rollback restores the previous deployment and blocks until traffic has
// switched back
func (c *Client) Rollback(projectID string) (*RollbackResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	var result RollbackResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/projects/"+projectID+"/rollback", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status fetches the aggregate project view
func (c *Client) Status(projectID string) (*ProjectStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var status ProjectStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects/"+projectID+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Logs fetches the tail of the active container's log
func (c *Client) Logs(projectID string, tail int) (*ContainerLogs, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	path := "/api/v1/projects/" + projectID + "/logs"
	if tail > 0 {
		path += "?tail=" + strconv.Itoa(tail)
	}

	var logs ContainerLogs
	if err := c.do(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// Metrics fetches resource usage of the active container
func (c *Client) Metrics(projectID string) (*container.ContainerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var stats container.ContainerStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects/"+projectID+"/metrics", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Deployments lists deployment history, optionally filtered to one project
func (c *Client) Deployments(projectID string) ([]*types.Deployment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	path := "/api/v1/deployments"
	if projectID != "" {
		path += "?projectId=" + projectID
	}

	var deployments []*types.Deployment
	if err := c.do(ctx, http.MethodGet, path, nil, &deployments); err != nil {
		return nil, err
	}
	return deployments, nil
}

// Events fetches the most recent engine events, newest first
func (c *Client) Events(limit int) ([]*events.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	path := "/api/v1/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var evts []*events.Event
	if err := c.do(ctx, http.MethodGet, path, nil, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

// Reconcile asks the server to run a state repair pass now
func (c *Client) Reconcile() (*reconciler.Report, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var report reconciler.Report
	if err := c.do(ctx, http.MethodPost, "/api/v1/system/reconcile", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// do runs one request against the server, encoding in as JSON when non-nil
// and decoding the response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && json.Unmarshal(raw, apiErr) == nil && apiErr.Message != "" {
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
