package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// namePattern constrains project names to what is safe as a container
// name prefix and a DNS label.
var namePattern = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)

// projectRequest is the create payload. basePort and webhookSecret are
// always server-assigned.
type projectRequest struct {
	Name         string            `json:"name"`
	RepoURL      string            `json:"repoUrl"`
	Branch       string            `json:"branch"`
	BuildContext string            `json:"buildContext"`
	AppPort      int               `json:"appPort"`
	HealthPath   string            `json:"healthPath"`
	Env          map[string]string `json:"env"`
}

// projectPatch is the partial-update payload; nil fields are untouched.
type projectPatch struct {
	Name         *string `json:"name"`
	RepoURL      *string `json:"repoUrl"`
	Branch       *string `json:"branch"`
	BuildContext *string `json:"buildContext"`
	AppPort      *int    `json:"appPort"`
	HealthPath   *string `json:"healthPath"`
}

type envRequest struct {
	Env map[string]string `json:"env"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}

	if req.BuildContext == "" {
		req.BuildContext = "."
	}
	if req.HealthPath == "" {
		req.HealthPath = "/health"
	}
	if req.Env == nil {
		req.Env = map[string]string{}
	}

	secret, err := newWebhookSecret()
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	now := time.Now().UTC()
	project := &types.Project{
		ID:            uuid.New().String(),
		Name:          req.Name,
		RepoURL:       req.RepoURL,
		Branch:        req.Branch,
		BuildContext:  req.BuildContext,
		AppPort:       req.AppPort,
		HealthPath:    req.HealthPath,
		Env:           req.Env,
		WebhookSecret: secret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	project.LocalPath = filepath.Join(s.cfg.ProjectsRoot, project.ID)

	if err := validateProject(project); err != nil {
		s.renderError(w, r, err)
		return
	}

	// BasePort is assigned inside the store transaction; name uniqueness
	// is enforced there too.
	if err := s.cfg.Store.CreateProject(project); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.logger.Info().Str("project_id", project.ID).Str("project", project.Name).Int("base_port", project.BasePort).Msg("Project created")
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.cfg.Store.ListProjects()
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.cfg.Store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.cfg.Store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var patch projectPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.renderError(w, r, err)
		return
	}

	if patch.Name != nil {
		project.Name = *patch.Name
	}
	if patch.RepoURL != nil {
		project.RepoURL = *patch.RepoURL
	}
	if patch.Branch != nil {
		project.Branch = *patch.Branch
	}
	if patch.BuildContext != nil {
		project.BuildContext = *patch.BuildContext
	}
	if patch.AppPort != nil {
		project.AppPort = *patch.AppPort
	}
	if patch.HealthPath != nil {
		project.HealthPath = *patch.HealthPath
	}

	if err := validateProject(project); err != nil {
		s.renderError(w, r, err)
		return
	}

	if patch.Name != nil {
		if existing, err := s.cfg.Store.GetProjectByName(project.Name); err == nil && existing.ID != project.ID {
			s.renderError(w, r, errdefs.Validation("project name %q is already in use", project.Name))
			return
		}
	}

	project.UpdatedAt = time.Now().UTC()
	if err := s.cfg.Store.UpdateProject(project); err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) replaceEnv(w http.ResponseWriter, r *http.Request) {
	project, err := s.cfg.Store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var req envRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}
	if req.Env == nil {
		req.Env = map[string]string{}
	}
	for key := range req.Env {
		if key == "" {
			s.renderError(w, r, errdefs.Validation("env keys must be non-empty"))
			return
		}
	}

	// The new map takes effect on the next deploy; running containers
	// keep the environment they were launched with.
	project.Env = req.Env
	project.UpdatedAt = time.Now().UTC()
	if err := s.cfg.Store.UpdateProject(project); err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.cfg.Store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	// Best-effort teardown of both slot containers. Absence is normal:
	// a project may never have deployed, or only ever used one slot.
	for _, color := range []types.Color{types.ColorBlue, types.ColorGreen} {
		name := color.ContainerName(project.Name)
		if err := s.cfg.Engine.StopContainer(r.Context(), name); err != nil {
			s.logger.Debug().Err(err).Str("container", name).Msg("Teardown stop")
		}
		if err := s.cfg.Engine.RemoveContainer(r.Context(), name); err != nil {
			s.logger.Debug().Err(err).Str("container", name).Msg("Teardown remove")
		}
	}

	if err := s.cfg.Store.DeleteProject(project.ID); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.logger.Info().Str("project_id", project.ID).Str("project", project.Name).Msg("Project deleted")
	w.WriteHeader(http.StatusNoContent)
}

// statusResponse aggregates everything the dashboard's project page needs
// in one round trip.
type statusResponse struct {
	Project          *types.Project    `json:"project"`
	ActiveDeployment *types.Deployment `json:"activeDeployment,omitempty"`
	InFlight         bool              `json:"inFlight"`
	RoutedPort       int               `json:"routedPort,omitempty"`
}

func (s *Server) projectStatus(w http.ResponseWriter, r *http.Request) {
	project, err := s.cfg.Store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	active, err := s.cfg.Store.ActiveDeployment(project.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Project:          project,
		ActiveDeployment: active,
		InFlight:         s.cfg.Pipeline.InFlight(project.ID),
		RoutedPort:       s.cfg.Traffic.Current(),
	})
}

type logsResponse struct {
	Container string `json:"container"`
	Logs      string `json:"logs"`
}

func (s *Server) projectLogs(w http.ResponseWriter, r *http.Request) {
	project, active, err := s.activeDeploymentOf(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	tail := 100
	if v := r.URL.Query().Get("tail"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &tail); err != nil || tail < 1 {
			s.renderError(w, r, errdefs.Validation("tail must be a positive integer"))
			return
		}
	}

	logs, err := s.cfg.Engine.Logs(r.Context(), active.ContainerName, tail)
	if err != nil {
		s.renderError(w, r, errdefs.Deploymentf("failed to read logs of %s: %v", project.Name, err))
		return
	}
	writeJSON(w, http.StatusOK, logsResponse{Container: active.ContainerName, Logs: logs})
}

func (s *Server) projectMetrics(w http.ResponseWriter, r *http.Request) {
	project, active, err := s.activeDeploymentOf(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	stats, err := s.cfg.Engine.Stats(r.Context(), active.ContainerName)
	if err != nil {
		s.renderError(w, r, errdefs.Deploymentf("failed to read stats of %s: %v", project.Name, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// activeDeploymentOf resolves the {id} project and its ACTIVE deployment,
// for endpoints that only make sense with a live container.
func (s *Server) activeDeploymentOf(r *http.Request) (*types.Project, *types.Deployment, error) {
	project, err := s.cfg.Store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	active, err := s.cfg.Store.ActiveDeployment(project.ID)
	if err != nil {
		return nil, nil, err
	}
	if active == nil {
		return nil, nil, errdefs.NoActiveDeployment(project.ID)
	}
	return project, active, nil
}

// validateProject enforces the registration rules shared by create and
// update.
func validateProject(p *types.Project) error {
	if !namePattern.MatchString(p.Name) {
		return errdefs.Validation("name must be 1-64 lowercase alphanumeric or hyphen characters")
	}
	u, err := url.Parse(p.RepoURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return errdefs.Validation("repoUrl must be an HTTPS URL")
	}
	if p.Branch == "" {
		return errdefs.Validation("branch must be non-empty")
	}
	if p.AppPort < 1 || p.AppPort > 65535 {
		return errdefs.Validation("appPort must be between 1 and 65535, got %d", p.AppPort)
	}
	if len(p.HealthPath) == 0 || p.HealthPath[0] != '/' {
		return errdefs.Validation("healthPath must start with /")
	}
	for key := range p.Env {
		if key == "" {
			return errdefs.Validation("env keys must be non-empty")
		}
	}
	return nil
}

// newWebhookSecret mints the 48-hex token embedded in the project's
// webhook URL.
func newWebhookSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
