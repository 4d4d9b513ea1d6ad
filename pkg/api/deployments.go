package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

type deployRequest struct {
	ProjectID string `json:"projectId"`
}

type deployResponse struct {
	Deployment *types.Deployment `json:"deployment"`
	Message    string            `json:"message"`
}

// deployProject runs the full pipeline synchronously; the response is
// sent once the new version is live (or the pipeline has failed).
func (s *Server) deployProject(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}
	if req.ProjectID == "" {
		s.renderError(w, r, errdefs.Validation("projectId is required"))
		return
	}

	// Deliberately not the request context: a dropped client connection
	// must not abort a half-finished deploy. Cancellation is an explicit
	// operation via cancel-deploy.
	deployment, err := s.cfg.Pipeline.Deploy(context.Background(), req.ProjectID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deployResponse{
		Deployment: deployment,
		Message:    fmt.Sprintf("version %d is live on port %d", deployment.Version, deployment.Port),
	})
}

func (s *Server) cancelDeploy(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Pipeline.Cancel(chi.URLParam(r, "id")); err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

type rollbackResponse struct {
	RolledBackFrom int    `json:"rolledBackFrom"`
	RestoredTo     int    `json:"restoredTo"`
	Message        string `json:"message"`
}

func (s *Server) rollbackProject(w http.ResponseWriter, r *http.Request) {
	// Same reasoning as deploy: the rollback outlives the connection.
	result, err := s.cfg.Pipeline.Rollback(context.Background(), chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rollbackResponse{
		RolledBackFrom: result.RolledBackFrom,
		RestoredTo:     result.RestoredTo,
		Message:        fmt.Sprintf("version %d restored, version %d retired", result.RestoredTo, result.RolledBackFrom),
	})
}

func (s *Server) listDeployments(w http.ResponseWriter, r *http.Request) {
	var (
		deployments []*types.Deployment
		err         error
	)
	if projectID := r.URL.Query().Get("projectId"); projectID != "" {
		deployments, err = s.cfg.Store.ListDeploymentsByProject(projectID)
	} else {
		deployments, err = s.cfg.Store.ListDeployments()
	}
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deployments)
}

func (s *Server) getDeployment(w http.ResponseWriter, r *http.Request) {
	deployment, err := s.cfg.Store.GetDeployment(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deployment)
}
