package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/container"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/deploy"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/events"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/metrics"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/reconciler"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/webhook"
)

// Pipeline runs deployments and rollbacks. Satisfied by deploy.Orchestrator.
type Pipeline interface {
	Deploy(ctx context.Context, projectID string) (*types.Deployment, error)
	Rollback(ctx context.Context, projectID string) (*deploy.RollbackResult, error)
	Cancel(projectID string) error
	InFlight(projectID string) bool
}

// Engine is the container-engine surface the API needs for observability
// endpoints and project teardown.
type Engine interface {
	Logs(ctx context.Context, name string, tail int) (string, error)
	Stats(ctx context.Context, name string) (*container.ContainerStats, error)
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
}

// Traffic reports which host port the proxy currently routes to.
type Traffic interface {
	Current() int
}

// Reconciler runs an on-demand state repair pass.
type Reconciler interface {
	RunOnce(ctx context.Context) (*reconciler.Report, error)
}

// Hooks dispatches inbound webhook deliveries.
type Hooks interface {
	Handle(secret, eventType string, payload []byte) (*webhook.Outcome, error)
}

// Config carries everything the API server depends on.
type Config struct {
	Addr         string
	ProjectsRoot string
	Store        storage.Store
	Pipeline     Pipeline
	Engine       Engine
	Traffic      Traffic
	Reconciler   Reconciler
	Hooks        Hooks
	Broker       *events.Broker
}

// Server is the REST control surface. All state-changing operations go
// through it; the dashboard and CLI are both plain clients.
type Server struct {
	cfg    Config
	http   *http.Server
	logger zerolog.Logger
}

// NewServer creates the API server. Start must be called to serve.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: log.WithComponent("api"),
	}
	s.http = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.routes(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: POST /deploy holds the request open for the
		// whole pipeline, which legitimately runs for minutes.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine. Listen failures and
// serve errors are delivered on the returned channel; a clean Shutdown
// delivers nothing.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("API listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestMetrics)
	r.Use(s.requestLogger)

	// Root-level probes: load balancers and uptime monitors expect these
	// outside the API prefix.
	r.Get("/health", metrics.HealthHandler())
	r.Get("/ready", metrics.ReadyHandler())
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getProject)
				r.Patch("/", s.updateProject)
				r.Delete("/", s.deleteProject)
				r.Patch("/env", s.replaceEnv)
				r.Get("/status", s.projectStatus)
				r.Get("/logs", s.projectLogs)
				r.Get("/metrics", s.projectMetrics)
				r.Post("/rollback", s.rollbackProject)
				r.Post("/cancel-deploy", s.cancelDeploy)
			})
		})
		r.Post("/deploy", s.deployProject)
		r.Get("/deployments", s.listDeployments)
		r.Get("/deployments/{id}", s.getDeployment)
		r.Post("/webhooks/{secret}", s.handleWebhook)
		r.Get("/events", s.listEvents)
		r.Post("/system/reconcile", s.reconcile)
	})

	return r
}

// errorPayload is the wire shape of every error response.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"InternalError","message":"response encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// renderError maps classified errors onto the wire contract. Unclassified
// errors are logged server-side and rendered as a generic 500 so internal
// details never reach the client.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	payload := errorPayload{
		Error: errdefs.WireName(err),
		Code:  errdefs.DetailCode(err),
	}

	var e *errdefs.Error
	if errors.As(err, &e) {
		payload.Message = e.Message
	} else {
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Unclassified error")
		payload.Message = "internal error"
	}

	writeJSON(w, errdefs.HTTPStatus(err), payload)
}

// decodeJSON reads a request body into dst, failing with a validation
// error on malformed input.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errdefs.Validation("invalid request body: %v", err)
	}
	return nil
}
