package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
)

// maxWebhookBody caps inbound webhook payloads. GitHub's own limit is
// 25 MB; push payloads we care about are far smaller.
const maxWebhookBody = 1 << 20

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.renderError(w, r, errdefs.Validation("failed to read webhook payload: %v", err))
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		eventType = r.Header.Get("X-Event-Type")
	}

	outcome, err := s.cfg.Hooks.Handle(chi.URLParam(r, "secret"), eventType, payload)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.renderError(w, r, errdefs.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.cfg.Broker.Recent(limit))
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.cfg.Reconciler.RunOnce(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
