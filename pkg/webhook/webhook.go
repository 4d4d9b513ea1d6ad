package webhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/storage"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

// Deployer runs a deployment pipeline. Satisfied by deploy.Orchestrator.
type Deployer interface {
	Deploy(ctx context.Context, projectID string) (*types.Deployment, error)
}

// Outcome tells the webhook sender what happened to its delivery.
type Outcome struct {
	Triggered bool   `json:"triggered"`
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

// pushPayload is the slice of a git-host push payload we care about.
type pushPayload struct {
	Ref string `json:"ref"`
}

// Dispatcher maps inbound push notifications to deployments. The project
// is identified by the secret embedded in the webhook URL; knowing the
// secret is the authentication.
type Dispatcher struct {
	store    storage.Store
	deployer Deployer
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given store and deployer.
func NewDispatcher(store storage.Store, deployer Deployer) *Dispatcher {
	return &Dispatcher{
		store:    store,
		deployer: deployer,
		logger:   log.WithComponent("webhook"),
	}
}

// Handle processes one webhook delivery. eventType comes from the
// X-GitHub-Event header (or X-Event-Type for other senders); an empty
// value is treated as a push so bare curl deliveries still work.
//
// Only pushes to the project's configured branch trigger a deploy, and the
// deploy runs in a fire-and-forget goroutine: the sender gets its response
// immediately instead of being held open for the whole pipeline. A deploy
// already in flight makes the triggered one fail with a conflict, which is
// logged but not returned; the sender already got its 200.
func (d *Dispatcher) Handle(secret, eventType string, payload []byte) (*Outcome, error) {
	project, err := d.store.GetProjectByWebhookSecret(secret)
	if err != nil {
		return nil, err
	}

	logger := d.logger.With().Str("project_id", project.ID).Str("project", project.Name).Logger()

	if eventType != "" && eventType != "push" {
		logger.Debug().Str("event", eventType).Msg("Ignoring non-push webhook event")
		return &Outcome{Skipped: true, Reason: "event ignored"}, nil
	}

	var push pushPayload
	if err := json.Unmarshal(payload, &push); err != nil {
		return nil, errdefs.Validation("invalid webhook payload: not JSON")
	}

	branch := strings.TrimPrefix(push.Ref, "refs/heads/")
	if push.Ref == "" || branch != project.Branch {
		logger.Debug().Str("ref", push.Ref).Str("want_branch", project.Branch).Msg("Ignoring push to other branch")
		return &Outcome{Skipped: true, Reason: "branch mismatch"}, nil
	}

	logger.Info().Str("branch", branch).Msg("Webhook push accepted, triggering deploy")
	go func() {
		if _, err := d.deployer.Deploy(context.Background(), project.ID); err != nil {
			logger.Warn().Err(err).Msg("Webhook-triggered deploy failed")
		}
	}()

	return &Outcome{Triggered: true, ProjectID: project.ID}, nil
}
