// Package runner drives the tick and reaction scheduling loop.
package runner

import (
	"context"
	"io"

	"heartbeat/internal/config"
	"heartbeat/internal/controlplane"
	"heartbeat/internal/decision"
	"heartbeat/internal/logging"
	"heartbeat/internal/observability"
	"heartbeat/internal/secondme"
)

// ControlPlane is the slice of the control-plane client the runner uses.
type ControlPlane interface {
	ListDueBindings(ctx context.Context, limit int) (*controlplane.DueResponse, error)
	ListReactionDueBindings(ctx context.Context, limit int) (*controlplane.DueResponse, error)
	GetAccessToken(ctx context.Context, userID string) (string, error)
	GetFeed(ctx context.Context, limit int, sort string) ([]controlplane.FeedItem, error)
	GetReactionEvents(ctx context.Context, bindingID string, limit int) (*controlplane.ReactionEventsResponse, error)
	SearchCanonMemories(ctx context.Context, agentID, query string, limit int) ([]controlplane.MemoryHit, error)
	Execute(ctx context.Context, bindingID, agentID string, d *decision.Decision) (*controlplane.ExecuteResult, error)
	Record(ctx context.Context, bindingID, errMsg string) error
	RecordReaction(ctx context.Context, bindingID, cursor, errMsg string) error
}

// DecisionStreamer opens a streaming decision request.
type DecisionStreamer interface {
	ActStream(ctx context.Context, accessToken string, body secondme.ActRequest) (io.ReadCloser, error)
}

// Runner holds the collaborators for both orchestrators and the loop.
// Bindings are processed strictly sequentially: no concurrent duplicate
// actions against the same agent, and the control plane's rate limits stay
// respected.
type Runner struct {
	config   *config.RunnerConfig
	api      ControlPlane
	secondme DecisionStreamer
	logger   *logging.Logger
	metrics  *observability.Metrics
	status   *Status
	backoff  backoff
}

// New creates a runner.
func New(cfg *config.RunnerConfig, api ControlPlane, streamer DecisionStreamer, logger *logging.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		config:   cfg,
		api:      api,
		secondme: streamer,
		logger:   logging.OrNop(logger).Component("runner"),
		metrics:  metrics,
		status:   NewStatus(),
	}
}

// Status exposes the loop state for the readiness surface.
func (r *Runner) Status() *Status {
	return r.status
}
