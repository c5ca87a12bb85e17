package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"heartbeat/internal/controlplane"
	"heartbeat/internal/decision"
	"heartbeat/internal/secondme"
	"heartbeat/internal/sse"
)

// decisionHeadroom is shaved off the request timeout for the streaming call
// so there is always time left to report failure before the outer timeout.
const decisionHeadroom = 2 * time.Second

const minDecisionTimeout = time.Second

type agentContext struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

func agentContextFor(b controlplane.DueBinding) agentContext {
	return agentContext{
		ID:          b.Agent.ID,
		Name:        b.Agent.Name,
		DisplayName: b.Agent.DisplayName,
		Description: b.Agent.Description,
	}
}

func (r *Runner) decisionTimeout() time.Duration {
	timeout := r.config.RequestTimeout - decisionHeadroom
	if timeout < minDecisionTimeout {
		timeout = minDecisionTimeout
	}
	return timeout
}

// decide obtains a feed-driven decision for one binding: token exchange,
// stream request, decode, validate. Unusable model output is an implicit
// pass, never an error.
func (r *Runner) decide(ctx context.Context, binding controlplane.DueBinding, feed []controlplane.FeedItem) (*decision.Decision, error) {
	accessToken, err := r.api.GetAccessToken(ctx, binding.User.ID)
	if err != nil {
		return nil, err
	}

	memories := r.canonMemories(ctx, binding.Agent)

	message, err := json.Marshal(map[string]any{
		"instruction": "Choose ONE action based on the feed context.",
		"context": map[string]any{
			"agent":         agentContextFor(binding),
			"feed":          feed,
			"canonMemories": memories,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal decision context: %w", err)
	}

	raw, err := r.streamDecision(ctx, accessToken, secondme.ActRequest{
		Message:      string(message),
		SystemPrompt: decision.FeedSystemPrompt,
	})
	if err != nil {
		return nil, err
	}

	d := decision.Validate(raw, decision.FeedVocabulary)
	if d == nil {
		return decision.Pass(), nil
	}
	return d, nil
}

// decideReaction obtains a decision scoped to a single reaction event,
// normalized to the restricted reaction vocabulary.
func (r *Runner) decideReaction(ctx context.Context, binding controlplane.DueBinding, event controlplane.ReactionEvent) (*decision.Decision, error) {
	accessToken, err := r.api.GetAccessToken(ctx, binding.User.ID)
	if err != nil {
		return nil, err
	}

	message, err := json.Marshal(map[string]any{
		"instruction": "Decide whether to reply. If replying, produce a brief reply.",
		"context": map[string]any{
			"agent": agentContextFor(binding),
			"event": event,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal reaction context: %w", err)
	}

	raw, err := r.streamDecision(ctx, accessToken, secondme.ActRequest{
		Message:      string(message),
		SystemPrompt: decision.ReactionSystemPrompt,
	})
	if err != nil {
		return nil, err
	}

	return decision.NormalizeReaction(decision.Validate(raw, decision.ReactionVocabulary)), nil
}

// streamDecision runs one streaming round-trip under the decision
// sub-timeout and returns the last JSON value the stream produced.
func (r *Runner) streamDecision(ctx context.Context, accessToken string, req secondme.ActRequest) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, r.decisionTimeout())
	defer cancel()

	stream, err := r.secondme.ActStream(ctx, accessToken, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()

	return sse.ReadLastJSONObject(ctx, stream, sse.DefaultMaxBytes)
}

// canonMemories fetches citation candidates for feed-mode grounding. This is
// best-effort: without hits the system prompt forces a pass for any action
// that would need a citation, so a search failure degrades instead of
// erroring the binding.
func (r *Runner) canonMemories(ctx context.Context, agent controlplane.AgentSummary) []controlplane.MemoryHit {
	query := agent.Description
	if query == "" {
		query = agent.Name
	}

	hits, err := r.api.SearchCanonMemories(ctx, agent.ID, query, 5)
	if err != nil {
		r.logger.Warn("canon memory search failed", "agent", agent.Name, "error", err.Error())
		return []controlplane.MemoryHit{}
	}
	if hits == nil {
		hits = []controlplane.MemoryHit{}
	}
	return hits
}
