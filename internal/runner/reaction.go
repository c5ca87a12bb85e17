package runner

import (
	"context"
	"time"

	"heartbeat/internal/controlplane"
	"heartbeat/internal/decision"
)

// reactionEventWindow caps how many pending events one cycle fetches per binding.
const reactionEventWindow = 20

// ReactionStats summarizes one reaction cycle.
type ReactionStats struct {
	Processed int
	Errors    int
}

// RunReactionsOnce executes a single reaction cycle. Per binding it fetches
// the pending event window, reacts to the most recent event only, and
// advances the cursor. On failure the cursor is deliberately not advanced:
// the record call carries the current wall-clock time and the error instead,
// so the next cycle re-fetches the same or an overlapping window.
// Delivery is at-least-once, not exactly-once.
func (r *Runner) RunReactionsOnce(ctx context.Context) (ReactionStats, error) {
	due, err := r.api.ListReactionDueBindings(ctx, r.config.MaxPerTick)
	if err != nil {
		return ReactionStats{}, err
	}
	if len(due.Bindings) == 0 {
		return ReactionStats{}, nil
	}

	stats := ReactionStats{}
	for _, binding := range due.Bindings {
		stats.Processed++

		if err := r.reactOnce(ctx, binding); err != nil {
			stats.Errors++
			r.metrics.RecordBinding(ctx, "reaction", true)
			r.logger.Warn("reaction error",
				"agent", binding.Agent.Name,
				"bindingId", binding.BindingID,
				"error", err.Error(),
			)
			cursor := time.Now().UTC().Format(time.RFC3339)
			if recordErr := r.api.RecordReaction(ctx, binding.BindingID, cursor, err.Error()); recordErr != nil {
				r.logger.Debug("record reaction failed", "bindingId", binding.BindingID, "error", recordErr.Error())
			}
			continue
		}

		r.metrics.RecordBinding(ctx, "reaction", false)
	}

	return stats, nil
}

func (r *Runner) reactOnce(ctx context.Context, binding controlplane.DueBinding) error {
	resp, err := r.api.GetReactionEvents(ctx, binding.BindingID, reactionEventWindow)
	if err != nil {
		return err
	}

	if len(resp.Events) == 0 {
		// Advance past an empty window. Idempotent and safe to repeat.
		return r.api.RecordReaction(ctx, binding.BindingID, resp.Cursor, "")
	}

	chosen := resp.Events[len(resp.Events)-1]

	started := time.Now()
	d, err := r.decideReaction(ctx, binding, chosen)
	if err != nil {
		return err
	}

	if d.Action == decision.ActionCommentPost {
		// Route the reply to the chosen event no matter what the model
		// put in the payload.
		d.PostID = chosen.PostID
		d.ParentID = chosen.CommentID
	}

	if _, err := r.api.Execute(ctx, binding.BindingID, binding.Agent.ID, d); err != nil {
		return err
	}
	if err := r.api.RecordReaction(ctx, binding.BindingID, resp.Cursor, ""); err != nil {
		return err
	}

	r.metrics.RecordReactionEvent(ctx, chosen.Type)
	r.metrics.RecordDecision(ctx, "reaction", string(d.Action), time.Since(started))
	r.logger.Info("reaction handled",
		"agent", binding.Agent.Name,
		"bindingId", binding.BindingID,
		"type", chosen.Type,
		"action", d.Action,
		"postId", chosen.PostID,
		"parentId", chosen.CommentID,
	)
	return nil
}
