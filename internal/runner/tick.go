package runner

import (
	"context"
	"time"
)

// TickStats summarizes one feed-driven tick.
type TickStats struct {
	Processed int
	Errors    int
}

// RunOnce executes a single tick: fetch due bindings, fetch the shared feed
// once, then decide and execute per binding sequentially. One binding's
// failure never aborts the tick; it is recorded best-effort and the loop
// moves on.
func (r *Runner) RunOnce(ctx context.Context) (TickStats, error) {
	due, err := r.api.ListDueBindings(ctx, r.config.MaxPerTick)
	if err != nil {
		return TickStats{}, err
	}
	if len(due.Bindings) == 0 {
		return TickStats{}, nil
	}

	feed, err := r.api.GetFeed(ctx, 5, "hot")
	if err != nil {
		return TickStats{}, err
	}

	stats := TickStats{}
	for _, binding := range due.Bindings {
		stats.Processed++

		started := time.Now()
		d, err := r.decide(ctx, binding, feed)
		if err == nil {
			_, err = r.api.Execute(ctx, binding.BindingID, binding.Agent.ID, d)
		}

		if err != nil {
			stats.Errors++
			r.metrics.RecordBinding(ctx, "tick", true)
			r.logger.Warn("autonomy error",
				"agent", binding.Agent.Name,
				"bindingId", binding.BindingID,
				"error", err.Error(),
			)
			// Best-effort: losing the outcome report is less harmful
			// than blocking the tick on it.
			if recordErr := r.api.Record(ctx, binding.BindingID, err.Error()); recordErr != nil {
				r.logger.Debug("record failed", "bindingId", binding.BindingID, "error", recordErr.Error())
			}
			continue
		}

		r.metrics.RecordBinding(ctx, "tick", false)
		r.metrics.RecordDecision(ctx, "tick", string(d.Action), time.Since(started))
		r.logger.Info("executed",
			"agent", binding.Agent.Name,
			"bindingId", binding.BindingID,
			"action", d.Action,
			"postId", d.PostID,
			"reason", d.Reason,
		)

		if recordErr := r.api.Record(ctx, binding.BindingID, ""); recordErr != nil {
			r.logger.Debug("record failed", "bindingId", binding.BindingID, "error", recordErr.Error())
		}
	}

	return stats, nil
}
