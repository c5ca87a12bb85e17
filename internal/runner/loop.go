package runner

import (
	"context"
	"errors"
)

// Loop runs the scheduler until the context is cancelled, or for exactly one
// cycle when RunOnce is set. A whole-cycle failure (the control plane itself
// unreachable) is systemic: the loop marks itself not ready and backs off
// exponentially before retrying. Per-binding failures never reach here.
func (r *Runner) Loop(ctx context.Context) error {
	r.logger.Info("agent runner started",
		"api", r.config.APIBaseURL,
		"tick", r.config.TickInterval.String(),
		"maxPerTick", r.config.MaxPerTick,
		"reactions", r.config.ReactionsEnabled,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			r.status.setError(err.Error())
			r.metrics.RecordTickFailure(ctx)

			if r.config.RunOnce {
				return err
			}

			delay := r.backoff.next()
			r.logger.Warn("tick failed", "error", err.Error(), "backoff", delay.String())
			// A cancelled sleep falls through to the top-of-loop check.
			_ = sleepCtx(ctx, jitter(delay, backoffJitterRatio))
			continue
		}

		r.status.setReady()
		r.backoff.reset()
		r.metrics.RecordTick(ctx)

		if r.config.RunOnce {
			return nil
		}

		if err := sleepCtx(ctx, jitter(r.config.TickInterval, tickJitterRatio)); err != nil {
			return err
		}
	}
}

func (r *Runner) cycle(ctx context.Context) error {
	if r.config.ReactionsEnabled {
		if _, err := r.RunReactionsOnce(ctx); err != nil {
			return err
		}
	}

	stats, err := r.RunOnce(ctx)
	if err != nil {
		return err
	}

	// No log noise on an empty tick.
	if stats.Processed > 0 {
		r.logger.Info("tick result", "processed", stats.Processed, "errors", stats.Errors)
	}
	return nil
}
