package runner

import (
	"context"
	"math/rand"
	"time"
)

const (
	backoffBase       = time.Second
	backoffMultiplier = 1.8
	backoffCap        = 60 * time.Second

	backoffJitterRatio = 0.25
	tickJitterRatio    = 0.10
)

// backoff tracks the exponential delay applied after whole-cycle failures.
type backoff struct {
	current time.Duration
}

// next grows the delay: base on first failure, ×1.8 thereafter, capped.
func (b *backoff) next() time.Duration {
	if b.current == 0 {
		b.current = backoffBase
	} else {
		b.current = time.Duration(float64(b.current) * backoffMultiplier)
	}
	if b.current > backoffCap {
		b.current = backoffCap
	}
	return b.current
}

func (b *backoff) reset() {
	b.current = 0
}

// jitter spreads a duration by ±ratio so multiple runner instances drift
// apart instead of ticking in lockstep.
func jitter(d time.Duration, ratio float64) time.Duration {
	if ratio <= 0 || d <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * ratio * float64(d)
	jittered := time.Duration(float64(d) + delta)
	if jittered < 0 {
		return 0
	}
	return jittered
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
