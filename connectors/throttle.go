package connectors

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/alexmarroig/Carpremiumsell/config"
)

// Throttle paces a connector's page fetches: a per-minute rate limit plus a
// randomized inter-request delay drawn from the configured [min, max] range,
// so request timing does not form a detectable steady beat.
type Throttle struct {
	limiter *rate.Limiter
	min     time.Duration
	max     time.Duration
	rng     *rand.Rand
}

// NewThrottle builds a Throttle from the app config.
func NewThrottle(cfg *config.Config) *Throttle {
	perMinute := cfg.RatePerMinute
	if perMinute < 1 {
		perMinute = 1
	}
	min := time.Duration(cfg.MinDelayMs) * time.Millisecond
	max := time.Duration(cfg.MaxDelayMs) * time.Millisecond
	if max < min {
		max = min
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		min:     min,
		max:     max,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks until the next request may be issued, or the context ends.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	delay := t.min
	if t.max > t.min {
		delay += time.Duration(t.rng.Int63n(int64(t.max - t.min)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
