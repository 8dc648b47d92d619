package explorer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// Throttle is the process-wide ceiling on outbound explorer calls.
// It is safe for concurrent use; every caller that shares one Throttle
// shares its budget.
type Throttle struct {
	limiter *rate.Limiter
	clock   Clock
	name    string
}

// NewThrottle creates a throttle allowing rps calls per second.
func NewThrottle(name string, rps int, clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock{}
	}
	slog.Debug("throttle created",
		"provider", name,
		"rps", rps,
	)
	return &Throttle{
		// Burst(1) turns the rate into a minimum gap between calls instead of
		// allowing a burst at the start of every second.
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		clock:   clock,
		name:    name,
	}
}

// Wait blocks until the next call is allowed or ctx is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("throttle %s: reservation refused", t.name)
	}

	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	if err := t.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(t.clock.Now())
		slog.Warn("throttle wait cancelled",
			"provider", t.name,
			"error", err,
		)
		return err
	}
	return nil
}

// Name returns the provider name this throttle is associated with.
func (t *Throttle) Name() string {
	return t.name
}
