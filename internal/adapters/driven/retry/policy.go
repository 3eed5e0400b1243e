// Package retry wraps provider adapters with bounded exponential backoff and
// optional client-side rate limiting.
//
// Only errors classified transient by domain.IsTransient are retried. When
// attempts run out the last error is returned unchanged.
package retry

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Policy controls how failed provider calls are retried.
type Policy struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration

	// limiter throttles every attempt, nil for unlimited.
	limiter *rate.Limiter

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy builds a policy from settings. A RateLimit above zero caps
// provider requests per second.
func NewPolicy(s domain.RetrySettings) *Policy {
	p := &Policy{
		MaxAttempts: s.MaxAttempts,
		MinWait:     s.MinWait,
		MaxWait:     s.MaxWait,
		sleep:       sleepContext,
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if s.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(s.RateLimit), 1)
	}
	return p
}

// Backoff returns the wait before the given retry (1-based): MinWait
// doubled per attempt and capped at MaxWait.
func (p *Policy) Backoff(retry int) time.Duration {
	wait := p.MinWait
	for i := 1; i < retry && wait < p.MaxWait; i++ {
		wait *= 2
	}
	if p.MaxWait > 0 && wait > p.MaxWait {
		wait = p.MaxWait
	}
	return wait
}

// Do runs op until it succeeds, fails permanently, or attempts run out.
func (p *Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if p.limiter != nil {
			if werr := p.limiter.Wait(ctx); werr != nil {
				if err != nil {
					return err
				}
				return werr
			}
		}

		err = op(ctx)
		if err == nil || !domain.IsTransient(err) || attempt >= p.MaxAttempts {
			return err
		}

		wait := p.Backoff(attempt)
		if ra := domain.RetryAfter(err); ra > wait {
			wait = ra
			if p.MaxWait > 0 && wait > p.MaxWait {
				wait = p.MaxWait
			}
		}
		logger.Debug("%s failed (attempt %d/%d), retrying in %s: %v", name, attempt, p.MaxAttempts, wait, err)

		if serr := p.sleep(ctx, wait); serr != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
