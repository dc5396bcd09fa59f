package enrich

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

const (
	defaultAttempts = 2 // one retry after the initial attempt
	defaultBackoff  = 2 * time.Second
	jitterFactor    = 0.2 // +/- 20%
)

// Retrying decorates an Enricher with bounded retries and backoff. The
// decision of whether a run keeps paying for a failing provider stays with the
// caller; this type only bounds attempts per call.
type Retrying struct {
	inner    Enricher
	attempts int
	backoff  time.Duration
	logger   *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

var _ Enricher = (*Retrying)(nil)

// NewRetrying wraps inner with attempts total tries and a fixed backoff plus
// jitter between them.
func NewRetrying(inner Enricher, attempts int, backoff time.Duration, logger *zap.Logger) *Retrying {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

func (r *Retrying) Enrich(ctx context.Context, content string) (*entity.EnrichmentResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		res, err := r.inner.Enrich(ctx, content)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == r.attempts {
			break
		}

		r.logger.Warn("enrichment attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if err := r.sleep(ctx, withJitter(r.backoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func withJitter(d time.Duration) time.Duration {
	delta := jitterFactor * float64(d)
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
